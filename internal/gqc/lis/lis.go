// Package lis implements LISFilter (spec component C6): selects the best
// set of non-overlapping alignments on one axis (target or query) by a
// longest-increasing-subsequence dynamic program, then repeats on the
// leftover alignments to recover every non-overlapping chain. It is a
// direct port of the delta-filter RLIS/QLIS algorithm in
// mummermethods.py's filter_aligns (mummeralgorithm=True branch).
package lis

import (
	"sort"

	"github.com/grailbio/gqc/internal/gqc/align"
)

// Axis selects which coordinate pair the DP sorts and overlaps on.
type Axis int

const (
	// Target sorts and overlaps by reference (RStart/REnd) -- RLIS.
	Target Axis = iota
	// Query sorts and overlaps by query (QStart/QEnd) -- QLIS.
	Query
)

// DefaultMaxOverlap is the fraction of either alignment's own length that
// its overlap with a chain predecessor may consume before the candidate is
// rejected outright, per mummermethods.py's default maxoverlap=0.95.
const DefaultMaxOverlap = 0.95

type candidate struct {
	align    *align.Alignment
	low, high int // 1-based inclusive, on the chosen axis
	identity  float64
}

func coords(a *align.Alignment, axis Axis) (low, high int) {
	if axis == Target {
		return a.RStart, a.REnd
	}
	return a.QStart, a.QEnd
}

// record is one DP table entry, mirroring the Perl $lis[$i] hash:
// used marks an alignment as already claimed by a previously extracted
// chain; score/from/diff carry the current-round DP state.
type record struct {
	used  bool
	score float64
	from  int // index into cands, or -1 for "no predecessor"
	diff  int // cumulative signed coordinate deviation, used as a tie-break
}

// Filter returns the alignments surviving LIS filtering on axis, repeating
// the DP over the unused remainder until no further non-overlapping chain
// can be extracted. Order of the returned slice is unspecified beyond
// "each chain's members appear together"; callers that need axis order
// should re-sort.
func Filter(aligns []*align.Alignment, axis Axis, maxOverlap float64) []*align.Alignment {
	if len(aligns) == 0 {
		return nil
	}
	if maxOverlap <= 0 {
		maxOverlap = DefaultMaxOverlap
	}

	cands := make([]candidate, len(aligns))
	for i, a := range aligns {
		low, high := coords(a, axis)
		identity := a.Identity()
		cands[i] = candidate{align: a, low: low, high: high, identity: identity}
	}
	order := make([]int, len(cands))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return cands[order[i]].low < cands[order[j]].low })

	recs := make([]record, len(cands))

	var kept []*align.Alignment
	for {
		chain := bestChain(cands, order, recs, maxOverlap)
		if len(chain) == 0 {
			break
		}
		for _, idx := range chain {
			recs[idx].used = true
			kept = append(kept, cands[idx].align)
		}
	}
	return kept
}

// bestChain runs one DP pass over the not-yet-used candidates (in order,
// sorted ascending by low coordinate) and returns the indices making up the
// single highest-scoring chain, or nil if every candidate is already used.
func bestChain(cands []candidate, order []int, recs []record, maxOverlap float64) []int {
	active := make([]int, 0, len(order))
	for _, idx := range order {
		if !recs[idx].used {
			active = append(active, idx)
		}
	}
	if len(active) == 0 {
		return nil
	}

	for _, idx := range active {
		recs[idx].score = sqLen(cands[idx]) * cands[idx].identity * cands[idx].identity
		recs[idx].from = -1
		recs[idx].diff = 0
	}

	bestIdx := active[0]
	for pos, j := range active {
		cj := cands[j]
		for _, i := range active[:pos] {
			ci := cands[i]
			if ci.high >= cj.high {
				// i's own chain-end already reaches or passes j's end; j adds
				// nothing new on this axis.
				continue
			}
			olap := overlap(ci, cj)
			leni := float64(ci.high - ci.low + 1)
			lenj := float64(cj.high - cj.low + 1)
			olapfraction := olap / leni
			if f := olap / lenj; f > olapfraction {
				olapfraction = f
			}
			if olapfraction > maxOverlap {
				continue
			}
			candScore := recs[i].score + (lenj-olap)*cj.identity*cj.identity
			candDiff := recs[i].diff + diffTerm(ci, cj)
			switch {
			case candScore > recs[j].score:
				recs[j].score = candScore
				recs[j].from = i
				recs[j].diff = candDiff
			case candScore == recs[j].score && recs[j].from != -1 && candDiff < recs[j].diff:
				recs[j].from = i
				recs[j].diff = candDiff
			}
		}
		if recs[j].score > recs[bestIdx].score {
			bestIdx = j
		}
	}

	var chain []int
	for idx := bestIdx; idx != -1; idx = recs[idx].from {
		chain = append(chain, idx)
	}
	return chain
}

func sqLen(c candidate) float64 {
	return float64(c.high - c.low + 1)
}

// overlap returns the number of axis-coordinates shared between two
// candidates whose low coordinates satisfy ci.low <= cj.low (active is
// sorted ascending by low, so the caller always passes i before j).
func overlap(ci, cj candidate) float64 {
	o := ci.high - cj.low + 1
	if o < 0 {
		o = 0
	}
	return float64(o)
}

// diffTerm accumulates a signed measure of how far j's start deviates from
// a clean abutment with i's end, used only to break exact score ties in
// favor of the chain with the least coordinate drift.
func diffTerm(ci, cj candidate) int {
	d := cj.low - ci.high - 1
	if d < 0 {
		d = -d
	}
	return d
}
