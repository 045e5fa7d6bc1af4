// Package coordmap implements CoordMapper (spec component C1): per-alignment
// arrays mapping benchmark offsets to test-assembly offsets and back, built
// once per alignment while cigarwalk.Walker drives the traversal, and reused
// by hetproject for the lifetime of that one alignment.
package coordmap

import (
	"sort"

	"github.com/grailbio/gqc/internal/gqc/align"
	"github.com/grailbio/gqc/internal/gqc/cigarwalk"
)

// Policy selects which neighbor to return when a reference offset falls
// inside a deletion (D/N) and therefore has no exact query offset.
type Policy int

const (
	// Lower returns the query offset immediately to the left of the gap.
	Lower Policy = iota
	// Higher returns the query offset immediately to the right of the gap.
	Higher
)

// pair mirrors pysam's sparse aligned_pairs tuples: queryOff and refOff are
// valid (hasQuery/hasRef) independently, since I ops have no ref offset and
// D/N ops have no query offset.
type pair struct {
	queryOff         int
	refOff           int
	hasQuery, hasRef bool
}

// Mapper holds the per-alignment arrays built by Build. Q[i] gives the
// test-side offset (0-based, within the stored query sequence) of the base
// aligned to benchmark offset i (0-based within the aligned reference span).
// For D/N ops, Q repeats the last query offset seen (the "anchor to the
// left" policy used for deletion neighborhoods and het-site endpoints).
type Mapper struct {
	a *align.Alignment
	// Q has length RefLen+1, one entry past the last ref offset covered
	// (produces an array Q[0..L_ref+1]).
	Q []int
	// pairs is the sparse aligned_pairs table used by RefPosToQueryPos.
	pairs []pair
}

// Build walks a.Cigar once and constructs a Mapper. It returns an error if
// the cigar is malformed (propagated from cigarwalk.Walker.Walk).
func Build(a *align.Alignment) (*Mapper, error) {
	w := cigarwalk.NewWalker(a)
	m := &Mapper{a: a}
	var lastQ int
	var sawAny bool
	err := w.Walk(func(ev cigarwalk.Event) {
		switch ev.Kind {
		case cigarwalk.MatchRun:
			for i := 0; i < ev.Len; i++ {
				q := ev.StoredQOff + i
				m.Q = append(m.Q, q)
				m.pairs = append(m.pairs, pair{queryOff: q, refOff: ev.RefOff + i, hasQuery: true, hasRef: true})
				lastQ = q
				sawAny = true
			}
		case cigarwalk.Delete, cigarwalk.RefSkip:
			for i := 0; i < ev.Len; i++ {
				// Anchor-to-the-left: repeat lastQ for every ref offset
				// inside the gap.
				if sawAny {
					m.Q = append(m.Q, lastQ)
				} else {
					m.Q = append(m.Q, 0)
				}
				m.pairs = append(m.pairs, pair{refOff: ev.RefOff + i, hasRef: true})
			}
		case cigarwalk.Insert:
			for i := 0; i < ev.Len; i++ {
				m.pairs = append(m.pairs, pair{queryOff: ev.StoredQOff + i, hasQuery: true})
			}
		}
	})
	if err != nil {
		return nil, err
	}
	// One entry past the end, per the Q[0..L_ref+1] sizing; repeats the
	// last query offset so that HetProjector's "+2 past end" lookups never
	// walk off the array.
	if sawAny {
		m.Q = append(m.Q, lastQ)
	} else {
		m.Q = append(m.Q, 0)
	}
	return m, nil
}

// RefPosToQueryPos binary-searches the aligned_pairs table for refCoord (a
// 1-based benchmark coordinate) and returns the corresponding 0-based
// query offset, or (0, false) if refCoord lies outside the alignment. When
// refCoord falls inside a deletion, policy selects the left- or
// right-adjacent query position.
//
// A lastMid sentinel plus a bounded linear-scan fallback
// prevents infinite loops when the binary search brackets collapse
// around a long run of ref-only (D/N) entries.
func (m *Mapper) RefPosToQueryPos(refCoord int, policy Policy) (int, bool) {
	target := refCoord - m.a.RStart // 0-based offset within the aligned span
	if target < 0 || len(m.pairs) == 0 {
		return 0, false
	}
	lo, hi := 0, len(m.pairs)-1
	lastMid := -1
	for lo <= hi {
		mid := (lo + hi) / 2
		if mid == lastMid {
			// Bracket stalled; fall back to a linear scan of the remaining
			// window rather than loop forever.
			return m.linearScan(target, lo, hi, policy)
		}
		lastMid = mid
		p := m.pairs[mid]
		if p.hasRef {
			off := p.refOff
			switch {
			case off == target:
				if p.hasQuery {
					return p.queryOff, true
				}
				return m.resolveGap(mid, policy)
			case off < target:
				lo = mid + 1
			default:
				hi = mid - 1
			}
			continue
		}
		// No ref offset at mid (a pure insertion entry): treat as "too far
		// right" since insertions are always emitted between two ref
		// offsets we already bracket.
		hi = mid - 1
	}
	return m.linearScan(target, lo, hi, policy)
}

// resolveGap is called when pairs[idx] is a ref-only (D/N) entry sitting
// exactly at the target offset; it walks outward to find the nearest entry
// with a query offset, honoring policy.
func (m *Mapper) resolveGap(idx int, policy Policy) (int, bool) {
	if policy == Lower {
		for i := idx; i >= 0; i-- {
			if m.pairs[i].hasQuery {
				return m.pairs[i].queryOff, true
			}
		}
		return 0, false
	}
	for i := idx; i < len(m.pairs); i++ {
		if m.pairs[i].hasQuery {
			return m.pairs[i].queryOff, true
		}
	}
	return 0, false
}

func (m *Mapper) linearScan(target, lo, hi int, policy Policy) (int, bool) {
	if lo < 0 {
		lo = 0
	}
	if hi >= len(m.pairs) {
		hi = len(m.pairs) - 1
	}
	if lo > hi {
		return 0, false
	}
	idx := sort.Search(hi-lo+1, func(i int) bool {
		p := m.pairs[lo+i]
		return p.hasRef && p.refOff >= target
	})
	idx += lo
	if idx >= len(m.pairs) {
		idx = len(m.pairs) - 1
	}
	return m.resolveGap(idx, policy)
}

// QAt returns Q[refOff], clamping refOff into [0, len(Q)-1]. It is the
// convenience accessor hetproject uses for its +2-past-end lookups.
func (m *Mapper) QAt(refOff int) int {
	if refOff < 0 {
		refOff = 0
	}
	if refOff >= len(m.Q) {
		refOff = len(m.Q) - 1
	}
	return m.Q[refOff]
}
