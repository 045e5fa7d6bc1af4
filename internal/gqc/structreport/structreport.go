// Package structreport implements StructuralReporter (spec component C9):
// walking the LIS-filtered alignments of a benchmark entry in (ref,
// rStart, rEnd) order and classifying each consecutive join as an
// insertion, deletion, inversion, or non-collinear jump on the test side.
// Grounded on structvar.py's write_structural_errors, extended with the
// inversion/LISJump join classes structvar.py does not emit.
package structreport

import (
	"sort"

	"github.com/grailbio/gqc/internal/gqc/align"
)

// JoinKind classifies the relationship between two consecutive alignments
// on the same benchmark entry.
type JoinKind int

const (
	// SameContigInsertion: overlapping ref spans, same test contig.
	SameContigInsertion JoinKind = iota
	// BetweenContigInsertion: overlapping ref spans, different test contigs.
	BetweenContigInsertion
	// SameContigDeletion: abutting/gapped ref spans, same test contig.
	SameContigDeletion
	// BetweenContigDeletion: abutting/gapped ref spans, different contigs.
	BetweenContigDeletion
	// Inversion: the pair's strands disagree.
	Inversion
	// LISJump: strands agree but cur.qStart does not follow prev.qEnd
	// monotonically under the local slope -- a non-collinear jump.
	LISJump
)

func (k JoinKind) String() string {
	switch k {
	case SameContigInsertion:
		return "SameContigInsertion"
	case BetweenContigInsertion:
		return "BetweenContigInsertion"
	case SameContigDeletion:
		return "SameContigDeletion"
	case BetweenContigDeletion:
		return "BetweenContigDeletion"
	case Inversion:
		return "Inversion"
	case LISJump:
		return "LISJump"
	default:
		return "Unknown"
	}
}

// Join is one reported structural event between two consecutive
// alignments against the same benchmark entry.
type Join struct {
	Ref        string
	Start, End int // 1-based, the reported interval per structvar.py's column order
	Kind       JoinKind
	PrevQuery  string
	CurQuery   string
}

// Report walks aligns (assumed already LIS-filtered) sorted by (Ref,
// RStart, REnd) and emits one Join per consecutive same-ref pair, per
// the join-pair reporting rule.
func Report(aligns []*align.Alignment) []Join {
	sorted := append([]*align.Alignment(nil), aligns...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Ref != b.Ref {
			return a.Ref < b.Ref
		}
		if a.RStart != b.RStart {
			return a.RStart < b.RStart
		}
		return a.REnd < b.REnd
	})

	var joins []Join
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Ref != cur.Ref {
			continue
		}
		joins = append(joins, classify(prev, cur))
	}
	return joins
}

func classify(prev, cur *align.Alignment) Join {
	if prev.Strand != cur.Strand {
		return Join{Ref: cur.Ref, Start: prev.REnd, End: cur.RStart, Kind: Inversion, PrevQuery: prev.Query, CurQuery: cur.Query}
	}

	if !isMonotonicJoin(prev, cur) {
		return Join{Ref: cur.Ref, Start: prev.REnd, End: cur.RStart, Kind: LISJump, PrevQuery: prev.Query, CurQuery: cur.Query}
	}

	sameQuery := cur.Query == prev.Query
	if cur.RStart < prev.REnd {
		kind := BetweenContigInsertion
		if sameQuery {
			kind = SameContigInsertion
		}
		return Join{Ref: cur.Ref, Start: cur.RStart, End: prev.REnd, Kind: kind, PrevQuery: prev.Query, CurQuery: cur.Query}
	}
	kind := BetweenContigDeletion
	if sameQuery {
		kind = SameContigDeletion
	}
	return Join{Ref: cur.Ref, Start: prev.REnd, End: cur.RStart, Kind: kind, PrevQuery: prev.Query, CurQuery: cur.Query}
}

// isMonotonicJoin reports whether cur.QStart follows prev.QEnd in the
// direction implied by cur's own strand -- forward alignments should see
// query coordinates increase across the join, reverse alignments should
// see them decrease. A join on different query contigs is always
// monotonic (there is no shared axis to violate).
func isMonotonicJoin(prev, cur *align.Alignment) bool {
	if prev.Query != cur.Query {
		return true
	}
	if cur.Strand == align.Reverse {
		return cur.QStart <= prev.QEnd
	}
	return cur.QStart >= prev.QEnd
}
