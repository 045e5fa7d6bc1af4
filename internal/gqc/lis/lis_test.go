package lis

import (
	"testing"

	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/gqc/internal/gqc/align"
)

func mkAlign(query string, rStart, rEnd, qStart, qEnd int) *align.Alignment {
	return &align.Alignment{
		Query: query, Ref: "chr1",
		RStart: rStart, REnd: rEnd,
		QStart: qStart, QEnd: qEnd,
		IdentityHint: 1.0,
	}
}

func TestFilterKeepsNonOverlappingChain(t *testing.T) {
	a1 := mkAlign("q1", 1, 100, 1, 100)
	a2 := mkAlign("q1", 101, 200, 101, 200)
	kept := Filter([]*align.Alignment{a1, a2}, Target, DefaultMaxOverlap)
	expect.EQ(t, len(kept), 2)
}

func TestFilterSkipsOverlappingCandidateInBestChain(t *testing.T) {
	// short overlaps long almost entirely, so it cannot extend long's
	// chain in round one; round one's best chain is [long] alone. Round
	// two then finds short as its own (lone) chain, since nothing left
	// overlaps it -- filter_aligns never discards a candidate outright,
	// it only excludes it from a chain it can't extend.
	long := mkAlign("q1", 1, 1000, 1, 1000)
	short := mkAlign("q1", 400, 420, 400, 420)
	kept := Filter([]*align.Alignment{long, short}, Target, DefaultMaxOverlap)
	expect.EQ(t, len(kept), 2)
}

func TestFilterRecoversSecondChainFromLeftovers(t *testing.T) {
	// Two disjoint alignments from one contig, one from another contig
	// overlapping the first heavily: the first pass takes the disjoint
	// pair, and a second pass over the leftovers still surfaces the
	// overlapping one.
	a1 := mkAlign("q1", 1, 100, 1, 100)
	a2 := mkAlign("q1", 200, 300, 200, 300)
	a3 := mkAlign("q2", 1, 100, 1, 100)
	kept := Filter([]*align.Alignment{a1, a2, a3}, Target, DefaultMaxOverlap)
	expect.EQ(t, len(kept), 3)
}

func TestFilterEmptyInput(t *testing.T) {
	expect.EQ(t, len(Filter(nil, Target, DefaultMaxOverlap)), 0)
}
