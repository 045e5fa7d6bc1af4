package splitalign

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/gqc/internal/gqc/align"
)

func cop(t sam.CigarOpType, n int) sam.CigarOp { return sam.NewCigarOp(t, n) }

func TestSplitLeavesSmallIndelsUnsplit(t *testing.T) {
	a := &align.Alignment{
		Query: "q1", QueryLen: 10, Ref: "chr1", RefLen: 1000,
		RStart: 1, REnd: 10, QStart: 1, QEnd: 10,
		Cigar:      sam.Cigar{cop(sam.CigarMatch, 10)},
		QueryBases: []byte("ACGTACGTAA"),
	}
	results := Split(a, DefaultMinIndelSize)
	expect.EQ(t, len(results), 1)
	expect.False(t, results[0].Supplementary)
	expect.EQ(t, results[0].Align.RStart, 1)
	expect.EQ(t, results[0].Align.REnd, 10)
}

func TestSplitBreaksOnLargeDeletion(t *testing.T) {
	a := &align.Alignment{
		Query: "q1", QueryLen: 200, Ref: "chr1", RefLen: 100000,
		RStart: 1, REnd: 20200, QStart: 1, QEnd: 200,
		Cigar:      sam.Cigar{cop(sam.CigarMatch, 100), cop(sam.CigarDeletion, 20000), cop(sam.CigarMatch, 100)},
		QueryBases: make([]byte, 200),
	}
	results := Split(a, 10000)
	expect.EQ(t, len(results), 2)

	expect.False(t, results[0].Supplementary)
	expect.EQ(t, results[0].Align.RStart, 1)
	expect.EQ(t, results[0].Align.REnd, 100)
	expect.EQ(t, results[0].Align.QStart, 1)
	expect.EQ(t, results[0].Align.QEnd, 100)
	expect.EQ(t, len(results[0].Align.QueryBases), 200) // longest keeps the full stored sequence

	expect.True(t, results[1].Supplementary)
	expect.EQ(t, results[1].Align.RStart, 20101)
	expect.EQ(t, results[1].Align.REnd, 20200)
	expect.EQ(t, results[1].Align.QStart, 101)
	expect.EQ(t, results[1].Align.QEnd, 200)
	expect.EQ(t, len(results[1].Align.QueryBases), 100)
}

func TestMergeAdjacentIndelsCollapsesToMatch(t *testing.T) {
	ops := sam.Cigar{cop(sam.CigarInsertion, 5), cop(sam.CigarDeletion, 3)}
	merged := mergeAdjacentIndels(ops)
	expect.EQ(t, len(merged), 2)
	expect.EQ(t, merged[0].Type(), sam.CigarMatch)
	expect.EQ(t, merged[0].Len(), 3)
	expect.EQ(t, merged[1].Type(), sam.CigarInsertion)
	expect.EQ(t, merged[1].Len(), 2)
}

func TestMergeAdjacentIndelsEqualLengthsCollapseFully(t *testing.T) {
	ops := sam.Cigar{cop(sam.CigarDeletion, 4), cop(sam.CigarInsertion, 4)}
	merged := mergeAdjacentIndels(ops)
	expect.EQ(t, len(merged), 1)
	expect.EQ(t, merged[0].Type(), sam.CigarMatch)
	expect.EQ(t, merged[0].Len(), 4)
}

func TestConsumedQueryBasesCountsQueryConsumingOps(t *testing.T) {
	ops := sam.Cigar{cop(sam.CigarMatch, 10), cop(sam.CigarDeletion, 5), cop(sam.CigarInsertion, 3), cop(sam.CigarSoftClipped, 2)}
	expect.EQ(t, consumedQueryBases(ops), 15)
}
