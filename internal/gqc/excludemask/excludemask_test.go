package excludemask

import (
	"testing"

	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/gqc/interval"
)

func buildUnion(t *testing.T) *interval.BEDUnion {
	union, err := interval.NewBEDUnionFromEntries([]interval.Entry{
		{ChrName: "chr1", Start0: 10, End: 20},
	}, interval.NewBEDOpts{})
	expect.NoError(t, err)
	return &union
}

func TestNilMaskExcludesNothing(t *testing.T) {
	m := New(nil)
	expect.EQ(t, m.ExcludedBases("chr1", 1, 100), 0)
	expect.False(t, m.Intersects("chr1", 0, 100))
}

func TestExcludedBasesCountsOverlapOfOneBasedSpan(t *testing.T) {
	m := New(buildUnion(t))
	// Benchmark span [11,21) 1-based inclusive-start/exclusive-end covers
	// 0-based positions 10..19, exactly the excluded interval.
	expect.EQ(t, m.ExcludedBases("chr1", 11, 21), 10)
	expect.EQ(t, m.ExcludedBases("chr1", 1, 11), 0)
}

func TestIntersectsZeroBasedHalfOpen(t *testing.T) {
	m := New(buildUnion(t))
	expect.True(t, m.Intersects("chr1", 15, 16))
	expect.False(t, m.Intersects("chr1", 0, 10))
	expect.False(t, m.Intersects("chr1", 20, 30))
}
