package cluster

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
	}
}

func TestBuildGroupsCollinearAlignments(t *testing.T) {
	// Both alignments advance 1:1 in (query,target), same band.
	a1 := mkAlign("q1", 1, 100, 1, 100)
	a2 := mkAlign("q1", 101, 200, 101, 200)
	clusters := Build([]*align.Alignment{a1, a2}, DefaultMaxClusterDistance)
	expect.EQ(t, len(clusters), 1)
	expect.EQ(t, len(clusters[0].Aligns), 2)
}

func TestBuildSeparatesDifferentQueries(t *testing.T) {
	a1 := mkAlign("q1", 1, 100, 1, 100)
	a2 := mkAlign("q2", 1, 100, 1, 100)
	clusters := Build([]*align.Alignment{a1, a2}, DefaultMaxClusterDistance)
	expect.EQ(t, len(clusters), 2)
}

func TestBuildSeparatesOffBandAlignment(t *testing.T) {
	a1 := mkAlign("q1", 1, 100, 1, 100)
	// Same query, but predicted target start (~1 + 1*20000 = 20001) is far
	// from the actual rStart of 100000 -- well beyond the band.
	a2 := mkAlign("q1", 100000, 100100, 20000, 20100)
	clusters := Build([]*align.Alignment{a1, a2}, DefaultMaxClusterDistance)
	expect.EQ(t, len(clusters), 2)
}

func TestSplitDisjointSpinsOffDistantRun(t *testing.T) {
	c := &Cluster{
		Query: "q1",
		Aligns: []*align.Alignment{
			mkAlign("q1", 1, 100, 1, 100),
			mkAlign("q1", 101, 200, 101, 200),
			mkAlign("q1", 50000, 50100, 50000, 50100),
		},
	}
	split := SplitDisjoint([]*Cluster{c}, DefaultMaxClusterDistance)
	expect.EQ(t, len(split), 2)

	total := 0
	for _, c := range split {
		total += len(c.Aligns)
	}
	expect.EQ(t, total, 3)
}

func TestSplitDisjointLeavesSingletonsAlone(t *testing.T) {
	c := &Cluster{Query: "q1", Aligns: []*align.Alignment{mkAlign("q1", 1, 100, 1, 100)}}
	split := SplitDisjoint([]*Cluster{c}, DefaultMaxClusterDistance)
	expect.EQ(t, len(split), 1)
	expect.EQ(t, len(split[0].Aligns), 1)
}

func TestCoverageMergesOverlappingSpans(t *testing.T) {
	c := &Cluster{Aligns: []*align.Alignment{
		mkAlign("q1", 1, 100, 1, 100),
		mkAlign("q1", 50, 150, 50, 150),
	}}
	expect.EQ(t, Coverage(c, "chr1", NoExclusions), 150)
}

func TestCoverageSubtractsExcludedBases(t *testing.T) {
	c := &Cluster{Aligns: []*align.Alignment{mkAlign("q1", 1, 100, 1, 100)}}
	expect.EQ(t, Coverage(c, "chr1", fixedExclude(40)), 60)
}

type fixedExclude int

func (f fixedExclude) ExcludedBases(string, int, int) int { return int(f) }

func TestRankOrdersByCoverageAndMarksSmallClusters(t *testing.T) {
	big := &Cluster{Aligns: []*align.Alignment{mkAlign("q1", 1, 900, 1, 900)}}
	small := &Cluster{Aligns: []*align.Alignment{mkAlign("q2", 1000, 1050, 1000, 1050)}}

	// Entry is 1000bp non-excluded; big alone covers 900/1000 = 90%, short
	// of the 95% threshold, so both clusters are needed to reach it.
	ranked, lca95 := Rank([]*Cluster{small, big}, "chr1", NoExclusions, 1000, 0.95)
	expect.EQ(t, ranked[0], big)
	expect.EQ(t, ranked[1], small)
	expect.EQ(t, lca95, 2)
	expect.False(t, big.SmallCluster)
	expect.False(t, small.SmallCluster)
}

func TestRankLCA95StopsAtSmallestSufficientPrefix(t *testing.T) {
	big := &Cluster{Aligns: []*align.Alignment{mkAlign("q1", 1, 960, 1, 960)}}
	small := &Cluster{Aligns: []*align.Alignment{mkAlign("q2", 1000, 1050, 1000, 1050)}}

	// big alone covers 960/1000 = 96%, already past the 95% threshold, so
	// small should be marked as a SmallCluster beyond LCA95.
	ranked, lca95 := Rank([]*Cluster{small, big}, "chr1", NoExclusions, 1000, 0.95)
	expect.EQ(t, ranked[0], big)
	expect.EQ(t, lca95, 1)
	expect.False(t, big.SmallCluster)
	expect.True(t, small.SmallCluster)
}
