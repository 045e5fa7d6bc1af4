// Package cluster implements ClusterBuilder (spec component C7): grouping
// alignments of the same test contig into collinear (slope,intercept)
// bands, splitting disjoint runs out of an over-merged cluster, and
// ranking the result by non-excluded target coverage to report each
// benchmark entry's LCA95. Grounded on alignparse.py's
// add_align_to_clusters, split_disjoint_clusters, and compare_alignments.
package cluster

import (
	"sort"

	"github.com/grailbio/gqc/internal/gqc/align"
)

// DefaultMaxClusterDistance is the default band width (in target bp) used
// both to admit an alignment into an existing cluster and to decide
// whether a cluster should be split on a target-side gap.
const DefaultMaxClusterDistance = 10000

// Cluster is a set of alignments against the same query contig that share
// one (slope, intercept) band, i.e. are collinear in (query,target) space.
type Cluster struct {
	Query     string
	Slope     float64
	Intercept float64
	Aligns    []*align.Alignment
	// SmallCluster is set during Rank for every cluster after the smallest
	// prefix whose coverage reaches the target fraction (LCA95).
	SmallCluster bool
}

// ExcludeMask reports how many bases of [start,end) (1-based inclusive
// start, exclusive end) on chrom are excluded from coverage accounting. It
// is the seam ClusterBuilder uses to consult the benchmark's exclude-mask
// BEDUnion without depending on that package directly.
type ExcludeMask interface {
	ExcludedBases(chrom string, start, end int) int
}

// noExclusions is used when the caller has no exclude mask to apply.
type noExclusions struct{}

func (noExclusions) ExcludedBases(string, int, int) int { return 0 }

// NoExclusions is the zero-value ExcludeMask: every base counts.
var NoExclusions ExcludeMask = noExclusions{}

// Build assigns each alignment to a cluster: slope and intercept
// are derived from the alignment's own query/target span, and an
// alignment joins the first existing same-query cluster whose predicted
// target start (intercept + slope*qStart) lies within maxClusterDistance
// of the alignment's actual rStart.
func Build(aligns []*align.Alignment, maxClusterDistance int) []*Cluster {
	var clusters []*Cluster
	for _, a := range aligns {
		addToClusters(a, &clusters, maxClusterDistance)
	}
	return clusters
}

func addToClusters(a *align.Alignment, clusters *[]*Cluster, maxClusterDistance int) {
	qSpan := a.QEnd - a.QStart
	if qSpan == 0 {
		qSpan = 1
	}
	slope := float64(a.REnd-a.RStart) / float64(qSpan)
	intercept := float64(a.RStart) - slope*float64(a.QStart)

	for _, c := range *clusters {
		if c.Query != a.Query {
			continue
		}
		predStart := c.Intercept + c.Slope*float64(a.QStart)
		diff := predStart - float64(a.RStart)
		if diff < 0 {
			diff = -diff
		}
		if diff <= float64(maxClusterDistance) {
			c.Aligns = append(c.Aligns, a)
			return
		}
	}
	*clusters = append(*clusters, &Cluster{
		Query:     a.Query,
		Slope:     slope,
		Intercept: intercept,
		Aligns:    []*align.Alignment{a},
	})
}

// SplitDisjoint implements split_disjoint_clusters: within each cluster
// with more than one alignment, sort by (rStart,rEnd) and spin off a new
// cluster whenever the gap since the running max rEnd exceeds
// maxClusterDistance. Clusters of size 1 are left untouched.
func SplitDisjoint(clusters []*Cluster, maxClusterDistance int) []*Cluster {
	result := append([]*Cluster(nil), clusters...)
	for _, c := range clusters {
		if len(c.Aligns) <= 1 {
			continue
		}
		sorted := append([]*align.Alignment(nil), c.Aligns...)
		sort.Slice(sorted, func(i, j int) bool {
			if sorted[i].RStart != sorted[j].RStart {
				return sorted[i].RStart < sorted[j].RStart
			}
			return sorted[i].REnd < sorted[j].REnd
		})

		var running []*align.Alignment
		maxPos := 0
		var spinoffs []*Cluster
		for _, a := range sorted {
			if len(running) > 0 && a.RStart-maxPos > maxClusterDistance {
				spinoffs = append(spinoffs, &Cluster{Query: c.Query, Slope: c.Slope, Intercept: c.Intercept, Aligns: running})
				running = nil
				maxPos = 0
			}
			running = append(running, a)
			if a.REnd > maxPos {
				maxPos = a.REnd
			}
		}
		c.Aligns = running
		result = append(result, spinoffs...)
	}
	return result
}

// span is a half-open [start,end) target interval used for merged-coverage
// accounting.
type span struct{ start, end int }

// mergedSpans returns the disjoint union of each alignment's [rStart,rEnd]
// (1-based inclusive) reinterpreted as half-open [rStart-1, rEnd).
func mergedSpans(aligns []*align.Alignment) []span {
	spans := make([]span, len(aligns))
	for i, a := range aligns {
		spans[i] = span{a.RStart - 1, a.REnd}
	}
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	var merged []span
	for _, s := range spans {
		if len(merged) > 0 && s.start <= merged[len(merged)-1].end {
			if s.end > merged[len(merged)-1].end {
				merged[len(merged)-1].end = s.end
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}

// Coverage returns the cluster's non-excluded target coverage in bp: the
// merged span of its alignments' target intervals, less any bases the
// exclude mask reports within chrom.
func Coverage(c *Cluster, chrom string, mask ExcludeMask) int {
	total := 0
	for _, s := range mergedSpans(c.Aligns) {
		length := s.end - s.start
		excluded := mask.ExcludedBases(chrom, s.start+1, s.end+1)
		if excluded > length {
			excluded = length
		}
		total += length - excluded
	}
	return total
}

// Rank sorts clusters by descending non-excluded coverage and marks every
// cluster beyond the smallest covering prefix (LCA95) as SmallCluster.
// entryNonExcludedLength is the benchmark entry's own non-excluded length
// (its full size minus exclude-mask bases), the denominator the 95%
// threshold is measured against -- not the sum of cluster coverages,
// which may fall short of it. Returns the rank-ordered slice and the
// LCA95 count (len(ranked) if the entry is never covered to
// targetFraction).
func Rank(clusters []*Cluster, chrom string, mask ExcludeMask, entryNonExcludedLength int, targetFraction float64) (ranked []*Cluster, lca95 int) {
	if targetFraction <= 0 {
		targetFraction = 0.95
	}
	type pair struct {
		c   *Cluster
		cov int
	}
	pairs := make([]pair, len(clusters))
	for i, c := range clusters {
		pairs[i] = pair{c, Coverage(c, chrom, mask)}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].cov > pairs[j].cov })

	ranked = make([]*Cluster, len(pairs))
	threshold := targetFraction * float64(entryNonExcludedLength)
	running := 0
	lca95 = len(pairs)
	for i, p := range pairs {
		ranked[i] = p.c
		running += p.cov
		if lca95 == len(pairs) && entryNonExcludedLength > 0 && float64(running) >= threshold {
			lca95 = i + 1
		}
	}
	for i, c := range ranked {
		c.SmallCluster = i >= lca95
	}
	return ranked, lca95
}
