// Package excludemask adapts interval.BEDUnion, the benchmark's
// loaded exclude-region set, to the narrow seams ClusterBuilder and
// VariantExcluder actually need (cluster.ExcludeMask and vcfout.ExcludeSet),
// so that neither package has to import interval directly.
package excludemask

import "github.com/grailbio/gqc/interval"

// Mask wraps a *interval.BEDUnion loaded from the benchmark's exclude-region
// BED (spec's excludedregions config key).
type Mask struct {
	union *interval.BEDUnion
}

// New wraps union. A nil union is valid and excludes nothing.
func New(union *interval.BEDUnion) Mask {
	return Mask{union: union}
}

// ExcludedBases implements cluster.ExcludeMask: it counts how many bases of
// the 1-based inclusive-start, exclusive-end span [start,end) on chrom fall
// inside the exclude set.
func (m Mask) ExcludedBases(chrom string, start, end int) int {
	if m.union == nil {
		return 0
	}
	excluded := 0
	for pos := start; pos < end; pos++ {
		if m.union.ContainsByName(chrom, interval.PosType(pos-1)) {
			excluded++
		}
	}
	return excluded
}

// Intersects implements vcfout.ExcludeSet: [start,end) is zero-based
// half-open, matching variant.Variant's own Start/End convention.
func (m Mask) Intersects(chrom string, start, end int) bool {
	if m.union == nil {
		return false
	}
	for pos := start; pos < end; pos++ {
		if m.union.ContainsByName(chrom, interval.PosType(pos)) {
			return true
		}
	}
	return false
}
