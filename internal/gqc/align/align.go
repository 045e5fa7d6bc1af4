// Package align defines the shared alignment representation used by every
// stage of the comparison core: CIGAR traversal, variant extraction, het-site
// projection, alignment splitting, LIS selection, and clustering all consume
// the Alignment type defined here rather than a BAM or PAF record directly.
package align

import (
	"github.com/biogo/hts/sam"
)

// Strand is the orientation of a query (test-assembly) contig relative to
// the benchmark reference it is aligned to.
type Strand int8

const (
	// Forward indicates the query is aligned in its original orientation.
	Forward Strand = iota
	// Reverse indicates the query is aligned as its reverse complement.
	Reverse
)

// String implements fmt.Stringer.
func (s Strand) String() string {
	if s == Reverse {
		return "R"
	}
	return "F"
}

// Alignment is the core's in-memory representation of a single alignment
// record, independent of whether it originated from a BAM or a PAF line. All
// coordinates are 1-based and inclusive: rStart <=
// rEnd always, and qStart <= qEnd in the original-sequence sense (for strand
// Reverse, QStart > QEnd in the external/BAM-file representation, but the
// fields below always hold the original-sequence low/high pair).
type Alignment struct {
	// Query is the test-assembly contig name.
	Query string
	// QueryLen is the full length of the query contig (not just the aligned
	// span).
	QueryLen int
	// QStart, QEnd are the 1-based original-sequence coordinates of the
	// aligned span's left and right edges on the query. QStart <= QEnd always.
	QStart, QEnd int

	// Ref is the benchmark entry (chromosome/haplotype) name.
	Ref string
	// RefLen is the full length of the reference entry.
	RefLen int
	// RStart, REnd are the 1-based coordinates of the aligned span on the
	// reference. RStart <= REnd always.
	RStart, REnd int

	// Strand is Forward or Reverse.
	Strand Strand

	// Cigar is the edit script, ref-relative in the usual SAM sense.
	Cigar sam.Cigar

	// QueryBases holds the stored query sequence (soft-clipped bases
	// included, hard-clipped bases excluded), uppercase. May be nil if not
	// needed by the caller.
	QueryBases []byte
	// Qual holds per-base query qualities, aligned 1:1 with QueryBases. May
	// be nil.
	Qual []byte

	// Flags carries the subset of SAM flags the core inspects (Reverse,
	// Secondary, Supplementary, hard/soft clip presence is derived from
	// Cigar directly).
	Flags sam.Flags

	// IdentityHint, when nonzero, overrides the =/X-derived identity
	// fraction computed by Identity(). The PAF producer sets this from the
	// matches/block-length ratio in PAF columns 10/11, since a PAF line
	// doesn't reliably carry an eqx-style cigar.
	IdentityHint float64
}

// LeftQueryEdge returns the query coordinate of the alignment's left edge on
// the reference: QStart for strand Forward, QEnd for strand Reverse. This is
// the quantity CIGAR traversal anchors to when walking left to right along
// the reference.
func (a *Alignment) LeftQueryEdge() int {
	if a.Strand == Reverse {
		return a.QEnd
	}
	return a.QStart
}

// IsSupplementary reports whether the alignment is flagged as a
// supplementary (split) alignment.
func (a *Alignment) IsSupplementary() bool {
	return a.Flags&sam.Supplementary != 0
}

// IsSecondary reports whether the alignment is flagged secondary; secondary
// alignments are skipped by every consumer in this core.
func (a *Alignment) IsSecondary() bool {
	return a.Flags&sam.Secondary != 0
}

// HasHardClip reports whether the CIGAR contains any hard-clip op. Used by
// AlignSplitter to decide the clip style of sub-alignments.
func (a *Alignment) HasHardClip() bool {
	for _, op := range a.Cigar {
		if op.Type() == sam.CigarHardClipped {
			return true
		}
	}
	return false
}

// RefSpan returns REnd - RStart + 1, the number of benchmark bases this
// alignment covers.
func (a *Alignment) RefSpan() int {
	return a.REnd - a.RStart + 1
}

// QuerySpan returns QEnd - QStart + 1, the number of original-sequence query
// bases this alignment covers.
func (a *Alignment) QuerySpan() int {
	return a.QEnd - a.QStart + 1
}

// Identity returns the fraction of =/X bases that are exact matches
// (CigarEqual), used by LISFilter's scoring function. M bases are not
// counted; when no =/X bases are present (e.g. a plain "M" cigar), it
// returns 1.
func (a *Alignment) Identity() float64 {
	if a.IdentityHint != 0 {
		return a.IdentityHint
	}
	var matched, total int
	for _, op := range a.Cigar {
		switch op.Type() {
		case sam.CigarEqual:
			matched += op.Len()
			total += op.Len()
		case sam.CigarMismatch:
			total += op.Len()
		}
	}
	if total == 0 {
		// No =/X information available (e.g. a plain "M" cigar, or a PAF
		// alignment with identity supplied separately); mummermethods.py
		// defaults to perfect identity in this case rather than zero.
		return 1.0
	}
	return float64(matched) / float64(total)
}
