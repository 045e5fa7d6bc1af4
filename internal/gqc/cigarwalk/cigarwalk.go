// Package cigarwalk implements the single left-to-right CIGAR traversal that
// the rest of the core is built on (spec component C2). CoordMapper and
// VariantExtractor drive a Walker; AlignSplitter and IntervalProjector keep
// their own offset walks, and AlignSplitter uses the clip-length helpers
// defined here.
package cigarwalk

import (
	"github.com/biogo/hts/sam"

	"github.com/grailbio/gqc/internal/gqc/align"
)

// EventKind classifies a traversal event.
type EventKind int

const (
	// MatchRun is an M, =, or X block: refOff and qOff both advance by Len.
	MatchRun EventKind = iota
	// Insert is an I block: qOff advances by Len, refOff is unchanged.
	Insert
	// Delete is a D block: refOff advances by Len, qOff is unchanged.
	Delete
	// RefSkip is an N block: like Delete, but represents a spliced gap
	// rather than a benchmark-vs-test discrepancy.
	RefSkip
	// Clip is an S or H block. SoftClip consumes stored query bases;
	// HardClip does not (see Event.Op to distinguish).
	Clip
)

// Event is one emitted step of the traversal.
type Event struct {
	Kind EventKind
	// Op is the underlying CIGAR op type (sam.CigarMatch, sam.CigarEqual,
	// sam.CigarMismatch, sam.CigarInsertion, sam.CigarDeletion,
	// sam.CigarSkipped, sam.CigarSoftClipped, sam.CigarHardClipped).
	Op sam.CigarOpType
	// Len is the op length.
	Len int
	// RefOff is the 0-based offset, within the alignment's reference span
	// (i.e. relative to RStart-1), of the first ref base this event touches.
	// For Insert/Clip events (which don't consume reference) it holds the
	// current ref offset, unchanged by the event.
	RefOff int
	// QOff is the 0-based offset of the first query base this event
	// touches, measured from the start of the *aligned* query span (i.e.
	// excluding any leading clip). For Delete/RefSkip/Clip events it holds
	// the current query offset, unchanged by the event.
	QOff int
	// StoredQOff is the same offset measured from the start of the stored
	// query sequence buffer (which includes soft-clipped bases but not
	// hard-clipped ones). Use this to index Alignment.QueryBases/Qual.
	StoredQOff int
}

// Walker drives a single forward traversal of an Alignment's CIGAR,
// producing one Event per op. The strand-aware original-sequence qStart is
// not tracked here; OrigQStart computes it from the alignment alone,
// independently of Walk.
type Walker struct {
	a *align.Alignment

	// RefLen and QueryLen are the total ref-consuming and query-consuming
	// base counts across the whole cigar (excluding hard clips for
	// QueryLen... see StoredQueryLen for the S-inclusive count).
	RefLen       int
	QueryLen     int
	StoredQueryLen int
}

// NewWalker constructs a Walker for the given alignment without running the
// traversal; call Walk to drive it.
func NewWalker(a *align.Alignment) *Walker {
	return &Walker{a: a}
}

// Walk invokes visit once per CIGAR op, left to right. It returns an error
// only if the alignment is malformed in a way that would make the reported
// offsets meaningless; the caller is expected to
// skip the alignment (log CRITICAL, continue) on error.
func (w *Walker) Walk(visit func(Event)) error {
	var refOff, qOff, storedQOff int
	for _, co := range w.a.Cigar {
		opType := co.Type()
		n := co.Len()
		if n < 0 {
			return errOverflow
		}
		ev := Event{Op: opType, Len: n, RefOff: refOff, QOff: qOff, StoredQOff: storedQOff}
		switch opType {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			ev.Kind = MatchRun
			refOff += n
			qOff += n
			storedQOff += n
		case sam.CigarInsertion:
			ev.Kind = Insert
			qOff += n
			storedQOff += n
		case sam.CigarDeletion:
			ev.Kind = Delete
			refOff += n
		case sam.CigarSkipped:
			ev.Kind = RefSkip
			refOff += n
		case sam.CigarSoftClipped:
			ev.Kind = Clip
			storedQOff += n
		case sam.CigarHardClipped:
			ev.Kind = Clip
			// Hard clip consumes neither alignment offset.
		default:
			// Padded (P) and Back (B) ops don't occur in the assemblies this
			// core processes; ignore rather than fail, matching the
			// original tool's tolerant CIGAR handling.
			continue
		}
		visit(ev)
	}
	w.RefLen = refOff
	w.QueryLen = qOff
	w.StoredQueryLen = storedQOff
	return nil
}

// OrigQStart computes the original-sequence, strand-aware qStart implied by
// leading/trailing clips: left clip adds to a forward-strand
// qStart, right clip adds to a reverse-strand qStart. a.QStart is the
// alignment's own QStart field (the coordinate of the first *aligned* query
// base).
func OrigQStart(a *align.Alignment) int {
	leftClip, rightClip := clipLengths(a.Cigar)
	if a.Strand == align.Reverse {
		return a.QStart - rightClip
	}
	return a.QStart - leftClip
}

// ClipLengths returns the combined soft+hard clip length at the left and
// right ends of the cigar. AlignSplitter uses this to compute clip
// rewrites for sub-alignments.
func ClipLengths(c sam.Cigar) (left, right int) {
	return clipLengths(c)
}

// clipLengths returns the combined soft+hard clip length at the left and
// right ends of the cigar.
func clipLengths(c sam.Cigar) (left, right int) {
	for _, co := range c {
		t := co.Type()
		if t == sam.CigarSoftClipped || t == sam.CigarHardClipped {
			left += co.Len()
		} else {
			break
		}
	}
	for i := len(c) - 1; i >= 0; i-- {
		t := c[i].Type()
		if t == sam.CigarSoftClipped || t == sam.CigarHardClipped {
			right += c[i].Len()
		} else {
			break
		}
	}
	return left, right
}

// SoftClipLengths returns only the leading/trailing soft-clip lengths
// (skipping over any hard clip at the very ends), matching pysam's notion
// of query_alignment_start/end, which indexes into the stored (hard-clip
// excluded) query sequence.
func SoftClipLengths(c sam.Cigar) (left, right int) {
	i := 0
	if i < len(c) && c[i].Type() == sam.CigarHardClipped {
		i++
	}
	if i < len(c) && c[i].Type() == sam.CigarSoftClipped {
		left = c[i].Len()
	}
	j := len(c) - 1
	if j >= 0 && c[j].Type() == sam.CigarHardClipped {
		j--
	}
	if j >= 0 && c[j].Type() == sam.CigarSoftClipped {
		right = c[j].Len()
	}
	return left, right
}

// HardClipLengths returns only the leading/trailing hard-clip lengths.
func HardClipLengths(c sam.Cigar) (left, right int) {
	if len(c) > 0 && c[0].Type() == sam.CigarHardClipped {
		left = c[0].Len()
	}
	if len(c) > 0 && c[len(c)-1].Type() == sam.CigarHardClipped {
		right = c[len(c)-1].Len()
	}
	return left, right
}

var errOverflow = errOverflowType{}

type errOverflowType struct{}

func (errOverflowType) Error() string { return "cigarwalk: cigar op length overflow" }
