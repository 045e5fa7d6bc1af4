// Package splitalign implements AlignSplitter (spec component C5): splitting
// an alignment wherever a single large indel occurs, and rebuilding
// clip-correct sub-alignments from the remaining cigar fragments.
package splitalign

import (
	"github.com/biogo/hts/sam"

	"github.com/grailbio/base/log"
	"github.com/grailbio/gqc/internal/gqc/align"
	"github.com/grailbio/gqc/internal/gqc/cigarwalk"
)

// DefaultMinIndelSize is the default large-indel threshold.
const DefaultMinIndelSize = 10000

// Result is one sub-alignment produced by Split.
type Result struct {
	Align *align.Alignment
	// Supplementary is true for every sub-alignment except the longest one
	// (each non-longest sub-alignment sets the supplementary flag).
	Supplementary bool
}

type subInfo struct {
	alignedQueryStart, alignedQueryEnd int // offsets from the start of the aligned (non-clipped) query span
	alignedRefStart, alignedRefEnd     int // 1-based, inclusive, absolute
	cigarOps                           sam.Cigar
	length                             int // subalignlength: ref bases consumed
}

// Split breaks a into sub-alignments whenever a single I or D op has length
// >= minIndelSize. The splitting op itself is never included in any
// sub-alignment's cigar.
func Split(a *align.Alignment, minIndelSize int) []Result {
	ops := a.Cigar
	leftSoft, rightSoft := cigarwalk.SoftClipLengths(ops)
	leftHard, rightHard := cigarwalk.HardClipLengths(ops)

	hardClipLongest := a.IsSupplementary() || leftHard > 0 || rightHard > 0

	var refOff, queryOff int
	refLastAlignEnd, queryLastAlignEnd := 0, 0
	lastOpIdx := 0
	if leftSoft > 0 || leftHard > 0 {
		lastOpIdx = 1
	}
	curOpIdx := 0

	var infos []subInfo
	refSpan := a.RefSpan()
	for refOff <= refSpan-1 && curOpIdx < len(ops) {
		op := ops[curOpIdx]
		opType := op.Type()
		opLen := op.Len()

		switch opType {
		case sam.CigarDeletion, sam.CigarSkipped:
			if opLen >= minIndelSize {
				infos = append(infos, subInfo{
					alignedQueryStart: queryLastAlignEnd,
					alignedQueryEnd:   queryOff,
					alignedRefStart:   a.RStart + refLastAlignEnd,
					alignedRefEnd:     a.RStart + refOff - 1,
					cigarOps:          append(sam.Cigar(nil), ops[lastOpIdx:curOpIdx]...),
					length:            refOff - refLastAlignEnd,
				})
				lastOpIdx = curOpIdx + 1
				refLastAlignEnd = refOff + opLen
				queryLastAlignEnd = queryOff
			}
		case sam.CigarInsertion:
			if opLen >= minIndelSize {
				infos = append(infos, subInfo{
					alignedQueryStart: queryLastAlignEnd,
					alignedQueryEnd:   queryOff,
					alignedRefStart:   a.RStart + refLastAlignEnd,
					alignedRefEnd:     a.RStart + refOff - 1,
					cigarOps:          append(sam.Cigar(nil), ops[lastOpIdx:curOpIdx]...),
					length:            refOff - refLastAlignEnd,
				})
				lastOpIdx = curOpIdx + 1
				refLastAlignEnd = refOff
				queryLastAlignEnd = queryOff + opLen
			}
		}
		curOpIdx++

		consume := opType.Consumes()
		if consume.Reference != 0 && opType != sam.CigarBack {
			refOff += opLen
		}
		if consume.Query != 0 {
			queryOff += opLen
		}
	}

	infos = append(infos, subInfo{
		alignedQueryStart: queryLastAlignEnd,
		alignedQueryEnd:   queryOff,
		alignedRefStart:   a.RStart + refLastAlignEnd,
		alignedRefEnd:     a.RStart + refOff - 1,
		cigarOps:          append(sam.Cigar(nil), ops[lastOpIdx:curOpIdx]...),
		length:            refOff - refLastAlignEnd,
	})

	return buildSubAlignments(a, infos, hardClipLongest, leftSoft, leftHard, rightHard)
}

// buildSubAlignments mirrors create_subalignobjects: the longest
// sub-alignment (by ref bases consumed) is emitted first and is soft-clipped
// unless hardClipLongest; every other sub-alignment is hard-clipped and
// flagged supplementary.
func buildSubAlignments(a *align.Alignment, infos []subInfo, hardClipLongest bool, leftSoft, leftHard, rightHard int) []Result {
	sorted := append([]subInfo(nil), infos...)
	// Stable selection sort by descending length keeps ties in original
	// order, matching Python's sorted(..., reverse=True) stability.
	for i := 0; i < len(sorted); i++ {
		maxIdx := i
		for j := i + 1; j < len(sorted); j++ {
			if sorted[j].length > sorted[maxIdx].length {
				maxIdx = j
			}
		}
		sorted[i], sorted[maxIdx] = sorted[maxIdx], sorted[i]
	}

	storedLen := len(a.QueryBases)
	results := make([]Result, 0, len(sorted))
	for i, info := range sorted {
		longest := i == 0
		merged := mergeAdjacentIndels(info.cigarOps)

		oldConsumed := consumedQueryBases(info.cigarOps)
		newConsumed := consumedQueryBases(merged)
		if oldConsumed != newConsumed {
			log.Error.Printf("splitalign: query-consumption mismatch for %s: old=%d new=%d after merging adjacent I/D", a.Query, oldConsumed, newConsumed)
		}

		sub := &align.Alignment{
			Query:        a.Query,
			QueryLen:     a.QueryLen,
			Ref:          a.Ref,
			RefLen:       a.RefLen,
			RStart:       info.alignedRefStart,
			REnd:         info.alignedRefEnd,
			Strand:       a.Strand,
			Flags:        a.Flags,
			IdentityHint: a.IdentityHint,
		}

		var cigar sam.Cigar
		if longest && !hardClipLongest {
			leftClip := leftSoft + info.alignedQueryStart
			rightClip := storedLen - info.alignedQueryEnd - leftSoft
			cigar = withClips(merged, leftClip, rightClip, sam.CigarSoftClipped)
			sub.QueryBases = a.QueryBases
			sub.Qual = a.Qual
		} else {
			leftClip := leftSoft + info.alignedQueryStart + leftHard
			rightClip := storedLen - info.alignedQueryEnd - leftSoft + rightHard
			cigar = withClips(merged, leftClip, rightClip, sam.CigarHardClipped)
			seqStart := info.alignedQueryStart + leftSoft
			seqEnd := info.alignedQueryEnd + leftSoft
			sub.QueryBases = sliceBytes(a.QueryBases, seqStart, seqEnd)
			sub.Qual = sliceBytes(a.Qual, seqStart, seqEnd)
		}
		sub.Cigar = cigar
		sub.QStart, sub.QEnd = subQueryOrigCoords(a, info.alignedQueryStart, info.alignedQueryEnd)

		if !longest {
			sub.Flags = a.Flags | sam.Supplementary
		}
		results = append(results, Result{Align: sub, Supplementary: !longest})
	}
	return results
}

// subQueryOrigCoords derives the original-sequence [qStart,qEnd] for a
// sub-alignment spanning aligned-query offsets [qoStart, qoEnd) of the
// parent alignment.
func subQueryOrigCoords(a *align.Alignment, qoStart, qoEnd int) (int, int) {
	if a.Strand == align.Reverse {
		return a.QStart + (a.QuerySpan()-qoEnd), a.QStart + (a.QuerySpan() - qoStart) - 1
	}
	return a.QStart + qoStart, a.QStart + qoEnd - 1
}

func sliceBytes(b []byte, lo, hi int) []byte {
	if b == nil {
		return nil
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(b) {
		hi = len(b)
	}
	if lo >= hi {
		return nil
	}
	return append([]byte(nil), b[lo:hi]...)
}

func withClips(ops sam.Cigar, left, right int, clipType sam.CigarOpType) sam.Cigar {
	var out sam.Cigar
	if left > 0 {
		out = append(out, sam.NewCigarOp(clipType, left))
	}
	out = append(out, ops...)
	if right > 0 {
		out = append(out, sam.NewCigarOp(clipType, right))
	}
	return out
}

// mergeAdjacentIndels implements the adjacent-I/D merge rule: an I
// followed by a D (or vice versa) collapses to M(min) plus the leftover I or
// D.
func mergeAdjacentIndels(ops sam.Cigar) sam.Cigar {
	var out sam.Cigar
	for i := 0; i < len(ops); i++ {
		op := ops[i]
		if i < len(ops)-1 {
			next := ops[i+1]
			t, nt := op.Type(), next.Type()
			if (t == sam.CigarInsertion && nt == sam.CigarDeletion) || (t == sam.CigarDeletion && nt == sam.CigarInsertion) {
				a, b := op.Len(), next.Len()
				switch {
				case a == b:
					out = append(out, sam.NewCigarOp(sam.CigarMatch, a))
				case a > b:
					out = append(out, sam.NewCigarOp(sam.CigarMatch, b))
					out = append(out, sam.NewCigarOp(t, a-b))
				default:
					out = append(out, sam.NewCigarOp(sam.CigarMatch, a))
					out = append(out, sam.NewCigarOp(nt, b-a))
				}
				i++
				continue
			}
		}
		out = append(out, op)
	}
	return out
}

// consumedQueryBases sums query-consuming op lengths (M,I,S,=,X), matching
// the "query bases consumed" accounting and the merge rule's
// pre/post-merge comparison.
func consumedQueryBases(ops sam.Cigar) int {
	total := 0
	for _, op := range ops {
		t := op.Type()
		if t == sam.CigarMatch || t == sam.CigarInsertion || t == sam.CigarSoftClipped || t == sam.CigarEqual || t == sam.CigarMismatch {
			total += op.Len()
		}
	}
	return total
}
