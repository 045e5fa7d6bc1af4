// Package intervalproj implements IntervalProjector (spec component C8):
// given an alignment and a window [qStartOff,qEndOff) in aligned-query
// offsets, walk the cigar and emit only the ops covering that window,
// splitting M/I ops at the edges. Grounded directly on alignparse.py's
// retrieve_refcoords_and_cigars_from_querycoords.
package intervalproj

import (
	"github.com/biogo/hts/sam"

	"github.com/grailbio/gqc/internal/gqc/align"
)

// Result is the sub-alignment window IntervalProjector extracted.
type Result struct {
	Ref       string
	RStart    int // 1-based, inclusive
	REnd      int // 1-based, exclusive: the ref position aligned to qEndOff
	Cigar     sam.Cigar
	QStart    int
	QEnd      int
	// Dropped is true when no ops covered the window at all (desiredRefStart
	// was never reached) or when the projected cigar's query consumption
	// differs from qEndOff-qStartOff, in which case RStart/REnd/Cigar are
	// zero values.
	Dropped bool
}

// Project walks a.Cigar and returns the ops covering the aligned-query
// offset window [qStartOff, qEndOff). Insertions exactly at a
// boundary are included if they fall inside the half-open window.
// Deletions before the first covered match are discarded; deletions after
// the last covered match are not emitted (the walk stops as soon as both
// edges are resolved).
func Project(a *align.Alignment, qStartOff, qEndOff int) Result {
	var refOff, qOff int
	var desiredRefStart, desiredRefEnd *int
	var ops sam.Cigar

	for _, co := range a.Cigar {
		opType := co.Type()
		n := co.Len()

		switch opType {
		case sam.CigarMatch, sam.CigarEqual, sam.CigarMismatch:
			matchesToAdd := n
			if qStartOff >= qOff && qStartOff < qOff+n {
				offsetWithinBlock := qStartOff - qOff
				v := refOff + a.RStart + offsetWithinBlock
				desiredRefStart = &v
				matchesToAdd -= offsetWithinBlock
			}
			if qEndOff >= qOff && qEndOff < qOff+n {
				offsetWithinBlock := qEndOff - qOff
				v := refOff + a.RStart + offsetWithinBlock
				desiredRefEnd = &v
				matchesToAdd -= n - offsetWithinBlock
			}
			if desiredRefStart != nil {
				ops = append(ops, sam.NewCigarOp(opType, matchesToAdd))
			}
			if desiredRefEnd != nil {
				return finish(a.Ref, qStartOff, qEndOff, desiredRefStart, desiredRefEnd, ops)
			}
			refOff += n
			qOff += n

		case sam.CigarDeletion, sam.CigarSkipped:
			if desiredRefStart != nil {
				ops = append(ops, sam.NewCigarOp(opType, n))
			}
			refOff += n

		case sam.CigarInsertion:
			insertionsToAdd := n
			if qStartOff >= qOff && qStartOff < qOff+n {
				v := refOff + a.RStart
				desiredRefStart = &v
				insertionsToAdd += qOff - qStartOff
			}
			if qEndOff >= qOff && qEndOff < qOff+n {
				v := refOff + a.RStart
				desiredRefEnd = &v
				insertionsToAdd = qEndOff - qOff
				ops = append(ops, sam.NewCigarOp(opType, insertionsToAdd))
				return finish(a.Ref, qStartOff, qEndOff, desiredRefStart, desiredRefEnd, ops)
			}
			if desiredRefStart != nil {
				ops = append(ops, sam.NewCigarOp(opType, insertionsToAdd))
			}
			qOff += n

		default:
			// Clips and other non-consuming ops never appear inside the
			// requested window; skip without advancing ref/query offsets.
			continue
		}

		if desiredRefStart != nil && desiredRefEnd != nil {
			return finish(a.Ref, qStartOff, qEndOff, desiredRefStart, desiredRefEnd, ops)
		}
		if refOff > a.RefSpan()-1 {
			break
		}
	}
	return finish(a.Ref, qStartOff, qEndOff, desiredRefStart, desiredRefEnd, ops)
}

func finish(ref string, qStartOff, qEndOff int, refStart, refEnd *int, ops sam.Cigar) Result {
	if refStart == nil || refEnd == nil {
		return Result{Dropped: true}
	}
	if ConsumedQueryBases(ops) != qEndOff-qStartOff {
		return Result{Dropped: true}
	}
	return Result{
		Ref:    ref,
		RStart: *refStart,
		REnd:   *refEnd,
		Cigar:  ops,
		QStart: qStartOff,
		QEnd:   qEndOff,
	}
}

// ConsumedQueryBases sums the query-consuming length of a projected
// sub-cigar (M,I,=,X). Project compares this against qEndOff-qStartOff
// and drops the sub-alignment on mismatch.
func ConsumedQueryBases(ops sam.Cigar) int {
	total := 0
	for _, op := range ops {
		switch op.Type() {
		case sam.CigarMatch, sam.CigarInsertion, sam.CigarEqual, sam.CigarMismatch:
			total += op.Len()
		}
	}
	return total
}
