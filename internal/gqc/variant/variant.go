// Package variant implements VariantExtractor (spec component C3): given a
// CigarWalker traversal of one alignment plus the benchmark and test base
// sequences it covers, produce normalized, N-safe, widened variant records.
package variant

import (
	"fmt"
	"sort"

	"github.com/grailbio/gqc/biosimd"
	"github.com/grailbio/gqc/internal/gqc/align"
	"github.com/grailbio/gqc/internal/gqc/cigarwalk"
)

// Kind distinguishes the two variant classes this core reports.
type Kind int

const (
	// SNV is a single-nucleotide substitution.
	SNV Kind = iota
	// INDEL is an insertion or deletion, always reported as a single
	// widened record.
	INDEL
)

func (k Kind) String() string {
	if k == INDEL {
		return "INDEL"
	}
	return "SNV"
}

// Variant is one discrepancy between the benchmark and the test assembly, in
// zero-based half-open benchmark coordinates.
type Variant struct {
	Chrom    string
	Start    int
	End      int
	Name     string
	Kind     Kind
	Excluded bool
	// QV is nil when the indel's widened region had no covered query bases
	// (an empty quality window).
	QV *int
}

// QualHistograms accumulates per-quality-value base counts across an
// extraction run: snvErrorQualHist[q] counts bases
// underlying an emitted SNV, alignedQualHist[q] counts every aligned
// (M/=/X) base regardless of whether it became a variant.
type QualHistograms struct {
	SNVErrorQualHist [256]int64
	AlignedQualHist  [256]int64
}

// Input bundles the per-alignment data VariantExtractor needs: the
// alignment itself, the benchmark bases spanning [a.RStart, a.REnd] (0-based
// within that span, uppercase), and the stored query bases/quals (which
// include soft-clipped bases, per cigarwalk.Event.StoredQOff).
type Input struct {
	Align   *align.Alignment
	RefSeq  []byte // length a.RefSpan()
	HasQual bool    // whether Align.Qual is populated
	// NoWiden disables the indel-widening pass, reporting each indel at its
	// raw cigar-derived span instead of its normalized canonical span.
	NoWiden bool
}

// An empty quality window shows as Variant.QV == nil; Extract itself
// never errors, logs, or updates a histogram on this condition.

// Extract walks in.Align's cigar and returns every SNV/INDEL variant found,
// plus updated quality histograms. The widening (normalization) pass
// runs inline as each INDEL op is encountered.
func Extract(in Input, hist *QualHistograms) ([]Variant, error) {
	a := in.Align
	if len(in.RefSeq) != a.RefSpan() {
		return nil, fmt.Errorf("variant: RefSeq length %d != alignment ref span %d", len(in.RefSeq), a.RefSpan())
	}
	w := cigarwalk.NewWalker(a)
	var events []cigarwalk.Event
	if err := w.Walk(func(ev cigarwalk.Event) {
		if ev.Kind != cigarwalk.Clip {
			events = append(events, ev)
		}
	}); err != nil {
		return nil, err
	}

	var out []Variant
	for idx, ev := range events {
		switch ev.Kind {
		case cigarwalk.MatchRun:
			extractSNVs(a, in.RefSeq, ev, hist, &out)
		case cigarwalk.Insert:
			if v, ok := extractInsertion(a, in.RefSeq, events, idx, in.NoWiden); ok {
				out = append(out, v)
			}
		case cigarwalk.Delete:
			if v, ok := extractDeletion(a, in.RefSeq, events, idx, in.NoWiden); ok {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

func extractSNVs(a *align.Alignment, refSeq []byte, ev cigarwalk.Event, hist *QualHistograms, out *[]Variant) {
	for i := 0; i < ev.Len; i++ {
		refBase := refSeq[ev.RefOff+i]
		testBase := queryBaseAt(a, ev.StoredQOff+i)
		var q byte
		if a.Qual != nil && ev.StoredQOff+i < len(a.Qual) {
			q = a.Qual[ev.StoredQOff+i]
			hist.AlignedQualHist[q]++
		}
		if refBase == testBase || refBase == 'N' || testBase == 'N' {
			continue
		}
		hist.SNVErrorQualHist[q]++
		refOff := ev.RefOff + i
		queryCoord := queryCoordSNV(a, ev.QOff+i)
		name := fmt.Sprintf("%s_%d_%s_%s_%s", a.Query, queryCoord, string(refBase), string(testBase), a.Strand.String())
		*out = append(*out, Variant{
			Chrom: a.Ref,
			Start: a.RStart - 1 + refOff,
			End:   a.RStart - 1 + refOff + 1,
			Name:  name,
			Kind:  SNV,
		})
	}
}

// queryBaseAt returns the uppercase base at stored offset off, or 'N' if
// unavailable (no query sequence present for this alignment).
func queryBaseAt(a *align.Alignment, off int) byte {
	if a.QueryBases == nil || off < 0 || off >= len(a.QueryBases) {
		return 'N'
	}
	return a.QueryBases[off]
}

// queryCoordSNV implements the unwidened F/R-strand query-coordinate rule
// used for SNV names.
func queryCoordSNV(a *align.Alignment, qOff int) int {
	if a.Strand == align.Reverse {
		return a.QEnd - qOff
	}
	return a.QStart + qOff
}

// queryCoordInsertion implements the insertion query-coordinate rule:
// F-strand -> qStart + qOff - extendLeft; R-strand -> qEnd - qOff -
// extendLeft.
func queryCoordInsertion(a *align.Alignment, qOff, extendLeft int) int {
	if a.Strand == align.Reverse {
		return a.QEnd - qOff - extendLeft
	}
	return a.QStart + qOff - extendLeft
}

// extractInsertion handles a single I op at events[idx], performing
// widening and returning the resulting Variant.
func extractInsertion(a *align.Alignment, refSeq []byte, events []cigarwalk.Event, idx int, noWiden bool) (Variant, bool) {
	ev := events[idx]
	refOff := ev.RefOff // ref position the insertion sits before (0-based within span)
	qOff := ev.QOff      // alignment-relative offset of first inserted base
	storedQOff := ev.StoredQOff

	prevBound, nextBound := prevMatchLen(events, idx), nextMatchLen(events, idx)
	if noWiden {
		prevBound, nextBound = 0, 0
	}
	extendLeft := widenLeft(refSeq, a, refOff, storedQOff, prevBound)
	extendRight := widenRight(refSeq, a, refOff, storedQOff+ev.Len, nextBound)

	insStart := refOff - extendLeft
	insEnd := refOff + extendRight
	if insStart < 0 || insEnd > len(refSeq) {
		return Variant{}, false
	}

	testWindowStart := storedQOff - extendLeft
	testWindowEnd := storedQOff + ev.Len + extendRight
	refAllele := "*"
	altAllele := string(queryBasesRange(a, testWindowStart, testWindowEnd))
	if altAllele == "" {
		altAllele = "*"
	}

	if containsN(refSeq, insStart, insEnd) || containsN(a.QueryBases, testWindowStart, testWindowEnd) {
		return Variant{}, false
	}

	qv, hasQV := medianQual(a, testWindowStart, testWindowEnd)

	queryCoord := queryCoordInsertion(a, qOff, extendLeft)
	name := fmt.Sprintf("%s_%d_%s_%s_%s", a.Query, queryCoord, refAllele, altAllele, a.Strand.String())

	v := Variant{
		Chrom: a.Ref,
		Start: a.RStart - 1 + insStart,
		End:   a.RStart - 1 + insEnd,
		Name:  name,
		Kind:  INDEL,
	}
	if hasQV {
		v.QV = &qv
	}
	return v, true
}

// extractDeletion handles a single D op at events[idx].
func extractDeletion(a *align.Alignment, refSeq []byte, events []cigarwalk.Event, idx int, noWiden bool) (Variant, bool) {
	ev := events[idx]
	refOff := ev.RefOff
	qOff := ev.QOff // query doesn't advance across a deletion
	storedQOff := ev.StoredQOff

	prevBound, nextBound := prevMatchLen(events, idx), nextMatchLen(events, idx)
	if noWiden {
		prevBound, nextBound = 0, 0
	}
	extendLeft := widenLeft(refSeq, a, refOff, storedQOff, prevBound)
	extendRight := widenRight(refSeq, a, refOff+ev.Len, storedQOff, nextBound)

	delStart := refOff - extendLeft
	delEnd := refOff + ev.Len + extendRight
	if delStart < 0 || delEnd > len(refSeq) {
		return Variant{}, false
	}

	if containsN(refSeq, delStart, delEnd) {
		return Variant{}, false
	}
	// Flanking test bases pulled in by widening are the only query bases
	// associated with a deletion; check them for N too ("or whose
	// immediately adjacent bases ... contain N").
	if containsN(a.QueryBases, storedQOff-extendLeft, storedQOff+extendRight) {
		return Variant{}, false
	}

	qv, hasQV := medianQual(a, storedQOff-extendLeft, storedQOff+extendRight)

	altAllele := "*"
	queryCoord := queryDeletionNameCoord(a, qOff, extendLeft, extendRight)
	name := fmt.Sprintf("%s_%d_%s_%s_%s", a.Query, queryCoord, string(refSeq[delStart:delEnd]), altAllele, a.Strand.String())

	v := Variant{
		Chrom: a.Ref,
		Start: a.RStart - 1 + delStart,
		End:   a.RStart - 1 + delEnd,
		Name:  name,
		Kind:  INDEL,
	}
	if hasQV {
		v.QV = &qv
	}
	return v, true
}

// queryDeletionNameCoord implements the deletion-specific query-coordinate
// rule: F-strand -> qStart + qOff - extendLeft; R-strand -> qEnd -
// qOff - extendRight.
func queryDeletionNameCoord(a *align.Alignment, qOff, extendLeft, extendRight int) int {
	if a.Strand == align.Reverse {
		return a.QEnd - qOff - extendRight
	}
	return a.QStart + qOff - extendLeft
}

func queryBasesRange(a *align.Alignment, lo, hi int) []byte {
	if a.QueryBases == nil {
		return nil
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(a.QueryBases) {
		hi = len(a.QueryBases)
	}
	if lo >= hi {
		return nil
	}
	return a.QueryBases[lo:hi]
}

func containsN(seq []byte, lo, hi int) bool {
	if seq == nil {
		return false
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(seq) {
		hi = len(seq)
	}
	if lo >= hi {
		return false
	}
	return biosimd.IsNonACGTPresent(seq[lo:hi])
}

// medianQual computes the median base quality across stored offsets
// [lo,hi); for even-length windows the larger of the two middle values is
// dropped, guaranteeing the result is one of the input integers.
// Returns (0, false) for an empty or qual-less window.
func medianQual(a *align.Alignment, lo, hi int) (int, bool) {
	if a.Qual == nil {
		return 0, false
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(a.Qual) {
		hi = len(a.Qual)
	}
	if lo >= hi {
		return 0, false
	}
	vals := append([]byte(nil), a.Qual[lo:hi]...)
	sort.Slice(vals, func(i, j int) bool { return vals[i] < vals[j] })
	n := len(vals)
	if n%2 == 1 {
		return int(vals[n/2]), true
	}
	// Even count: drop the larger of the two middle values.
	return int(vals[n/2-1]), true
}

// widenLeft extends an indel boundary leftward while the preceding
// benchmark base equals the preceding test base, bounded by the length of
// the preceding match run (it may not cross into a neighboring op's
// non-matching bases).
func widenLeft(refSeq []byte, a *align.Alignment, refBoundary, storedQBoundary, bound int) int {
	n := 0
	for n < bound {
		ri := refBoundary - n - 1
		qi := storedQBoundary - n - 1
		if ri < 0 || qi < 0 || ri >= len(refSeq) {
			break
		}
		qb := queryBaseAt(a, qi)
		if refSeq[ri] != qb {
			break
		}
		n++
	}
	return n
}

// widenRight is the mirror of widenLeft.
func widenRight(refSeq []byte, a *align.Alignment, refBoundary, storedQBoundary, bound int) int {
	n := 0
	for n < bound {
		ri := refBoundary + n
		qi := storedQBoundary + n
		if ri >= len(refSeq) {
			break
		}
		qb := queryBaseAt(a, qi)
		if qb == 'N' || refSeq[ri] != qb {
			break
		}
		n++
	}
	return n
}

// prevMatchLen/nextMatchLen bound widening to the adjacent match run's
// length.
func prevMatchLen(events []cigarwalk.Event, idx int) int {
	if idx == 0 || events[idx-1].Kind != cigarwalk.MatchRun {
		return 0
	}
	return events[idx-1].Len
}

func nextMatchLen(events []cigarwalk.Event, idx int) int {
	if idx == len(events)-1 || events[idx+1].Kind != cigarwalk.MatchRun {
		return 0
	}
	return events[idx+1].Len
}

// decode interprets a Variant's Name back into its components, used by
// property tests asserting that decoding reproduces contig,
// position, ref allele, alt allele, and strand.
type Decoded struct {
	Query      string
	QueryPos   int
	RefAllele  string
	AltAllele  string
	Strand     align.Strand
}

// Decode reverses the name encoding query_queryPos_refAllele_altAllele_strand.
func Decode(name string) (Decoded, error) {
	// Split from the right: strand, altAllele, refAllele are guaranteed to
	// contain no underscore; query may.
	var d Decoded
	// Find the last 4 underscore-delimited fields.
	fields := splitLastN(name, 4)
	if len(fields) != 5 {
		return d, fmt.Errorf("variant: malformed name %q", name)
	}
	d.Query = fields[0]
	var pos int
	if _, err := fmt.Sscanf(fields[1], "%d", &pos); err != nil {
		return d, fmt.Errorf("variant: malformed position in name %q: %w", name, err)
	}
	d.QueryPos = pos
	d.RefAllele = fields[2]
	d.AltAllele = fields[3]
	switch fields[4] {
	case "F":
		d.Strand = align.Forward
	case "R":
		d.Strand = align.Reverse
	default:
		return d, fmt.Errorf("variant: malformed strand in name %q", name)
	}
	return d, nil
}

// splitLastN splits s on '_' keeping the first field intact even if it
// contains underscores, returning exactly n+1 fields when possible.
func splitLastN(s string, n int) []string {
	var parts []string
	rest := s
	for i := 0; i < n; i++ {
		idx := lastIndexByte(rest, '_')
		if idx < 0 {
			return nil
		}
		parts = append([]string{rest[idx+1:]}, parts...)
		rest = rest[:idx]
	}
	return append([]string{rest}, parts...)
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}
