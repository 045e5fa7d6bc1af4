// Package alignsource adapts the two supported alignment sources
// (a sorted indexed BAM, or a PAF file) into a single Producer a caller
// ranges over without knowing which one backs it. Grounded on
// alignparse.py's read_bam_aligns/read_paf_aligns, and on the dynamic
// dispatch idiom the deleted encoding/bamprovider.Provider interface
// used for the same BAM-vs-other-source seam, rebuilt here directly atop
// biogo/hts/bam rather than grailbio's sharded-BAM codec.
package alignsource

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/gqc/internal/gqc/align"
)

// Producer yields Alignments one at a time. Secondary alignments are
// filtered out by the producer itself ("secondary alignments are
// skipped; supplementary alignments are retained").
type Producer interface {
	// Next returns the next alignment, or (nil, io.EOF) when exhausted.
	Next() (*align.Alignment, error)
	Close() error
}

// BAMProducer reads a sorted, indexed BAM file record by record.
type BAMProducer struct {
	closer io.Closer
	reader *bam.Reader
}

// NewBAMProducer wraps r (typically an *os.File already positioned at the
// start of a BAM stream) in a biogo/hts/bam.Reader. concurrency is passed
// through to bam.NewReader for block-decompression parallelism.
func NewBAMProducer(r io.Reader, closer io.Closer, concurrency int) (*BAMProducer, error) {
	br, err := bam.NewReader(r, concurrency)
	if err != nil {
		return nil, errors.E(err, "alignsource: opening BAM stream")
	}
	return &BAMProducer{closer: closer, reader: br}, nil
}

func (p *BAMProducer) Next() (*align.Alignment, error) {
	for {
		rec, err := p.reader.Read()
		if err != nil {
			return nil, err
		}
		if rec.Flags&sam.Secondary != 0 {
			continue
		}
		return fromRecord(rec), nil
	}
}

func (p *BAMProducer) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

func fromRecord(rec *sam.Record) *align.Alignment {
	strand := align.Forward
	if rec.Flags&sam.Reverse != 0 {
		strand = align.Reverse
	}
	rStart := rec.Start() + 1
	rEnd := rec.End()

	a := &align.Alignment{
		Query:    rec.Name,
		QueryLen: rec.Len(),
		Ref:      refName(rec),
		RefLen:   refLen(rec),
		RStart:   rStart,
		REnd:     rEnd,
		Strand:   strand,
		Cigar:    rec.Cigar,
		Flags:    rec.Flags,
	}
	if rec.Seq.Length > 0 {
		a.QueryBases = []byte(rec.Seq.Expand())
	}
	if len(rec.Qual) > 0 && rec.Qual[0] != 0xff {
		a.Qual = rec.Qual
	}
	return a
}

func refName(rec *sam.Record) string {
	if rec.Ref == nil {
		return "*"
	}
	return rec.Ref.Name()
}

func refLen(rec *sam.Record) int {
	if rec.Ref == nil {
		return 0
	}
	return rec.Ref.Len()
}

// PAFProducer reads the 12-column subset of a PAF alignment file.
// Identity is derived from column 10/11 (matches/blockLen) and carried as
// an IdentityHint override rather than recomputed from a cigar (PAF lines
// commonly omit the cg: tag cigar entirely).
type PAFProducer struct {
	scanner *bufio.Scanner
	closer  io.Closer
}

// NewPAFProducer wraps r in a line scanner. Lines with fewer than 12
// tab-delimited fields are fatal, surfaced as an error from Next.
func NewPAFProducer(r io.Reader, closer io.Closer) *PAFProducer {
	return &PAFProducer{scanner: bufio.NewScanner(r), closer: closer}
}

func (p *PAFProducer) Next() (*align.Alignment, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return nil, errors.E(err, "alignsource: reading PAF")
		}
		return nil, io.EOF
	}
	fields := strings.Split(p.scanner.Text(), "\t")
	if len(fields) < 12 {
		return nil, errors.E("alignsource: PAF line has fewer than 12 tab-delimited columns")
	}

	query := fields[0]
	queryLen := atoi(fields[1])
	queryStart0 := atoi(fields[2])
	queryEnd := atoi(fields[3])
	strandField := fields[4]
	target := fields[5]
	targetLen := atoi(fields[6])
	targetStart0 := atoi(fields[7])
	targetEnd := atoi(fields[8])
	matches := atoi(fields[9])
	blockLen := atoi(fields[10])

	strand := align.Forward
	qStart, qEnd := queryStart0+1, queryEnd
	if strandField == "-" {
		strand = align.Reverse
		qStart, qEnd = queryEnd, queryStart0+1
	}

	a := &align.Alignment{
		Query:    query,
		QueryLen: queryLen,
		QStart:   qStart,
		QEnd:     qEnd,
		Ref:      target,
		RefLen:   targetLen,
		RStart:   targetStart0 + 1,
		REnd:     targetEnd,
		Strand:   strand,
	}
	if blockLen > 0 {
		a.IdentityHint = float64(matches) / float64(blockLen)
	}
	return a, nil
}

func (p *PAFProducer) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
