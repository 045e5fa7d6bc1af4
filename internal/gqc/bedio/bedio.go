// Package bedio writes the bit-exact BED outputs:
// testmat/testpat alignment-coverage BEDs, the truth BED, the
// het-allele projection BED, the variant call BED, and the structural
// variant BED. Grounded on encoding/fasta/index.go's tsv.Writer usage
// and interval/bedunion.go's BED field conventions.
package bedio

import (
	"io"
	"strconv"

	"github.com/grailbio/base/tsv"
	"github.com/grailbio/gqc/internal/gqc/align"
	"github.com/grailbio/gqc/internal/gqc/hetproject"
	"github.com/grailbio/gqc/internal/gqc/structreport"
	"github.com/grailbio/gqc/internal/gqc/variant"
)

// AlignmentBEDWriter writes testmat.bed/testpat.bed rows: chrom, start0,
// end0, name="ref.rStart.rEnd.strand".
type AlignmentBEDWriter struct{ w *tsv.Writer }

func NewAlignmentBEDWriter(out io.Writer) *AlignmentBEDWriter {
	return &AlignmentBEDWriter{w: tsv.NewWriter(out)}
}

func (b *AlignmentBEDWriter) WriteAlignment(chrom string, start0, end0 int, a *align.Alignment) error {
	b.w.WriteString(chrom)
	b.w.WriteInt64(int64(start0))
	b.w.WriteInt64(int64(end0))
	b.w.WriteString(a.Ref + "." + strconv.Itoa(a.RStart) + "." + strconv.Itoa(a.REnd) + "." + a.Strand.String())
	return b.w.EndLine()
}

func (b *AlignmentBEDWriter) Flush() error { return b.w.Flush() }

// TruthBEDWriter writes truth.bed rows: chrom, start0, end0,
// name="query.qLeft.qRight".
type TruthBEDWriter struct{ w *tsv.Writer }

func NewTruthBEDWriter(out io.Writer) *TruthBEDWriter {
	return &TruthBEDWriter{w: tsv.NewWriter(out)}
}

func (b *TruthBEDWriter) WriteTruth(chrom string, start0, end0 int, query string, qLeft, qRight int) error {
	b.w.WriteString(chrom)
	b.w.WriteInt64(int64(start0))
	b.w.WriteInt64(int64(end0))
	b.w.WriteString(query + "." + strconv.Itoa(qLeft) + "." + strconv.Itoa(qRight))
	return b.w.EndLine()
}

func (b *TruthBEDWriter) Flush() error { return b.w.Flush() }

// HetAlleleBEDWriter writes hetalleles.bed's 12 columns: the het site's
// own 6 BED-standard columns (chrom,start0,end0,name,score,strand),
// followed by the projected test-assembly interval, observed allele, and
// classification.
type HetAlleleBEDWriter struct{ w *tsv.Writer }

func NewHetAlleleBEDWriter(out io.Writer) *HetAlleleBEDWriter {
	return &HetAlleleBEDWriter{w: tsv.NewWriter(out)}
}

func (b *HetAlleleBEDWriter) WriteAllele(a hetproject.Allele) error {
	b.w.WriteString(a.Ref)
	b.w.WriteInt64(int64(a.RefStart))
	b.w.WriteInt64(int64(a.RefEnd))
	b.w.WriteString(a.HetName)
	b.w.WriteString("0")
	b.w.WriteString(".")
	b.w.WriteString(a.Query)
	b.w.WriteInt64(int64(a.QueryStart))
	b.w.WriteInt64(int64(a.QueryEnd))
	b.w.WriteString("0,0,0")
	b.w.WriteString(a.ObservedAllele)
	b.w.WriteString(a.Class.String())
	return b.w.EndLine()
}

func (b *HetAlleleBEDWriter) Flush() error { return b.w.Flush() }

// itemRGB colors for variants.bed.
const (
	phasingColor   = "255,0,0"
	consensusColor = "0,0,255"
)

// VariantBEDWriter writes variants.bed's 12-column itemRGB-encoded rows.
type VariantBEDWriter struct{ w *tsv.Writer }

func NewVariantBEDWriter(out io.Writer) *VariantBEDWriter {
	return &VariantBEDWriter{w: tsv.NewWriter(out)}
}

// WriteVariant writes one row. isPhasing selects the itemRGB color;
// strand and score are carried from the originating alignment's name
// encoding.
func (b *VariantBEDWriter) WriteVariant(v variant.Variant, strand string, score string, isPhasing bool) error {
	color := consensusColor
	label := "CONSENSUS"
	if isPhasing {
		color = phasingColor
		label = "PHASING"
	}
	b.w.WriteString(v.Chrom)
	b.w.WriteInt64(int64(v.Start))
	b.w.WriteInt64(int64(v.End))
	b.w.WriteString(v.Name)
	b.w.WriteString(score)
	b.w.WriteString(strand)
	b.w.WriteInt64(int64(v.Start))
	b.w.WriteInt64(int64(v.End))
	b.w.WriteString(color)
	b.w.WriteString(label)
	b.w.WriteString(v.Kind.String())
	b.w.WriteString(v.Name)
	return b.w.EndLine()
}

func (b *VariantBEDWriter) Flush() error { return b.w.Flush() }

// StructVariantBEDWriter writes structvariants.bed's 4 columns.
type StructVariantBEDWriter struct{ w *tsv.Writer }

func NewStructVariantBEDWriter(out io.Writer) *StructVariantBEDWriter {
	return &StructVariantBEDWriter{w: tsv.NewWriter(out)}
}

func (b *StructVariantBEDWriter) WriteJoin(j structreport.Join) error {
	b.w.WriteString(j.Ref)
	b.w.WriteInt64(int64(j.Start))
	b.w.WriteInt64(int64(j.End))
	b.w.WriteString(j.Kind.String())
	return b.w.EndLine()
}

func (b *StructVariantBEDWriter) Flush() error { return b.w.Flush() }
