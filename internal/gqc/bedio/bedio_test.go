package bedio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/gqc/internal/gqc/align"
	"github.com/grailbio/gqc/internal/gqc/hetproject"
	"github.com/grailbio/gqc/internal/gqc/structreport"
	"github.com/grailbio/gqc/internal/gqc/variant"
)

func TestAlignmentBEDWriterFormatsRow(t *testing.T) {
	var buf bytes.Buffer
	w := NewAlignmentBEDWriter(&buf)
	a := &align.Alignment{Ref: "chr1", RStart: 101, REnd: 200, Strand: align.Forward}
	expect.NoError(t, w.WriteAlignment("chr1", 100, 200, a))
	expect.NoError(t, w.Flush())
	expect.EQ(t, strings.TrimRight(buf.String(), "\n"), "chr1\t100\t200\tchr1.101.200.F")
}

func TestTruthBEDWriterFormatsRow(t *testing.T) {
	var buf bytes.Buffer
	w := NewTruthBEDWriter(&buf)
	expect.NoError(t, w.WriteTruth("chr1", 0, 100, "q1", 1, 100))
	expect.NoError(t, w.Flush())
	expect.EQ(t, strings.TrimRight(buf.String(), "\n"), "chr1\t0\t100\tq1.1.100")
}

func TestHetAlleleBEDWriterFormatsRow(t *testing.T) {
	var buf bytes.Buffer
	w := NewHetAlleleBEDWriter(&buf)
	a := hetproject.Allele{
		HetName: "site1", Ref: "chr1", RefStart: 100, RefEnd: 101,
		ObservedAllele: "A", Class: hetproject.Same,
		Query: "q1", QueryStart: 50, QueryEnd: 51,
	}
	expect.NoError(t, w.WriteAllele(a))
	expect.NoError(t, w.Flush())
	expect.EQ(t, strings.TrimRight(buf.String(), "\n"),
		"chr1\t100\t101\tsite1\t0\t.\tq1\t50\t51\t0,0,0\tA\tSAMEHAP")
}

func TestVariantBEDWriterColorsByPhasing(t *testing.T) {
	var buf bytes.Buffer
	w := NewVariantBEDWriter(&buf)
	v := variant.Variant{Chrom: "chr1", Start: 100, End: 101, Name: "q1_11_A_G_F", Kind: variant.SNV}
	expect.NoError(t, w.WriteVariant(v, "+", "1000", false))
	expect.NoError(t, w.Flush())
	expect.True(t, strings.Contains(buf.String(), "0,0,255"))
	expect.True(t, strings.Contains(buf.String(), "CONSENSUS"))

	buf.Reset()
	expect.NoError(t, w.WriteVariant(v, "+", "1000", true))
	expect.NoError(t, w.Flush())
	expect.True(t, strings.Contains(buf.String(), "255,0,0"))
	expect.True(t, strings.Contains(buf.String(), "PHASING"))
}

func TestStructVariantBEDWriterFormatsRow(t *testing.T) {
	var buf bytes.Buffer
	w := NewStructVariantBEDWriter(&buf)
	j := structreport.Join{Ref: "chr1", Start: 100, End: 150, Kind: structreport.SameContigDeletion}
	expect.NoError(t, w.WriteJoin(j))
	expect.NoError(t, w.Flush())
	expect.EQ(t, strings.TrimRight(buf.String(), "\n"), "chr1\t100\t150\tSameContigDeletion")
}
