package variant

import (
	"testing"

	"github.com/biogo/hts/sam"
	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/gqc/internal/gqc/align"
)

func cop(t sam.CigarOpType, n int) sam.CigarOp { return sam.NewCigarOp(t, n) }

func onlyKind(vs []Variant, k Kind) []Variant {
	var out []Variant
	for _, v := range vs {
		if v.Kind == k {
			out = append(out, v)
		}
	}
	return out
}

func TestExtractFindsSingleSNV(t *testing.T) {
	a := &align.Alignment{
		Query: "q1", Ref: "chr1", Strand: align.Forward,
		RStart: 1, REnd: 10, QStart: 1, QEnd: 10,
		Cigar:      sam.Cigar{cop(sam.CigarMatch, 10)},
		QueryBases: []byte("ACGTACGTAA"),
	}
	refSeq := []byte("ACGTACGTAC")
	hist := &QualHistograms{}
	vs, err := Extract(Input{Align: a, RefSeq: refSeq}, hist)
	expect.NoError(t, err)
	snvs := onlyKind(vs, SNV)
	expect.EQ(t, len(snvs), 1)
	expect.EQ(t, snvs[0].Start, 9)
	expect.EQ(t, snvs[0].End, 10)

	d, err := Decode(snvs[0].Name)
	expect.NoError(t, err)
	expect.EQ(t, d.Query, "q1")
	expect.EQ(t, d.QueryPos, 10)
	expect.EQ(t, d.RefAllele, "C")
	expect.EQ(t, d.AltAllele, "A")
	expect.EQ(t, d.Strand, align.Forward)
}

func TestExtractSkipsSNVWithN(t *testing.T) {
	a := &align.Alignment{
		Query: "q1", Ref: "chr1", Strand: align.Forward,
		RStart: 1, REnd: 4, QStart: 1, QEnd: 4,
		Cigar:      sam.Cigar{cop(sam.CigarMatch, 4)},
		QueryBases: []byte("ANGT"),
	}
	refSeq := []byte("ACGT")
	vs, err := Extract(Input{Align: a, RefSeq: refSeq}, &QualHistograms{})
	expect.NoError(t, err)
	expect.EQ(t, len(onlyKind(vs, SNV)), 0)
}

func TestExtractFindsExactDeletionWithoutWidening(t *testing.T) {
	a := &align.Alignment{
		Query: "q1", Ref: "chr1", Strand: align.Forward,
		RStart: 1, REnd: 11, QStart: 1, QEnd: 8,
		Cigar:      sam.Cigar{cop(sam.CigarMatch, 4), cop(sam.CigarDeletion, 3), cop(sam.CigarMatch, 4)},
		QueryBases: []byte("ACGACGCA"),
	}
	refSeq := []byte("ACGTGGGTGCA")
	vs, err := Extract(Input{Align: a, RefSeq: refSeq}, &QualHistograms{})
	expect.NoError(t, err)
	dels := onlyKind(vs, INDEL)
	expect.EQ(t, len(dels), 1)
	expect.EQ(t, dels[0].Start, 4)
	expect.EQ(t, dels[0].End, 7)

	d, err := Decode(dels[0].Name)
	expect.NoError(t, err)
	expect.EQ(t, d.RefAllele, "GGG")
	expect.EQ(t, d.AltAllele, "*")
	expect.EQ(t, d.QueryPos, 5)
}

func TestExtractFindsExactInsertionWithoutWidening(t *testing.T) {
	a := &align.Alignment{
		Query: "q1", Ref: "chr1", Strand: align.Forward,
		RStart: 1, REnd: 8, QStart: 1, QEnd: 10,
		Cigar:      sam.Cigar{cop(sam.CigarMatch, 4), cop(sam.CigarInsertion, 2), cop(sam.CigarMatch, 4)},
		QueryBases: []byte("ACGACCCGCA"),
	}
	refSeq := []byte("ACGTTGCA")
	vs, err := Extract(Input{Align: a, RefSeq: refSeq}, &QualHistograms{})
	expect.NoError(t, err)
	ins := onlyKind(vs, INDEL)
	expect.EQ(t, len(ins), 1)
	expect.EQ(t, ins[0].Start, 4)
	expect.EQ(t, ins[0].End, 4)

	d, err := Decode(ins[0].Name)
	expect.NoError(t, err)
	expect.EQ(t, d.RefAllele, "*")
	expect.EQ(t, d.AltAllele, "CC")
	expect.EQ(t, d.QueryPos, 5)
}

func TestDecodeRoundTripsQueryNameWithUnderscore(t *testing.T) {
	a := &align.Alignment{
		Query: "contig_with_underscores", Ref: "chr1", Strand: align.Reverse,
		RStart: 1, REnd: 10, QStart: 1, QEnd: 10,
		Cigar:      sam.Cigar{cop(sam.CigarMatch, 10)},
		QueryBases: []byte("TTTTTTTTTA"),
	}
	refSeq := []byte("ACGTACGTAC")
	vs, err := Extract(Input{Align: a, RefSeq: refSeq}, &QualHistograms{})
	expect.NoError(t, err)
	snvs := onlyKind(vs, SNV)
	expect.EQ(t, len(snvs) > 0, true)

	d, err := Decode(snvs[0].Name)
	expect.NoError(t, err)
	expect.EQ(t, d.Query, "contig_with_underscores")
	expect.EQ(t, d.Strand, align.Reverse)
}

func TestDecodeRejectsMalformedName(t *testing.T) {
	_, err := Decode("not_enough_fields")
	expect.NotNil(t, err)
}
