// Package vcfout implements VariantExcluder and the VCF emitter (spec
// component C10): tagging variants that fall in excluded regions, then
// left-normalizing each variant's ref/alt pair into a VCF record.
// Grounded on errors.py's classify_errors/vcf_format/vcf_header and
// exclude_variants in alignparse.py.
package vcfout

import (
	"fmt"
	"strings"

	"github.com/grailbio/gqc/internal/gqc/align"
	"github.com/grailbio/gqc/internal/gqc/variant"
)

// RefFetcher fetches the bases in the 0-based half-open range [start,end)
// of a benchmark or test sequence, the seam encoding/fasta.Fasta satisfies.
type RefFetcher interface {
	Get(seqName string, start, end uint64) (string, error)
}

// ExcludeSet reports whether [start,end) on chrom intersects an excluded
// region, the seam excludemask.Mask satisfies (the runner passes its
// exclude mask here).
type ExcludeSet interface {
	Intersects(chrom string, start, end int) bool
}

// Exclude marks each variant whose [Start,End) half-open interval
// intersects excludeSet, mirroring exclude_variants's BedTool intersect.
// It mutates and returns the same slice.
func Exclude(variants []variant.Variant, excludeSet ExcludeSet) []variant.Variant {
	for i := range variants {
		v := &variants[i]
		if excludeSet != nil && excludeSet.Intersects(v.Chrom, v.Start, v.End) {
			v.Excluded = true
		}
	}
	return variants
}

// Header returns the VCF header lines preceding the #CHROM line, per
// vcf_header, extended with a ##contig line per reference entry (a
// feature vcf_header's original did not emit; added here since the
// reference fasta index already carries per-contig lengths).
func Header(benchmarkName string, fileDate string, contigs map[string]uint64, contigOrder []string, sampleName string) string {
	var b strings.Builder
	b.WriteString("##fileformat=VCFv4.5\n")
	b.WriteString("##fileDate=" + fileDate + "\n")
	b.WriteString("##source=gqc-compare\n")
	b.WriteString("##reference=" + benchmarkName + "\n")
	for _, name := range contigOrder {
		fmt.Fprintf(&b, "##contig=<ID=%s,length=%d>\n", name, contigs[name])
	}
	b.WriteString("##FILTER=<ID=EXCLUDED,Description=\"In excluded region of the benchmark reference\">\n")
	b.WriteString("##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Genotype\">\n")
	b.WriteString("#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\t" + sampleName + "\n")
	return b.String()
}

// Record formats one VCF data line for v, per vcf_format: the widened
// name-encoded ref/alt alleles have their shared trailing bases stripped,
// and if either allele becomes empty, one anchor base is prepended to both:
// the preceding base from the ref fasta onto REF, and the matching base
// from the query fasta (reverse-complemented for the R strand) onto ALT,
// to keep VCF's "REF/ALT share the anchor base" convention.
func Record(v variant.Variant, d variant.Decoded, refFasta, queryFasta RefFetcher) (string, error) {
	filter := "PASS"
	if v.Excluded {
		filter = "EXCLUDED"
	}

	refAllele := strings.ReplaceAll(d.RefAllele, "*", "")
	altAllele := strings.ReplaceAll(d.AltAllele, "*", "")
	for len(refAllele) > 0 && len(altAllele) > 0 && refAllele[len(refAllele)-1] == altAllele[len(altAllele)-1] {
		refAllele = refAllele[:len(refAllele)-1]
		altAllele = altAllele[:len(altAllele)-1]
	}

	refPos := v.Start + 1
	contigPos := d.QueryPos

	if refAllele == "" || altAllele == "" {
		refPos--
		base, err := refFasta.Get(v.Chrom, uint64(refPos-1), uint64(refPos))
		if err != nil {
			return "", err
		}
		refAllele = strings.ToUpper(base) + refAllele

		if d.Strand == align.Forward {
			contigPos--
			base, err := queryFasta.Get(d.Query, uint64(contigPos-1), uint64(contigPos))
			if err != nil {
				return "", err
			}
			altAllele = strings.ToUpper(base) + altAllele
		} else {
			contigEnd := contigPos + len(altAllele)
			if len(refAllele) != 1 {
				contigEnd++
			}
			base, err := queryFasta.Get(d.Query, uint64(contigEnd-1), uint64(contigEnd))
			if err != nil {
				return "", err
			}
			altAllele = strings.ToUpper(revcomp(base)) + altAllele
		}
	}

	return fmt.Sprintf("%s\t%d\t%s\t%s\t%s\t.\t%s\t.\tGT\t1\n", v.Chrom, refPos, v.Name, refAllele, altAllele, filter), nil
}

// revcomp complements and reverses a single anchor base borrowed from the
// query fasta for an R-strand record. The borrowed anchor is always exactly
// one base, so in practice this is a one-base complement.
func revcomp(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		out[len(s)-1-i] = complement(s[i])
	}
	return string(out)
}

func complement(b byte) byte {
	switch b {
	case 'A', 'a':
		return 'T'
	case 'T', 't':
		return 'A'
	case 'C', 'c':
		return 'G'
	case 'G', 'g':
		return 'C'
	default:
		return 'N'
	}
}
