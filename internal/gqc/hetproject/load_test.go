package hetproject

import (
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestLoadSitesParsesVCFLikeColumns(t *testing.T) {
	in := "##header line\nchr1\t105\trs1\tA\tG\nchr1\t200\t.\tAC\tA\n"
	sites, err := LoadSites(strings.NewReader(in))
	expect.NoError(t, err)
	expect.EQ(t, len(sites), 2)

	expect.EQ(t, sites[0].Chrom, "chr1")
	expect.EQ(t, sites[0].Start, 104)
	expect.EQ(t, sites[0].End, 105)
	expect.EQ(t, sites[0].RefAllele, "A")
	expect.EQ(t, sites[0].AltAllele, "G")
	expect.EQ(t, sites[0].Name, "chr1_105_A_G")

	expect.EQ(t, sites[1].Start, 199)
	expect.EQ(t, sites[1].End, 201)
}

func TestLoadSitesRejectsShortLine(t *testing.T) {
	_, err := LoadSites(strings.NewReader("chr1\t105\trs1\n"))
	expect.NotNil(t, err)
}
