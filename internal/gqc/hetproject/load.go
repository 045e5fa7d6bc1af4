package hetproject

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// LoadSites reads a hetsitevariants file: the first five tab-separated
// columns of a VCF (CHROM, POS, ID, REF, ALT), one het site per line.
// Lines starting with "#" are skipped. Name is reconstructed as
// chrom_(start+1)_ref_alt regardless of any ID column present.
func LoadSites(r io.Reader) ([]Site, error) {
	var sites []Site
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 5 {
			return nil, errors.E("hetproject: malformed hetsitevariants line", "line", lineNo)
		}
		chrom, posStr, _, ref, alt := fields[0], fields[1], fields[2], fields[3], fields[4]
		pos1, err := strconv.Atoi(posStr)
		if err != nil {
			return nil, errors.E(err, "hetproject: parsing POS", "line", lineNo)
		}
		start := pos1 - 1
		end := start + len(ref)
		sites = append(sites, Site{
			Name:      chrom + "_" + strconv.Itoa(pos1) + "_" + ref + "_" + alt,
			Chrom:     chrom,
			Start:     start,
			End:       end,
			RefAllele: ref,
			AltAllele: alt,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "hetproject: reading hetsitevariants")
	}
	return sites, nil
}
