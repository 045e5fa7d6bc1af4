package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil/expect"

	"github.com/grailbio/gqc/internal/gqc/align"
)

func TestStrandLabel(t *testing.T) {
	expect.EQ(t, strandLabel(align.Forward), "+")
	expect.EQ(t, strandLabel(align.Reverse), "-")
}

func TestLoadConfigWithNoPathReturnsEmptyConfig(t *testing.T) {
	cfg, err := loadConfig(Opts{})
	expect.NoError(t, err)
	expect.EQ(t, len(cfg.Values), 0)
}

func TestLoadConfigRebasesOntoResourceDir(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "resources.cfg")
	expect.NoError(t, os.WriteFile(cfgPath, []byte("hetsitevariants: het.vcf\n"), 0644))

	cfg, err := loadConfig(Opts{ConfigPath: cfgPath, ResourceDir: dir})
	expect.NoError(t, err)
	v, ok := cfg.Get("hetsitevariants")
	expect.True(t, ok)
	expect.EQ(t, v, filepath.Join(dir, "het.vcf"))
}

func TestOpenFastaWithoutIndexReadsWholeFile(t *testing.T) {
	dir := t.TempDir()
	fastaPath := filepath.Join(dir, "ref.fasta")
	expect.NoError(t, os.WriteFile(fastaPath, []byte(">chr1\nACGTACGTAC\n"), 0644))

	f, err := openFasta(fastaPath, "")
	expect.NoError(t, err)
	seq, err := f.Get("chr1", 0, 10)
	expect.NoError(t, err)
	expect.EQ(t, seq, "ACGTACGTAC")
}

func TestOpenProducerSelectsPAFFromOpts(t *testing.T) {
	dir := t.TempDir()
	pafPath := filepath.Join(dir, "aligns.paf")
	line := "q1\t100\t0\t100\t+\tchr1\t1000\t0\t100\t100\t100\t60\n"
	expect.NoError(t, os.WriteFile(pafPath, []byte(line), 0644))

	p, err := openProducer(Opts{AlignPath: pafPath, IsPAF: true})
	expect.NoError(t, err)
	defer p.Close()

	a, err := p.Next()
	expect.NoError(t, err)
	expect.EQ(t, a.Query, "q1")
	expect.EQ(t, a.Ref, "chr1")
}

func TestOpenProducerMissingFileReturnsError(t *testing.T) {
	_, err := openProducer(Opts{AlignPath: "/nonexistent/path.paf", IsPAF: true})
	expect.NotNil(t, err)
}
