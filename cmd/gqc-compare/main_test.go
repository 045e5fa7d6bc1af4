package main_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil/expect"
	"v.io/x/lib/gosh"
)

// TestGQCCompareEndToEnd builds the gqc-compare binary and runs it against a
// tiny fixture PAF/fasta pair, the way bio-pamtool's command tests drive the
// built tool through gosh rather than calling package internals directly.
func TestGQCCompareEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("builds a binary; skipped under -short")
	}
	sh := gosh.NewShell(nil)
	defer sh.Cleanup()
	sh.ContinueOnError = true

	dir := sh.MakeTempDir()
	binPath := filepath.Join(dir, "gqc-compare")
	sh.Cmd("go", "build", "-o", binPath, ".").Run()
	if sh.Err != nil {
		t.Skipf("go toolchain unavailable in this environment: %v", sh.Err)
	}

	benchFasta := filepath.Join(dir, "bench.fasta")
	expect.NoError(t, os.WriteFile(benchFasta, []byte(">chr1\n"+strRepeat("ACGT", 10)+"\n"), 0644))
	testFasta := filepath.Join(dir, "test.fasta")
	expect.NoError(t, os.WriteFile(testFasta, []byte(">q1\n"+strRepeat("ACGT", 10)+"\n"), 0644))
	pafPath := filepath.Join(dir, "aligns.paf")
	pafLine := "q1\t40\t0\t40\t+\tchr1\t40\t0\t40\t40\t40\t60\tcg:Z:40M\n"
	expect.NoError(t, os.WriteFile(pafPath, []byte(pafLine), 0644))

	outPrefix := filepath.Join(dir, "out")
	sh.Cmd(binPath, "-paf", "-out", outPrefix, pafPath, benchFasta, testFasta).Run()
	expect.NoError(t, sh.Err)

	_, err := os.Stat(outPrefix + ".testmat.bed")
	expect.NoError(t, err)
}

func strRepeat(s string, n int) string {
	out := make([]byte, 0, len(s)*n)
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
