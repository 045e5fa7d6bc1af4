package config

import (
	"strings"
	"testing"

	"github.com/grailbio/testutil/expect"
)

func TestLoadRebasesRelativePaths(t *testing.T) {
	in := "hetsitevariants: het.vcf\nmononucruns:: runs.bed\n"
	cfg, err := Load(strings.NewReader(in), "/data/resources")
	expect.NoError(t, err)
	v, ok := cfg.Get(KeyHetSiteVariants)
	expect.True(t, ok)
	expect.EQ(t, v, "/data/resources/het.vcf")
	v, ok = cfg.Get(KeyMononucRuns)
	expect.True(t, ok)
	expect.EQ(t, v, "/data/resources/runs.bed")
}

func TestLoadLeavesAbsolutePathsAlone(t *testing.T) {
	in := "excludedregions: /abs/exclude.bed\n"
	cfg, err := Load(strings.NewReader(in), "/data/resources")
	expect.NoError(t, err)
	v, _ := cfg.Get(KeyExcludeMask)
	expect.EQ(t, v, "/abs/exclude.bed")
}

func TestLoadSkipsBlankAndCommentLines(t *testing.T) {
	in := "# a comment\n\ncovered: covered.bed\n"
	cfg, err := Load(strings.NewReader(in), "/res")
	expect.NoError(t, err)
	expect.EQ(t, len(cfg.Values), 1)
	v, _ := cfg.Get(KeyCovered)
	expect.EQ(t, v, "/res/covered.bed")
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	in := "not a valid line\nhetsitevariants: het.vcf\n"
	cfg, err := Load(strings.NewReader(in), "/res")
	expect.NoError(t, err)
	expect.EQ(t, len(cfg.Values), 1)
}

func TestMustGetReturnsErrorForMissingKey(t *testing.T) {
	cfg := &Config{Values: map[string]string{}}
	_, err := cfg.MustGet(KeyHetSiteVariants)
	expect.NotNil(t, err)
}

func TestMustGetReturnsValueForPresentKey(t *testing.T) {
	cfg := &Config{Values: map[string]string{KeyCovered: "/res/covered.bed"}}
	v, err := cfg.MustGet(KeyCovered)
	expect.NoError(t, err)
	expect.EQ(t, v, "/res/covered.bed")
}
