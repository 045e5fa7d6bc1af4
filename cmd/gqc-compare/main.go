// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

/*
gqc-compare walks a test assembly's alignment to a diploid benchmark
reference and reports per-base discrepancies, het-site genotypes, and
structural coverage, the way bio-pileup reports per-base pileups.
*/

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/gqc/internal/gqc/runner"
)

var (
	pafInput           = flag.Bool("paf", false, "Treat the alignment input as PAF rather than BAM")
	benchFai           = flag.String("bench-fai", "", "Benchmark FASTA index path; defaults to <bench fasta>.fai")
	testFai            = flag.String("test-fai", "", "Test assembly FASTA index path; defaults to <test fasta>.fai")
	configPath         = flag.String("config", "", "Resource config file (hetsitevariants, mononucruns, exclude-mask paths)")
	resourceDir        = flag.String("resource-dir", "", "Base directory relative config paths are rebased onto; defaults to the config file's directory")
	outPrefix          = flag.String("out", "gqc-compare", "Output path prefix")
	minIndelSize       = flag.Int("min-indel-size", 10000, "Indel length at or above which an alignment is split into sub-alignments")
	maxClusterDistance = flag.Int("max-cluster-distance", 10000, "Target-axis band width for collinear clustering and disjoint-cluster splitting")
	widen              = flag.Bool("widen", true, "Widen indel names across adjacent repeat runs")
	writeVCF           = flag.Bool("vcf", false, "Also emit a VCF of benchmark-coordinate differences")
	parallelism        = flag.Int("parallelism", 0, "Maximum number of benchmark entries processed concurrently; 0 = runtime.NumCPU()")
)

func usage() {
	fmt.Printf("Usage: %s [OPTIONS] {bam,paf}-path bench.fasta test.fasta\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	allArgs := flag.Args()
	n := flag.NArg()
	if n != 3 {
		log.Fatalf("expected 3 positional arguments ({bam,paf}-path, bench.fasta, test.fasta); got '%s'", strings.Join(allArgs, " "))
	}

	resDir := *resourceDir
	if resDir == "" && *configPath != "" {
		resDir = filepath.Dir(*configPath)
	}

	opts := runner.Opts{
		AlignPath:          allArgs[0],
		IsPAF:              *pafInput,
		BenchFasta:         allArgs[1],
		BenchFai:           resolveFai(*benchFai, allArgs[1]),
		TestFasta:          allArgs[2],
		TestFai:            resolveFai(*testFai, allArgs[2]),
		ConfigPath:         *configPath,
		ResourceDir:        resDir,
		OutPrefix:          *outPrefix,
		MinIndelSize:       *minIndelSize,
		MaxClusterDistance: *maxClusterDistance,
		Widen:              *widen,
		WriteVCF:           *writeVCF,
		Parallelism:        *parallelism,
	}

	counters, err := runner.Run(opts)
	if err != nil {
		log.Panicf("%v", err)
	}

	snap := counters.Snapshot()
	log.Printf("malformed alignments skipped: %d", snap.MalformedAlignments)
	log.Printf("coordinate windows out of range: %d", snap.CoordWindowOutOfRange)
	log.Printf("query-consumption mismatches: %d", snap.QueryConsumptionMismatch)
	log.Printf("empty quality windows: %d", snap.EmptyQualityWindows)
	log.Printf("total errors tallied: %d", snap.TotalErrorsInAligns)
	log.Debug.Printf("exiting")
}

func resolveFai(explicit, fastaPath string) string {
	if explicit != "" {
		return explicit
	}
	return fastaPath + ".fai"
}
