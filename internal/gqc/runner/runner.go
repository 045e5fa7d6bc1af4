// Package runner wires the core components (C1-C10) and the ambient
// stack into one comparison pass: load alignments from BAM or PAF, split
// and LIS-filter them per benchmark entry, extract variants and het-site
// genotypes, cluster and rank coverage, and emit the BED/VCF outputs.
// Grounded on bench.py's top-level driver loop and on bio-pileup's
// Opts-struct + traverse.Each sharding idiom for the per-entry fan-out.
package runner

import (
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"

	"github.com/grailbio/gqc/encoding/fasta"
	"github.com/grailbio/gqc/internal/gqc/align"
	"github.com/grailbio/gqc/internal/gqc/alignsource"
	"github.com/grailbio/gqc/internal/gqc/bedio"
	"github.com/grailbio/gqc/internal/gqc/cluster"
	"github.com/grailbio/gqc/internal/gqc/config"
	"github.com/grailbio/gqc/internal/gqc/coordmap"
	"github.com/grailbio/gqc/internal/gqc/excludemask"
	"github.com/grailbio/gqc/internal/gqc/gstats"
	"github.com/grailbio/gqc/internal/gqc/hetproject"
	"github.com/grailbio/gqc/internal/gqc/lis"
	"github.com/grailbio/gqc/internal/gqc/splitalign"
	"github.com/grailbio/gqc/internal/gqc/structreport"
	"github.com/grailbio/gqc/internal/gqc/variant"
	"github.com/grailbio/gqc/internal/gqc/vcfout"
	"github.com/grailbio/gqc/interval"
)

// Opts configures one comparison run.
type Opts struct {
	AlignPath          string // BAM or PAF
	IsPAF              bool
	BenchFasta         string
	BenchFai           string
	TestFasta          string
	TestFai            string
	ConfigPath         string
	ResourceDir        string
	OutPrefix          string
	MinIndelSize       int
	MaxClusterDistance int
	Widen              bool
	WriteVCF           bool
	Parallelism        int
}

// Run executes one comparison pass per Opts, writing all BED/VCF outputs
// under opts.OutPrefix and returning the accumulated run statistics.
func Run(opts Opts) (*gstats.Counters, error) {
	counters := gstats.New()

	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	mask, err := loadExcludeMask(cfg)
	if err != nil {
		return nil, err
	}

	hetSites, err := loadHetSites(cfg)
	if err != nil {
		return nil, err
	}

	benchFasta, err := openFasta(opts.BenchFasta, opts.BenchFai)
	if err != nil {
		return nil, errors.E(err, "runner: opening benchmark fasta")
	}
	var queryFasta fasta.Fasta
	if opts.TestFasta != "" {
		queryFasta, err = openFasta(opts.TestFasta, opts.TestFai)
		if err != nil {
			return nil, errors.E(err, "runner: opening test fasta")
		}
	}

	producer, err := openProducer(opts)
	if err != nil {
		return nil, err
	}
	defer producer.Close()

	aligns, err := readAll(producer, counters)
	if err != nil {
		return nil, err
	}

	byEntry := map[string][]*align.Alignment{}
	for _, a := range aligns {
		byEntry[a.Ref] = append(byEntry[a.Ref], a)
	}
	entries := make([]string, 0, len(byEntry))
	for ref := range byEntry {
		entries = append(entries, ref)
	}
	sort.Strings(entries)

	matFile, err := os.Create(opts.OutPrefix + ".testmat.bed")
	if err != nil {
		return nil, err
	}
	defer matFile.Close()
	truthFile, err := os.Create(opts.OutPrefix + ".truth.bed")
	if err != nil {
		return nil, err
	}
	defer truthFile.Close()
	hetFile, err := os.Create(opts.OutPrefix + ".hetalleles.bed")
	if err != nil {
		return nil, err
	}
	defer hetFile.Close()
	variantFile, err := os.Create(opts.OutPrefix + ".variants.bed")
	if err != nil {
		return nil, err
	}
	defer variantFile.Close()
	structFile, err := os.Create(opts.OutPrefix + ".structvariants.bed")
	if err != nil {
		return nil, err
	}
	defer structFile.Close()

	var vcfFile *os.File
	if opts.WriteVCF {
		vcfFile, err = os.Create(opts.OutPrefix + ".vcf")
		if err != nil {
			return nil, err
		}
		defer vcfFile.Close()
		contigs := map[string]uint64{}
		for _, name := range benchFasta.SeqNames() {
			l, lerr := benchFasta.Len(name)
			if lerr != nil {
				return nil, lerr
			}
			contigs[name] = l
		}
		if _, werr := io.WriteString(vcfFile, vcfout.Header(opts.BenchFasta, time.Now().Format("20060102"), contigs, benchFasta.SeqNames(), sampleName(opts))); werr != nil {
			return nil, werr
		}
	}

	matOut := bedio.NewAlignmentBEDWriter(matFile)
	truthOut := bedio.NewTruthBEDWriter(truthFile)
	hetOut := bedio.NewHetAlleleBEDWriter(hetFile)
	variantOut := bedio.NewVariantBEDWriter(variantFile)
	structOut := bedio.NewStructVariantBEDWriter(structFile)
	defer matOut.Flush()
	defer truthOut.Flush()
	defer hetOut.Flush()
	defer variantOut.Flush()
	defer structOut.Flush()

	parallelism := opts.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}
	if parallelism > len(entries) && len(entries) > 0 {
		parallelism = len(entries)
	}

	env := &entryEnv{
		opts:       opts,
		benchFasta: benchFasta,
		queryFasta: queryFasta,
		mask:       mask,
		hetSites:   hetSites,
		counters:   counters,
		matOut:     matOut,
		truthOut:   truthOut,
		hetOut:     hetOut,
		variantOut: variantOut,
		vcfFile:    vcfFile,
	}

	results := make([][]structreport.Join, len(entries))
	err = traverse.Each(parallelism, func(shardIdx int) error {
		for i := shardIdx; i < len(entries); i += parallelism {
			ref := entries[i]
			joins, procErr := processEntry(ref, byEntry[ref], env)
			if procErr != nil {
				return procErr
			}
			results[i] = joins
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, joins := range results {
		for _, j := range joins {
			if werr := structOut.WriteJoin(j); werr != nil {
				return nil, werr
			}
		}
	}

	return counters, nil
}

// entryEnv bundles the shared, read-only state processEntry needs per
// benchmark entry; the *os.File fields it touches directly (vcfFile) are
// written to under traverse.Each, so callers append whole pre-formatted
// lines rather than sharing a buffered writer across shards.
type entryEnv struct {
	opts       Opts
	benchFasta fasta.Fasta
	queryFasta fasta.Fasta
	mask       excludemask.Mask
	hetSites   []hetproject.Site
	counters   *gstats.Counters
	matOut     *bedio.AlignmentBEDWriter
	truthOut   *bedio.TruthBEDWriter
	hetOut     *bedio.HetAlleleBEDWriter
	variantOut *bedio.VariantBEDWriter
	vcfFile    *os.File
}

func processEntry(ref string, entryAligns []*align.Alignment, env *entryEnv) ([]structreport.Join, error) {
	opts := env.opts
	counters := env.counters
	minIndel := opts.MinIndelSize
	if minIndel <= 0 {
		minIndel = splitalign.DefaultMinIndelSize
	}

	var split []*align.Alignment
	for _, a := range entryAligns {
		for _, r := range splitalign.Split(a, minIndel) {
			split = append(split, r.Align)
		}
	}

	filtered := lis.Filter(split, lis.Target, lis.DefaultMaxOverlap)

	maxClusterDist := opts.MaxClusterDistance
	if maxClusterDist <= 0 {
		maxClusterDist = cluster.DefaultMaxClusterDistance
	}
	clusters := cluster.Build(filtered, maxClusterDist)
	clusters = cluster.SplitDisjoint(clusters, maxClusterDist)
	refLen, err := env.benchFasta.Len(ref)
	if err != nil {
		return nil, errors.E(err, "runner: looking up entry length", "ref", ref)
	}
	ranked, lca95 := cluster.Rank(clusters, ref, env.mask, int(refLen), 0.95)
	log.Debug.Printf("entry %s: %d clusters, LCA95=%d", ref, len(ranked), lca95)

	sitesOnEntry := hetproject.SitesOnEntry(env.hetSites, ref)
	hetNames := make(map[string]bool, len(sitesOnEntry))
	for _, s := range sitesOnEntry {
		hetNames[s.Name] = true
	}

	for _, a := range filtered {
		if werr := env.matOut.WriteAlignment(ref, a.RStart-1, a.REnd, a); werr != nil {
			return nil, werr
		}
		qLeft, qRight := a.QStart, a.QEnd
		if werr := env.truthOut.WriteTruth(ref, a.RStart-1, a.REnd, a.Query, qLeft, qRight); werr != nil {
			return nil, werr
		}

		if len(sitesOnEntry) > 0 {
			m, merr := coordmap.Build(a)
			if merr != nil {
				counters.AddMalformedAlignment()
			} else {
				for _, allele := range hetproject.Project(a, m, sitesOnEntry) {
					if werr := env.hetOut.WriteAllele(allele); werr != nil {
						return nil, werr
					}
				}
			}
		}

		refSeq, ferr := env.benchFasta.Get(ref, uint64(a.RStart-1), uint64(a.REnd))
		if ferr != nil {
			counters.AddMalformedAlignment()
			continue
		}

		hist := &variant.QualHistograms{}
		variants, verr := variant.Extract(variant.Input{Align: a, RefSeq: []byte(refSeq), HasQual: len(a.Qual) > 0, NoWiden: !opts.Widen}, hist)
		if verr != nil {
			counters.AddMalformedAlignment()
			log.Error.Printf("runner: skipping malformed alignment %s: %v", a.Query, verr)
			continue
		}
		vcfout.Exclude(variants, env.mask)
		for _, v := range variants {
			d, derr := variant.Decode(v.Name)
			if derr != nil {
				continue
			}
			isPhasing := hetNames[phasingName(v, d)]
			if werr := env.variantOut.WriteVariant(v, strandLabel(a.Strand), "1000", isPhasing); werr != nil {
				return nil, werr
			}
			if env.vcfFile != nil && env.queryFasta != nil {
				rec, rerr := vcfout.Record(v, d, env.benchFasta, env.queryFasta)
				if rerr != nil {
					counters.AddMalformedAlignment()
				} else if _, werr := io.WriteString(env.vcfFile, rec); werr != nil {
					return nil, werr
				}
			}
			if v.Excluded || isPhasing {
				continue
			}
			if v.Kind == variant.SNV {
				counters.AddSNV(d.RefAllele, d.AltAllele)
			} else {
				counters.AddIndel(len(d.AltAllele) - len(d.RefAllele))
			}
		}
	}

	return structreport.Report(filtered), nil
}

// phasingName reconstructs classify_errors's varname
// (chrom_(start+1)_ref_alt) so it can be looked up in the known het-site
// name set.
func phasingName(v variant.Variant, d variant.Decoded) string {
	return v.Chrom + "_" + strconv.Itoa(v.Start+1) + "_" + d.RefAllele + "_" + d.AltAllele
}

func sampleName(opts Opts) string {
	if opts.OutPrefix != "" {
		return opts.OutPrefix
	}
	return "SAMPLE"
}

func strandLabel(s align.Strand) string {
	if s == align.Reverse {
		return "-"
	}
	return "+"
}

func loadConfig(opts Opts) (*config.Config, error) {
	if opts.ConfigPath == "" {
		return &config.Config{Values: map[string]string{}}, nil
	}
	f, err := os.Open(opts.ConfigPath)
	if err != nil {
		return nil, errors.E(err, "runner: opening config", "path", opts.ConfigPath)
	}
	defer f.Close()
	return config.Load(f, opts.ResourceDir)
}

// loadExcludeMask loads the benchmark's exclude-region BED named by
// config.KeyExcludeMask, if configured; otherwise it returns a Mask that
// excludes nothing.
func loadExcludeMask(cfg *config.Config) (excludemask.Mask, error) {
	path, ok := cfg.Get(config.KeyExcludeMask)
	if !ok {
		return excludemask.New(nil), nil
	}
	union, err := interval.NewBEDUnionFromPath(path, interval.NewBEDOpts{})
	if err != nil {
		return excludemask.Mask{}, errors.E(err, "runner: loading exclude mask", "path", path)
	}
	return excludemask.New(&union), nil
}

// loadHetSites loads the benchmark's known heterozygous sites named by
// config.KeyHetSiteVariants, if configured.
func loadHetSites(cfg *config.Config) ([]hetproject.Site, error) {
	path, ok := cfg.Get(config.KeyHetSiteVariants)
	if !ok {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err, "runner: opening hetsitevariants", "path", path)
	}
	defer f.Close()
	return hetproject.LoadSites(f)
}

func openFasta(path, faiPath string) (fasta.Fasta, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if faiPath == "" {
		return fasta.New(f)
	}
	idx, err := os.Open(faiPath)
	if err != nil {
		return nil, err
	}
	return fasta.NewIndexed(f, idx)
}

func openProducer(opts Opts) (alignsource.Producer, error) {
	f, err := os.Open(opts.AlignPath)
	if err != nil {
		return nil, errors.E(err, "runner: opening alignment source", "path", opts.AlignPath)
	}
	if opts.IsPAF {
		return alignsource.NewPAFProducer(f, f), nil
	}
	return alignsource.NewBAMProducer(f, f, 1)
}

func readAll(p alignsource.Producer, counters *gstats.Counters) ([]*align.Alignment, error) {
	var out []*align.Alignment
	for {
		a, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if a.QueryLen == 0 {
			counters.AddMalformedAlignment()
			continue
		}
		out = append(out, a)
	}
	return out, nil
}
