package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/shader-variants/backend/nagabackend"
	"github.com/wippyai/shader-variants/build"
	"github.com/wippyai/shader-variants/engine"
	"github.com/wippyai/shader-variants/spirv"
)

var buildFlags struct {
	out          string
	axes         []string
	targets      []string
	passes       []string
	preambleFile string
	spirvVersion string
	writeSpirv   bool
	keep         bool
	compare      bool
	interactive  bool
}

var buildCmd = &cobra.Command{
	Use:   "build FILE",
	Short: "Compile and link every variant of every pass",
	Long: `Compile and link every variant of every pass.

Each pass is compiled once without keywords, then recompiled for every
keyword combination of its axes. Variants that fail to compile or link are
reported and the build continues. The command exits with status 2 when any
variant failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runBuild,
}

func init() {
	f := buildCmd.Flags()
	f.StringVarP(&buildFlags.out, "out", "o", "", "artifact directory")
	f.StringArrayVar(&buildFlags.axes, "axis", nil, "extra axis, comma-separated keywords (repeatable)")
	f.StringSliceVarP(&buildFlags.targets, "target", "t", nil, "cross-compile targets: glsl, hlsl, metal")
	f.StringSliceVarP(&buildFlags.passes, "pass", "p", nil, "build only these passes")
	f.StringVar(&buildFlags.preambleFile, "preamble-file", "", "file prepended to every stage")
	f.StringVar(&buildFlags.spirvVersion, "spirv", "", "SPIR-V version (1.0, 1.3, 1.4, 1.5, 1.6)")
	f.BoolVar(&buildFlags.writeSpirv, "write-spirv", false, "write .spv files for linked variants")
	f.BoolVar(&buildFlags.keep, "keep", false, "keep variant programs until exit")
	f.BoolVar(&buildFlags.compare, "compare", false, "compare each variant against the base program")
	f.BoolVarP(&buildFlags.interactive, "interactive", "i", false, "show a live progress view")
}

// applyBuildFlags copies changed flags over the configuration.
func applyBuildFlags(cmd *cobra.Command) error {
	f := cmd.Flags()
	if f.Changed("out") {
		cfg.Output = buildFlags.out
	}
	if f.Changed("target") {
		cfg.Targets = buildFlags.targets
	}
	if f.Changed("pass") {
		cfg.Passes = buildFlags.passes
	}
	if f.Changed("preamble-file") {
		cfg.Preamble = ""
		cfg.PreambleFile = buildFlags.preambleFile
	}
	if f.Changed("spirv") {
		cfg.SPIRV.Version = buildFlags.spirvVersion
	}
	if f.Changed("write-spirv") {
		cfg.WriteSpirv = buildFlags.writeSpirv
	}
	if f.Changed("keep") {
		cfg.KeepPrograms = buildFlags.keep
	}
	if f.Changed("compare") {
		cfg.Compare = buildFlags.compare
	}
	return cfg.Validate()
}

func runBuild(cmd *cobra.Command, args []string) error {
	if err := applyBuildFlags(cmd); err != nil {
		return err
	}
	a, size, err := loadAsset(args[0])
	if err != nil {
		return err
	}
	for _, d := range a.Diagnostics {
		log.Warn("description", zap.String("file", args[0]), zap.Stringer("diagnostic", d))
	}

	interactive := buildFlags.interactive && term.IsTerminal(int(os.Stdout.Fd()))
	if interactive {
		// log lines would tear the progress view
		if err := setupLogging(cfg.Log, true); err != nil {
			return err
		}
	}

	e, err := newEngine()
	if err != nil {
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			log.Warn("close engine", zap.Error(err))
		}
	}()

	targets, _ := cfg.Languages()
	opts := build.Options{
		OutDir:       cfg.Output,
		Passes:       cfg.Passes,
		Axes:         append(cfg.VariantAxes(), flagAxes(buildFlags.axes)...),
		Targets:      targets,
		WriteSpirv:   cfg.WriteSpirv,
		KeepPrograms: cfg.KeepPrograms,
		Compare:      cfg.Compare,
	}
	if opts.OutDir == "" && (opts.WriteSpirv || len(opts.Targets) > 0) {
		opts.OutDir = "."
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	log.Info("building",
		zap.String("file", args[0]),
		zap.String("size", humanize.Bytes(uint64(size))),
		zap.String("asset", a.Name),
		zap.Int("passes", len(a.Passes)))

	var res *build.Result
	if interactive {
		res, err = runInteractive(ctx, e, opts, a)
	} else {
		res, err = build.New(e, opts).Run(ctx, a)
	}
	if res != nil {
		printSummary(cmd.OutOrStdout(), e, res)
	}
	if err != nil {
		return err
	}
	if res.Failed() {
		return fmt.Errorf("%w: %v", errVariantsFailed, res.Err())
	}
	return nil
}

// newEngine creates the naga-backed engine with the configured preamble and
// keywords.
func newEngine() (*engine.Engine, error) {
	opts, err := cfg.CompileOptions()
	if err != nil {
		return nil, err
	}
	pre, err := cfg.LoadPreamble()
	if err != nil {
		return nil, err
	}
	e, err := engine.New(nagabackend.New(opts), engine.WithPreamble(pre))
	if err != nil {
		return nil, err
	}
	for _, kw := range append(cfg.Reserve, cfg.GlobalKeywords...) {
		if err := e.ReserveKeyword(kw); err != nil {
			e.Close()
			return nil, err
		}
	}
	for _, kw := range cfg.GlobalKeywords {
		if err := e.EnableGlobalKeyword(kw); err != nil {
			e.Close()
			return nil, err
		}
	}
	return e, nil
}

func printSummary(w io.Writer, e *engine.Engine, res *build.Result) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PASS\t#\tKEYWORDS\tSTATUS\tSPIR-V\tMATCHED")
	for _, p := range res.Passes {
		if p.Skipped {
			fmt.Fprintf(tw, "%s\t-\t-\tskipped\t-\t-\n", p.Name)
			continue
		}
		for _, v := range p.Variants {
			kws := strings.ReplaceAll(e.KeywordsFromID(v.KeywordsID), "\n", " ")
			if kws == "" {
				kws = "(base)"
			}
			words := 0
			for _, n := range v.Spirv {
				words += n
			}
			matched := "-"
			if p.Report != "" {
				matched = humanize.Comma(int64(v.Matched))
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\n", p.Name, v.Index, kws, v.Status,
				humanize.Bytes(uint64(words*spirv.WordSize)), matched)
		}
	}
	tw.Flush()

	ok, failed, skipped := res.Counts()
	fmt.Fprintf(w, "\n%s: %d ok, %d failed, %d passes skipped\n", res.Asset, ok, failed, skipped)
	for _, p := range res.Passes {
		if p.Report != "" {
			fmt.Fprintf(w, "\n%s\n%s", p.Name, p.Report)
		}
	}
}
