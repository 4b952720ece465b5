package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	primio "github.com/matzehuels/primgen/pkg/io"
	"github.com/matzehuels/primgen/pkg/manifest"
	"github.com/matzehuels/primgen/pkg/pipeline"
	"github.com/matzehuels/primgen/pkg/watch"
)

// genOpts holds the command-line flags for the gen command.
type genOpts struct {
	out     string   // output directory, overrides the manifest
	jobs    int      // parallel expansions, 0 means one per CPU
	dryRun  bool     // report what would change without writing
	refresh bool     // bypass cache reads
	only    []string // template names to generate
	report  string   // JSON result file, "-" for stdout
	watch   bool     // regenerate when inputs change
	cache   cacheFlags
}

// genCommand creates the gen command.
func (c *CLI) genCommand() *cobra.Command {
	var opts genOpts

	cmd := &cobra.Command{
		Use:   "gen [manifest]",
		Short: "Generate every variant described by a manifest",
		Long: `Generate expands each template of the manifest once per type combination
of its axes and writes the results below the output directory.

The manifest defaults to ` + manifest.DefaultFile + ` in the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := manifest.DefaultFile
			if len(args) == 1 {
				path = args[0]
			}
			return c.runGen(cmd.Context(), cmd.OutOrStdout(), path, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "output directory (default from manifest)")
	cmd.Flags().IntVarP(&opts.jobs, "jobs", "j", 0, "parallel expansions (default: number of CPUs)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "show what would be written without writing")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached expansions")
	cmd.Flags().StringSliceVar(&opts.only, "only", nil, "generate only these templates (comma-separated)")
	cmd.Flags().StringVar(&opts.report, "report", "", "write a JSON report of the run to this file (- for stdout)")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "regenerate when the manifest or templates change")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runGen(ctx context.Context, w io.Writer, path string, opts genOpts) error {
	runner, err := c.newRunner(ctx, opts.cache, nil)
	if err != nil {
		return err
	}
	defer runner.Close()

	if !opts.watch {
		return c.generate(ctx, w, runner, path, opts)
	}
	return c.watchGen(ctx, w, runner, path, opts)
}

// generate loads the manifest and runs one generation.
func (c *CLI) generate(ctx context.Context, w io.Writer, runner *pipeline.Runner, path string, opts genOpts) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	var spin *Spinner
	if !c.verbose && !opts.watch && isTerminal(os.Stderr) {
		spin = newSpinner(ctx, os.Stderr, fmt.Sprintf("Expanding %d templates", len(m.Templates)))
		spin.Start()
	}
	res, err := runner.Generate(ctx, m, pipeline.Options{
		OutputDir: opts.out,
		Jobs:      opts.jobs,
		DryRun:    opts.dryRun,
		Refresh:   opts.refresh,
		Only:      opts.only,
	})
	if spin != nil {
		spin.Stop()
	}
	if err != nil {
		return err
	}

	printResult(w, res)
	return writeReport(w, res, opts.report)
}

func printResult(w io.Writer, res *pipeline.Result) {
	if len(res.Files) == 0 {
		printWarning(w, "No files generated")
		return
	}
	for _, f := range res.Files {
		printFile(w, f.Path, f.Cached, f.Changed, res.DryRun)
	}

	s := res.Stats
	if res.DryRun {
		printInfo(w, "Dry run: %d files from %d templates", len(res.Files), s.Templates)
	} else {
		printSuccess(w, "Generated %d files from %d templates (%d written, %d unchanged, %d cached)",
			len(res.Files), s.Templates, s.Written, s.Unchanged, s.CacheHits)
	}
	printDetail(w, "Output: %s", res.OutputDir)
}

func writeReport(w io.Writer, res *pipeline.Result, dest string) error {
	switch dest {
	case "":
		return nil
	case "-":
		return primio.WriteJSON(res, w)
	default:
		if err := primio.ExportJSON(res, dest); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		return nil
	}
}

// watchGen generates once, then again after every burst of changes below
// the manifest directory. Generation errors are reported and watching
// continues.
func (c *CLI) watchGen(ctx context.Context, w io.Writer, runner *pipeline.Runner, path string, opts genOpts) error {
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}
	outDir := opts.out
	if outDir == "" {
		outDir = m.OutputPath()
	}
	outDir, err = filepath.Abs(outDir)
	if err != nil {
		return err
	}

	run := func() {
		prog := newProgress(c.Logger)
		if err := c.generate(ctx, w, runner, path, opts); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			printError(w, "%v", err)
			return
		}
		prog.done("Regenerated")
	}

	// Writing into the watched tree itself settles after one extra run,
	// since unchanged files are not rewritten.
	var ignore []string
	if outDir != m.Dir {
		ignore = []string{outDir}
	}

	run()
	printInfo(w, "Watching %s for changes (ctrl+c to stop)", m.Dir)

	err = watch.Watch(ctx, []string{m.Dir}, watch.Options{
		Logger: c.Logger,
		Ignore: ignore,
	}, func(changed []string) {
		c.Logger.Debug("change detected", "files", changed)
		run()
	})
	if err != nil {
		return fmt.Errorf("watch %s: %w", m.Dir, err)
	}
	return nil
}
