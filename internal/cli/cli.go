// Package cli implements the primgen command-line interface.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/primgen/pkg/buildinfo"
	"github.com/matzehuels/primgen/pkg/cache"
	perrors "github.com/matzehuels/primgen/pkg/errors"
	"github.com/matzehuels/primgen/pkg/observability"
	"github.com/matzehuels/primgen/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "primgen"

	// envCache names the environment variable consulted when --cache is unset.
	envCache = "PRIMGEN_CACHE"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	verbose bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "primgen generates type-specialized sources from templates",
		Long: `primgen expands generic source templates into one specialized file per
type combination. Templates are rewritten by an ordered chain of structural
rules (argument calls, capture injection, line relocation, global replace)
followed by token substitution.`,
		Version:       buildinfo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.SetLogLevel(LogDebug)
				observability.NewLogHooks(c.Logger).Install()
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.genCommand())
	root.AddCommand(c.expandCommand())
	root.AddCommand(c.rulesCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags are shared by every command that expands text.
type cacheFlags struct {
	noCache bool
	url     string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable the expansion cache")
	cmd.Flags().StringVar(&f.url, "cache", "", "cache backend: file (default), none, file://DIR, redis://..., mongodb://... (env "+envCache+")")
}

// spec resolves the backend from the flags and the environment.
func (f *cacheFlags) spec() string {
	switch {
	case f.noCache:
		return cache.SpecNone
	case f.url != "":
		return f.url
	default:
		return os.Getenv(envCache)
	}
}

// newRunner creates a pipeline runner for CLI use. A nil keyer selects the
// default key scheme.
func (c *CLI) newRunner(ctx context.Context, flags cacheFlags, keyer cache.Keyer) (*pipeline.Runner, error) {
	ch, err := cache.Open(ctx, flags.spec(), "")
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("cache", "backend", cache.Describe(ch))
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

// =============================================================================
// Error Reporting
// =============================================================================

// ReportError prints err for a user: the message of the coded error first,
// then the full chain with its context. Configuration errors add a hint.
func (c *CLI) ReportError(w io.Writer, err error) {
	if perrors.GetCode(err) == "" {
		printError(w, "%v", err)
		return
	}
	printError(w, "%s", perrors.UserMessage(err))
	printDetail(w, "%v", err)
	if perrors.IsConfiguration(err) {
		printDetail(w, "check the manifest, rule definitions or flags")
	}
}
