package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	perrors "github.com/matzehuels/primgen/pkg/errors"
	primio "github.com/matzehuels/primgen/pkg/io"
	"github.com/matzehuels/primgen/pkg/manifest"
	"github.com/matzehuels/primgen/pkg/pipeline"
	"github.com/matzehuels/primgen/pkg/transform"
)

// expandOpts holds the command-line flags for the expand command.
type expandOpts struct {
	manifest string   // manifest supplying named rules
	rules    []string // rule names, applied in order
	sets     []string // TOKEN=VALUE substitutions
	output   string   // output file, stdout when empty or "-"
	refresh  bool
	cache    cacheFlags
}

// expandCommand creates the expand command for one-off expansions.
func (c *CLI) expandCommand() *cobra.Command {
	var opts expandOpts

	cmd := &cobra.Command{
		Use:   "expand <file|->",
		Short: "Expand a single template with named rules and substitutions",
		Example: `  primgen expand TSet.template --rule hash --set '#k#=long' --set '#K#=Long'
  cat T.template | primgen expand - --manifest rules.yaml --rule relocate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExpand(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.manifest, "manifest", "m", "", "manifest with rule definitions (default "+manifest.DefaultFile+" when --rule is used)")
	cmd.Flags().StringArrayVarP(&opts.rules, "rule", "r", nil, "apply the named rule (repeatable, in order)")
	cmd.Flags().StringArrayVarP(&opts.sets, "set", "s", nil, "substitute TOKEN=VALUE after the rules (repeatable)")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached expansions")
	opts.cache.register(cmd)

	return cmd
}

func (c *CLI) runExpand(ctx context.Context, stdin io.Reader, stdout io.Writer, src string, opts expandOpts) error {
	var (
		text string
		err  error
	)
	if src == "-" {
		text, err = primio.ReadText(stdin)
	} else {
		text, err = primio.ReadTemplate(src)
	}
	if err != nil {
		return err
	}

	specs, err := resolveRules(opts.manifest, opts.rules)
	if err != nil {
		return err
	}
	subs, err := parseSubstitutions(opts.sets)
	if err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.cache, nil)
	if err != nil {
		return err
	}
	defer runner.Close()

	out, cached, err := runner.Expand(ctx, pipeline.ExpandRequest{
		Text:          text,
		Rules:         specs,
		Substitutions: subs,
		Refresh:       opts.refresh,
		Template:      filepath.Base(src),
	})
	if err != nil {
		return err
	}
	c.Logger.Debug("expanded", "source", src, "rules", len(specs), "cached", cached)

	if opts.output == "" || opts.output == "-" {
		_, err = io.WriteString(stdout, out)
		return err
	}
	if _, err := primio.WriteFile(opts.output, []byte(out)); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	return nil
}

// resolveRules looks up rule names in the manifest at path.
func resolveRules(path string, names []string) ([]transform.Spec, error) {
	if len(names) == 0 {
		return nil, nil
	}
	if path == "" {
		path = manifest.DefaultFile
	}
	m, err := manifest.Load(path)
	if err != nil {
		return nil, err
	}
	return m.RuleSpecs(names)
}

// parseSubstitutions turns TOKEN=VALUE pairs into a substitution map.
// Only the first "=" separates; values may contain "=".
func parseSubstitutions(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	subs := make(map[string]string, len(pairs))
	for _, p := range pairs {
		token, value, ok := strings.Cut(p, "=")
		if !ok || token == "" {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "invalid substitution %q, want TOKEN=VALUE", p)
		}
		if _, dup := subs[token]; dup {
			return nil, perrors.New(perrors.ErrCodeInvalidInput, "token %q substituted twice", token)
		}
		subs[token] = value
	}
	return subs, nil
}
