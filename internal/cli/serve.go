package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/primgen/pkg/buildinfo"
	"github.com/matzehuels/primgen/pkg/cache"
	"github.com/matzehuels/primgen/pkg/manifest"
	"github.com/matzehuels/primgen/pkg/server"
)

const (
	defaultAddr = ":8080"

	// apiScope prefixes API cache keys so they stay apart from gen runs
	// sharing a remote cache.
	apiScope = "api:"
)

// serveCommand creates the serve command, which runs the HTTP expansion API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr         string
		manifestPath string
		cacheOpts    cacheFlags
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the expansion API over HTTP",
		Long: `Serve exposes POST /v1/expand, GET /v1/rules and GET /healthz.

With --manifest, requests may reference the manifest's rules by name.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var m *manifest.Manifest
			if manifestPath != "" {
				var err error
				if m, err = manifest.Load(manifestPath); err != nil {
					return err
				}
				c.Logger.Info("loaded manifest", "path", m.Path, "rules", len(m.Rules))
			}

			runner, err := c.newRunner(ctx, cacheOpts, cache.NewScopedKeyer(nil, apiScope))
			if err != nil {
				return err
			}
			defer runner.Close()

			srv := server.New(server.Config{
				Runner:   runner,
				Manifest: m,
				Logger:   c.Logger,
				Version:  buildinfo.Version,
			})
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", defaultAddr, "listen address")
	cmd.Flags().StringVarP(&manifestPath, "manifest", "m", "", "manifest whose rules requests can use by name")
	cacheOpts.register(cmd)

	return cmd
}
