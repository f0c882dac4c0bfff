package cli

import (
	"github.com/spf13/cobra"

	"github.com/scalableminds/wknml/pkg/cache"
	"github.com/scalableminds/wknml/pkg/server"
	"github.com/scalableminds/wknml/pkg/store"
)

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		mongoURI string
		noCache  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the inspect, convert, transform and render API over HTTP",
		Long: `Start the HTTP API.

Archive routes under /v1/annotations are enabled when a MongoDB URI is
configured in [store] or passed with --mongo-uri. The parse and transform
cache follows the [cache] section of the config file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			if addr == "" {
				addr = c.Config.Server.Addr
			}

			runner, err := c.newRunner(ctx, noCache)
			if err != nil {
				return err
			}
			defer runner.Close()
			runner.Keyer = cache.NewScopedKeyer(runner.Keyer, "api:")

			var archive store.Store
			if mongoURI != "" || c.Config.Store.MongoURI != "" || c.archive != nil {
				if archive, err = c.openStore(ctx, mongoURI); err != nil {
					return err
				}
				defer archive.Close(ctx)
			} else {
				logger.Info("No archive configured, /v1/annotations is disabled")
			}

			srv := server.New(server.Config{
				Addr:   addr,
				Runner: runner,
				Store:  archive,
				Logger: logger,
			})
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default [server] addr, then "+server.DefaultAddr+")")
	cmd.Flags().StringVar(&mongoURI, "mongo-uri", "", "MongoDB connection string for the archive")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}
