package cli

import (
	"github.com/spf13/cobra"

	"github.com/scalableminds/wknml/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The --config flag is resolved before any subcommand runs; commands read
// the result from c.Config.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "wknml reads, writes and transforms webKnossos skeleton annotations",
		Long: `wknml is a toolkit for webKnossos NML skeleton annotations.

It validates and converts NML files, inspects their trees and groups,
applies graph transforms such as edge subdivision or tree merging, draws
skeletons with Graphviz, and serves the same operations over HTTP.`,
		Version:           buildinfo.Version,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfigHook,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/wknml/config.toml)")

	// Register all subcommands
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.infoCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.transformCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfigHook loads the config file and attaches the logger to the
// command context.
func (c *CLI) loadConfigHook(cmd *cobra.Command, _ []string) error {
	path, explicit := c.configPath, c.configPath != ""
	if !explicit {
		var err error
		if path, err = configPath(); err != nil {
			c.Logger.Debugf("No config directory: %v", err)
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		}
	}

	cfg, err := loadConfig(path, explicit)
	if err != nil {
		return err
	}
	c.Config = cfg
	c.Logger.Debug("Loaded config", "path", path)

	cmd.SetContext(withLogger(cmd.Context(), c.Logger))
	return nil
}
