// Package cli implements the wknml command-line interface.
//
// # Commands
//
//   - check: verify that a file survives a write/parse round trip unchanged
//   - info: summarize trees, groups and bounds as text, JSON or YAML
//   - convert: re-serialize between NML and the JSON encoding
//   - transform: split, subdivide, simplify and merge trees
//   - render: draw trees with Graphviz (SVG, PNG or DOT)
//   - browse: interactive tree browser
//   - serve: HTTP API
//   - store: push, pull, list and remove archived annotations in MongoDB
//   - cache: manage the parse/transform cache
//
// # Logging
//
// A single charmbracelet logger is created in [New] and attached to each
// command's context by the root command. --verbose (-v) switches it to
// debug level.
//
// # Configuration
//
// Defaults for transforms, the cache backend, the archive and the server are
// read from $XDG_CONFIG_HOME/wknml/config.toml (see [Config]).
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/scalableminds/wknml/pkg/cache"
	"github.com/scalableminds/wknml/pkg/nml"
	"github.com/scalableminds/wknml/pkg/pipeline"
	"github.com/scalableminds/wknml/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "wknml"

	// stdinPath selects standard input wherever a file argument is expected.
	stdinPath = "-"
)

// errNoArchive is returned by archive commands when no MongoDB URI is set.
var errNoArchive = errors.New("no archive configured: set [store] mongo_uri or pass --mongo-uri")

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
	Config Config

	configPath string
	archive    store.Store // used instead of MongoDB when set
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner backed by the configured cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	ch, err := c.newCache(ctx, noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(ch, nil, c.Logger), nil
}

// newCache builds the cache selected by [cache] backend. A file cache whose
// directory cannot be determined degrades to no caching.
func (c *CLI) newCache(ctx context.Context, noCache bool) (cache.Cache, error) {
	cfg := c.Config.Cache
	if noCache || cfg.Backend == backendNone {
		return cache.NewNullCache(), nil
	}
	ttl, err := cfg.ttl()
	if err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case backendRedis:
		rc, err := cache.NewRedisCache(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		return cache.WithTTL(rc, ttl), nil
	case backendFile, "":
		dir, err := c.cacheDir()
		if err != nil {
			c.Logger.Warnf("Caching disabled: %v", err)
			return cache.NewNullCache(), nil
		}
		fc, err := cache.NewFileCache(dir)
		if err != nil {
			return nil, err
		}
		return cache.WithTTL(fc, ttl), nil
	}
	return nil, fmt.Errorf("unknown cache backend %q (want file, redis or none)", cfg.Backend)
}

// openStore connects to the MongoDB archive. uri overrides the configured one.
func (c *CLI) openStore(ctx context.Context, uri string) (store.Store, error) {
	if c.archive != nil {
		return c.archive, nil
	}
	cfg := c.Config.Store
	if uri != "" {
		cfg.MongoURI = uri
	}
	if cfg.MongoURI == "" {
		return nil, errNoArchive
	}
	s, err := store.NewMongoStore(ctx, store.MongoConfig{
		URI:        cfg.MongoURI,
		Database:   cfg.Database,
		Collection: cfg.Collection,
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns [cache] dir or the XDG cache directory (~/.cache/wknml/).
func (c *CLI) cacheDir() (string, error) {
	if c.Config.Cache.Dir != "" {
		return c.Config.Cache.Dir, nil
	}
	return cacheDir()
}

// cacheDir returns the cache directory using XDG standard (~/.cache/wknml/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configPath returns the default config file (~/.config/wknml/config.toml).
func configPath() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, "config.toml"), nil
}

// =============================================================================
// Input / Output
// =============================================================================

// readInput reads a file, or standard input for "-".
func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == stdinPath {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return data, nil
}

// inputFormat picks the document encoding from the file extension. Unknown
// extensions and standard input are left to content detection.
func inputFormat(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return pipeline.FormatJSON
	case ".nml", ".xml":
		return pipeline.FormatNML
	}
	return ""
}

// loadDocument reads and parses an annotation through the runner cache.
func loadDocument(cmd *cobra.Command, runner *pipeline.Runner, path string) (nml.NML, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nml.NML{}, err
	}
	return runner.Load(cmd.Context(), data, inputFormat(path))
}

// writeOutput writes data to path, or to the command's stdout when path is
// empty.
func writeOutput(cmd *cobra.Command, path string, data []byte) error {
	out, err := openOutput(cmd, path)
	if err != nil {
		return err
	}
	if _, err := out.Write(data); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// openOutput returns a WriteCloser for the given path.
// If path is empty, it returns the command's stdout wrapped in nopCloser.
func openOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{cmd.OutOrStdout()}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
