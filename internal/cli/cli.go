// Package cli implements the lindhard command-line interface.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/lindhard/internal/config"
	"github.com/matzehuels/lindhard/pkg/buildinfo"
	"github.com/matzehuels/lindhard/pkg/cache"
	"github.com/matzehuels/lindhard/pkg/dx"
	"github.com/matzehuels/lindhard/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "lindhard"

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

	// ConfigPath overrides the default config file location.
	ConfigPath string

	config *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level. At debug level the pipeline and
// cache hooks are routed to the logger as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		registerLogHooks(c.Logger)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Lindhard computes the static susceptibility of a band structure",
		Long: `Lindhard reads band eigenvalues sampled on a regular reciprocal-space mesh
(OpenDX grid files, optionally gzip-compressed), computes the static Lindhard
susceptibility chi(q) on the same mesh and writes it back out as a grid file
or CSV.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default $XDG_CONFIG_HOME/lindhard/config.toml)")

	// Register all subcommands
	root.AddCommand(c.computeCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.plotCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	cache, err := newCache(noCache || !cfg.Cache.Enabled, cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// newCache returns a file cache under dir, or under cacheDir when dir is
// empty. An unresolvable home directory silently disables caching.
func newCache(noCache bool, dir string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if dir == "" {
		var err error
		if dir, err = cacheDir(); err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/lindhard/).
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

// resolveCacheDir returns the configured cache directory, falling back to cacheDir.
func (c *CLI) resolveCacheDir() (string, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	return cacheDir()
}

// defaultOutput derives an output path next to input, e.g.
// "bands.dx.gz" becomes "bands_chi.dx".
func defaultOutput(input, suffix string, f dx.Format) string {
	base := strings.TrimSuffix(filepath.Base(input), ".gz")
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(input), base+"_"+suffix+f.Ext())
}

// =============================================================================
// Options Helpers
// =============================================================================

// setCLIDefaults fills opts from the config file and resolves the output
// path. Flag values already present in opts take precedence.
func (c *CLI) setCLIDefaults(opts *pipeline.Options, suffix string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	cfg.Apply(opts)
	opts.Logger = c.Logger

	if opts.Format != "" {
		f, err := dx.ParseFormat(string(opts.Format))
		if err != nil {
			return err
		}
		opts.Format = f
	}
	if opts.Output == "" {
		if opts.Format == "" {
			opts.Format = pipeline.DefaultFormat
		}
		opts.Output = defaultOutput(opts.Input, suffix, opts.Format)
	}
	return nil
}
