// Package cli implements the pipinfo command-line interface.
package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/pipinfo/pkg/buildinfo"
	"github.com/matzehuels/pipinfo/pkg/config"
	"github.com/matzehuels/pipinfo/pkg/httputil"
	"github.com/matzehuels/pipinfo/pkg/integrations/pypi"
	"github.com/matzehuels/pipinfo/pkg/inventory"
	"github.com/matzehuels/pipinfo/pkg/requiredby"
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
	// Out receives listings and command output. Defaults to os.Stdout.
	Out io.Writer
	// Config is loaded before any command runs.
	Config config.Config

	configPath string
	debug      bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: newLogger(w, level),
		Out:    os.Stdout,
		Config: config.Default(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
// The root command itself lists installed packages.
func (c *CLI) RootCommand() *cobra.Command {
	opts := &listOptions{}

	root := &cobra.Command{
		Use:   "pipinfo [flags] [directory ...]",
		Short: "pipinfo lists installed Python packages",
		Long: `pipinfo lists installed Python packages with their summaries.

Without arguments it asks the Python interpreter for its user and system
site-packages directories; otherwise it lists the directories given.
Packages can be checked against PyPI for newer versions and known
vulnerabilities, and narrowed down with selection flags.`,
		Version:           buildinfo.Version,
		Args:              cobra.ArbitraryArgs,
		SilenceUsage:      true,
		PersistentPreRunE: c.loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runList(cmd, args, opts)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	pf := root.PersistentFlags()
	pf.StringVar(&c.configPath, "config", "", "configuration file (default $XDG_CONFIG_HOME/pipinfo/config.toml)")
	pf.BoolVarP(&c.debug, "debug", "d", false, "enable debug logging")

	opts.register(root)

	root.AddCommand(c.graphCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the configuration file and environment, then adjusts
// the log level. Flags are applied by each command on top of the result.
func (c *CLI) loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return err
	}
	if c.debug {
		cfg.Debug = true
	}
	c.Config = cfg
	if cfg.Debug {
		c.SetLogLevel(LogDebug)
		c.registerDebugHooks()
	}
	c.Logger.Debug("Configuration loaded", "python", cfg.Python, "index", cfg.IndexURL, "workers", cfg.Workers)
	return nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates an inventory runner backed by the PyPI client and the
// on-disk response cache. A cache that cannot be created is logged and
// skipped.
func (c *CLI) newRunner() *inventory.Runner {
	cache, err := httputil.NewCache("", c.Config.CacheTTL.Duration)
	if err != nil {
		c.Logger.Warn("Response cache disabled", "error", err)
		cache = nil
	}
	client := pypi.NewClient(cache, c.Config.IndexURL)
	return inventory.NewRunner(client, c.Logger)
}

// policy maps the deep-extras setting to a closure policy.
func (c *CLI) policy() requiredby.Policy {
	if c.Config.DeepExtras {
		return requiredby.DedupByActivation
	}
	return requiredby.DedupByTarget
}
