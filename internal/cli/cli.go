// Package cli implements the autolayout command-line interface.
//
// This package provides commands for laying out the views of a workspace
// file, writing the DOT descriptions handed to the layout engine, serving
// layout over HTTP, and managing the local result cache. The CLI is built
// using cobra and logs with charmbracelet/log.
//
// # Commands
//
// The main commands are:
//   - layout: Lay out the views of a workspace and write the positions back
//   - dot: Write the DOT description of each view for inspection
//   - serve: Run the HTTP layout server
//   - cache: Manage the layout result cache
//
// # Configuration
//
// Every command reads an optional TOML file given with --config. Flags set
// on the command line take precedence over values from the file.
package cli

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/pkg/buildinfo"
	"github.com/matzehuels/autolayout/pkg/cache"
	"github.com/matzehuels/autolayout/pkg/layout/mapper"
	"github.com/matzehuels/autolayout/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "autolayout"

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

	configPath string
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
		Use:          appName,
		Short:        "Autolayout positions the elements of architecture diagrams",
		Long:         `Autolayout lays out architecture diagram views with Graphviz and writes the computed element positions back into the workspace.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "TOML config file")

	// Register all subcommands
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.dotCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(opts pipeline.Options, noCache bool) (*pipeline.Runner, error) {
	eng, err := opts.NewEngine()
	if err != nil {
		return nil, err
	}
	cache, err := newCache(noCache)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(eng, cache, nil, c.Logger), nil
}

func newCache(noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/autolayout/).
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

// =============================================================================
// Option Flags
// =============================================================================

// optionFlags binds pipeline options to command flags.
type optionFlags struct {
	opts   pipeline.Options
	margin int
}

// registerGraph adds the flags that shape the DOT description.
func (f *optionFlags) registerGraph(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.opts.RankDirection, "rank-direction", "", "rank direction: TB (default), BT, LR, RL")
	fl.Float64Var(&f.opts.RankSeparation, "rank-separation", 0, "separation between ranks in diagram units (default 300)")
	fl.Float64Var(&f.opts.NodeSeparation, "node-separation", 0, "separation between elements of a rank in diagram units (default 300)")
	fl.StringSliceVar(&f.opts.Views, "view", nil, "only these views (repeatable; default: all)")
	_ = cmd.RegisterFlagCompletionFunc("rank-direction", completeRankDirections)
	_ = cmd.RegisterFlagCompletionFunc("view", completeViews)
}

// registerRun adds the flags that control the engine and the mapping.
func (f *optionFlags) registerRun(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.opts.Engine, "engine", pipeline.DefaultEngine, "layout engine: exec (default), embedded")
	fl.StringVar(&f.opts.Command, "dot", "", "Graphviz dot executable (default: dot on PATH)")
	fl.StringVar(&f.opts.WorkDir, "work-dir", "", "directory for engine files (default: a temporary directory)")
	fl.BoolVar(&f.opts.KeepFiles, "keep-files", false, "keep the .dot and .svg files of each run")
	fl.IntVar(&f.margin, "margin", mapper.DefaultMargin, "margin around the diagram in diagram units")
	fl.BoolVar(&f.opts.KeepPaperSize, "keep-paper-size", false, "leave view dimensions unchanged")
	fl.IntVar(&f.opts.Concurrency, "concurrency", pipeline.DefaultConcurrency, "number of views laid out at once")
	fl.BoolVar(&f.opts.Refresh, "refresh", false, "ignore cached results")
	_ = cmd.RegisterFlagCompletionFunc("engine", completeEngines)
}

// resolve returns the options for a run: the config file, when given, with
// every flag set on the command line applied on top.
func (f *optionFlags) resolve(cmd *cobra.Command, configPath string) (pipeline.Options, error) {
	fromFlags := f.opts
	if cmd.Flags().Lookup("margin") != nil {
		margin := f.margin
		fromFlags.Margin = &margin
	}
	if configPath == "" {
		return fromFlags, fromFlags.Validate()
	}

	opts, err := pipeline.LoadConfig(configPath)
	if err != nil {
		return opts, err
	}
	overrides := map[string]func(){
		"rank-direction":  func() { opts.RankDirection = fromFlags.RankDirection },
		"rank-separation": func() { opts.RankSeparation = fromFlags.RankSeparation },
		"node-separation": func() { opts.NodeSeparation = fromFlags.NodeSeparation },
		"view":            func() { opts.Views = fromFlags.Views },
		"engine":          func() { opts.Engine = fromFlags.Engine },
		"dot":             func() { opts.Command = fromFlags.Command },
		"work-dir":        func() { opts.WorkDir = fromFlags.WorkDir },
		"keep-files":      func() { opts.KeepFiles = fromFlags.KeepFiles },
		"margin":          func() { opts.Margin = fromFlags.Margin },
		"keep-paper-size": func() { opts.KeepPaperSize = fromFlags.KeepPaperSize },
		"concurrency":     func() { opts.Concurrency = fromFlags.Concurrency },
		"refresh":         func() { opts.Refresh = fromFlags.Refresh },
	}
	for name, apply := range overrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return opts, opts.Validate()
}
