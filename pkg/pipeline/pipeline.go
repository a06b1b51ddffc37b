// Package pipeline runs automatic layout over the views of a workspace.
//
// This package ties the layout stages together so that the CLI and the HTTP
// server behave identically. By centralizing defaults and the run sequence
// here, every entry point lays out a view the same way.
//
// # Architecture
//
// One view is laid out in five steps:
//
//  1. Build: project the view onto an intermediate graph with numeric ids
//  2. Serialize: render the graph as a DOT description
//  3. Engine: run the layout engine on the description (cached)
//  4. Parse: read element and cluster rectangles from the engine's SVG
//  5. Map: convert to diagram coordinates and write them onto the view
//
// The view is only written in the last step, and only once every element
// has a position.
//
// # Usage
//
//	runner := pipeline.NewRunner(eng, cache, nil, logger)
//	results, err := runner.ApplyWorkspace(ctx, ws, pipeline.Options{})
//	for _, r := range results {
//	    fmt.Println(r.Key, r.Status)
//	}
//
// Views of one workspace are laid out concurrently; a failing view is
// reported in its result and never stops its siblings.
package pipeline

import (
	"io"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/autolayout/pkg/cache"
	"github.com/matzehuels/autolayout/pkg/engine"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout/graph"
	"github.com/matzehuels/autolayout/pkg/layout/mapper"
	"github.com/matzehuels/autolayout/pkg/model"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultEngine is the engine used when none is configured.
	DefaultEngine = EngineExec

	// DefaultConcurrency is the number of views laid out at once.
	DefaultConcurrency = 4
)

// Engine names.
const (
	EngineExec     = "exec"
	EngineEmbedded = "embedded"
)

// ValidEngines is the set of supported engines.
var ValidEngines = map[string]bool{
	EngineExec:     true,
	EngineEmbedded: true,
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a layout run.
//
// Graph parameters are in diagram units; zero means the graph default.
// Fields that reach the host (engine command, work directory) are never
// taken from JSON, so options decoded from an API request cannot change
// them.
type Options struct {
	// Engine options
	Engine    string `json:"-" toml:"engine"`
	Command   string `json:"-" toml:"command"`
	WorkDir   string `json:"-" toml:"work_dir"`
	KeepFiles bool   `json:"-" toml:"keep_files"`

	// Graph options
	RankDirection  string  `json:"rank_direction,omitempty" toml:"rank_direction"`
	RankSeparation float64 `json:"rank_separation,omitempty" toml:"rank_separation"`
	NodeSeparation float64 `json:"node_separation,omitempty" toml:"node_separation"`
	NodeWidth      float64 `json:"node_width,omitempty" toml:"node_width"`
	NodeHeight     float64 `json:"node_height,omitempty" toml:"node_height"`
	ClusterMargin  int     `json:"cluster_margin,omitempty" toml:"cluster_margin"`
	FontSize       int     `json:"font_size,omitempty" toml:"font_size"`

	// Mapping options. A nil Margin means mapper.DefaultMargin.
	Margin        *int `json:"margin,omitempty" toml:"margin"`
	KeepPaperSize bool `json:"keep_paper_size,omitempty" toml:"keep_paper_size"`

	// Run options
	Views       []string      `json:"views,omitempty" toml:"views"`
	Concurrency int           `json:"-" toml:"concurrency"`
	Refresh     bool          `json:"refresh,omitempty" toml:"refresh"`
	CacheTTL    time.Duration `json:"-" toml:"cache_ttl"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-" toml:"-"`

	// Progress, when set, is called by ApplyWorkspace each time a view
	// finishes. Calls may come from several goroutines.
	Progress func(done, total int) `json:"-" toml:"-"`
}

// SetDefaults fills unset fields. Graph parameters are left at zero and
// defaulted by the graph builder.
func (o *Options) SetDefaults() {
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.CacheTTL == 0 {
		o.CacheTTL = cache.DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// Validate checks the options for values no run can use.
func (o *Options) Validate() error {
	if o.Engine != "" && !ValidEngines[o.Engine] {
		return errors.New(errors.ErrCodeInvalidInput, "invalid engine: %q (must be one of: exec, embedded)", o.Engine)
	}
	if o.RankDirection != "" {
		if _, ok := graph.ParseRankDirection(o.RankDirection); !ok {
			return errors.New(errors.ErrCodeInvalidInput, "invalid rank direction: %q (must be one of: TB, BT, LR, RL)", o.RankDirection)
		}
	}
	switch {
	case o.RankSeparation < 0:
		return errors.New(errors.ErrCodeInvalidInput, "rank separation must not be negative")
	case o.NodeSeparation < 0:
		return errors.New(errors.ErrCodeInvalidInput, "node separation must not be negative")
	case o.NodeWidth < 0 || o.NodeHeight < 0:
		return errors.New(errors.ErrCodeInvalidInput, "node size must not be negative")
	case o.ClusterMargin < 0:
		return errors.New(errors.ErrCodeInvalidInput, "cluster margin must not be negative")
	case o.FontSize < 0:
		return errors.New(errors.ErrCodeInvalidInput, "font size must not be negative")
	case o.Concurrency < 0:
		return errors.New(errors.ErrCodeInvalidInput, "concurrency must not be negative")
	}
	if err := o.MapperConfig().Validate(); err != nil {
		return err
	}
	for _, key := range o.Views {
		if err := errors.ValidateViewKey(key); err != nil {
			return err
		}
	}
	return nil
}

// Params returns the graph parameters for v. The view's automatic layout
// settings take precedence over the options.
func (o *Options) Params(v *model.View) (graph.Params, error) {
	p := graph.Params{
		RankSeparation: o.RankSeparation,
		NodeSeparation: o.NodeSeparation,
		NodeWidth:      o.NodeWidth,
		NodeHeight:     o.NodeHeight,
		ClusterMargin:  o.ClusterMargin,
		FontSize:       o.FontSize,
	}
	dir := o.RankDirection
	if al := v.AutomaticLayout; al != nil {
		if al.RankDirection != "" {
			dir = al.RankDirection
		}
		if al.RankSeparation > 0 {
			p.RankSeparation = float64(al.RankSeparation)
		}
		if al.NodeSeparation > 0 {
			p.NodeSeparation = float64(al.NodeSeparation)
		}
	}
	if dir != "" {
		d, ok := graph.ParseRankDirection(dir)
		if !ok {
			return p, errors.New(errors.ErrCodeInvalidView, "view %q: invalid rank direction %q", v.Key, dir)
		}
		p.RankDirection = d
	}
	return p, nil
}

// MapperConfig returns the coordinate mapping configuration.
func (o *Options) MapperConfig() mapper.Config {
	cfg := mapper.DefaultConfig()
	if o.Margin != nil {
		cfg.Margin = *o.Margin
	}
	cfg.ChangePaperSize = !o.KeepPaperSize
	return cfg
}

// NewEngine returns the configured layout engine.
func (o *Options) NewEngine() (engine.Engine, error) {
	switch o.Engine {
	case "", EngineExec:
		return &engine.Exec{Command: o.Command, Dir: o.WorkDir, KeepFiles: o.KeepFiles}, nil
	case EngineEmbedded:
		return engine.Embedded{}, nil
	default:
		return nil, errors.New(errors.ErrCodeInvalidInput, "invalid engine: %q", o.Engine)
	}
}

// wantView reports whether the options select the view with key.
func (o *Options) wantView(key string) bool {
	if len(o.Views) == 0 {
		return true
	}
	for _, k := range o.Views {
		if k == key {
			return true
		}
	}
	return false
}

// =============================================================================
// Config File
// =============================================================================

// LoadConfig reads options from a TOML file. Unknown keys are rejected so
// that a misspelt setting does not pass silently.
func LoadConfig(path string) (Options, error) {
	var opts Options
	meta, err := toml.DecodeFile(path, &opts)
	if err != nil {
		if os.IsNotExist(err) {
			return opts, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return opts, errors.Wrap(errors.ErrCodeInvalidFormat, err, "parse config %s", path)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return opts, errors.New(errors.ErrCodeInvalidFormat, "config %s: unknown key %q", path, undecoded[0].String())
	}
	return opts, nil
}
