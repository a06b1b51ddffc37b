package pipeline

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/autolayout/pkg/cache"
	"github.com/matzehuels/autolayout/pkg/engine"
	"github.com/matzehuels/autolayout/pkg/errors"
	"github.com/matzehuels/autolayout/pkg/layout/dot"
	"github.com/matzehuels/autolayout/pkg/layout/geom"
	"github.com/matzehuels/autolayout/pkg/layout/graph"
	"github.com/matzehuels/autolayout/pkg/layout/mapper"
	"github.com/matzehuels/autolayout/pkg/layout/svg"
	"github.com/matzehuels/autolayout/pkg/model"
	"github.com/matzehuels/autolayout/pkg/observability"
)

// cacheKeyType labels layout entries in cache hooks.
const cacheKeyType = "layout"

// Runner lays out views with a layout engine and a result cache.
// Both CLI and server use it so a view is laid out the same way everywhere.
//
// The Runner holds no per-run state. Multiple goroutines can safely use
// the same Runner with different options.
type Runner struct {
	Engine engine.Engine
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner.
// If eng is nil, the dot executable on PATH is used.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(eng engine.Engine, c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if eng == nil {
		eng = &engine.Exec{}
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Engine: eng,
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Describe builds the intermediate graph of a view and its DOT description.
// Nothing is written to the view.
func (r *Runner) Describe(vc *model.ViewContext, opts Options) (*graph.Graph, []byte, error) {
	params, err := opts.Params(vc.View())
	if err != nil {
		return nil, nil, err
	}
	g, err := graph.Build(vc, params)
	if err != nil {
		return nil, nil, err
	}
	return g, dot.Marshal(g), nil
}

// Apply lays out one view and writes the positions onto it.
//
// The returned result is never nil and carries the run's status; the error
// is the one recorded in the result. The view is left untouched unless the
// run succeeds.
func (r *Runner) Apply(ctx context.Context, vc *model.ViewContext, opts Options) (*ViewResult, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()

	res := &ViewResult{Key: vc.Key(), RunID: uuid.NewString()}
	logger := opts.Logger.With("view", res.Key)

	start := time.Now()
	err := r.apply(ctx, vc, opts, res, logger)
	res.Duration = time.Since(start)
	res.finish(err)

	positioned := 0
	if res.Placement != nil {
		positioned = len(res.Placement.Elements)
	}
	observability.Pipeline().OnApply(ctx, res.Key, positioned, res.Duration, err)

	if err != nil {
		logger.Error("layout failed", "status", res.Status, "error", err, "run", res.RunID)
		return res, err
	}
	logger.Debug("laid out view",
		"nodes", res.Nodes,
		"clusters", res.Clusters,
		"cached", res.CacheHit,
		"duration", res.Duration)
	return res, nil
}

func (r *Runner) apply(ctx context.Context, vc *model.ViewContext, opts Options, res *ViewResult, logger *log.Logger) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g, desc, err := r.Describe(vc, opts)
	if err != nil {
		return err
	}
	res.Nodes, res.Edges, res.Clusters = g.NodeCount(), g.EdgeCount(), g.ClusterCount()
	observability.Pipeline().OnBuild(ctx, res.Key, res.Nodes, res.Edges, res.Clusters)
	logger.Debug("built graph", "nodes", res.Nodes, "edges", res.Edges, "clusters", res.Clusters)

	if g.NodeCount() == 0 {
		logger.Debug("nothing to lay out")
		return nil
	}

	geo, hit, err := r.layout(ctx, g, desc, opts, logger)
	if err != nil {
		return err
	}
	res.CacheHit = hit

	placement, err := mapper.Map(geo, g, opts.MapperConfig())
	if err != nil {
		return err
	}
	// A run canceled while the engine was busy must not touch the view.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := mapper.Apply(vc, placement); err != nil {
		return err
	}
	res.Placement = placement
	return nil
}

// layout returns the geometry of g, from the cache when possible.
// Cached output goes through the same parser as fresh output; an entry
// that no longer parses is dropped and the engine is run again.
func (r *Runner) layout(ctx context.Context, g *graph.Graph, desc []byte, opts Options, logger *log.Logger) (*geom.Geometry, bool, error) {
	want := g.NodeIDs()
	key := r.Keyer.LayoutKey(r.Engine.Name(), desc)

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, cacheKeyType)
			geo, err := svg.Parse(bytes.NewReader(data), want)
			if err == nil {
				return geo, true, nil
			}
			logger.Warn("dropping unreadable cache entry", "key", key, "error", err)
			_ = r.Cache.Delete(ctx, key)
		} else {
			if err != nil {
				logger.Debug("cache lookup failed", "error", err)
			}
			observability.Cache().OnCacheMiss(ctx, cacheKeyType)
		}
	}

	name := r.Engine.Name()
	observability.Pipeline().OnEngineStart(ctx, g.ViewKey, name)
	start := time.Now()
	out, err := r.Engine.Layout(ctx, g.ViewKey, desc)
	observability.Pipeline().OnEngineComplete(ctx, g.ViewKey, name, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}
	logger.Debug("engine finished", "engine", name, "bytes", len(out), "duration", time.Since(start))

	geo, err := svg.Parse(bytes.NewReader(out), want)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, key, out, opts.CacheTTL); err != nil {
		logger.Warn("cache write failed", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, cacheKeyType, len(out))
	}
	return geo, false, nil
}

// ApplyWorkspace lays out the views of ws selected by opts.Views, or all of
// them, in workspace order.
//
// Views run concurrently, at most opts.Concurrency at a time, each with its
// own graph and engine files. A failing view is reported in its result and
// does not stop the others. The returned error is reserved for problems
// with the workspace or options and for cancellation of ctx.
func (r *Runner) ApplyWorkspace(ctx context.Context, ws *model.Workspace, opts Options) ([]*ViewResult, error) {
	r.applyLogger(&opts)
	opts.SetDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if ws == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "nil workspace")
	}
	if err := ws.Validate(); err != nil {
		return nil, err
	}
	for _, key := range opts.Views {
		if _, ok := ws.View(key); !ok {
			return nil, errors.New(errors.ErrCodeViewNotFound, "view %q not found", key)
		}
	}

	var views []*model.ViewContext
	for _, v := range ws.Views {
		if !opts.wantView(v.Key) {
			continue
		}
		vc, err := model.NewViewContext(ws, v.Key)
		if err != nil {
			return nil, err
		}
		views = append(views, vc)
	}

	opts.Logger.Debug("laying out workspace", "views", len(views), "concurrency", opts.Concurrency)

	results := make([]*ViewResult, len(views))
	var finished atomic.Int32
	var g errgroup.Group
	g.SetLimit(opts.Concurrency)
	for i, vc := range views {
		g.Go(func() error {
			results[i], _ = r.Apply(ctx, vc, opts)
			if opts.Progress != nil {
				opts.Progress(int(finished.Add(1)), len(views))
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
