package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autolayout/internal/server"
	"github.com/matzehuels/autolayout/pkg/cache"
	"github.com/matzehuels/autolayout/pkg/pipeline"
)

// serveFlags holds the flags of the serve command.
type serveFlags struct {
	addr      string
	redisURL  string
	namespace string
	noCache   bool
	maxBody   int64
}

// serveCommand creates the serve command that runs the HTTP layout API.
func (c *CLI) serveCommand() *cobra.Command {
	sf := &serveFlags{}
	flags := &optionFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP layout server",
		Long: `Run the HTTP layout server.

The server lays out workspaces posted to /v1/layout and returns DOT
descriptions from /v1/dot. Engine results are cached in Redis when
--redis-url is given, otherwise in the local cache directory.

Engine flags set here apply to every request; requests cannot change them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.resolve(cmd, c.configPath)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), opts, sf)
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&sf.addr, "addr", server.DefaultAddr, "listen address")
	fl.StringVar(&sf.redisURL, "redis-url", "", "Redis URL for a shared cache (e.g. redis://localhost:6379/0)")
	fl.StringVar(&sf.namespace, "cache-namespace", "", "prefix for cache keys, to share one cache between deployments")
	fl.BoolVar(&sf.noCache, "no-cache", false, "disable caching")
	fl.Int64Var(&sf.maxBody, "max-body-bytes", server.DefaultMaxBodyBytes, "maximum request body size")
	flags.registerRun(cmd)
	cmd.MarkFlagsMutuallyExclusive("redis-url", "no-cache")

	return cmd
}

// runServe builds the server's runner and serves until ctx is canceled.
func (c *CLI) runServe(ctx context.Context, opts pipeline.Options, sf *serveFlags) error {
	eng, err := opts.NewEngine()
	if err != nil {
		return err
	}
	store, err := c.serverCache(ctx, sf)
	if err != nil {
		return err
	}

	var keyer cache.Keyer
	if sf.namespace != "" {
		keyer = cache.NewScopedKeyer(nil, sf.namespace+":")
	}

	runner := pipeline.NewRunner(eng, store, keyer, c.Logger)
	defer runner.Close()

	opts.SetDefaults()
	opts.Logger = c.Logger
	srv := server.New(runner, server.Config{
		Addr:         sf.addr,
		MaxBodyBytes: sf.maxBody,
		Options:      opts,
	}, c.Logger)

	c.Logger.Info("starting server", "engine", eng.Name(), "concurrency", opts.Concurrency)
	return srv.ListenAndServe(ctx)
}

// serverCache opens the cache backend selected by the flags.
func (c *CLI) serverCache(ctx context.Context, sf *serveFlags) (cache.Cache, error) {
	if sf.redisURL == "" {
		return newCache(sf.noCache)
	}
	rc, err := cache.NewRedisCache(ctx, cache.RedisConfig{URL: sf.redisURL})
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	c.Logger.Info("using redis cache")
	return rc, nil
}
