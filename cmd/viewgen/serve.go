package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	theme "github.com/goliatone/go-theme"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-viewgen/internal/approvals"
	"github.com/goliatone/go-viewgen/internal/auth"
	"github.com/goliatone/go-viewgen/internal/catalog"
	"github.com/goliatone/go-viewgen/internal/config"
	"github.com/goliatone/go-viewgen/internal/layouts"
	"github.com/goliatone/go-viewgen/internal/live"
	"github.com/goliatone/go-viewgen/internal/logging"
	"github.com/goliatone/go-viewgen/internal/records"
	"github.com/goliatone/go-viewgen/internal/server"
	"github.com/goliatone/go-viewgen/internal/web"
	"github.com/goliatone/go-viewgen/pkg/dashboard"
)

const rateLimiterTTL = 10 * time.Minute

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr, defaultLayout string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(root.configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			logger, err := logging.New(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			var fallback dashboard.Layout
			if defaultLayout != "" {
				if fallback, err = readLayout(defaultLayout); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, logger, server.WithDefaultLayout(fallback))
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVar(&defaultLayout, "default-layout", "", "layout JSON shown to users without a saved dashboard")
	return cmd
}

// app holds everything serve wires together.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	catalog *catalog.Catalog
	hub     *live.Hub
	feed    *live.CostFeed
	server  *server.Server
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close failed", zap.Error(err))
		}
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger, extra ...server.Option) error {
	a, err := assemble(cfg, logger, extra...)
	if err != nil {
		return err
	}
	defer a.close()

	g, gctx := errgroup.WithContext(ctx)
	if a.feed != nil {
		if err := a.feed.Start(gctx); err != nil {
			return err
		}
		defer a.feed.Stop()
	}
	g.Go(func() error {
		a.hub.Run(gctx)
		return nil
	})
	if cfg.Catalog.Watch {
		g.Go(func() error {
			return a.catalog.Watch(gctx, catalog.DefaultDebounce)
		})
	}
	g.Go(func() error {
		return a.server.Run(gctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
	})
	return g.Wait()
}

func assemble(cfg *config.Config, logger *zap.Logger, extra ...server.Option) (*app, error) {
	a := &app{cfg: cfg, logger: logger}
	a.hub = live.NewHub(live.WithLogger(logger.Named("live")))

	var db *sql.DB
	if cfg.Database.URL != "" {
		var err error
		if db, err = sql.Open("postgres", cfg.Database.URL); err != nil {
			return nil, fmt.Errorf("viewgen: open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
	}

	var source records.Source
	switch cfg.Records.Backend {
	case config.BackendPostgres:
		source = records.NewPostgres(db)
	default:
		mem, err := records.LoadFixtures(os.DirFS(cfg.Catalog.Dir))
		if err != nil {
			a.close()
			return nil, err
		}
		source = mem
	}

	var store layouts.Store
	switch cfg.Layouts.Backend {
	case config.BackendPostgres:
		store = layouts.NewPostgres(db)
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		a.closers = append(a.closers, client.Close)
		store = layouts.NewRedis(client, layouts.DefaultKeyPrefix)
	default:
		store = layouts.NewMemory()
	}

	deps := dashboard.BuiltinDeps{Records: records.ForDashboard(source)}
	if cfg.Live.URL != "" {
		feed, err := live.NewCostFeed(cfg.Live.URL, cfg.Live.Interval,
			live.WithBroadcaster(a.hub),
			live.WithFeedLogger(logger.Named("cost-feed")),
		)
		if err != nil {
			a.close()
			return nil, err
		}
		a.feed = feed
		deps.Costs = feed
	}

	cat, err := catalog.Open(cfg.Catalog.Dir,
		catalog.WithLogger(logger.Named("catalog")),
		catalog.WithWidgetDeps(deps),
	)
	if err != nil {
		a.close()
		return nil, err
	}
	a.catalog = cat
	for _, problem := range catalog.Lint(cat.Current()) {
		logger.Warn("catalog lint", zap.Error(problem))
	}

	opts := []server.Option{
		server.WithLogger(logger.Named("http")),
		server.WithRecords(source),
		server.WithLayouts(store),
		server.WithHub(a.hub),
		server.WithTheme(themeConfig(cfg.Theme)),
		server.WithActionDispatcher(actionDispatcher(logger.Named("actions"), a.hub)),
	}
	if cfg.Auth.JWTSecret != "" {
		svc, err := auth.NewService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
		if err != nil {
			a.close()
			return nil, err
		}
		opts = append(opts, server.WithAuth(svc))
	} else {
		logger.Warn("auth.jwt_secret is empty; approval routes reject every request")
	}
	if db != nil {
		opts = append(opts, server.WithApprovals(approvals.NewHandler(
			approvals.NewPostgresProcedure(db),
			approvals.NewPostgresStore(db),
			approvals.WithLogger(logger.Named("approvals")),
		)))
	} else {
		logger.Info("database.url is empty; approval routes disabled")
	}
	if rl := cfg.Server.RateLimit; rl.RPS > 0 {
		opts = append(opts, server.WithRateLimiter(web.NewRateLimiter(rl.RPS, rl.Burst, rateLimiterTTL)))
	}

	srv, err := server.New(cat, append(opts, extra...)...)
	if err != nil {
		a.close()
		return nil, err
	}
	a.server = srv
	return a, nil
}

func themeConfig(cfg config.ThemeConfig) *theme.RendererConfig {
	out := &theme.RendererConfig{
		Theme:   cfg.Name,
		Variant: cfg.Variant,
		Tokens:  cfg.Tokens,
	}
	if len(cfg.Tokens) > 0 {
		out.CSSVars = make(map[string]string, len(cfg.Tokens))
		for key, value := range cfg.Tokens {
			out.CSSVars["--vg-"+key] = value
		}
	}
	if prefix := strings.TrimRight(cfg.AssetPrefix, "/"); prefix != "" {
		out.AssetURL = func(key string) string {
			return prefix + "/" + strings.TrimLeft(key, "/")
		}
	}
	return out
}

// actionDispatcher logs detail page actions and announces them on the live
// feed. Domain side effects belong to the host application.
func actionDispatcher(logger *zap.Logger, hub *live.Hub) func(context.Context, string, map[string]any) error {
	return func(_ context.Context, actionID string, payload map[string]any) error {
		logger.Info("record action",
			zap.String("action", actionID),
			zap.Any("payload", payload),
		)
		if err := hub.Broadcast("action", map[string]any{"action": actionID, "payload": payload}); err != nil && !errors.Is(err, live.ErrClosed) {
			logger.Warn("announce action failed", zap.Error(err))
		}
		return nil
	}
}
