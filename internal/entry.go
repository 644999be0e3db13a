// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/symark/internal/api"
	"github.com/starford/symark/internal/corpus"
	"github.com/starford/symark/internal/index"
	"github.com/starford/symark/internal/mcpserver"
	"github.com/starford/symark/internal/noteservice"
	"github.com/starford/symark/internal/parser"
	"github.com/starford/symark/internal/site"
	"github.com/starford/symark/internal/sse"
	"github.com/starford/symark/internal/storage"
	"github.com/starford/symark/internal/watch"
)

// builder owns everything one site build touches. Builds run one at a time:
// the initial build happens before the watcher starts and later builds run
// on the watcher goroutine.
type builder struct {
	cfg    *Config
	src    *storage.FS
	out    *storage.FS
	db     *index.DB
	svc    *noteservice.Service
	broker *sse.Broker
	logger *slog.Logger
	now    func() time.Time
}

func setup(opts []Option) (*application, *slog.Logger, error) {
	app := &application{version: "dev", logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, nil, fmt.Errorf("config is required")
	}

	logger := slog.New(slog.NewJSONHandler(app.logOut, &slog.HandlerOptions{
		Level: app.config.App.LogLevel,
	}))
	slog.SetDefault(logger)

	cfg := app.config
	logger.Info("Configuration loaded",
		slog.String("version", app.version),
		slog.String("source", cfg.Site.Source),
		slog.String("output", cfg.Site.Output),
		slog.Bool("index", cfg.Index.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))
	return app, logger, nil
}

// open prepares storage and, when enabled, the search index. The returned
// cleanup closes the index.
func open(app *application, logger *slog.Logger, withOutput bool) (*builder, func(), error) {
	cfg := app.config
	src, err := storage.NewFS(cfg.Site.Source)
	if err != nil {
		return nil, nil, fmt.Errorf("init source: %w", err)
	}
	b := &builder{cfg: cfg, src: src, logger: logger, now: app.now}
	if withOutput {
		if b.out, err = storage.EnsureFS(cfg.Site.Output); err != nil {
			return nil, nil, fmt.Errorf("init output: %w", err)
		}
	}

	cleanup := func() {}
	var ni index.NoteIndex
	if cfg.Index.Enabled {
		if b.db, err = index.Open(cfg.Index.Path); err != nil {
			return nil, nil, fmt.Errorf("init index: %w", err)
		}
		ni = b.db
		cleanup = func() { _ = b.db.Close() }
	}
	b.svc = noteservice.NewService(ni)
	return b, cleanup, nil
}

// adopt publishes a freshly loaded corpus to readers and the index.
func (b *builder) adopt(c *corpus.Corpus) {
	b.svc.Swap(c)
	if b.db == nil {
		return
	}
	if err := index.Sync(b.db, c, b.logger); err != nil {
		b.logger.Warn("index sync failed", slog.String("error", err.Error()))
	}
}

func (b *builder) build(ctx context.Context) (*site.Result, error) {
	opts := b.cfg.Site.SiteOptions()
	opts.Now = b.now
	res, err := site.Build(ctx, opts, b.src, b.out, b.logger)
	if err != nil {
		if b.broker != nil {
			b.broker.Failed(err)
		}
		return nil, err
	}
	b.adopt(res.Corpus)
	if b.broker != nil {
		b.broker.Rebuilt(len(res.Pages), len(res.Corpus.Notes), res.Elapsed)
	}
	return res, nil
}

// load refreshes the corpus without writing any pages.
func (b *builder) load() error {
	c, err := corpus.Load(b.src, b.logger)
	if err != nil {
		return err
	}
	b.adopt(c)
	return nil
}

// Build generates the site once.
func Build(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	b, cleanup, err := open(app, logger, true)
	if err != nil {
		return err
	}
	defer cleanup()

	if _, err := b.build(ctx); err != nil {
		return fmt.Errorf("build: %w", err)
	}
	return nil
}

// Run builds the site, serves it together with the API, and rebuilds on
// source changes until ctx is cancelled or a signal arrives.
func Run(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	b, cleanup, err := open(app, logger, true)
	if err != nil {
		return err
	}
	defer cleanup()

	b.broker = sse.NewBroker(2 * time.Second)
	defer b.broker.Close()

	if _, err := b.build(ctx); err != nil {
		logger.Error("initial build failed", slog.String("error", err.Error()))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := b.svc.Corpus(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", api.NewRouter(b.svc, cfg.Auth.BearerToken(), b.broker))
	r.Handle("/*", api.StaticHandler(api.StaticConfig{
		Root:     cfg.Site.Output,
		Compress: cfg.Server.Compress,
		MinSize:  cfg.Server.CompressMinSize,
	}))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	if cfg.Watch.Enabled {
		g.Go(func() error {
			return watch.Watch(gCtx, cfg.Site.Source, nil, cfg.Watch.Debounce, logger, func(changed []string) {
				for _, p := range changed {
					if filepath.Ext(p) != parser.Ext {
						continue
					}
					_, statErr := os.Stat(filepath.Join(cfg.Site.Source, filepath.FromSlash(p)))
					b.broker.NoteChanged(p, errors.Is(statErr, fs.ErrNotExist))
				}
				if _, err := b.build(gCtx); err != nil {
					logger.Error("rebuild failed", slog.String("error", err.Error()))
				}
			})
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		b.broker.Close()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// ServeMCP loads the notes and serves MCP tools on stdio. With watching
// enabled the corpus is reloaded when sources change.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, logger, err := setup(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	b, cleanup, err := open(app, logger, false)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := b.load(); err != nil {
		return fmt.Errorf("load notes: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if cfg.Watch.Enabled {
		go func() {
			err := watch.Watch(ctx, cfg.Site.Source, watch.HasExt(parser.Ext), cfg.Watch.Debounce, logger, func([]string) {
				if err := b.load(); err != nil {
					logger.Error("reload failed", slog.String("error", err.Error()))
				}
			})
			if err != nil {
				logger.Error("watcher failed", slog.String("error", err.Error()))
			}
		}()
	}

	return mcpserver.New(b.svc, app.version).ServeStdio()
}
