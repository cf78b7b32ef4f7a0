package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nvara/tally/internal/adapters/feed"
	"github.com/nvara/tally/internal/adapters/http/api"
	app "github.com/nvara/tally/internal/app"
	"github.com/nvara/tally/internal/config"
	"github.com/nvara/tally/internal/domain/model"
	"github.com/nvara/tally/pkg/logger"
	"github.com/nvara/tally/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// feedSet bundles the in-memory feeds with the Publisher interface the
// snapshot ingestion handlers require.
type feedSet struct {
	roster  *feed.MemoryFeed[model.Entity]
	midterm *feed.MemoryFeed[model.RawSubmission]
	final   *feed.MemoryFeed[model.RawSubmission]
}

func (f *feedSet) PublishRoster(ctx context.Context, docs []model.Entity) error {
	return f.roster.Publish(ctx, docs)
}

func (f *feedSet) PublishMidterm(ctx context.Context, docs []model.RawSubmission) error {
	return f.midterm.Publish(ctx, docs)
}

func (f *feedSet) PublishFinal(ctx context.Context, docs []model.RawSubmission) error {
	return f.final.Publish(ctx, docs)
}

func main() {
	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			os.Stderr.WriteString("failed to flush logs: " + err.Error() + "\n")
		}
	}()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// In-memory feeds stand in for the external persistence collaborator;
	// snapshots arrive over POST /snapshots/{feed}.
	feeds := &feedSet{
		roster:  feed.NewMemoryFeed[model.Entity](feed.WithBufferSize(cfg.FeedBufferSize)),
		midterm: feed.NewMemoryFeed[model.RawSubmission](feed.WithBufferSize(cfg.FeedBufferSize)),
		final:   feed.NewMemoryFeed[model.RawSubmission](feed.WithBufferSize(cfg.FeedBufferSize)),
	}

	// Create and start the coordinator with configuration options
	svc := app.New(
		app.Feeds{
			Roster:  feeds.roster,
			Midterm: feeds.midterm,
			Final:   feeds.final,
		},
		app.WithLogger(log),
		app.WithDefaultPageSize(cfg.DefaultPageSize),
		app.WithSectionFilter(cfg.SectionFilter),
	)
	if err := svc.Start(ctx); err != nil {
		os.Stderr.WriteString("failed to start coordinator: " + err.Error() + "\n")
		return
	}
	defer svc.Stop()

	// HTTP mux and routes.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	apiServer := api.NewServer(svc, feeds, cfg.MaxPageSize)
	apiServer.Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	// Start the HTTP server
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
			return
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}
