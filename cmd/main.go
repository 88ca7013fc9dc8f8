package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/edurate/internal/adapters/blobstore"
	"github.com/okian/edurate/internal/adapters/http/api"
	"github.com/okian/edurate/internal/adapters/http/swagger"
	"github.com/okian/edurate/internal/adapters/textgen"
	service "github.com/okian/edurate/internal/app"
	"github.com/okian/edurate/internal/config"
	"github.com/okian/edurate/pkg/logger"
	"github.com/okian/edurate/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 90 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
	leaderboardMaxLimit   = 100
)

var errUnknownDriver = errors.New("unknown store driver")

func main() {
	// Custom system metrics replace the default Go collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// defaults -> optional file -> env
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	store, err := openStore(ctx, cfg.Store)
	if err != nil {
		log.Error(ctx, "failed to open model store", logger.String("driver", cfg.Store.Driver), logger.Error(err))
		return
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithQueueSize(cfg.Feedback.QueueSize),
		service.WithDedupeSize(cfg.Feedback.DedupeSize),
		service.WithHistoryLimit(cfg.Rating.HistoryLimit),
		service.WithPredictionSeed(cfg.Prediction.Seed),
		service.WithRetainTraining(cfg.Prediction.RetainTraining),
		service.WithDefaultTasks(cfg.Improvement.DefaultTasks),
		service.WithStore(store),
		service.WithCheckpointSchedule(cfg.Checkpoint.Schedule),
	}
	if c := newCompleter(cfg.TextGen, log); c != nil {
		opts = append(opts, service.WithCompleter(c))
	} else {
		log.Info(ctx, "no text generation key configured; using template advice")
	}

	svc := service.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		_ = store.Close()
		return
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, leaderboardMaxLimit).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// openStore builds the model store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConfig) (blobstore.Store, error) {
	switch cfg.Driver {
	case "file":
		return blobstore.NewFileStore(cfg.Path)
	case "sqlite":
		return blobstore.NewSQLiteStore(cfg.SQLitePath)
	case "redis":
		return blobstore.NewRedisStore(ctx, blobstore.RedisConfig{
			Addr:      cfg.RedisAddr,
			Password:  cfg.RedisPassword,
			DB:        cfg.RedisDB,
			KeyPrefix: cfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownDriver, cfg.Driver)
	}
}

// newCompleter returns a text generation client, or nil without an API key.
func newCompleter(cfg config.TextGenConfig, log logger.Logger) *textgen.Client {
	if cfg.APIKey == "" {
		return nil
	}
	return textgen.NewClient(cfg.APIKey,
		textgen.WithBaseURL(cfg.BaseURL),
		textgen.WithModel(cfg.Model),
		textgen.WithTimeout(time.Duration(cfg.TimeoutMS)*time.Millisecond),
		textgen.WithLogger(log.Named("textgen")),
	)
}

// startSystemMetricsUpdater refreshes process metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}
