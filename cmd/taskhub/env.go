package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/tgienger/taskhub/internal/auth"
	"github.com/tgienger/taskhub/internal/cache"
	"github.com/tgienger/taskhub/internal/config"
	"github.com/tgienger/taskhub/internal/db"
	"github.com/tgienger/taskhub/internal/logging"
	"github.com/tgienger/taskhub/internal/perf"
	"github.com/tgienger/taskhub/internal/repository"
)

// errNotSignedIn is returned by commands that need a profile.
var errNotSignedIn = errors.New("not signed in; run 'taskhub login <email>' first")

// env is everything a command needs, built from the loaded configuration.
type env struct {
	cfg     *config.Config
	logger  *logging.Logger
	db      *db.DB
	session *auth.Session
	cache   *cache.Cache
	monitor *perf.Monitor
	repos   *repository.Repositories

	metrics *http.Server
}

type envOptions struct {
	// tui sends console logs to a file next to the database.
	tui bool
	// monitor forces operation timing on regardless of perf.enabled.
	monitor bool
}

func openEnv(ctx context.Context, root *rootOptions, opts envOptions) (*env, error) {
	path := root.configPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if opts.tui && (cfg.Logging.Output == "stderr" || cfg.Logging.Output == "stdout") {
		cfg.Logging.Output = filepath.Join(filepath.Dir(cfg.Database.Path), "taskhub.log")
		if err := os.MkdirAll(filepath.Dir(cfg.Logging.Output), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}

	logger, err := logging.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	e := &env{
		cfg:     cfg,
		logger:  logger,
		db:      database,
		session: auth.NewSession(database, logger),
		cache:   cache.New(),
	}

	if _, err := e.session.Restore(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}

	repoOpts := []repository.Option{
		repository.WithCache(e.cache),
		repository.WithLogger(logger),
		repository.WithCompensateOrphans(cfg.Tasks.CompensateOrphans),
	}
	if opts.monitor || cfg.Perf.Enabled || cfg.Metrics.Addr != "" {
		e.monitor = perf.NewMonitor(logger)
		repoOpts = append(repoOpts, repository.WithMonitor(e.monitor))
	}
	e.repos = repository.New(database, e.session, repoOpts...)

	if cfg.Metrics.Addr != "" {
		if err := e.serveMetrics(ctx); err != nil {
			_ = e.Close()
			return nil, err
		}
	}

	logger.Debug(ctx, "environment ready",
		zap.String("config", path),
		zap.String("database", cfg.Database.Path),
		zap.Bool("perf", e.monitor != nil),
	)
	return e, nil
}

// serveMetrics exposes the monitor's registry on metrics.addr until Close.
func (e *env) serveMetrics(ctx context.Context) error {
	ln, err := net.Listen("tcp", e.cfg.Metrics.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", e.cfg.Metrics.Addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.monitor.Registry(), promhttp.HandlerOpts{}))
	e.metrics = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := e.metrics.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			e.logger.Error(ctx, "metrics server failed", zap.Error(err))
		}
	}()
	e.logger.Info(ctx, "serving metrics", zap.String("addr", ln.Addr().String()))
	return nil
}

// Close stops the metrics server and releases the database.
func (e *env) Close() error {
	var errs []error
	if e.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		errs = append(errs, e.metrics.Shutdown(ctx))
	}
	errs = append(errs, e.db.Close(), e.logger.Sync())
	return errors.Join(errs...)
}

// requireUser fails with a hint when nobody is signed in.
func (e *env) requireUser() error {
	if e.session.CurrentUser() == nil {
		return errNotSignedIn
	}
	return nil
}
