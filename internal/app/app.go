// Package app wires all Sonotheia subsystems into a running service.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems — configuration runtime, telemetry providers, the neural
// scorer, the calibration artifact, and the detection pipeline — Run serves
// the observability listener until the context is cancelled, and Shutdown
// tears everything down in order.
//
// For testing, inject doubles via functional options (WithScorerProvider,
// WithArtifact). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/doronpers/sonotheia/internal/calibration"
	"github.com/doronpers/sonotheia/internal/config"
	"github.com/doronpers/sonotheia/internal/health"
	"github.com/doronpers/sonotheia/internal/observe"
	"github.com/doronpers/sonotheia/internal/pipeline"
	"github.com/doronpers/sonotheia/pkg/scorer"
	"github.com/doronpers/sonotheia/pkg/scorer/mock"
)

// shutdownGrace bounds the HTTP listener's graceful drain.
const shutdownGrace = 5 * time.Second

// App owns all subsystem lifetimes.
type App struct {
	runtime  *config.Runtime
	pipeline *pipeline.Pipeline
	provider scorer.Provider
	artifact *calibration.Artifact
	registry *prometheus.Registry
	server   *http.Server

	// closers are called in order during Shutdown.
	closers []func(context.Context) error

	// stopOnce guards the Shutdown path.
	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithScorerProvider injects a scorer instead of building one from config.
func WithScorerProvider(p scorer.Provider) Option {
	return func(a *App) { a.provider = p }
}

// WithArtifact injects a calibration artifact instead of loading it from
// the configured path.
func WithArtifact(art *calibration.Artifact) Option {
	return func(a *App) { a.artifact = art }
}

// New creates an App by wiring all subsystems together. Initialisation is
// synchronous: telemetry providers, the scorer backend, the calibration
// artifact, and the pipeline are all ready when New returns.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("app: %w", err)
	}
	a := &App{runtime: config.NewRuntime(cfg)}
	for _, o := range opts {
		o(a)
	}

	configureLogging(cfg.Server.LogLevel)

	// Telemetry first so every later subsystem records into real providers.
	// A per-app registry keeps repeated initialisations from colliding on
	// the global Prometheus registry.
	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	otelShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		PromRegistry: a.registry,
	})
	if err != nil {
		return nil, fmt.Errorf("app: init telemetry: %w", err)
	}
	a.closers = append(a.closers, otelShutdown)

	if err := a.initScorer(cfg); err != nil {
		return nil, fmt.Errorf("app: init scorer: %w", err)
	}
	if err := a.initArtifact(cfg); err != nil {
		return nil, fmt.Errorf("app: init calibration: %w", err)
	}

	popts := []pipeline.Option{}
	if a.artifact != nil {
		popts = append(popts, pipeline.WithArtifact(a.artifact))
	}
	if a.provider != nil {
		popts = append(popts, pipeline.WithScorer(a.provider))
	}
	a.pipeline = pipeline.New(a.runtime, popts...)

	a.initServer(cfg)
	return a, nil
}

// Pipeline returns the wired detection pipeline.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipeline }

// Runtime returns the live configuration runtime.
func (a *App) Runtime() *config.Runtime { return a.runtime }

// initScorer builds the configured neural backend; empty provider disables
// the neural stage entirely.
func (a *App) initScorer(cfg *config.Config) error {
	if a.provider != nil {
		return nil // injected
	}
	switch cfg.Scorer.Provider {
	case "":
		slog.Info("no scorer configured; running on physics sensors only")
		return nil
	case "mock":
		a.provider = &mock.Scorer{FixedScore: 0.5}
		return nil
	case "remote":
		remote, err := scorer.NewRemote(scorer.RemoteConfig{
			BaseURL: cfg.Scorer.BaseURL,
			APIKey:  cfg.Scorer.APIKey,
			Model:   cfg.Scorer.Model,
			Timeout: cfg.Scorer.Timeout(),
		})
		if err != nil {
			return err
		}
		a.provider = remote
		return nil
	}
	return fmt.Errorf("unknown scorer provider %q", cfg.Scorer.Provider)
}

// initArtifact loads calibrated thresholds. A missing artifact is a warning
// rather than a startup failure: the sensors carry safe built-in defaults,
// and /readyz keeps reporting the gap.
func (a *App) initArtifact(cfg *config.Config) error {
	if a.artifact != nil || cfg.Calibration.ArtifactPath == "" {
		return nil
	}
	art, err := calibration.Load(cfg.Calibration.ArtifactPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("calibration artifact not found; using built-in thresholds",
				"path", cfg.Calibration.ArtifactPath)
			return nil
		}
		return err
	}
	a.artifact = art
	slog.Info("loaded calibration artifact",
		"path", cfg.Calibration.ArtifactPath,
		"sensors", len(art.Results),
	)
	return nil
}

// initServer assembles the observability listener: Prometheus metrics plus
// liveness and readiness probes. No listener is created when the address is
// empty.
func (a *App) initServer(cfg *config.Config) {
	if cfg.Server.MetricsAddr == "" {
		return
	}

	var checkers []health.Checker
	if cfg.Calibration.ArtifactPath != "" {
		checkers = append(checkers, health.CalibrationArtifact(cfg.Calibration.ArtifactPath))
	}
	if model := a.pipeline.Model(); model != nil {
		checkers = append(checkers, health.ScorerBreaker("scorer", model.Breaker()))
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	health.New(checkers...).Register(mux)

	a.server = &http.Server{
		Addr:    cfg.Server.MetricsAddr,
		Handler: mux,
	}
}

// Run serves the observability listener (when configured) and blocks until
// ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	if a.server != nil {
		go func() {
			slog.Info("observability listener started", "addr", a.server.Addr)
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return fmt.Errorf("app: observability listener: %w", err)
	}
}

// Shutdown tears down all subsystems in reverse-init order. It respects the
// context deadline: if ctx expires before all closers finish, remaining
// closers are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))

		if a.server != nil {
			drainCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
			if err := a.server.Shutdown(drainCtx); err != nil {
				slog.Warn("listener shutdown error", "err", err)
			}
			cancel()
		}

		for i := len(a.closers) - 1; i >= 0; i-- {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", i+1)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := a.closers[i](ctx); err != nil {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}

// configureLogging installs the default slog handler at the configured
// level.
func configureLogging(level config.LogLevel) {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}
