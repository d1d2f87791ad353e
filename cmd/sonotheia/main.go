// Command sonotheia is the voice anti-spoofing detection service.
//
// With -input it analyzes one raw PCM16LE clip and prints the decision
// envelope as JSON. Without -input it runs as a long-lived service, watching
// the config file for changes and serving metrics and health endpoints
// until interrupted.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/doronpers/sonotheia/internal/app"
	"github.com/doronpers/sonotheia/internal/config"
	"github.com/doronpers/sonotheia/pkg/audio"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	inputPath := flag.String("input", "", "raw PCM16LE mono file to analyze; \"-\" reads stdin")
	rate := flag.Int("rate", 16000, "sample rate of the input in Hz")
	fast := flag.Bool("fast", false, "force the reduced fast path")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sonotheia: %v\n", err)
		return 1
	}
	if *fast {
		cfg.FastPath.Force = true
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sonotheia: %v\n", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "err", err)
		}
	}()

	if *inputPath != "" {
		return analyzeOnce(ctx, application, *inputPath, *rate)
	}
	return serve(ctx, application, *configPath)
}

// loadConfig reads the config file, or returns production defaults when no
// path is given.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

// analyzeOnce scores a single clip and prints the decision envelope.
func analyzeOnce(ctx context.Context, application *app.App, path string, rate int) int {
	pcm, err := readInput(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sonotheia: read input: %v\n", err)
		return 1
	}
	if len(pcm) == 0 || len(pcm)%2 != 0 {
		fmt.Fprintf(os.Stderr, "sonotheia: input is not raw PCM16LE (%d bytes)\n", len(pcm))
		return 1
	}

	samples := audio.PCM16ToFloat64(pcm)
	dec, err := application.Pipeline().Analyze(ctx, samples, rate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sonotheia: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(dec); err != nil {
		fmt.Fprintf(os.Stderr, "sonotheia: encode decision: %v\n", err)
		return 1
	}
	return 0
}

func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// serve runs the long-lived service: config watcher plus the observability
// listener, until the signal context is cancelled.
func serve(ctx context.Context, application *app.App, configPath string) int {
	if configPath != "" {
		watcher, err := config.NewWatcher(configPath, application.Runtime())
		if err != nil {
			slog.Error("config watcher failed", "err", err)
			return 1
		}
		defer watcher.Stop()
	}

	slog.Info("sonotheia ready, press Ctrl+C to shut down")
	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("shutdown signal received, stopping")
	return 0
}
