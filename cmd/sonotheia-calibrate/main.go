// Command sonotheia-calibrate runs the offline threshold sweep.
//
// Labeled per-sensor scores come either from a JSON file (-scores) or from
// the PostgreSQL labeled-score store (-dsn). For every sensor with enough
// samples it finds the equal-error-rate threshold, then writes all results
// as one calibration artifact the detection service loads at startup. The
// artifact write is atomic, so a service re-reading the path mid-write
// never sees a torn file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/doronpers/sonotheia/internal/calibration"
	"github.com/doronpers/sonotheia/internal/config"
)

// populations is the -scores file schema: sensor name to labeled score
// lists.
type populations struct {
	Genuine []float64 `json:"genuine"`
	Spoof   []float64 `json:"spoof"`
}

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the YAML configuration file (optional)")
	scoresPath := flag.String("scores", "", "JSON file of labeled scores per sensor")
	dsn := flag.String("dsn", "", "PostgreSQL DSN of the labeled-score store")
	outPath := flag.String("out", "", "artifact output path (defaults to calibration.artifact_path)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sonotheia-calibrate: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	out := *outPath
	if out == "" {
		out = cfg.Calibration.ArtifactPath
	}
	if out == "" {
		fmt.Fprintln(os.Stderr, "sonotheia-calibrate: no output path; pass -out or set calibration.artifact_path")
		return 1
	}

	source := *dsn
	if source == "" {
		source = cfg.Calibration.PostgresDSN
	}

	var (
		pops map[string]populations
		err  error
	)
	switch {
	case *scoresPath != "":
		pops, err = loadScoresFile(*scoresPath)
	case source != "":
		pops, err = loadScoresStore(ctx, source)
	default:
		fmt.Fprintln(os.Stderr, "sonotheia-calibrate: no score source; pass -scores or -dsn")
		return 1
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "sonotheia-calibrate: %v\n", err)
		return 1
	}

	artifact := calibration.NewArtifact()
	calibrated := 0
	for name, p := range pops {
		res, err := calibration.Optimize(name, p.Genuine, p.Spoof)
		if err != nil {
			slog.Warn("sensor skipped",
				"sensor", name,
				"genuine", len(p.Genuine),
				"spoof", len(p.Spoof),
				"err", err,
			)
			continue
		}
		artifact.Add(res)
		calibrated++
		slog.Info("sensor calibrated",
			"sensor", name,
			"threshold", res.OptimalThreshold,
			"threshold_type", res.ThresholdType,
			"eer", res.EER,
			"auc", res.AUC,
		)
	}
	if calibrated == 0 {
		fmt.Fprintln(os.Stderr, "sonotheia-calibrate: no sensor produced a usable threshold")
		return 1
	}

	if err := artifact.Save(out); err != nil {
		fmt.Fprintf(os.Stderr, "sonotheia-calibrate: %v\n", err)
		return 1
	}
	slog.Info("artifact written", "path", out, "sensors", calibrated)
	return 0
}

// loadScoresFile parses a JSON map of sensor name to labeled populations.
func loadScoresFile(path string) (map[string]populations, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scores: %w", err)
	}
	pops := make(map[string]populations)
	if err := json.Unmarshal(data, &pops); err != nil {
		return nil, fmt.Errorf("parse scores %s: %w", path, err)
	}
	return pops, nil
}

// loadScoresStore pulls every sensor's labeled populations from PostgreSQL.
func loadScoresStore(ctx context.Context, dsn string) (map[string]populations, error) {
	store, err := calibration.NewStore(ctx, dsn)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	sensors, err := store.Sensors(ctx)
	if err != nil {
		return nil, err
	}
	pops := make(map[string]populations, len(sensors))
	for _, name := range sensors {
		genuine, spoof, err := store.Populations(ctx, name)
		if err != nil {
			return nil, err
		}
		pops[name] = populations{Genuine: genuine, Spoof: spoof}
	}
	return pops, nil
}
