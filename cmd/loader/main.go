// Package main is the entrypoint for the CSV loader.
//
// The loader is a batch adapter invoked by a surrounding job framework with
// a list of input files. It runs one of two pipelines over that list:
//
//	geostreams — parse each CSV row by row and post sensor/stream/datapoint
//	             resources to the geospatial time-series store
//	betydb     — POST each CSV file wholesale to the trait database
//
// Usage:
//
//	go run ./cmd/loader --pipeline=geostreams plots.csv
//	go run ./cmd/loader --pipeline=betydb traits.csv
//
// Configuration (store URLs, keys, plot-name override, default geometry)
// comes from environment variables, optionally via a .env file; see
// internal/config. The run result is printed to stdout as JSON and the
// process exit code reflects the result code.
//
// This file handles dependency wiring only; all pipeline logic lives in
// internal/ingest.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"geostream/internal/config"
	"geostream/internal/external"
	"geostream/internal/ingest"
	"geostream/internal/types"
)

func main() {
	pipeline := flag.String("pipeline", "geostreams", "pipeline to run: geostreams or betydb")
	flag.Parse()
	paths := flag.Args()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	runner, err := buildRunner(cfg, logger, *pipeline)
	if err != nil {
		logger.Error("failed to assemble pipeline", "pipeline", *pipeline, "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	var result types.RunResult
	switch *pipeline {
	case "geostreams":
		result = runner.RunGeostreams(ctx, paths)
	case "betydb":
		result = runner.RunBulkUpload(ctx, paths)
	default:
		logger.Error("unknown pipeline", "pipeline", *pipeline)
		os.Exit(1)
	}

	if err := json.NewEncoder(os.Stdout).Encode(result); err != nil {
		logger.Error("failed to encode run result", "error", err)
		os.Exit(1)
	}
	if result.Code != ingest.CodeSuccess {
		os.Exit(1)
	}
}

// buildRunner wires the clients and processors the selected pipeline needs.
func buildRunner(cfg *config.Config, logger *slog.Logger, pipeline string) (*ingest.Runner, error) {
	runner := &ingest.Runner{Log: logger}

	switch pipeline {
	case "geostreams":
		if cfg.Geostreams.URL == "" {
			return nil, fmt.Errorf("GEOSTREAMS_URL is required for the geostreams pipeline")
		}

		geoClient := external.NewGeostreamsClient(
			&http.Client{Timeout: cfg.Geostreams.Timeout},
			external.GeostreamsClientConfig{
				BaseURL: cfg.Geostreams.URL,
				Key:     cfg.Geostreams.Key,
				Logger:  logger,
			},
		)

		var sites external.SiteLookup
		if cfg.SiteLookup.URL != "" {
			sites = external.NewSiteLookupClient(
				&http.Client{Timeout: cfg.SiteLookup.Timeout},
				external.SiteLookupClientConfig{
					BaseURL: cfg.SiteLookup.URL,
					Key:     cfg.SiteLookup.Key,
					Logger:  logger,
				},
			)
		}

		defaultGeometry, err := parseDefaultGeometry(cfg.Loader.DefaultGeometry)
		if err != nil {
			return nil, err
		}

		runner.Processor = &ingest.RowProcessor{
			Resolver:        &ingest.Resolver{Geostreams: geoClient, Sites: sites, Log: logger},
			Submitter:       &ingest.Submitter{Geostreams: geoClient, Log: logger},
			PlotName:        cfg.Loader.PlotName,
			DefaultGeometry: defaultGeometry,
			Log:             logger,
		}

	case "betydb":
		if cfg.Traits.URL == "" {
			return nil, fmt.Errorf("BETYDB_URL is required for the betydb pipeline")
		}

		runner.Traits = external.NewBETYdbClient(
			&http.Client{Timeout: cfg.Traits.Timeout},
			external.TraitsClientConfig{
				TraitsURL: external.TraitsEndpoint(cfg.Traits.URL),
				Key:       cfg.Traits.Key,
				Logger:    logger,
			},
		)
	}

	return runner, nil
}

// parseDefaultGeometry decodes the optional GeoJSON Point override.
func parseDefaultGeometry(raw string) (*types.Geometry, error) {
	if raw == "" {
		return nil, nil
	}
	var g types.Geometry
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("DEFAULT_GEOMETRY is not valid GeoJSON: %w", err)
	}
	return &g, nil
}

// parseLogLevel maps the LOG_LEVEL config value to a slog level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
