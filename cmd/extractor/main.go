package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"chcli/internal/config"
	"chcli/internal/extract"
	"chcli/internal/infrastructure"
	"chcli/internal/pipeline"
	"chcli/pkg/contracts"
)

func main() {
	dataDir := flag.String("data", "", "base directory for the data tree (defaults to the executable directory)")
	workers := flag.Int("workers", 0, "concurrent archive workers (defaults to the configured value)")
	keepStaging := flag.Bool("keep-staging", false, "keep per-archive part files after the merge")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *dataDir != "" {
		cfg.Paths.BaseDir = *dataDir
	}
	if *workers > 0 {
		cfg.Extract.Workers = *workers
	}
	if *keepStaging {
		cfg.Extract.KeepStaging = true
	}

	paths, err := cfg.ResolvePaths()
	if err != nil {
		slog.Error("Failed to initialize paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", "error", err)
		os.Exit(1)
	}

	if cfg.Logging.FilePath == config.DefaultLogFile {
		cfg.Logging.FilePath = paths.GetLogPath("extractor.log")
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.ContextWithRunID(context.Background())

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.EnableTracing = cfg.Telemetry.TracingEnabled
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		slog.Error("Failed to initialize telemetry", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting snapshot extraction",
		slog.String("version", contracts.Version),
		slog.String("zips_dir", paths.ZipsDir),
		slog.String("combined_parquet", paths.CombinedParquet),
		slog.Int("workers", cfg.Extract.Workers),
		slog.Bool("keep_staging", cfg.Extract.KeepStaging),
		slog.String("run_id", infrastructure.GetRunID(ctx)))

	metrics := infrastructure.NewRunMetrics("extractor")
	extractor := extract.NewExtractor(cfg, paths, metrics)

	runner := pipeline.NewRunner(providers.Tracer)
	runner.Add(
		pipeline.NewStage("discover", "Discover snapshot archives", extractor.Discover),
		pipeline.NewStage("unpack", "Unpack and parse archives", extractor.Unpack),
		pipeline.NewStage("merge", "Merge parts into the combined table", extractor.Merge),
	)

	start := time.Now()
	result, runErr := runner.Run(ctx)

	if cfg.Telemetry.MetricsEnabled {
		metricsPath := paths.GetMetricsPath("extractor", start)
		if err := metrics.WriteTextfile(metricsPath, time.Since(start)); err != nil {
			infrastructure.WarnContext(ctx, "Failed to write metrics textfile",
				slog.String("path", metricsPath),
				slog.String("error", err.Error()))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := providers.Shutdown(shutdownCtx); err != nil {
		slog.Warn("Telemetry shutdown failed", "error", err)
	}

	if runErr != nil {
		infrastructure.ErrorContext(ctx, "Extraction failed", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	summary := extractor.Summary()
	infrastructure.InfoContext(ctx, "Extraction completed",
		slog.Int("archives", summary.Archives),
		slog.Int64("rows_read", summary.RowsRead),
		slog.Int64("rows_skipped", summary.RowsSkipped),
		slog.Int64("duplicates", summary.Duplicates),
		slog.Int64("rows_written", summary.RowsWritten),
		slog.Duration("duration", result.Duration.Round(time.Millisecond)))

	fmt.Printf("Merged %d archives into %s (%d companies, %d duplicates dropped)\n",
		summary.Archives, summary.CombinedParquet, summary.RowsWritten, summary.Duplicates)
}
