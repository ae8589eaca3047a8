package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"chcli/internal/config"
	apperrors "chcli/internal/errors"
	"chcli/internal/infrastructure"
	"chcli/internal/pipeline"
	"chcli/internal/series"
	"chcli/internal/store"
	"chcli/pkg/contracts"
	"chcli/pkg/contracts/domain"
)

func main() {
	dataDir := flag.String("data", "", "base directory for the data tree (defaults to the executable directory)")
	from := flag.String("from", "", "observation period start, YYYY-MM-DD (defaults to the configured value)")
	to := flag.String("to", "", "observation period end, YYYY-MM-DD (defaults to the configured value)")
	granularity := flag.String("granularity", "", "bucket granularity: day, month or year (defaults to the configured value)")
	inclusiveEnd := flag.Bool("inclusive-end", false, "count incorporations on the period end date as well")
	truncate := flag.Int("truncate", 0, "trailing postcode characters dropped when grouping (defaults to the configured value)")
	storeName := flag.String("store", "", "series store name without extension (defaults to the configured value)")
	shardSalt := flag.String("shard-salt", "", "salt for deterministic shard selection (defaults to the configured value)")
	shardStart := flag.Int("shard-start", -1, "first group index of the shard, inclusive")
	shardStop := flag.Int("shard-stop", -1, "group index the shard stops before; 0 disables sharding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *dataDir != "" {
		cfg.Paths.BaseDir = *dataDir
	}
	if *from != "" {
		cfg.Series.PeriodStart = *from
	}
	if *to != "" {
		cfg.Series.PeriodEnd = *to
	}
	if *granularity != "" {
		cfg.Series.Granularity = *granularity
	}
	if *inclusiveEnd {
		cfg.Series.EndInclusive = true
	}
	if *truncate > 0 {
		cfg.Series.TruncateChars = *truncate
	}
	if *storeName != "" {
		cfg.Series.StoreName = *storeName
	}
	if *shardSalt != "" {
		cfg.Shard.Salt = *shardSalt
	}
	if *shardStart >= 0 {
		cfg.Shard.Start = *shardStart
	}
	if *shardStop >= 0 {
		cfg.Shard.Stop = *shardStop
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
		cfg.Logging.FilePath = paths.GetLogPath("seriesgen.log")
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if err := cfg.ValidateSeries(); err != nil {
		slog.Error("Invalid series parameters", "error", err)
		os.Exit(1)
	}

	meta, err := cfg.Series.BucketMeta()
	if err != nil {
		slog.Error("Invalid bucket layout", "error", err)
		os.Exit(1)
	}

	aggregator, err := series.NewAggregator(meta, cfg.Series.TruncateChars)
	if err != nil {
		slog.Error("Failed to build aggregator", "error", err)
		os.Exit(1)
	}

	ctx := infrastructure.ContextWithRunID(context.Background())

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.EnableTracing = cfg.Telemetry.TracingEnabled
	providers, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		slog.Error("Failed to initialize telemetry", "error", err)
		os.Exit(1)
	}

	storePath := paths.GetSeriesStorePath(cfg.Series.StoreName)

	logger.Info("Starting series generation",
		slog.String("version", contracts.Version),
		slog.String("combined_parquet", paths.CombinedParquet),
		slog.String("series_store", storePath),
		slog.String("period_start", cfg.Series.PeriodStart),
		slog.String("period_end", cfg.Series.PeriodEnd),
		slog.String("granularity", cfg.Series.Granularity),
		slog.Bool("end_inclusive", cfg.Series.EndInclusive),
		slog.Int("truncate_chars", cfg.Series.TruncateChars),
		slog.Bool("sharded", cfg.Shard.Enabled()),
		slog.String("run_id", infrastructure.GetRunID(ctx)))

	metrics := infrastructure.NewRunMetrics("seriesgen")

	var table *domain.SeriesTable

	runner := pipeline.NewRunner(providers.Tracer)
	runner.Add(
		pipeline.NewStage("aggregate", "Aggregate incorporations into buckets", func(ctx context.Context) error {
			if !config.FileExists(paths.CombinedParquet) {
				return apperrors.NewWithDetails("NO_INPUT",
					"Combined company table not found, run the extractor first", paths.CombinedParquet)
			}

			reader, err := store.OpenCompanyReader(paths.CombinedParquet)
			if err != nil {
				return err
			}
			defer reader.Close()

			infrastructure.InfoContext(ctx, "Reading combined company table",
				slog.Int64("rows", reader.NumRows()),
				slog.Int("batch_size", cfg.Series.BatchSize))

			buf := make([]domain.CompanyRow, cfg.Series.BatchSize)
			for {
				n, err := reader.ReadBatch(buf)
				if n > 0 {
					records := make([]domain.Record, 0, n)
					for i := 0; i < n; i++ {
						records = append(records, buf[i].Record())
					}
					if perr := aggregator.ProcessBatch(ctx, records); perr != nil {
						return perr
					}
				}
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					return apperrors.StoreReadError(paths.CombinedParquet, err)
				}
			}

			stats := aggregator.Stats()
			metrics.RecordsProcessed.Add(float64(stats.Processed))
			metrics.RecordsMalformed.Add(float64(stats.Malformed))
			metrics.RecordsExcluded.Add(float64(stats.Excluded))
			metrics.BatchesProcessed.Add(float64(stats.Batches))
			return nil
		}),
		pipeline.NewStage("shard", "Select the configured group shard", func(ctx context.Context) error {
			full := aggregator.Finalize()
			sharded, err := series.ShardTable(full, series.ShardSpec{
				Enabled: cfg.Shard.Enabled(),
				Salt:    cfg.Shard.Salt,
				Start:   cfg.Shard.Start,
				Stop:    cfg.Shard.Stop,
			})
			if err != nil {
				return err
			}
			if cfg.Shard.Enabled() {
				infrastructure.InfoContext(ctx, "Shard selected",
					slog.Int("groups_before", full.NumGroups()),
					slog.Int("groups_after", sharded.NumGroups()),
					slog.Int("start", cfg.Shard.Start),
					slog.Int("stop", cfg.Shard.Stop))
			}
			table = sharded
			return nil
		}),
		pipeline.NewStage("write", "Write the series store", func(ctx context.Context) error {
			var extra map[string]string
			if cfg.Shard.Enabled() {
				extra = map[string]string{
					store.MetaShardSalt:  cfg.Shard.Salt,
					store.MetaShardRange: fmt.Sprintf("%d:%d", cfg.Shard.Start, cfg.Shard.Stop),
				}
			}
			if err := store.WriteSeriesStore(storePath, table, extra); err != nil {
				return err
			}
			groups := table.NumGroups()
			metrics.RowsWritten.Add(float64(groups))
			metrics.GroupsTotal.Set(float64(groups))
			return nil
		}),
	)

	start := time.Now()
	result, runErr := runner.Run(ctx)

	if cfg.Telemetry.MetricsEnabled {
		metricsPath := paths.GetMetricsPath("seriesgen", start)
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
		infrastructure.ErrorContext(ctx, "Series generation failed", slog.String("error", runErr.Error()))
		os.Exit(1)
	}

	stats := aggregator.Stats()
	infrastructure.InfoContext(ctx, "Series generation completed",
		slog.Int64("records_processed", stats.Processed),
		slog.Int64("records_counted", stats.Counted),
		slog.Int64("records_malformed", stats.Malformed),
		slog.Int64("records_excluded", stats.Excluded),
		slog.Int("groups", table.NumGroups()),
		slog.Int("buckets", table.BucketCount),
		slog.String("series_store", storePath),
		slog.Duration("duration", result.Duration.Round(time.Millisecond)))

	fmt.Printf("Wrote %d groups x %d buckets to %s (%d of %d records counted)\n",
		table.NumGroups(), table.BucketCount, storePath, stats.Counted, stats.Processed)
}
