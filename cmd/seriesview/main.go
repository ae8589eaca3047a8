package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chcli/internal/config"
	"chcli/internal/exporter"
	"chcli/internal/files"
	"chcli/internal/infrastructure"
	"chcli/internal/store"
	"chcli/pkg/contracts/domain"
)

func main() {
	dataDir := flag.String("data", "", "base directory for the data tree (defaults to the executable directory)")
	storeFlag := flag.String("store", "", "series store name or path (defaults to the configured value)")
	top := flag.Int("top", 0, "limit the listing to the N largest groups")
	keysFlag := flag.String("keys", "", "comma-separated group keys to chart or export (defaults to all)")
	chartOut := flag.String("chart", "", "render a comparison chart to this .svg or .png file")
	csvOut := flag.String("csv", "", "export the bucket table to this CSV file")
	xlsxOut := flag.String("xlsx", "", "export the bucket table to this XLSX file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *dataDir != "" {
		cfg.Paths.BaseDir = *dataDir
	}
	if *storeFlag != "" {
		cfg.Series.StoreName = *storeFlag
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
		cfg.Logging.FilePath = paths.GetLogPath("seriesview.log")
	}
	if _, err := infrastructure.InitializeLogger(cfg.Logging); err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.ContextWithRunID(context.Background())

	start := time.Now()
	metrics := infrastructure.NewRunMetrics("seriesview")

	storePath := resolveStorePath(paths, cfg.Series.StoreName)
	if !config.FileExists(storePath) {
		slog.Error("Series store not found, run seriesgen first", "path", storePath)
		if stores, derr := files.NewDiscovery(paths.DataDir).FindStoreFiles(paths.SeriesDir); derr == nil && len(stores) > 0 {
			if latest, ok := files.GetLatestFile(stores); ok {
				slog.Info("Other series stores exist", "count", len(stores), "newest", latest.Name)
			}
		}
		os.Exit(1)
	}

	table, err := store.ReadSeriesStore(storePath)
	if err != nil {
		slog.Error("Failed to read series store", "path", storePath, "error", err)
		os.Exit(1)
	}

	md, err := store.ReadSeriesMeta(storePath)
	if err != nil {
		slog.Warn("Failed to read store metadata", "path", storePath, "error", err)
		md = nil
	}

	infrastructure.InfoContext(ctx, "Series store loaded",
		slog.String("path", storePath),
		slog.Int("groups", table.NumGroups()),
		slog.Int("buckets", table.BucketCount))
	metrics.GroupsTotal.Set(float64(table.NumGroups()))

	fmt.Printf("%s: %d groups x %d buckets, %s to %s per %s\n",
		filepath.Base(storePath), table.NumGroups(), table.BucketCount,
		table.Meta.PeriodStart.Format(domain.IncDateLayout),
		table.Meta.PeriodEnd.Format(domain.IncDateLayout),
		table.Meta.Granularity)
	if shardRange, ok := md[store.MetaShardRange]; ok {
		fmt.Printf("shard %s (salt %q)\n", shardRange, md[store.MetaShardSalt])
	}

	var keys []domain.GroupKey
	if *keysFlag != "" {
		for _, part := range strings.Split(*keysFlag, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				keys = append(keys, domain.GroupKey(part))
			}
		}
	}

	exp := exporter.NewSeriesExporter(paths)

	wantList := *top > 0 || (*chartOut == "" && *csvOut == "" && *xlsxOut == "")
	if wantList {
		entries := exp.BuildList(table, *top)
		if err := exp.WriteList(os.Stdout, entries); err != nil {
			slog.Error("Failed to write listing", "error", err)
			os.Exit(1)
		}
	}

	if *chartOut != "" {
		if err := exp.RenderComparison(table, keys, *chartOut); err != nil {
			slog.Error("Failed to render chart", "error", err)
			os.Exit(1)
		}
		fmt.Printf("Chart written to %s\n", outputTarget(paths, *chartOut))
	}

	if *csvOut != "" {
		if err := exp.ExportCSV(table, keys, *csvOut); err != nil {
			slog.Error("Failed to export CSV", "error", err)
			os.Exit(1)
		}
		metrics.RowsWritten.Add(float64(table.BucketCount))
		fmt.Printf("CSV written to %s\n", outputTarget(paths, *csvOut))
	}

	if *xlsxOut != "" {
		if err := exp.ExportXLSX(table, keys, *xlsxOut); err != nil {
			slog.Error("Failed to export XLSX", "error", err)
			os.Exit(1)
		}
		metrics.RowsWritten.Add(float64(table.BucketCount))
		fmt.Printf("XLSX written to %s\n", outputTarget(paths, *xlsxOut))
	}

	if cfg.Telemetry.MetricsEnabled {
		metricsPath := paths.GetMetricsPath("seriesview", start)
		if err := metrics.WriteTextfile(metricsPath, time.Since(start)); err != nil {
			infrastructure.WarnContext(ctx, "Failed to write metrics textfile",
				slog.String("path", metricsPath),
				slog.String("error", err.Error()))
		}
	}
}

// resolveStorePath accepts either a bare store name or a path to an
// .arrow file, so stores from other data trees can be inspected.
func resolveStorePath(paths *config.Paths, name string) string {
	if strings.ContainsAny(name, `/\`) {
		if abs, err := filepath.Abs(name); err == nil {
			return abs
		}
		return name
	}
	return paths.GetSeriesStorePath(strings.TrimSuffix(name, config.SeriesStoreExtension))
}

func outputTarget(paths *config.Paths, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return paths.GetChartPath(path)
}
