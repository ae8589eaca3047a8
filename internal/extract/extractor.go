package extract

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"chcli/internal/config"
	apperrors "chcli/internal/errors"
	"chcli/internal/files"
	"chcli/internal/infrastructure"
	"chcli/internal/store"
	"chcli/pkg/contracts/domain"
)

// Summary reports what one extractor run did.
type Summary struct {
	Archives        int    `json:"archives"`
	RowsRead        int64  `json:"rows_read"`
	RowsSkipped     int64  `json:"rows_skipped"`
	Duplicates      int64  `json:"duplicates"`
	RowsWritten     int64  `json:"rows_written"`
	CombinedParquet string `json:"combined_parquet"`
}

// Extractor drives the snapshot-to-parquet pipeline: discover archives,
// unpack and parse them in parallel, merge the parts into one
// deduplicated record file.
type Extractor struct {
	cfg      *config.Config
	paths    *config.Paths
	manager  *files.Manager
	metrics  *infrastructure.RunMetrics
	progress *rate.Limiter

	zips  []files.FileInfo
	parts []string

	rowsRead    atomic.Int64
	rowsSkipped atomic.Int64
	duplicates  int64
	rowsWritten int64
}

// NewExtractor wires an extractor against the resolved configuration.
func NewExtractor(cfg *config.Config, paths *config.Paths, metrics *infrastructure.RunMetrics) *Extractor {
	return &Extractor{
		cfg:      cfg,
		paths:    paths,
		manager:  files.NewManager(paths),
		metrics:  metrics,
		progress: rate.NewLimiter(rate.Every(2*time.Second), 1),
	}
}

// Discover locates the snapshot archives and fixes the processing order.
func (e *Extractor) Discover(ctx context.Context) error {
	discovery := files.NewDiscovery(e.paths.DataDir)
	zips, err := discovery.FindZipFiles(e.paths.ZipsDir)
	if err != nil {
		return apperrors.Wrap(err, "FILESYSTEM_ERROR", "Failed to scan for snapshot archives")
	}
	if len(zips) == 0 {
		return apperrors.NewWithDetails("NO_INPUT",
			"No snapshot archives found", e.paths.ZipsDir)
	}

	e.zips = zips
	e.parts = make([]string, len(zips))

	totalBytes := files.TotalSize(zips)
	infrastructure.SetSpanAttributes(ctx, map[string]interface{}{
		"archives.count":       len(zips),
		"archives.total_bytes": totalBytes,
	})
	infrastructure.InfoContext(ctx, "Discovered snapshot archives",
		"count", len(zips),
		"total_bytes", totalBytes)
	return nil
}

// Unpack expands and parses every archive into a per-archive parquet
// part, fanning the archives out across a bounded worker group.
func (e *Extractor) Unpack(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Extract.Workers)

	for i, archive := range e.zips {
		i, archive := i, archive
		g.Go(func() error {
			return e.unpackArchive(ctx, i, archive)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	infrastructure.InfoContext(ctx, "Unpacked snapshot archives",
		"archives", len(e.zips),
		"rows_read", e.rowsRead.Load(),
		"rows_skipped", e.rowsSkipped.Load())
	return nil
}

func (e *Extractor) unpackArchive(ctx context.Context, index int, archive files.FileInfo) error {
	started := time.Now()

	csvPaths, err := ExtractArchive(ctx, archive.Path, e.paths.StagingDir)
	if err != nil {
		return err
	}
	if len(csvPaths) == 0 {
		return apperrors.NewWithDetails("SNAPSHOT_FORMAT",
			"Archive contains no CSV files", archive.Name)
	}

	partPath := e.paths.GetStagingPath(partName(archive.Name))
	writer, err := store.NewCompanyWriter(partPath)
	if err != nil {
		return err
	}

	var rowsRead, rowsSkipped int64
	for _, csvPath := range csvPaths {
		stats, err := ParseSnapshotCSV(ctx, csvPath, e.cfg.Series.BatchSize, func(batch []domain.CompanyRow) error {
			return writer.Write(batch)
		})
		if err != nil {
			writer.Abort()
			return err
		}
		rowsRead += stats.RowsRead
		rowsSkipped += stats.RowsSkipped
	}

	if err := writer.Close(); err != nil {
		return err
	}

	e.parts[index] = partPath
	e.rowsRead.Add(rowsRead)
	e.rowsSkipped.Add(rowsSkipped)
	e.metrics.ArchivesProcessed.Inc()
	e.metrics.RowsRead.Add(float64(rowsRead))
	e.metrics.RowsSkipped.Add(float64(rowsSkipped))

	infrastructure.InfoContext(ctx, "Parsed snapshot archive",
		"archive", archive.Name,
		"rows", rowsRead,
		"skipped", rowsSkipped,
		"part", filepath.Base(partPath),
		"elapsed", time.Since(started).Round(time.Millisecond).String())
	return nil
}

// merger accumulates deduplicated rows and writes them out in batches.
// The first occurrence of a company number wins; parts arrive in archive
// order, so that is the earliest snapshot's version of the row.
type merger struct {
	writer     *store.CompanyWriter
	seen       map[string]struct{}
	batch      []domain.CompanyRow
	written    int64
	duplicates int64
}

func (m *merger) add(row domain.CompanyRow) error {
	if _, dup := m.seen[row.CompanyNumber]; dup {
		m.duplicates++
		return nil
	}
	m.seen[row.CompanyNumber] = struct{}{}

	m.batch = append(m.batch, row)
	if len(m.batch) == cap(m.batch) {
		return m.flush()
	}
	return nil
}

func (m *merger) flush() error {
	if len(m.batch) == 0 {
		return nil
	}
	if err := m.writer.Write(m.batch); err != nil {
		return err
	}
	m.written += int64(len(m.batch))
	m.batch = m.batch[:0]
	return nil
}

// Merge streams the parts back in archive order, keeps the first
// occurrence of every company number, and publishes the combined parquet
// file into the data directory.
func (e *Extractor) Merge(ctx context.Context) error {
	stagedCombined := e.paths.GetStagingPath(config.CombinedParquetName)
	writer, err := store.NewCompanyWriter(stagedCombined)
	if err != nil {
		return err
	}

	m := &merger{
		writer: writer,
		seen:   make(map[string]struct{}, 1<<20),
		batch:  make([]domain.CompanyRow, 0, e.cfg.Series.BatchSize),
	}

	for _, part := range e.parts {
		if err := e.mergePart(ctx, part, m); err != nil {
			writer.Abort()
			return err
		}
	}
	if err := m.flush(); err != nil {
		writer.Abort()
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	e.duplicates = m.duplicates
	e.rowsWritten = m.written

	if err := e.manager.MoveFile(stagedCombined, e.paths.CombinedParquet); err != nil {
		return apperrors.StoreWriteError(e.paths.CombinedParquet, err)
	}

	if !e.cfg.Extract.KeepStaging {
		if err := e.manager.CleanDirectory(e.paths.StagingDir); err != nil {
			// Non-fatal: the combined file is already published.
			infrastructure.RecordError(ctx, err)
			infrastructure.WarnContext(ctx, "Failed to clean staging directory", "error", err)
		}
	}

	e.metrics.RowsDeduplicated.Add(float64(e.duplicates))
	e.metrics.RowsWritten.Add(float64(e.rowsWritten))

	infrastructure.AddSpanEvent(ctx, "merge.completed", map[string]interface{}{
		"rows_written": e.rowsWritten,
		"duplicates":   e.duplicates,
	})
	infrastructure.InfoContext(ctx, "Merged snapshot parts",
		"parts", len(e.parts),
		"rows_written", e.rowsWritten,
		"duplicates", e.duplicates,
		"combined", e.paths.CombinedParquet)
	return nil
}

func (e *Extractor) mergePart(ctx context.Context, part string, m *merger) error {
	reader, err := store.OpenCompanyReader(part)
	if err != nil {
		return err
	}
	defer reader.Close()

	buf := make([]domain.CompanyRow, e.cfg.Series.BatchSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := reader.ReadBatch(buf)
		for i := 0; i < n; i++ {
			if err := m.add(buf[i]); err != nil {
				return err
			}
		}

		if e.progress.Allow() {
			infrastructure.InfoContext(ctx, "Merging records",
				"part", filepath.Base(part),
				"rows_written", m.written,
				"unique_companies", len(m.seen))
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return apperrors.StoreReadError(part, err)
		}
	}
}

// Summary returns the run totals. Valid after Merge has finished.
func (e *Extractor) Summary() Summary {
	return Summary{
		Archives:        len(e.zips),
		RowsRead:        e.rowsRead.Load(),
		RowsSkipped:     e.rowsSkipped.Load(),
		Duplicates:      e.duplicates,
		RowsWritten:     e.rowsWritten,
		CombinedParquet: e.paths.CombinedParquet,
	}
}

func partName(zipName string) string {
	return strings.TrimSuffix(zipName, filepath.Ext(zipName)) + config.PartParquetSuffix
}
