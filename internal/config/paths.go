package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	ExecutableDir string
	DataDir       string
	ZipsDir       string
	StagingDir    string
	SeriesDir     string
	ChartsDir     string
	MetricsDir    string
	LogsDir       string

	// Well-known data files
	CombinedParquet string
}

// GetPaths returns the application paths relative to the executable location
// All paths are ALWAYS relative to the executable directory, never the current working directory
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	// Get the directory containing the executable
	exeDir := filepath.Dir(exe)

	return PathsAt(exeDir), nil
}

// PathsAt builds the path set rooted at the given base directory.
// Used directly by tests and by the data-dir override; GetPaths feeds it
// the executable directory.
//
// Directory structure:
//
//	<base>/
//	  ├── data/
//	  │   ├── zips/       (downloaded snapshot archives)
//	  │   ├── staging/    (per-archive Parquet parts)
//	  │   ├── series/     (Arrow IPC series stores)
//	  │   ├── charts/     (rendered charts and export tables)
//	  │   ├── metrics/    (Prometheus textfiles, one per run)
//	  │   └── companies.parquet
//	  └── logs/           (application logs)
func PathsAt(baseDir string) *Paths {
	dataDir := filepath.Join(baseDir, DataDirName)

	return &Paths{
		ExecutableDir: baseDir,
		DataDir:       dataDir,
		ZipsDir:       filepath.Join(dataDir, ZipsDirName),
		StagingDir:    filepath.Join(dataDir, StagingDirName),
		SeriesDir:     filepath.Join(dataDir, SeriesDirName),
		ChartsDir:     filepath.Join(dataDir, ChartsDirName),
		MetricsDir:    filepath.Join(dataDir, MetricsDirName),
		LogsDir:       filepath.Join(baseDir, LogsDirName),

		CombinedParquet: filepath.Join(dataDir, CombinedParquetName),
	}
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.ZipsDir,
		p.StagingDir,
		p.SeriesDir,
		p.ChartsDir,
		p.MetricsDir,
		p.LogsDir,
	}

	logger := slog.Default()

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}

		if logger != nil {
			logger.Debug("Ensured directory exists",
				slog.String("directory", dir))
		}
	}

	return nil
}

// GetRelativePath returns a path relative to the executable directory
func (p *Paths) GetRelativePath(subpath string) string {
	return filepath.Join(p.ExecutableDir, subpath)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// GetZipPath returns the path for a downloaded snapshot archive
func (p *Paths) GetZipPath(filename string) string {
	return filepath.Join(p.ZipsDir, filename)
}

// GetStagingPath returns the path for a per-archive Parquet part
func (p *Paths) GetStagingPath(filename string) string {
	return filepath.Join(p.StagingDir, filename)
}

// GetCombinedParquetPath returns the path for the combined company table
func (p *Paths) GetCombinedParquetPath() string {
	return p.CombinedParquet
}

// GetSeriesStorePath returns the path for a named series store
func (p *Paths) GetSeriesStorePath(name string) string {
	return filepath.Join(p.SeriesDir, name+SeriesStoreExtension)
}

// GetChartPath returns the path for a rendered chart or export table
func (p *Paths) GetChartPath(filename string) string {
	return filepath.Join(p.ChartsDir, filename)
}

// GetMetricsPath returns the path for a Prometheus textfile for the
// given binary, stamped so successive runs never overwrite each other
func (p *Paths) GetMetricsPath(binary string, at time.Time) string {
	filename := fmt.Sprintf("%s_%s.prom", binary, at.Format("20060102_150405"))
	return filepath.Join(p.MetricsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// LogPathResolution logs detailed path resolution information for debugging
func (p *Paths) LogPathResolution() {
	logger := slog.Default()
	if logger == nil {
		return
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("executable", p.ExecutableDir),
			slog.String("data", p.DataDir),
			slog.String("zips", p.ZipsDir),
			slog.String("staging", p.StagingDir),
			slog.String("series", p.SeriesDir),
			slog.String("charts", p.ChartsDir),
			slog.String("metrics", p.MetricsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("data_files",
			slog.String("combined_parquet", p.CombinedParquet),
		))
}
