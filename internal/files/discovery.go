package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"chcli/internal/config"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

var snapshotZipRe = regexp.MustCompile("^" + config.SnapshotZipPattern + "$")

// FindZipFiles finds snapshot archives in the specified directory. Results
// are sorted by name ascending; Companies House names archives by snapshot
// date, so name order is publication order and the extractor relies on it
// when resolving duplicate company numbers.
func (d *Discovery) FindZipFiles(dir string) ([]FileInfo, error) {
	files, err := d.listFiles(dir, func(name string) bool {
		return snapshotZipRe.MatchString(name)
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// FindParquetFiles finds finished parquet files in the specified directory,
// sorted by name ascending. In-progress part files are excluded.
func (d *Discovery) FindParquetFiles(dir string) ([]FileInfo, error) {
	files, err := d.listFiles(dir, func(name string) bool {
		lower := strings.ToLower(name)
		return strings.HasSuffix(lower, ".parquet") &&
			!strings.HasSuffix(lower, config.PartParquetSuffix)
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})

	return files, nil
}

// FindStoreFiles finds series store files in the specified directory.
func (d *Discovery) FindStoreFiles(dir string) ([]FileInfo, error) {
	return d.listFiles(dir, func(name string) bool {
		return strings.HasSuffix(strings.ToLower(name), config.SeriesStoreExtension)
	})
}

// listFiles returns the regular files in dir whose name passes match.
func (d *Discovery) listFiles(dir string, match func(string) bool) ([]FileInfo, error) {
	// If dir is already absolute, use it directly
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !match(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	return files, nil
}

// GetLatestFile returns the most recently modified file from a list
func GetLatestFile(files []FileInfo) (FileInfo, bool) {
	if len(files) == 0 {
		return FileInfo{}, false
	}

	latest := files[0]
	for _, file := range files[1:] {
		if file.ModTime.After(latest.ModTime) {
			latest = file
		}
	}

	return latest, true
}

// TotalSize returns the combined size in bytes of the given files.
func TotalSize(files []FileInfo) int64 {
	var total int64
	for _, file := range files {
		total += file.Size
	}
	return total
}
