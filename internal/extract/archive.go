package extract

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"chcli/internal/config"
	"chcli/internal/infrastructure"
)

var snapshotCSVRe = regexp.MustCompile("^" + config.SnapshotCSVPattern + "$")

// ExtractArchive expands the CSV entries of a snapshot archive into
// destDir and returns their paths in archive order. Entries that already
// exist with the right size are reused, so re-running the extractor does
// not repeat the expensive unzip.
func ExtractArchive(ctx context.Context, zipPath, destDir string) ([]string, error) {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer reader.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	var csvPaths []string
	for _, entry := range reader.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.FileInfo().IsDir() || !snapshotCSVRe.MatchString(strings.ToLower(entry.Name)) {
			continue
		}

		// Flatten to the base name; archive members must not escape the
		// staging directory.
		target := filepath.Join(destDir, filepath.Base(entry.Name))

		if info, err := os.Stat(target); err == nil && info.Size() == int64(entry.UncompressedSize64) {
			infrastructure.DebugContext(ctx, "Reusing extracted CSV",
				"csv", target,
				"size_bytes", info.Size())
			csvPaths = append(csvPaths, target)
			continue
		}

		if err := extractEntry(entry, target); err != nil {
			return nil, err
		}
		csvPaths = append(csvPaths, target)

		infrastructure.DebugContext(ctx, "Extracted CSV",
			"archive", filepath.Base(zipPath),
			"csv", target)
	}

	return csvPaths, nil
}

func extractEntry(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(target)
		return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}
	return dst.Sync()
}
