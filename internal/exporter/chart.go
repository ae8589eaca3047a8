package exporter

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"

	apperrors "chcli/internal/errors"
	"chcli/internal/files"
	"chcli/internal/series"
	"chcli/pkg/contracts/domain"
)

const (
	chartWidth  = 1280
	chartHeight = 720
)

// RenderComparison renders the selected groups as one line each over the
// table's real bucket dates. The file extension picks the format, .svg
// or .png. An empty selection charts every group in the table.
func (e *SeriesExporter) RenderComparison(table *domain.SeriesTable, keys []domain.GroupKey, outputPath string) error {
	keys, err := e.selectKeys(table, keys)
	if err != nil {
		return err
	}
	format, err := chartFormat(outputPath)
	if err != nil {
		return err
	}
	if table.BucketCount < 2 {
		return apperrors.ConfigError("period", "a comparison chart needs at least two buckets")
	}

	bucketer, err := series.NewBucketer(table.Meta)
	if err != nil {
		return err
	}
	times := make([]time.Time, table.BucketCount)
	for i := range times {
		times[i] = bucketer.BucketTime(i)
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Incorporations per %s", table.Meta.Granularity),
		Width:  chartWidth,
		Height: chartHeight,
		Series: make([]chart.Series, 0, len(keys)),
	}
	for _, key := range keys {
		counts, _ := table.Vector(key)
		values := make([]float64, len(counts))
		for i, count := range counts {
			values[i] = float64(count)
		}
		graph.Series = append(graph.Series, chart.TimeSeries{
			Name:    string(key),
			XValues: times,
			YValues: values,
		})
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	// Render into memory first so a failed render leaves no file behind
	var buf bytes.Buffer
	if err := graph.Render(format, &buf); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}

	fullPath := resolveOutputPath(e.paths, outputPath)
	err = files.WriteAtomic(fullPath, func(f *os.File) error {
		_, werr := f.Write(buf.Bytes())
		return werr
	})
	if err != nil {
		return fmt.Errorf("failed to write chart %s: %w", fullPath, err)
	}
	return nil
}

// chartFormat maps an output extension to a renderer
func chartFormat(path string) (chart.RendererProvider, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".svg":
		return chart.SVG, nil
	case ".png":
		return chart.PNG, nil
	default:
		return nil, apperrors.ExportFormatError(ext)
	}
}
