package exporter

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/xuri/excelize/v2"

	"chcli/internal/config"
	apperrors "chcli/internal/errors"
	"chcli/internal/files"
	"chcli/internal/series"
	"chcli/pkg/contracts/domain"
)

// xlsxSheetName is the single sheet every workbook export carries
const xlsxSheetName = "Series"

// SeriesExporter turns a finished series table into analyst-facing
// artefacts: key listings, bucket-per-row tables and comparison charts.
type SeriesExporter struct {
	csvWriter *CSVWriter
	paths     *config.Paths
}

// NewSeriesExporter creates a new series exporter
func NewSeriesExporter(paths *config.Paths) *SeriesExporter {
	return &SeriesExporter{
		csvWriter: NewCSVWriter(paths),
		paths:     paths,
	}
}

// ListEntry represents one group key in a listing
type ListEntry struct {
	Key   domain.GroupKey
	Total int64
	Share float64
}

// BuildList ranks the table's group keys by in-period total, busiest
// first with ties broken by key. A positive topN keeps only the first
// topN entries.
func (e *SeriesExporter) BuildList(table *domain.SeriesTable, topN int) []ListEntry {
	grand := table.Total()

	entries := make([]ListEntry, 0, table.NumGroups())
	for _, key := range table.Keys() {
		total := table.GroupTotal(key)
		entry := ListEntry{Key: key, Total: total}
		if grand > 0 {
			entry.Share = 100 * float64(total) / float64(grand)
		}
		entries = append(entries, entry)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].Key < entries[j].Key
	})

	if topN > 0 && topN < len(entries) {
		entries = entries[:topN]
	}
	return entries
}

// WriteList prints listing entries as an aligned text table
func (e *SeriesExporter) WriteList(out io.Writer, entries []ListEntry) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tTOTAL\tSHARE")
	for _, entry := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", entry.Key, formatInt(entry.Total), formatShare(entry.Share))
	}
	return w.Flush()
}

// ExportCSV writes the selected groups as a CSV table with one row per
// bucket: the bucket label followed by one count column per key. An
// empty selection exports every group in the table.
func (e *SeriesExporter) ExportCSV(table *domain.SeriesTable, keys []domain.GroupKey, outputPath string) error {
	keys, err := e.selectKeys(table, keys)
	if err != nil {
		return err
	}
	labels, err := bucketLabels(table)
	if err != nil {
		return err
	}

	records := make([][]string, table.BucketCount)
	for i := range records {
		row := make([]string, 0, len(keys)+1)
		row = append(row, labels[i])
		for _, key := range keys {
			counts, _ := table.Vector(key)
			row = append(row, formatInt(counts[i]))
		}
		records[i] = row
	}

	return e.csvWriter.WriteSimpleCSV(outputPath, e.tableHeaders(keys), records)
}

// ExportXLSX writes the selected groups as a single-sheet workbook with
// the same layout as ExportCSV
func (e *SeriesExporter) ExportXLSX(table *domain.SeriesTable, keys []domain.GroupKey, outputPath string) error {
	keys, err := e.selectKeys(table, keys)
	if err != nil {
		return err
	}
	labels, err := bucketLabels(table)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetAppProps(&excelize.AppProperties{
		Application: config.AppName,
		Company:     config.AppVendor,
	}); err != nil {
		return fmt.Errorf("failed to set workbook properties: %w", err)
	}
	f.SetSheetName(f.GetSheetName(0), xlsxSheetName)

	for col, header := range e.tableHeaders(keys) {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to address header cell: %w", err)
		}
		if err := f.SetCellValue(xlsxSheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header %s: %w", header, err)
		}
	}

	for i := 0; i < table.BucketCount; i++ {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address label cell: %w", err)
		}
		if err := f.SetCellValue(xlsxSheetName, cell, labels[i]); err != nil {
			return fmt.Errorf("failed to write bucket label: %w", err)
		}
		for col, key := range keys {
			counts, _ := table.Vector(key)
			cell, err := excelize.CoordinatesToCellName(col+2, i+2)
			if err != nil {
				return fmt.Errorf("failed to address count cell: %w", err)
			}
			if err := f.SetCellValue(xlsxSheetName, cell, counts[i]); err != nil {
				return fmt.Errorf("failed to write count for %s: %w", key, err)
			}
		}
	}

	fullPath := resolveOutputPath(e.paths, outputPath)
	err = files.WriteAtomic(fullPath, func(out *os.File) error {
		return f.Write(out)
	})
	if err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", fullPath, err)
	}
	return nil
}

// tableHeaders returns the column headers for tabular exports
func (e *SeriesExporter) tableHeaders(keys []domain.GroupKey) []string {
	headers := make([]string, 0, len(keys)+1)
	headers = append(headers, "Bucket")
	for _, key := range keys {
		headers = append(headers, string(key))
	}
	return headers
}

// selectKeys validates a key selection against the table. Empty
// selections mean every key, already sorted.
func (e *SeriesExporter) selectKeys(table *domain.SeriesTable, keys []domain.GroupKey) ([]domain.GroupKey, error) {
	if len(keys) == 0 {
		return table.Keys(), nil
	}
	for _, key := range keys {
		if _, ok := table.Vector(key); !ok {
			return nil, apperrors.UnknownGroupError(string(key))
		}
	}
	return keys, nil
}

// bucketLabels derives one date label per bucket from the table's metadata
func bucketLabels(table *domain.SeriesTable) ([]string, error) {
	bucketer, err := series.NewBucketer(table.Meta)
	if err != nil {
		return nil, err
	}
	if bucketer.Buckets() != table.BucketCount {
		return nil, apperrors.ErrBucketMismatch
	}
	return bucketer.Labels(), nil
}
