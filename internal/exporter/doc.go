// Package exporter renders finished incorporation series for analysts.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing functionality with headers and an optional
// UTF-8 BOM for Excel compatibility.
//
// SeriesExporter: Turns a series table into analyst-facing artefacts: a
// key listing with in-period totals, CSV and XLSX tables with one row per
// bucket, and comparison line charts.
//
// All outputs resolve relative paths into the charts directory; absolute
// paths are honoured as given.
//
// Example usage:
//
//	exp := exporter.NewSeriesExporter(paths)
//
//	// Print the ten busiest postcode groups
//	entries := exp.BuildList(table, 10)
//	exp.WriteList(os.Stdout, entries)
//
//	// Export selected groups as a bucket-per-row table
//	err := exp.ExportCSV(table, []domain.GroupKey{"SW1A", "EC1A"}, "comparison.csv")
//
//	// Render the same selection as a chart
//	err = exp.RenderComparison(table, []domain.GroupKey{"SW1A", "EC1A"}, "comparison.svg")
package exporter
