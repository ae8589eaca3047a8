// Package store reads and writes the pipeline's two on-disk formats.
//
// # Company records
//
// The extractor persists extracted snapshot rows as Parquet, one
// CompanyRow per row with snappy compression. Parquet keeps the combined
// record file a fraction of the CSV size and lets the series generator
// stream it back in batches without holding the full dataset in memory.
//
// # Series stores
//
// Finished series tables are written as Arrow IPC files: one row per
// group key with its count vector, plus the observation period, bucket
// layout and tool version as schema metadata so every store is
// self-describing. Group keys are written in ascending order and the
// files carry no timestamps, so the same inputs produce identical
// stores.
//
// All writers go through the write-temp-then-rename discipline; a
// crashed run never leaves a truncated file under the final name.
package store
