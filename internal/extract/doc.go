// Package extract turns Companies House basic data snapshots into the
// combined parquet record file the series tools consume.
//
// # Stages
//
// Discover finds snapshot ZIP archives and fixes their processing order
// (ascending name order, which for Companies House archives is
// publication order). Unpack expands each archive's CSV content into the
// staging area and parses it into a per-archive parquet part, with the
// archives fanned out across a bounded worker group. Merge streams the
// parts back in archive order, drops repeated company numbers keeping
// the first occurrence, and writes the combined parquet file, which is
// promoted into the data directory only once complete.
//
// # Row handling
//
// Parsing is deliberately forgiving. Rows missing a company number are
// skipped and counted; unparsable incorporation dates are carried
// through as raw text rather than dropped, so the series stage can
// account for them as malformed instead of the pipeline silently losing
// rows.
package extract
