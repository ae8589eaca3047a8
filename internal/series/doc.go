// Package series builds incorporation time series from company records.
// It contains the three pure pieces of the pipeline core: postcode
// grouping, time bucketing and batched aggregation, plus the salted
// shard selection used to split large outputs across runs.
//
// # Processing Model
//
// The aggregator consumes records in caller-sized batches and grows one
// count vector per postcode group. Batching bounds memory; it never
// changes results. For any partition of the same records into batches
// the finalized table is identical, and every record lands in exactly
// one of three places: a table cell, the malformed tally or the
// excluded tally.
//
// # Grouping
//
// Raw postcodes are normalised (trimmed, uppercased, inner whitespace
// removed) and truncated from the right. Records that cannot be grouped
// are kept under sentinel keys rather than dropped, so totals remain
// meaningful against the input row count.
//
// # Bucketing
//
// Bucket indexes are calendar-boundary deltas, not elapsed time: with
// month granularity, 2020-01-31 and 2020-02-01 fall in consecutive
// buckets even though they are a day apart. The observation period is
// half-open by default; an inclusive end is available for compatibility
// with datasets counted that way.
package series
