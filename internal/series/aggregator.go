package series

import (
	"context"
	"fmt"

	apperrors "chcli/internal/errors"
	"chcli/pkg/contracts/domain"
)

// Stats tallies where every record ended up. Processed always equals
// Counted + Malformed + Excluded; a record is never silently dropped.
type Stats struct {
	Processed int64 `json:"processed"`
	Counted   int64 `json:"counted"`
	Malformed int64 `json:"malformed"`
	Excluded  int64 `json:"excluded"`
	Batches   int64 `json:"batches"`
}

// Aggregator folds record batches into a SeriesTable. It is
// single-threaded by contract: one goroutine feeds batches in sequence
// and memory stays bounded by one batch plus the table itself. Batch
// boundaries never affect the result.
type Aggregator struct {
	bucketer  *Bucketer
	truncate  int
	table     *domain.SeriesTable
	stats     Stats
	finalized bool
}

// NewAggregator builds an aggregator for one run over the given period.
func NewAggregator(meta domain.BucketMeta, truncate int) (*Aggregator, error) {
	if truncate < 1 {
		return nil, fmt.Errorf("postcode truncation length must be positive, got %d", truncate)
	}

	bucketer, err := NewBucketer(meta)
	if err != nil {
		return nil, err
	}

	return &Aggregator{
		bucketer: bucketer,
		truncate: truncate,
		table:    domain.NewSeriesTable(meta, bucketer.Buckets()),
	}, nil
}

// ProcessBatch folds one batch of records into the table. Records with
// no usable date are tallied as malformed, records dated outside the
// period as excluded; neither stops processing. Calling ProcessBatch
// after Finalize returns ErrSeriesFinalized.
func (a *Aggregator) ProcessBatch(ctx context.Context, records []domain.Record) error {
	if a.finalized {
		return apperrors.ErrSeriesFinalized
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	for i := range records {
		rec := &records[i]
		a.stats.Processed++

		if rec.IncorporationDate == nil {
			a.stats.Malformed++
			continue
		}

		bucket, ok := a.bucketer.Index(*rec.IncorporationDate)
		if !ok {
			a.stats.Excluded++
			continue
		}

		a.table.Increment(GroupPostcode(rec.Postcode, a.truncate), bucket)
		a.stats.Counted++
	}

	a.stats.Batches++
	return nil
}

// Finalize seals the aggregator and returns the finished table. It is
// idempotent; every call returns the same table.
func (a *Aggregator) Finalize() *domain.SeriesTable {
	a.finalized = true
	return a.table
}

// Stats returns the running tallies.
func (a *Aggregator) Stats() Stats {
	return a.stats
}

// Bucketer exposes the bucket layout, for labelling output.
func (a *Aggregator) Bucketer() *Bucketer {
	return a.bucketer
}
