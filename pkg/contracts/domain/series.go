package domain

import (
	"fmt"
	"sort"
	"time"
)

// GroupKey identifies one postcode group in a time series. Most keys are
// truncated postcodes such as "SW1A"; the two sentinel keys below collect
// records that cannot be grouped normally so that no input row ever
// disappears from the output.
type GroupKey string

const (
	// GroupInvalid collects records whose postcode is empty after
	// normalisation.
	GroupInvalid GroupKey = "<invalid>"

	// GroupTooShort collects records whose postcode is shorter than the
	// configured truncation length.
	GroupTooShort GroupKey = "<short>"
)

// IsSentinel reports whether the key is one of the reserved group keys
// rather than a real postcode prefix.
func (k GroupKey) IsSentinel() bool {
	return k == GroupInvalid || k == GroupTooShort
}

// Granularity represents the width of one time bucket.
type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityDay   Granularity = "day"
	GranularityYear  Granularity = "year"
)

// ParseGranularity maps user input to a Granularity.
func ParseGranularity(s string) (Granularity, error) {
	switch Granularity(s) {
	case GranularityMonth, GranularityDay, GranularityYear:
		return Granularity(s), nil
	default:
		return "", fmt.Errorf("unknown granularity %q (want month, day or year)", s)
	}
}

// BucketMeta describes the observation period a series was counted over.
// It travels with every SeriesTable and is persisted alongside the counts
// so stored series are self-describing.
type BucketMeta struct {
	PeriodStart  time.Time   `json:"period_start"`
	PeriodEnd    time.Time   `json:"period_end"`
	Granularity  Granularity `json:"granularity"`
	EndInclusive bool        `json:"end_inclusive"`
}

// Validate checks that the period is well formed. Bucket arithmetic
// assumes this has passed.
func (m BucketMeta) Validate() error {
	if m.PeriodStart.IsZero() || m.PeriodEnd.IsZero() {
		return fmt.Errorf("bucket meta: period start and end are required")
	}
	if !m.PeriodEnd.After(m.PeriodStart) {
		return fmt.Errorf("bucket meta: period end %s is not after start %s",
			m.PeriodEnd.Format(IncDateLayout), m.PeriodStart.Format(IncDateLayout))
	}
	if _, err := ParseGranularity(string(m.Granularity)); err != nil {
		return fmt.Errorf("bucket meta: %w", err)
	}
	return nil
}

// SeriesTable is the aggregation result: one count vector per group key,
// every vector the same length. Tables are built incrementally by the
// aggregator and read-only afterwards; the zero value is not usable, use
// NewSeriesTable.
type SeriesTable struct {
	Meta        BucketMeta
	BucketCount int

	counts map[GroupKey][]int64
}

// NewSeriesTable returns an empty table whose vectors will all have
// length buckets.
func NewSeriesTable(meta BucketMeta, buckets int) *SeriesTable {
	return &SeriesTable{
		Meta:        meta,
		BucketCount: buckets,
		counts:      make(map[GroupKey][]int64),
	}
}

// Increment adds one to the bucket for the given group, creating the
// group's vector on first sight.
func (t *SeriesTable) Increment(key GroupKey, bucket int) {
	v, ok := t.counts[key]
	if !ok {
		v = make([]int64, t.BucketCount)
		t.counts[key] = v
	}
	v[bucket]++
}

// Merge folds other into t. Both tables must share the same bucket
// layout; vectors are summed element-wise.
func (t *SeriesTable) Merge(other *SeriesTable) error {
	if other == nil {
		return nil
	}
	if other.BucketCount != t.BucketCount {
		return fmt.Errorf("series table: cannot merge %d buckets into %d", other.BucketCount, t.BucketCount)
	}
	for key, src := range other.counts {
		dst, ok := t.counts[key]
		if !ok {
			dst = make([]int64, t.BucketCount)
			t.counts[key] = dst
		}
		for i, n := range src {
			dst[i] += n
		}
	}
	return nil
}

// SetVector installs a complete count vector for key, replacing any
// existing one. Store readers use this to reconstruct a table.
func (t *SeriesTable) SetVector(key GroupKey, counts []int64) error {
	if len(counts) != t.BucketCount {
		return fmt.Errorf("series table: vector for %s has %d buckets, table has %d",
			key, len(counts), t.BucketCount)
	}
	v := make([]int64, len(counts))
	copy(v, counts)
	t.counts[key] = v
	return nil
}

// Restrict returns a new table containing only the given keys. Keys
// absent from t are ignored; vectors are copied so the two tables stay
// independent.
func (t *SeriesTable) Restrict(keys []GroupKey) *SeriesTable {
	out := NewSeriesTable(t.Meta, t.BucketCount)
	for _, key := range keys {
		src, ok := t.counts[key]
		if !ok {
			continue
		}
		dst := make([]int64, len(src))
		copy(dst, src)
		out.counts[key] = dst
	}
	return out
}

// Vector returns the count vector for key. The slice is the table's own
// backing storage; callers must not modify it.
func (t *SeriesTable) Vector(key GroupKey) ([]int64, bool) {
	v, ok := t.counts[key]
	return v, ok
}

// Keys returns all group keys in ascending order. Sentinel keys sort with
// everything else; deterministic output ordering is what matters.
func (t *SeriesTable) Keys() []GroupKey {
	keys := make([]GroupKey, 0, len(t.counts))
	for k := range t.counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// NumGroups returns the number of distinct group keys seen so far.
func (t *SeriesTable) NumGroups() int {
	return len(t.counts)
}

// Total returns the sum of every count in the table.
func (t *SeriesTable) Total() int64 {
	var sum int64
	for _, v := range t.counts {
		for _, n := range v {
			sum += n
		}
	}
	return sum
}

// GroupTotal returns the sum of the vector for key, zero when the key is
// absent.
func (t *SeriesTable) GroupTotal(key GroupKey) int64 {
	var sum int64
	for _, n := range t.counts[key] {
		sum += n
	}
	return sum
}
