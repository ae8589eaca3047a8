package series

import (
	"fmt"
	"time"

	"chcli/pkg/contracts/domain"
)

// Bucketer maps incorporation dates to bucket indexes for one
// observation period. Indexes are calendar-unit deltas from the period
// start: with month granularity every date inside a calendar month
// shares a bucket regardless of day.
type Bucketer struct {
	meta    domain.BucketMeta
	buckets int
}

// NewBucketer builds a bucketer for a validated period description.
func NewBucketer(meta domain.BucketMeta) (*Bucketer, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	buckets := unitsBetween(meta.Granularity, meta.PeriodStart, meta.PeriodEnd)
	switch {
	case meta.EndInclusive:
		// The end date itself gets a bucket.
		buckets++
	case !onUnitBoundary(meta.Granularity, meta.PeriodEnd):
		// An exclusive end inside a unit leaves a trailing partial
		// bucket for the dates between the last boundary and the end.
		buckets++
	}
	if buckets <= 0 {
		return nil, fmt.Errorf("period %s to %s has no %s buckets",
			meta.PeriodStart.Format(domain.IncDateLayout),
			meta.PeriodEnd.Format(domain.IncDateLayout),
			meta.Granularity)
	}

	return &Bucketer{meta: meta, buckets: buckets}, nil
}

// Buckets returns the number of buckets in the period.
func (b *Bucketer) Buckets() int {
	return b.buckets
}

// Meta returns the period description the bucketer was built from.
func (b *Bucketer) Meta() domain.BucketMeta {
	return b.meta
}

// Index returns the bucket for a date, or false when the date falls
// outside the observation period. The period start itself is bucket 0;
// the end is excluded unless the period was declared end-inclusive.
func (b *Bucketer) Index(date time.Time) (int, bool) {
	d := civilDate(date)

	if d.Before(civilDate(b.meta.PeriodStart)) {
		return 0, false
	}
	end := civilDate(b.meta.PeriodEnd)
	if b.meta.EndInclusive {
		if d.After(end) {
			return 0, false
		}
	} else if !d.Before(end) {
		return 0, false
	}

	return unitsBetween(b.meta.Granularity, b.meta.PeriodStart, d), true
}

// BucketTime returns the first calendar date belonging to bucket i.
// Bucket 0 starts at the period start; later buckets start on their
// unit boundary.
func (b *Bucketer) BucketTime(i int) time.Time {
	start := civilDate(b.meta.PeriodStart)
	if i == 0 {
		return start
	}

	switch b.meta.Granularity {
	case domain.GranularityMonth:
		first := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
		return first.AddDate(0, i, 0)
	case domain.GranularityYear:
		return time.Date(start.Year()+i, time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return start.AddDate(0, 0, i)
	}
}

// Labels returns one label per bucket, formatted for the granularity
// (2006-01 for months, 2006 for years, full dates for days).
func (b *Bucketer) Labels() []string {
	layout := domain.IncDateLayout
	switch b.meta.Granularity {
	case domain.GranularityMonth:
		layout = "2006-01"
	case domain.GranularityYear:
		layout = "2006"
	}

	labels := make([]string, b.buckets)
	for i := range labels {
		labels[i] = b.BucketTime(i).Format(layout)
	}
	return labels
}

// unitsBetween counts calendar boundaries crossed between two dates.
// Months and years use component arithmetic so 2020-01-31 to 2020-02-01
// is one month; days divide the civil-date difference.
func unitsBetween(g domain.Granularity, from, to time.Time) int {
	switch g {
	case domain.GranularityMonth:
		return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	case domain.GranularityYear:
		return to.Year() - from.Year()
	default:
		return int(civilDate(to).Sub(civilDate(from)) / (24 * time.Hour))
	}
}

// onUnitBoundary reports whether a date is the first day of its unit.
func onUnitBoundary(g domain.Granularity, date time.Time) bool {
	switch g {
	case domain.GranularityMonth:
		return date.Day() == 1
	case domain.GranularityYear:
		return date.Month() == time.January && date.Day() == 1
	default:
		return true
	}
}

// civilDate strips the time-of-day and zone, leaving a UTC date.
// Incorporation dates are civil dates; comparing instants would let a
// zone offset shift a record across a bucket boundary.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
