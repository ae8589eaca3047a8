package store

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	apperrors "chcli/internal/errors"
	"chcli/internal/files"
	"chcli/pkg/contracts"
	"chcli/pkg/contracts/domain"
)

// Series store column names.
const (
	colGroupKey = "group_key"
	colCounts   = "counts"
)

// Schema metadata keys. The reserved keys are written from the table and
// cannot be overridden; the exported ones are for callers to attach.
const (
	metaPeriodStart  = "period_start"
	metaPeriodEnd    = "period_end"
	metaGranularity  = "granularity"
	metaEndInclusive = "end_inclusive"
	metaBucketCount  = "bucket_count"
	metaNumGroups    = "num_groups"
	metaToolVersion  = "tool_version"

	// MetaShardSalt records the salt a sharded run hashed keys with.
	MetaShardSalt = "shard_salt"
	// MetaShardRange records the half-open [start:stop) range of a
	// sharded run ("16:32").
	MetaShardRange = "shard_range"
)

func seriesSchema(table *domain.SeriesTable, extra map[string]string) *arrow.Schema {
	keys := []string{
		metaPeriodStart,
		metaPeriodEnd,
		metaGranularity,
		metaEndInclusive,
		metaBucketCount,
		metaNumGroups,
		metaToolVersion,
	}
	values := []string{
		table.Meta.PeriodStart.Format(time.RFC3339),
		table.Meta.PeriodEnd.Format(time.RFC3339),
		string(table.Meta.Granularity),
		strconv.FormatBool(table.Meta.EndInclusive),
		strconv.Itoa(table.BucketCount),
		strconv.Itoa(table.NumGroups()),
		contracts.Version,
	}

	reserved := make(map[string]bool, len(keys))
	for _, k := range keys {
		reserved[k] = true
	}
	extraKeys := make([]string, 0, len(extra))
	for k := range extra {
		if !reserved[k] {
			extraKeys = append(extraKeys, k)
		}
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		keys = append(keys, k)
		values = append(values, extra[k])
	}

	md := arrow.NewMetadata(keys, values)
	return arrow.NewSchema([]arrow.Field{
		{Name: colGroupKey, Type: arrow.BinaryTypes.String},
		{Name: colCounts, Type: arrow.ListOf(arrow.PrimitiveTypes.Int64)},
	}, &md)
}

// WriteSeriesStore persists a finished table as an Arrow IPC file. Group
// keys are written in ascending order and the observation period travels
// as schema metadata, so the store is self-describing and byte-for-byte
// reproducible from the same inputs. extra entries are appended to the
// metadata; reserved keys in extra are ignored.
func WriteSeriesStore(path string, table *domain.SeriesTable, extra map[string]string) error {
	schema := seriesSchema(table, extra)

	builder := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer builder.Release()

	keyBuilder := builder.Field(0).(*array.StringBuilder)
	listBuilder := builder.Field(1).(*array.ListBuilder)
	countBuilder := listBuilder.ValueBuilder().(*array.Int64Builder)

	for _, key := range table.Keys() {
		vector, _ := table.Vector(key)
		keyBuilder.Append(string(key))
		listBuilder.Append(true)
		countBuilder.AppendValues(vector, nil)
	}

	rec := builder.NewRecord()
	defer rec.Release()

	err := files.WriteAtomic(path, func(f *os.File) error {
		w := ipc.NewWriter(f, ipc.WithSchema(schema))
		if err := w.Write(rec); err != nil {
			w.Close()
			return err
		}
		return w.Close()
	})
	if err != nil {
		return apperrors.StoreWriteError(path, err)
	}
	return nil
}

// ReadSeriesStore loads a series store back into a table.
func ReadSeriesStore(path string) (*domain.SeriesTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.StoreReadError(path, err)
	}
	defer f.Close()

	r, err := ipc.NewReader(f)
	if err != nil {
		return nil, formatError(path, err)
	}
	defer r.Release()

	meta, buckets, err := metaFromSchema(path, r.Schema())
	if err != nil {
		return nil, err
	}

	table := domain.NewSeriesTable(meta, buckets)
	for r.Next() {
		rec := r.Record()
		if err := appendRecord(table, rec); err != nil {
			return nil, formatError(path, err)
		}
	}
	if err := r.Err(); err != nil {
		return nil, apperrors.StoreReadError(path, err)
	}
	return table, nil
}

// ReadSeriesMeta returns a store's schema metadata without loading the
// counts. Handy for listing what a store was built from.
func ReadSeriesMeta(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.StoreReadError(path, err)
	}
	defer f.Close()

	r, err := ipc.NewReader(f)
	if err != nil {
		return nil, formatError(path, err)
	}
	defer r.Release()

	md := r.Schema().Metadata()
	out := make(map[string]string, md.Len())
	for i, k := range md.Keys() {
		out[k] = md.Values()[i]
	}
	return out, nil
}

func metaFromSchema(path string, schema *arrow.Schema) (domain.BucketMeta, int, error) {
	if len(schema.Fields()) < 2 ||
		schema.Field(0).Name != colGroupKey ||
		schema.Field(1).Name != colCounts {
		return domain.BucketMeta{}, 0, formatError(path, fmt.Errorf("unexpected columns in schema %s", schema))
	}

	md := schema.Metadata()
	get := func(key string) (string, error) {
		i := md.FindKey(key)
		if i < 0 {
			return "", fmt.Errorf("missing %s metadata", key)
		}
		return md.Values()[i], nil
	}

	var meta domain.BucketMeta
	startText, err := get(metaPeriodStart)
	if err != nil {
		return meta, 0, formatError(path, err)
	}
	if meta.PeriodStart, err = time.Parse(time.RFC3339, startText); err != nil {
		return meta, 0, formatError(path, err)
	}
	endText, err := get(metaPeriodEnd)
	if err != nil {
		return meta, 0, formatError(path, err)
	}
	if meta.PeriodEnd, err = time.Parse(time.RFC3339, endText); err != nil {
		return meta, 0, formatError(path, err)
	}
	granText, err := get(metaGranularity)
	if err != nil {
		return meta, 0, formatError(path, err)
	}
	if meta.Granularity, err = domain.ParseGranularity(granText); err != nil {
		return meta, 0, formatError(path, err)
	}
	inclusiveText, err := get(metaEndInclusive)
	if err != nil {
		return meta, 0, formatError(path, err)
	}
	if meta.EndInclusive, err = strconv.ParseBool(inclusiveText); err != nil {
		return meta, 0, formatError(path, err)
	}
	bucketText, err := get(metaBucketCount)
	if err != nil {
		return meta, 0, formatError(path, err)
	}
	buckets, err := strconv.Atoi(bucketText)
	if err != nil || buckets < 1 {
		return meta, 0, formatError(path, fmt.Errorf("bad bucket count %q", bucketText))
	}
	return meta, buckets, nil
}

func appendRecord(table *domain.SeriesTable, rec arrow.Record) error {
	keys, ok := rec.Column(0).(*array.String)
	if !ok {
		return fmt.Errorf("group_key column is %s, want utf8", rec.Column(0).DataType())
	}
	lists, ok := rec.Column(1).(*array.List)
	if !ok {
		return fmt.Errorf("counts column is %s, want list<int64>", rec.Column(1).DataType())
	}
	values, ok := lists.ListValues().(*array.Int64)
	if !ok {
		return fmt.Errorf("counts values are %s, want int64", lists.ListValues().DataType())
	}

	flat := values.Int64Values()
	for i := 0; i < int(rec.NumRows()); i++ {
		start, end := lists.ValueOffsets(i)
		if err := table.SetVector(domain.GroupKey(keys.Value(i)), flat[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func formatError(path string, err error) error {
	return apperrors.Wrap(err, "STORE_FORMAT", fmt.Sprintf("Series store %s is not readable", path))
}
