package series

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "chcli/internal/errors"
	"chcli/pkg/contracts/domain"
)

func shardKeySet(n int) []domain.GroupKey {
	keys := make([]domain.GroupKey, n)
	for i := range keys {
		keys[i] = domain.GroupKey(fmt.Sprintf("SW%02d", i))
	}
	return keys
}

func TestShardKeys_Deterministic(t *testing.T) {
	keys := shardKeySet(20)

	first, err := ShardKeys(keys, "salt-1", 0, -1)
	require.NoError(t, err)
	second, err := ShardKeys(keys, "salt-1", 0, -1)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, len(keys))
	assert.ElementsMatch(t, keys, first)
}

func TestShardKeys_SaltChangesOrder(t *testing.T) {
	keys := shardKeySet(50)

	one, err := ShardKeys(keys, "salt-1", 0, -1)
	require.NoError(t, err)
	two, err := ShardKeys(keys, "salt-2", 0, -1)
	require.NoError(t, err)

	assert.ElementsMatch(t, one, two)
	assert.NotEqual(t, one, two)
}

func TestShardKeys_RangesPartition(t *testing.T) {
	keys := shardKeySet(17)

	full, err := ShardKeys(keys, "s", 0, -1)
	require.NoError(t, err)

	head, err := ShardKeys(keys, "s", 0, 7)
	require.NoError(t, err)
	tail, err := ShardKeys(keys, "s", 7, -1)
	require.NoError(t, err)

	assert.Equal(t, full, append(append([]domain.GroupKey{}, head...), tail...))
}

func TestShardKeys_Clamping(t *testing.T) {
	keys := shardKeySet(5)

	tests := []struct {
		name    string
		start   int
		stop    int
		wantLen int
	}{
		{name: "stop beyond length", start: 0, stop: 100, wantLen: 5},
		{name: "negative stop means end", start: 2, stop: -1, wantLen: 3},
		{name: "start at length", start: 5, stop: -1, wantLen: 0},
		{name: "start beyond length", start: 50, stop: -1, wantLen: 0},
		{name: "empty range", start: 3, stop: 3, wantLen: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ShardKeys(keys, "s", tt.start, tt.stop)
			require.NoError(t, err)
			assert.Len(t, got, tt.wantLen)
		})
	}
}

func TestShardKeys_InvalidRange(t *testing.T) {
	keys := shardKeySet(5)

	_, err := ShardKeys(keys, "s", -1, 3)
	assert.ErrorIs(t, err, apperrors.ErrShardRange)

	_, err = ShardKeys(keys, "s", 4, 2)
	assert.ErrorIs(t, err, apperrors.ErrShardRange)
}

func TestShardKeys_EmptyInput(t *testing.T) {
	got, err := ShardKeys(nil, "s", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func shardTestTable(t *testing.T) *domain.SeriesTable {
	t.Helper()
	agg, err := NewAggregator(monthMeta(date(2020, 1, 1), date(2020, 4, 1)), 2)
	require.NoError(t, err)

	records := make([]domain.Record, 0, 40)
	for i := 0; i < 40; i++ {
		records = append(records, record(fmt.Sprintf("SW%02d 1AA", i), date(2020, time.Month(1+i%3), 10)))
	}
	require.NoError(t, agg.ProcessBatch(context.Background(), records))
	return agg.Finalize()
}

func TestShardTable_DisabledPassthrough(t *testing.T) {
	table := shardTestTable(t)

	got, err := ShardTable(table, ShardSpec{Enabled: false})
	require.NoError(t, err)
	assert.Same(t, table, got)
}

func TestShardTable_RestrictsToShard(t *testing.T) {
	table := shardTestTable(t)

	first, err := ShardTable(table, ShardSpec{Enabled: true, Salt: "s", Start: 0, Stop: 15})
	require.NoError(t, err)
	second, err := ShardTable(table, ShardSpec{Enabled: true, Salt: "s", Start: 15, Stop: -1})
	require.NoError(t, err)

	assert.Equal(t, 15, first.NumGroups())
	assert.Equal(t, table.NumGroups()-15, second.NumGroups())

	// The two shards partition the groups and the counts
	combined := append(append([]domain.GroupKey{}, first.Keys()...), second.Keys()...)
	assert.ElementsMatch(t, table.Keys(), combined)
	assert.Equal(t, table.Total(), first.Total()+second.Total())

	// Vectors survive restriction unchanged
	for _, key := range first.Keys() {
		want, ok := table.Vector(key)
		require.True(t, ok)
		got, ok := first.Vector(key)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	// Bucket layout is carried over
	assert.Equal(t, table.Meta, first.Meta)
	assert.Equal(t, table.BucketCount, first.BucketCount)
}

func TestShardTable_InvalidRange(t *testing.T) {
	table := shardTestTable(t)

	_, err := ShardTable(table, ShardSpec{Enabled: true, Salt: "s", Start: -2, Stop: 4})
	assert.ErrorIs(t, err, apperrors.ErrShardRange)
}
