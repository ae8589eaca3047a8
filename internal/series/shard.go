package series

import (
	"bytes"
	"sort"

	"golang.org/x/crypto/blake2b"

	apperrors "chcli/internal/errors"
	"chcli/pkg/contracts/domain"
)

// ShardKeys orders group keys by the BLAKE2b-256 hash of key+salt and
// returns the half-open slice [start, stop) of that order. The salted
// order is stable for a given salt and uncorrelated with geography, so
// shards get roughly even key counts wherever the range boundaries land.
// A negative stop means "to the end".
func ShardKeys(keys []domain.GroupKey, salt string, start, stop int) ([]domain.GroupKey, error) {
	if start < 0 {
		return nil, apperrors.ErrShardRange
	}
	if stop >= 0 && stop < start {
		return nil, apperrors.ErrShardRange
	}

	ordered := make([]domain.GroupKey, len(keys))
	copy(ordered, keys)

	type hashed struct {
		key domain.GroupKey
		sum [32]byte
	}
	sums := make([]hashed, len(ordered))
	for i, key := range ordered {
		sums[i] = hashed{key: key, sum: blake2b.Sum256([]byte(string(key) + salt))}
	}
	sort.Slice(sums, func(i, j int) bool {
		if c := bytes.Compare(sums[i].sum[:], sums[j].sum[:]); c != 0 {
			return c < 0
		}
		// Hash collisions are not expected; keep the order total anyway.
		return sums[i].key < sums[j].key
	})
	for i, h := range sums {
		ordered[i] = h.key
	}

	if start > len(ordered) {
		start = len(ordered)
	}
	if stop < 0 || stop > len(ordered) {
		stop = len(ordered)
	}
	if stop < start {
		stop = start
	}

	return ordered[start:stop], nil
}

// ShardTable restricts a finished table to the configured shard. With
// sharding disabled the table is returned as-is.
func ShardTable(table *domain.SeriesTable, cfg ShardSpec) (*domain.SeriesTable, error) {
	if !cfg.Enabled {
		return table, nil
	}

	keys, err := ShardKeys(table.Keys(), cfg.Salt, cfg.Start, cfg.Stop)
	if err != nil {
		return nil, err
	}
	return table.Restrict(keys), nil
}

// ShardSpec is the resolved shard selection for one run.
type ShardSpec struct {
	Enabled bool
	Salt    string
	Start   int
	Stop    int
}
