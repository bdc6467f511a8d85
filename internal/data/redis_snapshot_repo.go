package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/botstack/publisher/internal/domain/model"
)

const defaultHistoryKey = "publisher:history"

// RedisSnapshotRepo implements core.SnapshotStore by storing the whole
// history table as one JSON document at a single Redis key.
type RedisSnapshotRepo struct {
	client redis.UniversalClient
	key    string
}

// NewRedisSnapshotRepo creates a RedisSnapshotRepo. An empty key selects the
// default.
func NewRedisSnapshotRepo(client redis.UniversalClient, key string) *RedisSnapshotRepo {
	if key == "" {
		key = defaultHistoryKey
	}
	return &RedisSnapshotRepo{client: client, key: key}
}

// Load reads the snapshot document. An absent key yields an empty table and
// nil error.
func (r *RedisSnapshotRepo) Load(ctx context.Context) (model.HistoryTable, error) {
	raw, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.HistoryTable{}, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	var table model.HistoryTable
	if err := json.Unmarshal([]byte(raw), &table); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSnapshotCorrupt, err)
	}
	if table == nil {
		table = model.HistoryTable{}
	}
	return table, nil
}

// Save replaces the snapshot document. No TTL: history does not expire.
func (r *RedisSnapshotRepo) Save(ctx context.Context, table model.HistoryTable) error {
	if table == nil {
		table = model.HistoryTable{}
	}
	raw, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("encode history snapshot: %w", err)
	}
	if err := r.client.Set(ctx, r.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
