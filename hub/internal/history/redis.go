package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/doniyusdinar/scanfleet/pkg/models"
	"github.com/doniyusdinar/scanfleet/pkg/redis"
)

const (
	redisScansKey = "scanfleet:scans"
	redisLogsKey  = "scanfleet:logs"
)

// RedisStore keeps the newest maxEntries records of each kind in Redis lists
type RedisStore struct {
	client     *redis.Client
	maxEntries int64
}

func NewRedisStore(client *redis.Client, maxEntries int64) *RedisStore {
	return &RedisStore{client: client, maxEntries: maxEntries}
}

func (s *RedisStore) AppendScan(ctx context.Context, rec models.ScanRecord) error {
	return s.push(ctx, redisScansKey, rec)
}

func (s *RedisStore) AppendLog(ctx context.Context, rec models.LogRecord) error {
	return s.push(ctx, redisLogsKey, rec)
}

func (s *RedisStore) Scans(ctx context.Context, limit int) ([]models.ScanRecord, error) {
	out, err := readList[models.ScanRecord](ctx, s.client, redisScansKey, limit)
	if err != nil {
		return nil, err
	}
	newestFirst(out, scanTime)
	return out, nil
}

func (s *RedisStore) Logs(ctx context.Context, limit int) ([]models.LogRecord, error) {
	out, err := readList[models.LogRecord](ctx, s.client, redisLogsKey, limit)
	if err != nil {
		return nil, err
	}
	newestFirst(out, logTime)
	return out, nil
}

// Close is a no-op; the Redis client is owned by the caller
func (s *RedisStore) Close() error {
	return nil
}

func (s *RedisStore) push(ctx context.Context, key string, rec any) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := s.client.PushCapped(ctx, key, data, s.maxEntries); err != nil {
		return fmt.Errorf("failed to append to %s: %w", key, err)
	}
	return nil
}

func readList[T any](ctx context.Context, client *redis.Client, key string, limit int) ([]T, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	entries, err := client.Range(ctx, key, 0, stop)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	out := make([]T, 0, len(entries))
	for _, entry := range entries {
		var rec T
		if err := json.Unmarshal([]byte(entry), &rec); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s entry: %w", key, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
