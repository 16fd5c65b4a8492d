// Package history stores the hub's append-only scan and log records.
package history

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/doniyusdinar/scanfleet/pkg/models"
)

// Backend names accepted by the hub configuration
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Store appends audit records and reads them back newest first.
// A limit <= 0 returns every record.
type Store interface {
	AppendScan(ctx context.Context, rec models.ScanRecord) error
	AppendLog(ctx context.Context, rec models.LogRecord) error
	Scans(ctx context.Context, limit int) ([]models.ScanRecord, error)
	Logs(ctx context.Context, limit int) ([]models.LogRecord, error)
	Close() error
}

// NewLog builds a log record with a fresh id
func NewLog(level, message string, timestamp int64) models.LogRecord {
	return models.LogRecord{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		Timestamp: timestamp,
	}
}

// newestFirst orders records by timestamp descending. Records must already be
// in newest-inserted-first order; the stable sort keeps that order for ties.
func newestFirst[T any](records []T, ts func(T) int64) {
	sort.SliceStable(records, func(i, j int) bool {
		return ts(records[i]) > ts(records[j])
	})
}

func limitOf[T any](records []T, limit int) []T {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}

func scanTime(r models.ScanRecord) int64 { return r.Timestamp }

func logTime(r models.LogRecord) int64 { return r.Timestamp }
