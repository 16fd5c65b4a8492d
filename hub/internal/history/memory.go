package history

import (
	"context"
	"sync"

	"github.com/doniyusdinar/scanfleet/pkg/models"
)

// MemoryStore keeps every record for the lifetime of the process
type MemoryStore struct {
	mu    sync.RWMutex
	scans []models.ScanRecord
	logs  []models.LogRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) AppendScan(_ context.Context, rec models.ScanRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scans = append(s.scans, rec)
	return nil
}

func (s *MemoryStore) AppendLog(_ context.Context, rec models.LogRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, rec)
	return nil
}

func (s *MemoryStore) Scans(_ context.Context, limit int) ([]models.ScanRecord, error) {
	s.mu.RLock()
	out := reversed(s.scans)
	s.mu.RUnlock()

	newestFirst(out, scanTime)
	return limitOf(out, limit), nil
}

func (s *MemoryStore) Logs(_ context.Context, limit int) ([]models.LogRecord, error) {
	s.mu.RLock()
	out := reversed(s.logs)
	s.mu.RUnlock()

	newestFirst(out, logTime)
	return limitOf(out, limit), nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func reversed[T any](in []T) []T {
	out := make([]T, len(in))
	for i, v := range in {
		out[len(in)-1-i] = v
	}
	return out
}
