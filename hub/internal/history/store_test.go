package history

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doniyusdinar/scanfleet/pkg/models"
)

// runStoreTests exercises the Store contract against any backend
func runStoreTests(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("empty", func(t *testing.T) {
		s := newStore(t)
		scans, err := s.Scans(context.Background(), 0)
		require.NoError(t, err)
		assert.Empty(t, scans)

		logs, err := s.Logs(context.Background(), 0)
		require.NoError(t, err)
		assert.Empty(t, logs)
	})

	t.Run("scans newest first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AppendScan(ctx, models.ScanRecord{ID: "cmd-1", AgentID: "a", Status: models.ScanCompleted, Timestamp: 100}))
		require.NoError(t, s.AppendScan(ctx, models.ScanRecord{ID: "cmd-2", AgentID: "a", Status: models.ScanFailed, Timestamp: 300, Details: "boom"}))
		require.NoError(t, s.AppendScan(ctx, models.ScanRecord{ID: "cmd-3", AgentID: "b", Status: models.ScanCompleted, ThreatsFound: 3, Timestamp: 200}))

		scans, err := s.Scans(ctx, 0)
		require.NoError(t, err)
		require.Len(t, scans, 3)
		assert.Equal(t, "cmd-2", scans[0].ID)
		assert.Equal(t, "boom", scans[0].Details)
		assert.Equal(t, "cmd-3", scans[1].ID)
		assert.Equal(t, uint32(3), scans[1].ThreatsFound)
		assert.Equal(t, "cmd-1", scans[2].ID)
	})

	t.Run("ties keep newest insert first", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.AppendLog(ctx, models.LogRecord{ID: "l1", Level: models.LevelInfo, Message: "first", Timestamp: 100}))
		require.NoError(t, s.AppendLog(ctx, models.LogRecord{ID: "l2", Level: models.LevelInfo, Message: "second", Timestamp: 100}))

		logs, err := s.Logs(ctx, 0)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, "l2", logs[0].ID)
		assert.Equal(t, "l1", logs[1].ID)
	})

	t.Run("limit", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		for i := int64(1); i <= 5; i++ {
			require.NoError(t, s.AppendLog(ctx, NewLog(models.LevelInfo, "msg", i)))
		}

		logs, err := s.Logs(ctx, 2)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, int64(5), logs[0].Timestamp)
		assert.Equal(t, int64(4), logs[1].Timestamp)
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestMemoryStoreIsAppendOnlyAndUnbounded(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	for i := int64(0); i < 5000; i++ {
		require.NoError(t, s.AppendScan(ctx, models.ScanRecord{ID: "cmd", Timestamp: i}))
	}

	scans, err := s.Scans(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, scans, 5000)

	// Reads return copies.
	scans[0].ID = "changed"
	again, _ := s.Scans(ctx, 1)
	assert.Equal(t, "cmd", again[0].ID)
}

func TestNewLog(t *testing.T) {
	a := NewLog(models.LevelWarn, "hello", 42)
	b := NewLog(models.LevelWarn, "hello", 42)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, models.LevelWarn, a.Level)
	assert.Equal(t, "hello", a.Message)
	assert.Equal(t, int64(42), a.Timestamp)
}
