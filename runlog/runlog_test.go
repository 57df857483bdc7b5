package runlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test run log store
func createTestStore(t *testing.T) *Store {
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	store, err := NewStore(dbPath)
	require.NoError(t, err, "should create run log store")
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewStore_Empty(t *testing.T) {
	store := createTestStore(t)

	runs, err := store.List(10)
	require.NoError(t, err)
	assert.Empty(t, runs, "new database should have no runs")
}

func TestStore_RecordAndList(t *testing.T) {
	store := createTestStore(t)
	base := time.Date(2026, 10, 17, 7, 30, 0, 0, time.UTC)
	failure := "delivery failed: status 401: invalid token"

	first := Run{
		RunID:            uuid.New(),
		StartedAt:        base,
		DateLabel:        "2026/10/17",
		Mode:             "json-flex-broadcast",
		ItemCount:        5,
		PromotionalCount: 1,
		Status:           StatusDelivered,
	}
	second := Run{
		RunID:     uuid.New(),
		StartedAt: base.Add(24 * time.Hour),
		DateLabel: "2026/10/18",
		Mode:      "json-flex-broadcast",
		ItemCount: 4,
		Status:    StatusFailed,
		Error:     &failure,
	}
	require.NoError(t, store.Record(first))
	require.NoError(t, store.Record(second))

	runs, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	// Most recent first
	assert.Equal(t, second.RunID, runs[0].RunID)
	assert.Equal(t, StatusFailed, runs[0].Status)
	require.NotNil(t, runs[0].Error)
	assert.Equal(t, failure, *runs[0].Error)

	assert.Equal(t, first.RunID, runs[1].RunID)
	assert.True(t, first.StartedAt.Equal(runs[1].StartedAt))
	assert.Equal(t, 5, runs[1].ItemCount)
	assert.Equal(t, 1, runs[1].PromotionalCount)
	assert.Nil(t, runs[1].Error)
}

func TestStore_ListLimit(t *testing.T) {
	store := createTestStore(t)
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(Run{
			RunID:     uuid.New(),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			DateLabel: "2026/10/01",
			Mode:      "form-push",
			Status:    StatusDelivered,
		}))
	}

	runs, err := store.List(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
}

func TestStore_RecordDuplicateID(t *testing.T) {
	store := createTestStore(t)
	run := Run{RunID: uuid.New(), StartedAt: time.Now(), DateLabel: "x", Mode: "form-push", Status: StatusDelivered}

	require.NoError(t, store.Record(run))
	err := store.Record(run)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record run")
}
