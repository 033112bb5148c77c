package queue

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javari-ai/brain/internal/storage/sqlite"
	"github.com/javari-ai/brain/pkg/apperrors"
)

func newTestDB(t *testing.T) *sqlite.Client {
	t.Helper()
	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEnqueueRejectsExactDuplicate(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, time.Minute)

	first, err := svc.Enqueue("chat", "documentation", "How do goroutines work?", 5, nil)
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	_, err = svc.Enqueue("chat", "documentation", "How do goroutines work?", 5, nil)
	require.Error(t, err)

	conflict, ok := apperrors.AsConflict(err)
	require.True(t, ok)
	assert.Equal(t, first.ID, conflict.ExistingID)

	// Whitespace-only variations rendezvous on the same fingerprint.
	_, err = svc.Enqueue("chat", "documentation", "  How do goroutines work?  ", 5, nil)
	require.Error(t, err)
	_, ok = apperrors.AsConflict(err)
	assert.True(t, ok)

	backlog, err := svc.Backlog()
	require.NoError(t, err)
	assert.Equal(t, 1, backlog)
}

func TestDrainOrdersByPriorityThenAge(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, time.Minute)

	for i, priority := range []int{3, 8, 8, 5} {
		_, err := svc.Enqueue("test", "documentation",
			map[string]interface{}{"index": i}, priority, nil)
		require.NoError(t, err)
	}

	items, runID, err := svc.Drain(10)
	require.NoError(t, err)
	require.NotEmpty(t, runID)
	require.Len(t, items, 4)

	priorities := make([]int, len(items))
	indices := make([]string, len(items))
	for i, item := range items {
		priorities[i] = item.Priority
		assert.Equal(t, runID, item.LeasedBy)

		var content map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(item.RawContent), &content))
		indices[i] = fmt.Sprintf("%v", content["index"])
	}
	assert.Equal(t, []int{8, 8, 5, 3}, priorities)

	// Equal priorities drain oldest enqueue first: item 1 before item 2.
	assert.Equal(t, []string{"1", "2", "3", "0"}, indices)
}

func TestDrainLeaseBlocksConcurrentClaim(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, time.Minute)

	_, err := svc.Enqueue("test", "documentation", "leased once", 5, nil)
	require.NoError(t, err)

	first, _, err := svc.Drain(10)
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, _, err := svc.Drain(10)
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestFailedItemStaysUnprocessedAndReclaimable(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, time.Minute)

	item, err := svc.Enqueue("test", "documentation", "will fail", 5, nil)
	require.NoError(t, err)

	claimed, _, err := svc.Drain(10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, db.RecordItemFailure(item.ID, map[string]interface{}{
		"error": "classification failed",
	}))

	stored, err := db.GetQueueItem(item.ID)
	require.NoError(t, err)
	assert.False(t, stored.Processed)
	assert.Nil(t, stored.ProcessedAt)
	assert.Empty(t, stored.LeasedBy)
	assert.Equal(t, "classification failed", stored.LearningOutcome["error"])

	reclaimed, _, err := svc.Drain(10)
	require.NoError(t, err)
	require.Len(t, reclaimed, 1)
	assert.Equal(t, item.ID, reclaimed[0].ID)
}

func TestRetentionSweepSparesUnprocessed(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db, time.Minute)

	processed, err := svc.Enqueue("test", "documentation", "old and done", 5, nil)
	require.NoError(t, err)
	pending, err := svc.Enqueue("test", "documentation", "still waiting", 5, nil)
	require.NoError(t, err)

	require.NoError(t, db.MarkProcessed(processed.ID, map[string]interface{}{"action": "stored"}))

	// A negative age puts the cutoff in the future, so anything processed
	// by now is eligible.
	deleted, err := svc.RetentionSweep(-time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := db.GetQueueItem(pending.ID)
	require.NoError(t, err)
	assert.False(t, remaining.Processed)
}
