package classifier

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/storage/sqlite"
)

func newTestDB(t *testing.T) *sqlite.Client {
	t.Helper()
	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })
	return db
}

func TestProcessBatchMaterializesDocumentation(t *testing.T) {
	db := newTestDB(t)
	q := queue.NewService(db, time.Minute)
	processor := NewProcessor(db, q, 50)

	_, err := q.Enqueue("devdocs", "documentation", map[string]interface{}{
		"doc":   "react",
		"title": "useEffect",
		"type":  "hook",
		"url":   "https://devdocs.io/react/useeffect",
	}, 8, nil)
	require.NoError(t, err)

	result, err := processor.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 0, result.Errors)
	assert.Equal(t, 0, result.Remaining)

	entry, err := db.GetKnowledgeByTopic("devdocs:react:useEffect")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "react", entry.Category)
	assert.Equal(t, "How to use useEffect in react?", entry.Question)
	assert.Equal(t, 0.9, entry.ConfidenceScore)
	assert.Contains(t, entry.Keywords, "useeffect")
}

func TestProcessBatchRecordsFailureAndContinues(t *testing.T) {
	db := newTestDB(t)
	q := queue.NewService(db, time.Minute)
	processor := NewProcessor(db, q, 50)

	// Not valid JSON, so classification fails.
	bad, err := q.Enqueue("manual", "documentation", "just plain text", 8, nil)
	require.NoError(t, err)

	_, err = q.Enqueue("devdocs", "documentation", map[string]interface{}{
		"doc":   "css",
		"title": "flexbox",
		"type":  "guide",
		"url":   "https://devdocs.io/css/flexbox",
	}, 5, nil)
	require.NoError(t, err)

	result, err := processor.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)
	assert.Equal(t, 1, result.Errors)

	failed, err := db.GetQueueItem(bad.ID)
	require.NoError(t, err)
	assert.False(t, failed.Processed)
	assert.NotEmpty(t, failed.LearningOutcome["error"])
}

func TestProcessBatchStoresNewsAsExternalData(t *testing.T) {
	db := newTestDB(t)
	q := queue.NewService(db, time.Minute)
	processor := NewProcessor(db, q, 50)

	item, err := q.Enqueue("hackernews", "news", map[string]interface{}{
		"title": "Go 1.23 released",
		"url":   "https://example.com/go-release",
		"score": 420,
	}, 5, nil)
	require.NoError(t, err)

	result, err := processor.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	stored, err := db.GetQueueItem(item.ID)
	require.NoError(t, err)
	assert.True(t, stored.Processed)
	assert.Equal(t, "news_stored", stored.LearningOutcome["action"])

	// News never lands in the knowledge table.
	count, err := db.CountKnowledge()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestProcessBatchHonorsCancellation(t *testing.T) {
	db := newTestDB(t)
	q := queue.NewService(db, time.Minute)
	processor := NewProcessor(db, q, 50)

	for i := 0; i < 3; i++ {
		_, err := q.Enqueue("devdocs", "documentation", map[string]interface{}{
			"doc":   "html",
			"title": "element",
			"url":   "https://devdocs.io/html",
			"n":     i,
		}, 5, nil)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := processor.ProcessBatch(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.Equal(t, 3, result.Remaining)
}
