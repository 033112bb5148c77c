package healing

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/internal/storage/sqlite"
)

func newTestEnv(t *testing.T) (*sqlite.Client, *Dispatcher) {
	t.Helper()
	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	q := queue.NewService(db, time.Minute)
	return db, NewDispatcher(db, q, 7*24*time.Hour)
}

func registerSource(t *testing.T, db *sqlite.Client, name string, errorCount int) {
	t.Helper()
	require.NoError(t, db.UpsertDataSource(&models.DataSource{
		Name:           name,
		SourceType:     "scrape",
		FetchFrequency: "06:00:00",
		IsActive:       true,
	}))
	require.NoError(t, db.UpdateSourceFetchResult(name, errorCount, "fetch failed", nil))
}

func TestRunHealsScrapeFailureInOnePass(t *testing.T) {
	db, dispatcher := newTestEnv(t)
	registerSource(t, db, "mdn", 2)

	issue := &models.HealingIssue{
		Component:   "mdn-scraper",
		IssueType:   "scrape_failed",
		Description: "index fetch kept failing",
		Severity:    models.SeverityMedium,
	}
	require.NoError(t, db.InsertIssue(issue))

	summary, err := dispatcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Examined)
	assert.Equal(t, 1, summary.Successful)
	assert.Equal(t, 0, summary.Failed)

	healed, err := db.GetIssue(issue.ID)
	require.NoError(t, err)
	assert.True(t, healed.AutoHealed)
	assert.Equal(t, "reset_source_errors", healed.HealingAction)
	assert.NotNil(t, healed.ResolvedAt)

	src, err := db.GetDataSource("mdn")
	require.NoError(t, err)
	assert.Equal(t, 0, src.ErrorCount)
	assert.Empty(t, src.LastError)

	// Converged: the next pass finds nothing to do.
	second, err := dispatcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Examined)
}

func TestRunEscalatesDatabaseSlowToHuman(t *testing.T) {
	db, dispatcher := newTestEnv(t)

	issue := &models.HealingIssue{
		Component:   "store",
		IssueType:   "database_slow",
		Description: "queries above latency budget",
		Severity:    models.SeverityHigh,
	}
	require.NoError(t, db.InsertIssue(issue))

	summary, err := dispatcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Successful)

	flagged, err := db.GetIssue(issue.ID)
	require.NoError(t, err)
	assert.False(t, flagged.AutoHealed)
	assert.True(t, flagged.RequiresHuman)
	assert.Nil(t, flagged.ResolvedAt)

	// No automatic remedy exists, so the issue persists across passes.
	second, err := dispatcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, second.Examined)
	assert.Equal(t, 1, second.Skipped)
}

func TestRunSkipsUnknownIssueType(t *testing.T) {
	db, dispatcher := newTestEnv(t)

	require.NoError(t, db.InsertIssue(&models.HealingIssue{
		Component:   "classifier",
		IssueType:   "cosmic_rays",
		Description: "no strategy entry",
		Severity:    models.SeverityLow,
	}))

	summary, err := dispatcher.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Actions, 1)
	assert.Equal(t, "mark_for_review", summary.Actions[0].Action)
	assert.Equal(t, "skipped", summary.Actions[0].Status)
}

func TestRunSweepsErroredSourcesWithoutIssues(t *testing.T) {
	db, dispatcher := newTestEnv(t)
	registerSource(t, db, "devdocs", 5)

	summary, err := dispatcher.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Examined)
	assert.Equal(t, 1, summary.Successful)

	src, err := db.GetDataSource("devdocs")
	require.NoError(t, err)
	assert.Equal(t, 0, src.ErrorCount)

	// The sweep leaves an audit trail as a pre-resolved issue.
	since := time.Now().UTC().Add(-time.Minute)
	issues, err := db.IssuesSince(since)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "error_threshold_exceeded", issues[0].IssueType)
	assert.True(t, issues[0].AutoHealed)
}

func TestRunOrdersIssuesBySeverity(t *testing.T) {
	db, dispatcher := newTestEnv(t)
	registerSource(t, db, "news", 1)

	require.NoError(t, db.InsertIssue(&models.HealingIssue{
		Component: "classifier",
		IssueType: "unknown_low",
		Severity:  models.SeverityLow,
	}))
	require.NoError(t, db.InsertIssue(&models.HealingIssue{
		Component: "news-scraper",
		IssueType: "scrape_failed",
		Severity:  models.SeverityCritical,
	}))

	summary, err := dispatcher.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, summary.Actions, 2)
	assert.Equal(t, "scrape_failed", summary.Actions[0].IssueType)
	assert.Equal(t, "unknown_low", summary.Actions[1].IssueType)
}
