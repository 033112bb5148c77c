package knowledge

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javari-ai/brain/internal/storage/models"
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

func TestUpsertMergesOnTopic(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	require.NoError(t, svc.Upsert(&models.KnowledgeEntry{
		Category: "javascript",
		Topic:    "devdocs:react:useEffect",
		Question: "How to use useEffect?",
		Answer:   "First version of the answer.",
		Source:   "devdocs",
	}))
	require.NoError(t, svc.Upsert(&models.KnowledgeEntry{
		Category:        "react",
		Topic:           "devdocs:react:useEffect",
		Question:        "How to use useEffect in React?",
		Answer:          "Second, better answer.",
		Source:          "devdocs",
		ConfidenceScore: 0.9,
	}))

	count, err := db.CountKnowledge()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	entry, err := db.GetKnowledgeByTopic("devdocs:react:useEffect")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "react", entry.Category)
	assert.Equal(t, "Second, better answer.", entry.Answer)
	assert.Equal(t, 0.9, entry.ConfidenceScore)
}

func TestSearchValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	cases := []struct {
		name  string
		query string
		k     int
	}{
		{"empty query", "", 10},
		{"k zero", "react", 0},
		{"k above limit", "react", 101},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Search(tc.query, tc.k)
			require.Error(t, err)
			assert.Equal(t, 400, apperrors.StatusCode(err))
		})
	}
}

func TestSearchRanksAndBounds(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	for i := 0; i < 15; i++ {
		require.NoError(t, svc.Upsert(&models.KnowledgeEntry{
			Category:        "react",
			Topic:           fmt.Sprintf("devdocs:react:hook-%d", i),
			Question:        "How to use hooks?",
			Answer:          fmt.Sprintf("React hooks reference entry %d.", i),
			Source:          "devdocs",
			ConfidenceScore: 0.5 + float64(i)*0.01,
		}))
	}
	require.NoError(t, svc.Upsert(&models.KnowledgeEntry{
		Category: "database",
		Topic:    "devdocs:postgresql:vacuum",
		Question: "What does VACUUM do?",
		Answer:   "PostgreSQL storage maintenance.",
		Source:   "devdocs",
	}))

	results, err := svc.Search("react hooks", 10)
	require.NoError(t, err)
	require.Len(t, results, 10)

	for i, res := range results {
		matched := strings.Contains(strings.ToLower(res.Snippet), "react") ||
			strings.Contains(strings.ToLower(res.SourceName), "react")
		assert.True(t, matched, "result %d should match a query term", i)

		if i > 0 {
			assert.GreaterOrEqual(t, results[i-1].Confidence, res.Confidence)
		}
	}
}

func TestSearchSkipsInactiveEntries(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	require.NoError(t, svc.Upsert(&models.KnowledgeEntry{
		Category: "react",
		Topic:    "devdocs:react:retired",
		Question: "Old guidance?",
		Answer:   "Deprecated react advice.",
		Source:   "devdocs",
	}))

	entry, err := db.GetKnowledgeByTopic("devdocs:react:retired")
	require.NoError(t, err)
	require.NoError(t, db.DeactivateKnowledge(entry.ID))

	results, err := svc.Search("react", 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchTermsDropShortTokens(t *testing.T) {
	terms := SearchTerms("go is a fun and fast language")
	assert.Equal(t, []string{"fun", "and", "fast", "language"}, terms)
}

func TestSnippetTruncatesOnRuneBoundary(t *testing.T) {
	short := "短い答え"
	assert.Equal(t, short, snippet(short))

	// 1 ASCII byte then three-byte runes, so the 300-byte cut lands mid-rune.
	long := "a" + strings.Repeat("日", 150)
	got := snippet(long)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.LessOrEqual(t, len(got), 300+len("..."))
}
