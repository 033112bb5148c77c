package knowledge

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/internal/storage/sqlite"
	"github.com/javari-ai/brain/pkg/apperrors"
)

const (
	DefaultConfidence = 0.8
	snippetLength     = 300
	minTermLength     = 2
	MinResults        = 1
	MaxResults        = 100
)

type Service struct {
	db *sqlite.Client
}

func NewService(db *sqlite.Client) *Service {
	return &Service{db: db}
}

// Upsert writes an entry by unique topic, applying the defaults callers may
// omit: confidence 0.8 and active true.
func (s *Service) Upsert(entry *models.KnowledgeEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.ConfidenceScore == 0 {
		entry.ConfidenceScore = DefaultConfidence
	}
	return s.db.UpsertKnowledge(entry)
}

type SearchResult struct {
	ID         string    `json:"id"`
	Snippet    string    `json:"snippet"`
	SourceName string    `json:"source_name"`
	SourceURL  string    `json:"source_url,omitempty"`
	Category   string    `json:"category"`
	Keywords   []string  `json:"keywords,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	Confidence float64   `json:"confidence"`
}

// Search runs the ranked lookup. Terms are the whitespace tokens of the query
// longer than two characters; k outside [1,100] is a validation failure, not
// silently clamped.
func (s *Service) Search(query string, k int) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, apperrors.NewValidation("missing required parameter: q")
	}
	if k < MinResults || k > MaxResults {
		return nil, apperrors.NewValidation("parameter k must be between %d and %d", MinResults, MaxResults)
	}

	terms := SearchTerms(query)

	entries, err := s.db.SearchKnowledge(terms, k)
	if err != nil {
		return nil, apperrors.NewDownstream(err, "search failed")
	}

	results := make([]SearchResult, 0, len(entries))
	for i, entry := range entries {
		confidence := entry.ConfidenceScore
		if confidence == 0 {
			// Positional decay for unscored rows: later ranks trail off.
			confidence = 1 - float64(i)*0.05
		}

		sourceName := entry.Source
		if sourceName == "" {
			sourceName = entry.Topic
		}

		results = append(results, SearchResult{
			ID:         entry.ID,
			Snippet:    snippet(entry.Answer),
			SourceName: sourceName,
			SourceURL:  entry.SourceURL,
			Category:   entry.Category,
			Keywords:   entry.Keywords,
			CreatedAt:  entry.CreatedAt,
			Confidence: confidence,
		})
	}

	return results, nil
}

func SearchTerms(query string) []string {
	var terms []string
	for _, token := range strings.Fields(query) {
		if len(token) > minTermLength {
			terms = append(terms, token)
		}
	}
	return terms
}

func snippet(answer string) string {
	if len(answer) <= snippetLength {
		return answer
	}
	cut := snippetLength
	for cut > 0 && !utf8.RuneStart(answer[cut]) {
		cut--
	}
	return answer[:cut] + "..."
}
