package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/pkg/logger"
)

// UpsertKnowledge writes an entry keyed by unique topic. On conflict every
// field is overwritten and updated_at refreshed; there is no field-level merge.
func (c *Client) UpsertKnowledge(entry *models.KnowledgeEntry) error {
	keywordsJSON, err := json.Marshal(entry.Keywords)
	if err != nil {
		return fmt.Errorf("failed to marshal keywords: %w", err)
	}

	now := time.Now().UTC().Unix()

	query := `
		INSERT INTO knowledge_entries (id, category, topic, question, answer, short_answer, source,
			source_url, confidence_score, keywords, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(topic) DO UPDATE SET
			category = excluded.category,
			question = excluded.question,
			answer = excluded.answer,
			short_answer = excluded.short_answer,
			source = excluded.source,
			source_url = excluded.source_url,
			confidence_score = excluded.confidence_score,
			keywords = excluded.keywords,
			is_active = excluded.is_active,
			updated_at = excluded.updated_at
	`

	isActive := 0
	if entry.IsActive {
		isActive = 1
	}

	_, err = c.db.Exec(
		query,
		entry.ID,
		entry.Category,
		entry.Topic,
		entry.Question,
		entry.Answer,
		entry.ShortAnswer,
		entry.Source,
		entry.SourceURL,
		entry.ConfidenceScore,
		string(keywordsJSON),
		isActive,
		now,
		now,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert knowledge entry: %w", err)
	}

	logger.Debug("Knowledge entry upserted",
		zap.String("topic", entry.Topic),
		zap.String("category", entry.Category),
	)
	return nil
}

func (c *Client) GetKnowledgeByID(id string) (*models.KnowledgeEntry, error) {
	row := c.db.QueryRow(`
		SELECT id, category, topic, question, answer, short_answer, source, source_url,
			confidence_score, keywords, is_active, created_at, updated_at
		FROM knowledge_entries WHERE id = ?
	`, id)

	entry, err := scanKnowledgeEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge entry: %w", err)
	}
	return entry, nil
}

func (c *Client) GetKnowledgeByTopic(topic string) (*models.KnowledgeEntry, error) {
	row := c.db.QueryRow(`
		SELECT id, category, topic, question, answer, short_answer, source, source_url,
			confidence_score, keywords, is_active, created_at, updated_at
		FROM knowledge_entries WHERE topic = ?
	`, topic)

	entry, err := scanKnowledgeEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get knowledge entry: %w", err)
	}
	return entry, nil
}

// SearchKnowledge matches each term as a case-insensitive substring against
// answer, topic or source. A row qualifies when any term matches any field.
// Only active entries are eligible; rows come back by confidence descending.
func (c *Client) SearchKnowledge(terms []string, k int) ([]models.KnowledgeEntry, error) {
	query := `
		SELECT id, category, topic, question, answer, short_answer, source, source_url,
			confidence_score, keywords, is_active, created_at, updated_at
		FROM knowledge_entries
		WHERE is_active = 1
	`

	var args []interface{}
	if len(terms) > 0 {
		var conditions []string
		for _, term := range terms {
			pattern := "%" + term + "%"
			conditions = append(conditions, "(answer LIKE ? OR topic LIKE ? OR source LIKE ?)")
			args = append(args, pattern, pattern, pattern)
		}
		query += " AND (" + strings.Join(conditions, " OR ") + ")"
	}

	query += " ORDER BY confidence_score DESC LIMIT ?"
	args = append(args, k)

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search knowledge: %w", err)
	}
	defer rows.Close()

	var entries []models.KnowledgeEntry
	for rows.Next() {
		entry, err := scanKnowledgeEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan knowledge row: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate knowledge rows: %w", err)
	}

	return entries, nil
}

func (c *Client) CountKnowledge() (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM knowledge_entries`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count knowledge entries: %w", err)
	}
	return count, nil
}

func (c *Client) CountKnowledgeSince(since time.Time) (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM knowledge_entries WHERE created_at >= ?`, since.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent knowledge entries: %w", err)
	}
	return count, nil
}

func (c *Client) KnowledgeCategoryCounts() (map[string]int, error) {
	rows, err := c.db.Query(`SELECT category, COUNT(*) FROM knowledge_entries GROUP BY category`)
	if err != nil {
		return nil, fmt.Errorf("failed to count categories: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var count int
		if err := rows.Scan(&category, &count); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		counts[category] = count
	}
	return counts, rows.Err()
}

// DeactivateKnowledge is the only supported removal path. Entries are never
// hard-deleted by pipeline operation.
func (c *Client) DeactivateKnowledge(id string) error {
	_, err := c.db.Exec(`UPDATE knowledge_entries SET is_active = 0, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Unix(), id)
	if err != nil {
		return fmt.Errorf("failed to deactivate knowledge entry: %w", err)
	}
	return nil
}

func (c *Client) UpsertExternalData(source, dataType string, content map[string]interface{}) error {
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal external data: %w", err)
	}

	_, err = c.db.Exec(`
		INSERT INTO external_data (source, data_type, content, fetched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source, data_type) DO UPDATE SET
			content = excluded.content,
			fetched_at = excluded.fetched_at
	`, source, dataType, string(contentJSON), time.Now().UTC().Unix())

	if err != nil {
		return fmt.Errorf("failed to upsert external data: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanKnowledgeEntry(row rowScanner) (*models.KnowledgeEntry, error) {
	var entry models.KnowledgeEntry
	var keywordsJSON sql.NullString
	var sourceURL sql.NullString
	var isActive int
	var createdAt, updatedAt int64

	err := row.Scan(&entry.ID, &entry.Category, &entry.Topic, &entry.Question, &entry.Answer,
		&entry.ShortAnswer, &entry.Source, &sourceURL, &entry.ConfidenceScore, &keywordsJSON,
		&isActive, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if sourceURL.Valid {
		entry.SourceURL = sourceURL.String
	}
	if keywordsJSON.Valid && keywordsJSON.String != "" {
		json.Unmarshal([]byte(keywordsJSON.String), &entry.Keywords)
	}
	entry.IsActive = isActive == 1
	entry.CreatedAt = time.Unix(createdAt, 0).UTC()
	entry.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &entry, nil
}
