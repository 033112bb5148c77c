package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/pkg/logger"
)

func (c *Client) InsertQueueItem(item *models.RawItem) error {
	outcomeJSON, err := json.Marshal(item.LearningOutcome)
	if err != nil {
		return fmt.Errorf("failed to marshal learning outcome: %w", err)
	}

	query := `
		INSERT INTO queue_items (id, source, content_type, raw_content, content_hash, priority, processed, learning_outcome, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)
	`

	_, err = c.db.Exec(
		query,
		item.ID,
		item.Source,
		item.ContentType,
		item.RawContent,
		item.ContentHash,
		item.Priority,
		string(outcomeJSON),
		item.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert queue item: %w", err)
	}

	logger.Debug("Queue item inserted",
		zap.String("item_id", item.ID),
		zap.String("source", item.Source),
		zap.Int("priority", item.Priority),
	)
	return nil
}

// FindQueueItemByHash returns the id of an existing item with the same
// content fingerprint. Duplicate detection is exact-match only.
func (c *Client) FindQueueItemByHash(contentHash string) (string, bool, error) {
	var id string
	err := c.db.QueryRow(`SELECT id FROM queue_items WHERE content_hash = ? LIMIT 1`, contentHash).Scan(&id)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to check for duplicate: %w", err)
	}
	return id, true, nil
}

// ClaimUnprocessed selects up to batchSize unprocessed items in priority/age
// order and leases each one before returning it. An item already leased
// within leaseTTL is skipped, so two concurrent drains never share an item.
func (c *Client) ClaimUnprocessed(batchSize int, leaseTTL time.Duration, leasedBy string) ([]models.RawItem, error) {
	now := time.Now().UTC()
	leaseCutoff := now.Add(-leaseTTL).Unix()

	rows, err := c.db.Query(`
		SELECT id, source, content_type, raw_content, content_hash, priority, learning_outcome, created_at
		FROM queue_items
		WHERE processed = 0 AND (leased_at IS NULL OR leased_at < ?)
		ORDER BY priority DESC, created_at ASC, rowid ASC
		LIMIT ?
	`, leaseCutoff, batchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch queue: %w", err)
	}
	defer rows.Close()

	var candidates []models.RawItem
	for rows.Next() {
		var item models.RawItem
		var outcomeJSON sql.NullString
		var createdAt int64

		err := rows.Scan(&item.ID, &item.Source, &item.ContentType, &item.RawContent,
			&item.ContentHash, &item.Priority, &outcomeJSON, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan queue row: %w", err)
		}

		if outcomeJSON.Valid && outcomeJSON.String != "" {
			json.Unmarshal([]byte(outcomeJSON.String), &item.LearningOutcome)
		}
		item.CreatedAt = time.Unix(createdAt, 0).UTC()
		candidates = append(candidates, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate queue rows: %w", err)
	}

	var claimed []models.RawItem
	for _, item := range candidates {
		res, err := c.db.Exec(`
			UPDATE queue_items SET leased_by = ?, leased_at = ?
			WHERE id = ? AND processed = 0 AND (leased_at IS NULL OR leased_at < ?)
		`, leasedBy, now.Unix(), item.ID, leaseCutoff)
		if err != nil {
			return nil, fmt.Errorf("failed to lease queue item: %w", err)
		}

		affected, _ := res.RowsAffected()
		if affected == 0 {
			continue
		}

		leasedAt := now
		item.LeasedBy = leasedBy
		item.LeasedAt = &leasedAt
		claimed = append(claimed, item)
	}

	return claimed, nil
}

func (c *Client) MarkProcessed(id string, outcome map[string]interface{}) error {
	outcomeJSON, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal learning outcome: %w", err)
	}

	_, err = c.db.Exec(`
		UPDATE queue_items
		SET processed = 1, processed_at = ?, learning_outcome = ?, leased_by = NULL, leased_at = NULL
		WHERE id = ?
	`, time.Now().UTC().Unix(), string(outcomeJSON), id)

	if err != nil {
		return fmt.Errorf("failed to mark item processed: %w", err)
	}
	return nil
}

// RecordItemFailure writes the failure into learning_outcome and releases the
// lease. The item stays unprocessed and eligible for the next drain.
func (c *Client) RecordItemFailure(id string, outcome map[string]interface{}) error {
	outcomeJSON, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal learning outcome: %w", err)
	}

	_, err = c.db.Exec(`
		UPDATE queue_items
		SET learning_outcome = ?, leased_by = NULL, leased_at = NULL
		WHERE id = ?
	`, string(outcomeJSON), id)

	if err != nil {
		return fmt.Errorf("failed to record item failure: %w", err)
	}
	return nil
}

func (c *Client) CountUnprocessed() (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM queue_items WHERE processed = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count backlog: %w", err)
	}
	return count, nil
}

func (c *Client) CountProcessedSince(since time.Time) (int, error) {
	var count int
	err := c.db.QueryRow(`SELECT COUNT(*) FROM queue_items WHERE processed = 1 AND processed_at >= ?`, since.Unix()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count processed items: %w", err)
	}
	return count, nil
}

// DeleteProcessedBefore removes processed items older than the cutoff. Only
// processed items are eligible for retention deletion.
func (c *Client) DeleteProcessedBefore(cutoff time.Time) (int64, error) {
	res, err := c.db.Exec(`DELETE FROM queue_items WHERE processed = 1 AND processed_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete old queue items: %w", err)
	}

	deleted, _ := res.RowsAffected()
	if deleted > 0 {
		logger.Info("Old processed queue items deleted", zap.Int64("count", deleted))
	}
	return deleted, nil
}

func (c *Client) GetQueueItem(id string) (*models.RawItem, error) {
	var item models.RawItem
	var outcomeJSON sql.NullString
	var processedAt, leasedAt sql.NullInt64
	var leasedBy sql.NullString
	var processed int
	var createdAt int64

	err := c.db.QueryRow(`
		SELECT id, source, content_type, raw_content, content_hash, priority, processed, processed_at,
			learning_outcome, leased_by, leased_at, created_at
		FROM queue_items WHERE id = ?
	`, id).Scan(&item.ID, &item.Source, &item.ContentType, &item.RawContent, &item.ContentHash,
		&item.Priority, &processed, &processedAt, &outcomeJSON, &leasedBy, &leasedAt, &createdAt)

	if err != nil {
		return nil, fmt.Errorf("failed to get queue item: %w", err)
	}

	item.Processed = processed == 1
	if processedAt.Valid {
		t := time.Unix(processedAt.Int64, 0).UTC()
		item.ProcessedAt = &t
	}
	if outcomeJSON.Valid && outcomeJSON.String != "" {
		json.Unmarshal([]byte(outcomeJSON.String), &item.LearningOutcome)
	}
	if leasedBy.Valid {
		item.LeasedBy = leasedBy.String
	}
	if leasedAt.Valid {
		t := time.Unix(leasedAt.Int64, 0).UTC()
		item.LeasedAt = &t
	}
	item.CreatedAt = time.Unix(createdAt, 0).UTC()

	return &item, nil
}
