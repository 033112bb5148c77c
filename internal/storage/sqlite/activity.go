package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/pkg/logger"
)

func (c *Client) InsertActivity(entry *models.ActivityEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal activity metadata: %w", err)
	}

	success := 0
	if entry.Success {
		success = 1
	}

	_, err = c.db.Exec(`
		INSERT INTO activity_log (id, action_type, component, metadata, success, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.ActionType, entry.Component, string(metadataJSON), success,
		entry.ErrorMessage, entry.DurationMS, entry.CreatedAt.Unix())

	if err != nil {
		return fmt.Errorf("failed to insert activity entry: %w", err)
	}
	return nil
}

// LogActivity is best-effort: audit logging must never mask or replace the
// primary result, so failures here go to the diagnostic log only.
func (c *Client) LogActivity(actionType, component string, metadata map[string]interface{}, success bool, errorMessage string, durationMS int) {
	entry := &models.ActivityEntry{
		ActionType:   actionType,
		Component:    component,
		Metadata:     metadata,
		Success:      success,
		ErrorMessage: errorMessage,
		DurationMS:   durationMS,
	}

	if err := c.InsertActivity(entry); err != nil {
		logger.Error("Failed to log activity",
			zap.String("action_type", actionType),
			zap.String("component", component),
			zap.Error(err),
		)
	}
}

func (c *Client) ActivitiesSince(since time.Time) ([]models.ActivityEntry, error) {
	rows, err := c.db.Query(`
		SELECT id, action_type, component, metadata, success, error_message, duration_ms, created_at
		FROM activity_log
		WHERE created_at >= ?
		ORDER BY created_at DESC
	`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch activities: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

// RecentDecisions lists activity entries recorded by the decision log,
// newest first, optionally filtered by component.
func (c *Client) RecentDecisions(limit int, component string) ([]models.ActivityEntry, error) {
	query := `
		SELECT id, action_type, component, metadata, success, error_message, duration_ms, created_at
		FROM activity_log
		WHERE action_type = 'decision_logged'
	`
	var args []interface{}
	if component != "" {
		query += " AND component = ?"
		args = append(args, component)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch decisions: %w", err)
	}
	defer rows.Close()

	return scanActivities(rows)
}

func scanActivities(rows *sql.Rows) ([]models.ActivityEntry, error) {
	var entries []models.ActivityEntry
	for rows.Next() {
		var entry models.ActivityEntry
		var metadataJSON, errorMessage sql.NullString
		var success int
		var durationMS sql.NullInt64
		var createdAt int64

		err := rows.Scan(&entry.ID, &entry.ActionType, &entry.Component, &metadataJSON,
			&success, &errorMessage, &durationMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity row: %w", err)
		}

		if metadataJSON.Valid && metadataJSON.String != "" {
			json.Unmarshal([]byte(metadataJSON.String), &entry.Metadata)
		}
		entry.Success = success == 1
		entry.ErrorMessage = errorMessage.String
		entry.DurationMS = int(durationMS.Int64)
		entry.CreatedAt = time.Unix(createdAt, 0).UTC()
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
