package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/pkg/logger"
)

func (c *Client) InsertIssue(issue *models.HealingIssue) error {
	if issue.ID == "" {
		issue.ID = uuid.New().String()
	}
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = time.Now().UTC()
	}

	autoHealed := 0
	var resolvedAt interface{}
	if issue.AutoHealed {
		autoHealed = 1
		resolvedAt = issue.CreatedAt.Unix()
	}

	requiresHuman := 0
	if issue.RequiresHuman {
		requiresHuman = 1
	}
	notified := 0
	if issue.Notified {
		notified = 1
	}

	_, err := c.db.Exec(`
		INSERT INTO healing_issues (id, component, issue_type, description, severity, auto_healed,
			healing_action, healing_result, requires_human, notified, created_at, resolved_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, issue.ID, issue.Component, issue.IssueType, issue.Description, string(issue.Severity),
		autoHealed, issue.HealingAction, issue.HealingResult, requiresHuman, notified,
		issue.CreatedAt.Unix(), resolvedAt)

	if err != nil {
		return fmt.Errorf("failed to insert healing issue: %w", err)
	}
	return nil
}

// LogIssue is the best-effort variant: a failure to record an issue is written
// to the diagnostic log only and never surfaces to the caller.
func (c *Client) LogIssue(issue *models.HealingIssue) {
	if err := c.InsertIssue(issue); err != nil {
		logger.Error("Failed to log healing issue",
			zap.String("component", issue.Component),
			zap.String("issue_type", issue.IssueType),
			zap.Error(err),
		)
	}
}

// UnresolvedIssues returns open issues ordered by severity descending, then
// age ascending. The explicit severity rank avoids lexical string ordering.
func (c *Client) UnresolvedIssues(limit int) ([]models.HealingIssue, error) {
	rows, err := c.db.Query(`
		SELECT id, component, issue_type, description, severity, auto_healed, healing_action,
			healing_result, requires_human, notified, created_at, resolved_at
		FROM healing_issues
		WHERE resolved_at IS NULL AND auto_healed = 0
		ORDER BY CASE severity
			WHEN 'critical' THEN 4
			WHEN 'high' THEN 3
			WHEN 'medium' THEN 2
			ELSE 1
		END DESC, created_at ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unresolved issues: %w", err)
	}
	defer rows.Close()

	return scanIssues(rows)
}

func (c *Client) IssuesSince(since time.Time) ([]models.HealingIssue, error) {
	rows, err := c.db.Query(`
		SELECT id, component, issue_type, description, severity, auto_healed, healing_action,
			healing_result, requires_human, notified, created_at, resolved_at
		FROM healing_issues
		WHERE created_at >= ?
		ORDER BY created_at DESC
	`, since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent issues: %w", err)
	}
	defer rows.Close()

	return scanIssues(rows)
}

func (c *Client) ResolveIssue(id, action, result string) error {
	_, err := c.db.Exec(`
		UPDATE healing_issues
		SET auto_healed = 1, healing_action = ?, healing_result = ?, resolved_at = ?
		WHERE id = ?
	`, action, result, time.Now().UTC().Unix(), id)

	if err != nil {
		return fmt.Errorf("failed to resolve issue: %w", err)
	}
	return nil
}

// MarkIssueForHuman flags an open issue as needing operator attention without
// resolving it; it stays eligible for later dispatch passes.
func (c *Client) MarkIssueForHuman(id string) error {
	_, err := c.db.Exec(`UPDATE healing_issues SET requires_human = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to flag issue for human: %w", err)
	}
	return nil
}

func (c *Client) GetIssue(id string) (*models.HealingIssue, error) {
	rows, err := c.db.Query(`
		SELECT id, component, issue_type, description, severity, auto_healed, healing_action,
			healing_result, requires_human, notified, created_at, resolved_at
		FROM healing_issues WHERE id = ?
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	defer rows.Close()

	issues, err := scanIssues(rows)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return nil, nil
	}
	return &issues[0], nil
}

func scanIssues(rows *sql.Rows) ([]models.HealingIssue, error) {
	var issues []models.HealingIssue
	for rows.Next() {
		var issue models.HealingIssue
		var description, healingAction, healingResult sql.NullString
		var autoHealed, requiresHuman, notified int
		var severity string
		var createdAt int64
		var resolvedAt sql.NullInt64

		err := rows.Scan(&issue.ID, &issue.Component, &issue.IssueType, &description, &severity,
			&autoHealed, &healingAction, &healingResult, &requiresHuman, &notified,
			&createdAt, &resolvedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan issue row: %w", err)
		}

		issue.Description = description.String
		issue.HealingAction = healingAction.String
		issue.HealingResult = healingResult.String
		issue.Severity = models.Severity(severity)
		issue.AutoHealed = autoHealed == 1
		issue.RequiresHuman = requiresHuman == 1
		issue.Notified = notified == 1
		issue.CreatedAt = time.Unix(createdAt, 0).UTC()
		if resolvedAt.Valid {
			t := time.Unix(resolvedAt.Int64, 0).UTC()
			issue.ResolvedAt = &t
		}
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}
