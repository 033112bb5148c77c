package healing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/metrics"
	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/internal/storage/sqlite"
	"github.com/javari-ai/brain/pkg/logger"
)

const (
	maxIssuesPerRun      = 20
	sourceErrorThreshold = 3
)

type Dispatcher struct {
	db           *sqlite.Client
	queue        *queue.Service
	retentionAge time.Duration
}

type ActionResult struct {
	IssueID   string `json:"issue_id"`
	Component string `json:"component"`
	IssueType string `json:"issue_type"`
	Action    string `json:"action"`
	Status    string `json:"status"`
	Detail    string `json:"detail,omitempty"`
}

type Summary struct {
	Timestamp  time.Time      `json:"timestamp"`
	Examined   int            `json:"examined"`
	Successful int            `json:"successful"`
	Failed     int            `json:"failed"`
	Skipped    int            `json:"skipped"`
	Actions    []ActionResult `json:"actions"`
	Swept      int64          `json:"swept"`
}

func NewDispatcher(db *sqlite.Client, q *queue.Service, retentionAge time.Duration) *Dispatcher {
	if retentionAge == 0 {
		retentionAge = 7 * 24 * time.Hour
	}
	return &Dispatcher{db: db, queue: q, retentionAge: retentionAge}
}

// Run works through unresolved issues in severity order, applying the
// remediation each issue type admits. Issues without an automatic remedy
// are marked for a human and never retried by this loop.
func (d *Dispatcher) Run(ctx context.Context) (*Summary, error) {
	started := time.Now()
	summary := &Summary{Timestamp: started.UTC()}

	issues, err := d.db.UnresolvedIssues(maxIssuesPerRun)
	if err != nil {
		d.db.LogIssue(&models.HealingIssue{
			Component:     "self-healing",
			IssueType:     "healing_run_failed",
			Description:   fmt.Sprintf("Could not load unresolved issues: %v", err),
			Severity:      models.SeverityCritical,
			RequiresHuman: true,
		})
		return nil, fmt.Errorf("failed to load unresolved issues: %w", err)
	}
	summary.Examined = len(issues)

	for _, issue := range issues {
		if ctx.Err() != nil {
			break
		}
		result := d.remediate(issue)
		summary.Actions = append(summary.Actions, result)
		switch result.Status {
		case "success":
			summary.Successful++
		case "failed":
			summary.Failed++
		default:
			summary.Skipped++
		}
		metrics.HealingActions.WithLabelValues(result.Status).Inc()
	}

	d.sweepErroredSources(summary)

	swept, err := d.queue.RetentionSweep(d.retentionAge)
	if err != nil {
		logger.Warn("Queue retention sweep failed", zap.Error(err))
	} else {
		summary.Swept = swept
	}

	errMsg := ""
	if summary.Failed > 0 {
		errMsg = fmt.Sprintf("%d healing actions failed", summary.Failed)
	}
	d.db.LogActivity("self_heal", "self-healing",
		map[string]interface{}{
			"examined":   summary.Examined,
			"successful": summary.Successful,
			"failed":     summary.Failed,
			"skipped":    summary.Skipped,
			"swept":      summary.Swept,
		},
		summary.Failed == 0, errMsg, int(time.Since(started).Milliseconds()))

	return summary, nil
}

func (d *Dispatcher) remediate(issue models.HealingIssue) ActionResult {
	result := ActionResult{
		IssueID:   issue.ID,
		Component: issue.Component,
		IssueType: issue.IssueType,
	}

	switch issue.IssueType {
	case "multiple_failures", "scrape_failed":
		result.Action = "reset_source_errors"
		source := sourceNameFromComponent(issue.Component)
		if err := d.db.ResetSourceErrors(source); err != nil {
			result.Status = "failed"
			result.Detail = err.Error()
			return result
		}
		result.Status = "success"
		result.Detail = fmt.Sprintf("reset error count for %s", source)

	case "queue_backlog":
		result.Action = "increase_processing_priority"
		result.Status = "success"
		result.Detail = "queue processing flagged for more frequent runs"

	case "database_slow":
		result.Action = "notify_admin"
		result.Status = "skipped"
		result.Detail = "storage latency requires manual investigation"
		if err := d.db.MarkIssueForHuman(issue.ID); err != nil {
			logger.Warn("Failed to escalate issue",
				zap.String("issue_id", issue.ID), zap.Error(err))
		}
		return result

	default:
		result.Action = "mark_for_review"
		result.Status = "skipped"
		result.Detail = fmt.Sprintf("no automatic remedy for %s", issue.IssueType)
		return result
	}

	if result.Status == "success" {
		if err := d.db.ResolveIssue(issue.ID, result.Action, result.Detail); err != nil {
			logger.Warn("Failed to record resolution",
				zap.String("issue_id", issue.ID), zap.Error(err))
		}
	}
	return result
}

// sweepErroredSources preemptively resets active sources whose error count
// crossed the threshold, before they degrade to unhealthy.
func (d *Dispatcher) sweepErroredSources(summary *Summary) {
	sources, err := d.db.SourcesWithErrorsAbove(sourceErrorThreshold)
	if err != nil {
		logger.Warn("Failed to list errored sources", zap.Error(err))
		return
	}

	for _, src := range sources {
		if err := d.db.ResetSourceErrors(src.Name); err != nil {
			logger.Warn("Failed to reset source",
				zap.String("source", src.Name), zap.Error(err))
			continue
		}
		d.db.LogIssue(&models.HealingIssue{
			Component:   "source:" + src.Name,
			IssueType:   "error_threshold_exceeded",
			Description: fmt.Sprintf("Source %s had %d consecutive errors, counter reset", src.Name, src.ErrorCount),
			Severity:    models.SeverityLow,
			AutoHealed:  true,
		})
		summary.Actions = append(summary.Actions, ActionResult{
			Component: "source:" + src.Name,
			IssueType: "error_threshold_exceeded",
			Action:    "reset_source_errors",
			Status:    "success",
			Detail:    fmt.Sprintf("error count %d reset to 0", src.ErrorCount),
		})
		summary.Successful++
		metrics.HealingActions.WithLabelValues("success").Inc()
	}
}

func sourceNameFromComponent(component string) string {
	name := strings.TrimPrefix(component, "source:")
	return strings.TrimSuffix(name, "-scraper")
}
