package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/storage/sqlite"
	"github.com/javari-ai/brain/pkg/logger"
)

const reportWindow = 24 * time.Hour

type Generator struct {
	db                *sqlite.Client
	discordWebhookURL string
	httpClient        *http.Client
}

type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type LearningStats struct {
	NewKnowledgeItems   int            `json:"new_knowledge_items"`
	QueueItemsProcessed int            `json:"queue_items_processed"`
	QueueItemsPending   int            `json:"queue_items_pending"`
	TotalKnowledgeItems int            `json:"total_knowledge_items"`
	KnowledgeByCategory map[string]int `json:"knowledge_by_category"`
}

type SourceDetail struct {
	Name       string     `json:"name"`
	Active     bool       `json:"active"`
	LastFetch  *time.Time `json:"last_fetch"`
	ErrorCount int        `json:"error_count"`
	LastError  string     `json:"last_error,omitempty"`
}

type SourceStats struct {
	Total     int            `json:"total"`
	Healthy   int            `json:"healthy"`
	Degraded  int            `json:"degraded"`
	Unhealthy int            `json:"unhealthy"`
	Details   []SourceDetail `json:"details"`
}

type HealingStats struct {
	IssuesDetected int    `json:"issues_detected"`
	AutoHealed     int    `json:"auto_healed"`
	RequiringHuman int    `json:"requiring_human"`
	HealRate       string `json:"heal_rate"`
}

type ActivityStats struct {
	Total   int `json:"total"`
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

type DailyReport struct {
	GeneratedAt  time.Time                `json:"generated_at"`
	Period       Period                   `json:"period"`
	Learning     LearningStats            `json:"learning"`
	DataSources  SourceStats              `json:"data_sources"`
	SelfHealing  HealingStats             `json:"self_healing"`
	Activity     map[string]ActivityStats `json:"activity"`
	SystemStatus string                   `json:"system_status"`
}

func NewGenerator(db *sqlite.Client, discordWebhookURL string) *Generator {
	return &Generator{
		db:                db,
		discordWebhookURL: discordWebhookURL,
		httpClient:        &http.Client{Timeout: 10 * time.Second},
	}
}

// Daily assembles the previous 24 hours into one report: learning volume,
// source health rollup, self-healing outcomes and an activity summary.
func (g *Generator) Daily() (*DailyReport, error) {
	started := time.Now()
	since := started.UTC().Add(-reportWindow)

	learning, err := g.learningStats(since)
	if err != nil {
		return nil, fmt.Errorf("failed to collect learning stats: %w", err)
	}

	sources, err := g.sourceStats()
	if err != nil {
		return nil, fmt.Errorf("failed to collect source stats: %w", err)
	}

	healing, err := g.healingStats(since)
	if err != nil {
		return nil, fmt.Errorf("failed to collect healing stats: %w", err)
	}

	activity, err := g.activitySummary(since)
	if err != nil {
		return nil, fmt.Errorf("failed to collect activity summary: %w", err)
	}

	rep := &DailyReport{
		GeneratedAt: time.Now().UTC(),
		Period:      Period{Start: since, End: time.Now().UTC()},
		Learning:    *learning,
		DataSources: *sources,
		SelfHealing: *healing,
		Activity:    activity,
		SystemStatus: determineOverallStatus(
			sources.Degraded, sources.Unhealthy, healing.RequiringHuman),
	}

	g.db.LogActivity("daily_report", "autonomous-system",
		map[string]interface{}{
			"system_status":  rep.SystemStatus,
			"new_knowledge":  learning.NewKnowledgeItems,
			"processed":      learning.QueueItemsProcessed,
			"pending":        learning.QueueItemsPending,
			"issues":         healing.IssuesDetected,
			"auto_healed":    healing.AutoHealed,
			"needs_human":    healing.RequiringHuman,
			"sources_total":  sources.Total,
			"sources_failed": sources.Unhealthy,
		},
		true, "", int(time.Since(started).Milliseconds()))

	if g.discordWebhookURL != "" {
		g.sendDiscordNotification(rep)
	}

	return rep, nil
}

func (g *Generator) learningStats(since time.Time) (*LearningStats, error) {
	newKnowledge, err := g.db.CountKnowledgeSince(since)
	if err != nil {
		return nil, err
	}
	processed, err := g.db.CountProcessedSince(since)
	if err != nil {
		return nil, err
	}
	pending, err := g.db.CountUnprocessed()
	if err != nil {
		return nil, err
	}
	total, err := g.db.CountKnowledge()
	if err != nil {
		return nil, err
	}
	categories, err := g.db.KnowledgeCategoryCounts()
	if err != nil {
		return nil, err
	}

	return &LearningStats{
		NewKnowledgeItems:   newKnowledge,
		QueueItemsProcessed: processed,
		QueueItemsPending:   pending,
		TotalKnowledgeItems: total,
		KnowledgeByCategory: categories,
	}, nil
}

func (g *Generator) sourceStats() (*SourceStats, error) {
	sources, err := g.db.ListDataSources(false)
	if err != nil {
		return nil, err
	}

	stats := &SourceStats{Details: make([]SourceDetail, 0, len(sources))}
	for _, src := range sources {
		stats.Total++
		switch {
		case !src.IsActive || src.ErrorCount > 3:
			stats.Unhealthy++
		case src.ErrorCount > 0:
			stats.Degraded++
		default:
			stats.Healthy++
		}
		stats.Details = append(stats.Details, SourceDetail{
			Name:       src.Name,
			Active:     src.IsActive,
			LastFetch:  src.LastFetch,
			ErrorCount: src.ErrorCount,
			LastError:  src.LastError,
		})
	}

	return stats, nil
}

func (g *Generator) healingStats(since time.Time) (*HealingStats, error) {
	issues, err := g.db.IssuesSince(since)
	if err != nil {
		return nil, err
	}

	stats := &HealingStats{IssuesDetected: len(issues)}
	for _, issue := range issues {
		if issue.AutoHealed {
			stats.AutoHealed++
		}
		if issue.RequiresHuman && issue.ResolvedAt == nil {
			stats.RequiringHuman++
		}
	}

	if stats.IssuesDetected > 0 {
		rate := float64(stats.AutoHealed) / float64(stats.IssuesDetected) * 100
		stats.HealRate = fmt.Sprintf("%.1f%%", rate)
	} else {
		stats.HealRate = "100%"
	}

	return stats, nil
}

func (g *Generator) activitySummary(since time.Time) (map[string]ActivityStats, error) {
	activities, err := g.db.ActivitiesSince(since)
	if err != nil {
		return nil, err
	}

	summary := make(map[string]ActivityStats)
	for _, entry := range activities {
		stats := summary[entry.ActionType]
		stats.Total++
		if entry.Success {
			stats.Success++
		} else {
			stats.Failed++
		}
		summary[entry.ActionType] = stats
	}

	return summary, nil
}

func determineOverallStatus(degraded, unhealthy, humanRequired int) string {
	switch {
	case unhealthy > 0 || humanRequired > 2:
		return "critical"
	case degraded > 2 || humanRequired > 0:
		return "degraded"
	case degraded > 0:
		return "good"
	default:
		return "excellent"
	}
}

func (g *Generator) sendDiscordNotification(rep *DailyReport) {
	colors := map[string]int{
		"excellent": 0x00ff00,
		"good":      0xffff00,
		"degraded":  0xff8800,
		"critical":  0xff0000,
	}

	payload := map[string]interface{}{
		"embeds": []map[string]interface{}{{
			"title": "Daily Report: " + rep.SystemStatus,
			"color": colors[rep.SystemStatus],
			"fields": []map[string]interface{}{
				{
					"name": "Learning",
					"value": fmt.Sprintf("New: %d\nProcessed: %d\nPending: %d",
						rep.Learning.NewKnowledgeItems,
						rep.Learning.QueueItemsProcessed,
						rep.Learning.QueueItemsPending),
					"inline": true,
				},
				{
					"name": "Self-Healing",
					"value": fmt.Sprintf("Detected: %d\nAuto-healed: %d\nRate: %s",
						rep.SelfHealing.IssuesDetected,
						rep.SelfHealing.AutoHealed,
						rep.SelfHealing.HealRate),
					"inline": true,
				},
				{
					"name": "Data Sources",
					"value": fmt.Sprintf("Healthy: %d/%d\nDegraded: %d\nUnhealthy: %d",
						rep.DataSources.Healthy,
						rep.DataSources.Total,
						rep.DataSources.Degraded,
						rep.DataSources.Unhealthy),
					"inline": true,
				},
			},
			"timestamp": rep.GeneratedAt.Format(time.RFC3339),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		logger.Warn("Failed to encode report notification", zap.Error(err))
		return
	}

	resp, err := g.httpClient.Post(g.discordWebhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		logger.Warn("Failed to send report notification", zap.Error(err))
		return
	}
	resp.Body.Close()
}
