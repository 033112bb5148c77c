package health

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/metrics"
	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/internal/storage/sqlite"
	"github.com/javari-ai/brain/pkg/logger"
)

// A source that has never fetched is treated as having waited this long,
// forcing it into degraded or unhealthy depending on its frequency.
const neverFetchedHours = 999

type Config struct {
	StoreLatencyDegradedMS int
	BacklogDegraded        int
	BacklogUnhealthy       int
	IssueWindow            time.Duration
}

func DefaultConfig() Config {
	return Config{
		StoreLatencyDegradedMS: 2000,
		BacklogDegraded:        5000,
		BacklogUnhealthy:       10000,
		IssueWindow:            24 * time.Hour,
	}
}

type Aggregator struct {
	db  *sqlite.Client
	cfg Config
}

type Report struct {
	Status     models.HealthStatus   `json:"status"`
	Timestamp  time.Time             `json:"timestamp"`
	DurationMS int64                 `json:"duration_ms"`
	Checks     []models.HealthSignal `json:"checks"`
}

func NewAggregator(db *sqlite.Client, cfg Config) *Aggregator {
	if cfg.StoreLatencyDegradedMS == 0 {
		cfg = DefaultConfig()
	}
	return &Aggregator{db: db, cfg: cfg}
}

// Check computes every signal and aggregates them to the worst status. Each
// run is recorded as an activity entry; an unhealthy overall result also
// raises a self-healing issue so the dispatcher or a human can act on it.
func (a *Aggregator) Check(ctx context.Context) *Report {
	started := time.Now()
	report := &Report{
		Status:    models.StatusHealthy,
		Timestamp: started.UTC(),
	}

	report.add(a.checkStore(ctx))

	sources, err := a.db.ListDataSources(true)
	if err != nil {
		report.add(models.HealthSignal{
			Component: "source_registry",
			Status:    models.StatusUnhealthy,
			Detail:    err.Error(),
		})
	} else {
		now := time.Now().UTC()
		for _, src := range sources {
			report.add(checkSource(src, now))
		}
	}

	report.add(a.checkBacklog())
	report.add(a.checkRecentIssues())

	report.DurationMS = time.Since(started).Milliseconds()
	metrics.HealthStatus.Set(statusValue(report.Status))

	unhealthyCount := 0
	degradedCount := 0
	for _, check := range report.Checks {
		switch check.Status {
		case models.StatusUnhealthy:
			unhealthyCount++
		case models.StatusDegraded:
			degradedCount++
		}
	}

	errMsg := ""
	if report.Status == models.StatusUnhealthy {
		errMsg = "system unhealthy"
	}
	a.db.LogActivity("health_check", "autonomous-system",
		map[string]interface{}{
			"overall_status": string(report.Status),
			"checks":         len(report.Checks),
			"unhealthy":      unhealthyCount,
			"degraded":       degradedCount,
		},
		report.Status != models.StatusUnhealthy, errMsg, int(report.DurationMS))

	if report.Status == models.StatusUnhealthy {
		a.db.LogIssue(&models.HealingIssue{
			Component:     "health-check",
			IssueType:     "system_unhealthy",
			Description:   fmt.Sprintf("Health check found %d unhealthy components", unhealthyCount),
			Severity:      models.SeverityHigh,
			RequiresHuman: true,
		})
	}

	return report
}

func (r *Report) add(signal models.HealthSignal) {
	r.Checks = append(r.Checks, signal)
	if signal.Status.Worse(r.Status) {
		r.Status = signal.Status
	}
}

func (a *Aggregator) checkStore(ctx context.Context) models.HealthSignal {
	started := time.Now()
	err := a.db.Ping(ctx)
	latency := time.Since(started).Milliseconds()

	if err != nil {
		return models.HealthSignal{
			Component: "store",
			Status:    models.StatusUnhealthy,
			LatencyMS: latency,
			Detail:    err.Error(),
		}
	}

	status := models.StatusHealthy
	if latency > int64(a.cfg.StoreLatencyDegradedMS) {
		status = models.StatusDegraded
	}

	return models.HealthSignal{
		Component: "store",
		Status:    status,
		LatencyMS: latency,
	}
}

func checkSource(src models.DataSource, now time.Time) models.HealthSignal {
	hoursSinceLastFetch := float64(neverFetchedHours)
	if src.LastFetch != nil {
		hoursSinceLastFetch = now.Sub(*src.LastFetch).Hours()
	}

	frequencyHours := ParseFrequencyHours(src.FetchFrequency)
	missedFetches := int(hoursSinceLastFetch/frequencyHours) - 1

	status := models.StatusHealthy
	switch {
	case missedFetches >= 3 || src.ErrorCount > 5:
		status = models.StatusUnhealthy
	case missedFetches >= 1 || src.ErrorCount > 2:
		status = models.StatusDegraded
	}

	signal := models.HealthSignal{
		Component:   "source:" + src.Name,
		Status:      status,
		LastSuccess: src.LastFetch,
		ErrorCount:  src.ErrorCount,
	}
	if src.LastError != "" {
		signal.Detail = src.LastError
	}
	return signal
}

func (a *Aggregator) checkBacklog() models.HealthSignal {
	backlog, err := a.db.CountUnprocessed()
	if err != nil {
		return models.HealthSignal{
			Component: "learning_queue",
			Status:    models.StatusUnhealthy,
			Detail:    err.Error(),
		}
	}

	metrics.QueueBacklog.Set(float64(backlog))

	status := models.StatusHealthy
	switch {
	case backlog > a.cfg.BacklogUnhealthy:
		status = models.StatusUnhealthy
	case backlog > a.cfg.BacklogDegraded:
		status = models.StatusDegraded
	}

	return models.HealthSignal{
		Component: "learning_queue",
		Status:    status,
		Detail:    fmt.Sprintf("%d items pending", backlog),
	}
}

func (a *Aggregator) checkRecentIssues() models.HealthSignal {
	since := time.Now().UTC().Add(-a.cfg.IssueWindow)
	issues, err := a.db.IssuesSince(since)
	if err != nil {
		logger.Warn("Failed to fetch recent issues", zap.Error(err))
		return models.HealthSignal{
			Component: "self_healing",
			Status:    models.StatusUnhealthy,
			Detail:    err.Error(),
		}
	}

	critical := 0
	high := 0
	for _, issue := range issues {
		if issue.ResolvedAt != nil {
			continue
		}
		switch issue.Severity {
		case models.SeverityCritical:
			critical++
		case models.SeverityHigh:
			high++
		}
	}

	switch {
	case critical > 0:
		return models.HealthSignal{
			Component: "self_healing",
			Status:    models.StatusUnhealthy,
			Detail:    fmt.Sprintf("%d critical issues unresolved", critical),
		}
	case high > 0:
		return models.HealthSignal{
			Component: "self_healing",
			Status:    models.StatusDegraded,
			Detail:    fmt.Sprintf("%d high-severity issues", high),
		}
	default:
		return models.HealthSignal{
			Component: "self_healing",
			Status:    models.StatusHealthy,
			Detail:    fmt.Sprintf("%d issues in last 24h", len(issues)),
		}
	}
}

// ParseFrequencyHours parses an interval like "06:00:00" to whole hours,
// with a floor of one hour.
func ParseFrequencyHours(frequency string) float64 {
	parts := strings.Split(frequency, ":")
	if len(parts) >= 2 {
		if hours, err := strconv.Atoi(parts[0]); err == nil && hours > 0 {
			return float64(hours)
		}
	}
	return 1
}

func statusValue(status models.HealthStatus) float64 {
	switch status {
	case models.StatusUnhealthy:
		return 2
	case models.StatusDegraded:
		return 1
	default:
		return 0
	}
}
