package scraper

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
	"github.com/javari-ai/brain/pkg/apperrors"
	"github.com/javari-ai/brain/pkg/logger"
)

// Connector describes one upstream content source. Source returns the
// registry record upserted before every fetch; Fetch enqueues raw items
// and returns the count enqueued, per-step errors, and a fatal error
// that aborted the whole run.
type Connector interface {
	Source() models.DataSource
	Fetch(ctx context.Context) (int, []string, error)
}

type Result struct {
	Source       string    `json:"source"`
	Scraped      int       `json:"scraped"`
	Errors       int       `json:"errors"`
	ErrorDetails []string  `json:"error_details,omitempty"`
	Duration     string    `json:"duration"`
	Timestamp    time.Time `json:"timestamp"`
}

type Runner struct {
	db         *sqlite.Client
	connectors map[string]Connector
}

func NewRunner(db *sqlite.Client, q *queue.Service, client *Client, caps Caps) *Runner {
	return &Runner{
		db: db,
		connectors: map[string]Connector{
			"mdn":          NewMDNConnector(q, client, caps.MDN),
			"devdocs":      NewDevDocsConnector(q, client, caps.DevDocs),
			"freecodecamp": NewFreeCodeCampConnector(q),
			"news":         NewNewsConnector(q, client, caps.News),
		},
	}
}

// Caps bound how many entries a single run may enqueue per upstream set.
type Caps struct {
	MDN     int
	DevDocs int
	News    int
}

func (r *Runner) Sources() []string {
	names := make([]string, 0, len(r.connectors))
	for name := range r.connectors {
		names = append(names, name)
	}
	return names
}

// Run executes one connector end to end: register the source, fetch,
// record the outcome on the source row, and raise issues when failures
// pile up.
func (r *Runner) Run(ctx context.Context, name string) (*Result, error) {
	connector, ok := r.connectors[name]
	if !ok {
		return nil, apperrors.NewNotFound("unknown scrape source: %s", name)
	}

	started := time.Now()
	src := connector.Source()
	if err := r.db.UpsertDataSource(&src); err != nil {
		return nil, fmt.Errorf("failed to register source %s: %w", name, err)
	}

	scraped, stepErrors, err := connector.Fetch(ctx)
	duration := time.Since(started)

	if err != nil {
		r.db.LogIssue(&models.HealingIssue{
			Component:     name + "-scraper",
			IssueType:     "fatal_error",
			Description:   err.Error(),
			Severity:      models.SeverityHigh,
			RequiresHuman: true,
		})
		r.db.LogActivity("scrape_"+name, "autonomous-system",
			map[string]interface{}{"error": err.Error()},
			false, err.Error(), int(duration.Milliseconds()))
		return nil, apperrors.NewDownstream(err, "scrape run for %s failed", name)
	}

	lastError := ""
	if len(stepErrors) > 0 {
		lastError = stepErrors[len(stepErrors)-1]
	}
	config := src.Config
	if config == nil {
		config = map[string]interface{}{}
	}
	config["last_scrape_duration_ms"] = duration.Milliseconds()
	config["last_scrape_count"] = scraped

	if uerr := r.db.UpdateSourceFetchResult(name, len(stepErrors), lastError, config); uerr != nil {
		logger.Warn("Failed to update source stats",
			zap.String("source", name), zap.Error(uerr))
	}

	if len(stepErrors) > 3 {
		r.db.LogIssue(&models.HealingIssue{
			Component:     name + "-scraper",
			IssueType:     "multiple_failures",
			Description:   fmt.Sprintf("Multiple scraping failures: %s", strings.Join(stepErrors, ", ")),
			Severity:      models.SeverityMedium,
			RequiresHuman: len(stepErrors) > 5,
		})
	}

	metrics.ScrapedItems.WithLabelValues(name).Add(float64(scraped))

	r.db.LogActivity("scrape_"+name, "autonomous-system",
		map[string]interface{}{"scraped": scraped, "errors": len(stepErrors)},
		len(stepErrors) == 0, strings.Join(stepErrors, ", "), int(duration.Milliseconds()))

	logger.Info("Scrape run completed",
		zap.String("source", name),
		zap.Int("scraped", scraped),
		zap.Int("errors", len(stepErrors)),
		zap.Duration("duration", duration),
	)

	return &Result{
		Source:       name,
		Scraped:      scraped,
		Errors:       len(stepErrors),
		ErrorDetails: stepErrors,
		Duration:     fmt.Sprintf("%.2fs", duration.Seconds()),
		Timestamp:    time.Now().UTC(),
	}, nil
}
