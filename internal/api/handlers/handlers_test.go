package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javari-ai/brain/internal/classifier"
	"github.com/javari-ai/brain/internal/healing"
	"github.com/javari-ai/brain/internal/health"
	"github.com/javari-ai/brain/internal/knowledge"
	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/report"
	"github.com/javari-ai/brain/internal/scraper"
	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/internal/storage/sqlite"
)

const testSecret = "test-scheduler-secret"

func newTestApp(t *testing.T) (*fiber.App, *sqlite.Client) {
	t.Helper()

	db, err := sqlite.NewClient(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	q := queue.NewService(db, time.Minute)
	processor := classifier.NewProcessor(db, q, 50)
	knowledgeService := knowledge.NewService(db)
	aggregator := health.NewAggregator(db, health.DefaultConfig())
	dispatcher := healing.NewDispatcher(db, q, 7*24*time.Hour)
	client := scraper.NewClient("test-agent", time.Millisecond)
	runner := scraper.NewRunner(db, q, client, scraper.Caps{})
	generator := report.NewGenerator(db, "")

	learningHandler := NewLearningHandler(db, q, processor, knowledgeService, nil)
	decisionsHandler := NewDecisionsHandler(db)
	healthHandler := NewHealthHandler(aggregator, dispatcher)
	reportHandler := NewReportHandler(generator)
	scrapeHandler := NewScrapeHandler(runner, testSecret)

	app := fiber.New()
	api := app.Group("/api")
	api.Post("/learning/ingest", learningHandler.HandleIngest)
	api.Get("/learning/process-queue", learningHandler.HandleProcessQueue)
	api.Get("/learning/search", learningHandler.HandleSearch)
	api.Post("/decisions/log", decisionsHandler.HandleLogDecision)
	api.Get("/decisions/log", decisionsHandler.HandleListDecisions)
	api.Get("/health/check", healthHandler.HandleCheck)
	api.Get("/health/self-heal", healthHandler.HandleSelfHeal)
	api.Get("/reports/daily", reportHandler.HandleDaily)
	api.Get("/scrape/:source", scrapeHandler.HandleScrape)

	return app, db
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var decoded map[string]interface{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp, decoded
}

func TestIngestValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, "POST", "/api/learning/ingest", map[string]interface{}{
		"source_type": "doc",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "Missing required fields")

	resp, body = doJSON(t, app, "POST", "/api/learning/ingest", map[string]interface{}{
		"source_type":  "carrier-pigeon",
		"source_name":  "test",
		"content_type": "documentation",
		"raw_content":  "some text",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body["error"], "Invalid source_type")
}

func TestIngestAcceptsThenConflicts(t *testing.T) {
	app, _ := newTestApp(t)

	payload := map[string]interface{}{
		"source_type":  "manual",
		"source_name":  "ops-runbook",
		"content_type": "documentation",
		"raw_content":  "Restart the worker before the gateway.",
		"source_url":   "https://wiki.internal/runbook",
	}

	resp, body := doJSON(t, app, "POST", "/api/learning/ingest", payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["queue_id"])
	assert.NotEmpty(t, body["content_hash"])

	citation, ok := body["citation"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "ops-runbook", citation["source_name"])
	assert.Equal(t, "https://wiki.internal/runbook", citation["source_url"])
	assert.NotEmpty(t, citation["ingested_at"])

	resp, conflictBody := doJSON(t, app, "POST", "/api/learning/ingest", payload)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, body["queue_id"], conflictBody["existing_id"])
	assert.Equal(t, body["content_hash"], conflictBody["content_hash"])
}

func TestSearchParamValidation(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, "GET", "/api/learning/search?k=10", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/learning/search?q=react&k=0", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/learning/search?q=react&k=101", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, "GET", "/api/learning/search?q=react&k=nope", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchReturnsRankedResults(t *testing.T) {
	app, db := newTestApp(t)

	svc := knowledge.NewService(db)
	require.NoError(t, svc.Upsert(&models.KnowledgeEntry{
		Category: "react",
		Topic:    "devdocs:react:useEffect",
		Question: "How to use useEffect?",
		Answer:   "React effect hook documentation.",
		Source:   "devdocs",
	}))

	resp, body := doJSON(t, app, "GET", "/api/learning/search?q=react&k=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["total"])

	results, ok := body["results"].([]interface{})
	require.True(t, ok)
	require.Len(t, results, 1)
	first := results[0].(map[string]interface{})
	assert.Equal(t, "devdocs", first["source_name"])
	assert.Contains(t, first["snippet"], "React effect hook")
}

func TestProcessQueueMaterializesAndServesSearch(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/learning/ingest", map[string]interface{}{
		"source_type":  "doc",
		"source_name":  "devdocs",
		"content_type": "documentation",
		"raw_content": map[string]interface{}{
			"doc":   "react",
			"title": "useEffect",
			"type":  "hook",
			"url":   "https://devdocs.io/react/useeffect",
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := doJSON(t, app, "GET", "/api/learning/process-queue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["processed"])
	assert.Equal(t, float64(0), body["remaining"])

	resp, searchBody := doJSON(t, app, "GET", "/api/learning/search?q=useEffect&k=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), searchBody["total"])
}

func TestProcessQueueEmptyBacklog(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, "GET", "/api/learning/process-queue", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(0), body["processed"])
	assert.Equal(t, float64(0), body["remaining"])
}

func TestDecisionValidationAndLookup(t *testing.T) {
	app, _ := newTestApp(t)

	resp, _ := doJSON(t, app, "POST", "/api/decisions/log", map[string]interface{}{
		"decision": "adopt sqlite",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body := doJSON(t, app, "POST", "/api/decisions/log", map[string]interface{}{
		"decision":             "adopt sqlite",
		"adopted":              true,
		"rationale":            "zero-ops embedded store",
		"related_knowledge_id": "does-not-exist",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "does-not-exist", body["provided_id"])
}

func TestDecisionRoundTrip(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, "POST", "/api/decisions/log", map[string]interface{}{
		"decision":  "cache search responses",
		"adopted":   true,
		"rationale": "hot queries dominate traffic",
		"component": "knowledge",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["decision_id"])

	resp, listBody := doJSON(t, app, "GET", "/api/decisions/log?component=knowledge", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), listBody["total"])

	decisions := listBody["decisions"].([]interface{})
	first := decisions[0].(map[string]interface{})
	assert.Equal(t, "cache search responses", first["decision"])
	assert.Equal(t, true, first["adopted"])
}

func TestHealthCheckAlwaysAnswers200(t *testing.T) {
	app, db := newTestApp(t)

	// An unhealthy source must not turn the endpoint into an error.
	require.NoError(t, db.UpsertDataSource(&models.DataSource{
		Name:           "mdn",
		SourceType:     "scrape",
		FetchFrequency: "01:00:00",
		IsActive:       true,
	}))

	resp, body := doJSON(t, app, "GET", "/api/health/check", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report, ok := body["report"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "unhealthy", report["status"])
}

func TestSelfHealEndpoint(t *testing.T) {
	app, db := newTestApp(t)

	require.NoError(t, db.InsertIssue(&models.HealingIssue{
		Component: "store",
		IssueType: "database_slow",
		Severity:  models.SeverityHigh,
	}))

	resp, body := doJSON(t, app, "GET", "/api/health/self-heal", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	summary, ok := body["summary"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(1), summary["examined"])
	assert.Equal(t, float64(1), summary["skipped"])
}

func TestDailyReportEndpoint(t *testing.T) {
	app, _ := newTestApp(t)

	resp, body := doJSON(t, app, "GET", "/api/reports/daily", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	report, ok := body["report"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "excellent", report["system_status"])
}

func TestScrapeRequiresSchedulerSecret(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/scrape/mdn", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest("GET", "/api/scrape/mdn", nil)
	req.Header.Set("Authorization", "Bearer wrong-secret")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestScrapeUnknownSourceIs404(t *testing.T) {
	app, _ := newTestApp(t)

	req := httptest.NewRequest("GET", "/api/scrape/geocities?manual=true", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
