package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/cache/redis"
	"github.com/javari-ai/brain/internal/classifier"
	"github.com/javari-ai/brain/internal/dedup"
	"github.com/javari-ai/brain/internal/knowledge"
	"github.com/javari-ai/brain/internal/metrics"
	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/storage/sqlite"
	"github.com/javari-ai/brain/pkg/apperrors"
	"github.com/javari-ai/brain/pkg/logger"
)

var validSourceTypes = map[string]bool{
	"chat":   true,
	"repo":   true,
	"doc":    true,
	"api":    true,
	"web":    true,
	"manual": true,
}

type LearningHandler struct {
	db        *sqlite.Client
	queue     *queue.Service
	processor *classifier.Processor
	knowledge *knowledge.Service
	cache     *redis.Client
}

func NewLearningHandler(db *sqlite.Client, q *queue.Service, processor *classifier.Processor, k *knowledge.Service, cache *redis.Client) *LearningHandler {
	return &LearningHandler{
		db:        db,
		queue:     q,
		processor: processor,
		knowledge: k,
		cache:     cache,
	}
}

type ingestRequest struct {
	SourceType      string      `json:"source_type"`
	SourceName      string      `json:"source_name"`
	SourceURL       string      `json:"source_url"`
	LicenseOrTosURL string      `json:"license_or_tos_url"`
	ContentType     string      `json:"content_type"`
	RawContent      interface{} `json:"raw_content"`
	Tags            []string    `json:"tags"`
	Category        string      `json:"category"`
}

func (h *LearningHandler) HandleIngest(c *fiber.Ctx) error {
	started := time.Now()

	var req ingestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.SourceType == "" || req.SourceName == "" || req.ContentType == "" || req.RawContent == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields: source_type, source_name, content_type, raw_content",
		})
	}
	if !validSourceTypes[req.SourceType] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid source_type. Must be one of: chat, repo, doc, api, web, manual",
		})
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	outcome := map[string]interface{}{
		"source_type":        req.SourceType,
		"source_url":         req.SourceURL,
		"license_or_tos_url": req.LicenseOrTosURL,
		"tags":               tags,
		"category":           req.Category,
	}

	item, err := h.queue.Enqueue(req.SourceName, req.ContentType, req.RawContent, queue.DefaultPriority, outcome)
	if err != nil {
		if conflict, ok := apperrors.AsConflict(err); ok {
			metrics.IngestConflicts.Inc()
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":        "Duplicate content detected",
				"existing_id":  conflict.ExistingID,
				"content_hash": dedup.Fingerprint(dedup.Normalize(req.RawContent)),
			})
		}

		logger.Error("Ingest failed", zap.Error(err))
		h.db.LogActivity("knowledge_ingest", "learning-pipeline",
			map[string]interface{}{"error": err.Error()},
			false, err.Error(), int(time.Since(started).Milliseconds()))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Ingestion failed",
		})
	}

	metrics.ItemsIngested.WithLabelValues(req.SourceType).Inc()

	h.db.LogActivity("knowledge_ingest", "learning-pipeline",
		map[string]interface{}{
			"source_type":  req.SourceType,
			"source_name":  req.SourceName,
			"content_hash": item.ContentHash,
			"queue_id":     item.ID,
		},
		true, "", int(time.Since(started).Milliseconds()))

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Knowledge ingested successfully",
		"queue_id":     item.ID,
		"content_hash": item.ContentHash,
		"citation": fiber.Map{
			"source_name":        req.SourceName,
			"source_url":         req.SourceURL,
			"license_or_tos_url": req.LicenseOrTosURL,
			"ingested_at":        item.CreatedAt.Format(time.RFC3339),
		},
		"duration_ms": time.Since(started).Milliseconds(),
	})
}

func (h *LearningHandler) HandleProcessQueue(c *fiber.Ctx) error {
	started := time.Now()

	result, err := h.processor.ProcessBatch(c.Context())
	if err != nil {
		logger.Error("Queue processing failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to process learning queue",
		})
	}

	if result.Processed > 0 {
		if err := h.cache.InvalidateSearch(c.Context()); err != nil {
			logger.Warn("Failed to invalidate search cache", zap.Error(err))
		}
	}

	metrics.RequestDuration.WithLabelValues("process_queue").Observe(time.Since(started).Seconds())

	return c.JSON(fiber.Map{
		"success":   true,
		"processed": result.Processed,
		"errors":    result.Errors,
		"remaining": result.Remaining,
		"duration":  fmt.Sprintf("%.2fs", time.Since(started).Seconds()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *LearningHandler) HandleSearch(c *fiber.Ctx) error {
	query := c.Query("q")
	k := 10
	if raw := c.Query("k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "k must be an integer",
			})
		}
		k = parsed
	}

	cacheKey := dedup.Fingerprint(fmt.Sprintf("%s|%d", query, k))

	var cached []knowledge.SearchResult
	if hit, err := h.cache.GetSearch(c.Context(), cacheKey, &cached); err == nil && hit {
		metrics.SearchQueries.WithLabelValues("hit").Inc()
		return c.JSON(fiber.Map{
			"success": true,
			"query":   query,
			"total":   len(cached),
			"results": cached,
		})
	}

	results, err := h.knowledge.Search(query, k)
	if err != nil {
		status := apperrors.StatusCode(err)
		if status == fiber.StatusInternalServerError {
			logger.Error("Search failed", zap.String("query", query), zap.Error(err))
			return c.Status(status).JSON(fiber.Map{
				"error": "Search failed",
			})
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	metrics.SearchQueries.WithLabelValues("miss").Inc()

	if err := h.cache.SetSearch(c.Context(), cacheKey, results); err != nil {
		logger.Warn("Failed to cache search response", zap.Error(err))
	}

	return c.JSON(fiber.Map{
		"success": true,
		"query":   query,
		"total":   len(results),
		"results": results,
	})
}
