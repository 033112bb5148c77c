package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/internal/storage/sqlite"
	"github.com/javari-ai/brain/pkg/logger"
)

const defaultDecisionLimit = 20

type DecisionsHandler struct {
	db *sqlite.Client
}

func NewDecisionsHandler(db *sqlite.Client) *DecisionsHandler {
	return &DecisionsHandler{db: db}
}

type decisionRequest struct {
	RelatedKnowledgeID string   `json:"related_knowledge_id"`
	Decision           string   `json:"decision"`
	Adopted            *bool    `json:"adopted"`
	Rationale          string   `json:"rationale"`
	Links              []string `json:"links"`
	Component          string   `json:"component"`
	Confidence         float64  `json:"confidence"`
}

func (h *DecisionsHandler) HandleLogDecision(c *fiber.Ctx) error {
	started := time.Now()

	var req decisionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Decision == "" || req.Adopted == nil || req.Rationale == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing required fields: decision, adopted, rationale",
		})
	}

	if req.RelatedKnowledgeID != "" {
		entry, err := h.db.GetKnowledgeByID(req.RelatedKnowledgeID)
		if err != nil {
			logger.Error("Failed to resolve knowledge reference", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Decision logging failed",
			})
		}
		if entry == nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":       "Related knowledge ID not found",
				"provided_id": req.RelatedKnowledgeID,
			})
		}
	}

	component := req.Component
	if component == "" {
		component = "brain"
	}
	links := req.Links
	if links == nil {
		links = []string{}
	}
	confidence := req.Confidence
	if confidence == 0 {
		confidence = 0.8
	}

	entry := &models.ActivityEntry{
		ID:         uuid.New().String(),
		ActionType: "decision_logged",
		Component:  component,
		Metadata: map[string]interface{}{
			"decision":             req.Decision,
			"adopted":              *req.Adopted,
			"rationale":            req.Rationale,
			"related_knowledge_id": req.RelatedKnowledgeID,
			"links":                links,
			"confidence":           confidence,
		},
		Success:    *req.Adopted,
		DurationMS: int(time.Since(started).Milliseconds()),
		CreatedAt:  time.Now().UTC(),
	}

	if err := h.db.InsertActivity(entry); err != nil {
		logger.Error("Failed to log decision", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Decision logging failed",
		})
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"message":     "Decision logged successfully",
		"decision_id": entry.ID,
		"decision": fiber.Map{
			"text":      req.Decision,
			"adopted":   *req.Adopted,
			"rationale": req.Rationale,
			"component": component,
			"logged_at": entry.CreatedAt.Format(time.RFC3339),
		},
		"duration_ms": time.Since(started).Milliseconds(),
	})
}

func (h *DecisionsHandler) HandleListDecisions(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultDecisionLimit)
	if limit <= 0 {
		limit = defaultDecisionLimit
	}
	component := c.Query("component")

	entries, err := h.db.RecentDecisions(limit, component)
	if err != nil {
		logger.Error("Failed to fetch decisions", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch decisions",
		})
	}

	decisions := make([]fiber.Map, 0, len(entries))
	for _, entry := range entries {
		decisions = append(decisions, fiber.Map{
			"id":         entry.ID,
			"decision":   entry.Metadata["decision"],
			"adopted":    entry.Metadata["adopted"],
			"rationale":  entry.Metadata["rationale"],
			"links":      entry.Metadata["links"],
			"component":  entry.Component,
			"created_at": entry.CreatedAt.Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{
		"success":   true,
		"total":     len(decisions),
		"decisions": decisions,
	})
}
