package handlers

import (
	"crypto/subtle"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/scraper"
	"github.com/javari-ai/brain/pkg/apperrors"
	"github.com/javari-ai/brain/pkg/logger"
)

type ScrapeHandler struct {
	runner          *scraper.Runner
	schedulerSecret string
}

func NewScrapeHandler(runner *scraper.Runner, schedulerSecret string) *ScrapeHandler {
	return &ScrapeHandler{runner: runner, schedulerSecret: schedulerSecret}
}

// HandleScrape runs one connector. Scheduler calls authenticate with a
// bearer token; explicit manual triggers bypass the check.
func (h *ScrapeHandler) HandleScrape(c *fiber.Ctx) error {
	if h.schedulerSecret != "" && !h.authorized(c) {
		if c.Query("manual") != "true" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
	}

	source := c.Params("source")
	result, err := h.runner.Run(c.Context(), source)
	if err != nil {
		status := apperrors.StatusCode(err)
		if status == fiber.StatusNotFound {
			return c.Status(status).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		logger.Error("Scrape run failed", zap.String("source", source), zap.Error(err))
		return c.Status(status).JSON(fiber.Map{
			"success": false,
			"error":   "Scrape run failed",
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"source":        result.Source,
		"scraped":       result.Scraped,
		"errors":        result.Errors,
		"error_details": result.ErrorDetails,
		"duration":      result.Duration,
		"timestamp":     result.Timestamp,
	})
}

func (h *ScrapeHandler) authorized(c *fiber.Ctx) bool {
	auth := c.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.schedulerSecret)) == 1
}
