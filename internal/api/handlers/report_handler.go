package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/metrics"
	"github.com/javari-ai/brain/internal/report"
	"github.com/javari-ai/brain/pkg/logger"
)

type ReportHandler struct {
	generator *report.Generator
}

func NewReportHandler(generator *report.Generator) *ReportHandler {
	return &ReportHandler{generator: generator}
}

func (h *ReportHandler) HandleDaily(c *fiber.Ctx) error {
	started := time.Now()

	rep, err := h.generator.Daily()
	if err != nil {
		logger.Error("Report generation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Report generation failed",
		})
	}

	metrics.RequestDuration.WithLabelValues("daily_report").Observe(time.Since(started).Seconds())

	return c.JSON(fiber.Map{
		"success": true,
		"report":  rep,
	})
}
