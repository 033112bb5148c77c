package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/healing"
	"github.com/javari-ai/brain/internal/health"
	"github.com/javari-ai/brain/internal/metrics"
	"github.com/javari-ai/brain/pkg/logger"
)

type HealthHandler struct {
	aggregator *health.Aggregator
	dispatcher *healing.Dispatcher
}

func NewHealthHandler(aggregator *health.Aggregator, dispatcher *healing.Dispatcher) *HealthHandler {
	return &HealthHandler{aggregator: aggregator, dispatcher: dispatcher}
}

// HandleCheck always answers 200 with the report, even when the report says
// the system is unhealthy. Only a failure to assemble the report is a 500.
func (h *HealthHandler) HandleCheck(c *fiber.Ctx) error {
	started := time.Now()

	report := h.aggregator.Check(c.Context())

	metrics.RequestDuration.WithLabelValues("health_check").Observe(time.Since(started).Seconds())

	return c.JSON(fiber.Map{
		"success": true,
		"report":  report,
	})
}

func (h *HealthHandler) HandleSelfHeal(c *fiber.Ctx) error {
	started := time.Now()

	summary, err := h.dispatcher.Run(c.Context())
	if err != nil {
		logger.Error("Self-healing run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Self-healing run failed",
		})
	}

	metrics.RequestDuration.WithLabelValues("self_heal").Observe(time.Since(started).Seconds())

	return c.JSON(fiber.Map{
		"success": true,
		"summary": summary,
	})
}
