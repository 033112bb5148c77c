package classifier

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/metrics"
	"github.com/javari-ai/brain/internal/queue"
	"github.com/javari-ai/brain/internal/storage/sqlite"
	"github.com/javari-ai/brain/pkg/logger"
)

type Processor struct {
	db         *sqlite.Client
	queue      *queue.Service
	classifier *Classifier
	batchSize  int
}

type BatchResult struct {
	Processed int `json:"processed"`
	Errors    int `json:"errors"`
	Remaining int `json:"remaining_in_queue"`
}

func NewProcessor(db *sqlite.Client, q *queue.Service, batchSize int) *Processor {
	if batchSize <= 0 {
		batchSize = 50
	}
	return &Processor{
		db:         db,
		queue:      q,
		classifier: NewClassifier(db),
		batchSize:  batchSize,
	}
}

// ProcessBatch drains one batch and classifies each item strictly in order.
// A failing item keeps processed=false with the error recorded in its
// learning outcome; processing continues with the next item.
func (p *Processor) ProcessBatch(ctx context.Context) (*BatchResult, error) {
	started := time.Now()
	result := &BatchResult{}

	items, runID, err := p.queue.Drain(p.batchSize)
	if err != nil {
		return nil, err
	}

	if len(items) == 0 {
		logger.Info("Learning queue is empty")
		remaining, _ := p.queue.Backlog()
		result.Remaining = remaining
		return result, nil
	}

	logger.Info("Processing learning queue batch",
		zap.Int("items", len(items)),
		zap.String("run_id", runID),
	)

	for i := range items {
		if err := ctx.Err(); err != nil {
			// The run ceiling was hit; remaining items keep their
			// backlog eligibility for the next invocation.
			logger.Warn("Queue run truncated", zap.Int("processed", result.Processed))
			break
		}

		item := &items[i]
		outcome, err := p.classifier.Classify(item)
		if err != nil {
			result.Errors++
			metrics.ItemsClassified.WithLabelValues(item.ContentType, "error").Inc()
			logger.Error("Failed to classify item",
				zap.String("item_id", item.ID),
				zap.String("content_type", item.ContentType),
				zap.Error(err),
			)

			failOutcome := map[string]interface{}{
				"error":     err.Error(),
				"failed_at": time.Now().UTC().Format(time.RFC3339),
			}
			if ferr := p.db.RecordItemFailure(item.ID, failOutcome); ferr != nil {
				logger.Error("Failed to record item failure", zap.String("item_id", item.ID), zap.Error(ferr))
			}
			continue
		}

		if err := p.db.MarkProcessed(item.ID, outcome); err != nil {
			result.Errors++
			metrics.ItemsClassified.WithLabelValues(item.ContentType, "error").Inc()
			logger.Error("Failed to mark item processed", zap.String("item_id", item.ID), zap.Error(err))
			continue
		}

		result.Processed++
		metrics.ItemsClassified.WithLabelValues(item.ContentType, "ok").Inc()
	}

	remaining, err := p.queue.Backlog()
	if err != nil {
		logger.Warn("Failed to count remaining backlog", zap.Error(err))
	}
	result.Remaining = remaining

	errMsg := ""
	if result.Errors > 0 {
		errMsg = fmt.Sprintf("%d items failed", result.Errors)
	}
	p.db.LogActivity("process_learning_queue", "learning-pipeline",
		map[string]interface{}{
			"batch_size": len(items),
			"processed":  result.Processed,
			"errors":     result.Errors,
		},
		result.Errors == 0, errMsg, int(time.Since(started).Milliseconds()))

	return result, nil
}
