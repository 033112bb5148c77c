package queue

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/javari-ai/brain/internal/dedup"
	"github.com/javari-ai/brain/internal/metrics"
	"github.com/javari-ai/brain/internal/storage/models"
	"github.com/javari-ai/brain/internal/storage/sqlite"
	"github.com/javari-ai/brain/pkg/apperrors"
	"github.com/javari-ai/brain/pkg/logger"
)

const DefaultPriority = 5

type Service struct {
	db       *sqlite.Client
	leaseTTL time.Duration
}

func NewService(db *sqlite.Client, leaseTTL time.Duration) *Service {
	if leaseTTL == 0 {
		leaseTTL = 10 * time.Minute
	}
	return &Service{db: db, leaseTTL: leaseTTL}
}

// Enqueue appends a raw item to the backlog. Content is normalized and
// fingerprinted before insertion; an exact duplicate fails with a conflict
// carrying the existing item's id.
func (s *Service) Enqueue(source, contentType string, rawContent interface{}, priority int, outcome map[string]interface{}) (*models.RawItem, error) {
	if priority == 0 {
		priority = DefaultPriority
	}

	text := dedup.Normalize(rawContent)
	hash := dedup.Fingerprint(text)

	existingID, found, err := s.db.FindQueueItemByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("duplicate check failed: %w", err)
	}
	if found {
		return nil, apperrors.NewConflict(existingID, "duplicate content detected")
	}

	item := &models.RawItem{
		ID:              uuid.New().String(),
		Source:          source,
		ContentType:     contentType,
		RawContent:      text,
		ContentHash:     hash,
		Priority:        priority,
		LearningOutcome: outcome,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.db.InsertQueueItem(item); err != nil {
		return nil, err
	}

	return item, nil
}

// EnqueueFromConnector is the connector-facing variant: duplicates are
// silently skipped rather than surfaced, since re-scraping the same index
// entry is routine.
func (s *Service) EnqueueFromConnector(source, contentType string, rawContent interface{}, priority int) error {
	_, err := s.Enqueue(source, contentType, rawContent, priority, nil)
	if err != nil {
		var conflict *apperrors.ConflictError
		if errors.As(err, &conflict) {
			logger.Debug("Connector item already queued",
				zap.String("source", source),
				zap.String("existing_id", conflict.ExistingID),
			)
			return nil
		}
		return err
	}
	return nil
}

// Drain claims up to batchSize unprocessed items in priority-descending,
// oldest-first order. Claimed items carry a lease naming this run.
func (s *Service) Drain(batchSize int) ([]models.RawItem, string, error) {
	if batchSize <= 0 {
		batchSize = 50
	}

	runID := uuid.New().String()
	items, err := s.db.ClaimUnprocessed(batchSize, s.leaseTTL, runID)
	if err != nil {
		return nil, runID, err
	}

	return items, runID, nil
}

func (s *Service) Backlog() (int, error) {
	count, err := s.db.CountUnprocessed()
	if err == nil {
		metrics.QueueBacklog.Set(float64(count))
	}
	return count, err
}

// RetentionSweep deletes processed items older than maxAge to bound storage
// growth. Unprocessed items are never touched.
func (s *Service) RetentionSweep(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	return s.db.DeleteProcessedBefore(cutoff)
}
