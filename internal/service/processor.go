package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/tracklog/internal/domain"
	"github.com/leshachaplin/tracklog/internal/worker"
)

type Storage interface {
	StoreBatch(ctx context.Context, batch domain.Batch) error
}

type Service struct {
	token        string
	eventPool    worker.WorkerPool[domain.Batch]
	eventStorage Storage
	logger       zerolog.Logger
}

// New starts eventPool so that every batch it consumes lands in eventStorage.
// An empty token accepts payloads for any project.
func New(token string, eventPool worker.WorkerPool[domain.Batch], eventStorage Storage, logger zerolog.Logger) *Service {
	s := &Service{
		token:        token,
		eventPool:    eventPool,
		eventStorage: eventStorage,
		logger:       logger.With().Str("Service", "Ingest").Logger(),
	}
	eventPool.Start(s.StoreBatch)

	return s
}

// StoreBatch persists a batch consumed from the pool.
func (s *Service) StoreBatch(ctx context.Context, batch domain.Batch) error {
	if batch.Empty() {
		return nil
	}
	if err := s.eventStorage.StoreBatch(ctx, batch); err != nil {
		return fmt.Errorf("store batch %s: %w", batch.ID, err)
	}
	s.logger.Debug().
		Str("batch", batch.ID).
		Int("events", len(batch.Events)).
		Int("profiles", len(batch.Profiles)).
		Msg("batch stored")
	return nil
}
