package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/leshachaplin/tracklog/internal/apierror"
	"github.com/leshachaplin/tracklog/internal/domain"
	"github.com/leshachaplin/tracklog/internal/wire"
)

const (
	invalidTokenMsg = "token, missing or empty"
	missingEventMsg = "event name is required"
)

type Ingest interface {
	IngestEvents(data, clientIP string, serverTime time.Time) (int, error)
	IngestProfiles(data string, serverTime time.Time) (int, error)
}

// IngestEvents decodes a track payload and queues the accepted events.
// Envelopes with a foreign token are skipped; if none is left the call fails.
func (s *Service) IngestEvents(data, clientIP string, serverTime time.Time) (int, error) {
	envelopes, err := wire.DecodeEvents(data)
	if err != nil {
		return 0, apierror.BadRequest(err.Error())
	}

	batch := domain.Batch{
		Events: make([]domain.TrackedEvent, 0, len(envelopes)),
	}
	unnamed := 0
	for _, env := range envelopes {
		if !s.validToken(env.Token()) {
			s.logger.Warn().Str("event", env.Event).Msg("event with invalid token skipped")
			continue
		}
		if env.Event == "" {
			unnamed++
			s.logger.Warn().Str("distinct_id", env.DistinctID()).Msg("event without name skipped")
			continue
		}

		event := domain.TrackedEvent{
			ClientTime: env.Time(),
			InsertID:   env.InsertID(),
			DistinctID: env.DistinctID(),
			Event:      env.Event,
			Properties: env.Properties,
		}
		event.EnrichWith(clientIP, serverTime)
		batch.Events = append(batch.Events, event)
	}

	switch {
	case len(batch.Events) > 0:
	case unnamed > 0:
		return 0, apierror.BadRequest(missingEventMsg)
	default:
		return 0, apierror.Unauthorized(invalidTokenMsg)
	}

	batch.ID = batchID(batch.Events[0].DistinctID)
	s.dispatch(batch)
	return len(batch.Events), nil
}

// IngestProfiles decodes an engage payload and queues the profile updates.
func (s *Service) IngestProfiles(data string, serverTime time.Time) (int, error) {
	envelopes, err := wire.DecodeProfiles(data)
	if err != nil {
		return 0, apierror.BadRequest(err.Error())
	}

	batch := domain.Batch{
		Profiles: make([]domain.Profile, 0, len(envelopes)),
	}
	for _, env := range envelopes {
		if !s.validToken(env.Token) {
			continue
		}
		if env.DistinctID == "" {
			return 0, apierror.BadRequest("$distinct_id is required")
		}
		batch.Profiles = append(batch.Profiles, domain.Profile{
			ServerTime: serverTime,
			DistinctID: env.DistinctID,
			Set:        env.Set,
		})
	}

	if len(batch.Profiles) == 0 {
		return 0, apierror.Unauthorized(invalidTokenMsg)
	}

	batch.ID = batchID(batch.Profiles[0].DistinctID)
	s.dispatch(batch)
	return len(batch.Profiles), nil
}

func (s *Service) dispatch(batch domain.Batch) {
	// publishing may block on broker retries, the request does not wait for it
	go s.eventPool.Process(batch.ID, batch)
}

func (s *Service) validToken(token string) bool {
	if s.token == "" {
		return token != ""
	}
	return token == s.token
}

func batchID(distinctID string) string {
	if distinctID != "" {
		return distinctID
	}
	return uuid.NewString()
}
