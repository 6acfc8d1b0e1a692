package service

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/leshachaplin/tracklog/internal/apierror"
	"github.com/leshachaplin/tracklog/internal/domain"
	"github.com/leshachaplin/tracklog/internal/wire"
)

// syncPool stores batches on Process so tests need no goroutines.
type syncPool struct {
	mu      sync.Mutex
	execFn  func(ctx context.Context, payload domain.Batch) error
	batches []domain.Batch
}

func (p *syncPool) Start(executeFn func(ctx context.Context, payload domain.Batch) error) {
	p.execFn = executeFn
}
func (p *syncPool) GracefulStop()                {}
func (p *syncPool) Shutdown(ctx context.Context) {}
func (p *syncPool) Process(_ string, payload domain.Batch) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, payload)
	_ = p.execFn(context.Background(), payload)
}

func (p *syncPool) processed() []domain.Batch {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.Batch(nil), p.batches...)
}

type nopStorage struct{}

func (nopStorage) StoreBatch(context.Context, domain.Batch) error { return nil }

func encodeEvents(t *testing.T, token string, events ...domain.Event) string {
	t.Helper()
	enc := wire.NewEncoder(token)
	envelopes := make([]wire.EventEnvelope, 0, len(events))
	for _, ev := range events {
		envelopes = append(envelopes, enc.EventEnvelope(ev, "device-1"))
	}
	raw, err := enc.EncodeEvents(envelopes...)
	require.NoError(t, err)
	// strip the form key
	return decodeForm(t, string(raw))
}

func decodeForm(t *testing.T, body string) string {
	t.Helper()
	const prefix = wire.FormKey + "="
	require.Contains(t, body, prefix)
	data, err := url.QueryUnescape(body[len(prefix):])
	require.NoError(t, err)
	return data
}

func TestService_IngestEvents(t *testing.T) {
	at := time.Unix(1700000000, 0)
	serverTime := time.Now()

	cases := map[string]struct {
		serviceToken string
		eventToken   string
		events       []domain.Event
		expectCount  int
		expectCode   int
	}{
		"ok": {
			serviceToken: "tok",
			eventToken:   "tok",
			events:       []domain.Event{domain.NewEvent("app_open", nil, at)},
			expectCount:  1,
		},
		"any token when unconfigured": {
			eventToken:  "whatever",
			events:      []domain.Event{domain.NewEvent("app_open", nil, at), domain.NewEvent("paywall", nil, at)},
			expectCount: 2,
		},
		"empty token rejected when unconfigured": {
			eventToken: "",
			events:     []domain.Event{domain.NewEvent("app_open", nil, at)},
			expectCode: http.StatusUnauthorized,
		},
		"foreign token": {
			serviceToken: "tok",
			eventToken:   "other",
			events:       []domain.Event{domain.NewEvent("app_open", nil, at)},
			expectCode:   http.StatusUnauthorized,
		},
		"unnamed event skipped": {
			serviceToken: "tok",
			eventToken:   "tok",
			events:       []domain.Event{domain.NewEvent("", nil, at), domain.NewEvent("ok", nil, at)},
			expectCount:  1,
		},
		"only unnamed events": {
			serviceToken: "tok",
			eventToken:   "tok",
			events:       []domain.Event{domain.NewEvent("", nil, at), domain.NewEvent("", nil, at)},
			expectCode:   http.StatusBadRequest,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			pool := &syncPool{}
			svc := New(tc.serviceToken, pool, nopStorage{}, zerolog.Nop())

			n, err := svc.IngestEvents(encodeEvents(t, tc.eventToken, tc.events...), "10.0.0.1", serverTime)
			if tc.expectCode != 0 {
				var apiErr apierror.Error
				require.True(t, errors.As(err, &apiErr))
				require.Equal(t, tc.expectCode, apiErr.StatusCode())
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expectCount, n)

			require.Eventually(t, func() bool { return len(pool.processed()) == 1 }, time.Second, time.Millisecond)
			batch := pool.processed()[0]
			require.Equal(t, "device-1", batch.ID)
			require.Len(t, batch.Events, tc.expectCount)
			require.Equal(t, at, batch.Events[0].ClientTime)
			require.Equal(t, serverTime, batch.Events[0].ServerTime)
			require.Equal(t, "10.0.0.1", batch.Events[0].IP)
		})
	}
}

func TestService_IngestProfiles(t *testing.T) {
	pool := &syncPool{}
	svc := New("tok", pool, nopStorage{}, zerolog.Nop())
	enc := wire.NewEncoder("tok")

	raw, err := enc.EncodeProfile(enc.ProfileEnvelope(domain.ProfileUpdate{DistinctID: "", Properties: domain.Properties{"a": 1}}))
	require.NoError(t, err)
	_, err = svc.IngestProfiles(decodeForm(t, string(raw)), time.Now())
	require.Error(t, err)

	raw, err = enc.EncodeProfile(enc.ProfileEnvelope(domain.ProfileUpdate{DistinctID: "user-1", Properties: domain.Properties{"plan": "pro"}}))
	require.NoError(t, err)
	n, err := svc.IngestProfiles(decodeForm(t, string(raw)), time.Now())
	require.NoError(t, err)
	require.Equal(t, 1, n)

	require.Eventually(t, func() bool { return len(pool.processed()) == 1 }, time.Second, time.Millisecond)
	require.Equal(t, "user-1", pool.processed()[0].Profiles[0].DistinctID)
}

type failingStorage struct{ err error }

func (s failingStorage) StoreBatch(context.Context, domain.Batch) error { return s.err }

func TestService_StoreBatch(t *testing.T) {
	errDown := errors.New("clickhouse is down")

	cases := map[string]struct {
		storage   Storage
		batch     domain.Batch
		expectErr error
	}{
		"stored": {
			storage: nopStorage{},
			batch:   domain.Batch{ID: "device-1", Events: []domain.TrackedEvent{{Event: "app_open"}}},
		},
		"empty batch skips storage": {
			storage: failingStorage{err: errDown},
			batch:   domain.Batch{ID: "device-1"},
		},
		"storage failure": {
			storage:   failingStorage{err: errDown},
			batch:     domain.Batch{ID: "device-1", Profiles: []domain.Profile{{DistinctID: "device-1"}}},
			expectErr: errDown,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			s := New("", &syncPool{}, tc.storage, zerolog.Nop())

			err := s.StoreBatch(context.Background(), tc.batch)
			if tc.expectErr != nil {
				require.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
