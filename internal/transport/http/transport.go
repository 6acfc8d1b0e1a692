package http

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/leshachaplin/tracklog/internal/domain"
	"github.com/leshachaplin/tracklog/internal/identity"
	"github.com/leshachaplin/tracklog/internal/wire"
	"github.com/leshachaplin/tracklog/internal/worker"
)

const (
	defaultTimeout = 10 * time.Second
	maxResponse    = 64 << 10

	endpointTrack  = "track"
	endpointEngage = "engage"

	createAliasEvent = "$create_alias"
)

type request struct {
	endpoint string
	url      string
	body     []byte
}

// Transport sends events straight to the ingestion endpoints.
//
// Delivery is at-most-once and unordered on purpose: every send is queued on
// a bounded in-memory pool and runs on its own worker, nothing is retried,
// and a full queue drops the send. Callers are never blocked or told about
// failures; the backend orders events by their client-side time.
type Transport struct {
	encoder   *wire.Encoder
	identity  *identity.Store
	client    *retryablehttp.Client
	pool      *worker.Pool[request]
	trackURL  string
	engageURL string
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*Transport)

// WithHTTPClient bases the underlying HTTP client on c. The transport works
// on a copy, c itself is never modified.
func WithHTTPClient(c *http.Client) Option {
	return func(t *Transport) {
		if c == nil {
			return
		}
		cp := *c
		t.client.HTTPClient = &cp
	}
}

func WithClock(now func() time.Time) Option {
	return func(t *Transport) {
		t.now = now
	}
}

// New starts the dispatch pool. A malformed endpoint URL is logged and every
// send to it fails at request time.
func New(cfg Config, store *identity.Store, logger zerolog.Logger, opts ...Option) *Transport {
	l := logger.With().Str("transport", "http").Logger()

	trackURL, err := withQuery(cfg.TrackURL, url.Values{"ip": {"1"}, "verbose": {"1"}})
	if err != nil {
		l.Error().Err(err).Str("url", cfg.TrackURL).Msg("invalid track url")
		trackURL = cfg.TrackURL
	}
	if _, err = url.Parse(cfg.EngageURL); err != nil {
		l.Error().Err(err).Str("url", cfg.EngageURL).Msg("invalid engage url")
	}

	t := &Transport{
		encoder:   wire.NewEncoder(cfg.Token),
		identity:  store,
		client:    newRetryableClient(l),
		trackURL:  trackURL,
		engageURL: cfg.EngageURL,
		logger:    l,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	t.client.HTTPClient.Timeout = timeout
	base := t.client.HTTPClient.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	t.client.HTTPClient.Transport = otelhttp.NewTransport(base)

	queueSize := cfg.Worker.QueueSize
	if queueSize <= 0 {
		queueSize = 256
	}
	t.pool = worker.New[request](context.Background(), cfg.Worker, worker.NewChanQueue[request](queueSize), l)
	t.pool.Start(t.execute)

	return t
}

func newRetryableClient(logger zerolog.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	// single attempt, the response is handed back as is
	c.RetryMax = 0
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	c.Logger = leveledLogger{logger: logger}
	return c
}

func (t *Transport) SendEvent(ev domain.Event) {
	t.sendEvent(ev, t.identity.DistinctID())
}

func (t *Transport) sendEvent(ev domain.Event, distinctID string) {
	ev.InsertID = identity.NewInsertID(t.now())

	body, err := t.encoder.EncodeEvents(t.encoder.EventEnvelope(ev, distinctID))
	if err != nil {
		t.logger.Error().Err(err).Str("event", ev.Name).Msg("could not encode event")
		return
	}

	t.pool.Process(ev.Name, request{
		endpoint: endpointTrack,
		url:      t.trackURL,
		body:     body,
	})
}

func (t *Transport) SendProfileUpdate(update domain.ProfileUpdate) {
	if update.DistinctID == "" {
		update.DistinctID = t.identity.DistinctID()
	}

	body, err := t.encoder.EncodeProfile(t.encoder.ProfileEnvelope(update))
	if err != nil {
		t.logger.Error().Err(err).Msg("could not encode profile update")
		return
	}

	t.pool.Process(update.DistinctID, request{
		endpoint: endpointEngage,
		url:      t.engageURL,
		body:     body,
	})
}

// Identify switches to userID and links the previous id to it with an alias event.
func (t *Transport) Identify(userID string) {
	previous := t.identity.Identify(userID)
	if previous == userID {
		return
	}

	alias := domain.NewEvent(createAliasEvent, domain.Properties{"alias": userID}, t.now())
	t.sendEvent(alias, previous)
}

func (t *Transport) Reset() {
	t.identity.Reset()
}

func (t *Transport) Close(ctx context.Context) error {
	t.pool.Shutdown(ctx)
	t.client.HTTPClient.CloseIdleConnections()
	return nil
}

func (t *Transport) execute(ctx context.Context, r request) error {
	if err := t.post(ctx, r); err != nil {
		return fmt.Errorf("%s: %w", r.endpoint, err)
	}
	t.logger.Debug().Str("endpoint", r.endpoint).Msg("delivered")
	return nil
}

func (t *Transport) post(ctx context.Context, r request) error {
	req, err := retryablehttp.NewRequest(http.MethodPost, r.url, r.body)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	res, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponse))
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}

	if res.StatusCode/100 != 2 {
		return fmt.Errorf("unexpected status code: %d", res.StatusCode)
	}
	return wire.ParseResponse(body)
}

func withQuery(raw string, query url.Values) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range query {
		q[k] = v
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
