// Package analytics records product-usage events and user identity and
// delivers them to the analytics backend.
//
// A Client picks its delivery path once, in Init: a native bridge registered
// by the host application when one is available and initializes cleanly,
// otherwise the HTTP fallback that talks the backend wire protocol directly.
// Delivery is best-effort. No method returns delivery errors or panics into
// the caller; failures are logged and the affected send is dropped.
package analytics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/leshachaplin/tracklog/internal/domain"
	"github.com/leshachaplin/tracklog/internal/identity"
	"github.com/leshachaplin/tracklog/internal/session"
	"github.com/leshachaplin/tracklog/internal/transport"
	transporthttp "github.com/leshachaplin/tracklog/internal/transport/http"
	"github.com/leshachaplin/tracklog/internal/transport/native"
)

const (
	InitEvent         = "$mp_init"
	ScreenViewedEvent = "screen_viewed"

	propInitMethod = "init_method"
)

type (
	Properties = domain.Properties
	Mode       = domain.TransportMode
)

const (
	ModeUninitialized = domain.Uninitialized
	ModeNative        = domain.Native
	ModeHTTPFallback  = domain.HTTPFallback
)

type Client struct {
	cfg        Config
	logger     zerolog.Logger
	probe      native.Probe
	httpOpts   []transporthttp.Option
	now        func() time.Time
	extraSuper Properties

	identity *identity.Store
	session  *session.Tracker

	initOnce  sync.Once
	mu        sync.RWMutex
	mode      Mode
	transport transport.Transport
	closed    bool
}

// New creates an uninitialized client. Nothing is sent until Init.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		cfg:     cfg.withDefaults(),
		logger:  log.Logger.With().Str("component", "analytics").Logger(),
		probe:   native.Discover,
		now:     time.Now,
		session: session.NewTracker(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.identity = identity.NewStore(c.cfg.Platform, c.now)
	return c
}

// Init selects the transport. Only the first call does anything, concurrent
// first calls wait for it to finish.
func (c *Client) Init() {
	first := false
	c.initOnce.Do(func() {
		first = true
		c.init()
	})
	if !first {
		c.logger.Debug().Msg("already initialized")
	}
}

func (c *Client) init() {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		c.logger.Warn().Msg("init after close ignored")
		return
	}

	superProps := c.extraSuper.Merge(c.deviceProperties())
	c.identity.RegisterSuperProperties(superProps)
	c.session.Start(c.now())

	bridge, err := native.Connect(c.probe, c.cfg.Token, superProps)
	if err == nil {
		tr := native.NewTransport(bridge, c.logger)
		if !c.setTransport(ModeNative, tr) {
			return
		}
		c.logger.Info().Msg("using native bridge")
		// an id recorded before Init is handed to the bridge once
		if userID := c.identity.UserID(); userID != "" {
			tr.Identify(userID)
		}
		return
	}
	c.logger.Info().Err(err).Msg("native bridge not usable, falling back to http")

	tr := transporthttp.New(c.cfg.transportConfig(), c.identity, c.logger, c.httpOpts...)
	if !c.setTransport(ModeHTTPFallback, tr) {
		return
	}
	c.Track(InitEvent, Properties{propInitMethod: ModeHTTPFallback.String()})
}

func (c *Client) deviceProperties() Properties {
	props := Properties{domain.PropPlatform: c.cfg.Platform}
	for k, v := range map[string]string{
		domain.PropAppVersion:  c.cfg.AppVersion,
		domain.PropDeviceBrand: c.cfg.DeviceBrand,
		domain.PropDeviceModel: c.cfg.DeviceModel,
		domain.PropOSVersion:   c.cfg.OSVersion,
	} {
		if v != "" {
			props[k] = v
		}
	}
	return props
}

// setTransport installs tr. When Close won the race with Init, tr is closed
// instead and false is returned.
func (c *Client) setTransport(mode Mode, tr transport.Transport) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Warn().Str("mode", mode.String()).Msg("client closed during init, transport discarded")
		if err := tr.Close(context.Background()); err != nil {
			c.logger.Warn().Err(err).Msg("could not close transport")
		}
		return false
	}
	c.mode = mode
	c.transport = tr
	c.mu.Unlock()
	return true
}

// active returns the selected transport, or nil with a log line when the
// client is not initialized yet or already closed.
func (c *Client) active(op string) transport.Transport {
	c.mu.RLock()
	tr, closed := c.transport, c.closed
	c.mu.RUnlock()

	switch {
	case closed:
		c.logger.Warn().Str("op", op).Msg("client is closed, call ignored")
		return nil
	case tr == nil:
		c.logger.Warn().Str("op", op).Msg("client is not initialized, call ignored")
		return nil
	}
	return tr
}

// Identify attributes everything after it to userID. On the HTTP path the
// previous anonymous id is aliased to userID. Non-empty props are pushed as a
// profile update.
//
// Before Init the id is only recorded locally. Profile props are dropped and
// no alias is sent; a native bridge selected later is identified with it.
func (c *Client) Identify(userID string, props Properties) {
	if userID == "" {
		c.logger.Warn().Msg("identify with empty user id ignored")
		return
	}

	c.mu.RLock()
	uninitialized := c.transport == nil && !c.closed
	c.mu.RUnlock()
	if uninitialized {
		c.identity.Identify(userID)
		c.logger.Warn().Str("user_id", userID).Msg("identify before init, recorded locally only")
		return
	}

	tr := c.active("identify")
	if tr == nil {
		return
	}
	tr.Identify(userID)
	if len(props) > 0 {
		tr.SendProfileUpdate(domain.ProfileUpdate{DistinctID: userID, Properties: props})
	}
}

// SetUserProperties sets props on the current profile, last write wins.
func (c *Client) SetUserProperties(props Properties) {
	tr := c.active("set user properties")
	if tr == nil {
		return
	}
	tr.SendProfileUpdate(domain.ProfileUpdate{Properties: props})
}

// Track sends an event carrying the super properties, props and a timestamp.
// props win over super properties on key collision.
func (c *Client) Track(name string, props Properties) {
	tr := c.active("track")
	if tr == nil {
		return
	}
	tr.SendEvent(domain.NewEvent(name, c.identity.SuperProperties().Merge(props), c.now()))
}

// TrackScreen moves name into the screen history and tracks a screen_viewed
// event with the new current and the old previous screen.
func (c *Client) TrackScreen(name string, props Properties) {
	if c.active("track screen") == nil {
		return
	}

	st := c.session.Rotate(name)
	var previous any
	if st.PreviousScreen != "" {
		previous = st.PreviousScreen
	}

	c.Track(ScreenViewedEvent, Properties{
		domain.PropScreenName:     st.CurrentScreen,
		domain.PropPreviousScreen: previous,
	}.Merge(props))
}

// Reset forgets the screen history. The HTTP path also drops the resolved
// user and starts a new anonymous id; the native path resets the bridge.
// The transport is never reselected.
func (c *Client) Reset() {
	c.session.Clear()

	c.mu.RLock()
	tr, closed := c.transport, c.closed
	c.mu.RUnlock()

	switch {
	case closed:
		return
	case tr == nil:
		c.identity.Reset()
	default:
		tr.Reset()
	}
}

// Close stops accepting calls and waits for queued sends until ctx is done.
// Sends still pending then are dropped.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	tr := c.transport
	c.mu.Unlock()

	if tr == nil {
		return nil
	}
	if err := tr.Close(ctx); err != nil {
		c.logger.Warn().Err(err).Msg("could not close transport")
	}
	return nil
}

// DistinctID returns the id events are attributed to on the HTTP path. With
// a native bridge the bridge owns the identity.
func (c *Client) DistinctID() string {
	return c.identity.DistinctID()
}

func (c *Client) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}
