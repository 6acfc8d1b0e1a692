package analytics

import (
	"net/http"
	"time"

	"github.com/rs/zerolog"

	transporthttp "github.com/leshachaplin/tracklog/internal/transport/http"
	"github.com/leshachaplin/tracklog/internal/transport/native"
)

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger.With().Str("component", "analytics").Logger()
	}
}

// WithBridgeProbe replaces native.Discover as the way Init looks for a
// native bridge.
func WithBridgeProbe(probe native.Probe) Option {
	return func(c *Client) {
		c.probe = probe
	}
}

// WithHTTPClient sets the client used by the HTTP fallback transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpOpts = append(c.httpOpts, transporthttp.WithHTTPClient(hc))
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
		c.httpOpts = append(c.httpOpts, transporthttp.WithClock(now))
	}
}

// WithSuperProperties registers extra properties merged into every event.
// Device metadata from Config wins on key collision.
func WithSuperProperties(props Properties) Option {
	return func(c *Client) {
		c.extraSuper = c.extraSuper.Merge(props)
	}
}
