package http

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/tracklog/analytics"
	"github.com/leshachaplin/tracklog/internal/transport/native"
)

const storedWithin = 30 * time.Second

// newClient returns an initialized analytics client that talks to the
// collector over the HTTP fallback.
func (i *IntegrationTestSuite) newClient(token string) *analytics.Client {
	c := analytics.New(analytics.Config{
		Token:      token,
		APIHost:    i.collectorURL,
		Platform:   "ios",
		AppVersion: "3.2.0",
	},
		analytics.WithLogger(zerolog.Nop()),
		analytics.WithBridgeProbe(func() (native.Bridge, error) {
			return nil, native.ErrBridgeUnavailable
		}),
	)
	c.Init()
	i.T().Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = c.Close(ctx)
	})
	return c
}

func (i *IntegrationTestSuite) eventCount(name string) func() uint64 {
	return func() uint64 {
		count, err := i.storage.CountEvents(i.ctx, name)
		if err != nil {
			return 0
		}
		return count
	}
}

func (i *IntegrationTestSuite) profileProperty(distinctID, key string) func() string {
	return func() string {
		value, err := i.storage.ProfileProperty(i.ctx, distinctID, key)
		if err != nil {
			return ""
		}
		return value
	}
}
