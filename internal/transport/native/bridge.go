package native

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/tracklog/internal/domain"
)

var ErrBridgeUnavailable = errors.New("native bridge is not available")

// Bridge is the host-provided analytics SDK.
type Bridge interface {
	Init(token string) error
	RegisterSuperProperties(props domain.Properties) error
	Track(name string, props domain.Properties) error
	Identify(distinctID string) error
	SetProfile(props domain.Properties) error
	Reset() error
}

// Factory constructs a bridge. It may fail or panic when the host SDK is
// present but unusable.
type Factory func() (Bridge, error)

// Probe looks for a usable bridge. It returns ErrBridgeUnavailable when the
// host did not provide one.
type Probe func() (Bridge, error)

var (
	mu      sync.RWMutex
	factory Factory
)

// Register makes a bridge discoverable by Discover. Hosts call it before the
// client is initialized; a later call replaces the earlier factory.
func Register(f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factory = f
}

// Discover constructs the registered bridge.
func Discover() (Bridge, error) {
	mu.RLock()
	f := factory
	mu.RUnlock()

	if f == nil {
		return nil, ErrBridgeUnavailable
	}
	return f()
}

// Connect runs probe and initializes the bridge it returns. Panics raised by
// host code are turned into errors.
func Connect(probe Probe, token string, superProps domain.Properties) (b Bridge, err error) {
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("native bridge panicked: %v", r)
		}
	}()

	if probe == nil {
		return nil, ErrBridgeUnavailable
	}

	b, err = probe()
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, ErrBridgeUnavailable
	}

	if err = b.Init(token); err != nil {
		return nil, fmt.Errorf("init native bridge: %w", err)
	}
	if err = b.RegisterSuperProperties(superProps); err != nil {
		return nil, fmt.Errorf("register super properties: %w", err)
	}
	return b, nil
}

// Transport delegates every operation to the bridge. Bridge calls are made
// on the caller's goroutine and must not block.
type Transport struct {
	bridge Bridge
	logger zerolog.Logger
}

func NewTransport(bridge Bridge, logger zerolog.Logger) *Transport {
	return &Transport{
		bridge: bridge,
		logger: logger.With().Str("transport", "native").Logger(),
	}
}

func (t *Transport) SendEvent(ev domain.Event) {
	t.guard("track", func() error {
		return t.bridge.Track(ev.Name, ev.Properties)
	})
}

func (t *Transport) SendProfileUpdate(update domain.ProfileUpdate) {
	t.guard("set profile", func() error {
		return t.bridge.SetProfile(update.Properties)
	})
}

func (t *Transport) Identify(userID string) {
	t.guard("identify", func() error {
		return t.bridge.Identify(userID)
	})
}

func (t *Transport) Reset() {
	t.guard("reset", t.bridge.Reset)
}

func (t *Transport) Close(_ context.Context) error {
	if c, ok := t.bridge.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (t *Transport) guard(op string, fn func() error) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error().Str("op", op).Interface("panic", r).Msg("native bridge panicked")
		}
	}()

	if err := fn(); err != nil {
		t.logger.Warn().Err(err).Str("op", op).Msg("native bridge call failed")
	}
}
