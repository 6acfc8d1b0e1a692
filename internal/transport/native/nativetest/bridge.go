// Package nativetest provides an in-memory native bridge for tests.
package nativetest

import (
	"sync"

	"github.com/leshachaplin/tracklog/internal/domain"
)

type Call struct {
	Op         string
	Name       string
	Properties domain.Properties
}

// Bridge records every call it receives.
type Bridge struct {
	InitErr     error
	PanicOnInit bool
	TrackErr    error

	mu     sync.Mutex
	calls  []Call
	closed bool
}

func (b *Bridge) Init(token string) error {
	if b.PanicOnInit {
		panic("native module missing")
	}
	b.record(Call{Op: "init", Name: token})
	return b.InitErr
}

func (b *Bridge) RegisterSuperProperties(props domain.Properties) error {
	b.record(Call{Op: "register", Properties: props})
	return nil
}

func (b *Bridge) Track(name string, props domain.Properties) error {
	b.record(Call{Op: "track", Name: name, Properties: props})
	return b.TrackErr
}

func (b *Bridge) Identify(distinctID string) error {
	b.record(Call{Op: "identify", Name: distinctID})
	return nil
}

func (b *Bridge) SetProfile(props domain.Properties) error {
	b.record(Call{Op: "set_profile", Properties: props})
	return nil
}

func (b *Bridge) Reset() error {
	b.record(Call{Op: "reset"})
	return nil
}

func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Bridge) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Calls returns the recorded calls, optionally only those of the given ops.
func (b *Bridge) Calls(ops ...string) []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Call, 0, len(b.calls))
	for _, c := range b.calls {
		if len(ops) == 0 || contains(ops, c.Op) {
			out = append(out, c)
		}
	}
	return out
}

func (b *Bridge) record(c Call) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, c)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
