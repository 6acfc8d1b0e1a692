package native_test

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/leshachaplin/tracklog/internal/domain"
	"github.com/leshachaplin/tracklog/internal/transport/native"
	"github.com/leshachaplin/tracklog/internal/transport/native/nativetest"
)

func TestConnect(t *testing.T) {
	errInit := errors.New("sdk init failed")
	superProps := domain.Properties{"platform": "ios"}

	cases := map[string]struct {
		probe     native.Probe
		expectErr bool
	}{
		"ok": {
			probe: func() (native.Bridge, error) { return &nativetest.Bridge{}, nil },
		},
		"nil probe": {
			probe:     nil,
			expectErr: true,
		},
		"absent": {
			probe:     func() (native.Bridge, error) { return nil, native.ErrBridgeUnavailable },
			expectErr: true,
		},
		"nil bridge": {
			probe:     func() (native.Bridge, error) { return nil, nil },
			expectErr: true,
		},
		"construction panics": {
			probe:     func() (native.Bridge, error) { panic("no module") },
			expectErr: true,
		},
		"init fails": {
			probe:     func() (native.Bridge, error) { return &nativetest.Bridge{InitErr: errInit}, nil },
			expectErr: true,
		},
		"init panics": {
			probe:     func() (native.Bridge, error) { return &nativetest.Bridge{PanicOnInit: true}, nil },
			expectErr: true,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			b, err := native.Connect(tc.probe, "token", superProps)
			if tc.expectErr {
				require.Error(t, err)
				require.Nil(t, b)
				return
			}
			require.NoError(t, err)

			fake := b.(*nativetest.Bridge)
			calls := fake.Calls()
			require.Len(t, calls, 2)
			require.Equal(t, "init", calls[0].Op)
			require.Equal(t, "token", calls[0].Name)
			require.Equal(t, "register", calls[1].Op)
			require.Equal(t, superProps, calls[1].Properties)
		})
	}
}

func TestRegisterAndDiscover(t *testing.T) {
	native.Register(nil)
	_, err := native.Discover()
	require.ErrorIs(t, err, native.ErrBridgeUnavailable)

	fake := &nativetest.Bridge{}
	native.Register(func() (native.Bridge, error) { return fake, nil })
	t.Cleanup(func() { native.Register(nil) })

	b, err := native.Discover()
	require.NoError(t, err)
	require.Same(t, fake, b)
}

func TestTransport_Delegates(t *testing.T) {
	fake := &nativetest.Bridge{TrackErr: errors.New("dropped")}
	tr := native.NewTransport(fake, zerolog.Nop())

	tr.SendEvent(domain.Event{Name: "opened", Properties: domain.Properties{"a": 1}})
	tr.Identify("user-1")
	tr.SendProfileUpdate(domain.ProfileUpdate{DistinctID: "user-1", Properties: domain.Properties{"plan": "pro"}})
	tr.Reset()
	require.NoError(t, tr.Close(context.Background()))

	calls := fake.Calls()
	require.Len(t, calls, 4)
	require.Equal(t, "track", calls[0].Op)
	require.Equal(t, "opened", calls[0].Name)
	require.Equal(t, "identify", calls[1].Op)
	require.Equal(t, "user-1", calls[1].Name)
	require.Equal(t, "set_profile", calls[2].Op)
	require.Equal(t, "reset", calls[3].Op)
	require.True(t, fake.Closed())
}
