package identity

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/leshachaplin/tracklog/internal/domain"
)

func TestNewDeviceID(t *testing.T) {
	cases := map[string]struct {
		platform string
		prefix   string
	}{
		"ios":     {platform: "ios", prefix: "ios-"},
		"android": {platform: "android", prefix: "android-"},
		"empty":   {platform: "", prefix: "unknown-"},
	}

	now := time.Now()
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			seen := make(map[string]struct{})
			for i := 0; i < 1000; i++ {
				id := NewDeviceID(tc.platform, now)
				require.NotEmpty(t, id)
				require.True(t, strings.HasPrefix(id, tc.prefix), id)
				_, dup := seen[id]
				require.False(t, dup, "duplicate id %s", id)
				seen[id] = struct{}{}
			}
		})
	}
}

func TestNewInsertID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	a, b := NewInsertID(now), NewInsertID(now)
	require.True(t, strings.HasPrefix(a, "1700000000123-"))
	require.NotEqual(t, a, b)
}

func TestStore_IdentifyAndReset(t *testing.T) {
	s := NewStore("ios", nil)
	anon := s.DistinctID()
	require.NotEmpty(t, anon)
	require.Empty(t, s.UserID())

	prev := s.Identify("user-42")
	require.Equal(t, anon, prev)
	require.Equal(t, "user-42", s.DistinctID())
	require.Equal(t, "user-42", s.UserID())

	fresh := s.Reset()
	require.Empty(t, s.UserID())
	require.Equal(t, fresh, s.DistinctID())
	require.NotEqual(t, anon, fresh)
	require.True(t, strings.HasPrefix(fresh, "ios-"))
}

func TestStore_SuperPropertiesAreStable(t *testing.T) {
	s := NewStore("android", nil)
	s.RegisterSuperProperties(domain.Properties{"platform": "android", "app_version": "1.0.0"})
	s.RegisterSuperProperties(domain.Properties{"platform": "ios", "device_model": "Pixel"})

	props := s.SuperProperties()
	require.Equal(t, "android", props["platform"])
	require.Equal(t, "1.0.0", props["app_version"])
	require.Equal(t, "Pixel", props["device_model"])

	props["platform"] = "mutated"
	require.Equal(t, "android", s.SuperProperties()["platform"])
}
