package http

import (
	"fmt"
	"time"

	"github.com/leshachaplin/tracklog/analytics"
)

func (i *IntegrationTestSuite) TestTrack_StoredByCollector() {
	cases := map[string]struct {
		token    string
		events   int
		expected uint64
	}{
		"valid token": {
			token:    projectToken,
			events:   20,
			expected: 20,
		},
		"wrong token": {
			token:    "someone-else",
			events:   5,
			expected: 0,
		},
	}

	for name, tc := range cases {
		i.Run(name, func() {
			eventName := fmt.Sprintf("e2e_%s_%d", name, time.Now().UnixNano())
			c := i.newClient(tc.token)

			for k := 0; k < tc.events; k++ {
				c.Track(eventName, analytics.Properties{"sequence": k})
			}

			if tc.expected == 0 {
				time.Sleep(2 * time.Second)
				i.Require().Zero(i.eventCount(eventName)())
				return
			}
			i.Require().Eventually(func() bool {
				return i.eventCount(eventName)() == tc.expected
			}, storedWithin, 100*time.Millisecond)
		})
	}
}

func (i *IntegrationTestSuite) TestTrackScreen_StoredByCollector() {
	c := i.newClient(projectToken)

	c.TrackScreen("Home", nil)
	c.TrackScreen("Paywall", nil)

	i.Require().Eventually(func() bool {
		return i.eventCount(analytics.ScreenViewedEvent)() >= 2
	}, storedWithin, 100*time.Millisecond)
}

func (i *IntegrationTestSuite) TestIdentify_ProfileLastWriteWins() {
	c := i.newClient(projectToken)
	userID := fmt.Sprintf("user-%d", time.Now().UnixNano())

	c.Identify(userID, analytics.Properties{"email": "e2e@example.com", "plan": "free"})
	i.Require().Eventually(func() bool {
		return i.profileProperty(userID, "$email")() == `"e2e@example.com"`
	}, storedWithin, 100*time.Millisecond)

	// profile versions are compared at millisecond precision
	time.Sleep(10 * time.Millisecond)
	c.SetUserProperties(analytics.Properties{"plan": "pro"})
	i.Require().Eventually(func() bool {
		return i.profileProperty(userID, "plan")() == `"pro"`
	}, storedWithin, 100*time.Millisecond)
}
