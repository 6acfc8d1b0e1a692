package producer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestLinearBackOff(t *testing.T) {
	errBoom := errors.New("boom")
	logger := zerolog.Nop()

	cases := map[string]struct {
		attempts      int
		failuresFirst int
		fnErr         error
		expectCalls   int
		expectErr     error
	}{
		"ok first try": {
			attempts:    3,
			expectCalls: 1,
		},
		"ok after retries": {
			attempts:      3,
			failuresFirst: 2,
			fnErr:         errBoom,
			expectCalls:   3,
		},
		"exhausted": {
			attempts:      2,
			failuresFirst: 5,
			fnErr:         errBoom,
			expectCalls:   2,
			expectErr:     errBoom,
		},
		"canceled stops immediately": {
			attempts:      5,
			failuresFirst: 5,
			fnErr:         context.Canceled,
			expectCalls:   1,
			expectErr:     context.Canceled,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			calls := 0
			err := linearBackOff(context.Background(), &logger, tc.attempts, time.Millisecond, func() error {
				calls++
				if calls <= tc.failuresFirst {
					return tc.fnErr
				}
				return nil
			})
			require.Equal(t, tc.expectCalls, calls)
			if tc.expectErr != nil {
				require.ErrorIs(t, err, tc.expectErr)
				return
			}
			require.NoError(t, err)
		})
	}
}
