package waiter

import (
	"os"
)

type Option func(*waiterCfg)

// WithSignals replaces the signals that stop the waiter. Defaults to
// interrupt and SIGTERM.
func WithSignals(signals ...os.Signal) Option {
	return func(cfg *waiterCfg) {
		cfg.signals = signals
	}
}
