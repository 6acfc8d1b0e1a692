package http

import (
	"time"

	"github.com/leshachaplin/tracklog/internal/worker"
)

type Config struct {
	Token     string
	TrackURL  string
	EngageURL string
	Timeout   time.Duration
	Worker    worker.Config
}
