package identity

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewDeviceID returns an anonymous identifier of the form
// <platform>-<unix millis, base36>-<random hex>.
func NewDeviceID(platform string, now time.Time) string {
	if platform == "" {
		platform = "unknown"
	}
	return platform + "-" + strconv.FormatInt(now.UnixMilli(), 36) + "-" + randomHex()
}

// NewInsertID returns a per-send dedup hint: unix millis plus a random suffix.
func NewInsertID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10) + "-" + randomHex()[:12]
}

func randomHex() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
