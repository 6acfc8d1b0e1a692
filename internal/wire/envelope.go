package wire

import (
	"time"

	"github.com/leshachaplin/tracklog/internal/domain"
)

const (
	PropToken      = "token"
	PropDistinctID = "distinct_id"
	PropTime       = "time"
	PropInsertID   = "$insert_id"
	PropLib        = "mp_lib"

	// LibMarker tags events delivered by the HTTP fallback transport.
	LibMarker = "tracklog-go-fallback"
)

// EventEnvelope is one element of the /track payload array.
type EventEnvelope struct {
	Event      string            `json:"event"`
	Properties domain.Properties `json:"properties"`
}

func (e EventEnvelope) Token() string      { return e.str(PropToken) }
func (e EventEnvelope) DistinctID() string { return e.str(PropDistinctID) }
func (e EventEnvelope) InsertID() string   { return e.str(PropInsertID) }

// Time returns the client-side event time carried in seconds since epoch.
func (e EventEnvelope) Time() time.Time {
	switch v := e.Properties[PropTime].(type) {
	case float64:
		return time.Unix(int64(v), 0)
	case int64:
		return time.Unix(v, 0)
	case int:
		return time.Unix(int64(v), 0)
	}
	return time.Time{}
}

func (e EventEnvelope) str(key string) string {
	s, _ := e.Properties[key].(string)
	return s
}

// ProfileEnvelope is the /engage payload.
type ProfileEnvelope struct {
	Token      string            `json:"$token"`
	DistinctID string            `json:"$distinct_id"`
	Set        domain.Properties `json:"$set"`
}
