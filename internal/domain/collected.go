package domain

import "time"

// TrackedEvent is an event as received by the collector.
type TrackedEvent struct {
	ServerTime time.Time  `json:"server_time"`
	ClientTime time.Time  `json:"client_time"`
	IP         string     `json:"ip"`
	InsertID   string     `json:"insert_id"`
	DistinctID string     `json:"distinct_id"`
	Event      string     `json:"event"`
	Properties Properties `json:"properties"`
}

func (e *TrackedEvent) EnrichWith(clientIP string, serverTime time.Time) {
	e.IP = clientIP
	e.ServerTime = serverTime
}

// Profile is a profile update as received by the collector.
type Profile struct {
	ServerTime time.Time  `json:"server_time"`
	DistinctID string     `json:"distinct_id"`
	Set        Properties `json:"set"`
}

type Batch struct {
	ID       string         `json:"id"`
	Events   []TrackedEvent `json:"events,omitempty"`
	Profiles []Profile      `json:"profiles,omitempty"`
}

func (b Batch) Empty() bool {
	return len(b.Events) == 0 && len(b.Profiles) == 0
}
