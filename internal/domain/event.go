package domain

import "time"

// TimestampLayout is the ISO-8601 layout of the `timestamp` property.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Event is a single product-usage event. It is built once per Track call and
// never modified after handoff to a transport.
type Event struct {
	Name       string     `json:"event"`
	Properties Properties `json:"properties"`
	Time       time.Time  `json:"-"`
	InsertID   string     `json:"-"`
}

func NewEvent(name string, properties Properties, at time.Time) Event {
	props := properties.Clone()
	props[PropTimestamp] = at.UTC().Format(TimestampLayout)
	return Event{
		Name:       name,
		Properties: props,
		Time:       at,
	}
}

// Timestamp returns the ISO-8601 timestamp attached to the event.
func (e Event) Timestamp() string {
	ts, _ := e.Properties[PropTimestamp].(string)
	return ts
}

// ProfileUpdate sets profile properties for a distinct id. The backend
// applies it with last-write-wins semantics.
type ProfileUpdate struct {
	DistinctID string     `json:"distinct_id"`
	Properties Properties `json:"properties"`
}
