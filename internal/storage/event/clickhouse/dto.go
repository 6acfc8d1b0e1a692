package clickhouse

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/leshachaplin/tracklog/internal/domain"
)

type event struct {
	ServerTime time.Time `ch:"server_time"`
	ClientTime time.Time `ch:"client_time"`
	IP         string    `ch:"ip"`
	InsertID   string    `ch:"insert_id"`
	DistinctID string    `ch:"distinct_id"`
	Event      string    `ch:"event"`
	Properties string    `ch:"properties"`
}

type profileProperty struct {
	DistinctID string    `ch:"distinct_id"`
	Key        string    `ch:"key"`
	Value      string    `ch:"value"`
	UpdatedAt  time.Time `ch:"updated_at"`
}

func eventsFromService(evnts []domain.TrackedEvent) ([]event, error) {
	events := make([]event, len(evnts))
	for i := 0; i < len(evnts); i++ {
		props, err := json.Marshal(evnts[i].Properties)
		if err != nil {
			return nil, fmt.Errorf("marshal properties of %s: %w", evnts[i].Event, err)
		}
		events[i] = event{
			ServerTime: evnts[i].ServerTime,
			ClientTime: evnts[i].ClientTime,
			IP:         evnts[i].IP,
			InsertID:   evnts[i].InsertID,
			DistinctID: evnts[i].DistinctID,
			Event:      evnts[i].Event,
			Properties: string(props),
		}
	}
	return events, nil
}

// profilePropertiesFromService flattens profiles into one row per key, in
// key order for each profile.
func profilePropertiesFromService(profiles []domain.Profile) ([]profileProperty, error) {
	rows := make([]profileProperty, 0)
	for _, p := range profiles {
		keys := make([]string, 0, len(p.Set))
		for k := range p.Set {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			value, err := json.Marshal(p.Set[k])
			if err != nil {
				return nil, fmt.Errorf("marshal profile property %s: %w", k, err)
			}
			rows = append(rows, profileProperty{
				DistinctID: p.DistinctID,
				Key:        k,
				Value:      string(value),
				UpdatedAt:  p.ServerTime,
			})
		}
	}
	return rows, nil
}
