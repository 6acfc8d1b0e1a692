package clickhouse

import (
	"context"

	"github.com/leshachaplin/tracklog/internal/domain"
)

func (c *Clickhouse) StoreBatch(ctx context.Context, batch domain.Batch) error {
	if len(batch.Events) > 0 {
		if err := c.storeEvents(ctx, batch.Events); err != nil {
			return err
		}
	}
	if len(batch.Profiles) > 0 {
		return c.storeProfiles(ctx, batch.Profiles)
	}
	return nil
}

func (c *Clickhouse) storeEvents(ctx context.Context, evnts []domain.TrackedEvent) error {
	rows, err := eventsFromService(evnts)
	if err != nil {
		return err
	}

	batch, err := c.conn.PrepareBatch(ctx, `INSERT INTO events`)
	if err != nil {
		return err
	}
	for i := 0; i < len(rows); i++ {
		if errAppend := batch.AppendStruct(&rows[i]); errAppend != nil {
			return errAppend
		}
	}
	return batch.Send()
}

func (c *Clickhouse) storeProfiles(ctx context.Context, profiles []domain.Profile) error {
	rows, err := profilePropertiesFromService(profiles)
	if err != nil {
		return err
	}

	batch, err := c.conn.PrepareBatch(ctx, `INSERT INTO profile_properties`)
	if err != nil {
		return err
	}
	for i := 0; i < len(rows); i++ {
		if errAppend := batch.AppendStruct(&rows[i]); errAppend != nil {
			return errAppend
		}
	}
	return batch.Send()
}

// CountEvents returns how many events were stored under name.
func (c *Clickhouse) CountEvents(ctx context.Context, name string) (uint64, error) {
	var count uint64
	err := c.conn.QueryRow(ctx, `SELECT count() FROM events FINAL WHERE event = ?`, name).Scan(&count)
	return count, err
}

// ProfileProperty returns the latest JSON value of key for distinctID.
func (c *Clickhouse) ProfileProperty(ctx context.Context, distinctID, key string) (string, error) {
	var value string
	err := c.conn.QueryRow(ctx,
		`SELECT value FROM profile_properties FINAL WHERE distinct_id = ? AND key = ?`,
		distinctID, key,
	).Scan(&value)
	return value, err
}
