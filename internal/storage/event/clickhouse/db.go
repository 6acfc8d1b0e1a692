package clickhouse

import (
	"context"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/rs/zerolog/log"
)

type Clickhouse struct {
	conn driver.Conn
}

func New(ctx context.Context, cfg Config) (*Clickhouse, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{cfg.Addr},
		Auth: clickhouse.Auth{
			Database: cfg.DB,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: cfg.Debug,
		Debugf: func(format string, v ...any) {
			log.Debug().Msgf(format, v...)
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout:     time.Second * 30,
		MaxOpenConns:    5,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Duration(10) * time.Minute,
	})
	if err != nil {
		return nil, err
	}

	if err = conn.Ping(ctx); err != nil {
		if exception, ok := err.(*clickhouse.Exception); ok {
			log.Error().
				Int32("code", exception.Code).
				Str("stack", exception.StackTrace).
				Msg(exception.Message)
		}
		_ = conn.Close()
		return nil, err
	}

	return &Clickhouse{
		conn: conn,
	}, nil
}

func (c *Clickhouse) Close() error {
	return c.conn.Close()
}

// Migrate creates the events and profile_properties tables. Profile
// properties keep only the latest value per key.
func (c *Clickhouse) Migrate(ctx context.Context) error {
	if err := c.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS events
		(
			server_time DateTime64(3),
			client_time DateTime,
			ip          String,
			insert_id   String,
			distinct_id String,
			event       String,
			properties  String
		) Engine = ReplacingMergeTree
		ORDER BY (distinct_id, client_time, event, insert_id)`); err != nil {
		return err
	}

	return c.conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS profile_properties
		(
			distinct_id String,
			key         String,
			value       String,
			updated_at  DateTime64(3)
		) Engine = ReplacingMergeTree(updated_at)
		ORDER BY (distinct_id, key)`)
}
