// Package sink writes collected counter snapshots into ClickHouse.
package sink

import (
	"context"
	"fmt"
	"log"

	"AppPulse/internal/config"
	"AppPulse/internal/model"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

const createTableStatement = `
CREATE TABLE IF NOT EXISTS counter_metrics (
    Timestamp      DateTime,
    Application    String,
    StorageName    String,
    StartTime      DateTime,
    Requests       UInt64,
    Errors         UInt64,
    DurationsSumMs UInt64,
    MaxDurationMs  UInt64
) ENGINE = MergeTree()
PARTITION BY toYYYYMM(Timestamp)
ORDER BY (Application, StorageName, Timestamp);
`

// ClickHouseWriter implements the model.Writer interface for ClickHouse.
type ClickHouseWriter struct {
	conn driver.Conn
}

// NewClickHouseWriter creates a new ClickHouse writer and ensures the
// counter_metrics table exists.
func NewClickHouseWriter(cfg config.ClickHouseConfig) (*ClickHouseWriter, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}

	if err := conn.Exec(context.Background(), createTableStatement); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Println("Successfully connected to ClickHouse and ensured table exists.")

	return &ClickHouseWriter{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (driver.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Debug: false,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})

	if err != nil {
		return nil, err
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping clickhouse: %w", err)
	}

	return conn, nil
}

// Write inserts one snapshot batch into the counter_metrics table.
func (w *ClickHouseWriter) Write(batch model.SnapshotBatch) error {
	if len(batch.Counters) == 0 {
		return nil
	}

	insert, err := w.conn.PrepareBatch(context.Background(), "INSERT INTO counter_metrics")
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, snap := range batch.Counters {
		err = insert.Append(
			batch.Timestamp,
			snap.Application,
			snap.StorageName,
			snap.StartTime,
			uint64(snap.Requests),
			uint64(snap.Errors),
			uint64(snap.DurationsSumMillis),
			uint64(snap.MaxDurationMillis),
		)
		if err != nil {
			return fmt.Errorf("failed to append snapshot for '%s': %w", snap.StorageName, err)
		}
	}

	if err := insert.Send(); err != nil {
		return fmt.Errorf("failed to send batch to clickhouse: %w", err)
	}

	log.Printf("Wrote %d counter snapshots for application '%s' to ClickHouse.", len(batch.Counters), batch.Application)
	return nil
}

// Close releases the ClickHouse connection.
func (w *ClickHouseWriter) Close() error {
	return w.conn.Close()
}
