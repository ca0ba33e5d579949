package query

import (
	"context"
	"fmt"
	"strings"
	"time"

	"AppPulse/internal/config"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// CounterSummary is the aggregated view of one counter over a time range.
type CounterSummary struct {
	Application    string  `json:"application"`
	StorageName    string  `json:"storage_name"`
	Requests       uint64  `json:"requests"`
	Errors         uint64  `json:"errors"`
	MeanDurationMs float64 `json:"mean_duration_ms"`
	MaxDurationMs  uint64  `json:"max_duration_ms"`
}

// Querier defines the interface for querying collected counter data.
type Querier interface {
	SummarizeCounters(ctx context.Context, application, storageName string, endTime time.Time) ([]*CounterSummary, error)
}

// clickhouseQuerier implements the Querier interface for ClickHouse.
type clickhouseQuerier struct {
	conn clickhouse.Conn
}

// NewClickHouseQuerier creates a new querier for ClickHouse.
func NewClickHouseQuerier(cfg config.ClickHouseConfig) (Querier, error) {
	conn, err := connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to clickhouse: %w", err)
	}
	return &clickhouseQuerier{conn: conn}, nil
}

func connect(cfg config.ClickHouseConfig) (clickhouse.Conn, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
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

// SummarizeCounters returns, for each counter, the most recent snapshot at
// or before endTime. Counters are cumulative, so the latest snapshot is the
// running total.
func (q *clickhouseQuerier) SummarizeCounters(ctx context.Context, application, storageName string, endTime time.Time) ([]*CounterSummary, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		SELECT
			Application,
			StorageName,
			argMax(Requests, Timestamp) AS LatestRequests,
			argMax(Errors, Timestamp) AS LatestErrors,
			argMax(DurationsSumMs, Timestamp) AS LatestDurationsSum,
			argMax(MaxDurationMs, Timestamp) AS LatestMaxDuration
		FROM counter_metrics
	`)

	var whereClauses []string
	args := []interface{}{}

	if !endTime.IsZero() {
		whereClauses = append(whereClauses, "Timestamp <= ?")
		args = append(args, endTime)
	}
	if application != "" {
		whereClauses = append(whereClauses, "Application = ?")
		args = append(args, application)
	}
	if storageName != "" {
		whereClauses = append(whereClauses, "StorageName = ?")
		args = append(args, storageName)
	}

	if len(whereClauses) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(whereClauses, " AND "))
	}

	queryBuilder.WriteString(`
		GROUP BY Application, StorageName
		ORDER BY Application, StorageName
	`)

	rows, err := q.conn.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var summaries []*CounterSummary
	for rows.Next() {
		var (
			summary      CounterSummary
			durationsSum uint64
		)
		if err := rows.Scan(&summary.Application, &summary.StorageName,
			&summary.Requests, &summary.Errors, &durationsSum, &summary.MaxDurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan aggregation result: %w", err)
		}
		if summary.Requests > 0 {
			summary.MeanDurationMs = float64(durationsSum) / float64(summary.Requests)
		}
		summaries = append(summaries, &summary)
	}

	return summaries, nil
}
