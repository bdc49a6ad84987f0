package clickhouse

import (
	"context"
	"fmt"
	"time"

	"can-monitor/internal/database"
	"can-monitor/internal/models"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

// Snapshots arrive every few seconds; a small batch keeps them timely.
const (
	statsBatchSize     = 10
	statsFlushInterval = 5 * time.Second
)

// StatsWriter handles writing throughput snapshots to ClickHouse
type StatsWriter struct {
	conn  driver.Conn
	table string
	batch *database.Batcher[models.StatsSnapshot]
}

// NewStatsWriter creates a new ClickHouse statistics writer
func NewStatsWriter(conn driver.Conn, table string, logger *zap.Logger) *StatsWriter {
	w := &StatsWriter{conn: conn, table: table}
	w.batch = database.NewBatcher("clickhouse stats", statsBatchSize, statsFlushInterval, w.flush, logger)
	return w
}

// createStatsTableQuery returns the DDL of the statistics table
func createStatsTableQuery(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			timestamp DateTime64(3),
			source String,
			total_messages UInt64,
			elapsed_seconds Float64,
			messages_per_second Float64
		) ENGINE = MergeTree()
		ORDER BY (timestamp, source)
		PARTITION BY toYYYYMMDD(timestamp)
		TTL toDateTime(timestamp) + INTERVAL 3 MONTH
	`, table)
}

func snapshotRow(s models.StatsSnapshot) []any {
	return []any{
		s.Timestamp,
		s.Source,
		s.TotalMessages,
		s.Elapsed.Seconds(),
		s.MessagesPerSecond,
	}
}

// Start begins processing snapshots
func (w *StatsWriter) Start() { w.batch.Start() }

// Write queues a snapshot
func (w *StatsWriter) Write(s models.StatsSnapshot) { w.batch.Add(s) }

// Close flushes pending snapshots. The connection is owned by Writer.
func (w *StatsWriter) Close() { w.batch.Close() }

func (w *StatsWriter) flush(ctx context.Context, snapshots []models.StatsSnapshot) error {
	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+w.table)
	if err != nil {
		return fmt.Errorf("failed to prepare stats batch: %w", err)
	}

	for _, s := range snapshots {
		if err := batch.Append(snapshotRow(s)...); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append stats: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send stats batch: %w", err)
	}
	return nil
}
