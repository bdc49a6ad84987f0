// Package clickhouse records frames and statistics snapshots in ClickHouse.
package clickhouse

import (
	"context"
	"fmt"
	"time"

	"can-monitor/internal/database"
	"can-monitor/internal/models"
	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"
)

const connectTimeout = 5 * time.Second

// Writer handles writing CAN messages to ClickHouse
type Writer struct {
	conn   driver.Conn
	config Config
	frames *database.Batcher[models.CANMessage]
	stats  *StatsWriter
	logger *zap.Logger
}

var _ database.Writer = (*Writer)(nil)

// New connects to ClickHouse and creates both tables if needed.
func New(config Config, batchSize int, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("clickhouse")

	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: []string{config.Addr()},
		Auth: clickhouse.Auth{
			Database: config.Database,
			Username: config.Username,
			Password: config.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: connectTimeout,
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := conn.Exec(ctx, createFramesTableQuery(config.Table)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", config.Table, err)
	}
	if err := conn.Exec(ctx, createStatsTableQuery(config.StatsTable)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create table %s: %w", config.StatsTable, err)
	}

	w := &Writer{
		conn:   conn,
		config: config,
		stats:  NewStatsWriter(conn, config.StatsTable, logger),
		logger: logger,
	}
	w.frames = database.NewBatcher("clickhouse frames", batchSize, database.DefaultFlushInterval, w.flush, logger)

	logger.Info("connected",
		zap.String("addr", config.Addr()),
		zap.String("database", config.Database),
		zap.String("table", config.Table))
	return w, nil
}

// createFramesTableQuery returns the DDL of the frames table
func createFramesTableQuery(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			timestamp DateTime64(6),
			interface String,
			can_id UInt32,
			extended Bool,
			dlc UInt8,
			data Array(UInt8)
		) ENGINE = MergeTree()
		ORDER BY (timestamp, can_id)
		PARTITION BY toYYYYMMDD(timestamp)
		TTL toDateTime(timestamp) + INTERVAL 1 MONTH
		SETTINGS index_granularity = 8192
	`, table)
}

// frameRow returns the column values of one frame in table order.
func frameRow(msg models.CANMessage) []any {
	return []any{
		msg.Timestamp,
		msg.Interface,
		msg.Frame.ID,
		msg.Frame.Extended,
		uint8(msg.Frame.Len()),
		append([]uint8(nil), msg.Frame.Payload()...),
	}
}

func (w *Writer) flush(ctx context.Context, msgs []models.CANMessage) error {
	batch, err := w.conn.PrepareBatch(ctx, "INSERT INTO "+w.config.Table)
	if err != nil {
		return fmt.Errorf("failed to prepare batch: %w", err)
	}

	for _, msg := range msgs {
		if err := batch.Append(frameRow(msg)...); err != nil {
			batch.Abort()
			return fmt.Errorf("failed to append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send batch: %w", err)
	}
	return nil
}

// Start begins processing and writing messages
func (w *Writer) Start() {
	w.frames.Start()
	w.stats.Start()
}

// Write queues a message for writing
func (w *Writer) Write(msg models.CANMessage) {
	w.frames.Add(msg)
}

// WriteSnapshot queues a statistics snapshot
func (w *Writer) WriteSnapshot(snapshot models.StatsSnapshot) {
	w.stats.Write(snapshot)
}

// Close flushes both tables and closes the connection
func (w *Writer) Close() error {
	w.frames.Close()
	w.stats.Close()

	flushed, dropped := w.frames.Stats()
	w.logger.Info("closed", zap.Uint64("frames_written", flushed), zap.Uint64("frames_dropped", dropped))

	return w.conn.Close()
}
