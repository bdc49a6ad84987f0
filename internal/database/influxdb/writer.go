// Package influxdb records frames and statistics snapshots in InfluxDB 3.
package influxdb

import (
	"context"
	"fmt"
	"strconv"

	"can-monitor/internal/database"
	"can-monitor/internal/decoder"
	"can-monitor/internal/models"
	"github.com/InfluxCommunity/influxdb3-go/v2/influxdb3"
	"go.uber.org/zap"
)

// Measurement names.
const (
	FramesMeasurement = "can_messages"
	StatsMeasurement  = "can_monitor_stats"
)

const statsBatchSize = 10

// Writer handles writing CAN messages to InfluxDB
type Writer struct {
	client *influxdb3.Client
	frames *database.Batcher[models.CANMessage]
	stats  *database.Batcher[models.StatsSnapshot]
	logger *zap.Logger
}

var _ database.Writer = (*Writer)(nil)

// New creates a new InfluxDB writer
func New(config Config, batchSize int, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("influxdb")

	client, err := influxdb3.New(influxdb3.ClientConfig{
		Host:     config.URL,
		Token:    config.Token,
		Database: config.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create InfluxDB client: %w", err)
	}

	w := &Writer{client: client, logger: logger}
	w.frames = database.NewBatcher("influxdb frames", batchSize, database.DefaultFlushInterval, w.writeFrames, logger)
	w.stats = database.NewBatcher("influxdb stats", statsBatchSize, database.DefaultFlushInterval, w.writeSnapshots, logger)

	logger.Info("client created", zap.String("url", config.URL), zap.String("database", config.Database))
	return w, nil
}

func frameTags(msg models.CANMessage) map[string]string {
	tags := map[string]string{
		"interface": msg.Interface,
		"can_id":    fmt.Sprintf("0x%03X", msg.Frame.ID),
	}
	if name := decoder.Name(msg.Frame.ID); name != "" {
		tags["name"] = name
	}
	return tags
}

// frameFields carries one data_N field per payload byte.
func frameFields(msg models.CANMessage) map[string]any {
	fields := map[string]any{
		"can_id_decimal": int64(msg.Frame.ID),
		"dlc":            int64(msg.Frame.Len()),
		"extended":       msg.Frame.Extended,
	}
	for i, b := range msg.Frame.Payload() {
		fields["data_"+strconv.Itoa(i)] = int64(b)
	}
	return fields
}

func snapshotFields(s models.StatsSnapshot) map[string]any {
	return map[string]any{
		"total_messages":      s.TotalMessages,
		"elapsed_seconds":     s.Elapsed.Seconds(),
		"messages_per_second": s.MessagesPerSecond,
	}
}

func (w *Writer) writeFrames(ctx context.Context, msgs []models.CANMessage) error {
	points := make([]*influxdb3.Point, 0, len(msgs))
	for _, msg := range msgs {
		points = append(points, influxdb3.NewPoint(FramesMeasurement, frameTags(msg), frameFields(msg), msg.Timestamp))
	}

	if err := w.client.WritePoints(ctx, points); err != nil {
		return fmt.Errorf("failed to write points: %w", err)
	}
	return nil
}

func (w *Writer) writeSnapshots(ctx context.Context, snapshots []models.StatsSnapshot) error {
	points := make([]*influxdb3.Point, 0, len(snapshots))
	for _, s := range snapshots {
		points = append(points, influxdb3.NewPoint(StatsMeasurement,
			map[string]string{"source": s.Source}, snapshotFields(s), s.Timestamp))
	}

	if err := w.client.WritePoints(ctx, points); err != nil {
		return fmt.Errorf("failed to write stats points: %w", err)
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
	w.stats.Add(snapshot)
}

// Close flushes remaining data and closes the client
func (w *Writer) Close() error {
	w.frames.Close()
	w.stats.Close()

	flushed, dropped := w.frames.Stats()
	w.logger.Info("closed", zap.Uint64("frames_written", flushed), zap.Uint64("frames_dropped", dropped))

	return w.client.Close()
}
