// Package database defines the recorder boundary used by the monitor loop.
// Implementations live in the capture, clickhouse and influxdb subpackages.
package database

import (
	"can-monitor/internal/models"
	"go.uber.org/multierr"
)

// Writer defines the interface for recorders
type Writer interface {
	// Start begins processing queued data
	Start()

	// Write queues a frame. It must not block.
	Write(msg models.CANMessage)

	// WriteSnapshot queues a statistics snapshot. It must not block.
	WriteSnapshot(snapshot models.StatsSnapshot)

	// Close flushes pending data and releases the connection
	Close() error
}

// CloseAll closes every writer and combines their errors.
func CloseAll(writers []Writer) error {
	var err error
	for _, w := range writers {
		err = multierr.Append(err, w.Close())
	}
	return err
}
