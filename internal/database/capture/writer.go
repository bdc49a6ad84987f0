package capture

import (
	"bufio"
	"fmt"
	"os"
	"sync"

	"can-monitor/internal/models"
	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
)

// Writer appends frames to a capture file.
type Writer struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	buf     *bufio.Writer
	enc     *cbor.Encoder
	logger  *zap.Logger
	written uint64
	closed  bool
}

// Create truncates or creates the capture file at path.
func Create(path string, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}
	buf := bufio.NewWriter(file)
	return &Writer{
		path:   path,
		file:   file,
		buf:    buf,
		enc:    cbor.NewEncoder(buf),
		logger: logger.Named("capture"),
	}, nil
}

// Start is a no-op; captures are written synchronously.
func (w *Writer) Start() {
	w.logger.Info("capture started", zap.String("path", w.path))
}

// Write appends one frame.
func (w *Writer) Write(msg models.CANMessage) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if err := w.enc.Encode(NewRecord(msg)); err != nil {
		w.logger.Warn("failed to capture frame", zap.Error(err))
		return
	}
	w.written++
}

// WriteSnapshot flushes buffered frames. Snapshots themselves are not captured.
func (w *Writer) WriteSnapshot(models.StatsSnapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if err := w.buf.Flush(); err != nil {
		w.logger.Warn("failed to flush capture", zap.Error(err))
	}
}

// Close flushes and closes the file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	flushErr := w.buf.Flush()
	closeErr := w.file.Close()
	w.logger.Info("capture closed", zap.String("path", w.path), zap.Uint64("frames", w.written))
	if flushErr != nil {
		return fmt.Errorf("failed to flush capture: %w", flushErr)
	}
	return closeErr
}
