package capture

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"

	"can-monitor/internal/models"
	"github.com/fxamacker/cbor/v2"
)

// Reader reads frames from a capture file in recorded order.
type Reader struct {
	file *os.File
	dec  *cbor.Decoder
}

// Open opens a capture file for reading.
func Open(path string) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	return NewReader(file), nil
}

// NewReader reads records from r. Close is a no-op unless r is an *os.File.
func NewReader(r io.Reader) *Reader {
	rd := &Reader{dec: cbor.NewDecoder(bufio.NewReader(r))}
	if f, ok := r.(*os.File); ok {
		rd.file = f
	}
	return rd
}

// Next returns the next frame, or io.EOF after the last one.
func (r *Reader) Next() (models.CANMessage, error) {
	var rec Record
	if err := r.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return models.CANMessage{}, io.EOF
		}
		return models.CANMessage{}, fmt.Errorf("corrupt capture record: %w", err)
	}
	return rec.Message(), nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	return r.file.Close()
}
