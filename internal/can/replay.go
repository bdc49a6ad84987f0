package can

import (
	"errors"
	"fmt"
	"io"
	"time"

	"can-monitor/internal/database/capture"
	"can-monitor/internal/models"
)

// ReplaySource plays back a capture file. Recorded timestamps are kept;
// speed scales the recorded gaps, and zero replays as fast as possible.
type ReplaySource struct {
	path  string
	speed float64
	clock Clock

	reader  *capture.Reader
	pending *models.CANMessage
	lastTS  time.Time
	due     time.Time
}

// NewReplaySource creates a replay of the capture at path.
func NewReplaySource(path string, speed float64, clock Clock) *ReplaySource {
	if clock == nil {
		clock = SystemClock
	}
	if speed < 0 {
		speed = 0
	}
	return &ReplaySource{path: path, speed: speed, clock: clock}
}

func (s *ReplaySource) Name() string { return "replay" }

func (s *ReplaySource) Open() error {
	reader, err := capture.Open(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	s.reader = reader
	return nil
}

// NextFrame returns the next recorded frame and ErrEndOfStream after the
// last one.
func (s *ReplaySource) NextFrame(timeout time.Duration) (models.CANMessage, bool, error) {
	if s.reader == nil {
		return models.CANMessage{}, false, fmt.Errorf("%w: replay is not open", ErrFault)
	}

	if s.pending == nil {
		msg, err := s.reader.Next()
		if errors.Is(err, io.EOF) {
			return models.CANMessage{}, false, ErrEndOfStream
		}
		if err != nil {
			return models.CANMessage{}, false, fmt.Errorf("%w: %w", ErrFault, err)
		}

		s.due = s.clock.Now()
		if s.speed > 0 && !s.lastTS.IsZero() {
			if gap := msg.Timestamp.Sub(s.lastTS); gap > 0 {
				s.due = s.due.Add(time.Duration(float64(gap) / s.speed))
			}
		}
		s.lastTS = msg.Timestamp
		s.pending = &msg
	}

	if !waitUntil(s.clock, s.due, timeout) {
		return models.CANMessage{}, false, nil
	}

	msg := *s.pending
	s.pending = nil
	return msg, true, nil
}

func (s *ReplaySource) Close() error {
	if s.reader == nil {
		return nil
	}
	err := s.reader.Close()
	s.reader = nil
	return err
}
