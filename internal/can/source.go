// Package can acquires CAN frames. A FrameSource is either backed by a
// hardware Driver, by the built-in traffic simulator or by a capture replay.
package can

import (
	"errors"
	"time"

	"can-monitor/internal/models"
)

var (
	// ErrUnavailable reports that a source could not be opened: no driver,
	// no channel, or the driver refused to initialize.
	ErrUnavailable = errors.New("can: source unavailable")

	// ErrFault reports an unrecoverable failure while reading frames.
	ErrFault = errors.New("can: source fault")

	// ErrEndOfStream reports that a finite source has no more frames.
	ErrEndOfStream = errors.New("can: end of stream")
)

// FrameSource produces CAN frames one at a time.
type FrameSource interface {
	// Name identifies the source in output and recorded frames.
	Name() string

	// Open prepares the source for reading.
	Open() error

	// NextFrame waits at most timeout for a frame. ok is false when no frame
	// arrived in time; the caller should simply try again.
	NextFrame(timeout time.Duration) (msg models.CANMessage, ok bool, err error)

	// Close releases the source. It is safe to call more than once.
	Close() error
}

// Clock abstracts time for sources that pace their output.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// waitUntil sleeps until due when that fits in timeout and reports whether
// due was reached. Otherwise it sleeps for timeout and returns false.
func waitUntil(clock Clock, due time.Time, timeout time.Duration) bool {
	wait := due.Sub(clock.Now())
	if wait > timeout {
		if timeout > 0 {
			clock.Sleep(timeout)
		}
		return false
	}
	if wait > 0 {
		clock.Sleep(wait)
	}
	return true
}
