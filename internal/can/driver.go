package can

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"can-monitor/internal/models"
)

// Driver is the boundary to a CAN interface binding.
type Driver interface {
	// Open loads and initializes the driver.
	Open() error

	// ResolveChannel looks up the hardware channel and returns the mask of
	// available channels. A zero mask means nothing usable was found.
	ResolveChannel(hwType, hwIndex, hwChannel int) (uint64, error)

	// Receive waits at most timeout for one frame.
	Receive(timeout time.Duration) (models.CANFrame, bool, error)

	// Close releases the driver.
	Close() error
}

// Driver kinds accepted by NewDriver.
const (
	DriverAuto      = "auto"
	DriverSocketCAN = "socketcan"
	DriverVector    = "vector"
)

// Channel selects a hardware channel. Drivers that address channels by name
// (SocketCAN) ignore it.
type Channel struct {
	HWType    int
	HWIndex   int
	HWChannel int
}

// DriverConfig selects and configures a hardware driver.
type DriverConfig struct {
	Kind      string
	Interface string
	Filters   []uint32
	Channel   Channel
}

// DefaultDriverKind returns the driver kind native to the running platform.
func DefaultDriverKind() string {
	if runtime.GOOS == "windows" {
		return DriverVector
	}
	return DriverSocketCAN
}

// NewDriver creates the driver named by cfg.Kind. The returned driver may
// still be unusable on this platform; that surfaces from Open.
func NewDriver(cfg DriverConfig) (Driver, error) {
	kind := cfg.Kind
	if kind == "" || kind == DriverAuto {
		kind = DefaultDriverKind()
	}

	switch kind {
	case DriverSocketCAN:
		return newSocketCANDriver(cfg.Interface, cfg.Filters), nil
	case DriverVector:
		return newVectorDriver(), nil
	default:
		return nil, fmt.Errorf("unknown CAN driver %q", cfg.Kind)
	}
}

// unavailableDriver stands in for a driver that cannot exist on this platform.
type unavailableDriver struct {
	reason string
}

func (d unavailableDriver) Open() error { return errors.New(d.reason) }

func (d unavailableDriver) ResolveChannel(int, int, int) (uint64, error) {
	return 0, errors.New(d.reason)
}

func (d unavailableDriver) Receive(time.Duration) (models.CANFrame, bool, error) {
	return models.CANFrame{}, false, errors.New(d.reason)
}

func (d unavailableDriver) Close() error { return nil }
