package can

import (
	"fmt"
	"time"

	"can-monitor/internal/models"
	"go.uber.org/zap"
)

// HardwareSource reads frames from a Driver.
type HardwareSource struct {
	driver  Driver
	name    string
	channel Channel
	logger  *zap.Logger
	now     func() time.Time

	mask   uint64
	opened bool
}

// NewHardwareSource wraps driver. name is used as the frame interface name.
func NewHardwareSource(driver Driver, name string, channel Channel, logger *zap.Logger) *HardwareSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HardwareSource{
		driver:  driver,
		name:    name,
		channel: channel,
		logger:  logger.Named("hardware"),
		now:     time.Now,
	}
}

// Name returns the interface name.
func (s *HardwareSource) Name() string { return s.name }

// ChannelMask returns the channels found by Open.
func (s *HardwareSource) ChannelMask() uint64 { return s.mask }

// Open initializes the driver and resolves a channel. Every failure,
// including a panic inside the binding, is reported as ErrUnavailable.
func (s *HardwareSource) Open() (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.closeDriver()
			err = fmt.Errorf("%w: %s driver panicked: %v", ErrUnavailable, s.name, r)
		}
	}()

	s.logger.Debug("opening driver", zap.String("interface", s.name))
	if err := s.driver.Open(); err != nil {
		return fmt.Errorf("%w: %s: open driver: %w", ErrUnavailable, s.name, err)
	}

	mask, err := s.driver.ResolveChannel(s.channel.HWType, s.channel.HWIndex, s.channel.HWChannel)
	if err != nil {
		s.closeDriver()
		return fmt.Errorf("%w: %s: resolve channel: %w", ErrUnavailable, s.name, err)
	}
	if mask == 0 {
		s.closeDriver()
		return fmt.Errorf("%w: %s: no CAN channels found", ErrUnavailable, s.name)
	}

	s.mask = mask
	s.opened = true
	s.logger.Info("hardware channel resolved",
		zap.String("interface", s.name),
		zap.String("channel_mask", fmt.Sprintf("0x%X", mask)))
	return nil
}

// NextFrame receives one frame from the driver.
func (s *HardwareSource) NextFrame(timeout time.Duration) (msg models.CANMessage, ok bool, err error) {
	if !s.opened {
		return models.CANMessage{}, false, fmt.Errorf("%w: %s is not open", ErrFault, s.name)
	}

	defer func() {
		if r := recover(); r != nil {
			msg, ok = models.CANMessage{}, false
			err = fmt.Errorf("%w: %s driver panicked: %v", ErrFault, s.name, r)
		}
	}()

	frame, ok, err := s.driver.Receive(timeout)
	if err != nil {
		return models.CANMessage{}, false, fmt.Errorf("%w: %s: %w", ErrFault, s.name, err)
	}
	if !ok {
		return models.CANMessage{}, false, nil
	}

	return models.CANMessage{
		Frame:     frame,
		Timestamp: s.now(),
		Interface: s.name,
	}, true, nil
}

// Close releases the driver once.
func (s *HardwareSource) Close() error {
	if !s.opened {
		return nil
	}
	s.opened = false
	return s.driver.Close()
}

func (s *HardwareSource) closeDriver() {
	defer func() { _ = recover() }()
	if err := s.driver.Close(); err != nil {
		s.logger.Debug("closing driver after failed open", zap.Error(err))
	}
}
