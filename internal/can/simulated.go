package can

import (
	"fmt"
	"math/rand/v2"
	"time"

	"can-monitor/internal/decoder"
	"can-monitor/internal/models"
)

// SimulatedName is the name reported by the simulator.
const SimulatedName = "simulated"

// Default pacing of simulated traffic.
const (
	DefaultSimMinDelay = 50 * time.Millisecond
	DefaultSimMaxDelay = 200 * time.Millisecond
)

// SimulatedSource emits plausible automotive traffic drawn from the decoder
// catalog. It never fails.
type SimulatedSource struct {
	seed     uint64
	minDelay time.Duration
	maxDelay time.Duration
	clock    Clock

	rng  *rand.Rand
	due  time.Time
	open bool
}

// SimOption configures a SimulatedSource.
type SimOption func(*SimulatedSource)

// WithSeed makes the generated sequence reproducible. Zero picks a
// time-based seed.
func WithSeed(seed uint64) SimOption {
	return func(s *SimulatedSource) { s.seed = seed }
}

// WithDelay sets the range of the gap between two frames.
func WithDelay(minDelay, maxDelay time.Duration) SimOption {
	return func(s *SimulatedSource) {
		s.minDelay, s.maxDelay = minDelay, maxDelay
	}
}

// WithClock replaces the wall clock.
func WithClock(clock Clock) SimOption {
	return func(s *SimulatedSource) { s.clock = clock }
}

// NewSimulatedSource creates a simulator.
func NewSimulatedSource(opts ...SimOption) *SimulatedSource {
	s := &SimulatedSource{
		minDelay: DefaultSimMinDelay,
		maxDelay: DefaultSimMaxDelay,
		clock:    SystemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxDelay < s.minDelay {
		s.maxDelay = s.minDelay
	}
	return s
}

func (s *SimulatedSource) Name() string { return SimulatedName }

// Open seeds the generator. The first frame is due immediately.
func (s *SimulatedSource) Open() error {
	seed := s.seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s.rng = rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
	s.due = s.clock.Now()
	s.open = true
	return nil
}

// NextFrame returns the next generated frame once its delay has elapsed.
// It never blocks longer than timeout.
func (s *SimulatedSource) NextFrame(timeout time.Duration) (models.CANMessage, bool, error) {
	if !s.open {
		return models.CANMessage{}, false, fmt.Errorf("%w: simulator is not open", ErrFault)
	}
	if !waitUntil(s.clock, s.due, timeout) {
		return models.CANMessage{}, false, nil
	}

	now := s.clock.Now()
	msg := models.CANMessage{
		Frame:     s.generate(),
		Timestamp: now,
		Interface: SimulatedName,
	}
	s.due = now.Add(s.delay())
	return msg, true, nil
}

func (s *SimulatedSource) Close() error {
	s.open = false
	return nil
}

func (s *SimulatedSource) generate() models.CANFrame {
	entry := decoder.Catalog[s.rng.IntN(len(decoder.Catalog))]
	frame := models.CANFrame{
		ID:  entry.ID,
		DLC: uint8(1 + s.rng.IntN(models.MaxDataLen)),
	}

	switch entry.ID {
	case decoder.EngineID:
		frame.Data[0] = s.between(50, 150) // temperature
		frame.Data[1] = s.between(0, 255)  // rpm, low byte
		frame.Data[2] = s.between(10, 50)  // rpm, high byte
		frame.Data[3] = s.between(0, 200)  // speed
	case decoder.BatteryID:
		frame.Data[0] = s.between(120, 140) // decivolts
		frame.Data[1] = s.between(0, 100)
		frame.Data[2] = s.between(60, 100)
	default:
		for i := range frame.Data {
			frame.Data[i] = byte(s.rng.IntN(256))
		}
	}

	for i := frame.Len(); i < models.MaxDataLen; i++ {
		frame.Data[i] = 0
	}
	return frame
}

// between returns a value in [lo, hi).
func (s *SimulatedSource) between(lo, hi int) byte {
	return byte(lo + s.rng.IntN(hi-lo))
}

func (s *SimulatedSource) delay() time.Duration {
	if s.maxDelay <= s.minDelay {
		return s.minDelay
	}
	return s.minDelay + time.Duration(s.rng.Int64N(int64(s.maxDelay-s.minDelay)))
}
