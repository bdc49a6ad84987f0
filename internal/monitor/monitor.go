// Package monitor runs the acquisition loop: it opens a frame source,
// falling back to simulation, and feeds every frame to the console, the
// statistics aggregator and the recorders until cancelled.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"can-monitor/internal/can"
	"can-monitor/internal/database"
	"can-monitor/internal/decoder"
	"can-monitor/internal/display"
	"can-monitor/internal/models"
	"can-monitor/internal/stats"
	"go.uber.org/zap"
)

// DefaultFetchTimeout bounds each wait for a frame, and with it the
// latency of a stop request.
const DefaultFetchTimeout = 20 * time.Millisecond

// InterpretEvery is the frame interval of interpretation lines.
const InterpretEvery = 10

// State is a lifecycle phase of the monitor.
type State int

const (
	StateInitializing State = iota
	StateConnected
	StateSimulated
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateConnected:
		return "connected"
	case StateSimulated:
		return "simulated"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configures a Monitor.
type Options struct {
	// Primary is tried first. It may be nil.
	Primary can.FrameSource

	// Fallback builds the source used when Primary is nil or fails to
	// open. Nil means an open failure is returned instead.
	Fallback func() can.FrameSource

	// Hints are shown to the user when Primary fails to open.
	Hints []string

	Printer      *display.Printer
	Writers      []database.Writer
	Filter       []uint32
	FetchTimeout time.Duration
	Logger       *zap.Logger
	Now          func() time.Time
}

// Monitor drives one monitoring session.
type Monitor struct {
	opts    Options
	printer *display.Printer
	logger  *zap.Logger
	now     func() time.Time
	filter  map[uint32]struct{}

	mu          sync.Mutex
	state       State
	transitions []State
	agg         *stats.Aggregator
}

// New creates a monitor. Zero options get defaults.
func New(opts Options) *Monitor {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = DefaultFetchTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Printer == nil {
		opts.Printer = display.NewPrinter(io.Discard)
	}

	m := &Monitor{
		opts:    opts,
		printer: opts.Printer,
		logger:  opts.Logger.Named("monitor"),
		now:     opts.Now,
	}
	if len(opts.Filter) > 0 {
		m.filter = make(map[uint32]struct{}, len(opts.Filter))
		for _, id := range opts.Filter {
			m.filter[id] = struct{}{}
		}
	}
	return m
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Transitions returns every state entered so far, in order.
func (m *Monitor) Transitions() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]State(nil), m.transitions...)
}

// Stats returns the aggregator of the running session, or nil before a
// source was opened.
func (m *Monitor) Stats() *stats.Aggregator {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.agg
}

func (m *Monitor) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.transitions = append(m.transitions, s)
	m.mu.Unlock()
	m.logger.Debug("state changed", zap.Stringer("state", s))
}

// Run opens a source and processes frames until ctx is cancelled, the
// source ends, or it faults. Cancellation and end of stream return nil;
// a fault returns an error matching can.ErrFault. The source is closed
// on every path.
func (m *Monitor) Run(ctx context.Context) error {
	m.setState(StateInitializing)

	src, mode, err := m.acquire()
	if err != nil {
		m.setState(StateStopped)
		return err
	}

	agg := stats.New(src.Name(), m.now())
	m.mu.Lock()
	m.agg = agg
	m.mu.Unlock()
	defer m.release(src, agg)

	m.setState(StateRunning)
	m.printer.Running(mode)

	for {
		if ctx.Err() != nil {
			m.printer.Stopped(mode)
			return nil
		}

		msg, ok, err := src.NextFrame(m.opts.FetchTimeout)
		if err != nil {
			if errors.Is(err, can.ErrEndOfStream) {
				m.printer.Finished()
				return nil
			}
			if !errors.Is(err, can.ErrFault) {
				err = fmt.Errorf("%w: %w", can.ErrFault, err)
			}
			m.logger.Error("frame source failed", zap.String("source", src.Name()), zap.Error(err))
			return err
		}
		if ok {
			m.handle(agg, msg)
		}
	}
}

// acquire opens the primary source or the fallback.
func (m *Monitor) acquire() (can.FrameSource, display.Mode, error) {
	if primary := m.opts.Primary; primary != nil {
		_, replay := primary.(*can.ReplaySource)
		if !replay {
			m.printer.Connecting(primary.Name())
		}

		err := primary.Open()
		if err == nil {
			m.setState(StateConnected)
			m.logger.Info("source opened", zap.String("source", primary.Name()))
			if replay {
				return primary, display.ModeReplay, nil
			}
			var mask uint64
			if h, ok := primary.(interface{ ChannelMask() uint64 }); ok {
				mask = h.ChannelMask()
			}
			m.printer.Connected(primary.Name(), mask)
			return primary, display.ModeLive, nil
		}

		if m.opts.Fallback == nil {
			return nil, 0, err
		}
		m.logger.Warn("primary source unavailable, falling back to simulation",
			zap.String("source", primary.Name()), zap.Error(err))
		m.printer.Fallback(primary.Name(), err, m.opts.Hints)
	}

	if m.opts.Fallback == nil {
		return nil, 0, fmt.Errorf("%w: no frame source configured", can.ErrUnavailable)
	}

	sim := m.opts.Fallback()
	if err := sim.Open(); err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", sim.Name(), err)
	}
	m.setState(StateSimulated)
	m.logger.Info("source opened", zap.String("source", sim.Name()))
	return sim, display.ModeSimulated, nil
}

func (m *Monitor) handle(agg *stats.Aggregator, msg models.CANMessage) {
	if m.filter != nil {
		if _, ok := m.filter[msg.Frame.ID]; !ok {
			return
		}
	}

	index := agg.Total()
	m.printer.Frame(msg)
	if index%InterpretEvery == 0 {
		m.printer.Interpretation(decoder.Decode(msg.Frame))
	}
	agg.RecordArrival()

	for _, w := range m.opts.Writers {
		w.Write(msg)
	}

	if snap, ok := agg.MaybeSnapshot(m.now()); ok {
		m.printer.Statistics(snap)
		for _, w := range m.opts.Writers {
			w.WriteSnapshot(snap)
		}
	}
}

func (m *Monitor) release(src can.FrameSource, agg *stats.Aggregator) {
	m.setState(StateStopped)

	if err := src.Close(); err != nil {
		m.logger.Warn("failed to close source", zap.String("source", src.Name()), zap.Error(err))
	}

	final := agg.Snapshot(m.now())
	m.printer.Statistics(final)
	m.logger.Info("monitor stopped",
		zap.String("source", final.Source),
		zap.Uint64("total_messages", final.TotalMessages),
		zap.Duration("elapsed", final.Elapsed),
		zap.Float64("messages_per_second", final.MessagesPerSecond))
}
