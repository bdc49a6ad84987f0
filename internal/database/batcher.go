package database

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults used by the network recorders.
const (
	DefaultFlushInterval = time.Second
	DefaultFlushTimeout  = 10 * time.Second
)

// FlushFunc persists one batch.
type FlushFunc[T any] func(ctx context.Context, items []T) error

// Batcher collects items and hands them to a FlushFunc when the batch is full
// or the flush interval elapses. Add never blocks; items are dropped with a
// warning when the queue is full.
type Batcher[T any] struct {
	name     string
	size     int
	interval time.Duration
	timeout  time.Duration
	flush    FlushFunc[T]
	logger   *zap.Logger

	queue chan T
	batch []T

	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	started bool
	closed  bool

	flushed uint64
	dropped uint64
}

// NewBatcher creates a batcher. The queue holds twice the batch size.
func NewBatcher[T any](name string, size int, interval time.Duration, flush FlushFunc[T], logger *zap.Logger) *Batcher[T] {
	if size <= 0 {
		size = 1
	}
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Batcher[T]{
		name:     name,
		size:     size,
		interval: interval,
		timeout:  DefaultFlushTimeout,
		flush:    flush,
		logger:   logger,
		queue:    make(chan T, size*2),
		batch:    make([]T, 0, size),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Start launches the flush loop.
func (b *Batcher[T]) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.closed {
		return
	}
	b.started = true
	go b.loop()
}

// Add queues an item and reports whether it was accepted.
func (b *Batcher[T]) Add(item T) bool {
	if b.ctx.Err() != nil {
		return false
	}
	select {
	case b.queue <- item:
		return true
	default:
		b.mu.Lock()
		b.dropped++
		b.mu.Unlock()
		b.logger.Warn("queue full, dropping item", zap.String("batch", b.name))
		return false
	}
}

// Close stops the loop and flushes everything still queued.
func (b *Batcher[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	started := b.started
	b.mu.Unlock()

	b.cancel()
	if started {
		<-b.done
		return
	}
	b.drain()
	b.flushBatch()
}

// Stats returns how many items were flushed and dropped.
func (b *Batcher[T]) Stats() (flushed, dropped uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flushed, b.dropped
}

func (b *Batcher[T]) loop() {
	defer close(b.done)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			b.drain()
			b.flushBatch()
			return

		case item := <-b.queue:
			b.batch = append(b.batch, item)
			if len(b.batch) >= b.size {
				b.flushBatch()
			}

		case <-ticker.C:
			b.flushBatch()
		}
	}
}

// drain moves queued items into the batch, flushing full batches.
func (b *Batcher[T]) drain() {
	for {
		select {
		case item := <-b.queue:
			b.batch = append(b.batch, item)
			if len(b.batch) >= b.size {
				b.flushBatch()
			}
		default:
			return
		}
	}
}

func (b *Batcher[T]) flushBatch() {
	if len(b.batch) == 0 {
		return
	}

	// The loop context is already cancelled during the final flush.
	ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
	defer cancel()

	n := len(b.batch)
	if err := b.flush(ctx, b.batch); err != nil {
		b.logger.Warn("flush failed, batch dropped",
			zap.String("batch", b.name),
			zap.Int("items", n),
			zap.Error(err))
		b.mu.Lock()
		b.dropped += uint64(n)
		b.mu.Unlock()
	} else {
		b.logger.Debug("flushed batch", zap.String("batch", b.name), zap.Int("items", n))
		b.mu.Lock()
		b.flushed += uint64(n)
		b.mu.Unlock()
	}
	b.batch = make([]T, 0, b.size)
}
