package can

import (
	"time"

	"can-monitor/internal/models"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

type received struct {
	frame models.CANFrame
	ok    bool
	err   error
}

type fakeDriver struct {
	openErr     error
	openPanic   any
	mask        uint64
	resolveErr  error
	recvPanic   any
	queue       []received
	opened      int
	closed      int
	resolveArgs [3]int
}

func (d *fakeDriver) Open() error {
	d.opened++
	if d.openPanic != nil {
		panic(d.openPanic)
	}
	return d.openErr
}

func (d *fakeDriver) ResolveChannel(hwType, hwIndex, hwChannel int) (uint64, error) {
	d.resolveArgs = [3]int{hwType, hwIndex, hwChannel}
	return d.mask, d.resolveErr
}

func (d *fakeDriver) Receive(time.Duration) (models.CANFrame, bool, error) {
	if d.recvPanic != nil {
		panic(d.recvPanic)
	}
	if len(d.queue) == 0 {
		return models.CANFrame{}, false, nil
	}
	r := d.queue[0]
	d.queue = d.queue[1:]
	return r.frame, r.ok, r.err
}

func (d *fakeDriver) Close() error {
	d.closed++
	return nil
}
