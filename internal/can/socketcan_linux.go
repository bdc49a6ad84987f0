//go:build linux

package can

import (
	"context"
	"errors"
	"fmt"
	"time"

	"can-monitor/internal/models"
	"golang.org/x/sys/unix"
)

const linkProbeTimeout = 2 * time.Second

// socketCANDriver reads raw frames from a SocketCAN interface.
type socketCANDriver struct {
	ifname  string
	filters []uint32
	probe   func(ctx context.Context, ifname string) (models.LinkStats, error)

	socket int
	open   bool
	buf    [canFrameSize]byte
}

func newSocketCANDriver(ifname string, filters []uint32) Driver {
	return &socketCANDriver{
		ifname:  ifname,
		filters: filters,
		probe:   ReadLinkStats,
		socket:  -1,
	}
}

func (d *socketCANDriver) Open() error {
	socket, err := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if err != nil {
		return fmt.Errorf("failed to create CAN socket: %w", err)
	}
	d.socket = socket
	d.open = true
	return nil
}

// ResolveChannel binds the socket to the named interface. SocketCAN has no
// hardware type or index, so those arguments are ignored.
func (d *socketCANDriver) ResolveChannel(_, _, _ int) (uint64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), linkProbeTimeout)
	defer cancel()
	// A failed probe (no iproute2) is not fatal; the bind below decides.
	if stats, err := d.probe(ctx, d.ifname); err == nil && !stats.IsUp() {
		return 0, fmt.Errorf("interface %s is down", d.ifname)
	}

	ifreq, err := unix.NewIfreq(d.ifname)
	if err != nil {
		return 0, fmt.Errorf("failed to create ifreq: %w", err)
	}
	if err := unix.IoctlIfreq(d.socket, unix.SIOCGIFINDEX, ifreq); err != nil {
		return 0, fmt.Errorf("failed to get interface index: %w", err)
	}
	ifindex := ifreq.Uint32()

	if err := unix.Bind(d.socket, &unix.SockaddrCAN{Ifindex: int(ifindex)}); err != nil {
		return 0, fmt.Errorf("failed to bind socket: %w", err)
	}

	if err := d.setFilter(); err != nil {
		return 0, err
	}

	return 1 << (ifindex % 64), nil
}

func (d *socketCANDriver) setFilter() error {
	if len(d.filters) == 0 {
		return nil
	}

	raw := kernelFilters(d.filters)
	filters := make([]unix.CanFilter, len(raw))
	for i, f := range raw {
		filters[i] = unix.CanFilter{Id: f.id, Mask: f.mask}
	}

	if err := unix.SetsockoptCanRawFilter(d.socket, unix.SOL_CAN_RAW, unix.CAN_RAW_FILTER, filters); err != nil {
		return fmt.Errorf("failed to set filter: %w", err)
	}
	return nil
}

func (d *socketCANDriver) Receive(timeout time.Duration) (models.CANFrame, bool, error) {
	fds := []unix.PollFd{{Fd: int32(d.socket), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout.Milliseconds()))
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return models.CANFrame{}, false, nil
		}
		return models.CANFrame{}, false, fmt.Errorf("poll error: %w", err)
	}
	if n == 0 {
		return models.CANFrame{}, false, nil
	}

	read, err := unix.Read(d.socket, d.buf[:])
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return models.CANFrame{}, false, nil
		}
		return models.CANFrame{}, false, fmt.Errorf("read error: %w", err)
	}

	frame, isError, err := decodeFrame(d.buf[:read])
	if err != nil {
		return models.CANFrame{}, false, err
	}
	if isError {
		return models.CANFrame{}, false, nil
	}
	return frame, true, nil
}

func (d *socketCANDriver) Close() error {
	if !d.open {
		return nil
	}
	d.open = false
	err := unix.Close(d.socket)
	d.socket = -1
	return err
}
