//go:build windows && amd64

package can

import (
	"fmt"
	"time"
	"unsafe"

	"can-monitor/internal/models"
	"golang.org/x/sys/windows"
)

const vectorAppName = "CANMonitor"

// vectorDriver binds to the Vector XL Driver Library (vxlapi64.dll).
type vectorDriver struct {
	dll *windows.LazyDLL

	openDriver        *windows.LazyProc
	closeDriver       *windows.LazyProc
	getChannelMask    *windows.LazyProc
	openPort          *windows.LazyProc
	closePort         *windows.LazyProc
	activateChannel   *windows.LazyProc
	deactivateChannel *windows.LazyProc
	setNotification   *windows.LazyProc
	receive           *windows.LazyProc

	driverOpen bool
	port       int32
	portOpen   bool
	mask       uint64
	active     bool
	notify     windows.Handle
}

func newVectorDriver() Driver {
	dll := windows.NewLazySystemDLL("vxlapi64.dll")
	return &vectorDriver{
		dll:               dll,
		openDriver:        dll.NewProc("xlOpenDriver"),
		closeDriver:       dll.NewProc("xlCloseDriver"),
		getChannelMask:    dll.NewProc("xlGetChannelMask"),
		openPort:          dll.NewProc("xlOpenPort"),
		closePort:         dll.NewProc("xlClosePort"),
		activateChannel:   dll.NewProc("xlActivateChannel"),
		deactivateChannel: dll.NewProc("xlDeactivateChannel"),
		setNotification:   dll.NewProc("xlSetNotification"),
		receive:           dll.NewProc("xlReceive"),
	}
}

func xlStatus(r uintptr) int16 { return int16(r) }

func (d *vectorDriver) Open() error {
	if err := d.dll.Load(); err != nil {
		return fmt.Errorf("load vxlapi64.dll: %w", err)
	}
	if err := d.openDriver.Find(); err != nil {
		return err
	}

	r, _, _ := d.openDriver.Call()
	if status := xlStatus(r); status != xlSuccess {
		return fmt.Errorf("xlOpenDriver failed with status %d", status)
	}
	d.driverOpen = true
	return nil
}

func (d *vectorDriver) ResolveChannel(hwType, hwIndex, hwChannel int) (uint64, error) {
	r, _, _ := d.getChannelMask.Call(uintptr(hwType), uintptr(hwIndex), uintptr(hwChannel))
	mask := uint64(r)
	if mask == 0 {
		return 0, nil
	}

	name, err := windows.BytePtrFromString(vectorAppName)
	if err != nil {
		return 0, err
	}

	var port int32
	permission := mask
	r, _, _ = d.openPort.Call(
		uintptr(unsafe.Pointer(&port)),
		uintptr(unsafe.Pointer(name)),
		uintptr(mask),
		uintptr(unsafe.Pointer(&permission)),
		xlRxQueueSize,
		xlInterfaceVersion,
		xlBusTypeCAN,
	)
	if status := xlStatus(r); status != xlSuccess {
		return 0, fmt.Errorf("xlOpenPort failed with status %d", status)
	}
	d.port = port
	d.portOpen = true

	r, _, _ = d.activateChannel.Call(uintptr(d.port), uintptr(mask), xlBusTypeCAN, xlActivateReset)
	if status := xlStatus(r); status != xlSuccess {
		return 0, fmt.Errorf("xlActivateChannel failed with status %d", status)
	}
	d.mask = mask
	d.active = true

	var handle windows.Handle
	r, _, _ = d.setNotification.Call(uintptr(d.port), uintptr(unsafe.Pointer(&handle)), 1)
	if xlStatus(r) == xlSuccess {
		d.notify = handle
	}

	return mask, nil
}

func (d *vectorDriver) Receive(timeout time.Duration) (models.CANFrame, bool, error) {
	deadline := time.Now().Add(timeout)
	for {
		var ev xlEvent
		count := uint32(1)
		r, _, _ := d.receive.Call(uintptr(d.port), uintptr(unsafe.Pointer(&count)), uintptr(unsafe.Pointer(&ev)))

		switch status := xlStatus(r); status {
		case xlSuccess:
			if frame, ok := decodeXLEvent(ev); ok {
				return frame, true, nil
			}
			continue
		case xlErrQueueIsEmpty:
		default:
			return models.CANFrame{}, false, fmt.Errorf("xlReceive failed with status %d", status)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return models.CANFrame{}, false, nil
		}
		if d.notify != 0 {
			if _, err := windows.WaitForSingleObject(d.notify, uint32(remaining.Milliseconds())); err != nil {
				return models.CANFrame{}, false, fmt.Errorf("wait for XL notification: %w", err)
			}
		} else {
			time.Sleep(time.Millisecond)
		}
	}
}

func (d *vectorDriver) Close() error {
	if d.active {
		d.deactivateChannel.Call(uintptr(d.port), uintptr(d.mask))
		d.active = false
	}
	if d.portOpen {
		d.closePort.Call(uintptr(d.port))
		d.portOpen = false
	}
	if d.driverOpen {
		d.closeDriver.Call()
		d.driverOpen = false
	}
	return nil
}
