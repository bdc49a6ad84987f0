package can

import (
	"errors"
	"testing"
	"time"

	"can-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHardwareSource_Open(t *testing.T) {
	drv := &fakeDriver{mask: 0x3}
	src := NewHardwareSource(drv, "can0", Channel{HWType: -1, HWIndex: -1, HWChannel: 0}, nil)

	require.NoError(t, src.Open())
	assert.Equal(t, uint64(0x3), src.ChannelMask())
	assert.Equal(t, [3]int{-1, -1, 0}, drv.resolveArgs)
	assert.Equal(t, "can0", src.Name())
}

func TestHardwareSource_OpenFailures(t *testing.T) {
	tests := []struct {
		name        string
		driver      *fakeDriver
		wantClosed  int
		errContains string
	}{
		{
			name:        "driver refuses to open",
			driver:      &fakeDriver{openErr: errors.New("dll not found")},
			errContains: "dll not found",
		},
		{
			name:        "channel lookup fails",
			driver:      &fakeDriver{resolveErr: errors.New("no such device")},
			wantClosed:  1,
			errContains: "no such device",
		},
		{
			name:        "no channels",
			driver:      &fakeDriver{mask: 0},
			wantClosed:  1,
			errContains: "no CAN channels found",
		},
		{
			name:        "binding panics",
			driver:      &fakeDriver{openPanic: "access violation"},
			wantClosed:  1,
			errContains: "access violation",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewHardwareSource(tt.driver, "can0", Channel{}, nil)

			err := src.Open()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnavailable)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.Equal(t, tt.wantClosed, tt.driver.closed)

			// Close after a failed open does not touch the driver again.
			require.NoError(t, src.Close())
			assert.Equal(t, tt.wantClosed, tt.driver.closed)
		})
	}
}

func TestHardwareSource_NextFrame(t *testing.T) {
	frame := models.NewFrame(0x123, []byte{1, 2})
	drv := &fakeDriver{
		mask: 1,
		queue: []received{
			{frame: frame, ok: true},
			{ok: false},
			{err: errors.New("bus off")},
		},
	}
	src := NewHardwareSource(drv, "can0", Channel{}, nil)
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	src.now = func() time.Time { return fixed }
	require.NoError(t, src.Open())

	msg, ok, err := src.NextFrame(20 * time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, frame, msg.Frame)
	assert.Equal(t, fixed, msg.Timestamp)
	assert.Equal(t, "can0", msg.Interface)

	_, ok, err = src.NextFrame(20 * time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = src.NextFrame(20 * time.Millisecond)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrFault)
	assert.Contains(t, err.Error(), "bus off")
}

func TestHardwareSource_NextFramePanicIsFault(t *testing.T) {
	drv := &fakeDriver{mask: 1, recvPanic: "bad pointer"}
	src := NewHardwareSource(drv, "can0", Channel{}, nil)
	require.NoError(t, src.Open())

	_, ok, err := src.NextFrame(time.Millisecond)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrFault)
}

func TestHardwareSource_NextFrameBeforeOpen(t *testing.T) {
	src := NewHardwareSource(&fakeDriver{mask: 1}, "can0", Channel{}, nil)

	_, _, err := src.NextFrame(time.Millisecond)
	assert.ErrorIs(t, err, ErrFault)
}

func TestHardwareSource_CloseOnce(t *testing.T) {
	drv := &fakeDriver{mask: 1}
	src := NewHardwareSource(drv, "can0", Channel{}, nil)
	require.NoError(t, src.Open())

	require.NoError(t, src.Close())
	require.NoError(t, src.Close())
	assert.Equal(t, 1, drv.closed)
}
