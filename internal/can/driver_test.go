package can

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDriver(t *testing.T) {
	for _, kind := range []string{"", DriverAuto, DriverSocketCAN, DriverVector} {
		drv, err := NewDriver(DriverConfig{Kind: kind, Interface: "vcan0"})
		require.NoError(t, err, kind)
		assert.NotNil(t, drv)
	}

	_, err := NewDriver(DriverConfig{Kind: "peak"})
	assert.ErrorContains(t, err, `unknown CAN driver "peak"`)
}

func TestDefaultDriverKind(t *testing.T) {
	want := DriverSocketCAN
	if runtime.GOOS == "windows" {
		want = DriverVector
	}
	assert.Equal(t, want, DefaultDriverKind())
}

func TestVectorDriver_UnavailableOffWindows(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("vxlapi64.dll may be installed")
	}
	drv, err := NewDriver(DriverConfig{Kind: DriverVector})
	require.NoError(t, err)

	src := NewHardwareSource(drv, "vector", Channel{HWType: -1, HWIndex: -1}, nil)
	assert.ErrorIs(t, src.Open(), ErrUnavailable)
}
