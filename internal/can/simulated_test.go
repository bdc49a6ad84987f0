package can

import (
	"testing"
	"time"

	"can-monitor/internal/decoder"
	"can-monitor/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, src *SimulatedSource, n int) []models.CANMessage {
	t.Helper()
	msgs := make([]models.CANMessage, 0, n)
	for len(msgs) < n {
		msg, ok, err := src.NextFrame(time.Second)
		require.NoError(t, err)
		if ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func TestSimulatedSource_FramesAreWellFormed(t *testing.T) {
	src := NewSimulatedSource(WithSeed(42), WithClock(newFakeClock()))
	require.NoError(t, src.Open())
	defer src.Close()

	for _, msg := range drain(t, src, 500) {
		f := msg.Frame
		assert.NotEmpty(t, decoder.Name(f.ID), "id 0x%X not in catalog", f.ID)
		assert.GreaterOrEqual(t, f.DLC, uint8(1))
		assert.LessOrEqual(t, f.DLC, uint8(models.MaxDataLen))
		for i := f.Len(); i < models.MaxDataLen; i++ {
			assert.Zero(t, f.Data[i], "byte %d past DLC %d", i, f.DLC)
		}
		assert.Equal(t, SimulatedName, msg.Interface)

		switch f.ID {
		case decoder.EngineID:
			assert.GreaterOrEqual(t, f.Data[0], byte(50))
			assert.Less(t, f.Data[0], byte(150))
			if f.Len() > 2 {
				assert.GreaterOrEqual(t, f.Data[2], byte(10))
				assert.Less(t, f.Data[2], byte(50))
			}
			if f.Len() > 3 {
				assert.Less(t, f.Data[3], byte(200))
			}
		case decoder.BatteryID:
			assert.GreaterOrEqual(t, f.Data[0], byte(120))
			assert.Less(t, f.Data[0], byte(140))
			if f.Len() > 1 {
				assert.Less(t, f.Data[1], byte(100))
			}
			if f.Len() > 2 {
				assert.GreaterOrEqual(t, f.Data[2], byte(60))
				assert.Less(t, f.Data[2], byte(100))
			}
		}
	}
}

func TestSimulatedSource_SeedIsReproducible(t *testing.T) {
	a := NewSimulatedSource(WithSeed(7), WithClock(newFakeClock()))
	b := NewSimulatedSource(WithSeed(7), WithClock(newFakeClock()))
	require.NoError(t, a.Open())
	require.NoError(t, b.Open())

	fa, fb := drain(t, a, 50), drain(t, b, 50)
	for i := range fa {
		assert.Equal(t, fa[i].Frame, fb[i].Frame)
	}
}

func TestSimulatedSource_CoversCatalog(t *testing.T) {
	src := NewSimulatedSource(WithSeed(1), WithClock(newFakeClock()))
	require.NoError(t, src.Open())

	seen := map[uint32]bool{}
	for _, msg := range drain(t, src, 1000) {
		seen[msg.Frame.ID] = true
	}
	for _, e := range decoder.Catalog {
		assert.True(t, seen[e.ID], "%s never generated", e.Name)
	}
}

func TestSimulatedSource_Pacing(t *testing.T) {
	clock := newFakeClock()
	src := NewSimulatedSource(WithSeed(3), WithClock(clock), WithDelay(100*time.Millisecond, 100*time.Millisecond))
	require.NoError(t, src.Open())

	// first frame is immediate
	_, ok, err := src.NextFrame(20 * time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Empty(t, clock.slept)

	// the next one is 100ms away; a 20ms timeout never blocks longer
	for i := 0; i < 4; i++ {
		_, ok, err = src.NextFrame(20 * time.Millisecond)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	_, ok, err = src.NextFrame(20 * time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, d := range clock.slept {
		assert.LessOrEqual(t, d, 20*time.Millisecond)
	}
}

func TestSimulatedSource_DelayRange(t *testing.T) {
	clock := newFakeClock()
	src := NewSimulatedSource(WithSeed(9), WithClock(clock))
	require.NoError(t, src.Open())

	prev, _, err := src.NextFrame(time.Second)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		msg, ok, err := src.NextFrame(time.Second)
		require.NoError(t, err)
		require.True(t, ok)
		gap := msg.Timestamp.Sub(prev.Timestamp)
		assert.GreaterOrEqual(t, gap, DefaultSimMinDelay)
		assert.Less(t, gap, DefaultSimMaxDelay)
		prev = msg
	}
}

func TestSimulatedSource_NotOpen(t *testing.T) {
	src := NewSimulatedSource()

	_, _, err := src.NextFrame(time.Millisecond)
	assert.ErrorIs(t, err, ErrFault)
}
