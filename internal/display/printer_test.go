package display

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"can-monitor/internal/decoder"
	"can-monitor/internal/keyboard"
	"can-monitor/internal/models"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

var at = time.Date(2024, 1, 15, 14, 3, 7, 42_000_000, time.UTC)

func TestFormatFrame(t *testing.T) {
	tests := []struct {
		name  string
		frame models.CANFrame
		want  string
	}{
		{
			name:  "engine",
			frame: models.NewFrame(0x123, []byte{0x14, 0x64, 0x00, 0x3C}),
			want:  "[14:03:07.042] 0x123: [14 64 00 3C] (DLC=4)",
		},
		{
			name:  "short id padded to three digits",
			frame: models.NewFrame(0x1, []byte{0xAB}),
			want:  "[14:03:07.042] 0x001: [AB] (DLC=1)",
		},
		{
			name:  "extended id",
			frame: models.CANFrame{ID: 0x18FEF100, Extended: true, DLC: 2, Data: [8]byte{1, 2}},
			want:  "[14:03:07.042] 0x18FEF100: [01 02] (DLC=2)",
		},
		{
			name:  "empty payload",
			frame: models.NewFrame(0x456, nil),
			want:  "[14:03:07.042] 0x456: [] (DLC=0)",
		},
		{
			name: "bytes past dlc hidden",
			frame: func() models.CANFrame {
				f := models.NewFrame(0x2A0, []byte{0xDE, 0xAD})
				f.Data[7] = 0xFF
				return f
			}(),
			want: "[14:03:07.042] 0x2A0: [DE AD] (DLC=2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatFrame(models.CANMessage{Frame: tt.frame, Timestamp: at})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrinter_Frame(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Frame(models.CANMessage{Frame: models.NewFrame(0x456, []byte{125, 10, 85}), Timestamp: at})

	assert.Equal(t, "[14:03:07.042] 0x456: [7D 0A 55] (DLC=3)\n", buf.String())
}

func TestPrinter_Interpretation(t *testing.T) {
	tests := []struct {
		name  string
		frame models.CANFrame
		want  string
	}{
		{
			name:  "engine",
			frame: models.NewFrame(0x123, []byte{20, 0x64, 0x00, 60}),
			want:  "   Engine: ~400 RPM, Temp: ~20°C, Speed: ~60 km/h\n",
		},
		{
			name:  "battery",
			frame: models.NewFrame(0x456, []byte{125, 10, 85}),
			want:  "   Battery: 12.5V, Current: 10A, SoC: 85%\n",
		},
		{
			name:  "transmission",
			frame: models.NewFrame(0x789, []byte{1}),
			want:  "   Vehicle Status Message\n",
		},
		{
			name:  "unrecognized prints nothing",
			frame: models.NewFrame(0x2A0, []byte{1}),
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewPrinter(&buf).Interpretation(decoder.Decode(tt.frame))
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPrinter_Statistics(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Statistics(models.StatsSnapshot{TotalMessages: 30, MessagesPerSecond: 9.96})

	want := "\n" +
		"Statistics: 30 messages total, 10.0 msg/sec\n" +
		"----------------------------------------\n"
	assert.Equal(t, want, buf.String())
}

func TestPrinter_Running(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{
			mode: ModeLive,
			want: "Starting CAN message monitoring...\nPress [ESC] to stop\n\nLive CAN Messages:\n" + rule + "\n",
		},
		{
			mode: ModeSimulated,
			want: "SIMULATION MODE - CAN Traffic Demo\n   Realistic automotive data patterns\n   Press [ESC] to stop\n\nSimulated CAN Messages:\n" + rule + "\n",
		},
		{
			mode: ModeReplay,
			want: "Replaying captured CAN traffic...\nPress [ESC] to stop\n\nReplayed CAN Messages:\n" + rule + "\n",
		},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		NewPrinter(&buf).Running(tt.mode)
		assert.Equal(t, tt.want, buf.String())
	}
}

func TestPrinter_Stopped(t *testing.T) {
	tests := []struct {
		mode Mode
		want string
	}{
		{ModeLive, "\nMonitoring stopped by user\n"},
		{ModeSimulated, "\nDemo stopped by user\n"},
		{ModeReplay, "\nReplay stopped by user\n"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		NewPrinter(&buf).Stopped(tt.mode)
		assert.Equal(t, tt.want, buf.String())
	}
}

func TestPrinter_Fallback(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Fallback("Vector driver", errors.New("vxlapi64.dll not found"), VectorHints)

	out := buf.String()
	assert.Contains(t, out, "Failed to open Vector driver!\n")
	assert.Contains(t, out, "   vxlapi64.dll not found\n")
	assert.Contains(t, out, "Possible solutions:\n")
	assert.Contains(t, out, "   • Check if Vector hardware is connected\n")
	assert.Contains(t, out, "   • Try running as Administrator\n")
	assert.Contains(t, out, "Running in Demo Mode instead...\n")
}

func TestPrinter_BannerAndConnected(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.Banner("CAN Monitor 1.0.0")
	p.Connected("can0", 0x10)

	want := banner + "\nCAN Monitor 1.0.0\n" + banner + "\n\n" +
		"can0 connected successfully!\nFound CAN channels: 0x10\n\n"
	assert.Equal(t, want, buf.String())
}

func TestSocketCANHints(t *testing.T) {
	hints := SocketCANHints("can1")
	assert.Contains(t, hints[0], "ip link show can1")
	assert.Contains(t, hints[1], "ip link set can1 up")
}

func TestPrinter_Link(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).Link(models.LinkStats{
		Interface:   "can0",
		State:       "UP",
		MTU:         16,
		QueueLength: 10,
		Bitrate:     500000,
		SamplePoint: "87.5%",
		BusState:    "ERROR-ACTIVE",
		RXPackets:   128,
		RXBytes:     1024,
	})

	out := buf.String()
	assert.Contains(t, out, "can0: UP (mtu 16, qlen 10)\n")
	assert.Contains(t, out, "500000 bit/s, sample point 87.5%")
	assert.Contains(t, out, "ERROR-ACTIVE")
	assert.Contains(t, out, "128 packets, 1024 bytes")
}

func TestNewPrinter_ColorProfile(t *testing.T) {
	var buf bytes.Buffer

	t.Run("plain writer renders plain text", func(t *testing.T) {
		assert.Equal(t, "CAN", NewPrinter(&buf).title.Render("CAN"))
	})

	t.Run("wrapped terminal keeps its profile", func(t *testing.T) {
		p := NewPrinter(keyboard.CRLFWriter{W: &buf}, WithColorProfile(termenv.ANSI256))
		assert.Contains(t, p.title.Render("CAN"), "\x1b[")
		assert.Contains(t, p.warn.Render("CAN"), "\x1b[")
	})

	t.Run("profile taken from a non-terminal", func(t *testing.T) {
		p := NewPrinter(keyboard.CRLFWriter{W: &buf}, WithProfileOf(&buf))
		assert.Equal(t, "CAN", p.title.Render("CAN"))
	})
}
