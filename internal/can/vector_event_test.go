package can

import (
	"testing"
	"unsafe"

	"can-monitor/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestXLEventLayout(t *testing.T) {
	assert.Equal(t, uintptr(48), unsafe.Sizeof(xlEvent{}))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(xlEvent{}.Msg))
	assert.Equal(t, uintptr(16), unsafe.Offsetof(xlCANMsg{}.Data))
}

func TestDecodeXLEvent(t *testing.T) {
	msg := func(id uint32, flags, dlc uint16, data ...byte) xlEvent {
		ev := xlEvent{Tag: xlReceiveMsg, Msg: xlCANMsg{ID: id, Flags: flags, DLC: dlc}}
		copy(ev.Msg.Data[:], data)
		return ev
	}

	tests := []struct {
		name   string
		event  xlEvent
		want   models.CANFrame
		wantOK bool
	}{
		{
			name:   "standard",
			event:  msg(0x456, 0, 3, 130, 50, 85, 0xFF),
			want:   models.NewFrame(0x456, []byte{130, 50, 85}),
			wantOK: true,
		},
		{
			name:   "extended",
			event:  msg(0x18DAF110|xlCANExtMsgID, 0, 1, 7),
			want:   models.CANFrame{ID: 0x18DAF110, Extended: true, DLC: 1, Data: [8]byte{7}},
			wantOK: true,
		},
		{
			name:   "remote",
			event:  msg(0x100, xlCANMsgRemoteFrame, 2, 1, 2),
			want:   models.CANFrame{ID: 0x100, DLC: 2},
			wantOK: true,
		},
		{
			name:   "dlc clamped",
			event:  msg(0x100, 0, 12, 1, 2, 3, 4, 5, 6, 7, 8),
			want:   models.NewFrame(0x100, []byte{1, 2, 3, 4, 5, 6, 7, 8}),
			wantOK: true,
		},
		{name: "error frame", event: msg(0x100, xlCANMsgErrorFrame, 0)},
		{name: "tx confirmation", event: msg(0x100, xlCANMsgTxCompleted, 1, 1)},
		{name: "other tag", event: xlEvent{Tag: 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeXLEvent(tt.event)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
