package models

import "time"

// MaxDataLen is the payload capacity of a classical CAN frame.
const MaxDataLen = 8

// CANFrame represents a CAN 2.0 frame
type CANFrame struct {
	ID       uint32
	Extended bool
	DLC      uint8
	Data     [MaxDataLen]byte
}

// NewFrame builds a frame from a payload, truncating it to MaxDataLen bytes.
func NewFrame(id uint32, payload []byte) CANFrame {
	f := CANFrame{ID: id}
	n := copy(f.Data[:], payload)
	f.DLC = uint8(n)
	return f
}

// Len returns the declared payload length, clamped to MaxDataLen.
func (f CANFrame) Len() int {
	if f.DLC > MaxDataLen {
		return MaxDataLen
	}
	return int(f.DLC)
}

// Payload returns the bytes covered by the declared length.
// Bytes past DLC are never exposed.
func (f CANFrame) Payload() []byte {
	return f.Data[:f.Len()]
}

// CANMessage includes the CAN frame and timestamp
type CANMessage struct {
	Frame     CANFrame
	Timestamp time.Time
	Interface string
}
