// Package capture records frames to a file as a sequence of CBOR items and
// reads them back for replay.
package capture

import (
	"time"

	"can-monitor/internal/models"
)

// Record is one captured frame.
type Record struct {
	TimestampNs int64  `cbor:"1,keyasint"`
	Interface   string `cbor:"2,keyasint,omitempty"`
	ID          uint32 `cbor:"3,keyasint"`
	Extended    bool   `cbor:"4,keyasint,omitempty"`
	DLC         uint8  `cbor:"5,keyasint"`
	Data        []byte `cbor:"6,keyasint,omitempty"`
}

// NewRecord captures msg. Only the bytes covered by DLC are stored.
func NewRecord(msg models.CANMessage) Record {
	return Record{
		TimestampNs: msg.Timestamp.UnixNano(),
		Interface:   msg.Interface,
		ID:          msg.Frame.ID,
		Extended:    msg.Frame.Extended,
		DLC:         uint8(msg.Frame.Len()),
		Data:        append([]byte(nil), msg.Frame.Payload()...),
	}
}

// Message converts the record back to a message.
func (r Record) Message() models.CANMessage {
	frame := models.NewFrame(r.ID, r.Data)
	frame.Extended = r.Extended
	if r.DLC < frame.DLC {
		frame.DLC = r.DLC
		for i := frame.Len(); i < models.MaxDataLen; i++ {
			frame.Data[i] = 0
		}
	}
	return models.CANMessage{
		Frame:     frame,
		Timestamp: time.Unix(0, r.TimestampNs),
		Interface: r.Interface,
	}
}
