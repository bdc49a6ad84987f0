package can

import "can-monitor/internal/models"

// XL Driver Library constants used by the Vector binding.
const (
	xlSuccess         = 0
	xlErrQueueIsEmpty = 10

	xlInterfaceVersion = 3
	xlBusTypeCAN       = 1
	xlActivateReset    = 8
	xlReceiveMsg       = 1
	xlRxQueueSize      = 256

	xlCANExtMsgID       = 0x80000000
	xlCANMsgErrorFrame  = 0x01
	xlCANMsgRemoteFrame = 0x10
	xlCANMsgTxCompleted = 0x40
)

// xlCANMsg mirrors s_xl_can_msg.
type xlCANMsg struct {
	ID    uint32
	Flags uint16
	DLC   uint16
	Res1  uint64
	Data  [8]byte
	Res2  uint64
}

// xlEvent mirrors the 48 byte XLevent with a CAN payload.
type xlEvent struct {
	Tag        uint8
	ChanIndex  uint8
	TransID    uint16
	PortHandle uint16
	Flags      uint8
	Reserved   uint8
	TimeStamp  uint64
	Msg        xlCANMsg
}

// decodeXLEvent converts a received event to a frame. Events other than
// received bus traffic yield ok == false.
func decodeXLEvent(ev xlEvent) (models.CANFrame, bool) {
	if ev.Tag != xlReceiveMsg {
		return models.CANFrame{}, false
	}
	if ev.Msg.Flags&(xlCANMsgErrorFrame|xlCANMsgTxCompleted) != 0 {
		return models.CANFrame{}, false
	}

	frame := models.CANFrame{ID: ev.Msg.ID &^ xlCANExtMsgID}
	if ev.Msg.ID&xlCANExtMsgID != 0 {
		frame.Extended = true
		frame.ID &= canEFFMask
	}

	dlc := ev.Msg.DLC
	if dlc > models.MaxDataLen {
		dlc = models.MaxDataLen
	}
	frame.DLC = uint8(dlc)
	if ev.Msg.Flags&xlCANMsgRemoteFrame == 0 {
		copy(frame.Data[:dlc], ev.Msg.Data[:dlc])
	}
	return frame, true
}
