package can

import (
	"encoding/binary"
	"fmt"

	"can-monitor/internal/models"
)

// struct can_frame as laid out by the kernel.
const (
	canFrameSize = 16

	canEFFFlag = 0x80000000
	canRTRFlag = 0x40000000
	canERRFlag = 0x20000000

	canSFFMask = 0x000007FF
	canEFFMask = 0x1FFFFFFF
)

// decodeFrame parses a raw can_frame. isError is set for controller error
// frames, which carry no bus traffic.
func decodeFrame(buf []byte) (frame models.CANFrame, isError bool, err error) {
	if len(buf) < canFrameSize {
		return models.CANFrame{}, false, fmt.Errorf("incomplete CAN frame received: %d bytes", len(buf))
	}

	raw := binary.LittleEndian.Uint32(buf[0:4])
	if raw&canERRFlag != 0 {
		return models.CANFrame{}, true, nil
	}

	if raw&canEFFFlag != 0 {
		frame.ID = raw & canEFFMask
		frame.Extended = true
	} else {
		frame.ID = raw & canSFFMask
	}

	frame.DLC = buf[4]
	if frame.DLC > models.MaxDataLen {
		frame.DLC = models.MaxDataLen
	}
	if raw&canRTRFlag == 0 {
		copy(frame.Data[:frame.DLC], buf[8:8+int(frame.DLC)])
	}
	return frame, false, nil
}

type rawFilter struct {
	id   uint32
	mask uint32
}

// kernelFilters builds exact-match CAN_RAW_FILTER entries. IDs that do not
// fit 11 bits are matched as extended frames.
func kernelFilters(ids []uint32) []rawFilter {
	filters := make([]rawFilter, 0, len(ids))
	for _, id := range ids {
		if id > canSFFMask {
			filters = append(filters, rawFilter{
				id:   id&canEFFMask | canEFFFlag,
				mask: canEFFMask | canEFFFlag | canRTRFlag,
			})
			continue
		}
		filters = append(filters, rawFilter{
			id:   id,
			mask: canSFFMask | canEFFFlag | canRTRFlag,
		})
	}
	return filters
}
