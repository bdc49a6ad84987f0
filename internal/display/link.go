package display

import (
	"fmt"

	"can-monitor/internal/models"
)

// Link prints interface details gathered by the ip command.
func (p *Printer) Link(s models.LinkStats) {
	state := p.good.Render(s.State)
	if !s.IsUp() {
		state = p.warn.Render(s.State)
	}
	p.line(fmt.Sprintf("%s: %s (mtu %d, qlen %d)", p.title.Render(s.Interface), state, s.MTU, s.QueueLength))

	if s.Bitrate > 0 {
		p.line(fmt.Sprintf("  Bitrate:     %d bit/s, sample point %s", s.Bitrate, s.SamplePoint))
	}
	if s.BusState != "" {
		p.line(fmt.Sprintf("  Bus state:   %s (tx errors %d, rx errors %d, restart-ms %d)",
			s.BusState, s.TXErrorCounter, s.RXErrorCounter, s.RestartMS))
	}
	if s.ControllerMode != "" {
		p.line(fmt.Sprintf("  Mode:        %s", s.ControllerMode))
	}
	p.line(fmt.Sprintf("  RX:          %d packets, %d bytes, %d errors, %d dropped",
		s.RXPackets, s.RXBytes, s.RXErrors, s.RXDropped))
	p.line(fmt.Sprintf("  TX:          %d packets, %d bytes, %d errors, %d dropped",
		s.TXPackets, s.TXBytes, s.TXErrors, s.TXDropped))
	if s.BusState != "" {
		p.line(fmt.Sprintf("  Bus events:  %d restarts, %d bus errors, %d arbitration lost, %d warning, %d passive, %d bus-off",
			s.BusOffRestarts, s.BusErrors, s.ArbitrationLost, s.ErrorWarning, s.ErrorPassive, s.BusOff))
	}
}
