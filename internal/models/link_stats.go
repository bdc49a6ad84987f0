package models

import "time"

// LinkStats represents details of a SocketCAN interface as reported by iproute2
type LinkStats struct {
	Interface string    `json:"interface"`
	Timestamp time.Time `json:"timestamp"`

	// Interface state
	State       string `json:"state"`        // UP, DOWN
	MTU         int    `json:"mtu"`          // 16 for CAN, 72 for CAN FD
	QueueLength int    `json:"queue_length"` // TX queue length

	// CAN controller
	Bitrate        int    `json:"bitrate"`         // Bitrate in bps
	SamplePoint    string `json:"sample_point"`    // e.g. "87.5%"
	ControllerMode string `json:"controller_mode"` // LOOPBACK, LISTEN-ONLY
	BusState       string `json:"bus_state"`       // ERROR-ACTIVE, ERROR-PASSIVE, BUS-OFF
	RestartMS      int    `json:"restart_ms"`
	RXErrorCounter int    `json:"rx_error_counter"`
	TXErrorCounter int    `json:"tx_error_counter"`

	// Packet counters
	RXPackets uint64 `json:"rx_packets"`
	RXBytes   uint64 `json:"rx_bytes"`
	RXErrors  uint64 `json:"rx_errors"`
	RXDropped uint64 `json:"rx_dropped"`
	TXPackets uint64 `json:"tx_packets"`
	TXBytes   uint64 `json:"tx_bytes"`
	TXErrors  uint64 `json:"tx_errors"`
	TXDropped uint64 `json:"tx_dropped"`

	// CAN state transitions
	BusOffRestarts  uint64 `json:"bus_off_restarts"`
	BusErrors       uint64 `json:"bus_errors"`
	ArbitrationLost uint64 `json:"arbitration_lost"`
	ErrorWarning    uint64 `json:"error_warning"`
	ErrorPassive    uint64 `json:"error_passive"`
	BusOff          uint64 `json:"bus_off"`
}

// IsUp reports whether the link is administratively up.
func (s LinkStats) IsUp() bool {
	return s.State == "UP"
}
