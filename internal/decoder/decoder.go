// Package decoder interprets the handful of CAN identifiers the monitor knows
// about. Decoding is pure: the same frame always yields the same Reading and
// nothing past the declared payload length is ever read.
package decoder

import (
	"fmt"

	"can-monitor/internal/models"
)

// Kind identifies the variant of a Reading.
type Kind int

const (
	KindUnrecognized Kind = iota
	KindEngine
	KindBattery
	KindVehicleStatus
	KindDiagnostic
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindEngine:
		return "engine"
	case KindBattery:
		return "battery"
	case KindVehicleStatus:
		return "vehicle-status"
	case KindDiagnostic:
		return "diagnostic"
	default:
		return "unrecognized"
	}
}

// Reading is the interpretation of a single frame.
type Reading interface {
	Kind() Kind
	// Describe returns the human readable interpretation, or "" when there
	// is nothing to say about the frame.
	Describe() string
}

// EngineReading carries the engine control unit values.
type EngineReading struct {
	TemperatureC int
	RPM          int
	SpeedKmh     int
}

func (EngineReading) Kind() Kind { return KindEngine }

func (r EngineReading) Describe() string {
	return fmt.Sprintf("Engine: ~%d RPM, Temp: ~%d°C, Speed: ~%d km/h", r.RPM, r.TemperatureC, r.SpeedKmh)
}

// BatteryReading carries the battery management values.
type BatteryReading struct {
	Voltage          float64
	CurrentA         int
	StateOfChargePct int
}

func (BatteryReading) Kind() Kind { return KindBattery }

func (r BatteryReading) Describe() string {
	return fmt.Sprintf("Battery: %.1fV, Current: %dA, SoC: %d%%", r.Voltage, r.CurrentA, r.StateOfChargePct)
}

// VehicleStatus marks a transmission frame. Its payload is not decoded.
type VehicleStatus struct{}

func (VehicleStatus) Kind() Kind { return KindVehicleStatus }

func (VehicleStatus) Describe() string { return "Vehicle Status Message" }

// DiagnosticMessage marks a frame in the diagnostic identifier range.
type DiagnosticMessage struct {
	ID uint32
}

func (DiagnosticMessage) Kind() Kind { return KindDiagnostic }

func (DiagnosticMessage) Describe() string { return "Diagnostic Message" }

// Unrecognized is returned for everything else.
type Unrecognized struct {
	ID uint32
}

func (Unrecognized) Kind() Kind { return KindUnrecognized }

func (Unrecognized) Describe() string { return "" }

// rule decodes a payload for one identifier. ok is false when the payload is
// too short for the rule.
type rule func(payload []byte) (r Reading, ok bool)

var rules = map[uint32]rule{
	EngineID:       decodeEngine,
	BatteryID:      decodeBattery,
	TransmissionID: decodeTransmission,
}

// rpmScale converts the raw 16-bit RPM field to revolutions per minute.
const rpmScale = 4

// Decode interprets frame. It never fails.
func Decode(frame models.CANFrame) Reading {
	payload := frame.Payload()

	if fn, ok := rules[frame.ID]; ok {
		if r, ok := fn(payload); ok {
			return r
		}
		return Unrecognized{ID: frame.ID}
	}

	if frame.ID >= DiagnosticMinimum {
		return DiagnosticMessage{ID: frame.ID}
	}
	return Unrecognized{ID: frame.ID}
}

func decodeEngine(p []byte) (Reading, bool) {
	if len(p) < 4 {
		return nil, false
	}
	raw := int(p[2])<<8 | int(p[1])
	return EngineReading{
		TemperatureC: int(p[0]),
		RPM:          raw * rpmScale,
		SpeedKmh:     int(p[3]),
	}, true
}

func decodeBattery(p []byte) (Reading, bool) {
	if len(p) < 3 {
		return nil, false
	}
	return BatteryReading{
		Voltage:          float64(p[0]) / 10.0,
		CurrentA:         int(p[1]),
		StateOfChargePct: int(p[2]),
	}, true
}

func decodeTransmission([]byte) (Reading, bool) {
	return VehicleStatus{}, true
}
