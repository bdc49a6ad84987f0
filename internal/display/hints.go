package display

import "fmt"

// VectorHints are shown when the Vector XL driver cannot be used.
var VectorHints = []string{
	"Check if Vector hardware is connected",
	"Try running as Administrator",
	"Install Vector CANoe/CANalyzer for full driver support",
	"Make sure vxlapi64.dll is in system PATH",
}

// SocketCANHints are shown when a SocketCAN interface cannot be used.
func SocketCANHints(iface string) []string {
	return []string{
		fmt.Sprintf("Check that the interface exists: ip link show %s", iface),
		fmt.Sprintf("Bring it up: sudo ip link set %s up type can bitrate 500000", iface),
		"For a virtual bus: sudo ip link add dev vcan0 type vcan && sudo ip link set vcan0 up",
	}
}
