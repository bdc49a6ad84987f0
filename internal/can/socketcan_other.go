//go:build !linux

package can

func newSocketCANDriver(string, []uint32) Driver {
	return unavailableDriver{reason: "SocketCAN is only available on Linux"}
}
