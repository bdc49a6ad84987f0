//go:build !(windows && amd64)

package can

func newVectorDriver() Driver {
	return unavailableDriver{reason: "the Vector XL driver library requires 64-bit Windows"}
}
