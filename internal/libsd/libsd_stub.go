//go:build !linux || !cgo

package libsd

// Default reports libsystemd as unavailable. Reading and sendv-based
// writing need Linux with cgo; the socket-based writer and the
// in-memory store work everywhere.
func Default() (API, error) {
	return nil, ErrUnavailable
}
