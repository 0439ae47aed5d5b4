package journal

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// ErrClosed is returned by positional operations on a closed Reader.
var ErrClosed = errors.New("journal: reader is closed")

// ValidationError reports caller-supplied data that violates a local
// precondition (invalid field name, embedded NUL, malformed match
// expression). It is raised before any I/O is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "journal: " + e.Reason
}

// IOError reports a negative status from an sd-journal primitive. Op
// names the primitive; Errno is the negated status. It unwraps to the
// Errno, so errors.Is(err, unix.ENOENT) works.
type IOError struct {
	Op    string
	Errno unix.Errno
}

func (e *IOError) Error() string {
	return fmt.Sprintf("journal: %s: %v", e.Op, e.Errno)
}

func (e *IOError) Unwrap() error {
	return e.Errno
}

// OverflowError reports a duration that cannot be represented as an
// unsigned microsecond count.
type OverflowError struct {
	Value time.Duration
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("journal: duration %v is not representable in microseconds", e.Value)
}

// callResult translates a primitive's signed status: negative becomes
// an IOError carrying the negated errno, non-negative passes through.
func callResult(op string, status int) (int, error) {
	if status < 0 {
		return 0, &IOError{Op: op, Errno: unix.Errno(-status)}
	}
	return status, nil
}

// durationToUsec converts a wait timeout to microseconds, rejecting
// values outside the unsigned 64-bit range.
func durationToUsec(d time.Duration) (uint64, error) {
	usec := d.Microseconds()
	if usec < 0 {
		return 0, &OverflowError{Value: d}
	}
	return uint64(usec), nil
}
