// Package libsd is the narrow seam between the journal binding and the
// sd-journal primitive set. Implementations return raw signed status
// values exactly as libsystemd does (negative means -errno, zero often
// carries first-class meaning); translating them into errors is the
// caller's job, not this package's.
//
// Implementations:
//   - dlopen-based (default on Linux, lazily loads libsystemd.so.0)
//   - statically linked (build tag "journald_link")
//   - memstore.Store (pure Go, for tests and portable experiments)
package libsd

import "errors"

// Open flags, matching the SD_JOURNAL_* constants from sd-journal.h.
const (
	LocalOnly               = 1 << 0
	RuntimeOnly             = 1 << 1
	System                  = 1 << 2
	CurrentUser             = 1 << 3
	OSRoot                  = 1 << 4
	AllNamespaces           = 1 << 5
	IncludeDefaultNamespace = 1 << 6
)

// Wakeup classifications returned by Journal.Wait, matching
// SD_JOURNAL_NOP, SD_JOURNAL_APPEND and SD_JOURNAL_INVALIDATE.
const (
	WakeupNop        = 0
	WakeupAppend     = 1
	WakeupInvalidate = 2
)

// ErrUnavailable is returned by Default on platforms without a usable
// libsystemd.
var ErrUnavailable = errors.New("libsd: libsystemd is not available on this platform")

// API is the process-level primitive set.
type API interface {
	// Open opens a cursor over the journal file set selected by flags.
	// On success the returned status is >= 0 and the Journal is valid.
	Open(flags int) (Journal, int)

	// OpenNamespace is Open restricted to a journal namespace. The
	// namespace string must not contain a NUL byte (callers validate).
	// Returns -ENOSYS when the underlying library predates namespaces.
	OpenNamespace(namespace string, flags int) (Journal, int)

	// Sendv appends one record built from the given NAME=value byte
	// strings, atomically: either every field is recorded or none.
	Sendv(fields [][]byte) int
}

// Journal is one open cursor. It is exclusive-owned: no method is safe
// for concurrent use, and Close must be called exactly once.
type Journal interface {
	// Next advances the cursor one record forward. Returns 1 on
	// advance, 0 at the end of the journal, negative on error.
	Next() int

	// Previous moves the cursor one record backward. Same convention
	// as Next.
	Previous() int

	SeekHead() int
	SeekTail() int
	SeekCursor(cursor string) int

	// Cursor returns the opaque token identifying the current record.
	Cursor() (string, int)

	// RestartData resets per-record field enumeration.
	RestartData()

	// EnumerateData yields the next raw NAME=value record of the
	// current entry. Returns 1 with data while fields remain, 0 when
	// exhausted, negative on error. The returned slice is a copy owned
	// by the caller; it never aliases store memory.
	EnumerateData() ([]byte, int)

	// RealtimeUsec returns the store-assigned wall-clock timestamp of
	// the current record, in microseconds since the epoch.
	RealtimeUsec() (uint64, int)

	// MonotonicUsec returns the monotonic timestamp of the current
	// record, in microseconds.
	MonotonicUsec() (uint64, int)

	// AddMatch registers a FIELD=value match. Matches on the same
	// field are ORed, matches on different fields are ANDed.
	AddMatch(expr []byte) int

	// Wait blocks until the journal changes or usec microseconds pass.
	// ^uint64(0) waits without bound. Returns one of the Wakeup*
	// values, or negative on error.
	Wait(usec uint64) int

	// Close releases the cursor handle.
	Close() int
}
