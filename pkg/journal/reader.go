package journal

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/mbrock/go-journald/internal/libsd"
)

// Reader is an exclusive cursor over the journal. It is not safe for
// concurrent use; open independent Readers (each gets its own cursor)
// or synchronize externally.
//
// A Reader starts with an undefined position: seek or call
// NextEntry/PreviousEntry before reading. Close releases the cursor
// handle; it is idempotent and must be called exactly once per open.
type Reader struct {
	api libsd.API
	j   libsd.Journal
}

// Open opens the journal selected by config.
//
// Note that opening succeeds even when parts of the selected file set
// are unreadable: asking for the system journal without permission
// degrades to the readable subset rather than failing. That behavior
// belongs to the store; hard open failures are still reported.
func Open(config ReaderConfig) (*Reader, error) {
	api, err := libsd.Default()
	if err != nil {
		return nil, err
	}
	return openWith(api, config)
}

// OpenNamespace opens the journal restricted to the given namespace.
// The empty namespace is the default one. Namespace support requires
// systemd v245 or later.
func OpenNamespace(config ReaderConfig, namespace string) (*Reader, error) {
	api, err := libsd.Default()
	if err != nil {
		return nil, err
	}
	return openNamespaceWith(api, config, namespace)
}

func openWith(api libsd.API, config ReaderConfig) (*Reader, error) {
	j, status := api.Open(config.flags(false))
	if _, err := callResult("sd_journal_open", status); err != nil {
		return nil, err
	}
	return &Reader{api: api, j: j}, nil
}

func openNamespaceWith(api libsd.API, config ReaderConfig, namespace string) (*Reader, error) {
	if strings.IndexByte(namespace, 0) >= 0 {
		return nil, &ValidationError{Reason: "namespace contains a NUL byte"}
	}
	j, status := api.OpenNamespace(namespace, config.flags(true))
	if _, err := callResult("sd_journal_open_namespace", status); err != nil {
		return nil, err
	}
	return &Reader{api: api, j: j}, nil
}

// NextEntry advances the cursor one record forward and materializes
// it. Returns (nil, nil) when no further record exists; exhaustion is
// not an error and repeats until a seek changes position.
func (r *Reader) NextEntry() (*Entry, error) {
	if r.j == nil {
		return nil, ErrClosed
	}
	n, err := callResult("sd_journal_next", r.j.Next())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.currentEntry()
}

// PreviousEntry moves the cursor one record backward and materializes
// it. Returns (nil, nil) when no earlier record exists.
func (r *Reader) PreviousEntry() (*Entry, error) {
	if r.j == nil {
		return nil, ErrClosed
	}
	n, err := callResult("sd_journal_previous", r.j.Previous())
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return r.currentEntry()
}

// currentEntry drains every field at the cursor position into a fresh
// Entry, then overlays the store-assigned timestamps and cursor token
// from their dedicated primitives. The read is all-or-nothing: any
// failing call aborts it before an Entry escapes.
func (r *Reader) currentEntry() (*Entry, error) {
	r.j.RestartData()

	fields := make(map[string][]byte)
	for {
		data, status := r.j.EnumerateData()
		if _, err := callResult("sd_journal_enumerate_data", status); err != nil {
			return nil, err
		}
		if status == 0 {
			break
		}
		i := bytes.IndexByte(data, '=')
		if i < 0 {
			return nil, &IOError{Op: "sd_journal_enumerate_data", Errno: unix.EBADMSG}
		}
		fields[string(data[:i])] = data[i+1:]
	}

	realtime, status := r.j.RealtimeUsec()
	if _, err := callResult("sd_journal_get_realtime_usec", status); err != nil {
		return nil, err
	}
	monotonic, status := r.j.MonotonicUsec()
	if _, err := callResult("sd_journal_get_monotonic_usec", status); err != nil {
		return nil, err
	}
	cursor, status := r.j.Cursor()
	if _, err := callResult("sd_journal_get_cursor", status); err != nil {
		return nil, err
	}

	// Store-assigned values are authoritative for these three keys;
	// they never come from the enumeration loop.
	fields[FieldReceptionRealtime] = strconv.AppendUint(nil, realtime, 10)
	fields[FieldMonotonic] = strconv.AppendUint(nil, monotonic, 10)
	fields[FieldCursor] = []byte(cursor)

	return &Entry{Fields: fields}, nil
}

// Seek repositions the cursor. Seeking does not materialize a record;
// the next NextEntry or PreviousEntry reads relative to the new
// position. Seeking to Cursor(token) positions at the exact record the
// token identifies, so the following NextEntry returns that record, or
// fails if it has been pruned away.
func (r *Reader) Seek(pos SeekPos) error {
	if r.j == nil {
		return ErrClosed
	}
	switch p := pos.(type) {
	case Head:
		_, err := callResult("sd_journal_seek_head", r.j.SeekHead())
		return err
	case Tail:
		_, err := callResult("sd_journal_seek_tail", r.j.SeekTail())
		return err
	case Cursor:
		if strings.IndexByte(string(p), 0) >= 0 {
			return &ValidationError{Reason: "cursor token contains a NUL byte"}
		}
		_, err := callResult("sd_journal_seek_cursor", r.j.SeekCursor(string(p)))
		return err
	default:
		return &ValidationError{Reason: "unknown seek position"}
	}
}

// AddFilter registers a FIELD=value match narrowing all subsequent
// positional operations. Filters accumulate: repeated filters on the
// same field are ORed, filters on different fields are ANDed. They
// cannot be removed individually; discard the Reader to clear them.
func (r *Reader) AddFilter(expression string) error {
	if r.j == nil {
		return ErrClosed
	}
	i := strings.IndexByte(expression, '=')
	if i < 0 {
		return &ValidationError{Reason: "match expression must have the form FIELD=value"}
	}
	if !ValidFieldName(expression[:i]) {
		return &ValidationError{Reason: "invalid field name in match expression: " + strconv.Quote(expression[:i])}
	}
	if strings.IndexByte(expression, 0) >= 0 {
		return &ValidationError{Reason: "match expression contains a NUL byte"}
	}
	_, err := callResult("sd_journal_add_match", r.j.AddMatch([]byte(expression)))
	return err
}

// Wait blocks without bound until the journal changes. Callers that
// need cancellation should use WaitTimeout and re-check between waits.
func (r *Reader) Wait() (WakeupType, error) {
	if r.j == nil {
		return 0, ErrClosed
	}
	return r.waitUsec(^uint64(0))
}

// WaitTimeout blocks until the journal changes or the timeout elapses,
// whichever comes first. An elapsed timeout yields WakeupNop, not an
// error.
func (r *Reader) WaitTimeout(timeout time.Duration) (WakeupType, error) {
	if r.j == nil {
		return 0, ErrClosed
	}
	usec, err := durationToUsec(timeout)
	if err != nil {
		return 0, err
	}
	return r.waitUsec(usec)
}

func (r *Reader) waitUsec(usec uint64) (WakeupType, error) {
	n, err := callResult("sd_journal_wait", r.j.Wait(usec))
	if err != nil {
		return 0, err
	}
	switch t := WakeupType(n); t {
	case WakeupNop, WakeupAppend, WakeupInvalidate:
		return t, nil
	default:
		return 0, &IOError{Op: "sd_journal_wait", Errno: unix.EINVAL}
	}
}

// Close releases the cursor handle. Safe to call more than once; only
// the first call releases.
func (r *Reader) Close() error {
	if r.j == nil {
		return nil
	}
	j := r.j
	r.j = nil
	_, err := callResult("sd_journal_close", j.Close())
	return err
}
