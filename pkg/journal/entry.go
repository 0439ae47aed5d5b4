// Package journal reads and writes the systemd journal.
//
// A Writer submits structured entries through sd_journal_sendv (or the
// native datagram socket, see SocketWriter); a Reader owns an
// exclusive cursor over the journal and supports seeking, forward and
// backward iteration, field matching, and blocking waits for live
// tailing.
package journal

import (
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Well-known field names.
const (
	FieldMessage           = "MESSAGE"
	FieldPriority          = "PRIORITY"
	FieldSourceRealtime    = "_SOURCE_REALTIME_TIMESTAMP"
	FieldReceptionRealtime = "__REALTIME_TIMESTAMP"
	FieldMonotonic         = "__MONOTONIC_TIMESTAMP"
	FieldCursor            = "__CURSOR"
)

// Syslog priority levels for the PRIORITY field.
const (
	PriEmerg = iota
	PriAlert
	PriCrit
	PriErr
	PriWarning
	PriNotice
	PriInfo
	PriDebug
)

// Entry is one journal record: a set of named fields with arbitrary
// byte-string values. Field names are text restricted to uppercase
// letters, digits and underscore; values may be binary and are never
// decoded unless a string accessor is used.
//
// An Entry is either built by the caller and handed to a Sink, or
// materialized by a Reader. Materialized entries are snapshots: they
// share no memory with the cursor that produced them.
type Entry struct {
	Fields map[string][]byte
}

// NewEntry returns an empty entry.
func NewEntry() *Entry {
	return &Entry{Fields: map[string][]byte{}}
}

// ValidFieldName reports whether name is a legal journal field name:
// non-empty, uppercase letters, digits and underscore only, not
// starting with a digit.
func ValidFieldName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c == '_':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Set stores a binary field value. The slice is copied.
func (e *Entry) Set(name string, value []byte) {
	if e.Fields == nil {
		e.Fields = map[string][]byte{}
	}
	e.Fields[name] = append([]byte(nil), value...)
}

// SetString stores a text field value.
func (e *Entry) SetString(name, value string) {
	if e.Fields == nil {
		e.Fields = map[string][]byte{}
	}
	e.Fields[name] = []byte(value)
}

// Field returns the raw value of a field.
func (e *Entry) Field(name string) ([]byte, bool) {
	v, ok := e.Fields[name]
	return v, ok
}

// FieldString returns a field value as text. Invalid UTF-8 is replaced
// with U+FFFD rather than dropped.
func (e *Entry) FieldString(name string) (string, bool) {
	v, ok := e.Fields[name]
	if !ok {
		return "", false
	}
	return strings.ToValidUTF8(string(v), "�"), true
}

// Names returns all field names in canonical (lexicographic) order.
func (e *Entry) Names() []string {
	return slices.Sorted(maps.Keys(e.Fields))
}

// Message returns the MESSAGE field as text.
func (e *Entry) Message() (string, bool) {
	return e.FieldString(FieldMessage)
}

// SetMessage sets the MESSAGE field.
func (e *Entry) SetMessage(msg string) {
	e.SetString(FieldMessage, msg)
}

// Cursor returns the store-assigned cursor token of a materialized
// entry. The token is opaque; it is safe to persist and replay through
// Seek(Cursor(token)).
func (e *Entry) Cursor() (string, bool) {
	return e.FieldString(FieldCursor)
}

// WallclockTime returns the entry's wall-clock time, preferring the
// producer-supplied _SOURCE_REALTIME_TIMESTAMP over the store-assigned
// reception time.
func (e *Entry) WallclockTime() (time.Time, bool) {
	if t, ok := e.SourceWallclockTime(); ok {
		return t, true
	}
	return e.ReceptionWallclockTime()
}

// SourceWallclockTime returns the producer-supplied wall-clock time,
// if the producing process set one.
func (e *Entry) SourceWallclockTime() (time.Time, bool) {
	return e.timeField(FieldSourceRealtime)
}

// ReceptionWallclockTime returns the wall-clock time assigned by the
// store at append time.
func (e *Entry) ReceptionWallclockTime() (time.Time, bool) {
	return e.timeField(FieldReceptionRealtime)
}

func (e *Entry) timeField(name string) (time.Time, bool) {
	s, ok := e.FieldString(name)
	if !ok {
		return time.Time{}, false
	}
	usec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMicro(usec), true
}

// MonotonicTime returns the entry's monotonic timestamp as an offset
// since boot. Offsets are not comparable across reboots.
func (e *Entry) MonotonicTime() (time.Duration, bool) {
	s, ok := e.FieldString(FieldMonotonic)
	if !ok {
		return 0, false
	}
	usec, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(usec) * time.Microsecond, true
}
