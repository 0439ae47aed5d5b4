package journal

import (
	"strconv"

	"github.com/mbrock/go-journald/internal/libsd"
)

// Sink is the write-only seam for submitting entries. Implementations
// are Writer (sd_journal_sendv) and SocketWriter (native datagram
// protocol); adapters such as the slog handler depend only on this.
type Sink interface {
	// Submit appends one entry as a single atomic record.
	Submit(e *Entry) error

	// Close releases any resources.
	Close() error
}

// Writer submits entries through the sendv append primitive. It has no
// mutable state and is safe for concurrent use.
type Writer struct {
	api libsd.API
}

var _ Sink = (*Writer)(nil)

// NewWriter returns a Writer over the default libsystemd backend.
func NewWriter() (*Writer, error) {
	api, err := libsd.Default()
	if err != nil {
		return nil, err
	}
	return &Writer{api: api}, nil
}

// Submit validates every field name, serializes the entry and hands it
// to the append primitive as one atomic submission: either all fields
// are recorded as a single record, or none are. Validation failures
// happen before any I/O.
func (w *Writer) Submit(e *Entry) error {
	fields, err := marshalFields(e)
	if err != nil {
		return err
	}
	_, err = callResult("sd_journal_sendv", w.api.Sendv(fields))
	return err
}

// Close is a no-op; the sendv primitive holds no per-writer state.
func (w *Writer) Close() error {
	return nil
}

// Submit appends one entry through the default backend.
func Submit(e *Entry) error {
	w, err := NewWriter()
	if err != nil {
		return err
	}
	return w.Submit(e)
}

// Print appends a simple message at the given syslog priority.
func Print(priority int, message string) error {
	e := NewEntry()
	e.SetString(FieldPriority, strconv.Itoa(priority))
	e.SetMessage(message)
	return Submit(e)
}

// marshalFields serializes an entry as NAME=value byte strings in
// canonical field order. Values are raw bytes; no escaping is needed
// since framing is length-prefixed at the transport level.
func marshalFields(e *Entry) ([][]byte, error) {
	names := e.Names()
	if len(names) == 0 {
		return nil, &ValidationError{Reason: "entry has no fields"}
	}
	fields := make([][]byte, 0, len(names))
	for _, name := range names {
		if !ValidFieldName(name) {
			return nil, &ValidationError{Reason: "invalid field name: " + strconv.Quote(name)}
		}
		value := e.Fields[name]
		data := make([]byte, 0, len(name)+1+len(value))
		data = append(data, name...)
		data = append(data, '=')
		data = append(data, value...)
		fields = append(fields, data)
	}
	return fields, nil
}
