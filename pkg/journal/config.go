package journal

import "github.com/mbrock/go-journald/internal/libsd"

// JournalFiles selects which journal file set a Reader attaches to.
type JournalFiles int

const (
	// FilesAll reads both the system journal and the current user's.
	FilesAll JournalFiles = iota
	// FilesSystem reads the system-wide journal only.
	FilesSystem
	// FilesCurrentUser reads the current user's journal only.
	FilesCurrentUser
)

// ReaderConfig selects the journal file set and open-time
// restrictions. The zero value reads everything. Configuration is
// fixed for the lifetime of the Reader.
type ReaderConfig struct {
	Files JournalFiles

	// OnlyVolatile restricts to journal files on volatile storage,
	// excluding those on persistent storage.
	OnlyVolatile bool

	// OnlyLocal restricts to journal files generated on the local
	// machine.
	OnlyLocal bool

	// AllNamespaces reads from all namespaces. Only applicable with
	// OpenNamespace.
	AllNamespaces bool

	// IncludeDefaultNamespace reads the default namespace in addition
	// to the specified one. Only applicable with OpenNamespace.
	IncludeDefaultNamespace bool
}

// flags computes the SD_JOURNAL_* open bitmask. Namespace bits are
// included only when asked for, since sd_journal_open rejects them.
func (c ReaderConfig) flags(namespaced bool) int {
	var flags int
	if c.OnlyVolatile {
		flags |= libsd.RuntimeOnly
	}
	if c.OnlyLocal {
		flags |= libsd.LocalOnly
	}
	switch c.Files {
	case FilesSystem:
		flags |= libsd.System
	case FilesCurrentUser:
		flags |= libsd.CurrentUser
	}
	if namespaced {
		if c.AllNamespaces {
			flags |= libsd.AllNamespaces
		}
		if c.IncludeDefaultNamespace {
			flags |= libsd.IncludeDefaultNamespace
		}
	}
	return flags
}

// SeekPos is a seek target: Head, Tail, or Cursor.
type SeekPos interface {
	seekPos()
}

// Head positions the cursor before the first record; the next forward
// read yields the first record.
type Head struct{}

// Tail positions the cursor after the last record; the next backward
// read yields the last record.
type Tail struct{}

// Cursor positions the cursor at the exact record identified by a
// previously obtained cursor token; the next forward read yields that
// record.
type Cursor string

func (Head) seekPos()   {}
func (Tail) seekPos()   {}
func (Cursor) seekPos() {}

// WakeupType classifies why a blocking wait returned.
type WakeupType int

const (
	// WakeupNop: the timeout elapsed with no journal change.
	WakeupNop WakeupType = libsd.WakeupNop
	// WakeupAppend: new records were appended.
	WakeupAppend WakeupType = libsd.WakeupAppend
	// WakeupInvalidate: journal files were added, removed or rotated;
	// the view must be re-read. Invalidation alone carries no record.
	WakeupInvalidate WakeupType = libsd.WakeupInvalidate
)

func (t WakeupType) String() string {
	switch t {
	case WakeupNop:
		return "nop"
	case WakeupAppend:
		return "append"
	case WakeupInvalidate:
		return "invalidate"
	default:
		return "unknown"
	}
}
