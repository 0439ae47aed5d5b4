//go:build linux && cgo && journald_link

package libsd

// Statically linked backend: direct calls against libsystemd selected
// with the "journald_link" build tag. Requires libsystemd headers and
// library at build time (>= v245 for namespace support).

/*
#cgo pkg-config: libsystemd
#include <stdlib.h>
#include <stdint.h>
#include <sys/uio.h>
#include <systemd/sd-journal.h>
*/
import "C"

import "unsafe"

// Default returns the statically linked libsystemd backend.
func Default() (API, error) {
	return linkedAPI{}, nil
}

type linkedAPI struct{}

var _ API = linkedAPI{}

func (linkedAPI) Open(flags int) (Journal, int) {
	var j *C.sd_journal
	r := int(C.sd_journal_open(&j, C.int(flags)))
	if r < 0 {
		return nil, r
	}
	return &linkedJournal{j: j}, r
}

func (linkedAPI) OpenNamespace(namespace string, flags int) (Journal, int) {
	cns := C.CString(namespace)
	defer C.free(unsafe.Pointer(cns))
	var j *C.sd_journal
	r := int(C.sd_journal_open_namespace(&j, cns, C.int(flags)))
	if r < 0 {
		return nil, r
	}
	return &linkedJournal{j: j}, r
}

func (linkedAPI) Sendv(fields [][]byte) int {
	iov := make([]C.struct_iovec, len(fields))
	ptrs := make([]unsafe.Pointer, len(fields))
	for i, f := range fields {
		ptrs[i] = C.CBytes(f)
		iov[i].iov_base = ptrs[i]
		iov[i].iov_len = C.size_t(len(f))
	}
	r := int(C.sd_journal_sendv(&iov[0], C.int(len(iov))))
	for _, p := range ptrs {
		C.free(p)
	}
	return r
}

type linkedJournal struct {
	j *C.sd_journal
}

var _ Journal = (*linkedJournal)(nil)

func (l *linkedJournal) Next() int     { return int(C.sd_journal_next(l.j)) }
func (l *linkedJournal) Previous() int { return int(C.sd_journal_previous(l.j)) }
func (l *linkedJournal) SeekHead() int { return int(C.sd_journal_seek_head(l.j)) }
func (l *linkedJournal) SeekTail() int { return int(C.sd_journal_seek_tail(l.j)) }

func (l *linkedJournal) SeekCursor(cursor string) int {
	ccur := C.CString(cursor)
	defer C.free(unsafe.Pointer(ccur))
	return int(C.sd_journal_seek_cursor(l.j, ccur))
}

func (l *linkedJournal) Cursor() (string, int) {
	var c *C.char
	r := int(C.sd_journal_get_cursor(l.j, &c))
	if r < 0 {
		return "", r
	}
	cursor := C.GoString(c)
	C.free(unsafe.Pointer(c))
	return cursor, r
}

func (l *linkedJournal) RestartData() {
	C.sd_journal_restart_data(l.j)
}

func (l *linkedJournal) EnumerateData() ([]byte, int) {
	var data unsafe.Pointer
	var length C.size_t
	r := int(C.sd_journal_enumerate_data(l.j, &data, &length))
	if r <= 0 {
		return nil, r
	}
	return C.GoBytes(data, C.int(length)), r
}

func (l *linkedJournal) RealtimeUsec() (uint64, int) {
	var usec C.uint64_t
	r := int(C.sd_journal_get_realtime_usec(l.j, &usec))
	return uint64(usec), r
}

func (l *linkedJournal) MonotonicUsec() (uint64, int) {
	var usec C.uint64_t
	r := int(C.sd_journal_get_monotonic_usec(l.j, &usec, nil))
	return uint64(usec), r
}

func (l *linkedJournal) AddMatch(expr []byte) int {
	data := C.CBytes(expr)
	defer C.free(data)
	return int(C.sd_journal_add_match(l.j, data, C.size_t(len(expr))))
}

func (l *linkedJournal) Wait(usec uint64) int {
	return int(C.sd_journal_wait(l.j, C.uint64_t(usec)))
}

func (l *linkedJournal) Close() int {
	C.sd_journal_close(l.j)
	l.j = nil
	return 0
}
