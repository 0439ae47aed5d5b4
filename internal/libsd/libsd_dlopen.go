//go:build linux && cgo && !journald_link

package libsd

// The default backend loads libsystemd.so.0 at runtime, the same way
// coreos/go-systemd binds sd-journal. The library handle is acquired
// once per process and the result, success or failure, is cached;
// symbol addresses are resolved lazily and cached per name. This keeps
// the binary free of a hard libsystemd link dependency.

/*
#cgo LDFLAGS: -ldl
#include <stdlib.h>
#include <stdint.h>
#include <string.h>
#include <sys/uio.h>
#include <systemd/sd-journal.h>

int
go_sd_journal_open(void *f, sd_journal **ret, int flags)
{
	int (*fn)(sd_journal **, int) = f;
	return fn(ret, flags);
}

int
go_sd_journal_open_namespace(void *f, sd_journal **ret, const char *ns, int flags)
{
	int (*fn)(sd_journal **, const char *, int) = f;
	return fn(ret, ns, flags);
}

void
go_sd_journal_close(void *f, sd_journal *j)
{
	void (*fn)(sd_journal *) = f;
	fn(j);
}

int
go_sd_journal_next(void *f, sd_journal *j)
{
	int (*fn)(sd_journal *) = f;
	return fn(j);
}

int
go_sd_journal_previous(void *f, sd_journal *j)
{
	int (*fn)(sd_journal *) = f;
	return fn(j);
}

int
go_sd_journal_seek_head(void *f, sd_journal *j)
{
	int (*fn)(sd_journal *) = f;
	return fn(j);
}

int
go_sd_journal_seek_tail(void *f, sd_journal *j)
{
	int (*fn)(sd_journal *) = f;
	return fn(j);
}

int
go_sd_journal_seek_cursor(void *f, sd_journal *j, const char *cursor)
{
	int (*fn)(sd_journal *, const char *) = f;
	return fn(j, cursor);
}

int
go_sd_journal_get_cursor(void *f, sd_journal *j, char **cursor)
{
	int (*fn)(sd_journal *, char **) = f;
	return fn(j, cursor);
}

void
go_sd_journal_restart_data(void *f, sd_journal *j)
{
	void (*fn)(sd_journal *) = f;
	fn(j);
}

int
go_sd_journal_enumerate_data(void *f, sd_journal *j, const void **data, size_t *length)
{
	int (*fn)(sd_journal *, const void **, size_t *) = f;
	return fn(j, data, length);
}

int
go_sd_journal_get_realtime_usec(void *f, sd_journal *j, uint64_t *usec)
{
	int (*fn)(sd_journal *, uint64_t *) = f;
	return fn(j, usec);
}

int
go_sd_journal_get_monotonic_usec(void *f, sd_journal *j, uint64_t *usec, sd_id128_t *boot_id)
{
	int (*fn)(sd_journal *, uint64_t *, sd_id128_t *) = f;
	return fn(j, usec, boot_id);
}

int
go_sd_journal_add_match(void *f, sd_journal *j, const void *data, size_t size)
{
	int (*fn)(sd_journal *, const void *, size_t) = f;
	return fn(j, data, size);
}

int
go_sd_journal_wait(void *f, sd_journal *j, uint64_t timeout_usec)
{
	int (*fn)(sd_journal *, uint64_t) = f;
	return fn(j, timeout_usec);
}

int
go_sd_journal_sendv(void *f, const struct iovec *iov, int n)
{
	int (*fn)(const struct iovec *, int) = f;
	return fn(iov, n);
}
*/
import "C"

import (
	"sync"
	"syscall"
	"unsafe"

	"github.com/coreos/pkg/dlopen"
)

var libNames = []string{"libsystemd.so.0", "libsystemd.so"}

// defaultAPI yields the process-wide dlopen backend. A failed load is
// cached; there is no retry.
var defaultAPI = sync.OnceValues(func() (API, error) {
	lib, err := dlopen.GetHandle(libNames)
	if err != nil {
		return nil, err
	}
	return &dlAPI{lib: lib, syms: map[string]unsafe.Pointer{}}, nil
})

// Default returns the dynamically loaded libsystemd backend.
func Default() (API, error) {
	return defaultAPI()
}

type dlAPI struct {
	lib *dlopen.LibHandle

	mu   sync.Mutex
	syms map[string]unsafe.Pointer
}

var _ API = (*dlAPI)(nil)

// symbol resolves name through the shared library, caching the address.
// Missing symbols (older libsystemd) report as -ENOSYS via the second
// return.
func (a *dlAPI) symbol(name string) (unsafe.Pointer, int) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p, ok := a.syms[name]; ok {
		return p, 0
	}
	p, err := a.lib.GetSymbolPointer(name)
	if err != nil {
		return nil, -int(syscall.ENOSYS)
	}
	a.syms[name] = p
	return p, 0
}

func (a *dlAPI) Open(flags int) (Journal, int) {
	sym, status := a.symbol("sd_journal_open")
	if status < 0 {
		return nil, status
	}
	var j *C.sd_journal
	r := int(C.go_sd_journal_open(sym, &j, C.int(flags)))
	if r < 0 {
		return nil, r
	}
	return &dlJournal{api: a, j: j}, r
}

func (a *dlAPI) OpenNamespace(namespace string, flags int) (Journal, int) {
	sym, status := a.symbol("sd_journal_open_namespace")
	if status < 0 {
		return nil, status
	}
	cns := C.CString(namespace)
	defer C.free(unsafe.Pointer(cns))
	var j *C.sd_journal
	r := int(C.go_sd_journal_open_namespace(sym, &j, cns, C.int(flags)))
	if r < 0 {
		return nil, r
	}
	return &dlJournal{api: a, j: j}, r
}

func (a *dlAPI) Sendv(fields [][]byte) int {
	sym, status := a.symbol("sd_journal_sendv")
	if status < 0 {
		return status
	}
	iov := make([]C.struct_iovec, len(fields))
	ptrs := make([]unsafe.Pointer, len(fields))
	for i, f := range fields {
		ptrs[i] = C.CBytes(f)
		iov[i].iov_base = ptrs[i]
		iov[i].iov_len = C.size_t(len(f))
	}
	r := int(C.go_sd_journal_sendv(sym, &iov[0], C.int(len(iov))))
	for _, p := range ptrs {
		C.free(p)
	}
	return r
}

type dlJournal struct {
	api *dlAPI
	j   *C.sd_journal
}

var _ Journal = (*dlJournal)(nil)

// call1 invokes an int(sd_journal*) primitive by symbol name.
func (d *dlJournal) call1(name string, fn func(unsafe.Pointer) C.int) int {
	sym, status := d.api.symbol(name)
	if status < 0 {
		return status
	}
	return int(fn(sym))
}

func (d *dlJournal) Next() int {
	return d.call1("sd_journal_next", func(sym unsafe.Pointer) C.int {
		return C.go_sd_journal_next(sym, d.j)
	})
}

func (d *dlJournal) Previous() int {
	return d.call1("sd_journal_previous", func(sym unsafe.Pointer) C.int {
		return C.go_sd_journal_previous(sym, d.j)
	})
}

func (d *dlJournal) SeekHead() int {
	return d.call1("sd_journal_seek_head", func(sym unsafe.Pointer) C.int {
		return C.go_sd_journal_seek_head(sym, d.j)
	})
}

func (d *dlJournal) SeekTail() int {
	return d.call1("sd_journal_seek_tail", func(sym unsafe.Pointer) C.int {
		return C.go_sd_journal_seek_tail(sym, d.j)
	})
}

func (d *dlJournal) SeekCursor(cursor string) int {
	sym, status := d.api.symbol("sd_journal_seek_cursor")
	if status < 0 {
		return status
	}
	ccur := C.CString(cursor)
	defer C.free(unsafe.Pointer(ccur))
	return int(C.go_sd_journal_seek_cursor(sym, d.j, ccur))
}

func (d *dlJournal) Cursor() (string, int) {
	sym, status := d.api.symbol("sd_journal_get_cursor")
	if status < 0 {
		return "", status
	}
	var c *C.char
	r := int(C.go_sd_journal_get_cursor(sym, d.j, &c))
	if r < 0 {
		return "", r
	}
	cursor := C.GoString(c)
	C.free(unsafe.Pointer(c))
	return cursor, r
}

func (d *dlJournal) RestartData() {
	sym, status := d.api.symbol("sd_journal_restart_data")
	if status < 0 {
		return
	}
	C.go_sd_journal_restart_data(sym, d.j)
}

func (d *dlJournal) EnumerateData() ([]byte, int) {
	sym, status := d.api.symbol("sd_journal_enumerate_data")
	if status < 0 {
		return nil, status
	}
	var data unsafe.Pointer
	var length C.size_t
	r := int(C.go_sd_journal_enumerate_data(sym, d.j, &data, &length))
	if r <= 0 {
		return nil, r
	}
	// Copy out of libsystemd's buffer; it is only valid until the next
	// cursor operation.
	return C.GoBytes(data, C.int(length)), r
}

func (d *dlJournal) RealtimeUsec() (uint64, int) {
	sym, status := d.api.symbol("sd_journal_get_realtime_usec")
	if status < 0 {
		return 0, status
	}
	var usec C.uint64_t
	r := int(C.go_sd_journal_get_realtime_usec(sym, d.j, &usec))
	return uint64(usec), r
}

func (d *dlJournal) MonotonicUsec() (uint64, int) {
	sym, status := d.api.symbol("sd_journal_get_monotonic_usec")
	if status < 0 {
		return 0, status
	}
	var usec C.uint64_t
	r := int(C.go_sd_journal_get_monotonic_usec(sym, d.j, &usec, nil))
	return uint64(usec), r
}

func (d *dlJournal) AddMatch(expr []byte) int {
	sym, status := d.api.symbol("sd_journal_add_match")
	if status < 0 {
		return status
	}
	data := C.CBytes(expr)
	defer C.free(data)
	return int(C.go_sd_journal_add_match(sym, d.j, data, C.size_t(len(expr))))
}

func (d *dlJournal) Wait(usec uint64) int {
	sym, status := d.api.symbol("sd_journal_wait")
	if status < 0 {
		return status
	}
	return int(C.go_sd_journal_wait(sym, d.j, C.uint64_t(usec)))
}

func (d *dlJournal) Close() int {
	sym, status := d.api.symbol("sd_journal_close")
	if status < 0 {
		return status
	}
	C.go_sd_journal_close(sym, d.j)
	d.j = nil
	return 0
}
