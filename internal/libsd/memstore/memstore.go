// Package memstore is a pure-Go, in-memory implementation of the libsd
// primitive set. It reproduces the observable sd-journal protocol —
// store-assigned timestamps and cursor tokens, AND-of-ORs match
// semantics, wait/wakeup classification — over an append-only entry
// slice, so the binding's cursor logic can be exercised without a
// running journald.
//
// The store is a single namespace: OpenNamespace attaches to the same
// entry sequence as Open.
package memstore

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/mbrock/go-journald/internal/libsd"
)

// Store holds the appended entries. Safe for concurrent use; each
// cursor obtained from Open is exclusive to its caller, like a real
// sd_journal handle.
type Store struct {
	id    string
	start time.Time

	mu        sync.Mutex
	entries   []entry
	lastMono  uint64
	appendGen uint64
	invalGen  uint64
	changed   chan struct{}
}

type entry struct {
	seq      uint64 // 1-based, == index+1
	realtime uint64
	mono     uint64
	fields   map[string][]byte
}

// New creates an empty store.
func New() *Store {
	var raw [8]byte
	rand.Read(raw[:])
	return &Store{
		id:      hex.EncodeToString(raw[:]),
		start:   time.Now(),
		changed: make(chan struct{}),
	}
}

var _ libsd.API = (*Store)(nil)

// Open returns a fresh cursor. Flags select journal file sets in the
// real store; a single in-memory store has only one set, so they are
// accepted and ignored.
func (s *Store) Open(flags int) (libsd.Journal, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &cursor{store: s, mode: modeHead, seenAppend: s.appendGen, seenInval: s.invalGen}, 0
}

// OpenNamespace attaches to the same entry sequence as Open.
func (s *Store) OpenNamespace(namespace string, flags int) (libsd.Journal, int) {
	return s.Open(flags)
}

// Sendv appends one record. Field stamping follows the daemon:
// realtime from the wall clock, monotonic strictly increasing since
// store creation.
func (s *Store) Sendv(fields [][]byte) int {
	parsed := make(map[string][]byte, len(fields))
	for _, f := range fields {
		i := bytes.IndexByte(f, '=')
		if i < 1 {
			return -int(syscall.EINVAL)
		}
		parsed[string(f[:i])] = append([]byte(nil), f[i+1:]...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	mono := uint64(time.Since(s.start).Microseconds())
	if mono <= s.lastMono {
		mono = s.lastMono + 1
	}
	s.lastMono = mono

	s.entries = append(s.entries, entry{
		seq:      uint64(len(s.entries) + 1),
		realtime: uint64(time.Now().UnixMicro()),
		mono:     mono,
		fields:   parsed,
	})
	s.appendGen++
	s.broadcastLocked()
	return 0
}

// Invalidate signals a rotation/invalidation event to waiting cursors.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invalGen++
	s.broadcastLocked()
}

// Len reports the number of appended entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) broadcastLocked() {
	close(s.changed)
	s.changed = make(chan struct{})
}

// Cursor position modes. modeAnchor is the pending state after a
// seek-to-cursor: the next forward read lands on the anchored entry
// itself.
const (
	modeHead = iota
	modeTail
	modeAnchor
	modeAt
)

type cursor struct {
	store  *Store
	closed bool

	mode   int
	anchor uint64 // seq, valid in modeAnchor and modeAt

	matches map[string]map[string]struct{}

	seenAppend uint64
	seenInval  uint64

	enumNames []string
	enumIdx   int
}

var _ libsd.Journal = (*cursor)(nil)

func (c *cursor) matchesEntry(e *entry) bool {
	for field, values := range c.matches {
		v, ok := e.fields[field]
		if !ok {
			return false
		}
		if _, ok := values[string(v)]; !ok {
			return false
		}
	}
	return true
}

func (c *cursor) observeLocked() {
	c.seenAppend = c.store.appendGen
	c.seenInval = c.store.invalGen
	c.enumNames = nil
	c.enumIdx = 0
}

func (c *cursor) Next() int {
	if c.closed {
		return -int(syscall.EBADF)
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c.observeLocked()

	from := 0
	switch c.mode {
	case modeTail:
		return 0
	case modeAt:
		from = int(c.anchor) // entry after seq c.anchor
	case modeAnchor:
		from = int(c.anchor) - 1
	}
	for i := from; i < len(s.entries); i++ {
		if c.matchesEntry(&s.entries[i]) {
			c.mode = modeAt
			c.anchor = s.entries[i].seq
			return 1
		}
	}
	return 0
}

func (c *cursor) Previous() int {
	if c.closed {
		return -int(syscall.EBADF)
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c.observeLocked()

	from := len(s.entries) - 1
	switch c.mode {
	case modeHead:
		return 0
	case modeAt:
		from = int(c.anchor) - 2 // entry before seq c.anchor
	case modeAnchor:
		from = int(c.anchor) - 1
	}
	for i := from; i >= 0; i-- {
		if c.matchesEntry(&s.entries[i]) {
			c.mode = modeAt
			c.anchor = s.entries[i].seq
			return 1
		}
	}
	return 0
}

func (c *cursor) SeekHead() int {
	return c.seek(modeHead, 0)
}

func (c *cursor) SeekTail() int {
	return c.seek(modeTail, 0)
}

func (c *cursor) seek(mode int, anchor uint64) int {
	if c.closed {
		return -int(syscall.EBADF)
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	c.observeLocked()
	c.mode = mode
	c.anchor = anchor
	return 0
}

func (c *cursor) SeekCursor(token string) int {
	seqPart, idPart, ok := strings.Cut(token, ";")
	if !ok || !strings.HasPrefix(seqPart, "s=") || !strings.HasPrefix(idPart, "m=") {
		return -int(syscall.EINVAL)
	}
	seq, err := strconv.ParseUint(seqPart[2:], 10, 64)
	if err != nil || seq == 0 {
		return -int(syscall.EINVAL)
	}
	if c.closed {
		return -int(syscall.EBADF)
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if idPart[2:] != s.id || seq > uint64(len(s.entries)) {
		return -int(syscall.ENOENT)
	}
	c.observeLocked()
	c.mode = modeAnchor
	c.anchor = seq
	return 0
}

func (c *cursor) Cursor() (string, int) {
	if c.closed {
		return "", -int(syscall.EBADF)
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.mode != modeAt {
		return "", -int(syscall.EADDRNOTAVAIL)
	}
	return fmt.Sprintf("s=%d;m=%s", c.anchor, s.id), 0
}

func (c *cursor) currentLocked() (*entry, int) {
	if c.mode != modeAt {
		return nil, -int(syscall.EADDRNOTAVAIL)
	}
	return &c.store.entries[c.anchor-1], 0
}

func (c *cursor) RestartData() {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.enumNames = nil
	c.enumIdx = 0
}

func (c *cursor) EnumerateData() ([]byte, int) {
	if c.closed {
		return nil, -int(syscall.EBADF)
	}
	s := c.store
	s.mu.Lock()
	defer s.mu.Unlock()
	e, status := c.currentLocked()
	if status < 0 {
		return nil, status
	}
	if c.enumNames == nil {
		c.enumNames = make([]string, 0, len(e.fields))
		for name := range e.fields {
			c.enumNames = append(c.enumNames, name)
		}
		sort.Strings(c.enumNames)
	}
	if c.enumIdx >= len(c.enumNames) {
		return nil, 0
	}
	name := c.enumNames[c.enumIdx]
	c.enumIdx++
	data := make([]byte, 0, len(name)+1+len(e.fields[name]))
	data = append(data, name...)
	data = append(data, '=')
	data = append(data, e.fields[name]...)
	return data, 1
}

func (c *cursor) RealtimeUsec() (uint64, int) {
	if c.closed {
		return 0, -int(syscall.EBADF)
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	e, status := c.currentLocked()
	if status < 0 {
		return 0, status
	}
	return e.realtime, 0
}

func (c *cursor) MonotonicUsec() (uint64, int) {
	if c.closed {
		return 0, -int(syscall.EBADF)
	}
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	e, status := c.currentLocked()
	if status < 0 {
		return 0, status
	}
	return e.mono, 0
}

func (c *cursor) AddMatch(expr []byte) int {
	if c.closed {
		return -int(syscall.EBADF)
	}
	i := bytes.IndexByte(expr, '=')
	if i < 1 {
		return -int(syscall.EINVAL)
	}
	field := string(expr[:i])
	value := string(expr[i+1:])
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.matches == nil {
		c.matches = map[string]map[string]struct{}{}
	}
	if c.matches[field] == nil {
		c.matches[field] = map[string]struct{}{}
	}
	c.matches[field][value] = struct{}{}
	return 0
}

func (c *cursor) Wait(usec uint64) int {
	if c.closed {
		return -int(syscall.EBADF)
	}
	s := c.store

	var deadline <-chan time.Time
	if usec != ^uint64(0) {
		d := time.Duration(usec) * time.Microsecond
		if usec > uint64(time.Duration(1<<63-1)/time.Microsecond) {
			d = 1<<63 - 1
		}
		timer := time.NewTimer(d)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		s.mu.Lock()
		if c.seenInval < s.invalGen {
			c.seenInval = s.invalGen
			c.seenAppend = s.appendGen
			s.mu.Unlock()
			return libsd.WakeupInvalidate
		}
		if c.seenAppend < s.appendGen {
			c.seenAppend = s.appendGen
			s.mu.Unlock()
			return libsd.WakeupAppend
		}
		ch := s.changed
		s.mu.Unlock()

		if usec == 0 {
			return libsd.WakeupNop
		}
		select {
		case <-ch:
			// Re-classify under the lock.
		case <-deadline:
			return libsd.WakeupNop
		}
	}
}

func (c *cursor) Close() int {
	if c.closed {
		return -int(syscall.EBADF)
	}
	c.closed = true
	return 0
}
