package journal

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"sync"
)

// DefaultSocketPath is the standard journald native socket location.
const DefaultSocketPath = "/run/systemd/journal/socket"

// SocketWriter submits entries over journald's native datagram
// protocol. Pure Go, no libsystemd needed; works against both real
// journald and journald-compatible daemons.
type SocketWriter struct {
	socketPath string

	mu   sync.Mutex
	conn *net.UnixConn
}

var _ Sink = (*SocketWriter)(nil)

// NewSocketWriter creates a writer for the given socket path. An empty
// path uses the JOURNALD_SOCKET environment variable, falling back to
// DefaultSocketPath.
func NewSocketWriter(socketPath string) *SocketWriter {
	if socketPath == "" {
		socketPath = os.Getenv("JOURNALD_SOCKET")
	}
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	return &SocketWriter{socketPath: socketPath}
}

// Submit validates the entry and sends it as one datagram. A datagram
// is atomic: the daemon records all fields of the entry or none.
func (s *SocketWriter) Submit(e *Entry) error {
	// Same pre-I/O validation as the sendv path.
	if _, err := marshalFields(e); err != nil {
		return err
	}

	data := encodeNative(e)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureConn(); err != nil {
		return err
	}
	if _, err := s.conn.Write(data); err != nil {
		// Connection may have gone stale; reconnect on the next write.
		s.conn.Close()
		s.conn = nil
		return fmt.Errorf("journal: writing to socket: %w", err)
	}
	return nil
}

// Close releases the socket connection.
func (s *SocketWriter) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// SocketPath returns the configured socket path.
func (s *SocketWriter) SocketPath() string {
	return s.socketPath
}

// ensureConn opens the connection if needed. Caller holds s.mu.
func (s *SocketWriter) ensureConn() error {
	if s.conn != nil {
		return nil
	}
	addr := &net.UnixAddr{Name: s.socketPath, Net: "unixgram"}
	conn, err := net.DialUnix("unixgram", nil, addr)
	if err != nil {
		return fmt.Errorf("journal: connecting to socket %s: %w", s.socketPath, err)
	}
	s.conn = conn
	return nil
}

// encodeNative builds the native-protocol datagram, fields in
// canonical order:
//   - values free of newlines: NAME=value\n
//   - otherwise: NAME\n<8-byte little-endian length><value>\n
func encodeNative(e *Entry) []byte {
	var buf []byte
	for _, name := range e.Names() {
		value := e.Fields[name]
		if bytes.IndexByte(value, '\n') >= 0 {
			buf = append(buf, name...)
			buf = append(buf, '\n')
			var lenBuf [8]byte
			binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(value)))
			buf = append(buf, lenBuf[:]...)
			buf = append(buf, value...)
			buf = append(buf, '\n')
		} else {
			buf = append(buf, name...)
			buf = append(buf, '=')
			buf = append(buf, value...)
			buf = append(buf, '\n')
		}
	}
	return buf
}
