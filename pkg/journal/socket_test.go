package journal

import (
	"bytes"
	"encoding/binary"
	"errors"
	"net"
	"path/filepath"
	"testing"
	"time"
)

func listenTestSocket(t *testing.T) (*net.UnixConn, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal.socket")
	conn, err := net.ListenUnixgram("unixgram", &net.UnixAddr{Name: path, Net: "unixgram"})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn, path
}

func TestSocketWriterDatagram(t *testing.T) {
	conn, path := listenTestSocket(t)

	w := NewSocketWriter(path)
	defer w.Close()

	e := NewEntry()
	e.SetMessage("hello socket")
	e.SetString("APP", "sock-test")
	e.Set("BLOB", []byte("line one\nline two"))
	if err := w.Submit(e); err != nil {
		t.Fatalf("submit: %v", err)
	}

	buf := make([]byte, 64*1024)
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := conn.Read(buf)
	if err != nil {
		t.Fatalf("read datagram: %v", err)
	}

	// Canonical field order; BLOB carries a newline so it uses the
	// length-prefixed binary framing.
	var want bytes.Buffer
	want.WriteString("APP=sock-test\n")
	want.WriteString("BLOB\n")
	binary.Write(&want, binary.LittleEndian, uint64(len("line one\nline two")))
	want.WriteString("line one\nline two\n")
	want.WriteString("MESSAGE=hello socket\n")

	if !bytes.Equal(buf[:n], want.Bytes()) {
		t.Errorf("datagram mismatch:\n got %q\nwant %q", buf[:n], want.Bytes())
	}
}

func TestSocketWriterValidatesBeforeSending(t *testing.T) {
	conn, path := listenTestSocket(t)

	w := NewSocketWriter(path)
	defer w.Close()

	e := NewEntry()
	e.SetString("not valid", "x")

	var verr *ValidationError
	if err := w.Submit(e); !errors.As(err, &verr) {
		t.Fatalf("submit = %v, want ValidationError", err)
	}

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	if n, err := conn.Read(make([]byte, 1024)); err == nil {
		t.Errorf("rejected submit still sent %d bytes", n)
	}
}

func TestSocketWriterDefaultPath(t *testing.T) {
	if w := NewSocketWriter(""); w.SocketPath() != DefaultSocketPath {
		t.Errorf("default path = %q, want %q", w.SocketPath(), DefaultSocketPath)
	}
	t.Setenv("JOURNALD_SOCKET", "/tmp/elsewhere.socket")
	if w := NewSocketWriter(""); w.SocketPath() != "/tmp/elsewhere.socket" {
		t.Errorf("env path = %q, want override", w.SocketPath())
	}
}
