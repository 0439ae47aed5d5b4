package journal

import (
	"slices"
	"strings"
	"testing"
	"time"
)

func TestValidFieldName(t *testing.T) {
	valid := []string{"MESSAGE", "PRIORITY", "_PID", "__CURSOR", "CODE_LINE", "A", "_", "FIELD2"}
	for _, name := range valid {
		if !ValidFieldName(name) {
			t.Errorf("ValidFieldName(%q) = false, want true", name)
		}
	}

	invalid := []string{"", "message", "2FIELD", "BAD FIELD", "BAD-FIELD", "BAD!", "FIELD=", "ÜBER"}
	for _, name := range invalid {
		if ValidFieldName(name) {
			t.Errorf("ValidFieldName(%q) = true, want false", name)
		}
	}
}

func TestEntrySetCopies(t *testing.T) {
	e := NewEntry()
	value := []byte("original")
	e.Set("DATA", value)
	value[0] = 'X'

	got, ok := e.Field("DATA")
	if !ok || string(got) != "original" {
		t.Fatalf("Field(DATA) = %q, %v; want %q", got, ok, "original")
	}
}

func TestFieldStringReplacesInvalidUTF8(t *testing.T) {
	e := NewEntry()
	e.Set("BLOB", []byte{'a', 0xff, 'b'})

	s, ok := e.FieldString("BLOB")
	if !ok {
		t.Fatal("FieldString(BLOB) not found")
	}
	if !strings.Contains(s, "�") {
		t.Errorf("FieldString(BLOB) = %q, want replacement character", s)
	}
	if !strings.Contains(s, "a") || !strings.Contains(s, "b") {
		t.Errorf("FieldString(BLOB) = %q, dropped valid bytes", s)
	}
}

func TestWallclockPrefersSourceTime(t *testing.T) {
	e := NewEntry()
	e.SetString(FieldReceptionRealtime, "2000000")

	got, ok := e.WallclockTime()
	if !ok || !got.Equal(time.UnixMicro(2000000)) {
		t.Fatalf("WallclockTime = %v, %v; want reception time", got, ok)
	}

	e.SetString(FieldSourceRealtime, "1000000")
	got, ok = e.WallclockTime()
	if !ok || !got.Equal(time.UnixMicro(1000000)) {
		t.Fatalf("WallclockTime = %v, %v; want source time to win", got, ok)
	}
}

func TestMonotonicTime(t *testing.T) {
	e := NewEntry()
	if _, ok := e.MonotonicTime(); ok {
		t.Fatal("MonotonicTime on empty entry should not be ok")
	}
	e.SetString(FieldMonotonic, "1500000")
	d, ok := e.MonotonicTime()
	if !ok || d != 1500*time.Millisecond {
		t.Fatalf("MonotonicTime = %v, %v; want 1.5s", d, ok)
	}
}

func TestNamesCanonicalOrder(t *testing.T) {
	e := NewEntry()
	e.SetString("ZEBRA", "1")
	e.SetString("ALPHA", "2")
	e.SetString("MESSAGE", "3")

	want := []string{"ALPHA", "MESSAGE", "ZEBRA"}
	if got := e.Names(); !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
}
