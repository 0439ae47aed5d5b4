package journal

import (
	"context"
	"log/slog"
	"testing"
)

// captureSink records submitted entries for inspection.
type captureSink struct {
	entries []*Entry
}

func (c *captureSink) Submit(e *Entry) error {
	c.entries = append(c.entries, e)
	return nil
}

func (c *captureSink) Close() error { return nil }

func (c *captureSink) last(t *testing.T) *Entry {
	t.Helper()
	if len(c.entries) == 0 {
		t.Fatal("no entries submitted")
	}
	return c.entries[len(c.entries)-1]
}

func fieldText(e *Entry, name string) string {
	v, _ := e.FieldString(name)
	return v
}

func TestSlogHandlerBasicRecord(t *testing.T) {
	sink := &captureSink{}
	log := slog.New(NewSlogHandler(sink, &SlogHandlerOptions{Identifier: "testprog"}))

	log.Info("something happened", "request_id", "abc123", "count", 7)

	e := sink.last(t)
	if got := fieldText(e, FieldMessage); got != "something happened" {
		t.Errorf("MESSAGE = %q", got)
	}
	if got := fieldText(e, FieldPriority); got != "6" {
		t.Errorf("PRIORITY = %q, want 6", got)
	}
	if got := fieldText(e, "SYSLOG_IDENTIFIER"); got != "testprog" {
		t.Errorf("SYSLOG_IDENTIFIER = %q", got)
	}
	if got := fieldText(e, "REQUEST_ID"); got != "abc123" {
		t.Errorf("REQUEST_ID = %q", got)
	}
	if got := fieldText(e, "COUNT"); got != "7" {
		t.Errorf("COUNT = %q", got)
	}
	if fieldText(e, "CODE_FILE") == "" || fieldText(e, "CODE_LINE") == "" {
		t.Error("missing source location fields")
	}
}

func TestSlogHandlerPriorityMapping(t *testing.T) {
	sink := &captureSink{}
	log := slog.New(NewSlogHandler(sink, &SlogHandlerOptions{Level: slog.LevelDebug}))

	for _, tc := range []struct {
		level slog.Level
		want  string
	}{
		{slog.LevelDebug, "7"},
		{slog.LevelInfo, "6"},
		{slog.LevelWarn, "4"},
		{slog.LevelError, "3"},
	} {
		log.Log(context.Background(), tc.level, "msg")
		if got := fieldText(sink.last(t), FieldPriority); got != tc.want {
			t.Errorf("level %v: PRIORITY = %q, want %q", tc.level, got, tc.want)
		}
	}
}

func TestSlogHandlerLevelFiltering(t *testing.T) {
	sink := &captureSink{}
	log := slog.New(NewSlogHandler(sink, &SlogHandlerOptions{Level: slog.LevelWarn}))

	log.Info("dropped")
	log.Warn("kept")

	if len(sink.entries) != 1 {
		t.Fatalf("submitted %d entries, want 1", len(sink.entries))
	}
	if got := fieldText(sink.last(t), FieldMessage); got != "kept" {
		t.Errorf("kept message = %q", got)
	}
}

func TestSlogHandlerGroupsAndAttrs(t *testing.T) {
	sink := &captureSink{}
	log := slog.New(NewSlogHandler(sink, nil)).
		With("component", "api").
		WithGroup("http")

	log.Info("served", "status", 200, slog.Group("peer", "addr", "10.0.0.1"))

	e := sink.last(t)
	if got := fieldText(e, "COMPONENT"); got != "api" {
		t.Errorf("COMPONENT = %q", got)
	}
	if got := fieldText(e, "HTTP_STATUS"); got != "200" {
		t.Errorf("HTTP_STATUS = %q", got)
	}
	if got := fieldText(e, "HTTP_PEER_ADDR"); got != "10.0.0.1" {
		t.Errorf("HTTP_PEER_ADDR = %q", got)
	}
}

func TestSlogHandlerAttrsDoNotLeakBetweenClones(t *testing.T) {
	sink := &captureSink{}
	base := slog.New(NewSlogHandler(sink, nil))
	derived := base.With("scope", "child")

	derived.Info("from child")
	base.Info("from base")

	if got := fieldText(sink.entries[0], "SCOPE"); got != "child" {
		t.Errorf("child SCOPE = %q", got)
	}
	if _, ok := sink.entries[1].Fields["SCOPE"]; ok {
		t.Error("base handler inherited attr from derived clone")
	}
}

func TestFieldNameForAttr(t *testing.T) {
	for _, tc := range []struct{ in, want string }{
		{"request_id", "REQUEST_ID"},
		{"http.status-code", "HTTP_STATUS_CODE"},
		{"9lives", "_9LIVES"},
		{"ALREADY_FINE", "ALREADY_FINE"},
		{"", ""},
	} {
		if got := fieldNameForAttr(tc.in); got != tc.want {
			t.Errorf("fieldNameForAttr(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
