package journal

import (
	"context"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// SlogHandlerOptions configures NewSlogHandler.
type SlogHandlerOptions struct {
	// Level is the minimum record level to submit. Defaults to
	// slog.LevelInfo.
	Level slog.Leveler

	// Identifier sets SYSLOG_IDENTIFIER. Defaults to the program name.
	Identifier string
}

// NewSlogHandler returns an slog.Handler that submits records to the
// journal through the given sink. Levels map to syslog priorities
// (Debug→7, Info→6, Warn→4, Error→3), attributes become uppercase
// journal fields, and source location is carried in CODE_FILE,
// CODE_LINE and CODE_FUNCTION.
func NewSlogHandler(sink Sink, opts *SlogHandlerOptions) slog.Handler {
	h := &slogHandler{sink: sink, fields: map[string][]byte{}}
	if opts != nil {
		h.level = opts.Level
		h.ident = opts.Identifier
	}
	if h.level == nil {
		h.level = slog.LevelInfo
	}
	if h.ident == "" {
		h.ident = filepath.Base(os.Args[0])
	}
	return h
}

type slogHandler struct {
	sink   Sink
	level  slog.Leveler
	ident  string
	prefix string
	fields map[string][]byte
}

var _ slog.Handler = (*slogHandler)(nil)

func (h *slogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *slogHandler) Handle(_ context.Context, rec slog.Record) error {
	e := NewEntry()
	maps.Copy(e.Fields, h.fields)

	e.SetMessage(rec.Message)
	e.SetString(FieldPriority, strconv.Itoa(slogPriority(rec.Level)))
	e.SetString("SYSLOG_IDENTIFIER", h.ident)

	if rec.PC != 0 {
		frame, _ := runtime.CallersFrames([]uintptr{rec.PC}).Next()
		if frame.File != "" {
			e.SetString("CODE_FILE", frame.File)
			e.SetString("CODE_LINE", strconv.Itoa(frame.Line))
		}
		if frame.Function != "" {
			e.SetString("CODE_FUNCTION", frame.Function)
		}
	}

	rec.Attrs(func(a slog.Attr) bool {
		setAttr(e.Fields, h.prefix, a)
		return true
	})

	return h.sink.Submit(e)
}

func (h *slogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := h.clone()
	for _, a := range attrs {
		setAttr(next.fields, next.prefix, a)
	}
	return next
}

func (h *slogHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := h.clone()
	next.prefix = next.prefix + name + "_"
	return next
}

func (h *slogHandler) clone() *slogHandler {
	return &slogHandler{
		sink:   h.sink,
		level:  h.level,
		ident:  h.ident,
		prefix: h.prefix,
		fields: maps.Clone(h.fields),
	}
}

func slogPriority(level slog.Level) int {
	switch {
	case level >= slog.LevelError:
		return PriErr
	case level >= slog.LevelWarn:
		return PriWarning
	case level >= slog.LevelInfo:
		return PriInfo
	default:
		return PriDebug
	}
}

func setAttr(fields map[string][]byte, prefix string, a slog.Attr) {
	if a.Value.Kind() == slog.KindGroup {
		for _, g := range a.Value.Group() {
			setAttr(fields, prefix+a.Key+"_", g)
		}
		return
	}
	name := fieldNameForAttr(prefix + a.Key)
	if name == "" {
		return
	}
	fields[name] = []byte(a.Value.Resolve().String())
}

// fieldNameForAttr maps an attribute key to a legal journal field
// name: uppercased, illegal characters replaced with underscore, a
// leading digit shielded with one. Empty keys yield no field.
func fieldNameForAttr(key string) string {
	if key == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(key) + 1)
	if key[0] >= '0' && key[0] <= '9' {
		b.WriteByte('_')
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_':
			b.WriteByte(c)
		case c >= 'a' && c <= 'z':
			b.WriteByte(c - 'a' + 'A')
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
