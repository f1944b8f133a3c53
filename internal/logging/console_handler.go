package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler writes one header line per record followed by indented
// "- key: value" detail lines. `gamewiki logs` relies on the indentation to
// group a record's lines back together.
type consoleHandler struct {
	out       *lockedWriter
	level     *slog.LevelVar
	attrs     []slog.Attr
	groups    []string
	addSource bool
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.w.Write(p)
	return err
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{out: &lockedWriter{w: w}, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if record.Level < h.level.Level() {
		return nil
	}
	component, subject, details := h.collect(record)

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	message := strings.TrimSpace(record.Message)
	if message == "" {
		message = "(no message)"
	}

	var buf bytes.Buffer
	buf.WriteString(formatTimestamp(ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(record.Level))
	if component != "" {
		buf.WriteString(" [" + component + "]")
	}
	if label := subject.String(); label != "" {
		buf.WriteString(" " + label)
	}
	buf.WriteString(" – " + message)
	if h.addSource {
		if src := record.Source(); src != nil && src.File != "" {
			buf.WriteString(" [" + filepath.Base(src.File) + ":" + strconv.Itoa(src.Line) + "]")
		}
	}
	buf.WriteByte('\n')

	verbose := record.Level < slog.LevelInfo
	for _, field := range details {
		if !verbose && headerKey(field.key) {
			continue
		}
		buf.WriteString("    - " + field.key + ": " + formatValue(field.value) + "\n")
	}
	return h.out.write(buf.Bytes())
}

// collect flattens handler and record attributes, later keys winning, and
// pulls out the values rendered in the header.
func (h *consoleHandler) collect(record slog.Record) (string, logSubject, []field) {
	fields := make([]field, 0, record.NumAttrs()+len(h.attrs))
	index := make(map[string]int)
	add := func(key string, value slog.Value) {
		if pos, ok := index[key]; ok {
			fields[pos].value = value
			return
		}
		index[key] = len(fields)
		fields = append(fields, field{key: key, value: value})
	}
	for _, attr := range h.attrs {
		flatten(h.groups, attr, add)
	}
	record.Attrs(func(attr slog.Attr) bool {
		flatten(h.groups, attr, add)
		return true
	})

	var (
		component string
		subject   logSubject
	)
	details := make([]field, 0, len(fields))
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = attrString(f.value)
			continue
		case FieldTaskID:
			subject.taskID = attrString(f.value)
		case FieldTaskKind:
			subject.kind = attrString(f.value)
		case FieldStage:
			subject.stage = attrString(f.value)
		case FieldWorker:
			subject.worker = attrString(f.value)
		}
		details = append(details, f)
	}
	return component, subject, details
}

func headerKey(key string) bool {
	switch key {
	case FieldTaskID, FieldTaskKind, FieldStage, FieldWorker, FieldCorrelationID:
		return true
	}
	return false
}

type field struct {
	key   string
	value slog.Value
}

func flatten(prefix []string, attr slog.Attr, add func(string, slog.Value)) {
	if attr.Equal(slog.Attr{}) {
		return
	}
	attr.Value = attr.Value.Resolve()
	if attr.Value.Kind() == slog.KindGroup {
		if attr.Key != "" {
			prefix = append(prefix[:len(prefix):len(prefix)], attr.Key)
		}
		for _, member := range attr.Value.Group() {
			flatten(prefix, member, add)
		}
		return
	}
	key := strings.Join(append(prefix[:len(prefix):len(prefix)], attr.Key), ".")
	if attr.Key == "" {
		key = strings.Join(prefix, ".")
	}
	if key == "" {
		return
	}
	add(key, attr.Value)
}

// logSubject renders as "worker-1 · Task #7 page (page)".
type logSubject struct {
	worker string
	kind   string
	taskID string
	stage  string
}

func (s logSubject) String() string {
	label := ""
	if s.taskID != "" {
		label = strings.TrimSpace("Task #" + s.taskID + " " + s.kind)
	}
	if s.stage != "" {
		if label == "" {
			label = s.stage
		} else {
			label += " (" + s.stage + ")"
		}
	}
	switch {
	case s.worker == "":
		return label
	case label == "":
		return s.worker
	default:
		return s.worker + " · " + label
	}
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)
	return &clone
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	clone := *h
	clone.groups = append(h.groups[:len(h.groups):len(h.groups)], name)
	return &clone
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
