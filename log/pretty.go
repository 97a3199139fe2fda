package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Styles for the pretty text handler.
var (
	styleTime   = lipgloss.NewStyle().Faint(true)
	styleKey    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleSource = lipgloss.NewStyle().Faint(true).Italic(true)

	styleLevel = map[Level]lipgloss.Style{
		LevelTrace: lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
		LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
		LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	}
)

// prettyHandler renders records as colorized single-line text for
// humans. Field order is fixed: time, level, source, message,
// attributes.
type prettyHandler struct {
	opts  slog.HandlerOptions
	mu    *sync.Mutex
	w     io.Writer
	attrs []slog.Attr
	group string
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *prettyHandler {
	return &prettyHandler{
		opts: *opts,
		mu:   &sync.Mutex{},
		w:    w,
	}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.Level.Level()
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	buf := new(bytes.Buffer)

	if !r.Time.IsZero() {
		if a := h.replaced(slog.Time(slog.TimeKey, r.Time)); !a.Equal(slog.Attr{}) {
			buf.WriteString(styleTime.Render(a.Value.String()))
		}
	}

	level := Level(r.Level)

	style, ok := styleLevel[level]
	if !ok {
		style = styleLevel[LevelInfo]
	}

	pad(buf)
	buf.WriteString(style.Render(h.replaced(slog.Any(slog.LevelKey, r.Level)).Value.String()))

	if h.opts.AddSource {
		if src := r.Source(); src != nil {
			pad(buf)
			buf.WriteString(styleSource.Render(
				fmt.Sprintf("%s:%d", src.File, src.Line),
			))
		}
	}

	pad(buf)
	buf.WriteString(r.Message)

	for _, a := range h.attrs {
		h.writeAttr(buf, a)
	}

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(buf, a)

		return true
	})

	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(h.attrs[:len(h.attrs):len(h.attrs)], attrs...)

	return &clone
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	clone := *h

	if clone.group != "" {
		clone.group += "."
	}

	clone.group += name

	return &clone
}

func (h *prettyHandler) writeAttr(buf *bytes.Buffer, a slog.Attr) {
	a = h.replaced(a)
	if a.Equal(slog.Attr{}) {
		return
	}

	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		for _, member := range a.Value.Group() {
			member.Key = a.Key + "." + member.Key
			h.writeAttr(buf, member)
		}

		return
	}

	key := a.Key
	if h.group != "" {
		key = h.group + "." + key
	}

	pad(buf)
	buf.WriteString(styleKey.Render(key + "="))
	buf.WriteString(renderValue(a.Value))
}

// replaced applies the configured ReplaceAttr hook.
func (h *prettyHandler) replaced(a slog.Attr) slog.Attr {
	if h.opts.ReplaceAttr == nil {
		return a
	}

	return h.opts.ReplaceAttr(nil, a)
}

// renderValue quotes strings only when they contain whitespace or are
// empty, keeping the line scannable.
func renderValue(v slog.Value) string {
	s := v.String()
	if s == "" || bytes.ContainsAny([]byte(s), " \t\n") {
		return strconv.Quote(s)
	}

	return s
}

func pad(buf *bytes.Buffer) {
	if buf.Len() > 0 {
		buf.WriteByte(' ')
	}
}
