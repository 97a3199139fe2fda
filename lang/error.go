package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/confkit/interp/lang/token"
)

// Predefined errors (sentinel values).
var (
	ErrLex                    = NewError("lex error")
	ErrParse                  = NewError("parse error")
	ErrUnsupportedResolver    = NewError("unsupported resolver")
	ErrKeyNotFound            = NewError("key not found")
	ErrRecursiveInterpolation = NewError("recursive interpolation")
	ErrRecursionLimit         = NewError("recursion limit exceeded")
	ErrMissingEnvVariable     = NewError("environment variable not set")
	ErrResolution             = NewError("resolver failed")
	ErrGrammarType            = NewError("invalid type in grammar position")
	ErrMissingTree            = NewError("no tree configured")
)

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is matches derived errors back to their sentinel: values produced by
// Wrap and With share the sentinel's message and still satisfy
// errors.Is against it.
func (e *Error) Is(target error) bool {
	te, ok := target.(*Error)

	return ok && te.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}

// SyntaxError reports a lexical or grammatical failure with enough
// context to render the offending source line under a caret marker.
// Kind is ErrLex or ErrParse, exposed through Unwrap so errors.Is
// keeps matching the sentinel.
type SyntaxError struct {
	Kind     *Error
	Msg      string
	Source   string // the full input being lexed or parsed
	Pos      token.Pos
	Expected []string // optional expected constructs
}

// NewSyntaxError creates a SyntaxError of the given kind at pos.
func NewSyntaxError(kind *Error, msg, source string, pos token.Pos) *SyntaxError {
	return &SyntaxError{
		Kind:   kind,
		Msg:    msg,
		Source: source,
		Pos:    pos,
	}
}

// Expecting records the constructs that would have been valid at the
// error position.
func (e *SyntaxError) Expecting(what ...string) *SyntaxError {
	e.Expected = append(e.Expected, what...)

	return e
}

// Unwrap exposes the sentinel for errors.Is.
func (e *SyntaxError) Unwrap() error { return e.Kind }

// Error implements the error interface.
func (e *SyntaxError) Error() string {
	var buf strings.Builder

	buf.WriteString(e.Kind.msg)
	buf.WriteString(" at line ")
	buf.WriteString(strconv.Itoa(e.Pos.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(e.Pos.Column))
	buf.WriteString(": ")
	buf.WriteString(e.Msg)

	if snippet := e.snippet(); snippet != "" {
		buf.WriteString("\n")
		buf.WriteString(snippet)
	}

	if len(e.Expected) > 0 {
		buf.WriteString("\texpected: ")
		buf.WriteString(strings.Join(e.Expected, ", "))
	}

	return buf.String()
}

// snippet renders the offending source line with a caret under the
// error column.
func (e *SyntaxError) snippet() string {
	if e.Source == "" || e.Pos.Line < 1 {
		return ""
	}

	lines := strings.Split(e.Source, "\n")
	if e.Pos.Line > len(lines) {
		return ""
	}

	var src strings.Builder

	src.WriteString("  ")
	src.WriteString(strconv.Itoa(e.Pos.Line))
	src.WriteString(" | ")
	src.WriteString(lines[e.Pos.Line-1])
	src.WriteRune('\n')

	// 2 leading spaces plus " | " around the line number.
	padding := strings.Repeat(" ", len(strconv.Itoa(e.Pos.Line))+5)
	if e.Pos.Column > 0 {
		padding += strings.Repeat(" ", e.Pos.Column-1)
	}

	src.WriteString(padding + "^\n")

	return src.String()
}

// LogValue implements slog.LogValuer.
func (e *SyntaxError) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("error", e.Kind.msg),
		slog.String("detail", e.Msg),
		slog.Int("line", e.Pos.Line),
		slog.Int("column", e.Pos.Column),
	)
}
