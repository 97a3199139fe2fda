// Package lexer implements the modal tokenizer for the interpolation
// grammar.
//
// The lexer is an explicit state machine: an enumerated [Mode] plus a
// stack of active modes. Every "${" pushes a mode and every matching "}"
// (or closing quote) pops one; input that ends with a non-empty stack has
// an unterminated interpolation or quote. Within each mode the rule
// order is fixed: escapes, then structural punctuation, then keywords,
// then numeric literals, then identifiers, then generic runs.
package lexer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/confkit/interp/lang/token"
)

// Mode is one lexical context of the grammar.
type Mode int

const (
	// Top is the base mode covering plain text outside interpolations.
	// It is never on the stack: an empty stack means Top.
	Top Mode = iota

	// Key scans the first component after "${": a key, a list index, or
	// a resolver name.
	Key

	// DotPath scans the remaining dot-joined segments of a key path.
	DotPath

	// Args scans a resolver argument list, including list and dict
	// literals. Each "{" pushes another Args level so brace balance is
	// tracked by the stack itself.
	Args

	// QuotedSingle and QuotedDouble scan quoted string bodies in
	// argument mode.
	QuotedSingle
	QuotedDouble
)

// String returns a human-readable name for the mode.
func (m Mode) String() string {
	switch m {
	case Top:
		return "Top"
	case Key:
		return "Key"
	case DotPath:
		return "DotPath"
	case Args:
		return "Args"
	case QuotedSingle:
		return "QuotedSingle"
	case QuotedDouble:
		return "QuotedDouble"
	default:
		return "Mode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Error reports a lexical failure with its position.
type Error struct {
	Msg string
	Pos token.Pos
}

// Error implements the error interface.
func (e *Error) Error() string {
	return "lex error at line " + strconv.Itoa(e.Pos.Line) +
		", column " + strconv.Itoa(e.Pos.Column) + ": " + e.Msg
}

// frame is one stack entry: the active mode and whether it was opened by
// a bare "{" (dict brace) rather than "${".
type frame struct {
	mode  Mode
	brace bool
}

// lexer holds the scanner state.
type lexer struct {
	input   string
	pos     int
	line    int
	col     int
	stack   []frame
	tokens  []token.Token
	element bool // started in Args mode; base frame never pops
}

// Tokenize converts raw input into a token stream. It fails with *Error
// on an unterminated quote or interpolation, or on a character the
// active mode does not permit.
func Tokenize(input string) ([]token.Token, error) {
	l := &lexer{
		input: input,
		line:  1,
		col:   1,
	}

	return l.run()
}

// TokenizeElement tokenizes input that is a single argument-grammar
// item rather than top-level text: the scan starts directly in Args
// mode. This is the entry point for re-interpreting external scalar
// text (environment variables, decode arguments) through the grammar.
func TokenizeElement(input string) ([]token.Token, error) {
	l := &lexer{
		input:   input,
		line:    1,
		col:     1,
		stack:   []frame{{mode: Args, brace: true}},
		element: true,
	}

	return l.run()
}

func (l *lexer) run() ([]token.Token, error) {
	for !l.eof() {
		var err error

		switch l.mode() {
		case Top:
			err = l.lexTop()
		case Key:
			err = l.lexKey()
		case DotPath:
			err = l.lexDotPath()
		case Args:
			err = l.lexArgs()
		case QuotedSingle:
			err = l.lexQuoted('\'')
		case QuotedDouble:
			err = l.lexQuoted('"')
		}

		if err != nil {
			return nil, err
		}
	}

	base := 0
	if l.element {
		base = 1
	}

	if len(l.stack) > base {
		top := l.stack[len(l.stack)-1]
		if top.mode == QuotedSingle || top.mode == QuotedDouble {
			return nil, l.errorf("unterminated quoted string")
		}

		return nil, l.errorf("unterminated interpolation")
	}

	l.emit(token.EOF, "")

	return l.tokens, nil
}

// mode returns the active mode.
func (l *lexer) mode() Mode {
	if len(l.stack) == 0 {
		return Top
	}

	return l.stack[len(l.stack)-1].mode
}

func (l *lexer) push(m Mode, brace bool) {
	l.stack = append(l.stack, frame{mode: m, brace: brace})
}

// pop removes the top frame and reports whether it was a dict brace.
// In element scans the base Args frame stays put, so a stray "}" lexes
// as an unmatched brace for the parser to reject.
func (l *lexer) pop() bool {
	if l.element && len(l.stack) == 1 {
		return true
	}

	top := l.stack[len(l.stack)-1]
	l.stack = l.stack[:len(l.stack)-1]

	return top.brace
}

// swap replaces the active mode in place, without pushing or popping.
func (l *lexer) swap(m Mode) {
	l.stack[len(l.stack)-1].mode = m
}

// lexTop scans plain text, escapes, and interpolation openers.
func (l *lexer) lexTop() error {
	switch {
	case l.peek() == '\\':
		l.lexBackslashRun(false)

	case l.hasPrefix("${"):
		l.emitAdvance(token.InterOpen, 2)
		l.push(Key, false)

	default:
		// Maximal run of anything that cannot start an escape or an
		// interpolation. A lone '$' is plain text.
		start := l.pos

		for !l.eof() && l.peek() != '\\' && !l.hasPrefix("${") {
			l.advance()
		}

		if l.pos == start {
			// '$' followed by '\' or EOF
			l.advance()
		}

		l.emitFrom(token.TopStr, start)
	}

	return nil
}

// lexKey scans the first component of an interpolation: identifier,
// list index, or the punctuation that decides between key path and
// resolver call. Whitespace here is insignificant and discarded.
func (l *lexer) lexKey() error {
	l.skipSpace()

	if l.eof() {
		return nil // Tokenize reports the unterminated interpolation
	}

	ch := l.peek()

	switch {
	case l.hasPrefix("${"):
		l.emitAdvance(token.InterOpen, 2)
		l.push(Key, false)

	case ch == '}':
		l.emitAdvance(token.InterClose, 1)
		l.pop()

	case ch == '.':
		l.emitAdvance(token.Dot, 1)
		l.swap(DotPath)

	case ch == ':':
		l.emitAdvance(token.Colon, 1)
		l.swap(Args)

	case isIdentStart(ch):
		start := l.pos
		for !l.eof() && isIdentPart(l.peek()) {
			l.advance()
		}

		l.emitFrom(token.ID, start)

	case isDigit(ch):
		start := l.pos
		for !l.eof() && isDigit(l.peek()) {
			l.advance()
		}

		l.emitFrom(token.Index, start)

	case forbiddenInKey(ch):
		return l.errorf("character %q not allowed in interpolation key", ch)

	default:
		// Lexically permitted generic run; the parser rejects it when
		// it cannot form a valid segment or name.
		start := l.pos
		for !l.eof() && !l.keyRunEnds(l.peek()) {
			l.advance()
		}

		l.emitFrom(token.Str, start)
	}

	return nil
}

// lexDotPath scans the dot-joined remainder of a key path. Segments are
// arbitrary runs excluding the structural and quoting characters; an
// all-digit segment is a list index.
func (l *lexer) lexDotPath() error {
	if l.eof() {
		return nil
	}

	ch := l.peek()

	switch {
	case l.hasPrefix("${"):
		l.emitAdvance(token.InterOpen, 2)
		l.push(Key, false)

	case ch == '}':
		l.emitAdvance(token.InterClose, 1)
		l.pop()

	case ch == '.':
		l.emitAdvance(token.Dot, 1)

	case forbiddenInKey(ch) || ch == ':':
		return l.errorf("character %q not allowed in key path", ch)

	default:
		start := l.pos
		for !l.eof() && !l.keyRunEnds(l.peek()) && l.peek() != ':' {
			l.advance()
		}

		text := l.input[start:l.pos]
		if allDigits(text) {
			l.emitFrom(token.Index, start)
		} else {
			l.emitFrom(token.Str, start)
		}
	}

	return nil
}

// keyRunEnds reports whether ch terminates a generic run in Key or
// DotPath mode.
func (l *lexer) keyRunEnds(ch byte) bool {
	return forbiddenInKey(ch) || ch == '.' || ch == ':' || ch == '}'
}

// lexArgs scans one token of a resolver argument list.
func (l *lexer) lexArgs() error {
	ch := l.peek()

	switch {
	case ch == ' ' || ch == '\t':
		start := l.pos
		l.skipSpace()
		l.emitFrom(token.WS, start)

	case ch == '\\':
		l.lexBackslashRun(true)

	case l.hasPrefix("${"):
		l.emitAdvance(token.InterOpen, 2)
		l.push(Key, false)

	case ch == '}':
		if l.pop() {
			l.emitAdvance(token.BraceClose, 1)
		} else {
			l.emitAdvance(token.InterClose, 1)
		}

	case ch == '{':
		l.emitAdvance(token.BraceOpen, 1)
		l.push(Args, true)

	case ch == '[':
		l.emitAdvance(token.BracketOpen, 1)

	case ch == ']':
		l.emitAdvance(token.BracketClose, 1)

	case ch == ',':
		l.emitAdvance(token.Comma, 1)

	case ch == ':':
		l.emitAdvance(token.Colon, 1)

	case ch == '\'':
		l.emitAdvance(token.Quote, 1)
		l.push(QuotedSingle, false)

	case ch == '"':
		l.emitAdvance(token.Quote, 1)
		l.push(QuotedDouble, false)

	case ch == '$':
		// '$' not followed by '{' is ordinary content.
		l.emitAdvance(token.Str, 1)

	default:
		start := l.pos
		for !l.eof() && !argRunEnds(l.peek()) {
			l.advance()
		}

		l.emitFrom(LiteralKind(l.input[start:l.pos]), start)
	}

	return nil
}

// argRunEnds reports whether ch terminates an unquoted word in Args
// mode.
func argRunEnds(ch byte) bool {
	switch ch {
	case ' ', '\t', '\\', '$', '{', '}', '[', ']', ',', ':', '\'', '"':
		return true
	default:
		return false
	}
}

// lexQuoted scans one token of a quoted string body.
func (l *lexer) lexQuoted(quote byte) error {
	ch := l.peek()

	switch {
	case ch == quote:
		l.emitAdvance(token.Quote, 1)
		l.pop()

	case ch == '\\':
		l.lexQuotedBackslashRun(quote)

	case l.hasPrefix("${"):
		l.emitAdvance(token.InterOpen, 2)
		l.push(Key, false)

	case ch == '$':
		l.emitAdvance(token.Str, 1)

	default:
		start := l.pos
		for !l.eof() && l.peek() != quote && l.peek() != '\\' && l.peek() != '$' {
			l.advance()
		}

		l.emitFrom(token.Str, start)
	}

	return nil
}

// lexBackslashRun scans a run of backslashes in Top or Args mode.
// Pairs decode to literal backslashes. An odd trailing backslash escapes
// "${" in both modes, a structural character in Args mode, and is
// otherwise a literal backslash.
func (l *lexer) lexBackslashRun(args bool) {
	start := l.pos
	for !l.eof() && l.peek() == '\\' {
		l.advance()
	}

	n := l.pos - start
	if n%2 == 1 {
		// Back up over the odd one; it may begin an escape sequence.
		l.pos--
		l.col--
		n--
	}

	if n > 0 {
		l.emitFrom(token.EscBackslash, start)
	}

	if l.eof() || l.peek() != '\\' {
		return
	}

	// One backslash remains.
	switch {
	case l.hasPrefix("\\${"):
		l.emitAdvance(token.EscInter, 3)

	case args && l.pos+1 < len(l.input) && escapableInArgs(l.input[l.pos+1]):
		l.emitAdvance(token.Esc, 2)

	default:
		l.emitAdvance(token.Str, 1)
	}
}

// lexQuotedBackslashRun scans a run of backslashes in a quoted string.
// Only the quote character itself and "${" can follow an odd backslash
// as an escape; anything else leaves the backslash literal.
func (l *lexer) lexQuotedBackslashRun(quote byte) {
	start := l.pos
	for !l.eof() && l.peek() == '\\' {
		l.advance()
	}

	n := l.pos - start
	if n%2 == 1 {
		l.pos--
		l.col--
		n--
	}

	if n > 0 {
		l.emitFrom(token.EscBackslash, start)
	}

	if l.eof() || l.peek() != '\\' {
		return
	}

	switch {
	case l.pos+1 < len(l.input) && l.input[l.pos+1] == quote:
		l.emitAdvance(token.Esc, 2)

	case l.hasPrefix("\\${"):
		l.emitAdvance(token.EscInter, 3)

	default:
		l.emitAdvance(token.Str, 1)
	}
}

// escapableInArgs reports whether ch may follow a backslash as an
// escape sequence in argument mode.
func escapableInArgs(ch byte) bool {
	switch ch {
	case ' ', '\t', ',', ':', '{', '}', '[', ']', '\'', '"':
		return true
	default:
		return false
	}
}

// forbiddenInKey reports whether ch can never appear bare in a key or
// resolver name: exactly the set `$ { [ ] ' " space tab backslash`
// (plus the structural `. : }` handled by their own rules).
func forbiddenInKey(ch byte) bool {
	switch ch {
	case '$', '{', '[', ']', '\'', '"', ' ', '\t', '\\':
		return true
	default:
		return false
	}
}

// Scanner helpers, shared across modes.

func (l *lexer) eof() bool {
	return l.pos >= len(l.input)
}

func (l *lexer) peek() byte {
	if l.eof() {
		return 0
	}

	return l.input[l.pos]
}

func (l *lexer) hasPrefix(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

func (l *lexer) advance() {
	if l.eof() {
		return
	}

	if l.input[l.pos] == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}

	l.pos++
}

func (l *lexer) skipSpace() {
	for !l.eof() {
		switch l.peek() {
		case ' ', '\t':
			l.advance()
		default:
			return
		}
	}
}

func (l *lexer) position() token.Pos {
	return token.Pos{Offset: l.pos, Line: l.line, Column: l.col}
}

// emit appends a token with the given text ending at the current
// position.
func (l *lexer) emit(kind token.Kind, text string) {
	l.tokens = append(l.tokens, token.Token{
		Kind: kind,
		Text: text,
		Pos: token.Pos{
			Offset: l.pos - len(text),
			Line:   l.line,
			Column: l.col - len(text),
		},
	})
}

// emitAdvance advances n bytes and emits them as one token.
func (l *lexer) emitAdvance(kind token.Kind, n int) {
	start := l.pos
	for range n {
		l.advance()
	}

	l.emitFrom(kind, start)
}

// emitFrom emits the input from start to the current position as one
// token.
func (l *lexer) emitFrom(kind token.Kind, start int) {
	text := l.input[start:l.pos]
	l.tokens = append(l.tokens, token.Token{
		Kind: kind,
		Text: text,
		Pos: token.Pos{
			Offset: start,
			Line:   l.line,
			Column: l.col - len(text),
		},
	})
}

func (l *lexer) errorf(format string, args ...any) error {
	return &Error{Msg: fmt.Sprintf(format, args...), Pos: l.position()}
}

func isIdentStart(ch byte) bool {
	return ch == '_' ||
		(ch >= 'a' && ch <= 'z') ||
		(ch >= 'A' && ch <= 'Z')
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch)
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := range len(s) {
		if !isDigit(s[i]) {
			return false
		}
	}

	return true
}
