// Package token defines the lexical tokens of the interpolation grammar.
package token

import "strconv"

// Kind identifies the lexical class of a token. Kinds are grouped by the
// lexer mode that can produce them; a few (InterOpen, InterClose, WS) are
// shared across modes.
type Kind int

const (
	// EOF marks the end of input.
	EOF Kind = iota

	// TopStr is a run of plain text outside any interpolation.
	TopStr

	// EscInter is an escaped interpolation opener: the two characters
	// `\$` followed by `{`, which decode to a literal "${".
	EscInter

	// EscBackslash is a run of escaped backslashes (`\\` pairs), which
	// decode to half as many literal backslashes.
	EscBackslash

	// Esc is a single escaped character inside argument or quoted modes
	// (`\'`, `\"`, `\,`, `\:`, `\ `, ...), decoding to the character
	// after the backslash.
	Esc

	// InterOpen is the interpolation opener "${".
	InterOpen

	// InterClose is the interpolation closer "}".
	InterClose

	// ID is an identifier: [A-Za-z_][A-Za-z0-9_]*.
	ID

	// Index is a run of decimal digits used as a list index in a key path.
	Index

	// Dot separates key path segments.
	Dot

	// Colon separates a resolver name from its arguments, and dict keys
	// from their values.
	Colon

	// Comma separates resolver arguments and list/dict elements.
	Comma

	// BraceOpen and BraceClose delimit dict literals in argument mode.
	BraceOpen
	BraceClose

	// BracketOpen and BracketClose delimit list literals in argument mode.
	BracketOpen
	BracketClose

	// Quote is a single or double quote character delimiting a quoted
	// string in argument mode. The same kind opens and closes; Text
	// distinguishes the flavor.
	Quote

	// Null is the case-insensitive keyword "null".
	Null

	// Bool is the case-insensitive keyword "true" or "false".
	Bool

	// Int is an integer literal per the shared numeric grammar.
	Int

	// Float is a floating literal per the shared numeric grammar,
	// including "inf" and "nan".
	Float

	// Str is a run of characters with no more specific class: unquoted
	// string content in argument mode, quoted string bodies, and key
	// path segment text.
	Str

	// WS is a run of spaces and tabs in argument mode. Whitespace is
	// significant inside unquoted runs and trimmed at item boundaries.
	WS
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case TopStr:
		return "TopStr"
	case EscInter:
		return "EscInter"
	case EscBackslash:
		return "EscBackslash"
	case Esc:
		return "Esc"
	case InterOpen:
		return "InterOpen"
	case InterClose:
		return "InterClose"
	case ID:
		return "ID"
	case Index:
		return "Index"
	case Dot:
		return "Dot"
	case Colon:
		return "Colon"
	case Comma:
		return "Comma"
	case BraceOpen:
		return "BraceOpen"
	case BraceClose:
		return "BraceClose"
	case BracketOpen:
		return "BracketOpen"
	case BracketClose:
		return "BracketClose"
	case Quote:
		return "Quote"
	case Null:
		return "Null"
	case Bool:
		return "Bool"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case Str:
		return "Str"
	case WS:
		return "WS"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Pos locates a token within its source string.
type Pos struct {
	Offset int // byte offset, 0-based
	Line   int // line number, 1-based
	Column int // column number, 1-based (in bytes)
}

// Token is one lexeme: its kind, the exact source text it covers, and
// where that text begins.
type Token struct {
	Kind Kind
	Text string
	Pos  Pos
}

// String returns a compact "Kind(text)" form for debugging and the
// token-dump command.
func (t Token) String() string {
	if t.Text == "" {
		return t.Kind.String()
	}

	return t.Kind.String() + "(" + strconv.Quote(t.Text) + ")"
}
