package lang

import (
	"math"
	"strconv"
	"strings"

	"github.com/confkit/interp/lang/lexer"
	"github.com/confkit/interp/lang/token"
)

// Coerce interprets raw as a scalar literal and returns its typed
// value, trying in priority order: the case-insensitive null keyword
// (nil), the case-insensitive bool keywords, the integer grammar
// (int64), the float grammar including inf/nan (float64), and finally
// a plain string with escape sequences decoded. The same rules apply
// to unquoted resolver arguments and to scalars reinterpreted from
// outside the grammar, so they live here and nowhere else.
func Coerce(raw string) any {
	switch lexer.LiteralKind(raw) {
	case token.Null:
		return nil

	case token.Bool:
		return strings.EqualFold(raw, "true")

	case token.Int:
		n, err := strconv.ParseInt(strings.ReplaceAll(raw, "_", ""), 10, 64)
		if err != nil {
			// Matched the integer grammar but overflows int64.
			return Unescape(raw)
		}

		return n

	case token.Float:
		return coerceFloat(raw)

	default:
		return Unescape(raw)
	}
}

func coerceFloat(raw string) any {
	body := raw
	sign := 1.0

	if body != "" && (body[0] == '+' || body[0] == '-') {
		if body[0] == '-' {
			sign = -1.0
		}

		body = body[1:]
	}

	switch strings.ToLower(body) {
	case "inf":
		return math.Inf(int(sign))
	case "nan":
		return math.NaN()
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, "_", ""), 64)
	if err != nil {
		return Unescape(raw)
	}

	return f
}

// Unescape decodes the grammar's escape sequences: "\${" to a literal
// "${", doubled backslashes to single ones, and a backslash before a
// structural or quoting character to that character. A backslash
// before anything else stays literal.
func Unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder

	b.Grow(len(s))

	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)

			continue
		}

		switch {
		case strings.HasPrefix(s[i+1:], "${"):
			b.WriteString("${")

			i += 2

		case s[i+1] == '\\':
			b.WriteByte('\\')

			i++

		case escapable(s[i+1]):
			b.WriteByte(s[i+1])

			i++

		default:
			b.WriteByte('\\')
		}
	}

	return b.String()
}

// escapable reports whether ch may follow a backslash as an escape
// sequence when decoding.
func escapable(ch byte) bool {
	switch ch {
	case ' ', '\t', ',', ':', '{', '}', '[', ']', '\'', '"':
		return true
	default:
		return false
	}
}
