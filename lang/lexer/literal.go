package lexer

import (
	"strings"

	"github.com/confkit/interp/lang/token"
)

// LiteralKind classifies an unquoted word by the literal grammar, in
// priority order: null keyword, bool keyword, integer, float, identifier,
// generic string. Keywords are case-insensitive. The same classification
// drives both argument tokenization and scalar coercion, so the numeric
// grammar lives here and nowhere else.
func LiteralKind(word string) token.Kind {
	switch strings.ToLower(word) {
	case "null":
		return token.Null
	case "true", "false":
		return token.Bool
	}

	switch {
	case IsInt(word):
		return token.Int
	case IsFloat(word):
		return token.Float
	case isIdent(word):
		return token.ID
	default:
		return token.Str
	}
}

// IsInt reports whether s is an integer literal: an optional sign, then
// either "0" or a nonzero digit followed by digits in optional
// single-underscore groups. Leading zeros, leading/trailing/doubled
// underscores all disqualify.
func IsInt(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	return scanUnsigned(s, i) == len(s)
}

// IsFloat reports whether s is a floating literal: point forms ("1.",
// ".5", "1.5"), exponent forms with an unsigned-integer exponent
// ("1e3", "1.e-2", "1_0e1_0"), and the case-insensitive words "inf" and
// "nan", all with an optional sign. "1e+03" is not a float: exponents
// follow the integer grammar, which forbids leading zeros.
func IsFloat(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	switch strings.ToLower(s[i:]) {
	case "inf", "nan":
		return true
	}

	j := scanUnsigned(s, i)
	if j < 0 {
		// No integer part: must be '.' digits, optionally an exponent.
		if i >= len(s) || s[i] != '.' {
			return false
		}

		k := scanDigits(s, i+1)
		if k == i+1 {
			return false
		}

		return k == len(s) || scanExponent(s, k) == len(s)
	}

	if j == len(s) {
		return false // integer, not float
	}

	switch s[j] {
	case '.':
		k := scanDigits(s, j+1)
		if k == len(s) {
			return true
		}

		return scanExponent(s, k) == len(s)

	case 'e', 'E':
		return scanExponent(s, j) == len(s)

	default:
		return false
	}
}

// scanUnsigned consumes an unsigned integer starting at i and returns
// the index just past it, or -1 if none is present. The grammar is
// "0 | [1-9] (_? [0-9])*".
func scanUnsigned(s string, i int) int {
	if i >= len(s) || !isDigit(s[i]) {
		return -1
	}

	if s[i] == '0' {
		return i + 1
	}

	i++

	for i < len(s) {
		j := i
		if s[j] == '_' {
			j++
		}

		if j >= len(s) || !isDigit(s[j]) {
			break
		}

		i = j + 1
	}

	return i
}

// scanDigits consumes a plain digit run starting at i and returns the
// index just past it. Fraction digits take no underscore groups.
func scanDigits(s string, i int) int {
	for i < len(s) && isDigit(s[i]) {
		i++
	}

	return i
}

// scanExponent consumes "[eE] [+-]? unsigned" starting at i and returns
// the index just past it, or -1.
func scanExponent(s string, i int) int {
	if i >= len(s) || (s[i] != 'e' && s[i] != 'E') {
		return -1
	}

	i++
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}

	return scanUnsigned(s, i)
}

func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}

	for i := 1; i < len(s); i++ {
		if !isIdentPart(s[i]) {
			return false
		}
	}

	return true
}
