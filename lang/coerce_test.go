package lang

import (
	"math"
	"testing"
)

func TestCoerce(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"null", nil},
		{"NULL", nil},
		{"true", true},
		{"False", false},
		{"0", int64(0)},
		{"42", int64(42)},
		{"-7", int64(-7)},
		{"1_000_000", int64(1000000)},
		{"3.14", 3.14},
		{"-2.5", -2.5},
		{"1e3", 1000.0},
		{"1.", 1.0},
		{".5", 0.5},
		{"inf", math.Inf(1)},
		{"-INF", math.Inf(-1)},
		{"abc", "abc"},
		{"a b", "a b"},
		{"007", "007"},
		{"1e+03", "1e+03"},
		{"0x10", "0x10"},
		{`\${x}`, "${x}"},
		{`a\,b`, "a,b"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Coerce(tt.raw); got != tt.want {
			t.Errorf("Coerce(%q) = %#v, want %#v", tt.raw, got, tt.want)
		}
	}
}

func TestCoerce_NaN(t *testing.T) {
	for _, raw := range []string{"nan", "NaN", "-nan"} {
		f, ok := Coerce(raw).(float64)
		if !ok || !math.IsNaN(f) {
			t.Errorf("Coerce(%q) = %#v, want NaN", raw, Coerce(raw))
		}
	}
}

func TestCoerce_IntOverflow(t *testing.T) {
	// Matches the integer grammar but exceeds int64; falls back to the
	// string form.
	raw := "9223372036854775808"
	if got := Coerce(raw); got != raw {
		t.Errorf("Coerce(%q) = %#v, want the string unchanged", raw, got)
	}
}

func TestUnescape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{`\${x}`, "${x}"},
		{`\\`, `\`},
		{`\\\\`, `\\`},
		{`a\,b`, "a,b"},
		{`a\ b`, "a b"},
		{`\:`, ":"},
		{`\[\]`, "[]"},
		{`\'`, "'"},
		{`\a`, `\a`},
		{`tail\`, `tail\`},
	}

	for _, tt := range tests {
		if got := Unescape(tt.in); got != tt.want {
			t.Errorf("Unescape(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
