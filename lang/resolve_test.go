package lang

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/confkit/interp/tree"
)

func testTree() *tree.Tree {
	return tree.New(map[string]any{
		"host": "localhost",
		"port": 8080,
		"db": map[string]any{
			"host": "db.local",
			"url":  "postgres://${db.host}:${port}",
		},
		"servers": []any{"alpha", "beta"},
		"which":   "host",
		"loop": map[string]any{
			"a": "${loop.b}",
			"b": "${loop.a}",
		},
		"self": "${self}",
	})
}

func TestResolve_Literals(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		input string
		want  any
	}{
		{"", ""},
		{"plain text", "plain text"},
		{`\${escaped}`, "${escaped}"},
		{"cost: $5", "cost: $5"},
	}

	for _, tt := range tests {
		got, err := Resolve(ctx, tt.input)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.input, err)
		}

		if got != tt.want {
			t.Errorf("Resolve(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}

func TestResolve_KeyPaths(t *testing.T) {
	ctx := context.Background()
	opts := []Option{WithTree(testTree())}

	tests := []struct {
		input string
		want  any
	}{
		{"${host}", "localhost"},
		{"${port}", 8080},
		{"${db.host}", "db.local"},
		{"${servers.0}", "alpha"},
		{"${servers.1}", "beta"},
		{"a b:${port}", "a b:8080"},
		{"${${which}}", "localhost"},
		{"${db.url}", "postgres://db.local:8080"},
	}

	for _, tt := range tests {
		got, err := Resolve(ctx, tt.input, opts...)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.input, err)
		}

		if got != tt.want {
			t.Errorf("Resolve(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}
}

func TestResolve_ConcatIsString(t *testing.T) {
	ctx := context.Background()

	got, err := Resolve(ctx, "port=${port}", WithTree(testTree()))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got != "port=8080" {
		t.Errorf("got %#v, want %q", got, "port=8080")
	}
}

func TestResolve_SingleInterpolationKeepsType(t *testing.T) {
	ctx := context.Background()

	got, err := Resolve(ctx, "${port}", WithTree(testTree()))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if _, ok := got.(int); !ok {
		t.Errorf("got %T, want int", got)
	}
}

func TestResolve_KeyErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		input string
		opts  []Option
		want  error
	}{
		{
			name:  "missing key",
			input: "${nope}",
			opts:  []Option{WithTree(testTree())},
			want:  ErrKeyNotFound,
		},
		{
			name:  "missing nested key",
			input: "${db.nope}",
			opts:  []Option{WithTree(testTree())},
			want:  ErrKeyNotFound,
		},
		{
			name:  "index out of range",
			input: "${servers.9}",
			opts:  []Option{WithTree(testTree())},
			want:  ErrKeyNotFound,
		},
		{
			name:  "no tree",
			input: "${host}",
			opts:  nil,
			want:  ErrMissingTree,
		},
		{
			name:  "reference cycle",
			input: "${loop.a}",
			opts:  []Option{WithTree(testTree())},
			want:  ErrRecursiveInterpolation,
		},
		{
			name:  "self cycle",
			input: "${self}",
			opts:  []Option{WithTree(testTree())},
			want:  ErrRecursiveInterpolation,
		},
		{
			name:  "current path cycle",
			input: "${db.url}",
			opts:  []Option{WithTree(testTree()), WithCurrentPath("db.url")},
			want:  ErrRecursiveInterpolation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(ctx, tt.input, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve(%q) error = %v, want %v", tt.input, err, tt.want)
			}
		})
	}
}

func TestResolve_RecursionLimit(t *testing.T) {
	ctx := context.Background()

	chain := map[string]any{"k9": "done"}
	for i := 8; i >= 0; i-- {
		chain["k"+string(rune('0'+i))] = "${k" + string(rune('1'+i)) + "}"
	}

	_, err := Resolve(ctx, "${k0}", WithTree(tree.New(chain)), WithMaxDepth(3))
	if !errors.Is(err, ErrRecursionLimit) {
		t.Fatalf("error = %v, want ErrRecursionLimit", err)
	}

	if _, err := Resolve(ctx, "${k0}", WithTree(tree.New(chain))); err != nil {
		t.Fatalf("default depth should admit the chain: %v", err)
	}
}

func TestResolve_SegmentType(t *testing.T) {
	ctx := context.Background()

	// A nested segment resolving to a non-scalar cannot name a key.
	root := map[string]any{
		"bad": []any{int64(1)},
		"a":   map[string]any{"x": 1},
	}

	_, err := Resolve(ctx, "${a.${bad}}", WithTree(tree.New(root)))
	if !errors.Is(err, ErrGrammarType) {
		t.Fatalf("error = %v, want ErrGrammarType", err)
	}
}

func TestResolve_CustomResolver(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	err := reg.Register("upper", func(_ context.Context, call *Call) (any, error) {
		return strings.ToUpper(call.Args[0].(string)), nil
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := Resolve(ctx, "${upper:hello}", WithRegistry(reg))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got != "HELLO" {
		t.Errorf("got %#v, want %q", got, "HELLO")
	}
}

func TestResolve_StringArgs(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	var seen []any

	err := reg.Register("probe", func(_ context.Context, call *Call) (any, error) {
		seen = call.Args

		return nil, nil
	}, WithUseCache(false))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	// String materialization passes decoded source text, so the typed
	// literal 42 arrives as "42" and containers arrive stringified.
	_, err = Resolve(ctx, "${probe:42, [1, a], ${port}}",
		WithRegistry(reg), WithTree(testTree()))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	want := []any{"42", "[1, 'a']", "8080"}
	if len(seen) != len(want) {
		t.Fatalf("got %d args, want %d", len(seen), len(want))
	}

	for i, w := range want {
		if seen[i] != w {
			t.Errorf("arg %d = %#v, want %#v", i, seen[i], w)
		}
	}
}

func TestResolve_TypedArgs(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	err := reg.Register("echo", func(_ context.Context, call *Call) (any, error) {
		return call.Args[0], nil
	}, WithArgsAsStrings(false), WithUseCache(false))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	tests := []struct {
		input string
		check func(any) bool
	}{
		{"${echo:42}", func(v any) bool { return v == int64(42) }},
		{"${echo:null}", func(v any) bool { return v == nil }},
		{"${echo:[1, 2]}", func(v any) bool {
			l, ok := v.([]any)

			return ok && len(l) == 2 && l[0] == int64(1)
		}},
		{"${echo:{a: true}}", func(v any) bool {
			m, ok := v.(map[any]any)

			return ok && m["a"] == true
		}},
		// Quoting an interpolation casts its value to string.
		{"${echo:'${port}'}", func(v any) bool { return v == "8080" }},
		{"${echo:${port}}", func(v any) bool { return v == 8080 }},
	}

	for _, tt := range tests {
		got, err := Resolve(ctx, tt.input, WithRegistry(reg), WithTree(testTree()))
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.input, err)
		}

		if !tt.check(got) {
			t.Errorf("Resolve(%q) = %#v", tt.input, got)
		}
	}
}

func TestResolve_DictKeys(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	if err := reg.Register("echo", func(_ context.Context, call *Call) (any, error) {
		return call.Args[0], nil
	}, WithArgsAsStrings(false), WithUseCache(false)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := Resolve(ctx, "${echo:{1: a, true: b, k: c}}", WithRegistry(reg))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	m := got.(map[any]any)
	if m[int64(1)] != "a" || m[true] != "b" || m["k"] != "c" {
		t.Errorf("dict = %#v", m)
	}

	_, err = Resolve(ctx, "${echo:{nan: x}}", WithRegistry(reg))
	if !errors.Is(err, ErrGrammarType) {
		t.Errorf("NaN key error = %v, want ErrGrammarType", err)
	}

	_, err = Resolve(ctx, "${echo:{[1]: x}}", WithRegistry(reg))
	if err == nil {
		t.Error("container key: expected error")
	}
}

func TestResolve_UnknownResolver(t *testing.T) {
	ctx := context.Background()

	_, err := Resolve(ctx, "${ev:x}")
	if !errors.Is(err, ErrUnsupportedResolver) {
		t.Fatalf("error = %v, want ErrUnsupportedResolver", err)
	}

	// The message suggests close registered names.
	if !strings.Contains(err.Error(), "env") {
		t.Errorf("message %q does not suggest env", err)
	}
}

func TestResolve_ResolverPanic(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	if err := reg.Register("boom", func(_ context.Context, _ *Call) (any, error) {
		panic("kaput")
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := Resolve(ctx, "${boom:}", WithRegistry(reg))
	if !errors.Is(err, ErrResolution) {
		t.Fatalf("error = %v, want ErrResolution", err)
	}

	if !strings.Contains(err.Error(), "kaput") {
		t.Errorf("message %q does not carry the panic value", err)
	}
}

func TestResolve_ResolverErrorWrapped(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	cause := errors.New("backend offline")

	if err := reg.Register("fail", func(_ context.Context, _ *Call) (any, error) {
		return nil, cause
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := Resolve(ctx, "${fail:}", WithRegistry(reg))
	if !errors.Is(err, ErrResolution) || !errors.Is(err, cause) {
		t.Fatalf("error = %v, want ErrResolution wrapping the cause", err)
	}
}

func TestResolve_Env(t *testing.T) {
	ctx := context.Background()
	env := []string{
		"NAME=world",
		"NUM=42",
		"LIST=[1, 2]",
		"NESTED=${env:NAME}",
	}
	opts := []Option{WithProcessEnv(env)}

	tests := []struct {
		input string
		check func(any) bool
	}{
		{"${env:NAME}", func(v any) bool { return v == "world" }},
		{"${env:NUM}", func(v any) bool { return v == int64(42) }},
		{"${env:LIST}", func(v any) bool {
			l, ok := v.([]any)

			return ok && len(l) == 2 && l[1] == int64(2)
		}},
		{"${env:NESTED}", func(v any) bool { return v == "world" }},
		{"${env:UNSET, fallback}", func(v any) bool { return v == "fallback" }},
		{"${env:UNSET, 7}", func(v any) bool { return v == int64(7) }},
		{"hi ${env:NAME}", func(v any) bool { return v == "hi world" }},
	}

	for _, tt := range tests {
		got, err := Resolve(ctx, tt.input, opts...)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.input, err)
		}

		if !tt.check(got) {
			t.Errorf("Resolve(%q) = %#v", tt.input, got)
		}
	}

	_, err := Resolve(ctx, "${env:UNSET}", opts...)
	if !errors.Is(err, ErrMissingEnvVariable) {
		t.Errorf("error = %v, want ErrMissingEnvVariable", err)
	}
}

func TestResolve_Decode(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		input string
		check func(any) bool
	}{
		{"${decode:'[1, 2]'}", func(v any) bool {
			l, ok := v.([]any)

			return ok && len(l) == 2
		}},
		{"${decode:'42'}", func(v any) bool { return v == int64(42) }},
		{"${decode:null}", func(v any) bool { return v == nil }},
		{"${decode:'{a: 1}'}", func(v any) bool {
			m, ok := v.(map[any]any)

			return ok && m["a"] == int64(1)
		}},
	}

	for _, tt := range tests {
		got, err := Resolve(ctx, tt.input)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.input, err)
		}

		if !tt.check(got) {
			t.Errorf("Resolve(%q) = %#v", tt.input, got)
		}
	}

	if _, err := Resolve(ctx, "${decode:42}"); !errors.Is(err, ErrGrammarType) {
		t.Errorf("non-string decode error = %v, want ErrGrammarType", err)
	}
}

func TestResolve_Select(t *testing.T) {
	ctx := context.Background()
	opts := []Option{WithTree(testTree())}

	tests := []struct {
		input string
		want  any
	}{
		{"${select:'db.host'}", "db.local"},
		{"${select:'servers.1'}", "beta"},
		{"${select:'db.nope', 'fallback'}", "fallback"},
		{"${select:'nope', null}", nil},
		{"${select:'db.url'}", "postgres://db.local:8080"},
	}

	for _, tt := range tests {
		got, err := Resolve(ctx, tt.input, opts...)
		if err != nil {
			t.Fatalf("Resolve(%q): %v", tt.input, err)
		}

		if got != tt.want {
			t.Errorf("Resolve(%q) = %#v, want %#v", tt.input, got, tt.want)
		}
	}

	if _, err := Resolve(ctx, "${select:'nope'}", opts...); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("missing without default = %v, want ErrKeyNotFound", err)
	}

	if _, err := Resolve(ctx, "${select:'host'}"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("missing tree without default = %v, want ErrKeyNotFound", err)
	}
}

func TestResolve_Expr(t *testing.T) {
	ctx := context.Background()
	opts := []Option{WithProcessEnv([]string{"WHO=gopher"})}

	got, err := Resolve(ctx, "${expr:1 + 2}", opts...)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got != 3 {
		t.Errorf("got %#v, want 3", got)
	}

	got, err = Resolve(ctx, `${expr:'env("WHO") + "!"'}`, opts...)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got != "gopher!" {
		t.Errorf("got %#v, want %q", got, "gopher!")
	}

	if _, err := Resolve(ctx, "${expr:1 +}", opts...); !errors.Is(err, ErrResolution) {
		t.Errorf("bad expression error = %v, want ErrResolution", err)
	}
}

func TestResolve_Pathlist(t *testing.T) {
	ctx := context.Background()
	opts := []Option{WithProcessEnv([]string{"XPATH=/usr/bin:/bin"})}

	got, err := Resolve(ctx, "${pathlist:XPATH, /opt/bin}", opts...)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	s, ok := got.(string)
	if !ok {
		t.Fatalf("got %T, want string", got)
	}

	if !strings.HasPrefix(s, "/opt/bin") || !strings.Contains(s, "/usr/bin") {
		t.Errorf("got %q, want /opt/bin prepended to the subject", s)
	}

	got, err = Resolve(ctx, "${pathlist:UNSET_PATH, /opt/bin}", opts...)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	s, ok = got.(string)
	if !ok || strings.Trim(s, ":") != "/opt/bin" {
		t.Errorf("got %#v, want just the prefix", got)
	}
}

func TestResolve_Caching(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	calls := 0

	if err := reg.Register("count", func(_ context.Context, _ *Call) (any, error) {
		calls++

		return calls, nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for range 3 {
		got, err := Resolve(ctx, "${count:a}", WithRegistry(reg))
		if err != nil {
			t.Fatalf("Resolve: %v", err)
		}

		if got != 1 {
			t.Errorf("got %#v, want cached 1", got)
		}
	}

	if calls != 1 {
		t.Errorf("resolver ran %d times, want 1", calls)
	}

	// A different argument is a different cache entry.
	if _, err := Resolve(ctx, "${count:b}", WithRegistry(reg)); err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if calls != 2 {
		t.Errorf("resolver ran %d times, want 2", calls)
	}
}

func TestResolve_CacheDisabled(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	calls := 0

	if err := reg.Register("count", func(_ context.Context, _ *Call) (any, error) {
		calls++

		return calls, nil
	}, WithUseCache(false)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for range 2 {
		if _, err := Resolve(ctx, "${count:a}", WithRegistry(reg)); err != nil {
			t.Fatalf("Resolve: %v", err)
		}
	}

	if calls != 2 {
		t.Errorf("resolver ran %d times, want 2", calls)
	}
}

func TestResolve_FailureNotCached(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	calls := 0

	if err := reg.Register("flaky", func(_ context.Context, _ *Call) (any, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("transient")
		}

		return "ok", nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, err := Resolve(ctx, "${flaky:}", WithRegistry(reg)); err == nil {
		t.Fatal("expected first call to fail")
	}

	got, err := Resolve(ctx, "${flaky:}", WithRegistry(reg))
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if got != "ok" || calls != 2 {
		t.Errorf("got %#v after %d calls, want \"ok\" after 2", got, calls)
	}
}

func TestResolve_ConfigArg(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	if err := reg.Register("root", func(_ context.Context, call *Call) (any, error) {
		if call.Config == nil {
			return nil, errors.New("no config")
		}

		v, _ := call.Config.Get([]any{"host"})

		return v, nil
	}, WithConfigArg(true), WithUseCache(false)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := Resolve(ctx, "${root:}", WithRegistry(reg), WithTree(testTree()))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got != "localhost" {
		t.Errorf("got %#v, want %q", got, "localhost")
	}
}

func TestResolve_ParentArg(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	if err := reg.Register("sibling", func(_ context.Context, call *Call) (any, error) {
		parent, ok := call.Parent.(map[string]any)
		if !ok {
			return nil, errors.New("no parent")
		}

		return parent["host"], nil
	}, WithParentArg(true), WithUseCache(false)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := Resolve(ctx, "${sibling:}",
		WithRegistry(reg), WithTree(testTree()), WithCurrentPath("db.url"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got != "db.local" {
		t.Errorf("got %#v, want %q", got, "db.local")
	}
}

func TestResolve_NestedResolverName(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	if err := reg.Register("upper", func(_ context.Context, call *Call) (any, error) {
		return strings.ToUpper(call.Args[0].(string)), nil
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	root := map[string]any{"fn": "upper"}

	got, err := Resolve(ctx, "${${fn}:abc}", WithRegistry(reg), WithTree(tree.New(root)))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got != "ABC" {
		t.Errorf("got %#v, want %q", got, "ABC")
	}
}

func TestResolve_EnvSelfReference(t *testing.T) {
	ctx := context.Background()

	_, err := Resolve(ctx, "${env:FOO}",
		WithProcessEnv([]string{"FOO=${env:FOO}"}),
	)
	if !errors.Is(err, ErrRecursiveInterpolation) {
		t.Fatalf("error = %v, want ErrRecursiveInterpolation", err)
	}

	_, err = Resolve(ctx, "${env:FOO}",
		WithProcessEnv([]string{"FOO=${env:BAR}", "BAR=${env:FOO}"}),
	)
	if !errors.Is(err, ErrRecursiveInterpolation) {
		t.Fatalf("mutual cycle error = %v, want ErrRecursiveInterpolation", err)
	}

	// Distinct variables that merely chain are not a cycle.
	got, err := Resolve(ctx, "${env:FOO}",
		WithProcessEnv([]string{"FOO=${env:BAR}", "BAR=done"}),
	)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got != "done" {
		t.Errorf("got %#v, want %q", got, "done")
	}
}

func TestResolve_SelectSelfReference(t *testing.T) {
	ctx := context.Background()

	root := map[string]any{
		"a":    "${select:a}",
		"ping": "${select:pong}",
		"pong": "${select:ping}",
	}

	for _, input := range []string{"${select:a}", "${select:ping}"} {
		_, err := Resolve(ctx, input, WithTree(tree.New(root)))
		if !errors.Is(err, ErrRecursiveInterpolation) {
			t.Errorf("Resolve(%q) = %v, want ErrRecursiveInterpolation", input, err)
		}
	}
}

func TestResolve_ResolverReentryDepth(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry()

	// A resolver that re-resolves its own invocation inherits the
	// enclosing depth, so it hits the limit instead of the stack.
	if err := reg.Register("again", func(ctx context.Context, call *Call) (any, error) {
		return call.Resolve(ctx, "${again:}")
	}, WithUseCache(false)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := Resolve(ctx, "${again:}", WithRegistry(reg), WithMaxDepth(16))
	if !errors.Is(err, ErrRecursionLimit) {
		t.Fatalf("error = %v, want ErrRecursionLimit", err)
	}
}

func TestResolve_Keys(t *testing.T) {
	ctx := context.Background()
	opts := []Option{WithTree(testTree())}

	got, err := Resolve(ctx, "${keys:db}", opts...)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	keys, ok := got.([]any)
	if !ok || len(keys) != 2 || keys[0] != "host" || keys[1] != "url" {
		t.Errorf("got %#v, want [host url]", got)
	}

	tests := []struct {
		name  string
		input string
		opts  []Option
		want  error
	}{
		{"missing key", "${keys:nope}", opts, ErrKeyNotFound},
		{"scalar key", "${keys:port}", opts, ErrGrammarType},
		{"no tree", "${keys:db}", nil, ErrMissingTree},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(ctx, tt.input, tt.opts...)
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestResolve_Values(t *testing.T) {
	ctx := context.Background()

	got, err := Resolve(ctx, "${values:db}", WithTree(testTree()))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	vals, ok := got.([]any)
	if !ok || len(vals) != 2 {
		t.Fatalf("got %#v, want two values", got)
	}

	// Key order: host, url. The url value resolves its interpolations.
	if vals[0] != "db.local" || vals[1] != "postgres://db.local:8080" {
		t.Errorf("got %#v", vals)
	}

	_, err = Resolve(ctx, "${values:loop}", WithTree(testTree()))
	if !errors.Is(err, ErrRecursiveInterpolation) {
		t.Errorf("cyclic values error = %v, want ErrRecursiveInterpolation", err)
	}
}

func TestStringify_NaNRoundTrip(t *testing.T) {
	ctx := context.Background()

	got, err := Resolve(ctx, "x${decode:'nan'}")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	if got != "xnan" {
		t.Errorf("got %#v, want %q", got, "xnan")
	}

	v, err := Resolve(ctx, "${decode:'nan'}")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	f, ok := v.(float64)
	if !ok || !math.IsNaN(f) {
		t.Errorf("got %#v, want NaN", v)
	}
}
