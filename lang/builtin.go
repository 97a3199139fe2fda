package lang

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/ardnew/mung"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// registerBuiltins installs the default resolvers on a new registry.
// All of them read ambient state (environment, tree) on every access,
// so none participate in result caching.
func registerBuiltins(r *Registry) {
	_ = r.Register("env", envResolver,
		WithArgsAsStrings(false),
		WithUseCache(false),
	)
	_ = r.Register("decode", decodeResolver,
		WithArgsAsStrings(false),
		WithUseCache(false),
	)
	_ = r.Register("select", selectResolver,
		WithArgsAsStrings(false),
		WithUseCache(false),
		WithConfigArg(true),
	)
	_ = r.Register("keys", keysResolver,
		WithArgsAsStrings(false),
		WithUseCache(false),
		WithConfigArg(true),
	)
	_ = r.Register("values", valuesResolver,
		WithArgsAsStrings(false),
		WithUseCache(false),
		WithConfigArg(true),
	)
	_ = r.Register("expr", exprResolver,
		WithUseCache(false),
	)
	_ = r.Register("pathlist", pathlistResolver,
		WithUseCache(false),
	)
}

// envResolver reads a process environment variable. The variable's
// text is re-interpreted through the full item grammar, so it may
// carry lists, dicts, or further interpolations. A second argument is
// returned as-is when the variable is unset.
func envResolver(ctx context.Context, call *Call) (any, error) {
	if len(call.Args) < 1 || len(call.Args) > 2 {
		return nil, NewError("env expects a variable name and an optional default")
	}

	name, ok := call.Args[0].(string)
	if !ok {
		return nil, ErrGrammarType.
			Wrap(NewError("environment variable name must be a string")).
			With(slog.Any("name", call.Args[0]))
	}

	val, found := call.LookupEnv(name)
	if !found {
		if len(call.Args) == 2 {
			return call.Args[1], nil
		}

		return nil, ErrMissingEnvVariable.Wrap(NewError(name))
	}

	// Guard against the variable's text referring back to itself.
	return call.guard("env:"+name, func() (any, error) {
		return call.ResolveElement(ctx, val)
	})
}

// decodeResolver re-interprets a string through the single-item
// grammar. Null passes through so decoding an unset default stays
// null.
func decodeResolver(ctx context.Context, call *Call) (any, error) {
	if len(call.Args) != 1 {
		return nil, NewError("decode expects exactly one argument")
	}

	switch arg := call.Args[0].(type) {
	case nil:
		return nil, nil

	case string:
		return call.ResolveElement(ctx, arg)

	default:
		return nil, ErrGrammarType.
			Wrap(NewError("decode expects a string or null")).
			With(slog.Any("value", call.Args[0]))
	}
}

// selectResolver looks up a dotted key in the tree, returning an
// optional default instead of failing when the key is absent.
func selectResolver(ctx context.Context, call *Call) (any, error) {
	if len(call.Args) < 1 || len(call.Args) > 2 {
		return nil, NewError("select expects a key and an optional default")
	}

	key, ok := call.Args[0].(string)
	if !ok {
		return nil, ErrGrammarType.
			Wrap(NewError("select key must be a string")).
			With(slog.Any("key", call.Args[0]))
	}

	missing := func() (any, error) {
		if len(call.Args) == 2 {
			return call.Args[1], nil
		}

		return nil, ErrKeyNotFound.Wrap(NewError(key))
	}

	if call.Config == nil {
		return missing()
	}

	v, found := call.Config.Get(splitPath(key))
	if !found {
		return missing()
	}

	if str, ok := v.(string); ok && strings.Contains(str, "${") {
		// The selected path joins the active stack exactly as a direct
		// key-path reference would, so select cycles surface as cycles.
		return call.guard(pathSignature(splitPath(key)), func() (any, error) {
			return call.Resolve(ctx, str)
		})
	}

	return v, nil
}

// dictAt fetches the dict at a dotted key for the keys and values
// resolvers, splitting it into entries sorted by rendered key.
func dictAt(call *Call) (keys, vals []any, err error) {
	if len(call.Args) != 1 {
		return nil, nil, NewError(call.Name + " expects exactly one key")
	}

	key, ok := call.Args[0].(string)
	if !ok {
		return nil, nil, ErrGrammarType.
			Wrap(NewError(call.Name + " key must be a string")).
			With(slog.Any("key", call.Args[0]))
	}

	if call.Config == nil {
		return nil, nil, ErrMissingTree.Wrap(NewError(key))
	}

	v, found := call.Config.Get(splitPath(key))
	if !found {
		return nil, nil, ErrKeyNotFound.Wrap(NewError(key))
	}

	var pairs [][2]any

	switch m := v.(type) {
	case map[string]any:
		for k, mv := range m {
			pairs = append(pairs, [2]any{k, mv})
		}

	case map[any]any:
		for k, mv := range m {
			pairs = append(pairs, [2]any{k, mv})
		}

	default:
		return nil, nil, ErrGrammarType.
			Wrap(NewError(key + " is not a dict")).
			With(slog.Any("value", v))
	}

	sort.Slice(pairs, func(i, j int) bool {
		return Stringify(pairs[i][0]) < Stringify(pairs[j][0])
	})

	keys = make([]any, len(pairs))
	vals = make([]any, len(pairs))

	for i, p := range pairs {
		keys[i] = p[0]
		vals[i] = p[1]
	}

	return keys, vals, nil
}

// keysResolver lists the keys of the dict at a dotted key, sorted by
// their rendered form.
func keysResolver(_ context.Context, call *Call) (any, error) {
	keys, _, err := dictAt(call)
	if err != nil {
		return nil, err
	}

	return keys, nil
}

// valuesResolver lists the values of the dict at a dotted key, in key
// order, resolving any value that itself contains interpolations.
func valuesResolver(ctx context.Context, call *Call) (any, error) {
	_, vals, err := dictAt(call)
	if err != nil {
		return nil, err
	}

	for i, v := range vals {
		str, ok := v.(string)
		if !ok || !strings.Contains(str, "${") {
			continue
		}

		resolved, err := call.Resolve(ctx, str)
		if err != nil {
			return nil, err
		}

		vals[i] = resolved
	}

	return vals, nil
}

// exprResolver evaluates an expression over the process environment,
// exposed as the env() function.
func exprResolver(_ context.Context, call *Call) (any, error) {
	if len(call.Args) != 1 {
		return nil, NewError("expr expects exactly one argument")
	}

	source, ok := call.Args[0].(string)
	if !ok {
		return nil, NewError("expr source must be a string")
	}

	env := map[string]any{
		"env": func(key string) string {
			return call.Env()[key]
		},
	}

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, NewError("expression compilation failed").
			Wrap(err).
			With(slog.String("source", source))
	}

	out, err := vm.Run(program, env)
	if err != nil {
		return nil, NewError("expression evaluation failed").
			Wrap(err).
			With(slog.String("source", source))
	}

	return out, nil
}

// pathlistResolver prepends entries to a PATH-like environment
// variable, deduplicating through mung. An unset variable yields just
// the prefixes.
func pathlistResolver(_ context.Context, call *Call) (any, error) {
	if len(call.Args) < 1 {
		return nil, NewError("pathlist expects a variable name and optional prefixes")
	}

	name, ok := call.Args[0].(string)
	if !ok {
		return nil, NewError("pathlist variable name must be a string")
	}

	subject, _ := call.LookupEnv(name)

	prefixes := make([]string, 0, len(call.Args)-1)

	for _, arg := range call.Args[1:] {
		p, ok := arg.(string)
		if !ok {
			return nil, NewError("pathlist prefixes must be strings")
		}

		prefixes = append(prefixes, p)
	}

	return mung.Make(
		mung.WithSubjectItems(subject),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefixes...),
	).String(), nil
}
