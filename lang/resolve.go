package lang

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Resolve parses raw under the full top-level grammar and resolves it
// to a typed value. Resolution is all-or-nothing: the first failing
// sub-expression aborts the whole call.
func Resolve(ctx context.Context, raw string, opts ...Option) (any, error) {
	node, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	return ResolveNode(ctx, node, opts...)
}

// ResolveNode resolves an already-parsed expression tree.
func ResolveNode(ctx context.Context, node *Node, opts ...Option) (any, error) {
	s := &state{}

	applyDefaults(s)
	applyOptions(s, opts...)

	if s.registry == nil {
		s.registry = NewRegistry()
	}

	if s.current != "" {
		// The value being resolved lives at this path; referring back
		// to it is already a cycle.
		s.active = append(s.active, s.current)
	}

	return s.resolve(ctx, node, 0)
}

// resolve evaluates one node, depth tracking every descent into parts,
// segments, arguments, elements, and re-resolved tree values.
func (s *state) resolve(ctx context.Context, n *Node, depth int) (any, error) {
	if depth > s.maxDepth {
		return nil, ErrRecursionLimit.
			With(slog.Int("max_depth", s.maxDepth))
	}

	switch n.Kind {
	case LiteralNode:
		return n.Value, nil

	case ConcatNode:
		var b strings.Builder

		for _, part := range n.Parts {
			v, err := s.resolve(ctx, part, depth+1)
			if err != nil {
				return nil, err
			}

			b.WriteString(Stringify(v))
		}

		return b.String(), nil

	case KeyPathNode:
		return s.resolveKeyPath(ctx, n, depth)

	case CallNode:
		return s.resolveCall(ctx, n, depth)

	case ListItemNode:
		elems := make([]any, len(n.Elems))

		for i, elem := range n.Elems {
			v, err := s.resolve(ctx, elem, depth+1)
			if err != nil {
				return nil, err
			}

			elems[i] = v
		}

		return elems, nil

	case DictItemNode:
		dict := make(map[any]any, len(n.Pairs))

		for _, pair := range n.Pairs {
			k, err := s.resolve(ctx, pair.Key, depth+1)
			if err != nil {
				return nil, err
			}

			if err := validDictKey(k); err != nil {
				return nil, err
			}

			v, err := s.resolve(ctx, pair.Val, depth+1)
			if err != nil {
				return nil, err
			}

			dict[k] = v
		}

		return dict, nil

	default:
		return nil, ErrResolution.
			Wrap(fmt.Errorf("unknown node kind %v", n.Kind))
	}
}

// resolveKeyPath materializes the path segments, guards against
// re-entering a path already being resolved, navigates the tree, and
// re-resolves fetched strings that themselves contain interpolations.
func (s *state) resolveKeyPath(ctx context.Context, n *Node, depth int) (any, error) {
	segs := make([]any, len(n.Segments))

	for i, seg := range n.Segments {
		switch seg.Kind {
		case SegmentName:
			segs[i] = seg.Name

		case SegmentIndex:
			segs[i] = seg.Index

		case SegmentNode:
			v, err := s.resolve(ctx, seg.Node, depth+1)
			if err != nil {
				return nil, err
			}

			switch val := v.(type) {
			case string:
				segs[i] = val
			case int:
				segs[i] = val
			case int64:
				segs[i] = int(val)
			default:
				return nil, ErrGrammarType.
					Wrap(NewError("key segment must resolve to a string or integer")).
					With(slog.Any("segment", v))
			}
		}
	}

	sig := pathSignature(segs)

	if slices.Contains(s.active, sig) {
		return nil, ErrRecursiveInterpolation.
			Wrap(NewError(sig)).
			With(slog.Any("chain", append(slices.Clone(s.active), sig)))
	}

	s.active = append(s.active, sig)
	defer func() { s.active = s.active[:len(s.active)-1] }()

	if s.tree == nil {
		return nil, ErrMissingTree.Wrap(NewError(sig))
	}

	v, ok := s.tree.Get(segs)
	if !ok {
		return nil, ErrKeyNotFound.Wrap(NewError(sig))
	}

	s.logger.TraceContext(ctx, "key path resolved",
		slog.String("key", sig),
	)

	// A fetched string may itself contain interpolations; resolve it
	// with this path still active so reference cycles surface.
	if str, ok := v.(string); ok && strings.Contains(str, "${") {
		node, err := Parse(str)
		if err != nil {
			return nil, err
		}

		return s.resolve(ctx, node, depth+1)
	}

	return v, nil
}

// resolveCall resolves the resolver name, materializes the arguments
// per the entry's options, consults the cache, and invokes the
// adapter.
func (s *state) resolveCall(ctx context.Context, n *Node, depth int) (any, error) {
	name := n.Name

	if n.NameNode != nil {
		v, err := s.resolve(ctx, n.NameNode, depth+1)
		if err != nil {
			return nil, err
		}

		str, ok := v.(string)
		if !ok {
			return nil, ErrGrammarType.
				Wrap(NewError("resolver name must resolve to a string")).
				With(slog.Any("name", v))
		}

		name = str
	}

	entry, err := s.registry.Lookup(name)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(n.Args))

	for i, arg := range n.Args {
		if entry.argsAsStrings && arg.Kind == LiteralNode {
			args[i] = arg.Text

			continue
		}

		v, err := s.resolve(ctx, arg, depth+1)
		if err != nil {
			return nil, err
		}

		if entry.argsAsStrings {
			v = Stringify(v)
		}

		args[i] = v
	}

	call := &Call{Name: name, Args: args, st: s, depth: depth}

	if entry.configArg {
		call.Config = s.tree
	}

	if entry.parentArg && s.tree != nil && s.current != "" {
		if parent, ok := s.tree.Parent(splitPath(s.current)); ok {
			call.Parent = parent
		}
	}

	invoke := func() (v any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = ErrResolution.
					Wrap(fmt.Errorf("panic: %v", r)).
					With(slog.String("resolver", name))
			}
		}()

		s.logger.TraceContext(ctx, "invoking resolver",
			slog.String("resolver", name),
			slog.Int("args", len(args)),
		)

		v, err = entry.adapter(ctx, call)
		if err != nil && !errors.Is(err, ErrResolution) {
			err = ErrResolution.
				Wrap(err).
				With(slog.String("resolver", name))
		}

		return v, err
	}

	if entry.cache == nil {
		return invoke()
	}

	extra := make([]string, 0, 2)

	if entry.configArg {
		extra = append(extra, fmt.Sprintf("%p", s.tree))
	}

	if entry.parentArg {
		extra = append(extra, s.current)
	}

	return entry.cache.getOrCompute(cacheKey(name, args, extra...), invoke)
}

// validDictKey rejects values that cannot key a dict: containers and
// NaN, whose reflexive inequality would make the entry unreachable.
func validDictKey(k any) error {
	switch key := k.(type) {
	case nil, bool, int, int64, string:
		return nil

	case float64:
		if math.IsNaN(key) {
			return ErrGrammarType.
				Wrap(NewError("NaN is not a valid dict key"))
		}

		return nil

	default:
		return ErrGrammarType.
			Wrap(NewError("dict key must be a primitive")).
			With(slog.Any("key", k))
	}
}

// pathSignature renders materialized segments in dotted form, the form
// used for cycle detection and error reporting.
func pathSignature(segs []any) string {
	var b strings.Builder

	for i, seg := range segs {
		if i > 0 {
			b.WriteByte('.')
		}

		switch v := seg.(type) {
		case string:
			b.WriteString(v)
		case int:
			b.WriteString(strconv.Itoa(v))
		}
	}

	return b.String()
}

// splitPath parses a dotted path back into segments, digit runs
// becoming list indices.
func splitPath(path string) []any {
	if path == "" {
		return nil
	}

	parts := strings.Split(path, ".")
	segs := make([]any, len(parts))

	for i, part := range parts {
		if idx, err := strconv.Atoi(part); err == nil && part != "" && part[0] != '-' {
			segs[i] = idx

			continue
		}

		segs[i] = part
	}

	return segs
}
