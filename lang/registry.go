package lang

import (
	"context"
	"log/slog"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/sahilm/fuzzy"
	"github.com/zeebo/xxh3"
)

// ResolverFunc is the signature of a registered resolver. The call
// carries the materialized arguments plus whatever access the
// registration options granted.
type ResolverFunc func(ctx context.Context, call *Call) (any, error)

// Call is one resolver invocation. Config and Parent are populated
// only for resolvers registered with the corresponding option; the
// remaining methods are always available.
type Call struct {
	// Name is the resolver name as it appeared in the interpolation.
	Name string

	// Args holds the materialized arguments: decoded source text when
	// the resolver takes arguments as strings, fully typed resolved
	// values otherwise.
	Args []any

	// Config is the tree being resolved against, for resolvers
	// registered with a config argument.
	Config Tree

	// Parent is the container holding the value being resolved, for
	// resolvers registered with a parent argument.
	Parent any

	st    *state
	depth int
}

// Resolve resolves raw under the full top-level grammar, in the same
// resolution state as the enclosing call. Depth continues from the
// enclosing call, so resolver-mediated recursion still hits the
// recursion limit.
func (c *Call) Resolve(ctx context.Context, raw string) (any, error) {
	node, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	return c.st.resolve(ctx, node, c.depth+1)
}

// ResolveElement resolves raw as a single argument-grammar item, the
// grammar applied to environment variable text. Depth continues from
// the enclosing call.
func (c *Call) ResolveElement(ctx context.Context, raw string) (any, error) {
	node, err := ParseElement(raw)
	if err != nil {
		return nil, err
	}

	return c.st.resolve(ctx, node, c.depth+1)
}

// guard runs fn with sig on the resolution's active stack, so a
// resolver re-entering the same external state fails as a cycle
// instead of recursing.
func (c *Call) guard(sig string, fn func() (any, error)) (any, error) {
	s := c.st

	if slices.Contains(s.active, sig) {
		return nil, ErrRecursiveInterpolation.
			Wrap(NewError(sig)).
			With(slog.Any("chain", append(slices.Clone(s.active), sig)))
	}

	s.active = append(s.active, sig)
	defer func() { s.active = s.active[:len(s.active)-1] }()

	return fn()
}

// LookupEnv reads one variable from the resolution's process
// environment.
func (c *Call) LookupEnv(name string) (string, bool) {
	v, ok := c.st.env()[name]

	return v, ok
}

// Env returns the resolution's process environment as a map.
func (c *Call) Env() map[string]string {
	return c.st.env()
}

// Entry is one registered resolver with its invocation shape fixed at
// registration time.
type Entry struct {
	name          string
	fn            ResolverFunc
	argsAsStrings bool
	useCache      bool
	configArg     bool
	parentArg     bool

	adapter ResolverFunc
	cache   *resultCache
}

// RegisterOption configures one resolver registration.
type RegisterOption func(*Entry)

// WithArgsAsStrings controls argument materialization: true (the
// default) passes each argument's decoded source text; false passes
// fully typed resolved values.
func WithArgsAsStrings(enable bool) RegisterOption {
	return func(e *Entry) {
		e.argsAsStrings = enable
	}
}

// WithUseCache controls result caching, enabled by default. Results
// are cached per registry by resolver name and materialized arguments;
// failed resolutions are never cached.
func WithUseCache(enable bool) RegisterOption {
	return func(e *Entry) {
		e.useCache = enable
	}
}

// WithConfigArg grants the resolver access to the tree being resolved
// against through Call.Config.
func WithConfigArg(enable bool) RegisterOption {
	return func(e *Entry) {
		e.configArg = enable
	}
}

// WithParentArg grants the resolver access to the container holding
// the value being resolved through Call.Parent.
func WithParentArg(enable bool) RegisterOption {
	return func(e *Entry) {
		e.parentArg = enable
	}
}

// Registry maps resolver names to entries. Registries are explicit
// values: there is no process-wide registry, and two registries never
// share entries or cached results.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewRegistry returns a registry pre-populated with the built-in
// resolvers. Any of them may be overridden by registering the same
// name again.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[string]*Entry)}
	registerBuiltins(r)

	return r
}

// Register adds or replaces a resolver. Names follow the identifier
// grammar; anything else could never be written in an interpolation
// and is rejected.
func (r *Registry) Register(name string, fn ResolverFunc, opts ...RegisterOption) error {
	if !isIdentifier(name) {
		return ErrUnsupportedResolver.
			Wrap(NewError("name is not an identifier")).
			With(slog.String("resolver", name))
	}

	e := &Entry{
		name:          name,
		fn:            fn,
		argsAsStrings: true,
		useCache:      true,
	}

	for _, opt := range opts {
		opt(e)
	}

	// Fix the invocation shape once: the engine always calls the
	// adapter, never branches on options per call.
	e.adapter = func(ctx context.Context, call *Call) (any, error) {
		if !e.configArg {
			call.Config = nil
		}

		if !e.parentArg {
			call.Parent = nil
		}

		return e.fn(ctx, call)
	}

	if e.useCache {
		e.cache = newResultCache()
	}

	r.mu.Lock()
	r.entries[name] = e
	r.mu.Unlock()

	return nil
}

// Lookup finds a resolver by name. Unknown names fail with
// ErrUnsupportedResolver carrying the closest registered names.
func (r *Registry) Lookup(name string) (*Entry, error) {
	r.mu.RLock()
	e, ok := r.entries[name]
	r.mu.RUnlock()

	if ok {
		return e, nil
	}

	err := ErrUnsupportedResolver.With(slog.String("resolver", name))

	if similar := r.similar(name); len(similar) > 0 {
		err = err.
			Wrap(NewError(name + " (similar: " + strings.Join(similar, ", ") + ")")).
			With(slog.Any("similar", similar))
	} else {
		err = err.Wrap(NewError(name))
	}

	return nil, err
}

// Names returns the registered resolver names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.entries))

	for name := range r.entries {
		names = append(names, name)
	}

	r.mu.RUnlock()
	sort.Strings(names)

	return names
}

// similar returns up to three registered names fuzzy-matching name.
func (r *Registry) similar(name string) []string {
	matches := fuzzy.Find(name, r.Names())
	if len(matches) > 3 {
		matches = matches[:3]
	}

	similar := make([]string, len(matches))
	for i, m := range matches {
		similar[i] = m.Str
	}

	return similar
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i := range len(s) {
		c := s[i]

		alpha := c == '_' ||
			(c >= 'a' && c <= 'z') ||
			(c >= 'A' && c <= 'Z')

		if !alpha && (i == 0 || c < '0' || c > '9') {
			return false
		}
	}

	return true
}

// resultCache memoizes successful resolver invocations. Computation is
// serialized per key: the first caller computes while concurrent
// callers for the same key wait and observe its result.
type resultCache struct {
	mu      sync.Mutex
	results map[uint64]*cacheSlot
}

type cacheSlot struct {
	done  chan struct{}
	value any
	err   error
}

func newResultCache() *resultCache {
	return &resultCache{results: make(map[uint64]*cacheSlot)}
}

func (c *resultCache) getOrCompute(key uint64, compute func() (any, error)) (any, error) {
	c.mu.Lock()

	if slot, ok := c.results[key]; ok {
		c.mu.Unlock()
		<-slot.done

		return slot.value, slot.err
	}

	slot := &cacheSlot{done: make(chan struct{})}
	c.results[key] = slot
	c.mu.Unlock()

	slot.value, slot.err = compute()
	if slot.err != nil {
		// Never cache a failure.
		c.mu.Lock()
		delete(c.results, key)
		c.mu.Unlock()
	}

	close(slot.done)

	return slot.value, slot.err
}

// cacheKey hashes a resolver invocation with xxh3 over a type-tagged
// rendering of its materialized arguments plus any identity extras
// (tree pointer, current path) the entry's options make relevant.
func cacheKey(name string, args []any, extra ...string) uint64 {
	var b strings.Builder

	b.WriteString(name)

	for _, a := range args {
		b.WriteByte(0x1f)
		hashValue(&b, a)
	}

	for _, x := range extra {
		b.WriteByte(0x1e)
		b.WriteString(x)
	}

	return xxh3.HashString(b.String())
}

// hashValue renders a value for key hashing: the canonical form
// prefixed with a type tag at every level, since canonical renderings
// collide across types (int64(1) and float64(1) both print as 1).
func hashValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("z:")

	case bool:
		b.WriteString("b:")
		b.WriteString(strconv.FormatBool(val))

	case int:
		b.WriteString("i:")
		b.WriteString(strconv.Itoa(val))

	case int64:
		b.WriteString("i:")
		b.WriteString(strconv.FormatInt(val, 10))

	case float64:
		b.WriteString("f:")
		b.WriteString(formatFloat(val))

	case string:
		b.WriteString("s:")
		b.WriteString(val)

	case []any:
		b.WriteString("l[")

		for i, elem := range val {
			if i > 0 {
				b.WriteByte(0x1f)
			}

			hashValue(b, elem)
		}

		b.WriteByte(']')

	case map[any]any:
		entries := make([]string, 0, len(val))

		for k, ev := range val {
			var e strings.Builder

			hashValue(&e, k)
			e.WriteByte(0x1f)
			hashValue(&e, ev)
			entries = append(entries, e.String())
		}

		sort.Strings(entries)

		b.WriteString("d{")
		b.WriteString(strings.Join(entries, "\x1f"))
		b.WriteByte('}')

	default:
		b.WriteString("?:")
		b.WriteString(formatInner(v))
	}
}
