package lang

import (
	"os"
	"strings"

	"github.com/confkit/interp/log"
)

// DefaultMaxDepth bounds recursion across nested interpolations and
// container literals during resolution.
const DefaultMaxDepth = 200

// Tree is the read-only accessor the resolution engine navigates when
// it encounters a key path. Segment values are string (map keys) or
// int (list indices). The engine owns no tree of its own; every lookup
// goes through this contract.
type Tree interface {
	// Get returns the value at the given path, or false when any
	// segment is absent or a non-container is indexed.
	Get(segments []any) (any, bool)

	// Parent returns the container holding the value at the given
	// path, for resolvers registered with a parent argument.
	Parent(segments []any) (any, bool)
}

// state holds one resolution's configuration and progress.
type state struct {
	tree       Tree
	registry   *Registry
	maxDepth   int
	current    string
	processEnv []string
	logger     log.Logger

	envMap map[string]string
	active []string // key paths currently being resolved
}

// Option configures resolution behavior.
type Option func(*state)

// WithTree sets the configuration tree key paths navigate. Without a
// tree every key path fails with ErrMissingTree.
func WithTree(tree Tree) Option {
	return func(s *state) {
		s.tree = tree
	}
}

// WithRegistry sets the resolver registry. If not provided, a fresh
// registry holding only the built-in resolvers is used.
func WithRegistry(reg *Registry) Option {
	return func(s *state) {
		s.registry = reg
	}
}

// WithMaxDepth sets the maximum recursion depth across nested
// interpolations and containers.
func WithMaxDepth(depth int) Option {
	return func(s *state) {
		s.maxDepth = depth
	}
}

// WithCurrentPath declares the dotted tree path the value being
// resolved lives at, so a value that refers back to its own key is
// caught as a cycle instead of recursing forever.
func WithCurrentPath(path string) Option {
	return func(s *state) {
		s.current = path
	}
}

// WithProcessEnv sets the environment variables visible to the env,
// expr, and pathlist resolvers. The format is []string{"KEY=VALUE",
// ...}. If nil, os.Environ() is used.
func WithProcessEnv(env []string) Option {
	return func(s *state) {
		s.processEnv = env
	}
}

// WithLogger sets the structured logger for trace-level debugging.
// If not provided, the logger is zero-valued and all logging is a no-op.
func WithLogger(logger log.Logger) Option {
	return func(s *state) {
		s.logger = logger
	}
}

// applyDefaults sets default option values on a state.
func applyDefaults(s *state) {
	s.maxDepth = DefaultMaxDepth
}

// applyOptions applies functional options to a state.
func applyOptions(s *state, opts ...Option) {
	for _, opt := range opts {
		opt(s)
	}
}

// env returns the process environment as a map, built on first use
// from the configured list or from os.Environ.
func (s *state) env() map[string]string {
	if s.envMap != nil {
		return s.envMap
	}

	list := s.processEnv
	if list == nil {
		list = os.Environ()
	}

	s.envMap = make(map[string]string, len(list))

	for _, kv := range list {
		if k, v, ok := strings.Cut(kv, "="); ok {
			s.envMap[k] = v
		}
	}

	return s.envMap
}
