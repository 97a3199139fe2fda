// Package profile wraps [github.com/pkg/profile] behind a small
// functional configuration so the CLI can expose profiling as plain
// flags. An empty mode makes Start a no-op; both Start and Stop are
// always safe to call.
package profile

import (
	"maps"
	"slices"
	"sync"

	"github.com/pkg/profile"
)

// Config functions return all supported profiler configuration
// parameters.
type Config func() (mode, path string, quiet bool)

// Start initializes the profiler and returns a handle for stopping
// it. An unset or unknown mode returns a no-op handle.
func (c Config) Start() interface{ Stop() } {
	mode, path, quiet := c()

	fn, ok := modes[mode]
	if !ok {
		return ignore{}
	}

	opts := []func(*profile.Profile){fn}

	if path != "" {
		opts = append(opts, profile.ProfilePath(path))
	}

	if quiet {
		opts = append(opts, profile.Quiet)
	}

	return profile.Start(opts...)
}

// WithMode returns a functional option for setting a profiler's mode.
func WithMode(mode string) func(Config) Config {
	return func(c Config) Config {
		_, path, quiet := c()

		return func() (string, string, bool) {
			return mode, path, quiet
		}
	}
}

// WithPath returns a functional option for setting a profiler's output
// directory.
func WithPath(path string) func(Config) Config {
	return func(c Config) Config {
		mode, _, quiet := c()

		return func() (string, string, bool) {
			return mode, path, quiet
		}
	}
}

// WithQuiet returns a functional option for suppressing the profiler's
// own logging.
func WithQuiet(quiet bool) func(Config) Config {
	return func(c Config) Config {
		mode, path, _ := c()

		return func() (string, string, bool) {
			return mode, path, quiet
		}
	}
}

// Modes returns the sorted list of supported profiling modes.
var Modes = sync.OnceValue(
	func() []string {
		return slices.Sorted(maps.Keys(modes))
	},
)

var modes = map[string]func(*profile.Profile){
	"allocs":    profile.MemProfileAllocs,
	"block":     profile.BlockProfile,
	"clock":     profile.ClockProfile,
	"cpu":       profile.CPUProfile,
	"goroutine": profile.GoroutineProfile,
	"heap":      profile.MemProfileHeap,
	"mem":       profile.MemProfile,
	"mutex":     profile.MutexProfile,
	"thread":    profile.ThreadcreationProfile,
	"trace":     profile.TraceProfile,
}

type ignore struct{}

func (ignore) Stop() {}
