package cli

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/confkit/interp/pkg"
)

// cacheDir returns the per-user cache directory for profiler output,
// falling back to the working directory.
var cacheDir = sync.OnceValue(
	func() string {
		dir, err := os.UserCacheDir()
		if err != nil {
			return "."
		}

		return filepath.Join(dir, pkg.Name)
	},
)

// configPath returns the path of the optional JSON file supplying
// default flag values.
var configPath = sync.OnceValue(
	func() string {
		dir, err := os.UserConfigDir()
		if err != nil {
			return filepath.Join(".", pkg.Name+".json")
		}

		return filepath.Join(dir, pkg.Name, "config.json")
	},
)
