package cli

import (
	"context"
	"log/slog"

	"github.com/alecthomas/kong"

	"github.com/confkit/interp/log"
	"github.com/confkit/interp/profile"
)

type pprofConfig struct {
	Mode string `default:""            enum:",${pprofModeEnum}" help:"Enable profiling"          placeholder:"mode" short:"p"`
	Dir  string `default:"${pprofDir}"                          help:"Profile output directory."                    type:"path"`
}

func (pprofConfig) group() kong.Group {
	return kong.Group{
		Key:   "pprof",
		Title: "Profiling (pprof)",
	}
}

// start starts profiling if a mode was selected; the returned handle
// is always safe to Stop.
func (f pprofConfig) start(ctx context.Context, logger log.Logger) interface{ Stop() } {
	if f.Mode != "" {
		logger.DebugContext(ctx, "pprof start",
			slog.String("mode", f.Mode),
			slog.String("dir", f.Dir),
		)
	}

	var cfg profile.Config = func() (string, string, bool) {
		return "", "", false
	}

	cfg = profile.WithMode(f.Mode)(cfg)
	cfg = profile.WithPath(f.Dir)(cfg)
	cfg = profile.WithQuiet(true)(cfg)

	return cfg.Start()
}
