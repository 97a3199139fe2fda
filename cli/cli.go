// Package cli wires the interp command-line interface: flag parsing,
// logger and profiler setup, and tree loading, with the subcommands
// implemented in cli/cmd.
package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/confkit/interp/cli/cmd"
	"github.com/confkit/interp/pkg"
	"github.com/confkit/interp/profile"
	"github.com/confkit/interp/tree"
)

// CLI is the top-level command-line interface for interp.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Config  string           `help:"YAML document to resolve values against." name:"config" short:"c" type:"existingfile"`
	Version kong.VersionFlag `help:"Print version and exit."`

	Eval   cmd.Eval   `cmd:"" default:"withargs" help:"Resolve values to typed results"`
	Tokens cmd.Tokens `cmd:""                    help:"Dump the token stream of a value"`
	Check  cmd.Check  `cmd:""                    help:"Validate values without resolving"`
}

// Run executes the interp CLI with the given context and arguments.
// The exit function is called with the appropriate exit code when kong
// terminates early (help, errors).
func Run(ctx context.Context, exit func(code int), args ...string) error {
	var cli CLI

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Pprof.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact: true,
				Summary: true,
			}),
		kong.Configuration(kong.JSON, configPath()),
		kong.Vars{
			"version":       strings.TrimSpace(pkg.Version),
			"pprofModeEnum": strings.Join(profile.Modes(), ","),
			"pprofDir":      filepath.Join(cacheDir(), "pprof"),
		},
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	logger := cli.Log.make(os.Stderr)
	ctx = cmd.WithLogger(ctx, logger)

	if cli.Config != "" {
		t, err := tree.FromFile(cli.Config)
		if err != nil {
			return err
		}

		ctx = cmd.WithTree(ctx, t)
	}

	defer cli.Pprof.start(ctx, logger).Stop()

	return ktx.Run(ctx)
}
