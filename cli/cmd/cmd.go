// Package cmd implements the subcommands of the interp CLI.
package cmd

import (
	"context"

	"github.com/confkit/interp/log"
	"github.com/confkit/interp/tree"
)

type (
	loggerKey struct{}
	treeKey   struct{}
)

// WithLogger returns a context carrying the configured logger for
// commands to retrieve.
func WithLogger(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// Logger returns the logger from the context, or a zero-value no-op
// logger when none was stored.
func Logger(ctx context.Context) log.Logger {
	logger, ok := ctx.Value(loggerKey{}).(log.Logger)
	if !ok {
		return log.Logger{}
	}

	return logger
}

// WithTree returns a context carrying the loaded configuration tree.
func WithTree(ctx context.Context, t *tree.Tree) context.Context {
	return context.WithValue(ctx, treeKey{}, t)
}

// Tree returns the configuration tree from the context, or nil when no
// document was loaded.
func Tree(ctx context.Context) *tree.Tree {
	t, ok := ctx.Value(treeKey{}).(*tree.Tree)
	if !ok {
		return nil
	}

	return t
}
