// Package pkg holds project metadata shared by the CLI and build
// tooling.
package pkg

import (
	_ "embed"
)

// Version is the semantic version of the module embedded at build
// time. The CLI prints it for the version flag.
//
//go:embed VERSION
var Version string

const (
	// Name is the canonical command and module identifier used in help
	// text and default cache paths.
	Name = "interp"
	// Description is a short, human-readable summary of the project
	// used in help output.
	Description = "String interpolation for configuration values"
)
