package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/confkit/interp/lang"
)

// Check validates value syntax without resolving: every value is lexed
// and parsed, and failures are reported with source snippets.
type Check struct {
	Element bool `help:"Parse as single argument-grammar items instead of top-level text."`

	Values []string `arg:"" help:"Value strings to validate." required:""`
}

// Run implements the check command.
func (c *Check) Run(_ context.Context) error {
	parse := func(raw string) error {
		_, err := lang.Parse(raw)

		return err
	}

	if c.Element {
		parse = func(raw string) error {
			_, err := lang.ParseElement(raw)

			return err
		}
	}

	failed := 0

	for _, value := range c.Values {
		if err := parse(value); err != nil {
			failed++

			fmt.Fprintf(os.Stderr, "invalid: %q\n%v\n", value, err)

			continue
		}

		fmt.Fprintf(os.Stdout, "ok: %q\n", value)
	}

	if failed > 0 {
		return lang.ErrParse.
			Wrap(fmt.Errorf("%d of %d values invalid", failed, len(c.Values)))
	}

	return nil
}
