package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/confkit/interp/lang"
)

// Eval resolves value strings against the optional configuration tree
// and prints the typed results.
type Eval struct {
	Output   string `default:"yaml" enum:"yaml,json" help:"Output encoding." short:"o"`
	MaxDepth int    `default:"200"                   help:"Maximum resolution depth."`
	At       string `help:"Tree path the values live at, for cycle detection." placeholder:"dotted.path"`

	Values []string `arg:"" help:"Value strings to resolve." required:""`
}

// Run implements the eval command.
func (e *Eval) Run(ctx context.Context) error {
	logger := Logger(ctx)

	opts := []lang.Option{
		lang.WithLogger(logger),
		lang.WithMaxDepth(e.MaxDepth),
	}

	if t := Tree(ctx); t != nil {
		opts = append(opts, lang.WithTree(t))
	}

	if e.At != "" {
		opts = append(opts, lang.WithCurrentPath(e.At))
	}

	results := make([]any, len(e.Values))

	for i, value := range e.Values {
		v, err := lang.Resolve(ctx, value, opts...)
		if err != nil {
			logger.ErrorContext(ctx, "resolution failed",
				slog.String("value", value),
				slog.Any("error", err),
			)

			return err
		}

		results[i] = v
	}

	var out any = results
	if len(results) == 1 {
		out = results[0]
	}

	return e.write(os.Stdout, out)
}

func (e *Eval) write(w *os.File, out any) error {
	switch e.Output {
	case "json":
		data, err := json.MarshalIndent(jsonReady(out), "", "  ")
		if err != nil {
			return err
		}

		_, err = fmt.Fprintln(w, string(data))

		return err

	default:
		data, err := yaml.Marshal(out)
		if err != nil {
			return err
		}

		_, err = fmt.Fprint(w, string(data))

		return err
	}
}

// jsonReady rewrites interface-keyed maps into string-keyed ones,
// which encoding/json requires.
func jsonReady(v any) any {
	switch val := v.(type) {
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			m[lang.Stringify(k)] = jsonReady(item)
		}

		return m

	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = jsonReady(item)
		}

		return items

	default:
		return v
	}
}
