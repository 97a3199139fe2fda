package cli

import (
	"io"

	"github.com/alecthomas/kong"

	"github.com/confkit/interp/log"
)

type logConfig struct {
	Level      string `default:"info"    enum:"trace,debug,info,warn,error" help:"Set log level."`
	Format     string `default:"text"    enum:"text,json"                   help:"Set log format."`
	TimeLayout string `default:"RFC3339"                                    help:"Set timestamp layout."`
	Caller     bool   `default:"false"                                      help:"Include caller information." negatable:""`
	Pretty     bool   `default:"false"                                      help:"Colorize text output."       negatable:""`
}

func (logConfig) group() kong.Group {
	return kong.Group{
		Key:   "log",
		Title: "Logging options",
	}
}

// make builds the logger from the parsed flags.
func (f logConfig) make(w io.Writer) log.Logger {
	return log.Make(w,
		log.WithLevel(log.ParseLevel(f.Level)),
		log.WithFormat(log.ParseFormat(f.Format)),
		log.WithTimeLayout(f.TimeLayout),
		log.WithCaller(f.Caller),
		log.WithPretty(f.Pretty),
	)
}
