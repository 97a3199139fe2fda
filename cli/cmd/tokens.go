package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/confkit/interp/lang/lexer"
	"github.com/confkit/interp/lang/token"
)

// Tokens dumps the token stream of a value, one token per line, for
// debugging grammar questions.
type Tokens struct {
	Element bool `help:"Lex as a single argument-grammar item instead of top-level text."`

	Value string `arg:"" help:"Value string to tokenize." required:""`
}

// Run implements the tokens command.
func (t *Tokens) Run(_ context.Context) error {
	tokenize := lexer.Tokenize
	if t.Element {
		tokenize = lexer.TokenizeElement
	}

	toks, err := tokenize(t.Value)
	if err != nil {
		return err
	}

	for _, tok := range toks {
		if tok.Kind == token.EOF {
			break
		}

		fmt.Fprintf(os.Stdout, "%4d:%-3d %s\n",
			tok.Pos.Line, tok.Pos.Column, tok,
		)
	}

	return nil
}
