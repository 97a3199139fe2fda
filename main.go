package main

import (
	"context"
	"fmt"
	"os"

	"github.com/confkit/interp/cli"
)

func main() {
	err := cli.Run(context.Background(), os.Exit, os.Args[1:]...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
