package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/brimdata/parq/cli"
	_ "github.com/brimdata/parq/cmd/parq/inspect"
	_ "github.com/brimdata/parq/cmd/parq/levels"
	_ "github.com/brimdata/parq/cmd/parq/rewrite"
	"github.com/brimdata/parq/cmd/parq/root"
	_ "github.com/brimdata/parq/cmd/parq/schema"
)

func main() {
	if err := root.Parq.ExecRoot(os.Args[1:]); err != nil && !errors.Is(err, cli.ErrExit) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
