// Command jokebox drives an in-memory joke store from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/jokebox/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
