// Command activeset compiles activation presets, runs scenarios against
// them, and inspects the recorded event logs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/activeset/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
