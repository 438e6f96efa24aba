// Command blup keeps the AUR package blacklist in sync with the official
// repositories.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/blup/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "blup: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
