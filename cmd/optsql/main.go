// Command optsql compiles query option documents to SQL.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/optsql/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
