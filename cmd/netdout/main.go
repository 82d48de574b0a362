// netdout - background download agent
package main

import (
	"fmt"
	"os"

	"github.com/netdout/netdout/internal/cli"
)

var Version = "0.1.0"

func main() {
	cli.Version = Version

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
