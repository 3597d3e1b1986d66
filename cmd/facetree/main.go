// Command facetree runs permission-aware searches over a fixture file.
//
// Logging:
//   - The logger is built from the [log] section of the config file
//   - It is passed to the engine and every command, never set globally
package main

import (
	"os"

	"github.com/hupe1980/facetree/cmd/facetree/cli"
)

var version = "dev"

func main() {
	if err := cli.NewRootCommand(version).Execute(); err != nil {
		os.Exit(1)
	}
}
