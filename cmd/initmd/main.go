// Command initmd compiles literate Neovim configurations from the command
// line: apply runs the full pipeline, plan previews it, preview renders the
// documents, and watch reruns apply on change.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
