// Package main provides the ocalc command.
package main

import (
	"os"

	"github.com/hatomachi/ocalc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
