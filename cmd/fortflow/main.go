// Package main implements the fortflow CLI.
// It provides commands for extracting control flow graphs, logic outlines,
// and allocation summaries from Fortran source files.
package main

import (
	"os"

	"github.com/fortdoc/fortflow/cmd/fortflow/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`fortflow version {{.Version}}
`)

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
