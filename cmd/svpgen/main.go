// Package main provides the svpgen command.
package main

import (
	"errors"
	"os"

	"github.com/leapstack-labs/svpgen/internal/cli"
	"github.com/leapstack-labs/svpgen/internal/cli/commands"
)

// Exit codes.
const (
	exitOK       = 0
	exitError    = 1
	exitWarnings = 2
)

func main() {
	os.Exit(exitCode(cli.Execute()))
}

func exitCode(err error) int {
	var we *commands.WarningsError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &we):
		return exitWarnings
	default:
		return exitError
	}
}
