package main

import (
	"fmt"
	"os"

	"github.com/temirov/debsync/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main runs debsync.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
