package main

import (
	"fmt"
	"os"

	"github.com/temirov/relicense/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main executes the relicense command-line application.
func main() {
	application, buildError := cli.NewApplication()
	if buildError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, buildError)
		os.Exit(1)
	}
	if executionError := application.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
