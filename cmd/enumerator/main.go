package main

import (
	"fmt"
	"os"

	"github.com/temirov/relicense/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main lists a user's unlicensed public repositories.
func main() {
	application, buildError := cli.NewEnumeratorApplication()
	if buildError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, buildError)
		os.Exit(1)
	}
	if executionError := application.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
