package main

import (
	"fmt"
	"os"

	"github.com/temirov/relicense/cmd/cli"
)

const (
	exitErrorTemplateConstant = "%v\n"
)

// main applies a license file to every repository in a result set.
func main() {
	application, buildError := cli.NewLicenserApplication()
	if buildError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, buildError)
		os.Exit(1)
	}
	if executionError := application.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(1)
	}
}
