// Package main provides the entry point for the whosaid CLI.
package main

import (
	"fmt"
	"os"

	"github.com/Aman-CERP/whosaid/cmd/whosaid/cmd"
	werrors "github.com/Aman-CERP/whosaid/internal/errors"
)

func main() {
	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprint(os.Stderr, werrors.FormatForCLI(err))
		os.Exit(1)
	}
}
