package main

import (
	"fmt"
	"os"

	"github.com/go-go-golems/askchat/cmd/askchat/cmds"
	"github.com/pkg/errors"
)

func main() {
	rootCmd := cmds.NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		var exitErr *cmds.ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
