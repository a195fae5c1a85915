// Package main is the devmirror command line.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// main runs the root command and maps failures to a non-zero exit.
func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
