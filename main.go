// Package main is the entry point for the ffwdd forwarding daemon.
package main

import (
	"fmt"
	"os"

	"github.com/relaydaemon/ffwdd/cmd"
	_ "github.com/relaydaemon/ffwdd/plugins" // registers built-in input/output plugins
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
