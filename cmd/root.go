// Package cmd implements CLI commands using cobra framework.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	configFile string
	socketPath string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ffwdd",
	Short: "ffwdd - reconnecting metric/event forwarding daemon",
	Long: `ffwdd accepts metrics and events over pluggable inbound transports,
routes them through named aggregation processors, and forwards them onward
over reconnecting outbound transports.

Features:
  - Pluggable bind/connect transports (tcp, udp, unix+tcp; unix+udp is not supported)
  - Named aggregation processors (count, rate)
  - Reconnecting outbound client with buffered or streaming delivery
  - Local control: CLI via Unix Domain Socket`,
	Version: "0.1.0",
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "/etc/ffwdd/config.yml",
		"config file path")
	rootCmd.PersistentFlags().StringVarP(&socketPath, "socket", "s", "/var/run/ffwdd.sock",
		"control socket path")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(statsCmd)
}

// exitWithError prints error message and exits with code 1
func exitWithError(msg string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", msg)
	}
	os.Exit(1)
}
