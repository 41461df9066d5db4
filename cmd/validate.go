package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaydaemon/ffwdd/internal/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file without starting the daemon",
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	if _, err := config.Load(configFile); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	fmt.Printf("%s: ok\n", configFile)
	return nil
}
