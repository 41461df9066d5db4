package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/relaydaemon/ffwdd/internal/plugin"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List discovered plugins and their capabilities",
	RunE:  runPlugins,
}

func runPlugins(cmd *cobra.Command, args []string) error {
	names := plugin.Names()
	sort.Strings(names)
	for _, name := range names {
		caps := plugin.Capabilities(name)
		fmt.Printf("%-16s %v\n", name, caps)
	}
	return nil
}
