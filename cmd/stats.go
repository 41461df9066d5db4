package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/relaydaemon/ffwdd/internal/control"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the running daemon's component counters",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	client := control.NewClient(socketPath, 0)
	resp, err := client.Stats()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(resp.Result, "", "  ")
	if err != nil {
		return fmt.Errorf("stats: encoding response: %w", err)
	}
	fmt.Println(string(data))
	return nil
}
