// cmd/gollamabench/config.go
package gollamabench

import (
	"github.com/spf13/cobra"
)

// configCmd groups commands that inspect the resolved configuration.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the benchmark configuration",
	Long:  `The 'config' command groups subcommands that inspect the configuration. It performs no action on its own.`,
}

func init() {
	rootCmd.AddCommand(configCmd)
}
