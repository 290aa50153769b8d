// cmd/gollamabench/pull.go
package gollamabench

import (
	"github.com/spf13/cobra"
)

// pullCmd represents the 'pull' command.
var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Pull resources to the Ollama host",
	Long:  `The 'pull' command is used to pull resources to the Ollama host. Use its subcommands to specify what to pull.`,
}

func init() {
	rootCmd.AddCommand(pullCmd)
}
