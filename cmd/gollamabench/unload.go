// cmd/gollamabench/unload.go
package gollamabench

import (
	"github.com/spf13/cobra"
)

// unloadCmd represents the 'unload' command.
var unloadCmd = &cobra.Command{
	Use:   "unload",
	Short: "Unload resources from the Ollama host",
	Long:  `The 'unload' command frees memory on the Ollama host. Use its subcommands to specify what to unload.`,
}

func init() {
	rootCmd.AddCommand(unloadCmd)
}
