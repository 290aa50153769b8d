// cmd/gollamabench/sysinfo.go
package gollamabench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/gollamabench/internal/probe"
	"github.com/mwiater/gollamabench/internal/report"
)

// sysinfoCmd represents the 'sysinfo' command.
var sysinfoCmd = &cobra.Command{
	Use:   "sysinfo",
	Short: "Show the host hardware and its compatibility score",
	Long:  `The 'sysinfo' command prints the CPU, memory, platform and core count recorded with every benchmark, plus a rough score of how well the host suits local models.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := readSystemInfo(cmd.Context())
		if err != nil {
			return err
		}
		report.NewConsole(cmd.OutOrStdout()).SystemInfo(info)
		fmt.Fprintf(cmd.OutOrStdout(), "Compatibility score: %.2f\n", probe.CompatibilityScore(info))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sysinfoCmd)
}
