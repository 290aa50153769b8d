// cmd/gollamabench/config_show.go
package gollamabench

import (
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

// configShowCmd prints the configuration after defaults, file, environment
// and flags have all been applied.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the resolved configuration",
	Long:  `The 'show' subcommand prints the configuration after defaults, the config file, GOLLAMABENCH_* variables and flags have been applied.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		printer := pp.New()
		printer.SetOutput(cmd.OutOrStdout())
		printer.SetColoringEnabled(false)
		printer.Println(cfg)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	addBenchmarkFlags(configShowCmd)
}
