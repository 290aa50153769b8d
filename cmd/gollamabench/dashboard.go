// cmd/gollamabench/dashboard.go
package gollamabench

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/gollamabench/internal/dashboard"
)

// startDashboard is swapped out in tests.
var startDashboard = dashboard.Start

// dashboardCmd represents the 'dashboard' command.
var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Browse benchmark results in a terminal dashboard",
	Long: `The 'dashboard' command opens an interactive view of the ranked and raw results
tables, with per-model spreads of every metric. Press 'r' inside the dashboard to
run a fresh benchmark.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return startDashboard(cfg, viper.GetString("config"))
	},
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
	dashboardCmd.Flags().String("results", "", "raw results table")
	dashboardCmd.Flags().String("ranked", "", "ranked results table")
}
