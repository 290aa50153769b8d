// cmd/gollamabench/history_list.go
package gollamabench

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/mwiater/gollamabench/internal/history"
)

var historyLimit int

// historyListCmd represents the 'history list' command.
var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived runs, newest first",
	Long:  `The 'list' subcommand prints a table of archived runs with their host, judge model, sample count and duration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		store, err := openHistory(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.Runs(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No archived runs.")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), runsTable(runs))
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyListCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to list, 0 for all")
}

func runsTable(runs []history.Run) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "Started", "Host", "Judge", "Repeat", "Samples", "Finished")
	for _, r := range runs {
		finished := "no"
		if !r.FinishedAt.IsZero() {
			finished = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
		}
		t.Row(
			r.ID[:min(8, len(r.ID))],
			r.StartedAt.Local().Format("2006-01-02 15:04"),
			r.HostName,
			r.JudgeModel,
			strconv.Itoa(r.Repeat),
			strconv.Itoa(r.Samples),
			finished,
		)
	}
	return t.Render()
}
