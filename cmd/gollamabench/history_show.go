// cmd/gollamabench/history_show.go
package gollamabench

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mwiater/gollamabench/internal/report"
	"github.com/mwiater/gollamabench/internal/results"
)

var historyExport string

// historyShowCmd represents the 'history show' command.
var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one archived run and its ranking",
	Long: `The 'show' subcommand prints the host, judge and ranking of an archived run. A unique
prefix of the run id is enough. With --export the run's samples are written back out
as a results table that 'rank' and 'dashboard' can read.`,
	Args: cobra.ExactArgs(1),
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

		ctx := cmd.Context()
		run, err := store.Run(ctx, args[0])
		if err != nil {
			return err
		}
		ranked, err := store.Rankings(ctx, run.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		console := report.NewConsole(out)
		fmt.Fprintf(out, "Run %s\n", run.ID)
		fmt.Fprintf(out, "Host: %s (%s)\n", run.HostName, run.HostURL)
		fmt.Fprintf(out, "Judge: %s, repeat %d, %d samples\n", run.JudgeModel, run.Repeat, run.Samples)
		fmt.Fprintf(out, "Started: %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
		console.SystemInfo(run.System)
		if len(ranked) > 0 {
			console.Ranking(ranked, ranked[0])
		} else {
			fmt.Fprintln(out, "No ranking was recorded for this run.")
		}

		if historyExport == "" {
			return nil
		}
		samples, err := store.Samples(ctx, run.ID)
		if err != nil {
			return err
		}
		table, err := results.CreateSampleTable(historyExport)
		if err != nil {
			return err
		}
		for _, s := range samples {
			if err := table.Write(s); err != nil {
				table.Close()
				return err
			}
		}
		if err := table.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Exported %d samples to %s.\n", len(samples), historyExport)
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyShowCmd)
	historyShowCmd.Flags().StringVar(&historyExport, "export", "", "write the run's samples to this results table")
}
