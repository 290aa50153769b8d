// cmd/gollamabench/rank.go
package gollamabench

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/logging"
	"github.com/mwiater/gollamabench/internal/ranking"
	"github.com/mwiater/gollamabench/internal/report"
	"github.com/mwiater/gollamabench/internal/results"
)

var (
	rankMarkdown    bool
	rankMarkdownOut string
)

// rankCmd represents the 'rank' command.
var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank an existing results table",
	Long: `The 'rank' command re-reads the raw results table, recomputes the composite score
of every model and overwrites the ranked table, without running any model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		ranked, ok := rankResults(cfg, report.NewConsole(out))
		if !ok {
			return errors.New("no ranking produced")
		}

		md := report.Markdown(nil, ranked)
		if rankMarkdownOut != "" {
			if err := os.WriteFile(rankMarkdownOut, []byte(md), 0o644); err != nil {
				return fmt.Errorf("could not write markdown report: %w", err)
			}
		}
		if rankMarkdown {
			rendered, err := report.RenderMarkdown(md, markdownWidth())
			if err != nil {
				return err
			}
			fmt.Fprint(out, rendered)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().String("results", "", "raw results table")
	rankCmd.Flags().String("ranked", "", "ranked results table")
	rankCmd.Flags().BoolVar(&rankMarkdown, "markdown", false, "also render the ranking as a markdown report")
	rankCmd.Flags().StringVar(&rankMarkdownOut, "markdown-out", "", "write the markdown report to this file")
}

// rankResults ranks the raw table into the ranked table and prints it. Any
// failure is reported and leaves the raw table untouched.
func rankResults(cfg *config.Config, console *report.Console) ([]ranking.ModelSummary, bool) {
	samples, err := results.ReadSamples(cfg.ResultsFile)
	if err != nil {
		if isNotExist(err) {
			err = fmt.Errorf("no results table at %s", cfg.ResultsFile)
		}
		console.RankingFailed(fmt.Errorf("could not summarize results: %w", err))
		logging.Logger.Error("ranking skipped", "error", err)
		return nil, false
	}

	ranked, best, err := ranking.Summarize(samples)
	if err != nil {
		console.RankingFailed(err)
		logging.Logger.Error("ranking skipped", "error", err)
		return nil, false
	}

	console.Ranking(ranked, best)
	if err := results.WriteRanked(cfg.RankedFile, ranked); err != nil {
		console.RankingFailed(err)
		logging.Logger.Error("ranked table not written", "error", err)
		return ranked, false
	}
	return ranked, true
}

// markdownWidth wraps to the terminal, or 100 columns when stdout is not one.
func markdownWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 20 {
		return w - 4
	}
	return 100
}
