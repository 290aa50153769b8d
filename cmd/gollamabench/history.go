// cmd/gollamabench/history.go
package gollamabench

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/history"
)

// historyCmd groups commands that read the run archive.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse archived benchmark runs",
	Long:  `The 'history' command groups subcommands that read runs archived with --history-db. It performs no action on its own.`,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.PersistentFlags().String("history-db", "", "SQLite archive to read")
}

// openHistory opens the configured archive for reading.
func openHistory(cfg *config.Config) (*history.Store, error) {
	if cfg.HistoryDB == "" {
		return nil, errors.New("no history database configured; set history_db or pass --history-db")
	}
	return history.Open(cfg.HistoryDB)
}
