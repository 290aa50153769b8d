// cmd/gollamabench/run.go
package gollamabench

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mwiater/gollamabench/internal/benchmark"
	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/history"
	"github.com/mwiater/gollamabench/internal/judge"
	"github.com/mwiater/gollamabench/internal/logging"
	"github.com/mwiater/gollamabench/internal/ollama"
	"github.com/mwiater/gollamabench/internal/probe"
	"github.com/mwiater/gollamabench/internal/report"
	"github.com/mwiater/gollamabench/internal/results"
)

// modelBackend serves both the benchmarked models and the judge.
type modelBackend interface {
	benchmark.Backend
	judge.Chatter
}

// Swapped out in tests.
var (
	newBackend = func(cfg *config.Config) modelBackend {
		return ollama.NewClient(cfg.Host.URL, cfg.RequestTimeout)
	}
	newProbe = func(cfg *config.Config) probe.Probe {
		return probe.NewHostProbe(cfg.CPUSampleWindow, cfg.ThermalWindow)
	}
	readSystemInfo = probe.GetSystemInfo
)

// runCmd represents the 'run' command.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full benchmark and rank the models",
	Long: `The 'run' command truncates the results table, benchmarks every configured model in
order (warm-up, timed load, then the configured number of measured samples), and
finally ranks the models into the ranked table. A model that fails is skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runBenchmark(ctx, cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	addBenchmarkFlags(runCmd)
}

// addBenchmarkFlags registers the flags that override configuration keys.
func addBenchmarkFlags(cmd *cobra.Command) {
	cmd.Flags().String("host", "", "Ollama URL (default http://localhost:11434)")
	cmd.Flags().StringSlice("models", nil, "models to benchmark, comma separated")
	cmd.Flags().String("judge-model", "", "model that rates each answer")
	cmd.Flags().Int("repeat", 0, "measured samples per model")
	cmd.Flags().String("results", "", "raw results table")
	cmd.Flags().String("ranked", "", "ranked results table")
	cmd.Flags().String("history-db", "", "archive the run to this SQLite file")
}

// runBenchmark is the whole benchmark. Only failing to create the results
// table is returned; model and ranking failures are reported and skipped.
func runBenchmark(ctx context.Context, cfg *config.Config, out io.Writer) error {
	console := report.NewConsole(out)
	console.Banner(cfg.ResultsFile)

	info, err := readSystemInfo(ctx)
	if err != nil {
		logging.Logger.Warn("could not read system info", "error", err)
	} else {
		console.SystemInfo(info)
	}

	table, err := results.CreateSampleTable(cfg.ResultsFile)
	if err != nil {
		return err
	}

	sinks := benchmark.MultiSink{table}
	archive := openArchive(ctx, cfg, info)
	if archive != nil {
		defer archive.close()
		sinks = append(sinks, &benchmark.OptionalSink{Name: "history", Sink: archive.rec})
	}

	backend := newBackend(cfg)
	runner := benchmark.NewRunner(cfg, backend, newProbe(cfg), judge.NewChatJudge(backend, cfg.JudgeModel), sinks, console)
	outcomes := runner.Run(ctx)
	if failed := benchmark.Failed(outcomes); len(failed) > 0 {
		logging.Logger.Warn("some models did not finish", "failed", len(failed), "total", len(cfg.Models))
	}

	if err := table.Close(); err != nil {
		return err
	}

	ranked, ok := rankResults(cfg, console)
	if ok && archive != nil {
		if err := archive.rec.RecordRanking(ctx, ranked); err != nil {
			logging.Logger.Warn("could not archive ranking", "error", err)
		}
	}
	if archive != nil {
		if err := archive.rec.Finish(ctx); err != nil {
			logging.Logger.Warn("could not finish archived run", "error", err)
		}
	}

	console.Done(cfg.ResultsFile)
	return nil
}

// runArchive is an open history store with the current run.
type runArchive struct {
	store *history.Store
	rec   *history.Recorder
}

func (a *runArchive) close() {
	if err := a.store.Close(); err != nil {
		logging.Logger.Warn("could not close history", "error", err)
	}
}

// openArchive starts a history run when history_db is set. The archive is
// optional, so failures are logged and the benchmark goes on without it.
func openArchive(ctx context.Context, cfg *config.Config, info probe.SystemInfo) *runArchive {
	if cfg.HistoryDB == "" {
		return nil
	}
	store, err := history.Open(cfg.HistoryDB)
	if err != nil {
		logging.Logger.Warn("history disabled", "error", err)
		return nil
	}
	rec, err := store.BeginRun(ctx, cfg, info)
	if err != nil {
		store.Close()
		logging.Logger.Warn("history disabled", "error", err)
		return nil
	}
	logging.Logger.Info("archiving run", "run_id", rec.ID, "db", cfg.HistoryDB)
	return &runArchive{store: store, rec: rec}
}

// isNotExist reports a missing results table.
func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
