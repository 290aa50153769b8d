// cmd/gollamabench/pull_models.go
package gollamabench

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/logging"
	"github.com/mwiater/gollamabench/internal/ollama"
)

// modelAdmin is the part of the Ollama API used to inspect and manage models.
type modelAdmin interface {
	Show(ctx context.Context, model string) error
	Pull(ctx context.Context, model string) error
	ListModels(ctx context.Context) ([]ollama.ModelInfo, error)
	RunningModels(ctx context.Context) ([]ollama.ModelInfo, error)
	Unload(ctx context.Context, model string) error
}

// Swapped out in tests.
var newAdmin = func(cfg *config.Config) modelAdmin {
	return ollama.NewClient(cfg.Host.URL, cfg.RequestTimeout)
}

// pullModelsCmd represents the 'pull models' command.
var pullModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Pull every configured model and the judge model",
	Long: `The 'pull models' command makes sure every benchmarked model and the judge model
are present on the Ollama host, pulling the ones that are missing.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return pullModels(cmd.Context(), newAdmin(cfg), requiredModels(cfg), cmd.OutOrStdout())
	},
}

func init() {
	pullCmd.AddCommand(pullModelsCmd)
	pullModelsCmd.Flags().String("host", "", "Ollama URL (default http://localhost:11434)")
	pullModelsCmd.Flags().StringSlice("models", nil, "models to pull, comma separated")
	pullModelsCmd.Flags().String("judge-model", "", "model that rates each answer")
}

// requiredModels is every model a run needs, judge last, without duplicates.
func requiredModels(cfg *config.Config) []string {
	seen := make(map[string]bool, len(cfg.Models)+1)
	var out []string
	for _, m := range append(append([]string{}, cfg.Models...), cfg.JudgeModel) {
		if !seen[m] {
			seen[m] = true
			out = append(out, m)
		}
	}
	return out
}

// pullModels pulls each missing model in turn. It keeps going past failures
// and returns them joined.
func pullModels(ctx context.Context, admin modelAdmin, models []string, out io.Writer) error {
	var errs []error
	for _, m := range models {
		err := admin.Show(ctx, m)
		if err == nil {
			fmt.Fprintf(out, "Model '%s' is already available locally.\n", m)
			continue
		}
		if !errors.Is(err, ollama.ErrModelNotFound) {
			errs = append(errs, &ollama.ModelUnavailableError{Model: m, Err: err})
			continue
		}

		fmt.Fprintf(out, "Model '%s' not found locally. Pulling from Ollama...\n", m)
		if err := admin.Pull(ctx, m); err != nil {
			logging.Logger.Error("pull failed", "model", m, "error", err)
			errs = append(errs, &ollama.ModelUnavailableError{Model: m, Err: err})
			continue
		}
		fmt.Fprintf(out, "Model '%s' pulled successfully.\n", m)
	}
	return errors.Join(errs...)
}
