// cmd/gollamabench/unload_models.go
package gollamabench

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// unloadModelsCmd represents the 'unload models' command.
var unloadModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Unload every model currently loaded on the Ollama host",
	Long: `The 'unload models' command evicts every running model so the next benchmark
starts from a cold host and measures real load times.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return unloadModels(cmd.Context(), newAdmin(cfg), cmd.OutOrStdout())
	},
}

func init() {
	unloadCmd.AddCommand(unloadModelsCmd)
	unloadModelsCmd.Flags().String("host", "", "Ollama URL (default http://localhost:11434)")
}

func unloadModels(ctx context.Context, admin modelAdmin, out io.Writer) error {
	running, err := admin.RunningModels(ctx)
	if err != nil {
		return err
	}
	if len(running) == 0 {
		fmt.Fprintln(out, "No models are currently loaded.")
		return nil
	}

	var errs []error
	for _, m := range running {
		fmt.Fprintf(out, "  -> Unloading model: %s\n", m.Name)
		if err := admin.Unload(ctx, m.Name); err != nil {
			errs = append(errs, fmt.Errorf("could not unload %s: %w", m.Name, err))
		}
	}
	fmt.Fprintln(out, "All model unload commands have finished.")
	return errors.Join(errs...)
}
