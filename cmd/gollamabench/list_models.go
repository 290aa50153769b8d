// cmd/gollamabench/list_models.go
package gollamabench

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/ollama"
)

var (
	nodeStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	modelStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	loadedModelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	missingModelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// listModelsCmd implements 'list models', which enumerates all models on
// the configured host and marks the benchmarked and loaded ones.
var listModelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List all models on the Ollama host",
	Long: `The 'models' subcommand lists every model installed on the Ollama host, marks the
ones the benchmark uses and the ones currently loaded, and names configured models
that still need to be pulled.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return listModels(cmd.Context(), cfg, newAdmin(cfg), cmd.OutOrStdout())
	},
}

func init() {
	listCmd.AddCommand(listModelsCmd)
	listModelsCmd.Flags().String("host", "", "Ollama URL (default http://localhost:11434)")
}

func listModels(ctx context.Context, cfg *config.Config, admin modelAdmin, out io.Writer) error {
	var installed, running []ollama.ModelInfo
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		installed, err = admin.ListModels(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		running, err = admin.RunningModels(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("could not list models on %s: %w", cfg.Host.Name, err)
	}

	loaded := make(map[string]struct{}, len(running))
	for _, m := range running {
		loaded[m.Name] = struct{}{}
	}
	wanted := make(map[string]struct{})
	for _, m := range requiredModels(cfg) {
		wanted[m] = struct{}{}
	}

	fmt.Fprintln(out, nodeStyle.Render(fmt.Sprintf("%s (%s):", cfg.Host.Name, cfg.Host.URL)))
	for _, m := range installed {
		line := fmt.Sprintf("- %s (%s)", m.Name, humanize.Bytes(uint64(max(m.Size, 0))))
		if _, ok := wanted[m.Name]; ok {
			line += " [benchmark]"
			delete(wanted, m.Name)
		}
		if _, ok := loaded[m.Name]; ok {
			fmt.Fprintln(out, loadedModelStyle.Render(line+" (CURRENTLY LOADED)"))
			continue
		}
		fmt.Fprintln(out, modelStyle.Render(line))
	}
	for _, m := range requiredModels(cfg) {
		if _, missing := wanted[m]; missing {
			fmt.Fprintln(out, missingModelStyle.Render(fmt.Sprintf("- %s (NOT INSTALLED)", m)))
		}
	}
	return nil
}
