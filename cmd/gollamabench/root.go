// cmd/gollamabench/root.go
package gollamabench

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/logging"
)

// cfgFile holds the --config flag; commands read it through viper.
var cfgFile string

// rootCmd is the base Cobra command for the gollamabench application.
// All subcommands are attached to this root to form the complete CLI.
var rootCmd = &cobra.Command{
	Use:   "gollamabench",
	Short: "Benchmark and rank local Ollama models",
	Long: `gollamabench measures load time, throughput, latency, resource usage and an
LLM-judged quality score for each configured Ollama model, then ranks the models
by a composite score.`,
	SilenceUsage: true,
}

// Execute runs the root Cobra command and all registered subcommands.
// It prints any returned error and exits the process with a non-zero
// status code on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default ./config.json)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

// loadConfig resolves the configuration for cmd: defaults, the config file,
// GOLLAMABENCH_* variables, then any flags the user set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"), cmd.Flags())
	if err != nil {
		return nil, err
	}
	logging.SetDebug(cfg.Debug)
	return cfg, nil
}
