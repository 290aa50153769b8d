// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultConfigName is the file looked up in the working directory when no
// explicit --config path is given.
const DefaultConfigName = "config"

// EnvPrefix prefixes environment overrides, e.g. GOLLAMABENCH_REPEAT=5.
const EnvPrefix = "GOLLAMABENCH"

// Host identifies the Ollama endpoint that serves every benchmarked model.
type Host struct {
	// Name is a user-friendly label, for example "Local Ollama".
	Name string `mapstructure:"name" json:"name"`
	// URL is the HTTP endpoint, such as "http://localhost:11434".
	URL string `mapstructure:"url" json:"url"`
}

// Config is the complete, immutable configuration of one benchmark process.
// It is loaded once at start and passed explicitly to the measurement loop and
// the ranking step.
type Config struct {
	Host Host `mapstructure:"host" json:"host"`
	// Models lists the model identifiers to benchmark, in order.
	Models []string `mapstructure:"models" json:"models"`
	// JudgeModel rates every generated answer.
	JudgeModel string `mapstructure:"judge_model" json:"judge_model"`
	// Repeat is the number of timed samples per model.
	Repeat int `mapstructure:"repeat" json:"repeat"`
	// Prompts are selected cyclically, so len(Prompts) need not divide Repeat.
	Prompts []string `mapstructure:"prompts" json:"prompts"`

	ResultsFile string `mapstructure:"results_file" json:"results_file"`
	RankedFile  string `mapstructure:"ranked_file" json:"ranked_file"`

	// RequestTimeout bounds a single chat, show or pull request.
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`
	// CPUSampleWindow is the blocking window of each CPU utilization sample.
	CPUSampleWindow time.Duration `mapstructure:"cpu_sample_window" json:"cpu_sample_window"`
	// ThermalWindow is the powermetrics sampling window. Zero disables the
	// thermal/power probe entirely.
	ThermalWindow time.Duration `mapstructure:"thermal_window" json:"thermal_window"`

	// HistoryDB is an optional SQLite archive of finished runs. Empty disables it.
	HistoryDB string `mapstructure:"history_db" json:"history_db"`

	Debug bool `mapstructure:"debug" json:"debug"`
}

// DefaultModels are benchmarked when the configuration names none.
var DefaultModels = []string{
	"llama3.1:8b",
	"qwen2.5:3b",
	"gemma:2b",
}

// DefaultPrompts is the fixed prompt list used for every model.
var DefaultPrompts = []string{
	"What is the capital of France?",
	"Summarize the theory of relativity.",
	"Write a short poem about AI.",
	"Translate 'Good morning' to French.",
	"Who won the FIFA World Cup in 2018?",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host.name", "Local Ollama")
	v.SetDefault("host.url", "http://localhost:11434")
	v.SetDefault("models", DefaultModels)
	v.SetDefault("judge_model", "mistral:latest")
	v.SetDefault("repeat", 3)
	v.SetDefault("prompts", DefaultPrompts)
	v.SetDefault("results_file", "benchmark_results.csv")
	v.SetDefault("ranked_file", "ranked_benchmark_results.csv")
	v.SetDefault("request_timeout", 5*time.Minute)
	v.SetDefault("cpu_sample_window", time.Second)
	v.SetDefault("thermal_window", time.Second)
	v.SetDefault("history_db", "")
	v.SetDefault("debug", false)
}

// flagKeys maps CLI flag names onto configuration keys. Only flags that exist
// on the given FlagSet and were changed by the user take effect.
var flagKeys = map[string]string{
	"host":        "host.url",
	"models":      "models",
	"judge-model": "judge_model",
	"repeat":      "repeat",
	"results":     "results_file",
	"ranked":      "ranked_file",
	"history-db":  "history_db",
	"debug":       "debug",
}

// Default returns the configuration used when no file, environment or flag
// overrides anything.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load resolves the configuration from defaults, the config file at path (or
// ./config.{json,yaml,toml} when path is empty), GOLLAMABENCH_* environment
// variables and finally the changed flags in flags, which may be nil.
//
// A missing default file is not an error; a missing explicit file is.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("could not bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("could not parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first configuration problem that would make a
// benchmark run meaningless.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Host.URL) == "":
		return errors.New("config must contain a host url")
	case len(c.Models) == 0:
		return errors.New("config must contain at least one model")
	case strings.TrimSpace(c.JudgeModel) == "":
		return errors.New("config must name a judge model")
	case c.Repeat <= 0:
		return fmt.Errorf("repeat must be positive, got %d", c.Repeat)
	case len(c.Prompts) == 0:
		return errors.New("config must contain at least one prompt")
	case c.ResultsFile == "" || c.RankedFile == "":
		return errors.New("config must name both result files")
	}
	return nil
}
