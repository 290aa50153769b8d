package gollamabench

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/history"
	"github.com/mwiater/gollamabench/internal/probe"
	"github.com/mwiater/gollamabench/internal/ranking"
	"github.com/mwiater/gollamabench/internal/results"
)

// useConfig points the --config key at a file holding body.
func useConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	viper.Set("config", path)
	t.Cleanup(func() { viper.Set("config", nil) })
}

// runCommand executes cmd's RunE with its output captured.
func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	defer cmd.SetOut(nil)
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

func TestSysinfoCmd(t *testing.T) {
	orig := readSystemInfo
	defer func() { readSystemInfo = orig }()
	readSystemInfo = func(context.Context) (probe.SystemInfo, error) {
		return probe.SystemInfo{CPU: "Apple M2 (arm64)", RAMTotalGB: 24, Platform: "darwin", PhysicalCores: 8}, nil
	}

	out, err := runCommand(t, sysinfoCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "Apple M2 (arm64)")
	assert.Contains(t, out, "Compatibility score: 1.00")
}

func TestConfigShowCmd(t *testing.T) {
	useConfig(t, `{"models": ["phi3:mini"], "judge_model": "llama3:8b", "repeat": 4}`)

	out, err := runCommand(t, configShowCmd)
	require.NoError(t, err)
	assert.Contains(t, out, "JudgeModel")
	assert.Contains(t, out, `"llama3:8b"`)
	assert.Contains(t, out, `"phi3:mini"`)
	assert.Contains(t, out, "Repeat")
}

func TestConfigShowCmd_InvalidConfig(t *testing.T) {
	useConfig(t, `{"repeat": 0}`)

	_, err := runCommand(t, configShowCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeat must be positive")
}

// archiveRun stores one finished run with two samples and a ranking.
func archiveRun(t *testing.T, dbPath string) string {
	t.Helper()
	ctx := context.Background()
	store, err := history.Open(dbPath)
	require.NoError(t, err)
	defer store.Close()

	rec, err := store.BeginRun(ctx, config.Default(), probe.SystemInfo{CPU: "Test CPU", RAMTotalGB: 16, Platform: "linux", PhysicalCores: 4})
	require.NoError(t, err)
	require.NoError(t, rec.Write(sample("gemma:2b", 40, 25, 7)))
	require.NoError(t, rec.Write(sample("gemma:2b", 42, 24, 8)))
	require.NoError(t, rec.RecordRanking(ctx, []ranking.ModelSummary{
		{Rank: 1, Model: "gemma:2b", MeanQuality: 7.5, TokensPerSec: 41, LatencyMS: 24.5, Score: 4.25, Samples: 2},
	}))
	require.NoError(t, rec.Finish(ctx))
	return rec.ID
}

func TestHistoryListCmd(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	id := archiveRun(t, dbPath)
	useConfig(t, fmt.Sprintf(`{"history_db": %q}`, dbPath))

	out, err := runCommand(t, historyListCmd)
	require.NoError(t, err)
	assert.Contains(t, out, id[:8])
	assert.Contains(t, out, "Local Ollama")
	assert.Contains(t, out, "mistral:latest")
}

func TestHistoryListCmd_Empty(t *testing.T) {
	useConfig(t, fmt.Sprintf(`{"history_db": %q}`, filepath.Join(t.TempDir(), "history.db")))

	out, err := runCommand(t, historyListCmd)
	require.NoError(t, err)
	assert.Equal(t, "No archived runs.\n", out)
}

func TestHistoryCmd_NoDatabaseConfigured(t *testing.T) {
	useConfig(t, `{}`)

	_, err := runCommand(t, historyListCmd)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no history database configured")
}

func TestHistoryShowCmd_Export(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "history.db")
	id := archiveRun(t, dbPath)
	useConfig(t, fmt.Sprintf(`{"history_db": %q}`, dbPath))

	exportPath := filepath.Join(dir, "exported.csv")
	historyExport = exportPath
	defer func() { historyExport = "" }()

	out, err := runCommand(t, historyShowCmd, id[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "Run "+id)
	assert.Contains(t, out, "Judge: mistral:latest, repeat 3, 2 samples")
	assert.Contains(t, out, "Test CPU")
	assert.Contains(t, out, "✅ Best Model: gemma:2b (Rank 1)")
	assert.Contains(t, out, "Exported 2 samples to "+exportPath)

	samples, err := results.ReadSamples(exportPath)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.Equal(t, "gemma:2b", samples[0].Model)
	assert.Equal(t, 40.0, samples[0].TokensPerSec)
}

func TestHistoryShowCmd_UnknownRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	archiveRun(t, dbPath)
	useConfig(t, fmt.Sprintf(`{"history_db": %q}`, dbPath))

	_, err := runCommand(t, historyShowCmd, "zzzz")
	require.ErrorIs(t, err, history.ErrRunNotFound)
}
