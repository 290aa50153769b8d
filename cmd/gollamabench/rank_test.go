package gollamabench

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/gollamabench/internal/benchmark"
	"github.com/mwiater/gollamabench/internal/judge"
	"github.com/mwiater/gollamabench/internal/probe"
	"github.com/mwiater/gollamabench/internal/results"
)

func writeSamples(t *testing.T, path string, samples ...benchmark.Sample) {
	t.Helper()
	table, err := results.CreateSampleTable(path)
	require.NoError(t, err)
	for _, s := range samples {
		require.NoError(t, table.Write(s))
	}
	require.NoError(t, table.Close())
}

func sample(model string, tps, latency, quality float64) benchmark.Sample {
	return benchmark.Sample{
		Model: model, Prompt: "p", TokensGenerated: 10, TotalTimeSec: 1,
		LatencyMS: latency, TokensPerSec: tps, Temperature: probe.Absent, Power: probe.Absent,
		Quantized: benchmark.IsQuantized(model), Quality: judge.Available(quality),
	}
}

func TestRankCmd_RewritesRankedTableAndMarkdown(t *testing.T) {
	dir := t.TempDir()
	resultsPath := filepath.Join(dir, "results.csv")
	rankedPath := filepath.Join(dir, "ranked.csv")
	writeSamples(t, resultsPath,
		sample("slow:7b", 10, 100, 5),
		sample("fast:q4", 40, 25, 6),
	)

	cfgPath := filepath.Join(dir, "config.json")
	body := fmt.Sprintf(`{"results_file": %q, "ranked_file": %q}`, resultsPath, rankedPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	viper.Set("config", cfgPath)
	defer viper.Set("config", nil)

	mdPath := filepath.Join(dir, "ranking.md")
	rankMarkdownOut = mdPath
	defer func() { rankMarkdownOut = "" }()

	var out bytes.Buffer
	rankCmd.SetOut(&out)
	defer rankCmd.SetOut(nil)

	require.NoError(t, rankCmd.RunE(rankCmd, nil))
	assert.Contains(t, out.String(), "🏆 Model Ranking (Best to Worst):")

	ranked, err := results.ReadRanked(rankedPath)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "fast:q4", ranked[0].Model)

	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# LLM Benchmark Ranking")
	assert.Contains(t, string(md), "**Best model:** `fast:q4`")
}

func TestRankCmd_EmptyTable(t *testing.T) {
	dir := t.TempDir()
	resultsPath := filepath.Join(dir, "results.csv")
	rankedPath := filepath.Join(dir, "ranked.csv")
	writeSamples(t, resultsPath)

	cfgPath := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf("results_file: %s\nranked_file: %s\n", resultsPath, rankedPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))
	viper.Set("config", cfgPath)
	defer viper.Set("config", nil)

	var out bytes.Buffer
	rankCmd.SetOut(&out)
	defer rankCmd.SetOut(nil)

	require.Error(t, rankCmd.RunE(rankCmd, nil))
	assert.Contains(t, out.String(), "could not summarize results")
	assert.NoFileExists(t, rankedPath)
}
