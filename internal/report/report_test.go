package report

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/gollamabench/internal/benchmark"
	"github.com/mwiater/gollamabench/internal/judge"
	"github.com/mwiater/gollamabench/internal/probe"
	"github.com/mwiater/gollamabench/internal/ranking"
)

var ranked = []ranking.ModelSummary{
	{Rank: 1, Model: "qwen2.5:3b", MeanQuality: 8.3333, TokensPerSec: 30, LatencyMS: 33.3, Quantized: true, Score: 4.5431},
	{Rank: 2, Model: "gemma:2b", MeanQuality: 6.3333, TokensPerSec: 40, LatencyMS: 25, Quantized: false, Score: 3.6667},
}

func TestSampleRecorded(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)

	s := benchmark.Sample{
		Prompt:       "Summarize the theory of relativity in detail please.",
		TotalTimeSec: 2.5,
		TokensPerSec: 40,
		LatencyMS:    25,
		RAMDeltaGB:   -0.5,
		CPUDelta:     12,
		Temperature:  probe.Absent,
		Power:        probe.Some(9.5),
		Quality:      judge.Available(8),
	}
	c.SampleRecorded(2, 3, s, "  "+strings.Repeat("x", 80)+"  ")

	out := buf.String()
	assert.Contains(t, out, "[2/3] Prompt: Summarize the theory of relati → Output: "+strings.Repeat("x", 60)+"...")
	assert.Contains(t, out, "Time:        2.50s  |  TPS:  40.00  |  Latency:  25.00 ms")
	assert.Contains(t, out, "RAM Δ:      -0.50 GB |  CPU Δ:  12.00%")
	assert.Contains(t, out, "N/A°C  |  Power:   9.50W  |  Score: 8")
	assert.Contains(t, out, strings.Repeat("-", 70))
}

func TestSampleRecordedUnavailableScore(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).SampleRecorded(1, 1, benchmark.Sample{Prompt: "hi", Quality: judge.Unavailable}, "")
	assert.Contains(t, buf.String(), "Score: N/A")
}

func TestModelEvents(t *testing.T) {
	var buf bytes.Buffer
	c := NewConsole(&buf)
	c.ModelStarted("gemma:2b")
	c.ModelFailed(&benchmark.ModelError{Model: "gemma:2b", Stage: benchmark.StageEnsure, Err: errors.New("pull failed")})

	out := buf.String()
	assert.Contains(t, out, "--- Benchmarking gemma:2b ---")
	assert.Contains(t, out, "Error benchmarking gemma:2b: pull failed")
}

func TestSystemInfo(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).SystemInfo(probe.SystemInfo{CPU: "arm", RAMTotalGB: 16, Platform: "darwin-macOS-15.1-arm64", PhysicalCores: 10})

	out := buf.String()
	assert.Contains(t, out, "  CPU         : arm")
	assert.Contains(t, out, "  RAM (GB)    : 16.0")
	assert.Contains(t, out, "  Cores       : 10")
	assert.Contains(t, out, "System Compatibility Score: 1.00")
}

func TestRankingPrintsBestRow(t *testing.T) {
	var buf bytes.Buffer
	NewConsole(&buf).Ranking(ranked, ranked[0])

	out := buf.String()
	assert.Contains(t, out, "Model Ranking (Best to Worst):")
	assert.Contains(t, out, "Best Model: qwen2.5:3b (Rank 1)")
	assert.Contains(t, out, "→ Score: 4.54, Quality: 8.33, TPS: 30.00, Latency: 33.30ms, Quantized: True")
	assert.Contains(t, out, "gemma:2b")
	assert.Less(t, strings.Index(out, "qwen2.5:3b"), strings.Index(out, "gemma:2b"))
}

func TestMarkdown(t *testing.T) {
	info := &probe.SystemInfo{CPU: "Apple M2", RAMTotalGB: 24, Platform: "darwin", PhysicalCores: 8}
	md := Markdown(info, ranked)

	assert.Contains(t, md, "# LLM Benchmark Ranking")
	assert.Contains(t, md, "- **Compatibility score:** 0.67")
	assert.Contains(t, md, "| Rank | Model | LLM Quality Score (1-10) |")
	assert.Contains(t, md, "| 1 | qwen2.5:3b | 8.33 | 30.00 | 33.30 | True | 4.5431 |")
	assert.Contains(t, md, "**Best model:** `qwen2.5:3b`")

	noInfo := Markdown(nil, nil)
	assert.NotContains(t, noInfo, "## System")
	assert.NotContains(t, noInfo, "Best model")
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown(Markdown(nil, ranked), 100)
	require.NoError(t, err)
	assert.Contains(t, out, "qwen2.5:3b")
}
