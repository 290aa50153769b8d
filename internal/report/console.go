// internal/report/console.go
// Package: report
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mwiater/gollamabench/internal/benchmark"
	"github.com/mwiater/gollamabench/internal/probe"
	"github.com/mwiater/gollamabench/internal/ranking"
	"github.com/mwiater/gollamabench/internal/results"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))
	modelStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	bestStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	faintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("230")).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("62"))
	progressRule = strings.Repeat("-", 70)
)

// Console prints benchmark progress and results for a human. It implements
// benchmark.Reporter.
type Console struct {
	Out io.Writer
}

// NewConsole returns a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{Out: w}
}

func (c *Console) printf(format string, a ...any) {
	fmt.Fprintf(c.Out, format, a...)
}

func (c *Console) println(a ...any) {
	fmt.Fprintln(c.Out, a...)
}

// Banner introduces a run.
func (c *Console) Banner(resultsFile string) {
	c.println(titleStyle.Render("Starting LLM Benchmark with Ollama..."))
	c.println("This benchmarks several LLMs and logs performance + system resource usage.")
	c.printf("Results will be saved to '%s'.\nEnsure 'ollama' is running.\n", resultsFile)
}

// SystemInfo prints the host description and its compatibility score.
func (c *Console) SystemInfo(info probe.SystemInfo) {
	c.println(titleStyle.Render("System Info:"))
	c.printf("  %-12s: %s\n", "CPU", info.CPU)
	c.printf("  %-12s: %.1f\n", "RAM (GB)", info.RAMTotalGB)
	c.printf("  %-12s: %s\n", "Platform", info.Platform)
	c.printf("  %-12s: %d\n", "Cores", info.PhysicalCores)
	c.printf("System Compatibility Score: %.2f\n", probe.CompatibilityScore(info))
	c.println(strings.Repeat("=", 60))
}

// ModelStarted implements benchmark.Reporter.
func (c *Console) ModelStarted(model string) {
	c.println(modelStyle.Render(fmt.Sprintf("--- Benchmarking %s ---", model)))
}

// SampleRecorded implements benchmark.Reporter.
func (c *Console) SampleRecorded(index, total int, s benchmark.Sample, output string) {
	c.printf("[%d/%d] Prompt: %-30s → Output: %s...\n", index, total, clip(s.Prompt, 30), clip(strings.TrimSpace(output), 60))
	c.printf("%-10s %6.2fs  |  TPS: %6.2f  |  Latency: %6.2f ms\n", "Time:", s.TotalTimeSec, s.TokensPerSec, s.LatencyMS)
	c.printf("%-10s %6.2f GB |  CPU Δ: %6.2f%%\n", "RAM Δ:", s.RAMDeltaGB, s.CPUDelta)
	c.printf("%-10s %6s°C  |  Power: %6sW  |  Score: %s\n", "Temp:",
		results.FormatMeasurement(s.Temperature), results.FormatMeasurement(s.Power), s.Quality)
	c.println(faintStyle.Render(progressRule))
}

// ModelFailed implements benchmark.Reporter.
func (c *Console) ModelFailed(err *benchmark.ModelError) {
	c.println(errorStyle.Render(fmt.Sprintf("Error benchmarking %s: %v", err.Model, err.Err)))
	c.println(faintStyle.Render(strings.Repeat("-", 60)))
}

// RankingFailed reports that no ranked table could be produced.
func (c *Console) RankingFailed(err error) {
	c.println(errorStyle.Render(fmt.Sprintf("[!] %v", err)))
}

// Ranking prints the ranked table followed by the best model.
func (c *Console) Ranking(ranked []ranking.ModelSummary, best ranking.ModelSummary) {
	c.println()
	c.println(titleStyle.Render("🏆 Model Ranking (Best to Worst):"))
	c.println(RankingTable(ranked))
	c.println()
	c.println(bestStyle.Render(fmt.Sprintf("✅ Best Model: %s (Rank %d)", best.Model, best.Rank)))
	c.println(BestLine(best))
}

// Done closes a run.
func (c *Console) Done(resultsFile string) {
	c.printf("\nBenchmark complete. Results saved in %s.\n", resultsFile)
}

// BestLine is the metric summary printed under the best model.
func BestLine(best ranking.ModelSummary) string {
	return fmt.Sprintf("   → Score: %.2f, Quality: %.2f, TPS: %.2f, Latency: %.2fms, Quantized: %s",
		best.Score, best.MeanQuality, best.TokensPerSec, best.LatencyMS, results.FormatBool(best.Quantized))
}

// RankingTable renders summaries as a bordered table.
func RankingTable(ranked []ranking.ModelSummary) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(results.RankedHeader...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	for _, s := range ranked {
		t.Row(
			strconv.Itoa(s.Rank),
			s.Model,
			fmt.Sprintf("%.2f", s.MeanQuality),
			fmt.Sprintf("%.2f", s.TokensPerSec),
			fmt.Sprintf("%.2f", s.LatencyMS),
			results.FormatBool(s.Quantized),
			fmt.Sprintf("%.4f", s.Score),
		)
	}
	return t.Render()
}

// clip shortens s to at most n runes.
func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
