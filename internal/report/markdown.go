// internal/report/markdown.go
// Package: report
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/mwiater/gollamabench/internal/probe"
	"github.com/mwiater/gollamabench/internal/ranking"
	"github.com/mwiater/gollamabench/internal/results"
)

// Markdown builds a shareable ranking report. info may be nil when the host
// that produced the samples is unknown.
func Markdown(info *probe.SystemInfo, ranked []ranking.ModelSummary) string {
	var b strings.Builder
	b.WriteString("# LLM Benchmark Ranking\n\n")

	if info != nil {
		b.WriteString("## System\n\n")
		fmt.Fprintf(&b, "- **CPU:** %s\n", info.CPU)
		fmt.Fprintf(&b, "- **RAM:** %.1f GB\n", info.RAMTotalGB)
		fmt.Fprintf(&b, "- **Platform:** %s\n", info.Platform)
		fmt.Fprintf(&b, "- **Cores:** %d\n", info.PhysicalCores)
		fmt.Fprintf(&b, "- **Compatibility score:** %.2f\n\n", probe.CompatibilityScore(*info))
	}

	b.WriteString("## Ranking\n\n")
	b.WriteString("| " + strings.Join(results.RankedHeader, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(results.RankedHeader)) + "\n")
	for _, s := range ranked {
		fmt.Fprintf(&b, "| %d | %s | %.2f | %.2f | %.2f | %s | %.4f |\n",
			s.Rank, s.Model, s.MeanQuality, s.TokensPerSec, s.LatencyMS, results.FormatBool(s.Quantized), s.Score)
	}

	if len(ranked) > 0 {
		best := ranked[0]
		fmt.Fprintf(&b, "\n**Best model:** `%s` (score %.2f)\n", best.Model, best.Score)
	}
	return b.String()
}

// RenderMarkdown styles md for the terminal, wrapping at width columns.
func RenderMarkdown(md string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return r.Render(md)
}
