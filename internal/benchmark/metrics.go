// internal/benchmark/metrics.go
// Package: benchmark
package benchmark

import "strings"

// CountTokens approximates generated tokens by whitespace-separated words.
func CountTokens(text string) int {
	return len(strings.Fields(text))
}

// Throughput returns tokens per second, or 0 when either input is not positive.
func Throughput(tokens int, totalSec float64) float64 {
	if tokens <= 0 || totalSec <= 0 {
		return 0
	}
	return float64(tokens) / totalSec
}

// LatencyMS returns milliseconds per token, or 0 when either input is not
// positive.
func LatencyMS(tokens int, totalSec float64) float64 {
	if tokens <= 0 || totalSec <= 0 {
		return 0
	}
	return totalSec / float64(tokens) * 1000
}

// IsQuantized guesses reduced precision from the model name: any "q" or
// "int", case-insensitive.
func IsQuantized(model string) bool {
	name := strings.ToLower(model)
	return strings.Contains(name, "q") || strings.Contains(name, "int")
}

// PromptFor selects prompts cyclically for repetition i.
func PromptFor(prompts []string, i int) string {
	if len(prompts) == 0 {
		return ""
	}
	return prompts[i%len(prompts)]
}
