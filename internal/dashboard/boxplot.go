// internal/dashboard/boxplot.go
// Package: dashboard
package dashboard

import (
	"math"
	"strings"

	"github.com/mwiater/gollamabench/internal/stats"
)

// boxPlot draws s on a width-column axis spanning [lo, hi]:
//
//	├──[███│██]────┤
//
// whiskers run to min and max, the box covers Q1..Q3 and │ marks the median.
func boxPlot(s stats.Spread, lo, hi float64, width int) string {
	if width < 3 || s.N == 0 {
		return ""
	}
	cells := make([]rune, width)
	for i := range cells {
		cells[i] = ' '
	}

	pos := func(v float64) int {
		if hi <= lo {
			return width / 2
		}
		p := int(math.Round((v - lo) / (hi - lo) * float64(width-1)))
		return min(max(p, 0), width-1)
	}

	minP, q1P, medP, q3P, maxP := pos(s.Min), pos(s.Q1), pos(s.Median), pos(s.Q3), pos(s.Max)
	for i := minP; i <= maxP; i++ {
		cells[i] = '─'
	}
	for i := q1P; i <= q3P; i++ {
		cells[i] = '█'
	}
	if q1P < q3P {
		cells[q1P] = '['
		cells[q3P] = ']'
	}
	cells[minP] = '├'
	cells[maxP] = '┤'
	cells[medP] = '│'
	return strings.TrimRight(string(cells), " ")
}
