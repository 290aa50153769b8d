// internal/judge/score.go
// Package: judge
package judge

import (
	"fmt"
	"strconv"
	"strings"
)

// NA is written wherever a score or optional reading is absent.
const NA = "N/A"

// Score is a judge rating in [1,10], or Unavailable.
type Score struct {
	value float64
	ok    bool
}

// Unavailable is the score of an answer the judge could not rate.
var Unavailable = Score{}

// Available returns a present score. Callers clamp beforehand.
func Available(v float64) Score { return Score{value: v, ok: true} }

// Value returns the score and whether it is available.
func (s Score) Value() (float64, bool) { return s.value, s.ok }

// IsAvailable reports whether the judge produced a rating.
func (s Score) IsAvailable() bool { return s.ok }

// String formats the score for tables: the shortest float form, or "N/A".
func (s Score) String() string {
	if !s.ok {
		return NA
	}
	return strconv.FormatFloat(s.value, 'f', -1, 64)
}

// ParseCell reads a table cell written by String. Empty and "N/A" cells are
// Unavailable.
func ParseCell(cell string) (Score, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == NA {
		return Unavailable, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return Unavailable, fmt.Errorf("invalid score %q: %w", cell, err)
	}
	return Available(v), nil
}
