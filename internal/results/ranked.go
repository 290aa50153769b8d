// internal/results/ranked.go
// Package: results
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mwiater/gollamabench/internal/ranking"
)

// RankedHeader is the column order of the ranked summary table.
var RankedHeader = []string{
	"Rank", "Model", "LLM Quality Score (1-10)", "Tokens/sec", "Latency (ms/token)", "Quantized", "score",
}

// WriteRanked overwrites path with summaries in the order given.
func WriteRanked(path string, summaries []ranking.ModelSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("could not create ranked table: %w", err)
	}
	if err := EncodeRanked(f, summaries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// EncodeRanked writes the ranked table to w.
func EncodeRanked(w io.Writer, summaries []ranking.ModelSummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RankedHeader); err != nil {
		return err
	}
	for _, s := range summaries {
		rec := []string{
			strconv.Itoa(s.Rank),
			s.Model,
			full(s.MeanQuality),
			full(s.TokensPerSec),
			full(s.LatencyMS),
			FormatBool(s.Quantized),
			full(s.Score),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadRanked loads a ranked table written by WriteRanked.
func ReadRanked(path string) ([]ranking.ModelSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeRanked(f)
}

// DecodeRanked reads a ranked table from r.
func DecodeRanked(r io.Reader) ([]ranking.ModelSummary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(RankedHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header, RankedHeader); err != nil {
		return nil, err
	}

	var out []ranking.ModelSummary
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var s ranking.ModelSummary
		if s.Rank, err = strconv.Atoi(strings.TrimSpace(rec[0])); err != nil {
			return nil, fmt.Errorf("line %d: rank: %w", line, err)
		}
		s.Model = rec[1]
		floatsInRow := []*float64{&s.MeanQuality, &s.TokensPerSec, &s.LatencyMS}
		for i, dst := range floatsInRow {
			if *dst, err = parseFloat(rec[2+i]); err != nil {
				return nil, fmt.Errorf("line %d: %s: %w", line, RankedHeader[2+i], err)
			}
		}
		if s.Quantized, err = strconv.ParseBool(strings.TrimSpace(rec[5])); err != nil {
			return nil, fmt.Errorf("line %d: quantized: %w", line, err)
		}
		if s.Score, err = parseFloat(rec[6]); err != nil {
			return nil, fmt.Errorf("line %d: score: %w", line, err)
		}
		out = append(out, s)
	}
}

func full(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
