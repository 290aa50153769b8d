// internal/results/samples.go
// Package: results
package results

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/mwiater/gollamabench/internal/benchmark"
	"github.com/mwiater/gollamabench/internal/judge"
	"github.com/mwiater/gollamabench/internal/probe"
)

// SampleHeader is the exact column order of the raw sample table.
var SampleHeader = []string{
	"Model", "Prompt", "Tokens Generated", "Total Time (s)", "Latency (ms/token)", "Tokens/sec",
	"Model Load Time (s)", "RAM Usage (GB)", "CPU Load Change (%)",
	"Temperature (°C)", "Power (W)", "Quantized", "LLM Quality Score (1-10)",
}

// SampleTable appends samples to the raw table. Every row is flushed as it is
// written so a crash loses at most the sample in flight.
type SampleTable struct {
	file   *os.File
	writer *csv.Writer
	closed bool
}

// CreateSampleTable truncates path and writes the header.
func CreateSampleTable(path string) (*SampleTable, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("could not create results table: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(SampleHeader); err != nil {
		f.Close()
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return nil, err
	}

	return &SampleTable{file: f, writer: w}, nil
}

// Write appends one row and flushes it.
func (t *SampleTable) Write(s benchmark.Sample) error {
	if err := t.writer.Write(SampleRecord(s)); err != nil {
		return err
	}
	t.writer.Flush()
	return t.writer.Error()
}

// Close flushes and closes the underlying file. Calls after the first are no-ops.
func (t *SampleTable) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	t.writer.Flush()
	if err := t.writer.Error(); err != nil {
		t.file.Close()
		return err
	}
	return t.file.Close()
}

// SampleRecord renders s as a table row.
func SampleRecord(s benchmark.Sample) []string {
	return []string{
		s.Model,
		s.Prompt,
		strconv.Itoa(s.TokensGenerated),
		fmtFloat(s.TotalTimeSec),
		fmtFloat(s.LatencyMS),
		fmtFloat(s.TokensPerSec),
		fmtFloat(s.LoadTimeSec),
		fmtFloat(s.RAMDeltaGB),
		fmtFloat(s.CPUDelta),
		FormatMeasurement(s.Temperature),
		FormatMeasurement(s.Power),
		FormatBool(s.Quantized),
		s.Quality.String(),
	}
}

// ReadSamples loads a raw table. Absent optional cells ("N/A" or empty) become
// absent readings; throughput or latency cells that do not parse become NaN so
// ranking drops those rows.
func ReadSamples(path string) ([]benchmark.Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeSamples(f)
}

// DecodeSamples reads a raw table from r.
func DecodeSamples(r io.Reader) ([]benchmark.Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(SampleHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header, SampleHeader); err != nil {
		return nil, err
	}

	var out []benchmark.Sample
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		s, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, s)
	}
}

func parseSample(rec []string) (benchmark.Sample, error) {
	var (
		s   benchmark.Sample
		err error
	)
	s.Model = rec[0]
	s.Prompt = rec[1]
	if s.TokensGenerated, err = strconv.Atoi(strings.TrimSpace(rec[2])); err != nil {
		return s, fmt.Errorf("tokens generated: %w", err)
	}
	if s.TotalTimeSec, err = parseFloat(rec[3]); err != nil {
		return s, fmt.Errorf("total time: %w", err)
	}
	s.LatencyMS = parseFloatOrNaN(rec[4])
	s.TokensPerSec = parseFloatOrNaN(rec[5])
	if s.LoadTimeSec, err = parseFloat(rec[6]); err != nil {
		return s, fmt.Errorf("load time: %w", err)
	}
	if s.RAMDeltaGB, err = parseFloat(rec[7]); err != nil {
		return s, fmt.Errorf("ram delta: %w", err)
	}
	if s.CPUDelta, err = parseFloat(rec[8]); err != nil {
		return s, fmt.Errorf("cpu delta: %w", err)
	}
	if s.Temperature, err = ParseMeasurement(rec[9]); err != nil {
		return s, fmt.Errorf("temperature: %w", err)
	}
	if s.Power, err = ParseMeasurement(rec[10]); err != nil {
		return s, fmt.Errorf("power: %w", err)
	}
	if s.Quantized, err = strconv.ParseBool(strings.TrimSpace(rec[11])); err != nil {
		return s, fmt.Errorf("quantized: %w", err)
	}
	// an unreadable score is treated like a failed judge
	if s.Quality, err = judge.ParseCell(rec[12]); err != nil {
		s.Quality = judge.Unavailable
	}
	return s, nil
}

// FormatMeasurement writes a present reading with two decimals, else "N/A".
func FormatMeasurement(m probe.Measurement) string {
	if !m.Valid {
		return judge.NA
	}
	return fmtFloat(m.Value)
}

// ParseMeasurement reads a cell written by FormatMeasurement.
func ParseMeasurement(cell string) (probe.Measurement, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" || cell == judge.NA {
		return probe.Absent, nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return probe.Absent, err
	}
	return probe.Some(v), nil
}

// FormatBool writes booleans the way the tables have always spelled them.
func FormatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func fmtFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func parseFloat(cell string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(cell), 64)
}

func parseFloatOrNaN(cell string) float64 {
	v, err := parseFloat(cell)
	if err != nil {
		return math.NaN()
	}
	return v
}

func checkHeader(got, want []string) error {
	for i := range want {
		// tolerate a UTF-8 BOM written by spreadsheet tools
		if strings.TrimPrefix(got[i], "\ufeff") != want[i] {
			return fmt.Errorf("unexpected column %d: got %q, want %q", i+1, got[i], want[i])
		}
	}
	return nil
}
