package results

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/gollamabench/internal/benchmark"
	"github.com/mwiater/gollamabench/internal/judge"
	"github.com/mwiater/gollamabench/internal/probe"
	"github.com/mwiater/gollamabench/internal/ranking"
)

const wantHeader = "Model,Prompt,Tokens Generated,Total Time (s),Latency (ms/token),Tokens/sec," +
	"Model Load Time (s),RAM Usage (GB),CPU Load Change (%),Temperature (°C),Power (W),Quantized," +
	"LLM Quality Score (1-10)\n"

func TestCreateSampleTableTruncatesAndWritesHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmark_results.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale,data\n"), 0o644))

	table, err := CreateSampleTable(path)
	require.NoError(t, err)

	// header is on disk before any sample is written
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, wantHeader, string(b))
	require.NoError(t, table.Close())
	// closing again is harmless
	require.NoError(t, table.Close())
}

func TestCreateSampleTableBadPath(t *testing.T) {
	_, err := CreateSampleTable(filepath.Join(t.TempDir(), "missing", "x.csv"))
	assert.ErrorContains(t, err, "could not create results table")
}

func TestSampleRowsAreFlushedAndReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "benchmark_results.csv")
	table, err := CreateSampleTable(path)
	require.NoError(t, err)
	defer table.Close()

	full := benchmark.Sample{
		Model:           "qwen2.5:3b",
		Prompt:          "Translate 'Good morning' to French.",
		TokensGenerated: 3,
		TotalTimeSec:    0.754,
		LatencyMS:       251.3333,
		TokensPerSec:    3.97878,
		LoadTimeSec:     1.2,
		RAMDeltaGB:      -0.25,
		CPUDelta:        12.5,
		Temperature:     probe.Some(61.25),
		Power:           probe.Some(11.5),
		Quantized:       true,
		Quality:         judge.Available(7.5),
	}
	bare := full
	bare.Model = "gemma:2b"
	bare.Quantized = false
	bare.Temperature = probe.Absent
	bare.Power = probe.Absent
	bare.Quality = judge.Unavailable

	require.NoError(t, table.Write(full))
	require.NoError(t, table.Write(bare))

	// no Close: rows must already be on disk
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `qwen2.5:3b,Translate 'Good morning' to French.,3,0.75,251.33,3.98,1.20,-0.25,12.50,61.25,11.50,True,7.5`, lines[1])
	assert.Equal(t, `gemma:2b,Translate 'Good morning' to French.,3,0.75,251.33,3.98,1.20,-0.25,12.50,N/A,N/A,False,N/A`, lines[2])

	got, err := ReadSamples(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "qwen2.5:3b", got[0].Model)
	assert.Equal(t, probe.Some(61.25), got[0].Temperature)
	assert.Equal(t, judge.Available(7.5), got[0].Quality)
	assert.True(t, got[0].Quantized)
	assert.InDelta(t, -0.25, got[0].RAMDeltaGB, 1e-9)

	assert.Equal(t, probe.Absent, got[1].Temperature)
	assert.Equal(t, probe.Absent, got[1].Power)
	assert.Equal(t, judge.Unavailable, got[1].Quality)
	assert.False(t, got[1].Quantized)
}

func TestDecodeSamplesLenientCells(t *testing.T) {
	in := wantHeader +
		"a,p,10,1.00,,10.00,0.50,0.00,0.00,,,True,8\n" +
		"b,p,10,1.00,100.00,oops,0.50,0.00,0.00,N/A,N/A,false,not-a-score\n"

	got, err := DecodeSamples(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.True(t, math.IsNaN(got[0].LatencyMS))
	assert.False(t, got[0].Temperature.Valid)
	assert.True(t, math.IsNaN(got[1].TokensPerSec))
	assert.Equal(t, judge.Unavailable, got[1].Quality)
	assert.False(t, ranking.Complete(got[0]))
	assert.False(t, ranking.Complete(got[1]))
}

func TestDecodeSamplesRejectsWrongHeader(t *testing.T) {
	in := "Model,Prompt,Tokens,Total Time (s),Latency (ms/token),Tokens/sec,Model Load Time (s),RAM Usage (GB)," +
		"CPU Load Change (%),Temperature (°C),Power (W),Quantized,LLM Quality Score (1-10)\n"
	_, err := DecodeSamples(strings.NewReader(in))
	assert.ErrorContains(t, err, "unexpected column 3")
}

func TestDecodeSamplesBadRow(t *testing.T) {
	in := wantHeader + "a,p,many,1.00,1,1,0.50,0.00,0.00,N/A,N/A,True,8\n"
	_, err := DecodeSamples(strings.NewReader(in))
	assert.ErrorContains(t, err, "line 2: tokens generated")
}

func TestDecodeSamplesEmpty(t *testing.T) {
	got, err := DecodeSamples(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRankedRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranked_benchmark_results.csv")
	in := []ranking.ModelSummary{
		{Rank: 1, Model: "qwen2.5:3b", MeanQuality: 8.333333333333334, TokensPerSec: 30, LatencyMS: 33, Quantized: true, Score: 4.543},
		{Rank: 2, Model: "gemma:2b", MeanQuality: 6.25, TokensPerSec: 40.5, LatencyMS: 25, Quantized: false, Score: 3.625},
	}
	require.NoError(t, WriteRanked(path, in))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "Rank,Model,LLM Quality Score (1-10),Tokens/sec,Latency (ms/token),Quantized,score\n"))
	assert.Contains(t, string(b), "2,gemma:2b,6.25,40.5,25,False,3.625\n")

	got, err := ReadRanked(path)
	require.NoError(t, err)
	// Samples is not persisted
	assert.Equal(t, in, got)
}

func TestWriteRankedOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ranked.csv")
	require.NoError(t, WriteRanked(path, []ranking.ModelSummary{{Rank: 1, Model: "a"}, {Rank: 2, Model: "b"}}))
	require.NoError(t, WriteRanked(path, []ranking.ModelSummary{{Rank: 1, Model: "c"}}))

	got, err := ReadRanked(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].Model)
}

func TestMeasurementCells(t *testing.T) {
	assert.Equal(t, "N/A", FormatMeasurement(probe.Absent))
	assert.Equal(t, "42.00", FormatMeasurement(probe.Some(42)))

	m, err := ParseMeasurement(" N/A ")
	require.NoError(t, err)
	assert.Equal(t, probe.Absent, m)

	_, err = ParseMeasurement("warm")
	assert.Error(t, err)
}
