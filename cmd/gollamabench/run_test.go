package gollamabench

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/history"
	"github.com/mwiater/gollamabench/internal/probe"
	"github.com/mwiater/gollamabench/internal/report"
	"github.com/mwiater/gollamabench/internal/results"
)

const testJudge = "judge:7b"

type fakeBackend struct {
	missing map[string]error
	// beforeFirstChat runs once, ahead of the first chat request.
	beforeFirstChat func()
}

func (b *fakeBackend) EnsurePresent(ctx context.Context, model string) error {
	return b.missing[model]
}

func (b *fakeBackend) ChatText(ctx context.Context, model, prompt string) (string, error) {
	if b.beforeFirstChat != nil {
		b.beforeFirstChat()
		b.beforeFirstChat = nil
	}
	if model == testJudge {
		return "8", nil
	}
	// Keeps per-token latency well above the table's two-decimal precision.
	time.Sleep(20 * time.Millisecond)
	return "alpha beta", nil
}

type fakeProbe struct{}

func (fakeProbe) CPUPercent(context.Context) (float64, error) { return 12.5, nil }
func (fakeProbe) RAMUsedGB(context.Context) (float64, error)  { return 4, nil }
func (fakeProbe) ThermalPower(context.Context) (probe.Measurement, probe.Measurement) {
	return probe.Absent, probe.Absent
}

// stubRunDeps replaces the Ollama client, host probe and system reader.
func stubRunDeps(t *testing.T, backend *fakeBackend) {
	t.Helper()
	origBackend, origProbe, origInfo := newBackend, newProbe, readSystemInfo
	t.Cleanup(func() { newBackend, newProbe, readSystemInfo = origBackend, origProbe, origInfo })

	newBackend = func(*config.Config) modelBackend { return backend }
	newProbe = func(*config.Config) probe.Probe { return fakeProbe{} }
	readSystemInfo = func(context.Context) (probe.SystemInfo, error) {
		return probe.SystemInfo{CPU: "Test CPU", RAMTotalGB: 16, Platform: "linux", PhysicalCores: 4}, nil
	}
}

func testConfig(t *testing.T, models ...string) *config.Config {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Models = models
	cfg.JudgeModel = testJudge
	cfg.Repeat = 2
	cfg.Prompts = []string{"Say two words."}
	cfg.ResultsFile = filepath.Join(dir, "results.csv")
	cfg.RankedFile = filepath.Join(dir, "ranked.csv")
	return cfg
}

func TestRunBenchmark_RanksAndArchives(t *testing.T) {
	stubRunDeps(t, &fakeBackend{missing: map[string]error{"broken:1b": errors.New("pull refused")}})
	cfg := testConfig(t, "tiny:q4", "broken:1b")
	cfg.HistoryDB = filepath.Join(t.TempDir(), "history.db")

	var out bytes.Buffer
	require.NoError(t, runBenchmark(context.Background(), cfg, &out))

	text := out.String()
	assert.Contains(t, text, "CPU         : Test CPU")
	assert.Contains(t, text, "--- Benchmarking tiny:q4 ---")
	assert.Contains(t, text, "Error benchmarking broken:1b")
	assert.Contains(t, text, "✅ Best Model: tiny:q4 (Rank 1)")
	assert.Contains(t, text, "Benchmark complete. Results saved in "+cfg.ResultsFile)

	samples, err := results.ReadSamples(cfg.ResultsFile)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	for _, s := range samples {
		assert.Equal(t, "tiny:q4", s.Model)
		assert.Equal(t, 2, s.TokensGenerated)
		assert.True(t, s.Quantized)
		v, ok := s.Quality.Value()
		assert.True(t, ok)
		assert.Equal(t, 8.0, v)
	}

	ranked, err := results.ReadRanked(cfg.RankedFile)
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, 1, ranked[0].Rank)

	store, err := history.Open(cfg.HistoryDB)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.Runs(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 2, runs[0].Samples)
	assert.False(t, runs[0].FinishedAt.IsZero())
	archived, err := store.Rankings(context.Background(), runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestRunBenchmark_AllModelsFailStillCompletes(t *testing.T) {
	stubRunDeps(t, &fakeBackend{missing: map[string]error{"gone:1b": errors.New("not found")}})
	cfg := testConfig(t, "gone:1b")

	var out bytes.Buffer
	require.NoError(t, runBenchmark(context.Background(), cfg, &out))

	assert.Contains(t, out.String(), "could not summarize results")
	assert.NoFileExists(t, cfg.RankedFile)
	samples, err := results.ReadSamples(cfg.ResultsFile)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestRunBenchmark_UnwritableResultsTable(t *testing.T) {
	stubRunDeps(t, &fakeBackend{})
	cfg := testConfig(t, "tiny:q4")
	cfg.ResultsFile = filepath.Join(t.TempDir(), "missing-dir", "results.csv")

	err := runBenchmark(context.Background(), cfg, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not create results table")
}

func TestRunBenchmark_ArchiveFailureIsNotFatal(t *testing.T) {
	stubRunDeps(t, &fakeBackend{})
	cfg := testConfig(t, "tiny:q4")
	// A directory cannot be opened as a database.
	cfg.HistoryDB = t.TempDir()

	var out bytes.Buffer
	require.NoError(t, runBenchmark(context.Background(), cfg, &out))
	assert.Contains(t, out.String(), "✅ Best Model: tiny:q4")
}

func TestRankResults_MissingTable(t *testing.T) {
	cfg := testConfig(t, "tiny:q4")

	var out bytes.Buffer
	ranked, ok := rankResults(cfg, report.NewConsole(&out))
	assert.False(t, ok)
	assert.Nil(t, ranked)
	assert.Contains(t, out.String(), "no results table at "+cfg.ResultsFile)
}

func TestRunBenchmark_BrokenArchiveDoesNotAbortModels(t *testing.T) {
	cfg := testConfig(t, "tiny:q4", "small:q8")
	cfg.Repeat = 3
	cfg.HistoryDB = filepath.Join(t.TempDir(), "history.db")

	backend := &fakeBackend{}
	backend.beforeFirstChat = func() {
		// Once the run row exists, make every sample insert fail.
		db, err := sql.Open("sqlite", cfg.HistoryDB)
		require.NoError(t, err)
		defer db.Close()
		_, err = db.Exec(`CREATE TRIGGER reject_samples BEFORE INSERT ON samples
			BEGIN SELECT RAISE(ABORT, 'database is locked'); END`)
		require.NoError(t, err)
	}
	stubRunDeps(t, backend)

	var out bytes.Buffer
	require.NoError(t, runBenchmark(context.Background(), cfg, &out))

	assert.NotContains(t, out.String(), "Error benchmarking")
	samples, err := results.ReadSamples(cfg.ResultsFile)
	require.NoError(t, err)
	assert.Len(t, samples, 6)

	ranked, err := results.ReadRanked(cfg.RankedFile)
	require.NoError(t, err)
	assert.Len(t, ranked, 2)
}
