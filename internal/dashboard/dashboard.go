// internal/dashboard/dashboard.go
// Package: dashboard
package dashboard

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/gollamabench/internal/benchmark"
	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/logging"
	"github.com/mwiater/gollamabench/internal/ranking"
	"github.com/mwiater/gollamabench/internal/results"
	"github.com/mwiater/gollamabench/internal/stats"
)

// viewState is the page currently shown.
type viewState int

const (
	// viewLoading is shown while the result tables are read.
	viewLoading viewState = iota
	// viewEmpty offers to run a benchmark when no results exist.
	viewEmpty
	// viewRanking shows the ranked table.
	viewRanking
	// viewSpreads compares metric distributions of the selected models.
	viewSpreads
	// viewRaw shows every sample.
	viewRaw
)

var (
	titleStyle    = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("244"))
	activeTab     = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(lipgloss.Color("86"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Padding(1)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	metricStyle   = lipgloss.NewStyle().Bold(true)
)

// metric is one distribution shown on the spreads page.
type metric struct {
	name  string
	unit  string
	value func(benchmark.Sample) (float64, bool)
}

var metrics = []metric{
	{"Tokens/sec", "", func(s benchmark.Sample) (float64, bool) { return s.TokensPerSec, true }},
	{"Latency", "ms/token", func(s benchmark.Sample) (float64, bool) { return s.LatencyMS, true }},
	{"Quality", "1-10", func(s benchmark.Sample) (float64, bool) { return s.Quality.Value() }},
	{"RAM Δ", "GB", func(s benchmark.Sample) (float64, bool) { return s.RAMDeltaGB, true }},
}

// resultsLoadedMsg carries the tables read from disk.
type resultsLoadedMsg struct {
	ranked  []ranking.ModelSummary
	samples []benchmark.Sample
	// missing is true when the raw table does not exist yet.
	missing bool
	err     error
}

// benchmarkDoneMsg is sent when the benchmark subprocess exits.
type benchmarkDoneMsg struct{ err error }

// model is the dashboard state.
type model struct {
	resultsFile string
	rankedFile  string
	// runCommand builds the subprocess that refreshes the results.
	runCommand func() *exec.Cmd

	state   viewState
	err     error
	spinner spinner.Model

	ranked  []ranking.ModelSummary
	samples []benchmark.Sample
	// models lists every model in the raw table in first-seen order.
	models   []string
	selected map[string]bool
	cursor   int

	rankTable table.Model
	rawTable  table.Model

	width, height int
}

// initialModel builds a dashboard over the result tables named in cfg.
func initialModel(cfg *config.Config, runCommand func() *exec.Cmd) *model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return &model{
		resultsFile: cfg.ResultsFile,
		rankedFile:  cfg.RankedFile,
		runCommand:  runCommand,
		state:       viewLoading,
		spinner:     s,
		selected:    map[string]bool{},
		rankTable:   table.New(table.WithFocused(true)),
		rawTable:    table.New(table.WithFocused(true)),
	}
}

// loadResultsCmd reads both tables. A missing ranked table is not an error:
// the raw table is ranked in memory instead.
func loadResultsCmd(resultsFile, rankedFile string) tea.Cmd {
	return func() tea.Msg {
		samples, err := results.ReadSamples(resultsFile)
		if errors.Is(err, fs.ErrNotExist) {
			return resultsLoadedMsg{missing: true}
		}
		if err != nil {
			return resultsLoadedMsg{err: err}
		}
		if len(samples) == 0 {
			return resultsLoadedMsg{missing: true}
		}

		ranked, err := results.ReadRanked(rankedFile)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				logging.Logger.Warn("ranked table unreadable, re-ranking raw samples", "file", rankedFile, "error", err)
			}
			ranked, _, err = ranking.Summarize(samples)
			if err != nil {
				logging.Logger.Warn("could not rank samples", "error", err)
				ranked = nil
			}
		}
		return resultsLoadedMsg{ranked: ranked, samples: samples}
	}
}

// runBenchmarkCmd hands the terminal to a fresh benchmark run so its console
// output streams directly, then reports when it exits.
func runBenchmarkCmd(c *exec.Cmd) tea.Cmd {
	return tea.ExecProcess(c, func(err error) tea.Msg {
		return benchmarkDoneMsg{err: err}
	})
}

// Init starts the spinner and loads the tables.
func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadResultsCmd(m.resultsFile, m.rankedFile))
}

// Update handles input and load results.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if m.state != viewLoading && m.runCommand != nil {
				m.state = viewLoading
				m.err = nil
				return m, tea.Batch(m.spinner.Tick, runBenchmarkCmd(m.runCommand()))
			}
			return m, nil
		}
		if m.state == viewEmpty || m.state == viewLoading {
			return m, nil
		}
		return m.handleResultKeys(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := max(msg.Height-8, 3)
		m.rankTable.SetHeight(h)
		m.rawTable.SetHeight(h)
		m.rankTable.SetWidth(msg.Width - 2)
		m.rawTable.SetWidth(msg.Width - 2)
		return m, nil

	case resultsLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = viewEmpty
			return m, nil
		}
		if msg.missing {
			m.state = viewEmpty
			return m, nil
		}
		m.setResults(msg.ranked, msg.samples)
		m.state = viewRanking
		return m, nil

	case benchmarkDoneMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("benchmark run failed: %w", msg.err)
		}
		return m, loadResultsCmd(m.resultsFile, m.rankedFile)

	case spinner.TickMsg:
		if m.state == viewLoading {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	return m, nil
}

func (m *model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg.String() {
	case "1":
		m.state = viewRanking
		return m, nil
	case "2":
		m.state = viewSpreads
		return m, nil
	case "3":
		m.state = viewRaw
		return m, nil
	case "tab":
		switch m.state {
		case viewRanking:
			m.state = viewSpreads
		case viewSpreads:
			m.state = viewRaw
		default:
			m.state = viewRanking
		}
		return m, nil
	}

	switch m.state {
	case viewRanking:
		m.rankTable, cmd = m.rankTable.Update(msg)
	case viewRaw:
		m.rawTable, cmd = m.rawTable.Update(msg)
	case viewSpreads:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.models)-1 {
				m.cursor++
			}
		case " ", "enter":
			if len(m.models) > 0 {
				name := m.models[m.cursor]
				m.selected[name] = !m.selected[name]
			}
		case "a":
			all := len(m.selectedModels()) < len(m.models)
			for _, name := range m.models {
				m.selected[name] = all
			}
		}
	}
	return m, cmd
}

// setResults replaces the loaded data. Every model starts selected.
func (m *model) setResults(ranked []ranking.ModelSummary, samples []benchmark.Sample) {
	m.ranked = ranked
	m.samples = samples
	m.models = nil
	seen := map[string]bool{}
	for _, s := range samples {
		if !seen[s.Model] {
			seen[s.Model] = true
			m.models = append(m.models, s.Model)
		}
	}
	m.selected = map[string]bool{}
	for _, name := range m.models {
		m.selected[name] = true
	}
	m.cursor = 0

	m.rankTable.SetRows(nil)
	m.rankTable.SetColumns([]table.Column{
		{Title: "Rank", Width: 4},
		{Title: "Model", Width: 24},
		{Title: "Quality", Width: 8},
		{Title: "Tokens/sec", Width: 10},
		{Title: "Latency ms", Width: 10},
		{Title: "Quantized", Width: 9},
		{Title: "Score", Width: 8},
	})
	rows := make([]table.Row, 0, len(ranked))
	for _, s := range ranked {
		rows = append(rows, table.Row{
			strconv.Itoa(s.Rank), s.Model,
			fmt.Sprintf("%.2f", s.MeanQuality),
			fmt.Sprintf("%.2f", s.TokensPerSec),
			fmt.Sprintf("%.2f", s.LatencyMS),
			results.FormatBool(s.Quantized),
			fmt.Sprintf("%.4f", s.Score),
		})
	}
	m.rankTable.SetRows(rows)

	m.rawTable.SetRows(nil)
	m.rawTable.SetColumns([]table.Column{
		{Title: "Model", Width: 18},
		{Title: "Prompt", Width: 30},
		{Title: "Tokens", Width: 6},
		{Title: "Time s", Width: 7},
		{Title: "TPS", Width: 7},
		{Title: "Lat ms", Width: 8},
		{Title: "RAM Δ", Width: 6},
		{Title: "CPU Δ", Width: 6},
		{Title: "Temp", Width: 6},
		{Title: "Power", Width: 6},
		{Title: "Score", Width: 5},
	})
	raw := make([]table.Row, 0, len(samples))
	for _, s := range samples {
		raw = append(raw, table.Row{
			s.Model, s.Prompt,
			strconv.Itoa(s.TokensGenerated),
			fmt.Sprintf("%.2f", s.TotalTimeSec),
			fmt.Sprintf("%.2f", s.TokensPerSec),
			fmt.Sprintf("%.2f", s.LatencyMS),
			fmt.Sprintf("%.2f", s.RAMDeltaGB),
			fmt.Sprintf("%.2f", s.CPUDelta),
			results.FormatMeasurement(s.Temperature),
			results.FormatMeasurement(s.Power),
			s.Quality.String(),
		})
	}
	m.rawTable.SetRows(raw)
}

// selectedModels returns the toggled-on models in first-seen order.
func (m *model) selectedModels() []string {
	var out []string
	for _, name := range m.models {
		if m.selected[name] {
			out = append(out, name)
		}
	}
	return out
}

// spreads groups the samples of each selected model per metric.
func (m *model) spreads(mt metric) map[string]stats.Spread {
	values := map[string][]float64{}
	for _, s := range m.samples {
		if !m.selected[s.Model] {
			continue
		}
		if v, ok := mt.value(s); ok {
			values[s.Model] = append(values[s.Model], v)
		}
	}
	out := make(map[string]stats.Spread, len(values))
	for name, vs := range values {
		out[name] = stats.Summarize(vs)
	}
	return out
}

// View renders the current page.
func (m *model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("gollamabench dashboard") + "\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n")
	}

	switch m.state {
	case viewLoading:
		b.WriteString(fmt.Sprintf("\n  %s Loading results...\n", m.spinner.View()))
		return b.String()
	case viewEmpty:
		b.WriteString(fmt.Sprintf("\n  No benchmark results found in %s.\n", m.resultsFile))
		b.WriteString(helpStyle.Render("\n  r: run benchmark now • q: quit") + "\n")
		return b.String()
	}

	b.WriteString(m.tabs() + "\n\n")
	switch m.state {
	case viewRanking:
		if len(m.ranked) == 0 {
			b.WriteString("  No ranking available: samples are incomplete.\n")
		} else {
			b.WriteString(m.rankTable.View() + "\n")
		}
	case viewSpreads:
		b.WriteString(m.spreadsView())
	case viewRaw:
		b.WriteString(m.rawTable.View() + "\n")
	}
	b.WriteString(helpStyle.Render("\n1-3/tab: switch view • ↑/↓ move • space: toggle model • a: all • r: rerun benchmark • q: quit"))
	return b.String()
}

func (m *model) tabs() string {
	names := []struct {
		state viewState
		label string
	}{
		{viewRanking, "1 Ranking"},
		{viewSpreads, "2 Metric spreads"},
		{viewRaw, "3 Raw data"},
	}
	var parts []string
	for _, n := range names {
		if n.state == m.state {
			parts = append(parts, activeTab.Render(n.label))
		} else {
			parts = append(parts, tabStyle.Render(n.label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *model) spreadsView() string {
	var b strings.Builder

	b.WriteString("Models:\n")
	for i, name := range m.models {
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		check := "[ ]"
		line := name
		if m.selected[name] {
			check = "[x]"
			line = selectedStyle.Render(name)
		}
		b.WriteString(fmt.Sprintf("%s%s %s\n", cursor, check, line))
	}

	selected := m.selectedModels()
	if len(selected) == 0 {
		b.WriteString("\nSelect at least one model.\n")
		return b.String()
	}

	plotWidth := max(min(m.width-60, 40), 10)
	nameWidth := 4
	for _, name := range selected {
		nameWidth = max(nameWidth, len(name))
	}

	for _, mt := range metrics {
		spreads := m.spreads(mt)
		if len(spreads) == 0 {
			continue
		}
		lo, hi := 0.0, 0.0
		first := true
		for _, s := range spreads {
			if first || s.Min < lo {
				lo = s.Min
			}
			if first || s.Max > hi {
				hi = s.Max
			}
			first = false
		}

		title := mt.name
		if mt.unit != "" {
			title += " (" + mt.unit + ")"
		}
		b.WriteString("\n" + metricStyle.Render(title) + "\n")
		for _, name := range selected {
			s, ok := spreads[name]
			if !ok {
				b.WriteString(fmt.Sprintf("  %-*s  no data\n", nameWidth, name))
				continue
			}
			b.WriteString(fmt.Sprintf("  %-*s  %-*s  min %.2f  med %.2f  max %.2f  mean %.2f ± %.2f\n",
				nameWidth, name, plotWidth, boxPlot(s, lo, hi, plotWidth), s.Min, s.Median, s.Max, s.Mean, s.Std))
		}
	}
	return b.String()
}

// Start runs the dashboard until the user quits. Logs go to debug.log when
// cfg.Debug is set so they do not corrupt the screen.
func Start(cfg *config.Config, configPath string) error {
	prev := logging.Logger
	defer logging.SetLogger(prev)

	if cfg.Debug {
		f, err := tea.LogToFile("debug.log", "debug")
		if err != nil {
			return fmt.Errorf("could not open log file: %w", err)
		}
		defer f.Close()
		logging.SetLogger(slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug})))
	} else {
		logging.SetLogger(logging.Discard())
	}

	runCommand := func() *exec.Cmd {
		args := []string{"run"}
		if configPath != "" {
			args = append(args, "--config", configPath)
		}
		return exec.Command(os.Args[0], args...)
	}

	p := tea.NewProgram(initialModel(cfg, runCommand), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
