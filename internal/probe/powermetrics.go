// internal/probe/powermetrics.go
// Package: probe
package probe

import (
	"bufio"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/mwiater/gollamabench/internal/logging"
)

// CommandRunner runs an external command and returns its stdout.
type CommandRunner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PowermetricsSampler reads CPU die temperature and CPU power from the macOS
// powermetrics utility. Each Sample blocks for Window. It requires root; on any
// other platform, or when the tool is missing or refuses, both readings are
// absent.
type PowermetricsSampler struct {
	Window time.Duration
	GOOS   string
	Run    CommandRunner
}

// NewPowermetricsSampler returns a sampler for the running platform.
func NewPowermetricsSampler(window time.Duration) *PowermetricsSampler {
	return &PowermetricsSampler{Window: window, GOOS: runtime.GOOS, Run: execRunner}
}

var errNotDarwin = errors.New("powermetrics is only available on darwin")

// Sample never fails. Failures are logged at debug level.
func (s *PowermetricsSampler) Sample(ctx context.Context) (Measurement, Measurement) {
	if s.GOOS != "darwin" {
		logging.Logger.Debug("thermal probe unavailable", "error", errNotDarwin)
		return Absent, Absent
	}
	ms := strconv.FormatInt(s.Window.Milliseconds(), 10)
	out, err := s.Run(ctx, "powermetrics", "--samplers", "smc", "-i", ms, "-n", "1")
	if err != nil {
		logging.Logger.Debug("thermal probe unavailable", "error", err)
		return Absent, Absent
	}
	temp, power, err := parsePowermetrics(string(out))
	if err != nil {
		logging.Logger.Debug("thermal probe output unreadable", "error", err)
		return Absent, Absent
	}
	return temp, power
}

// parsePowermetrics extracts the first "CPU die temperature" line and the first
// line mentioning both "Average power usage" and "CPU". A matching line whose
// value does not parse fails the whole sample.
func parsePowermetrics(out string) (temp, power Measurement, err error) {
	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := sc.Text()
		if !temp.Valid && strings.Contains(line, "CPU die temperature") {
			v, perr := valueAfterColon(line)
			if perr != nil {
				return Absent, Absent, perr
			}
			temp = Some(v)
		}
		if !power.Valid && strings.Contains(line, "Average power usage") && strings.Contains(line, "CPU") {
			v, perr := valueAfterColon(line)
			if perr != nil {
				return Absent, Absent, perr
			}
			power = Some(v)
		}
	}
	return temp, power, sc.Err()
}

// valueAfterColon parses "label: 42.5 C" into 42.5.
func valueAfterColon(line string) (float64, error) {
	_, rest, ok := strings.Cut(line, ":")
	if !ok {
		return 0, errors.New("no value in " + strconv.Quote(line))
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return 0, errors.New("no value in " + strconv.Quote(line))
	}
	return strconv.ParseFloat(fields[0], 64)
}
