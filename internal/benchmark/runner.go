// internal/benchmark/runner.go
// Package: benchmark
package benchmark

import (
	"context"
	"time"

	"github.com/mwiater/gollamabench/internal/config"
	"github.com/mwiater/gollamabench/internal/judge"
	"github.com/mwiater/gollamabench/internal/logging"
	"github.com/mwiater/gollamabench/internal/probe"
)

const (
	warmupPrompt = "Warmup"
	loadPrompt   = "Ready?"
)

// Runner benchmarks models one at a time. It is not safe for concurrent use.
type Runner struct {
	Backend  Backend
	Probe    probe.Probe
	Judge    judge.Rater
	Sink     Sink
	Reporter Reporter

	Models  []string
	Prompts []string
	Repeat  int

	// Now is the wall clock; tests replace it.
	Now func() time.Time
}

// NewRunner wires a Runner for the models, prompts and repeat count in cfg.
func NewRunner(cfg *config.Config, backend Backend, p probe.Probe, j judge.Rater, sink Sink, rep Reporter) *Runner {
	if rep == nil {
		rep = NopReporter{}
	}
	return &Runner{
		Backend:  backend,
		Probe:    p,
		Judge:    j,
		Sink:     sink,
		Reporter: rep,
		Models:   cfg.Models,
		Prompts:  cfg.Prompts,
		Repeat:   cfg.Repeat,
		Now:      time.Now,
	}
}

// Run benchmarks every model in order. A failing model is reported and the
// next one starts; only context cancellation stops the batch early.
func (r *Runner) Run(ctx context.Context) []ModelOutcome {
	outcomes := make([]ModelOutcome, 0, len(r.Models))
	for _, model := range r.Models {
		if err := ctx.Err(); err != nil {
			logging.Logger.Warn("benchmark cancelled", "remaining_from", model, "error", err)
			break
		}
		out := r.RunModel(ctx, model)
		if out.Err != nil {
			logging.Logger.Error("model benchmark aborted", "model", model, "stage", out.Err.Stage, "error", out.Err.Err)
			r.Reporter.ModelFailed(out.Err)
		}
		outcomes = append(outcomes, out)
	}
	return outcomes
}

// RunModel performs the full per-model sequence: ensure present, warm-up,
// timed load, then Repeat measured samples.
func (r *Runner) RunModel(ctx context.Context, model string) ModelOutcome {
	out := ModelOutcome{Model: model}
	fail := func(stage Stage, err error) ModelOutcome {
		out.Err = &ModelError{Model: model, Stage: stage, Completed: len(out.Samples), Err: err}
		return out
	}

	r.Reporter.ModelStarted(model)

	if err := r.Backend.EnsurePresent(ctx, model); err != nil {
		return fail(StageEnsure, err)
	}

	// untimed; forces the weights into memory
	if _, err := r.Backend.ChatText(ctx, model, warmupPrompt); err != nil {
		return fail(StageWarmup, err)
	}

	start := r.now()
	if _, err := r.Backend.ChatText(ctx, model, loadPrompt); err != nil {
		return fail(StageLoad, err)
	}
	out.LoadTimeSec = r.now().Sub(start).Seconds()
	logging.Logger.Debug("model loaded", "model", model, "load_s", out.LoadTimeSec)

	quantized := IsQuantized(model)
	for i := 0; i < r.Repeat; i++ {
		prompt := PromptFor(r.Prompts, i)

		before, err := r.snapshot(ctx)
		if err != nil {
			return fail(StageProbe, err)
		}

		t0 := r.now()
		text, err := r.Backend.ChatText(ctx, model, prompt)
		if err != nil {
			return fail(StageChat, err)
		}
		t1 := r.now()

		after, err := r.snapshot(ctx)
		if err != nil {
			return fail(StageProbe, err)
		}

		tokens := CountTokens(text)
		total := t1.Sub(t0).Seconds()
		s := Sample{
			Model:           model,
			Prompt:          prompt,
			TokensGenerated: tokens,
			TotalTimeSec:    total,
			LatencyMS:       LatencyMS(tokens, total),
			TokensPerSec:    Throughput(tokens, total),
			LoadTimeSec:     out.LoadTimeSec,
			RAMDeltaGB:      after.ramGB - before.ramGB,
			CPUDelta:        after.cpu - before.cpu,
			Temperature:     after.temp,
			Power:           after.power,
			Quantized:       quantized,
			Quality:         judge.Evaluate(ctx, r.Judge, text),
		}

		if err := r.Sink.Write(s); err != nil {
			return fail(StageWrite, err)
		}
		out.Samples = append(out.Samples, s)
		r.Reporter.SampleRecorded(i+1, r.Repeat, s, text)
	}
	return out
}

type snapshot struct {
	cpu   float64
	ramGB float64
	temp  probe.Measurement
	power probe.Measurement
}

func (r *Runner) snapshot(ctx context.Context) (snapshot, error) {
	var s snapshot
	var err error
	if s.cpu, err = r.Probe.CPUPercent(ctx); err != nil {
		return s, err
	}
	if s.ramGB, err = r.Probe.RAMUsedGB(ctx); err != nil {
		return s, err
	}
	s.temp, s.power = r.Probe.ThermalPower(ctx)
	return s, nil
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// Failed returns the errors of every model that did not complete.
func Failed(outcomes []ModelOutcome) []*ModelError {
	var errs []*ModelError
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errs
}
