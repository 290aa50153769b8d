// internal/benchmark/types.go
// Package: benchmark
package benchmark

import (
	"context"
	"fmt"

	"github.com/mwiater/gollamabench/internal/judge"
	"github.com/mwiater/gollamabench/internal/logging"
	"github.com/mwiater/gollamabench/internal/probe"
)

// Sample is one (model, prompt, repetition) observation. It is immutable once
// handed to a Sink.
type Sample struct {
	Model           string
	Prompt          string
	TokensGenerated int
	// TotalTimeSec is the wall time of the timed chat request.
	TotalTimeSec float64
	LatencyMS    float64
	TokensPerSec float64
	// LoadTimeSec is measured once per model and repeated on each of its rows.
	LoadTimeSec float64
	// RAMDeltaGB and CPUDelta are after minus before, so they can be negative.
	RAMDeltaGB float64
	CPUDelta   float64
	// Temperature and Power are the readings taken after generation.
	Temperature probe.Measurement
	Power       probe.Measurement
	Quantized   bool
	Quality     judge.Score
}

// Backend is the model-serving capability the loop drives.
type Backend interface {
	EnsurePresent(ctx context.Context, model string) error
	ChatText(ctx context.Context, model, prompt string) (string, error)
}

// Sink persists samples as they are produced.
type Sink interface {
	Write(s Sample) error
}

// MultiSink writes every sample to each sink in order and stops at the first
// error.
type MultiSink []Sink

func (m MultiSink) Write(s Sample) error {
	for _, sink := range m {
		if err := sink.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// OptionalSink forwards samples to Sink until it first fails. The failure is
// logged once, later samples are dropped, and Write never returns an error.
type OptionalSink struct {
	Name string
	Sink Sink
	err  error
}

func (o *OptionalSink) Write(s Sample) error {
	if o.err != nil {
		return nil
	}
	if err := o.Sink.Write(s); err != nil {
		o.err = err
		logging.Logger.Warn("sink disabled for the rest of the run", "sink", o.Name, "error", err)
	}
	return nil
}

// Err is the failure that disabled the sink, if any.
func (o *OptionalSink) Err() error { return o.err }

// Reporter receives progress events. Implementations print; they do not fail.
type Reporter interface {
	ModelStarted(model string)
	SampleRecorded(index, total int, s Sample, output string)
	ModelFailed(err *ModelError)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) ModelStarted(string)                    {}
func (NopReporter) SampleRecorded(int, int, Sample, string) {}
func (NopReporter) ModelFailed(*ModelError)                {}

// Stage names the step of the per-model sequence that failed.
type Stage string

const (
	StageEnsure Stage = "ensure"
	StageWarmup Stage = "warmup"
	StageLoad   Stage = "load"
	StageProbe  Stage = "probe"
	StageChat   Stage = "generate"
	StageWrite  Stage = "write"
)

// ModelError aborts the remaining work for one model. The batch continues.
type ModelError struct {
	Model string
	Stage Stage
	// Completed is the number of samples written before the failure.
	Completed int
	Err       error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("error benchmarking %s (%s): %v", e.Model, e.Stage, e.Err)
}

func (e *ModelError) Unwrap() error { return e.Err }

// ModelOutcome is the result of benchmarking one model.
type ModelOutcome struct {
	Model       string
	LoadTimeSec float64
	Samples     []Sample
	// Err is nil when every repetition completed.
	Err *ModelError
}

// OK reports whether the model finished all repetitions.
func (o ModelOutcome) OK() bool { return o.Err == nil }
