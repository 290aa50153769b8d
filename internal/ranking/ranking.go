// internal/ranking/ranking.go
// Package: ranking
package ranking

import (
	"math"
	"sort"

	"github.com/mwiater/gollamabench/internal/benchmark"
	"github.com/mwiater/gollamabench/internal/logging"
	"github.com/mwiater/gollamabench/internal/stats"
)

// Composite score weights.
const (
	QualityWeight    = 0.5
	ThroughputWeight = 0.3
	LatencyWeight    = 0.2
)

// ModelSummary aggregates every complete sample of one model. Scores are only
// comparable within the batch they were computed in.
type ModelSummary struct {
	Rank         int
	Model        string
	MeanQuality  float64
	TokensPerSec float64
	LatencyMS    float64
	Quantized    bool
	Score        float64
	Samples      int
}

// AggregationError reports input that cannot be ranked.
type AggregationError struct {
	Reason string
}

func (e *AggregationError) Error() string {
	return "could not summarize results: " + e.Reason
}

// Complete reports whether s carries every metric ranking needs.
func Complete(s benchmark.Sample) bool {
	return s.Quality.IsAvailable() && !math.IsNaN(s.TokensPerSec) && !math.IsNaN(s.LatencyMS)
}

type group struct {
	model     string
	quantized bool
	quality   []float64
	tps       []float64
	latency   []float64
}

// Summarize ranks models by composite score:
//
//	0.5*quality + 0.3*(tps/max tps) + 0.2*((1/latency)/max(1/latency))
//
// Incomplete samples are dropped first. Models keep first-seen order on ties.
// A model with zero mean latency gets no latency credit and ranks after every
// model with a measurable latency.
// It returns every summary in rank order and the rank-1 summary.
func Summarize(samples []benchmark.Sample) ([]ModelSummary, ModelSummary, error) {
	var order []*group
	byModel := map[string]*group{}
	for _, s := range samples {
		if !Complete(s) {
			continue
		}
		g, ok := byModel[s.Model]
		if !ok {
			g = &group{model: s.Model, quantized: s.Quantized}
			byModel[s.Model] = g
			order = append(order, g)
		}
		q, _ := s.Quality.Value()
		g.quality = append(g.quality, q)
		g.tps = append(g.tps, s.TokensPerSec)
		g.latency = append(g.latency, s.LatencyMS)
	}
	if len(order) == 0 {
		return nil, ModelSummary{}, &AggregationError{Reason: "no complete samples"}
	}

	out := make([]ModelSummary, 0, len(order))
	tps := make([]float64, 0, len(order))
	invLatency := make([]float64, 0, len(order))
	for _, g := range order {
		ms := ModelSummary{
			Model:        g.model,
			MeanQuality:  stats.Mean(g.quality),
			TokensPerSec: stats.Mean(g.tps),
			LatencyMS:    stats.Mean(g.latency),
			Quantized:    g.quantized,
			Samples:      len(g.quality),
		}
		inv := 0.0
		if ms.LatencyMS > 0 {
			inv = 1 / ms.LatencyMS
		} else {
			logging.Logger.Warn("model has no latency, ranking it last", "model", ms.Model)
		}
		out = append(out, ms)
		tps = append(tps, ms.TokensPerSec)
		invLatency = append(invLatency, inv)
	}

	maxTPS := stats.Max(tps)
	if maxTPS <= 0 {
		return nil, ModelSummary{}, &AggregationError{Reason: "maximum throughput is zero"}
	}
	maxInv := stats.Max(invLatency)
	if maxInv <= 0 {
		return nil, ModelSummary{}, &AggregationError{Reason: "no model has a positive latency"}
	}

	ranked := make([]ModelSummary, 0, len(out))
	var degenerate []ModelSummary
	for i := range out {
		out[i].Score = QualityWeight*out[i].MeanQuality +
			ThroughputWeight*(out[i].TokensPerSec/maxTPS) +
			LatencyWeight*(invLatency[i]/maxInv)
		if invLatency[i] > 0 {
			ranked = append(ranked, out[i])
		} else {
			degenerate = append(degenerate, out[i])
		}
	}

	// Models without a latency always follow the measurable ones.
	byScore := func(s []ModelSummary) {
		sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
	}
	byScore(ranked)
	byScore(degenerate)
	ranked = append(ranked, degenerate...)
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked, ranked[0], nil
}
