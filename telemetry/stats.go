package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	RunID           string  `csv:"run_id"`
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population at window end
	Organisms   int `csv:"organisms"`
	Breathing   int `csv:"breathing"`
	Suffocating int `csv:"suffocating"`

	// Events during window
	Spawns       int `csv:"spawns"`
	Deaths       int `csv:"deaths"`
	Onsets       int `csv:"suffocation_onsets"`
	Recoveries   int `csv:"recoveries"`
	StepFailures int `csv:"step_failures"`

	// Gas flow during window (moles)
	Breaths   int     `csv:"breaths"`
	Inhaled   float64 `csv:"inhaled"`
	ToBlood   float64 `csv:"to_blood"`
	FromBlood float64 `csv:"from_blood"`
	Exhaled   float64 `csv:"exhaled"`
	Consumed  float64 `csv:"consumed"`
	Produced  float64 `csv:"produced"`

	// Saturation distribution (sampled at window end)
	SaturationMean float64 `csv:"saturation_mean"`
	SaturationStd  float64 `csv:"saturation_std"`
	SaturationP10  float64 `csv:"saturation_p10"`
	SaturationP50  float64 `csv:"saturation_p50"`
	SaturationP90  float64 `csv:"saturation_p90"`

	// Gas pools (for conservation validation)
	EnvironmentMoles float64 `csv:"environment_moles"`
	LungMoles        float64 `csv:"lung_moles"`
	BloodMoles       float64 `csv:"blood_moles"`
	ConsumedAccum    float64 `csv:"consumed_accum"` // cumulative moles destroyed by metabolism
	ProducedAccum    float64 `csv:"produced_accum"` // cumulative moles created by metabolism
	ConservationErr  float64 `csv:"conservation_err"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSaturationStats calculates mean, population std, and percentiles.
func ComputeSaturationStats(values []float64) (mean, std, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0, 0
	}

	mean, std = stat.PopMeanStdDev(values, nil)

	// Sort for percentiles
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p10, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("organisms", s.Organisms),
		slog.Int("breathing", s.Breathing),
		slog.Int("suffocating", s.Suffocating),
		slog.Int("spawns", s.Spawns),
		slog.Int("deaths", s.Deaths),
		slog.Int("onsets", s.Onsets),
		slog.Int("recoveries", s.Recoveries),
		slog.Int("step_failures", s.StepFailures),
		slog.Int("breaths", s.Breaths),
		slog.Float64("inhaled", s.Inhaled),
		slog.Float64("exhaled", s.Exhaled),
		slog.Float64("consumed", s.Consumed),
		slog.Float64("produced", s.Produced),
		slog.Float64("saturation_mean", s.SaturationMean),
		slog.Float64("saturation_p10", s.SaturationP10),
		slog.Float64("saturation_p50", s.SaturationP50),
		slog.Float64("saturation_p90", s.SaturationP90),
		slog.Float64("environment_moles", s.EnvironmentMoles),
		slog.Float64("lung_moles", s.LungMoles),
		slog.Float64("blood_moles", s.BloodMoles),
		slog.Float64("conservation_err", s.ConservationErr),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
