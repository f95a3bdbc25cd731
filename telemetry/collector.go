package telemetry

import "github.com/pthm-cable/respire/systems"

// Collector accumulates events within time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float32

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	spawns       int
	deaths       int
	onsets       int
	recoveries   int
	stepFailures int

	// Gas flow for current window
	breaths   int
	inhaled   float64
	toBlood   float64
	fromBlood float64
	exhaled   float64
	consumed  float64
	produced  float64

	// Cumulative, never reset
	consumedAccum float64
	producedAccum float64
	baseline      float64
	hasBaseline   bool
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec float64, dt float32) *Collector {
	ticksPerWindow := int32(windowDurationSec / float64(dt))
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// SetBaseline records the total moles present when the run started.
// Later windows report drift from it after accounting for metabolism.
func (c *Collector) SetBaseline(totalMoles float64) {
	c.baseline = totalMoles
	c.hasBaseline = true
}

// RecordOutcome folds one organism's tick outcome into the window.
func (c *Collector) RecordOutcome(o systems.Outcome) {
	c.breaths += o.Breaths
	c.inhaled += o.Inhaled
	c.toBlood += o.ToBlood
	c.fromBlood += o.FromBlood
	c.exhaled += o.Exhaled
	c.consumed += o.Consumed
	c.produced += o.Produced
	c.consumedAccum += o.Consumed
	c.producedAccum += o.Produced

	switch o.Transition {
	case systems.TransitionSuffocate:
		c.onsets++
	case systems.TransitionRecover:
		c.recoveries++
	}
}

// RecordFailure records an organism step that returned an error.
func (c *Collector) RecordFailure() {
	c.stepFailures++
}

// RecordSpawn records a spawn event.
func (c *Collector) RecordSpawn() {
	c.spawns++
}

// RecordDeath records a death event.
func (c *Collector) RecordDeath() {
	c.deaths++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// GasPools holds mole totals for conservation tracking.
type GasPools struct {
	Environment float64 // all region mixtures
	Lungs       float64 // all lungs of living organisms
	Blood       float64 // all bloodstreams of living organisms
}

// Total returns the sum of all pools.
func (p GasPools) Total() float64 {
	return p.Environment + p.Lungs + p.Blood
}

// Flush produces a WindowStats and resets counters for the next window.
// The caller must provide:
// - currentTick: the current simulation tick
// - breathing, suffocating: current population counts
// - saturations: blood/need ratios of living organisms for percentile calculation
// - pools: gas pool totals for conservation tracking
func (c *Collector) Flush(
	currentTick int32,
	breathing, suffocating int,
	saturations []float64,
	pools GasPools,
) WindowStats {
	satMean, satStd, satP10, satP50, satP90 := ComputeSaturationStats(saturations)

	var conservationErr float64
	if c.hasBaseline {
		conservationErr = pools.Total() + c.consumedAccum - c.producedAccum - c.baseline
	}

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * float64(c.dt),

		Organisms:   breathing + suffocating,
		Breathing:   breathing,
		Suffocating: suffocating,

		Spawns:       c.spawns,
		Deaths:       c.deaths,
		Onsets:       c.onsets,
		Recoveries:   c.recoveries,
		StepFailures: c.stepFailures,

		Breaths:   c.breaths,
		Inhaled:   c.inhaled,
		ToBlood:   c.toBlood,
		FromBlood: c.fromBlood,
		Exhaled:   c.exhaled,
		Consumed:  c.consumed,
		Produced:  c.produced,

		SaturationMean: satMean,
		SaturationStd:  satStd,
		SaturationP10:  satP10,
		SaturationP50:  satP50,
		SaturationP90:  satP90,

		EnvironmentMoles: pools.Environment,
		LungMoles:        pools.Lungs,
		BloodMoles:       pools.Blood,
		ConsumedAccum:    c.consumedAccum,
		ProducedAccum:    c.producedAccum,
		ConservationErr:  conservationErr,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.spawns = 0
	c.deaths = 0
	c.onsets = 0
	c.recoveries = 0
	c.stepFailures = 0
	c.breaths = 0
	c.inhaled = 0
	c.toBlood = 0
	c.fromBlood = 0
	c.exhaled = 0
	c.consumed = 0
	c.produced = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
