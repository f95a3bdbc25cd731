package telemetry

import (
	"math"
	"testing"

	"github.com/pthm-cable/respire/systems"
)

func TestPercentile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.5},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.9},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Percentile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Percentile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeSaturationStats(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean, std, p10, p50, p90 := ComputeSaturationStats(values)

	if math.Abs(mean-5) > 1e-9 {
		t.Errorf("mean = %v, want 5", mean)
	}
	// Population standard deviation of the classic example set is exactly 2.
	if math.Abs(std-2) > 1e-9 {
		t.Errorf("std = %v, want 2", std)
	}
	if p10 > p50 || p50 > p90 {
		t.Errorf("percentiles out of order: %v %v %v", p10, p50, p90)
	}
	if math.Abs(p50-4.5) > 1e-9 {
		t.Errorf("p50 = %v, want 4.5", p50)
	}
}

func TestComputeSaturationStatsEmpty(t *testing.T) {
	mean, std, p10, p50, p90 := ComputeSaturationStats(nil)
	if mean != 0 || std != 0 || p10 != 0 || p50 != 0 || p90 != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollector_FlushAndReset(t *testing.T) {
	c := NewCollector(1.25, 0.125)
	if c.WindowDurationTicks() != 10 {
		t.Fatalf("ticks per window = %d, want 10", c.WindowDurationTicks())
	}
	c.SetBaseline(100)

	c.RecordOutcome(systems.Outcome{Breaths: 2, Inhaled: 0.5, Consumed: 0.25, Produced: 0.1, Transition: systems.TransitionSuffocate})
	c.RecordOutcome(systems.Outcome{Breaths: 1, Transition: systems.TransitionRecover})
	c.RecordFailure()
	c.RecordSpawn()
	c.RecordDeath()

	if c.ShouldFlush(9) {
		t.Error("should not flush before window ends")
	}
	if !c.ShouldFlush(10) {
		t.Error("should flush at window end")
	}

	// 100 moles at start, 0.25 destroyed and 0.1 created by metabolism.
	pools := GasPools{Environment: 99.5, Lungs: 0.1, Blood: 0.25}
	s := c.Flush(10, 3, 1, []float64{1, 2, 3, 4}, pools)

	if s.Breaths != 3 || s.Onsets != 1 || s.Recoveries != 1 || s.StepFailures != 1 {
		t.Errorf("counters wrong: %+v", s)
	}
	if s.Spawns != 1 || s.Deaths != 1 {
		t.Errorf("lifecycle counters wrong: %+v", s)
	}
	if s.Organisms != 4 || s.Suffocating != 1 {
		t.Errorf("population wrong: organisms=%d suffocating=%d", s.Organisms, s.Suffocating)
	}
	if s.SimTimeSec != 1.25 {
		t.Errorf("sim time = %v, want 1.25", s.SimTimeSec)
	}
	if math.Abs(s.ConservationErr) > 1e-9 {
		t.Errorf("conservation error = %v, want 0", s.ConservationErr)
	}

	next := c.Flush(20, 4, 0, nil, pools)
	if next.Breaths != 0 || next.Onsets != 0 || next.Consumed != 0 {
		t.Errorf("window counters not reset: %+v", next)
	}
	if next.ConsumedAccum != 0.25 || next.ProducedAccum != 0.1 {
		t.Errorf("cumulative counters should survive flush: %+v", next)
	}
	if next.WindowStartTick != 10 {
		t.Errorf("window start = %d, want 10", next.WindowStartTick)
	}
}

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker()
	lt.Register(7, 100, 0)

	lt.RecordBreaths(7, 3, 0.4, true)
	lt.RecordBreaths(7, 1, 0.1, false)
	lt.RecordSuffocation(7)
	lt.RecordSuffocating(7, 0.5)
	lt.RecordFailure(7)
	lt.UpdateSurvivalTime(7, 160, 0.5)

	// Unknown ids are ignored.
	lt.RecordSuffocation(99)

	s := lt.Remove(7)
	if s == nil {
		t.Fatal("expected stats")
	}
	if s.Breaths != 4 || s.SuffocationCount != 1 || s.StepFailures != 1 {
		t.Errorf("unexpected stats: %+v", *s)
	}
	if s.MinSaturation != 0.4 {
		t.Errorf("MinSaturation = %v, want 0.4 (unevaluated breaths ignored)", s.MinSaturation)
	}
	if s.SurvivalTimeSec != 30 {
		t.Errorf("SurvivalTimeSec = %v, want 30", s.SurvivalTimeSec)
	}
	if lt.Count() != 0 || lt.Get(7) != nil {
		t.Error("Remove should drop the entry")
	}
}
