package telemetry

import (
	"testing"
	"time"
)

func TestPerfCollector_BasicTiming(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate a few ticks
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSnapshot)
		time.Sleep(100 * time.Microsecond)
		pc.StartPhase(PhaseRespiration)
		time.Sleep(200 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Verify we got timing data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration")
	}

	// Verify phases are tracked
	if len(stats.PhaseAvg) == 0 {
		t.Error("expected phase averages to be populated")
	}

	if _, ok := stats.PhaseAvg[PhaseSnapshot]; !ok {
		t.Error("expected snapshot phase to be tracked")
	}

	if _, ok := stats.PhaseAvg[PhaseRespiration]; !ok {
		t.Error("expected respiration phase to be tracked")
	}
}

func TestPerfCollector_RollingWindow(t *testing.T) {
	pc := NewPerfCollector(5) // Small window

	// Fill window completely
	for i := 0; i < 10; i++ {
		pc.StartTick()
		pc.StartPhase(PhaseSnapshot)
		pc.EndTick()
	}

	stats := pc.Stats()

	// Should have data
	if stats.AvgTickDuration <= 0 {
		t.Error("expected positive average tick duration after window filled")
	}

	if stats.TicksPerSecond <= 0 {
		t.Error("expected positive ticks per second")
	}
}

func TestPerfCollector_PhasePercentages(t *testing.T) {
	pc := NewPerfCollector(10)

	// Simulate with uneven phase durations
	for i := 0; i < 5; i++ {
		pc.StartTick()
		pc.StartPhase("fast")
		time.Sleep(10 * time.Microsecond)
		pc.StartPhase("slow")
		time.Sleep(100 * time.Microsecond)
		pc.EndTick()
	}

	stats := pc.Stats()

	fastPct := stats.PhasePct["fast"]
	slowPct := stats.PhasePct["slow"]

	// Slow phase should take more % than fast
	if slowPct <= fastPct {
		t.Errorf("expected slow phase (%v%%) > fast phase (%v%%)", slowPct, fastPct)
	}
}

func TestPerfCollector_EmptyStats(t *testing.T) {
	pc := NewPerfCollector(10)

	stats := pc.Stats()

	// Empty collector should return zero values without panicking
	if stats.AvgTickDuration != 0 {
		t.Error("expected zero avg tick duration for empty collector")
	}

	if stats.PhaseAvg == nil {
		t.Error("expected non-nil PhaseAvg map")
	}

	if stats.PhasePct == nil {
		t.Error("expected non-nil PhasePct map")
	}
}

func TestPerfStats_ToCSV(t *testing.T) {
	stats := PerfStats{
		AvgTickDuration: 250 * time.Microsecond,
		PhasePct: map[string]float64{
			PhaseDrift:       10,
			PhaseRespiration: 80,
		},
	}

	row := stats.ToCSV(600)
	if row.WindowEnd != 600 || row.AvgTickUS != 250 {
		t.Errorf("unexpected row header fields: %+v", row)
	}
	if row.DriftPct != 10 || row.RespirationPct != 80 || row.CleanupPct != 0 {
		t.Errorf("phase percentages not mapped: %+v", row)
	}
}

func TestPhasesFollowTickOrder(t *testing.T) {
	want := []string{PhaseDrift, PhaseSnapshot, PhaseRespiration, PhaseCleanup, PhaseTelemetry}
	if len(Phases) != len(want) {
		t.Fatalf("Phases = %v, want %v", Phases, want)
	}
	for i := range want {
		if Phases[i] != want[i] {
			t.Errorf("Phases[%d] = %q, want %q", i, Phases[i], want[i])
		}
	}
}

func TestPerfStats_SlowestPhase(t *testing.T) {
	s := PerfStats{PhasePct: map[string]float64{
		PhaseDrift:       5,
		PhaseRespiration: 80,
		PhaseTelemetry:   15,
	}}
	phase, pct := s.SlowestPhase()
	if phase != PhaseRespiration || pct != 80 {
		t.Errorf("SlowestPhase() = %q, %v", phase, pct)
	}
	if got := phaseRegistry.Name(phase); got != "Respiration" {
		t.Errorf("display name = %q", got)
	}

	if phase, _ := (PerfStats{}).SlowestPhase(); phase != "" {
		t.Errorf("empty stats slowest = %q, want none", phase)
	}
}
