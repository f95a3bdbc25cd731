package telemetry

import "log/slog"

// LifetimeStats tracks per-organism respiration statistics over its lifetime.
type LifetimeStats struct {
	BirthTick       int32
	SurvivalTimeSec float32
	ProfileID       uint8

	Breaths          int
	SuffocationCount int     // onsets
	SuffocatingSec   float32 // time spent suffocating
	MinSaturation    float64
	StepFailures     int
}

// LogValue implements slog.LogValuer for structured logging.
func (s *LifetimeStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("birth_tick", int(s.BirthTick)),
		slog.Float64("survival_sec", float64(s.SurvivalTimeSec)),
		slog.Int("profile", int(s.ProfileID)),
		slog.Int("breaths", s.Breaths),
		slog.Int("suffocations", s.SuffocationCount),
		slog.Float64("suffocating_sec", float64(s.SuffocatingSec)),
		slog.Float64("min_saturation", s.MinSaturation),
		slog.Int("step_failures", s.StepFailures),
	)
}

// LifetimeTracker manages per-organism lifetime statistics.
// Not safe for concurrent use; the simulation records from its main goroutine.
type LifetimeTracker struct {
	stats map[uint32]*LifetimeStats
}

// NewLifetimeTracker creates a new lifetime tracker.
func NewLifetimeTracker() *LifetimeTracker {
	return &LifetimeTracker{
		stats: make(map[uint32]*LifetimeStats),
	}
}

// Register creates lifetime stats for a new organism.
func (lt *LifetimeTracker) Register(id uint32, birthTick int32, profileID uint8) {
	lt.stats[id] = &LifetimeStats{
		BirthTick:     birthTick,
		ProfileID:     profileID,
		MinSaturation: 1,
	}
}

// Get returns the lifetime stats for an organism, or nil if not found.
func (lt *LifetimeTracker) Get(id uint32) *LifetimeStats {
	return lt.stats[id]
}

// Remove removes an organism's stats and returns them (for logging).
func (lt *LifetimeTracker) Remove(id uint32) *LifetimeStats {
	stats := lt.stats[id]
	delete(lt.stats, id)
	return stats
}

// RecordBreaths adds completed breaths and tracks the lowest saturation seen.
func (lt *LifetimeTracker) RecordBreaths(id uint32, breaths int, saturation float64, evaluated bool) {
	s := lt.stats[id]
	if s == nil {
		return
	}
	s.Breaths += breaths
	if evaluated && saturation < s.MinSaturation {
		s.MinSaturation = saturation
	}
}

// RecordSuffocation increments the suffocation onset count.
func (lt *LifetimeTracker) RecordSuffocation(id uint32) {
	if s := lt.stats[id]; s != nil {
		s.SuffocationCount++
	}
}

// RecordSuffocating adds dt seconds of suffocation.
func (lt *LifetimeTracker) RecordSuffocating(id uint32, dt float32) {
	if s := lt.stats[id]; s != nil {
		s.SuffocatingSec += dt
	}
}

// RecordFailure increments the failed step count.
func (lt *LifetimeTracker) RecordFailure(id uint32) {
	if s := lt.stats[id]; s != nil {
		s.StepFailures++
	}
}

// UpdateSurvivalTime updates the survival time based on current tick.
func (lt *LifetimeTracker) UpdateSurvivalTime(id uint32, currentTick int32, dt float32) {
	if s := lt.stats[id]; s != nil {
		s.SurvivalTimeSec = float32(currentTick-s.BirthTick) * dt
	}
}

// Count returns the number of tracked organisms.
func (lt *LifetimeTracker) Count() int {
	return len(lt.stats)
}
