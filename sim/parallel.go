package sim

import (
	"context"
	"log/slog"
	"runtime"

	"github.com/mlange-42/ark/ecs"
	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/respire/systems"
	"github.com/pthm-cable/respire/telemetry"
)

// parallelThreshold is the minimum organism count to breathe regions in parallel.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// breatherSnapshot captures one organism's view for the respiration phase.
type breatherSnapshot struct {
	Entity   ecs.Entity
	Region   int
	Breather systems.Breather
}

// stepResult is written by index during the parallel phase.
type stepResult struct {
	Outcome systems.Outcome
	Err     error
}

// batchState holds reusable per-tick buffers.
type batchState struct {
	snapshots []breatherSnapshot
	results   []stepResult
	byRegion  [][]int // snapshot indices per region
	workers   int
}

func newBatchState(regions int) *batchState {
	return &batchState{
		byRegion: make([][]int, regions),
		workers:  runtime.GOMAXPROCS(0),
	}
}

// buildSnapshots resolves every living organism's region and environment.
// Environments are looked up fresh each tick so organisms that drifted breathe
// their new region.
func (s *Simulation) buildSnapshots() {
	b := s.batch
	b.snapshots = b.snapshots[:0]
	for i := range b.byRegion {
		b.byRegion[i] = b.byRegion[i][:0]
	}

	query := s.entityFilter.Query()
	for query.Next() {
		pos, _, org, resp, respirator := query.Get()
		if !org.Alive {
			continue
		}
		region := s.grid.IndexAt(pos.X, pos.Y)

		profile := s.cfg.Derived.Profiles[org.ProfileID]
		b.byRegion[region] = append(b.byRegion[region], len(b.snapshots))
		b.snapshots = append(b.snapshots, breatherSnapshot{
			Entity: query.Entity(),
			Region: region,
			Breather: systems.Breather{
				ID:          respirator.OrganismID,
				Profile:     profile,
				Environment: s.grid.Region(region).Env,
				Respiratory: resp,
				Respirator:  respirator,
			},
		})
	}

	if cap(b.results) < len(b.snapshots) {
		b.results = make([]stepResult, len(b.snapshots))
	}
	b.results = b.results[:len(b.snapshots)]
}

// updateRespiration steps every snapshot. Organisms sharing a region run
// sequentially under the region lock; distinct regions run concurrently.
func (s *Simulation) updateRespiration(ctx context.Context) error {
	b := s.batch
	elapsed := s.cfg.Physics.DT

	active := 0
	for _, idx := range b.byRegion {
		if len(idx) > 0 {
			active++
		}
	}

	if len(b.snapshots) < parallelThreshold || active < 2 {
		for r, idx := range b.byRegion {
			if err := s.breatheRegion(ctx, r, idx, elapsed); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for r, idx := range b.byRegion {
		if len(idx) == 0 {
			continue
		}
		g.Go(func() error {
			return s.breatheRegion(gctx, r, idx, elapsed)
		})
	}
	return g.Wait()
}

// breatheRegion runs the driver for every organism in one region.
// Only context cancellation is returned; driver errors are stored per organism.
func (s *Simulation) breatheRegion(ctx context.Context, region int, indices []int, elapsed float64) error {
	if len(indices) == 0 {
		return nil
	}
	r := s.grid.Region(region)
	r.mu.Lock()
	defer r.mu.Unlock()

	b := s.batch
	for _, i := range indices {
		if err := ctx.Err(); err != nil {
			return err
		}
		out, err := s.driver.Step(b.snapshots[i].Breather, elapsed, s.tick)
		b.results[i] = stepResult{Outcome: out, Err: err}
	}
	return nil
}

// applyResults folds step outcomes into telemetry and lifecycle state.
// Runs single-threaded after the parallel phase.
func (s *Simulation) applyResults() {
	b := s.batch
	dt := s.cfg.Derived.DT32
	lethal := s.cfg.Population.LethalWindows

	s.breathing, s.suffocating = 0, 0
	for i, snap := range b.snapshots {
		res := b.results[i]
		respirator := snap.Breather.Respirator
		id := respirator.OrganismID

		if respirator.Suffocating() {
			s.suffocating++
		} else {
			s.breathing++
		}

		if res.Err != nil {
			s.tickFailed++
			s.collector.RecordFailure()
			s.lifetimes.RecordFailure(id)
			s.events = append(s.events, telemetry.NewStepFailureEvent(s.tick, id, snap.Region, res.Err))
			slog.Warn("respiration step failed", "tick", s.tick, "organism", id, "region", snap.Region, "error", res.Err)
			continue
		}

		out := res.Outcome
		s.tickBreaths += out.Breaths
		s.collector.RecordOutcome(out)
		s.lifetimes.RecordBreaths(id, out.Breaths, out.Report.Saturation, out.Evaluated)

		switch out.Transition {
		case systems.TransitionSuffocate:
			s.lifetimes.RecordSuffocation(id)
			s.events = append(s.events, telemetry.NewSuffocateEvent(s.tick, id, snap.Region, respirator.Saturation))
			s.metrics.ObserveTransition(out.Transition.String())
			slog.Debug("organism suffocating", "tick", s.tick, "organism", id, "region", snap.Region)
		case systems.TransitionRecover:
			s.events = append(s.events, telemetry.NewRecoverEvent(s.tick, id, snap.Region, respirator.Saturation))
			s.metrics.ObserveTransition(out.Transition.String())
			slog.Debug("organism recovered", "tick", s.tick, "organism", id, "region", snap.Region)
		}

		if out.Suffocating {
			s.lifetimes.RecordSuffocating(id, dt)
		}
		s.lifetimes.UpdateSurvivalTime(id, s.tick, dt)

		if lethal > 0 && respirator.SuffocatingWindows >= lethal {
			if org := s.orgMap.Get(snap.Entity); org != nil {
				org.Alive = false
			}
		}
	}
}

// flushTelemetry checks if the stats window should be flushed and writes outputs.
func (s *Simulation) flushTelemetry() {
	if len(s.events) > 0 && s.output != nil {
		if err := s.output.WriteEvents(s.events); err != nil {
			slog.Error("failed to write events", "error", err)
		}
	}
	s.events = s.events[:0]

	if !s.collector.ShouldFlush(s.tick) {
		return
	}

	saturations := s.sampleSaturations()
	pools := s.Pools()

	stats := s.collector.Flush(s.tick, s.breathing, s.suffocating, saturations, pools)
	if s.output != nil {
		stats.RunID = s.output.RunID()
	}
	perfStats := s.perf.Stats()

	if s.onStats != nil {
		s.onStats(stats)
	}

	if s.logStats {
		stats.LogStats()
		perfStats.LogStats()
	}

	if s.output != nil {
		if err := s.output.WriteTelemetry(stats); err != nil {
			slog.Error("failed to write telemetry", "error", err)
		}
		if err := s.output.WritePerf(perfStats, stats.WindowEndTick); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	s.metrics.SetPopulation(s.breathing+s.suffocating, s.suffocating)
	for i := 0; i < s.grid.Len(); i++ {
		r := s.grid.Region(i)
		s.metrics.SetRegionPressure(r.Label(), r.Env.TotalPressure())
	}
}

// sampleSaturations collects the last evaluated saturation of living organisms.
func (s *Simulation) sampleSaturations() []float64 {
	var out []float64
	query := s.entityFilter.Query()
	for query.Next() {
		_, _, org, _, respirator := query.Get()
		if !org.Alive || respirator.Evaluations == 0 {
			continue
		}
		out = append(out, respirator.Saturation)
	}
	return out
}
