// Package sim runs breathing organisms over a grid of gas regions using an ECS world.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/respire/components"
	"github.com/pthm-cable/respire/config"
	"github.com/pthm-cable/respire/gas"
	"github.com/pthm-cable/respire/systems"
	"github.com/pthm-cable/respire/telemetry"
)

// ErrUnknownProfile is returned when spawning with a profile index that does not exist.
var ErrUnknownProfile = errors.New("unknown respiratory profile")

// Options configures optional simulation outputs.
type Options struct {
	Output   *telemetry.OutputManager
	Metrics  *telemetry.Metrics
	LogStats bool                        // log window and perf stats via slog
	OnStats  func(telemetry.WindowStats) // called after every flushed window
}

// Simulation holds the complete simulation state.
// It is driven from a single goroutine; Step fans work out internally.
type Simulation struct {
	cfg    *config.Config
	world  *ecs.World
	rng    *rand.Rand
	driver *systems.TickDriver
	grid   *Grid
	bounds systems.Bounds
	drift  systems.DriftParams

	// Entity mapper and filter for the organism archetype
	entityMapper *ecs.Map5[
		components.Position,
		components.Velocity,
		components.Organism,
		components.Respiratory,
		components.Respirator,
	]
	entityFilter *ecs.Filter5[
		components.Position,
		components.Velocity,
		components.Organism,
		components.Respiratory,
		components.Respirator,
	]

	// Individual component mappers for lookups
	posMap        *ecs.Map1[components.Position]
	orgMap        *ecs.Map1[components.Organism]
	respMap       *ecs.Map1[components.Respiratory]
	respiratorMap *ecs.Map1[components.Respirator]

	// Stable organism id -> entity; entities are recycled by the world
	entities map[uint32]ecs.Entity
	nextID   uint32
	weights  []float64 // cumulative profile spawn weights

	batch *batchState

	// Telemetry
	systems   *systems.SystemRegistry
	collector *telemetry.Collector
	perf      *telemetry.PerfCollector
	lifetimes *telemetry.LifetimeTracker
	output    *telemetry.OutputManager
	metrics   *telemetry.Metrics
	events    []telemetry.Event
	logStats  bool
	onStats   func(telemetry.WindowStats)

	// State
	tick        int32
	breathing   int
	suffocating int
	tickBreaths int
	tickFailed  int
}

// New creates a simulation with an empty population.
// Call SpawnInitialPopulation or Spawn to add organisms.
func New(cfg *config.Config, opts Options) (*Simulation, error) {
	grid, err := NewGrid(cfg)
	if err != nil {
		return nil, err
	}

	world := ecs.NewWorld()
	w, h := grid.Size()

	s := &Simulation{
		cfg:    cfg,
		world:  world,
		rng:    rand.New(rand.NewSource(cfg.Physics.Seed)),
		driver: systems.NewTickDriver(cfg.DriverConfig()),
		grid:   grid,
		bounds: systems.Bounds{Width: w, Height: h},
		drift: systems.DriftParams{
			MaxSpeed: float32(cfg.Movement.MaxSpeed),
			Jitter:   float32(cfg.Movement.Jitter),
		},
		entityMapper: ecs.NewMap5[
			components.Position,
			components.Velocity,
			components.Organism,
			components.Respiratory,
			components.Respirator,
		](world),
		entityFilter: ecs.NewFilter5[
			components.Position,
			components.Velocity,
			components.Organism,
			components.Respiratory,
			components.Respirator,
		](world),
		posMap:        ecs.NewMap1[components.Position](world),
		orgMap:        ecs.NewMap1[components.Organism](world),
		respMap:       ecs.NewMap1[components.Respiratory](world),
		respiratorMap: ecs.NewMap1[components.Respirator](world),
		entities:      make(map[uint32]ecs.Entity),
		nextID:        1,
		weights:       cumulativeWeights(cfg.Profiles),
		batch:         newBatchState(grid.Len()),
		systems:       systems.NewSystemRegistry(),
		collector:     telemetry.NewCollector(cfg.Telemetry.StatsWindow, cfg.Derived.DT32),
		perf:          telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		lifetimes:     telemetry.NewLifetimeTracker(),
		output:        opts.Output,
		metrics:       opts.Metrics,
		logStats:      opts.LogStats,
		onStats:       opts.OnStats,
	}

	// Organisms spawn with empty lungs and blood, so the grid holds every mole.
	s.collector.SetBaseline(grid.TotalMoles())

	slog.Debug("simulation created",
		"regions", grid.Len(),
		"systems", s.systems.IDs(),
		"driver", fmt.Sprintf("%+v", s.driver.Config()),
	)
	return s, nil
}

// cumulativeWeights turns per-profile weights into a cumulative table.
// All-zero weights spawn profiles uniformly.
func cumulativeWeights(profiles []config.ProfileConfig) []float64 {
	out := make([]float64, len(profiles))
	var sum float64
	for i, p := range profiles {
		sum += p.Weight
		out[i] = sum
	}
	if sum <= 0 {
		for i := range out {
			out[i] = float64(i + 1)
		}
	}
	return out
}

// pickProfile draws a profile index by spawn weight.
func (s *Simulation) pickProfile() uint8 {
	total := s.weights[len(s.weights)-1]
	r := s.rng.Float64() * total
	for i, c := range s.weights {
		if r < c {
			return uint8(i)
		}
	}
	return uint8(len(s.weights) - 1)
}

// SpawnInitialPopulation creates the starting organisms at random positions.
func (s *Simulation) SpawnInitialPopulation() error {
	for i := 0; i < s.cfg.Population.Initial; i++ {
		x := s.rng.Float32() * s.bounds.Width
		y := s.rng.Float32() * s.bounds.Height
		if _, err := s.Spawn(s.pickProfile(), x, y); err != nil {
			return err
		}
	}
	return nil
}

// Spawn creates an organism with empty lungs and bloodstream and returns its id.
func (s *Simulation) Spawn(profileID uint8, x, y float32) (uint32, error) {
	if int(profileID) >= len(s.cfg.Derived.Profiles) {
		return 0, fmt.Errorf("profile %d: %w", profileID, ErrUnknownProfile)
	}

	rc := s.cfg.Respiration
	reg := s.cfg.Derived.Registry
	temp := s.cfg.World.Temperature

	resp := components.Respiratory{}
	blood, err := gas.NewMixture(rc.BloodVolume, temp, reg)
	if err != nil {
		return 0, fmt.Errorf("blood: %w", err)
	}
	resp.Blood = blood
	for i := 0; i < rc.Lungs; i++ {
		lung, err := gas.NewMixture(rc.LungVolume, temp, reg)
		if err != nil {
			return 0, fmt.Errorf("lung: %w", err)
		}
		resp.Lungs = append(resp.Lungs, lung)
	}

	id := s.nextID
	s.nextID++

	pos := components.Position{X: x, Y: y}
	vel := components.Velocity{}
	org := components.Organism{ID: id, ProfileID: profileID, Alive: true}
	respirator := components.Respirator{OrganismID: id}

	entity := s.entityMapper.NewEntity(&pos, &vel, &org, &resp, &respirator)
	s.entities[id] = entity
	s.breathing++

	s.lifetimes.Register(id, s.tick, profileID)
	s.collector.RecordSpawn()
	s.events = append(s.events, telemetry.NewSpawnEvent(s.tick, id, s.grid.IndexAt(x, y)))
	return id, nil
}

// lookup resolves an organism id to its entity. The respirator's back-reference
// must still name id; a dead or recycled entity drops the mapping.
func (s *Simulation) lookup(id uint32) (ecs.Entity, bool) {
	entity, ok := s.entities[id]
	if !ok {
		return entity, false
	}
	if !s.world.Alive(entity) || s.respiratorMap.Get(entity).OrganismID != id {
		delete(s.entities, id)
		return entity, false
	}
	return entity, true
}

// IsSuffocating reports whether organism id is suffocating.
// present is false once the organism has been removed.
func (s *Simulation) IsSuffocating(id uint32) (suffocating, present bool) {
	entity, ok := s.lookup(id)
	if !ok {
		return false, false
	}
	return s.respiratorMap.Get(entity).Suffocating(), true
}

// Remove deletes an organism. Gas held in its lungs and bloodstream is
// released into its current region. Returns false if id is unknown.
// Must not be called while Step is running.
func (s *Simulation) Remove(id uint32) bool {
	entity, ok := s.lookup(id)
	if !ok {
		return false
	}
	delete(s.entities, id)

	pos := s.posMap.Get(entity)
	region := s.grid.IndexAt(pos.X, pos.Y)
	if err := s.release(s.respMap.Get(entity), s.grid.Region(region).Env); err != nil {
		slog.Error("releasing organism gas", "organism", id, "error", err)
	}

	if r := s.respiratorMap.Get(entity); r != nil && r.Suffocating() {
		s.suffocating--
	} else {
		s.breathing--
	}

	if stats := s.lifetimes.Remove(id); stats != nil {
		stats.SurvivalTimeSec = float32(s.tick-stats.BirthTick) * s.cfg.Derived.DT32
		slog.Debug("organism removed", "organism", id, "lifetime", stats)
	}

	s.world.RemoveEntity(entity)
	return true
}

// release moves every mole held by an organism into env.
func (s *Simulation) release(resp *components.Respiratory, env *gas.Mixture) error {
	if resp == nil {
		return nil
	}
	mixtures := append([]*gas.Mixture{resp.Blood}, resp.Lungs...)
	for _, m := range mixtures {
		if m == nil {
			continue
		}
		var err error
		m.Each(func(sp gas.Species, n float64) {
			if err != nil {
				return
			}
			err = env.AdjustMoles(sp, n)
		})
		if err != nil {
			return err
		}
		m.Clear()
	}
	return nil
}

// Step runs a single tick of the simulation.
// Only context cancellation is returned as an error; per-organism failures are
// logged and counted.
func (s *Simulation) Step(ctx context.Context) error {
	start := time.Now()
	s.perf.StartTick()
	s.tickBreaths, s.tickFailed = 0, 0

	// 1. Move organisms
	s.perf.StartPhase(telemetry.PhaseDrift)
	s.updateDrift()

	// 2. Resolve each organism's environment for this tick
	s.perf.StartPhase(telemetry.PhaseSnapshot)
	s.buildSnapshots()

	// 3. Breathe, region by region
	s.perf.StartPhase(telemetry.PhaseRespiration)
	if err := s.updateRespiration(ctx); err != nil {
		s.perf.EndTick()
		return err
	}
	s.applyResults()

	// 4. Remove dead organisms
	s.perf.StartPhase(telemetry.PhaseCleanup)
	s.cleanupDead()

	s.tick++

	// 5. Stats windows
	s.perf.StartPhase(telemetry.PhaseTelemetry)
	s.flushTelemetry()

	s.perf.EndTick()
	s.metrics.ObserveTick(time.Since(start).Seconds(), s.tickBreaths, s.tickFailed)
	return nil
}

// updateDrift applies the random walk to every living organism.
func (s *Simulation) updateDrift() {
	dt := s.cfg.Derived.DT32

	query := s.entityFilter.Query()
	for query.Next() {
		pos, vel, org, _, _ := query.Get()
		if !org.Alive {
			continue
		}
		systems.UpdateDrift(pos, vel, s.bounds, s.drift, dt, s.rng)
		org.Age += dt
	}
}

// cleanupDead removes organisms marked dead this tick.
func (s *Simulation) cleanupDead() {
	// First pass: collect dead organisms (must complete before modifying)
	var dead []uint32
	query := s.entityFilter.Query()
	for query.Next() {
		_, _, org, _, _ := query.Get()
		if !org.Alive {
			dead = append(dead, org.ID)
		}
	}

	// Second pass: remove (query iteration complete)
	for _, id := range dead {
		entity := s.entities[id]
		pos := s.posMap.Get(entity)
		region := s.grid.IndexAt(pos.X, pos.Y)

		s.collector.RecordDeath()
		s.events = append(s.events, telemetry.NewDeathEvent(s.tick, id, region))
		s.Remove(id)
	}
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int32 { return s.tick }

// Population returns the current breathing and suffocating counts.
func (s *Simulation) Population() (breathing, suffocating int) {
	return s.breathing, s.suffocating
}

// Grid returns the region grid.
func (s *Simulation) Grid() *Grid { return s.grid }

// Config returns the simulation config.
func (s *Simulation) Config() *config.Config { return s.cfg }

// Pools sums the moles held by regions, lungs and bloodstreams.
func (s *Simulation) Pools() telemetry.GasPools {
	pools := telemetry.GasPools{Environment: s.grid.TotalMoles()}
	query := s.entityFilter.Query()
	for query.Next() {
		_, _, _, resp, _ := query.Get()
		pools.Blood += resp.Blood.TotalMoles()
		for _, lung := range resp.Lungs {
			pools.Lungs += lung.TotalMoles()
		}
	}
	return pools
}

// Respiratory returns the lungs and bloodstream of organism id, or nil.
// The mixtures are live; do not mutate them while Step is running.
func (s *Simulation) Respiratory(id uint32) *components.Respiratory {
	entity, ok := s.lookup(id)
	if !ok {
		return nil
	}
	return s.respMap.Get(entity)
}

// Respirator returns the respirator state of organism id, or nil.
func (s *Simulation) Respirator(id uint32) *components.Respirator {
	entity, ok := s.lookup(id)
	if !ok {
		return nil
	}
	return s.respiratorMap.Get(entity)
}

// Lifetime returns the lifetime stats of organism id, or nil.
func (s *Simulation) Lifetime(id uint32) *telemetry.LifetimeStats {
	return s.lifetimes.Get(id)
}

// Perf returns the tick phase timings.
func (s *Simulation) Perf() telemetry.PerfStats {
	return s.perf.Stats()
}
