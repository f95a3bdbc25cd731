package sim

import (
	"fmt"
	"sort"

	"github.com/pthm-cable/respire/config"
)

// Scenario is a scripted single-region setup: one still organism of the first
// profile placed in the middle of a sealed region.
type Scenario struct {
	Name        string
	Description string
	Pressure    float64 // kPa
	Composition []config.GasFraction
}

var scenarios = map[string]Scenario{
	"sealed": {
		Name:        "sealed",
		Description: "20% oxygen, 80% nitrogen at one atmosphere",
		Pressure:    101.325,
		Composition: []config.GasFraction{
			{Gas: "oxygen", Fraction: 0.2},
			{Gas: "nitrogen", Fraction: 0.8},
		},
	},
	"vacuum": {
		Name:        "vacuum",
		Description: "oxygen-free, nitrogen only at one atmosphere",
		Pressure:    101.325,
		Composition: []config.GasFraction{
			{Gas: "nitrogen", Fraction: 1},
		},
	},
}

// LookupScenario returns a scenario by name.
func LookupScenario(name string) (Scenario, error) {
	sc, ok := scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("unknown scenario %q (have %v)", name, ScenarioNames())
	}
	return sc, nil
}

// ScenarioNames lists the scripted scenarios in name order.
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for n := range scenarios {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Config derives the scenario config from base. The result has a single
// region with no overrides, no movement and no initial population.
// base is not modified.
func (sc Scenario) Config(base *config.Config) (*config.Config, error) {
	cfg := *base
	cfg.World.Cols, cfg.World.Rows = 1, 1
	cfg.Atmosphere = config.AtmosphereConfig{
		Pressure:    sc.Pressure,
		Composition: append([]config.GasFraction(nil), sc.Composition...),
	}
	cfg.Regions = nil
	cfg.Movement = config.MovementConfig{}
	cfg.Population.Initial = 0

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}
	return &cfg, nil
}

// Build creates the scenario simulation and returns it with the id of its organism.
func (sc Scenario) Build(base *config.Config, opts Options) (*Simulation, uint32, error) {
	cfg, err := sc.Config(base)
	if err != nil {
		return nil, 0, err
	}
	s, err := New(cfg, opts)
	if err != nil {
		return nil, 0, err
	}
	w, h := s.grid.Size()
	id, err := s.Spawn(0, w/2, h/2)
	if err != nil {
		return nil, 0, err
	}
	return s, id, nil
}
