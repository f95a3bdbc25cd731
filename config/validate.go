package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/pthm-cable/respire/gas"
	"github.com/pthm-cable/respire/systems"
)

// compositionTolerance is how far composition fractions may sum from 1.
const compositionTolerance = 1e-6

// Validate checks the loaded configuration and returns every problem found,
// joined into one error.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !(c.Physics.DT > 0) {
		add("physics.dt must be positive, got %g", c.Physics.DT)
	}

	w := c.World
	if w.Cols < 1 || w.Rows < 1 {
		add("world grid must be at least 1x1, got %dx%d", w.Cols, w.Rows)
	}
	if !(w.RegionSize > 0) {
		add("world.region_size must be positive, got %g", w.RegionSize)
	}
	if !(w.RegionVolume > 0) {
		add("world.region_volume %g: %w", w.RegionVolume, gas.ErrInvalidVolume)
	}
	if !(w.Temperature > 0) {
		add("world.temperature must be positive, got %g", w.Temperature)
	}

	reg, err := gas.NewRegistry(c.Gases...)
	if err != nil {
		// Gas names are needed for every check below.
		add("gases: %w", err)
		return errors.Join(errs...)
	}

	if err := validateComposition(reg, c.Atmosphere.Pressure, c.Atmosphere.Composition); err != nil {
		add("atmosphere: %w", err)
	}
	for i, r := range c.Regions {
		if r.Col < 0 || r.Col >= w.Cols || r.Row < 0 || r.Row >= w.Rows {
			add("regions[%d]: cell (%d,%d) outside %dx%d grid", i, r.Col, r.Row, w.Cols, w.Rows)
		}
		if err := validateComposition(reg, r.Pressure, r.Composition); err != nil {
			add("regions[%d]: %w", i, err)
		}
	}

	rc := c.Respiration
	for name, v := range map[string]float64{
		"breath_volume": rc.BreathVolume,
		"lung_volume":   rc.LungVolume,
		"blood_volume":  rc.BloodVolume,
	} {
		if !(v > 0) {
			add("respiration.%s %g: %w", name, v, gas.ErrInvalidVolume)
		}
	}
	if rc.Lungs < 1 {
		add("respiration.lungs must be at least 1, got %d", rc.Lungs)
	}
	if rc.SuffocationThreshold < 1 {
		add("respiration.suffocation_threshold must be at least 1, got %d", rc.SuffocationThreshold)
	}
	if rc.BreathInterval < 0 || math.IsNaN(rc.BreathInterval) {
		add("respiration.breath_interval must not be negative, got %g", rc.BreathInterval)
	}
	if _, err := systems.ParseCadence(rc.Cadence); err != nil {
		add("respiration: %w", err)
	}

	if len(c.Profiles) == 0 {
		add("at least one profile is required")
	}
	if len(c.Profiles) > math.MaxUint8+1 {
		add("too many profiles: %d", len(c.Profiles))
	}
	seen := make(map[string]bool, len(c.Profiles))
	for i, p := range c.Profiles {
		if p.Name == "" {
			add("profiles[%d]: name is required", i)
		} else if seen[p.Name] {
			add("profiles[%d]: duplicate name %q", i, p.Name)
		}
		seen[p.Name] = true
		if p.Weight < 0 {
			add("profile %q: weight must not be negative, got %g", p.Name, p.Weight)
		}
		for _, err := range validateProfile(reg, p) {
			add("profile %q: %w", p.Name, err)
		}
	}

	if c.Population.Initial < 0 {
		add("population.initial must not be negative, got %d", c.Population.Initial)
	}
	if c.Population.LethalWindows < 0 {
		add("population.lethal_windows must not be negative, got %d", c.Population.LethalWindows)
	}
	if c.Movement.MaxSpeed < 0 || c.Movement.Jitter < 0 {
		add("movement speeds must not be negative")
	}
	if !(c.Telemetry.StatsWindow > 0) {
		add("telemetry.stats_window must be positive, got %g", c.Telemetry.StatsWindow)
	}

	return errors.Join(errs...)
}

func validateComposition(reg *gas.Registry, pressure float64, list []GasFraction) error {
	if pressure < 0 || math.IsNaN(pressure) {
		return fmt.Errorf("pressure %g: %w", pressure, gas.ErrNegativeQuantity)
	}
	if pressure == 0 {
		// Vacuum; any composition is irrelevant.
		return nil
	}
	var sum float64
	for _, f := range list {
		if _, ok := reg.Lookup(f.Gas); !ok {
			return fmt.Errorf("unknown gas %q", f.Gas)
		}
		if f.Fraction < 0 {
			return fmt.Errorf("fraction of %s is %g: %w", f.Gas, f.Fraction, gas.ErrNegativeQuantity)
		}
		sum += f.Fraction
	}
	if math.Abs(sum-1) > compositionTolerance {
		return fmt.Errorf("fractions sum to %g, want 1", sum)
	}
	return nil
}

func validateProfile(reg *gas.Registry, p ProfileConfig) []error {
	var errs []error
	needed := make(map[gas.Species]bool, len(p.Needed))
	for _, a := range p.Needed {
		s, ok := reg.Lookup(a.Gas)
		if !ok {
			errs = append(errs, fmt.Errorf("needed: unknown gas %q", a.Gas))
			continue
		}
		if a.Amount < 0 || math.IsNaN(a.Amount) {
			errs = append(errs, fmt.Errorf("needed %s %g: %w", a.Gas, a.Amount, gas.ErrNegativeQuantity))
		}
		if needed[s] {
			errs = append(errs, fmt.Errorf("needed: %s listed twice", a.Gas))
		}
		needed[s] = true
	}

	produced := make(map[gas.Species]bool, len(p.Produced))
	for _, a := range p.Produced {
		s, ok := reg.Lookup(a.Gas)
		if !ok {
			errs = append(errs, fmt.Errorf("produced: unknown gas %q", a.Gas))
			continue
		}
		if a.Amount < 0 || math.IsNaN(a.Amount) {
			errs = append(errs, fmt.Errorf("produced %s %g: %w", a.Gas, a.Amount, gas.ErrNegativeQuantity))
		}
		if produced[s] {
			errs = append(errs, fmt.Errorf("produced: %s listed twice", a.Gas))
		}
		if needed[s] {
			errs = append(errs, fmt.Errorf("%s is both needed and produced", a.Gas))
		}
		produced[s] = true
	}
	return errs
}
