// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/respire/components"
	"github.com/pthm-cable/respire/gas"
	"github.com/pthm-cable/respire/systems"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Physics     PhysicsConfig     `yaml:"physics"`
	World       WorldConfig       `yaml:"world"`
	Gases       []string          `yaml:"gases"`
	Atmosphere  AtmosphereConfig  `yaml:"atmosphere"`
	Regions     []RegionConfig    `yaml:"regions"`
	Respiration RespirationConfig `yaml:"respiration"`
	Profiles    []ProfileConfig   `yaml:"profiles"`
	Population  PopulationConfig  `yaml:"population"`
	Movement    MovementConfig    `yaml:"movement"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`
	Metrics     MetricsConfig     `yaml:"metrics"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// PhysicsConfig holds simulation timing parameters.
type PhysicsConfig struct {
	DT   float64 `yaml:"dt"`
	Seed int64   `yaml:"seed"`
}

// WorldConfig holds the region grid layout.
// Each region is a square of RegionSize world units holding one environment mixture.
type WorldConfig struct {
	Cols         int     `yaml:"cols"`
	Rows         int     `yaml:"rows"`
	RegionSize   float64 `yaml:"region_size"`   // world units per region side
	RegionVolume float64 `yaml:"region_volume"` // litres
	Temperature  float64 `yaml:"temperature"`   // kelvin
}

// GasFraction is one entry of a composition, by mole fraction.
type GasFraction struct {
	Gas      string  `yaml:"gas"`
	Fraction float64 `yaml:"fraction"`
}

// AtmosphereConfig is the initial fill of every region.
type AtmosphereConfig struct {
	Pressure    float64       `yaml:"pressure"` // kPa
	Composition []GasFraction `yaml:"composition"`
}

// RegionConfig overrides the atmosphere of a single region.
type RegionConfig struct {
	Col         int           `yaml:"col"`
	Row         int           `yaml:"row"`
	Pressure    float64       `yaml:"pressure"`
	Composition []GasFraction `yaml:"composition"`
}

// RespirationConfig holds tick driver and organism mixture parameters.
type RespirationConfig struct {
	BreathVolume         float64 `yaml:"breath_volume"`         // litres drawn per breath
	LungVolume           float64 `yaml:"lung_volume"`           // litres
	BloodVolume          float64 `yaml:"blood_volume"`          // litres
	Lungs                int     `yaml:"lungs"`                 // lungs per organism
	SuffocationThreshold int     `yaml:"suffocation_threshold"` // consecutive bad windows before suffocating
	RetainSurplus        bool    `yaml:"retain_surplus"`        // keep needed-gas surplus in the blood
	Cadence              string  `yaml:"cadence"`               // same_tick | alternating
	BreathInterval       float64 `yaml:"breath_interval"`       // seconds; 0 breathes every tick
	Metabolism           bool    `yaml:"metabolism"`            // convert needed gas into produced gas after exhale
}

// GasAmountConfig is a per-breath amount of one gas.
type GasAmountConfig struct {
	Gas    string  `yaml:"gas"`
	Amount float64 `yaml:"amount"` // moles per breath
}

// ProfileConfig defines a respiratory archetype.
type ProfileConfig struct {
	Name     string            `yaml:"name"`
	Weight   float64           `yaml:"weight"` // relative spawn weight
	Needed   []GasAmountConfig `yaml:"needed"`
	Produced []GasAmountConfig `yaml:"produced"`
}

// PopulationConfig holds spawning parameters.
type PopulationConfig struct {
	Initial       int `yaml:"initial"`
	LethalWindows int `yaml:"lethal_windows"` // suffocating windows before death (0 = never)
}

// MovementConfig holds random-walk parameters.
type MovementConfig struct {
	MaxSpeed float64 `yaml:"max_speed"` // world units per second
	Jitter   float64 `yaml:"jitter"`    // max velocity change per second
}

// TelemetryConfig holds stats output parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`          // seconds per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"` // ticks averaged per perf sample
}

// MetricsConfig holds Prometheus metric settings.
type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32         float32                          // Physics.DT as float32
	WorldW32     float32                          // Cols * RegionSize
	WorldH32     float32                          // Rows * RegionSize
	Registry     *gas.Registry                    // species registry built from Gases
	Profiles     []*components.RespiratoryProfile // resolved profiles, same order as Profiles
	ProfileIndex map[string]uint8                 // name -> index for profile lookup
	Cadence      systems.Cadence
	Atmosphere   map[gas.Species]float64 // resolved default composition
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse merges YAML data over the embedded defaults, validates the result and
// computes derived values. Empty data yields the defaults.
func Parse(data []byte) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize validates the config and recomputes derived values.
// Call it after modifying a loaded config in code.
func (c *Config) Finalize() error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return c.computeDerived()
}

// computeDerived calculates values derived from loaded config.
// Validate must have passed first.
func (c *Config) computeDerived() error {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.WorldW32 = float32(float64(c.World.Cols) * c.World.RegionSize)
	c.Derived.WorldH32 = float32(float64(c.World.Rows) * c.World.RegionSize)

	reg, err := gas.NewRegistry(c.Gases...)
	if err != nil {
		return fmt.Errorf("gases: %w", err)
	}
	c.Derived.Registry = reg

	c.Derived.Cadence, err = systems.ParseCadence(c.Respiration.Cadence)
	if err != nil {
		return fmt.Errorf("respiration: %w", err)
	}

	c.Derived.Atmosphere, err = c.Composition(c.Atmosphere.Composition)
	if err != nil {
		return fmt.Errorf("atmosphere: %w", err)
	}

	c.Derived.Profiles = make([]*components.RespiratoryProfile, len(c.Profiles))
	c.Derived.ProfileIndex = make(map[string]uint8, len(c.Profiles))
	for i, pc := range c.Profiles {
		p, err := c.resolveProfile(pc)
		if err != nil {
			return fmt.Errorf("profile %q: %w", pc.Name, err)
		}
		c.Derived.Profiles[i] = p
		c.Derived.ProfileIndex[pc.Name] = uint8(i)
	}
	return nil
}

// Composition resolves a list of gas fractions against the registry.
func (c *Config) Composition(list []GasFraction) (map[gas.Species]float64, error) {
	reg := c.Derived.Registry
	out := make(map[gas.Species]float64, len(list))
	for _, f := range list {
		s, ok := reg.Lookup(f.Gas)
		if !ok {
			return nil, fmt.Errorf("unknown gas %q", f.Gas)
		}
		out[s] += f.Fraction
	}
	return out, nil
}

func (c *Config) resolveProfile(pc ProfileConfig) (*components.RespiratoryProfile, error) {
	needed, err := c.amounts(pc.Needed)
	if err != nil {
		return nil, err
	}
	produced, err := c.amounts(pc.Produced)
	if err != nil {
		return nil, err
	}
	return components.NewRespiratoryProfile(pc.Name, needed, produced)
}

// amounts resolves gas names and orders the result by species index.
func (c *Config) amounts(list []GasAmountConfig) ([]components.GasAmount, error) {
	out := make([]components.GasAmount, 0, len(list))
	for _, a := range list {
		s, ok := c.Derived.Registry.Lookup(a.Gas)
		if !ok {
			return nil, fmt.Errorf("unknown gas %q", a.Gas)
		}
		out = append(out, components.GasAmount{Species: s, Amount: a.Amount})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Species < out[j].Species })
	return out, nil
}

// DriverConfig returns the tick driver parameters.
func (c *Config) DriverConfig() systems.DriverConfig {
	return systems.DriverConfig{
		BreathVolume:         c.Respiration.BreathVolume,
		BreathInterval:       c.Respiration.BreathInterval,
		SuffocationThreshold: c.Respiration.SuffocationThreshold,
		Cadence:              c.Derived.Cadence,
		RetainSurplus:        c.Respiration.RetainSurplus,
		Metabolism:           c.Respiration.Metabolism,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
