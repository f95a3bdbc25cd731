package systems

import (
	"errors"
	"fmt"

	"github.com/pthm-cable/respire/components"
	"github.com/pthm-cable/respire/gas"
)

// maxBreathsPerStep bounds the work one Step can do after a long stall.
// Accumulated time beyond it is dropped.
const maxBreathsPerStep = 16

// ErrNoEnvironment is returned when a breather has no environment mixture this tick.
var ErrNoEnvironment = errors.New("no environment mixture")

// Cadence selects how inhale and exhale are scheduled.
type Cadence uint8

const (
	// CadenceSameTick runs inhale, evaluation and exhale in every breath.
	CadenceSameTick Cadence = iota
	// CadenceAlternating splits a breath into inhale and exhale half-cycles
	// on successive due breaths.
	CadenceAlternating
)

// ParseCadence maps a config string to a Cadence.
func ParseCadence(s string) (Cadence, error) {
	switch s {
	case "", "same_tick":
		return CadenceSameTick, nil
	case "alternating":
		return CadenceAlternating, nil
	default:
		return 0, fmt.Errorf("unknown cadence %q", s)
	}
}

// DriverConfig holds the tick driver parameters.
type DriverConfig struct {
	BreathVolume         float64 // litres per breath
	BreathInterval       float64 // seconds between breaths; <= 0 breathes every step
	SuffocationThreshold int     // consecutive bad windows before suffocating
	Cadence              Cadence
	RetainSurplus        bool // keep needed-species surplus in the blood
	Metabolism           bool // run Metabolize after each exhale
}

// Breather is the borrowed view of one organism for one tick.
// Nothing in it is retained by the driver past the Step call.
type Breather struct {
	ID          uint32
	Profile     *components.RespiratoryProfile
	Environment *gas.Mixture
	Respiratory *components.Respiratory
	Respirator  *components.Respirator
}

// Outcome summarizes one organism's Step.
type Outcome struct {
	Breaths     int // breath cycles (or half-cycles) run
	Inhaled     float64
	ToBlood     float64
	FromBlood   float64
	Exhaled     float64
	Consumed    float64
	Produced    float64
	Evaluated   bool
	Report      NeedReport // last evaluation, valid when Evaluated
	Transition  Transition // last non-none transition this step
	Suffocating bool
}

// TickDriver evaluates breathing organisms. It is stateless apart from its
// config; all per-organism state lives in the Respirator component, so a single
// driver can be shared by goroutines working on disjoint organisms.
type TickDriver struct {
	cfg DriverConfig
}

// NewTickDriver creates a driver.
func NewTickDriver(cfg DriverConfig) *TickDriver {
	if cfg.SuffocationThreshold < 1 {
		cfg.SuffocationThreshold = 1
	}
	return &TickDriver{cfg: cfg}
}

// Config returns the driver config.
func (d *TickDriver) Config() DriverConfig {
	return d.cfg
}

// Step advances one organism by elapsed seconds, running every breath that
// falls due. A returned error aborts only this organism; mixtures are validated
// before anything is mutated so they stay non-negative and consistent.
func (d *TickDriver) Step(b Breather, elapsed float64, tick int32) (Outcome, error) {
	var out Outcome
	if err := validateBreather(b); err != nil {
		return out, fmt.Errorf("organism %d: %w", b.ID, err)
	}

	r := b.Respirator
	due := 1
	if d.cfg.BreathInterval > 0 {
		r.Accumulated += elapsed
		due = int(r.Accumulated / d.cfg.BreathInterval)
		r.Accumulated -= float64(due) * d.cfg.BreathInterval
		if due > maxBreathsPerStep {
			due = maxBreathsPerStep
		}
	}

	for i := 0; i < due; i++ {
		var err error
		switch {
		case d.cfg.Cadence == CadenceSameTick:
			err = d.inhale(b, tick, &out)
			if err == nil {
				err = d.exhale(b, &out)
			}
		case r.Phase == components.PhaseInhale:
			err = d.inhale(b, tick, &out)
			r.Phase = components.PhaseExhale
		default:
			err = d.exhale(b, &out)
			r.Phase = components.PhaseInhale
		}
		if err != nil {
			return out, fmt.Errorf("organism %d: %w", b.ID, err)
		}
		out.Breaths++
	}

	out.Suffocating = r.Suffocating()
	return out, nil
}

// inhale draws a breath into every lung, then evaluates need and updates the respirator.
func (d *TickDriver) inhale(b Breather, tick int32, out *Outcome) error {
	resp := b.Respiratory
	for _, lung := range resp.Lungs {
		in, err := TakeGasFrom(b.Environment, d.cfg.BreathVolume, lung, resp.Blood, b.Profile)
		if err != nil {
			return fmt.Errorf("inhale: %w", err)
		}
		out.Inhaled += in.Moved
		out.ToBlood += in.ToBlood
	}

	report := EvaluateNeed(resp.Blood, b.Profile)
	if t := UpdateRespirator(b.Respirator, report, d.cfg.SuffocationThreshold, tick); t != TransitionNone {
		out.Transition = t
	}
	out.Evaluated = true
	out.Report = report
	return nil
}

// exhale empties every lung into the environment, then metabolizes one breath.
func (d *TickDriver) exhale(b Breather, out *Outcome) error {
	resp := b.Respiratory
	policy := ExhalePolicy{LungCount: len(resp.Lungs), ExpelSurplus: !d.cfg.RetainSurplus}
	for _, lung := range resp.Lungs {
		ex, err := PushGasTo(lung, resp.Blood, b.Environment, b.Profile, policy)
		if err != nil {
			return fmt.Errorf("exhale: %w", err)
		}
		out.FromBlood += ex.FromBlood
		out.Exhaled += ex.Expelled
	}

	if !d.cfg.Metabolism {
		return nil
	}
	m, err := Metabolize(resp.Blood, b.Profile, 1)
	if err != nil {
		return fmt.Errorf("metabolize: %w", err)
	}
	out.Consumed += m.Consumed
	out.Produced += m.Produced
	return nil
}

func validateBreather(b Breather) error {
	if b.Respirator == nil || b.Respiratory == nil {
		return errors.New("missing respiratory components")
	}
	if b.Environment == nil {
		return ErrNoEnvironment
	}
	if len(b.Respiratory.Lungs) == 0 {
		return errors.New("no lungs")
	}
	mixtures := append([]*gas.Mixture{b.Environment, b.Respiratory.Blood}, b.Respiratory.Lungs...)
	return checkCompatible(mixtures...)
}
