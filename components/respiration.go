package components

import (
	"fmt"

	"github.com/pthm-cable/respire/gas"
)

// GasAmount pairs a species with a per-breath mole amount.
type GasAmount struct {
	Species gas.Species
	Amount  float64
}

// RespiratoryProfile is the static per-archetype breathing configuration.
// Needed species are drawn into the blood and retained; produced species are
// generated by metabolism and expelled. Immutable once built.
type RespiratoryProfile struct {
	Name     string
	Needed   []GasAmount
	Produced []GasAmount

	neededMask   uint64
	producedMask uint64
	needed       [gas.MaxSpecies]float64
	produced     [gas.MaxSpecies]float64
}

// NewRespiratoryProfile builds a profile. Amounts must be non-negative and a
// species may appear at most once per list.
func NewRespiratoryProfile(name string, needed, produced []GasAmount) (*RespiratoryProfile, error) {
	p := &RespiratoryProfile{Name: name}

	for _, a := range needed {
		if err := checkAmount(name, "needed", a, p.neededMask); err != nil {
			return nil, err
		}
		p.neededMask |= 1 << a.Species
		p.needed[a.Species] = a.Amount
		p.Needed = append(p.Needed, a)
	}
	for _, a := range produced {
		if err := checkAmount(name, "produced", a, p.producedMask); err != nil {
			return nil, err
		}
		p.producedMask |= 1 << a.Species
		p.produced[a.Species] = a.Amount
		p.Produced = append(p.Produced, a)
	}
	return p, nil
}

func checkAmount(profile, list string, a GasAmount, seen uint64) error {
	if int(a.Species) >= gas.MaxSpecies {
		return fmt.Errorf("profile %s: %s species %d out of range", profile, list, a.Species)
	}
	if !(a.Amount >= 0) {
		return fmt.Errorf("profile %s: %s amount %g for species %d: %w", profile, list, a.Amount, a.Species, gas.ErrNegativeQuantity)
	}
	if seen&(1<<a.Species) != 0 {
		return fmt.Errorf("profile %s: species %d listed twice in %s", profile, a.Species, list)
	}
	return nil
}

// Needs reports whether s is a needed species.
func (p *RespiratoryProfile) Needs(s gas.Species) bool {
	return int(s) < gas.MaxSpecies && p.neededMask&(1<<s) != 0
}

// Produces reports whether s is a produced species.
func (p *RespiratoryProfile) Produces(s gas.Species) bool {
	return int(s) < gas.MaxSpecies && p.producedMask&(1<<s) != 0
}

// IsWaste reports whether s is produced and not also needed.
func (p *RespiratoryProfile) IsWaste(s gas.Species) bool {
	return p.Produces(s) && !p.Needs(s)
}

// NeededAmount returns the per-breath need for s, 0 if not needed.
func (p *RespiratoryProfile) NeededAmount(s gas.Species) float64 {
	if int(s) >= gas.MaxSpecies {
		return 0
	}
	return p.needed[s]
}

// ProducedAmount returns the per-breath production of s, 0 if not produced.
func (p *RespiratoryProfile) ProducedAmount(s gas.Species) float64 {
	if int(s) >= gas.MaxSpecies {
		return 0
	}
	return p.produced[s]
}

// Respiratory holds an organism's anatomical gas containers.
// The mixtures are owned by the organism; one or more lungs share one bloodstream.
type Respiratory struct {
	Lungs []*gas.Mixture
	Blood *gas.Mixture
}

// RespiratorStatus is the state of the suffocation state machine.
type RespiratorStatus uint8

const (
	StatusBreathing RespiratorStatus = iota
	StatusSuffocating
)

// String returns the display name for a status.
func (s RespiratorStatus) String() string {
	switch s {
	case StatusBreathing:
		return "Breathing"
	case StatusSuffocating:
		return "Suffocating"
	default:
		return "Unknown"
	}
}

// BreathPhase is the next half-cycle an alternating respirator will run.
type BreathPhase uint8

const (
	PhaseInhale BreathPhase = iota
	PhaseExhale
)

// Respirator is the per-organism runtime breathing state.
// OrganismID is a non-owning back-reference; the state is dropped with the organism.
type Respirator struct {
	OrganismID         uint32
	Status             RespiratorStatus
	Deficit            int     // consecutive unsatisfied evaluation windows
	SuffocatingWindows int     // total evaluation windows spent suffocating
	Evaluations        int     // total evaluation windows
	LastTransition     int32   // tick of the most recent status change
	Saturation         float64 // worst blood/need ratio at the last evaluation
	Accumulated        float64 // seconds since the last breath
	Phase              BreathPhase
}

// Suffocating reports whether the respirator is in the Suffocating state.
func (r *Respirator) Suffocating() bool {
	return r.Status == StatusSuffocating
}
