package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/respire/components"
	"github.com/pthm-cable/respire/gas"
)

// Inhalation reports the gas moved by one TakeGasFrom call.
type Inhalation struct {
	Fraction float64 // share of the source taken
	Moved    float64 // moles moved from source into the lung
	ToBlood  float64 // moles forwarded from the lung into the blood
}

// Exhalation reports the gas moved by one PushGasTo call.
type Exhalation struct {
	FromBlood float64 // moles pulled from the blood into the lung
	Expelled  float64 // moles moved from the lung into the destination
}

// ExhalePolicy tunes PushGasTo. The zero value is a single lung that retains
// needed-species surplus in the blood.
type ExhalePolicy struct {
	// LungCount splits the profile's produced amount evenly across lungs.
	// Values below 1 are treated as 1.
	LungCount int

	// ExpelSurplus pulls needed-species blood content above one breath's need
	// back out through the lung.
	ExpelSurplus bool
}

func (p ExhalePolicy) wasteShare() float64 {
	if p.LungCount < 1 {
		return 1
	}
	return 1 / float64(p.LungCount)
}

// BreathFraction returns the share of a source of sourceVolume taken by one breath,
// clamped to [0, 1]. An empty or undersized source is taken whole.
func BreathFraction(sourceVolume, breathVolume float64) float64 {
	if sourceVolume <= 0 || breathVolume >= sourceVolume {
		return 1
	}
	if breathVolume <= 0 {
		return 0
	}
	return breathVolume / sourceVolume
}

// TakeGasFrom draws a breath from source into lung, then forwards every needed
// species the lung just received into blood. Species that are not needed stay in
// the lung until the next PushGasTo. Total moles across source, lung and blood are
// unchanged. All moves are planned and validated first; on error no mixture is modified.
func TakeGasFrom(
	source *gas.Mixture,
	breathVolume float64,
	lung, blood *gas.Mixture,
	profile *components.RespiratoryProfile,
) (Inhalation, error) {
	if math.IsNaN(breathVolume) || breathVolume < 0 {
		return Inhalation{}, fmt.Errorf("breath volume %g: %w", breathVolume, gas.ErrInvalidVolume)
	}
	if err := checkCompatible(source, lung, blood); err != nil {
		return Inhalation{}, err
	}

	in := Inhalation{Fraction: BreathFraction(source.Volume(), breathVolume)}
	if in.Fraction == 0 {
		return in, nil
	}

	var p transferPlan
	for i := 0; i < source.Species(); i++ {
		s := gas.Species(i)
		available := source.GetMoles(s)
		if available <= 0 {
			continue
		}

		moved := available
		if in.Fraction < 1 {
			moved = available * in.Fraction
		}
		p.add(source, lung, s, moved)
		in.Moved += moved

		// The lung was non-negative before receiving moved, so it holds at least moved.
		if profile != nil && profile.Needs(s) {
			p.add(lung, blood, s, moved)
			in.ToBlood += moved
		}
	}

	if err := p.commit(); err != nil {
		return Inhalation{Fraction: in.Fraction}, err
	}
	return in, nil
}

// PushGasTo exhales: waste species are pulled from blood into lung (the
// profile's produced amount, bounded by what the blood holds), then the lung's
// entire contents move into destination. The lung is empty afterwards.
// Needed species in the blood are only touched when policy.ExpelSurplus is set.
// As with TakeGasFrom, nothing is modified unless every move validates.
func PushGasTo(
	lung, blood, destination *gas.Mixture,
	profile *components.RespiratoryProfile,
	policy ExhalePolicy,
) (Exhalation, error) {
	if err := checkCompatible(lung, blood, destination); err != nil {
		return Exhalation{}, err
	}

	var (
		out    Exhalation
		p      transferPlan
		pulled = make([]float64, lung.Species())
	)
	if profile != nil {
		share := policy.wasteShare()

		for _, w := range profile.Produced {
			if !profile.IsWaste(w.Species) {
				continue
			}
			pull := math.Min(w.Amount*share, blood.GetMoles(w.Species))
			if pull <= 0 {
				continue
			}
			p.add(blood, lung, w.Species, pull)
			pulled[w.Species] += pull
			out.FromBlood += pull
		}

		if policy.ExpelSurplus {
			for _, n := range profile.Needed {
				surplus := blood.GetMoles(n.Species) - n.Amount
				if surplus <= 0 {
					continue
				}
				p.add(blood, lung, n.Species, surplus)
				pulled[n.Species] += surplus
				out.FromBlood += surplus
			}
		}
	}

	for i := 0; i < lung.Species(); i++ {
		s := gas.Species(i)
		// Each species is pulled at most once, so the lung reaches exactly
		// lung+pulled before n is debited and ends at zero.
		n := lung.GetMoles(s) + pulled[i]
		if n <= 0 {
			continue
		}
		p.add(lung, destination, s, n)
		out.Expelled += n
	}

	if err := p.commit(); err != nil {
		return Exhalation{}, err
	}
	return out, nil
}

// transferStep moves amount of one species between two mixtures.
type transferStep struct {
	from, to *gas.Mixture
	species  gas.Species
	amount   float64
}

// transferPlan collects the moves of one transfer so they can be checked
// against every mixture before any of them is modified.
type transferPlan struct {
	steps []transferStep
}

func (p *transferPlan) add(from, to *gas.Mixture, s gas.Species, amount float64) {
	p.steps = append(p.steps, transferStep{from: from, to: to, species: s, amount: amount})
}

// validate replays the steps on copies of the mixtures' contents.
func (p *transferPlan) validate() error {
	balances := make(map[*gas.Mixture][]float64)
	balance := func(m *gas.Mixture) []float64 {
		b, ok := balances[m]
		if !ok {
			b = m.Snapshot(nil)
			balances[m] = b
		}
		return b
	}

	for _, st := range p.steps {
		if math.IsNaN(st.amount) || math.IsInf(st.amount, 0) || st.amount < 0 {
			return fmt.Errorf("moving %g of %s: %w",
				st.amount, st.from.Registry().Name(st.species), gas.ErrNegativeQuantity)
		}
		from, to := balance(st.from), balance(st.to)
		if next := from[st.species] - st.amount; next < 0 {
			return &gas.NegativeQuantityError{
				Species: st.species,
				Name:    st.from.Registry().Name(st.species),
				Current: from[st.species],
				Delta:   -st.amount,
			}
		}
		from[st.species] -= st.amount
		to[st.species] += st.amount
	}
	return nil
}

// commit validates the plan, then applies every step.
func (p *transferPlan) commit() error {
	if err := p.validate(); err != nil {
		return err
	}
	for _, st := range p.steps {
		if err := move(st.from, st.to, st.species, st.amount); err != nil {
			return err
		}
	}
	return nil
}

// move transfers amount of s from one mixture to another.
// The source is debited first so a rejected debit leaves both untouched.
func move(from, to *gas.Mixture, s gas.Species, amount float64) error {
	if amount <= 0 {
		return nil
	}
	if err := from.AdjustMoles(s, -amount); err != nil {
		return err
	}
	if err := to.AdjustMoles(s, amount); err != nil {
		// Put the debit back; the credit can only fail on a species mismatch.
		_ = from.AdjustMoles(s, amount)
		return err
	}
	return nil
}

func checkCompatible(mixtures ...*gas.Mixture) error {
	for i, m := range mixtures {
		if m == nil {
			return fmt.Errorf("mixture %d is nil: %w", i, gas.ErrSpeciesMismatch)
		}
		if i > 0 && !mixtures[0].Compatible(m) {
			return fmt.Errorf("mixture %d species %v, want %v: %w",
				i, m.Registry().Names(), mixtures[0].Registry().Names(), gas.ErrSpeciesMismatch)
		}
	}
	return nil
}
