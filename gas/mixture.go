package gas

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Mixture is a bounded parcel of gas.
// Volume and temperature are fixed at construction; mole quantities are never negative.
// A Mixture is not safe for concurrent mutation; owners serialize access.
type Mixture struct {
	registry    *Registry
	volume      float64
	temperature float64
	moles       []float64
}

// NewMixture creates an empty mixture over the species in registry.
func NewMixture(volume, temperature float64, registry *Registry) (*Mixture, error) {
	if !(volume > 0) || math.IsInf(volume, 0) {
		return nil, fmt.Errorf("mixture volume %g: %w", volume, ErrInvalidVolume)
	}
	if !(temperature > 0) {
		return nil, fmt.Errorf("mixture temperature %g must be positive", temperature)
	}
	if registry == nil || registry.Len() == 0 {
		return nil, fmt.Errorf("mixture needs a species registry")
	}
	return &Mixture{
		registry:    registry,
		volume:      volume,
		temperature: temperature,
		moles:       make([]float64, registry.Len()),
	}, nil
}

// MustMixture is like NewMixture but panics on error.
func MustMixture(volume, temperature float64, registry *Registry) *Mixture {
	m, err := NewMixture(volume, temperature, registry)
	if err != nil {
		panic(fmt.Sprintf("gas: %v", err))
	}
	return m
}

// Registry returns the species registry the mixture is keyed on.
func (m *Mixture) Registry() *Registry { return m.registry }

// Volume returns the mixture volume in litres.
func (m *Mixture) Volume() float64 { return m.volume }

// Temperature returns the mixture temperature in kelvin.
func (m *Mixture) Temperature() float64 { return m.temperature }

// Species returns the number of species slots in the mixture.
func (m *Mixture) Species() int { return len(m.moles) }

// GetMoles returns the stored quantity of s, or 0 if absent.
func (m *Mixture) GetMoles(s Species) float64 {
	if int(s) >= len(m.moles) {
		return 0
	}
	return m.moles[s]
}

// AdjustMoles adds delta (which may be negative) to the stored quantity of s.
// The mixture is left unchanged and a *NegativeQuantityError is returned if the
// result would fall below zero.
func (m *Mixture) AdjustMoles(s Species, delta float64) error {
	if int(s) >= len(m.moles) {
		return fmt.Errorf("species %d not in mixture of %d: %w", s, len(m.moles), ErrSpeciesMismatch)
	}
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("adjusting %s by %g: %w", m.registry.Name(s), delta, ErrNegativeQuantity)
	}
	next := m.moles[s] + delta
	if next < 0 || math.IsNaN(next) {
		return &NegativeQuantityError{
			Species: s,
			Name:    m.registry.Name(s),
			Current: m.moles[s],
			Delta:   delta,
		}
	}
	m.moles[s] = next
	return nil
}

// SetMoles overwrites the stored quantity of s. Intended for setup and tests.
func (m *Mixture) SetMoles(s Species, moles float64) error {
	if int(s) >= len(m.moles) {
		return fmt.Errorf("species %d not in mixture of %d: %w", s, len(m.moles), ErrSpeciesMismatch)
	}
	if math.IsInf(moles, 0) {
		return fmt.Errorf("setting %s to %g: %w", m.registry.Name(s), moles, ErrNegativeQuantity)
	}
	if !(moles >= 0) {
		return &NegativeQuantityError{Species: s, Name: m.registry.Name(s), Current: m.moles[s], Delta: moles - m.moles[s]}
	}
	m.moles[s] = moles
	return nil
}

// TotalMoles returns the sum of all species.
func (m *Mixture) TotalMoles() float64 {
	return floats.Sum(m.moles)
}

// PartialPressure returns the pressure contributed by s in kPa.
func (m *Mixture) PartialPressure(s Species) float64 {
	if m.volume <= 0 {
		return 0
	}
	return m.GetMoles(s) * R * m.temperature / m.volume
}

// TotalPressure returns the mixture pressure in kPa.
func (m *Mixture) TotalPressure() float64 {
	if m.volume <= 0 {
		return 0
	}
	return m.TotalMoles() * R * m.temperature / m.volume
}

// MoleFraction returns the share of s in the total, or 0 for an empty mixture.
func (m *Mixture) MoleFraction(s Species) float64 {
	total := m.TotalMoles()
	if total <= 0 {
		return 0
	}
	return m.GetMoles(s) / total
}

// Each calls fn for every species with a non-zero quantity, in index order.
func (m *Mixture) Each(fn func(s Species, moles float64)) {
	for i, n := range m.moles {
		if n > 0 {
			fn(Species(i), n)
		}
	}
}

// Compatible reports whether other is keyed on the same species in the same order.
func (m *Mixture) Compatible(other *Mixture) bool {
	return other != nil && m.registry.Equal(other.registry)
}

// Clone returns an independent copy of the mixture.
func (m *Mixture) Clone() *Mixture {
	c := &Mixture{
		registry:    m.registry,
		volume:      m.volume,
		temperature: m.temperature,
		moles:       make([]float64, len(m.moles)),
	}
	copy(c.moles, m.moles)
	return c
}

// Clear removes all gas from the mixture.
func (m *Mixture) Clear() {
	for i := range m.moles {
		m.moles[i] = 0
	}
}

// Snapshot copies the per-species quantities into dst, growing it if needed.
func (m *Mixture) Snapshot(dst []float64) []float64 {
	if cap(dst) < len(m.moles) {
		dst = make([]float64, len(m.moles))
	}
	dst = dst[:len(m.moles)]
	copy(dst, m.moles)
	return dst
}

// String formats the non-zero species, e.g. "oxygen=20.8 nitrogen=83.2 @ 101.3kPa".
func (m *Mixture) String() string {
	var out []byte
	m.Each(func(s Species, n float64) {
		if len(out) > 0 {
			out = append(out, ' ')
		}
		out = fmt.Appendf(out, "%s=%.4g", m.registry.Name(s), n)
	})
	if len(out) == 0 {
		out = append(out, "empty"...)
	}
	return fmt.Sprintf("%s @ %.1fkPa", out, m.TotalPressure())
}

// FillAtPressure replaces the contents of m with gas at the given total pressure,
// split by mole fraction. Fractions are normalized by their sum.
func FillAtPressure(m *Mixture, composition map[Species]float64, pressure float64) error {
	if pressure < 0 {
		return fmt.Errorf("fill pressure %g: %w", pressure, ErrNegativeQuantity)
	}

	fractions := make([]float64, len(m.moles))
	for s, f := range composition {
		if int(s) >= len(fractions) {
			return fmt.Errorf("species %d not in mixture of %d: %w", s, len(fractions), ErrSpeciesMismatch)
		}
		if f < 0 {
			return fmt.Errorf("fraction of %s is %g: %w", m.registry.Name(s), f, ErrNegativeQuantity)
		}
		fractions[s] = f
	}

	sum := floats.Sum(fractions)
	m.Clear()
	if sum <= 0 || pressure == 0 {
		return nil
	}

	total := MolesAt(pressure, m.volume, m.temperature)
	floats.Scale(total/sum, fractions)
	copy(m.moles, fractions)
	return nil
}
