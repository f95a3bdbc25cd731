package systems

import (
	"testing"

	"github.com/pthm-cable/respire/components"
	"github.com/pthm-cable/respire/gas"
)

const (
	o2  gas.Species = 0
	n2  gas.Species = 1
	co2 gas.Species = 2
)

// humanNeed is one breath's worth of oxygen for the human archetype.
const humanNeed = 0.00060763888

var testRegistry = gas.MustRegistry("oxygen", "nitrogen", "carbon_dioxide")

func newMixture(t *testing.T, volume float64, moles map[gas.Species]float64) *gas.Mixture {
	t.Helper()
	m := gas.MustMixture(volume, gas.T20C, testRegistry)
	for s, n := range moles {
		if err := m.SetMoles(s, n); err != nil {
			t.Fatalf("SetMoles(%d, %g): %v", s, n, err)
		}
	}
	return m
}

// standardAir returns a cell-sized environment at one atmosphere, 20% O2 / 80% N2.
func standardAir(t *testing.T) *gas.Mixture {
	t.Helper()
	m := gas.MustMixture(gas.CellVolume, gas.T20C, testRegistry)
	if err := gas.FillAtPressure(m, map[gas.Species]float64{o2: 0.2, n2: 0.8}, gas.OneAtmosphere); err != nil {
		t.Fatalf("FillAtPressure: %v", err)
	}
	return m
}

func newProfile(t *testing.T, needed, produced []components.GasAmount) *components.RespiratoryProfile {
	t.Helper()
	p, err := components.NewRespiratoryProfile("test", needed, produced)
	if err != nil {
		t.Fatalf("NewRespiratoryProfile: %v", err)
	}
	return p
}

func humanProfile(t *testing.T) *components.RespiratoryProfile {
	t.Helper()
	return newProfile(t,
		[]components.GasAmount{{Species: o2, Amount: humanNeed}},
		[]components.GasAmount{{Species: co2, Amount: humanNeed}},
	)
}

func newBreather(t *testing.T, env *gas.Mixture, profile *components.RespiratoryProfile, lungs int) Breather {
	t.Helper()
	resp := &components.Respiratory{Blood: gas.MustMixture(gas.BreathVolume, gas.T20C, testRegistry)}
	for i := 0; i < lungs; i++ {
		resp.Lungs = append(resp.Lungs, gas.MustMixture(gas.BreathVolume, gas.T20C, testRegistry))
	}
	return Breather{
		ID:          1,
		Profile:     profile,
		Environment: env,
		Respiratory: resp,
		Respirator:  &components.Respirator{OrganismID: 1},
	}
}

// speciesTotals sums each species across the given mixtures.
func speciesTotals(mixtures ...*gas.Mixture) []float64 {
	totals := make([]float64, testRegistry.Len())
	for _, m := range mixtures {
		for i := range totals {
			totals[i] += m.GetMoles(gas.Species(i))
		}
	}
	return totals
}

func assertNonNegative(t *testing.T, mixtures ...*gas.Mixture) {
	t.Helper()
	for mi, m := range mixtures {
		for i := 0; i < m.Species(); i++ {
			if n := m.GetMoles(gas.Species(i)); n < 0 {
				t.Fatalf("mixture %d species %d negative: %g", mi, i, n)
			}
		}
	}
}
