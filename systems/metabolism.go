package systems

import (
	"fmt"
	"math"

	"github.com/pthm-cable/respire/components"
	"github.com/pthm-cable/respire/gas"
)

// Metabolism reports the gas converted by one Metabolize call.
type Metabolism struct {
	Consumed   float64 // needed-species moles removed from the blood
	Produced   float64 // produced-species moles added to the blood
	Efficiency float64 // share of the full need that was available, in [0, 1]
}

// Metabolize consumes up to breaths × need of each needed species from blood and
// adds produced species in proportion to how much of the need could be met.
// Zero breaths is a no-op. This is the only step that creates or destroys moles.
func Metabolize(blood *gas.Mixture, profile *components.RespiratoryProfile, breaths float64) (Metabolism, error) {
	m := Metabolism{Efficiency: 1}
	if profile == nil || breaths <= 0 {
		return m, nil
	}
	if math.IsNaN(breaths) || math.IsInf(breaths, 0) {
		return m, fmt.Errorf("metabolizing %g breaths", breaths)
	}

	// First pass: how much of the need is available.
	for _, n := range profile.Needed {
		want := n.Amount * breaths
		if want <= 0 {
			continue
		}
		if eff := blood.GetMoles(n.Species) / want; eff < m.Efficiency {
			m.Efficiency = eff
		}
	}

	for _, n := range profile.Needed {
		take := math.Min(n.Amount*breaths, blood.GetMoles(n.Species))
		if take <= 0 {
			continue
		}
		if err := blood.AdjustMoles(n.Species, -take); err != nil {
			return m, err
		}
		m.Consumed += take
	}

	for _, p := range profile.Produced {
		add := p.Amount * breaths * m.Efficiency
		if add <= 0 {
			continue
		}
		if err := blood.AdjustMoles(p.Species, add); err != nil {
			return m, err
		}
		m.Produced += add
	}

	return m, nil
}
