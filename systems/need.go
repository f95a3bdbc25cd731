package systems

import (
	"math"

	"github.com/pthm-cable/respire/components"
	"github.com/pthm-cable/respire/gas"
)

// NeedReport is the result of one need-policy evaluation.
type NeedReport struct {
	Satisfied bool
	// Saturation is the lowest blood/need ratio across needed species.
	// It is 1 for a profile with no needs.
	Saturation float64
	// Deficient is the first needed species below its need (valid when !Satisfied).
	Deficient gas.Species
}

// EvaluateNeed checks whether blood holds at least one breath's need of every
// needed species. It only reads blood.
func EvaluateNeed(blood *gas.Mixture, profile *components.RespiratoryProfile) NeedReport {
	report := NeedReport{Satisfied: true, Saturation: 1}
	if profile == nil || len(profile.Needed) == 0 {
		return report
	}

	report.Saturation = math.Inf(1)
	for _, n := range profile.Needed {
		have := blood.GetMoles(n.Species)
		if n.Amount <= 0 {
			continue
		}
		if ratio := have / n.Amount; ratio < report.Saturation {
			report.Saturation = ratio
		}
		if have < n.Amount && report.Satisfied {
			report.Satisfied = false
			report.Deficient = n.Species
		}
	}

	// Every need was zero.
	if math.IsInf(report.Saturation, 1) {
		report.Saturation = 1
	}
	return report
}
