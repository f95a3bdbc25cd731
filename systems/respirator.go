package systems

import "github.com/pthm-cable/respire/components"

// Transition is a change of respirator status.
type Transition uint8

const (
	TransitionNone Transition = iota
	TransitionSuffocate
	TransitionRecover
)

// String returns the display name for a transition.
func (t Transition) String() string {
	switch t {
	case TransitionSuffocate:
		return "suffocate"
	case TransitionRecover:
		return "recover"
	default:
		return "none"
	}
}

// UpdateRespirator advances the suffocation state machine by one evaluation window.
//
// Breathing flips to Suffocating after threshold consecutive unsatisfied windows
// (threshold below 1 acts as 1). Suffocating flips back on the first satisfied window.
func UpdateRespirator(r *components.Respirator, report NeedReport, threshold int, tick int32) Transition {
	if threshold < 1 {
		threshold = 1
	}

	r.Evaluations++
	r.Saturation = report.Saturation

	if report.Satisfied {
		r.Deficit = 0
		if r.Status == components.StatusSuffocating {
			r.Status = components.StatusBreathing
			r.LastTransition = tick
			return TransitionRecover
		}
		return TransitionNone
	}

	r.Deficit++
	if r.Status == components.StatusSuffocating {
		r.SuffocatingWindows++
		return TransitionNone
	}
	if r.Deficit >= threshold {
		r.Status = components.StatusSuffocating
		r.SuffocatingWindows++
		r.LastTransition = tick
		return TransitionSuffocate
	}
	return TransitionNone
}
