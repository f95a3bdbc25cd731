package systems

import (
	"testing"

	"github.com/pthm-cable/respire/components"
	"github.com/pthm-cable/respire/gas"
)

func TestEvaluateNeed(t *testing.T) {
	twoNeeds := []components.GasAmount{
		{Species: o2, Amount: 0.001},
		{Species: n2, Amount: 0.002},
	}

	tests := []struct {
		name          string
		blood         map[gas.Species]float64
		needed        []components.GasAmount
		wantSatisfied bool
		wantSat       float64
		wantDeficient gas.Species
	}{
		{"no needs", nil, nil, true, 1, 0},
		{"exactly met", map[gas.Species]float64{o2: 0.001, n2: 0.002}, twoNeeds, true, 1, 0},
		{"surplus", map[gas.Species]float64{o2: 0.004, n2: 0.004}, twoNeeds, true, 2, 0},
		{"second short", map[gas.Species]float64{o2: 0.002, n2: 0.001}, twoNeeds, false, 0.5, n2},
		{"empty blood", nil, twoNeeds, false, 0, o2},
		{"zero need", nil, []components.GasAmount{{Species: o2, Amount: 0}}, true, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blood := newMixture(t, 0.5, tt.blood)
			profile := newProfile(t, tt.needed, nil)
			before := blood.Snapshot(nil)

			got := EvaluateNeed(blood, profile)
			if got.Satisfied != tt.wantSatisfied {
				t.Errorf("Satisfied = %v, want %v", got.Satisfied, tt.wantSatisfied)
			}
			if got.Saturation != tt.wantSat {
				t.Errorf("Saturation = %g, want %g", got.Saturation, tt.wantSat)
			}
			if !tt.wantSatisfied && got.Deficient != tt.wantDeficient {
				t.Errorf("Deficient = %d, want %d", got.Deficient, tt.wantDeficient)
			}

			after := blood.Snapshot(nil)
			for i := range before {
				if before[i] != after[i] {
					t.Fatalf("EvaluateNeed modified blood species %d: %g -> %g", i, before[i], after[i])
				}
			}
		})
	}
}

func TestEvaluateNeed_NilProfile(t *testing.T) {
	got := EvaluateNeed(newMixture(t, 0.5, nil), nil)
	if !got.Satisfied || got.Saturation != 1 {
		t.Errorf("nil profile should be satisfied, got %+v", got)
	}
}
