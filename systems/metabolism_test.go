package systems

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pthm-cable/respire/gas"
)

func TestMetabolize_FullNeed(t *testing.T) {
	blood := newMixture(t, 0.5, map[gas.Species]float64{o2: 0.01})

	m, err := Metabolize(blood, humanProfile(t), 1)
	require.NoError(t, err)

	assert.Equal(t, 1.0, m.Efficiency)
	assert.Equal(t, humanNeed, m.Consumed)
	assert.Equal(t, humanNeed, m.Produced)
	assert.Equal(t, 0.01-humanNeed, blood.GetMoles(o2))
	assert.Equal(t, humanNeed, blood.GetMoles(co2))
}

func TestMetabolize_PartialNeedScalesProduction(t *testing.T) {
	blood := newMixture(t, 0.5, map[gas.Species]float64{o2: humanNeed / 4})

	m, err := Metabolize(blood, humanProfile(t), 1)
	require.NoError(t, err)

	assert.InDelta(t, 0.25, m.Efficiency, 1e-12)
	assert.Zero(t, blood.GetMoles(o2))
	assert.InDelta(t, humanNeed/4, blood.GetMoles(co2), 1e-15)
}

func TestMetabolize_MultipleBreaths(t *testing.T) {
	blood := newMixture(t, 0.5, map[gas.Species]float64{o2: 1})

	m, err := Metabolize(blood, humanProfile(t), 3)
	require.NoError(t, err)
	assert.InDelta(t, 3*humanNeed, m.Consumed, 1e-15)
}

func TestMetabolize_NoOp(t *testing.T) {
	blood := newMixture(t, 0.5, map[gas.Species]float64{o2: 0.01})

	for _, breaths := range []float64{0, -1} {
		m, err := Metabolize(blood, humanProfile(t), breaths)
		require.NoError(t, err)
		assert.Zero(t, m.Consumed)
	}
	_, err := Metabolize(blood, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 0.01, blood.GetMoles(o2))
}

func TestMetabolize_RejectsNonFinite(t *testing.T) {
	blood := newMixture(t, 0.5, map[gas.Species]float64{o2: 0.01})
	for _, breaths := range []float64{math.NaN(), math.Inf(1)} {
		_, err := Metabolize(blood, humanProfile(t), breaths)
		assert.Error(t, err)
	}
	assert.Equal(t, 0.01, blood.GetMoles(o2))
}
