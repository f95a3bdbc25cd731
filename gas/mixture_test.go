package gas

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry("oxygen", "nitrogen", "carbon_dioxide")
	require.NoError(t, err)
	return r
}

func TestNewMixture_RejectsNonPositiveVolume(t *testing.T) {
	r := testRegistry(t)
	for _, v := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		_, err := NewMixture(v, T20C, r)
		assert.ErrorIs(t, err, ErrInvalidVolume, "volume %v", v)
	}
}

func TestNewMixture_RejectsBadTemperature(t *testing.T) {
	_, err := NewMixture(CellVolume, 0, testRegistry(t))
	assert.Error(t, err)
}

func TestGetMoles_AbsentSpeciesIsZero(t *testing.T) {
	m := MustMixture(CellVolume, T20C, testRegistry(t))
	assert.Zero(t, m.GetMoles(0))
	assert.Zero(t, m.GetMoles(2))
	assert.Zero(t, m.GetMoles(40), "out of range species reads as zero")
}

func TestAdjustMoles(t *testing.T) {
	r := testRegistry(t)
	o2, _ := r.Lookup("oxygen")
	m := MustMixture(CellVolume, T20C, r)

	require.NoError(t, m.AdjustMoles(o2, 5))
	require.NoError(t, m.AdjustMoles(o2, -2))
	assert.Equal(t, 3.0, m.GetMoles(o2))

	// Draining exactly to zero is allowed.
	require.NoError(t, m.AdjustMoles(o2, -3))
	assert.Zero(t, m.GetMoles(o2))
}

func TestAdjustMoles_NegativeResultRejected(t *testing.T) {
	r := testRegistry(t)
	n2, _ := r.Lookup("nitrogen")
	m := MustMixture(CellVolume, T20C, r)
	require.NoError(t, m.AdjustMoles(n2, 1))

	err := m.AdjustMoles(n2, -1.5)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNegativeQuantity)

	var nqe *NegativeQuantityError
	require.True(t, errors.As(err, &nqe))
	assert.Equal(t, n2, nqe.Species)
	assert.Equal(t, "nitrogen", nqe.Name)
	assert.Equal(t, 1.0, nqe.Current)
	assert.Equal(t, -1.5, nqe.Delta)

	// Rejected mutation leaves the mixture untouched.
	assert.Equal(t, 1.0, m.GetMoles(n2))
}

func TestAdjustMoles_NaNRejected(t *testing.T) {
	m := MustMixture(CellVolume, T20C, testRegistry(t))
	assert.ErrorIs(t, m.AdjustMoles(0, math.NaN()), ErrNegativeQuantity)
	assert.Zero(t, m.GetMoles(0))
}

func TestAdjustMoles_NonFiniteRejected(t *testing.T) {
	m := MustMixture(CellVolume, T20C, testRegistry(t))
	require.NoError(t, m.SetMoles(0, 2))
	for _, d := range []float64{math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, m.AdjustMoles(0, d), ErrNegativeQuantity, "delta %v", d)
	}
	assert.Equal(t, 2.0, m.GetMoles(0))
}

func TestSetMoles_NonFiniteRejected(t *testing.T) {
	m := MustMixture(CellVolume, T20C, testRegistry(t))
	for _, v := range []float64{math.Inf(1), math.Inf(-1), math.NaN(), -1} {
		assert.Error(t, m.SetMoles(1, v), "value %v", v)
	}
	assert.Zero(t, m.TotalMoles())
}

func TestCompatible_RequiresSameSpeciesOrder(t *testing.T) {
	a := MustMixture(CellVolume, T20C, MustRegistry("oxygen", "nitrogen"))
	same := MustMixture(CellVolume, T20C, MustRegistry("oxygen", "nitrogen"))
	swapped := MustMixture(CellVolume, T20C, MustRegistry("nitrogen", "oxygen"))

	assert.True(t, a.Compatible(same), "equal registries built separately")
	assert.False(t, a.Compatible(swapped))
	assert.False(t, a.Compatible(nil))
}

func TestAdjustMoles_UnknownSpecies(t *testing.T) {
	m := MustMixture(CellVolume, T20C, testRegistry(t))
	assert.ErrorIs(t, m.AdjustMoles(9, 1), ErrSpeciesMismatch)
}

func TestSetMoles_RejectsNegative(t *testing.T) {
	m := MustMixture(CellVolume, T20C, testRegistry(t))
	assert.ErrorIs(t, m.SetMoles(1, -0.1), ErrNegativeQuantity)
	require.NoError(t, m.SetMoles(1, 4))
	assert.Equal(t, 4.0, m.GetMoles(1))
}

func TestDerivedQuantities(t *testing.T) {
	r := testRegistry(t)
	o2, _ := r.Lookup("oxygen")
	n2, _ := r.Lookup("nitrogen")
	m := MustMixture(100, 300, r)
	require.NoError(t, m.SetMoles(o2, 2))
	require.NoError(t, m.SetMoles(n2, 8))

	assert.Equal(t, 10.0, m.TotalMoles())
	assert.InDelta(t, 2*R*300/100, m.PartialPressure(o2), 1e-9)
	assert.InDelta(t, 10*R*300/100, m.TotalPressure(), 1e-9)
	assert.InDelta(t, m.PartialPressure(o2)+m.PartialPressure(n2), m.TotalPressure(), 1e-9)
	assert.InDelta(t, 0.2, m.MoleFraction(o2), 1e-12)
}

func TestReadsAreIdempotent(t *testing.T) {
	r := testRegistry(t)
	m := MustMixture(CellVolume, T20C, r)
	require.NoError(t, FillAtPressure(m, map[Species]float64{0: 0.21, 1: 0.79}, OneAtmosphere))

	first := []float64{m.GetMoles(0), m.PartialPressure(0), m.TotalPressure(), m.TotalMoles()}
	for i := 0; i < 100; i++ {
		again := []float64{m.GetMoles(0), m.PartialPressure(0), m.TotalPressure(), m.TotalMoles()}
		require.Equal(t, first, again)
	}
}

func TestFillAtPressure(t *testing.T) {
	r := testRegistry(t)
	o2, _ := r.Lookup("oxygen")
	n2, _ := r.Lookup("nitrogen")
	m := MustMixture(CellVolume, T20C, r)

	require.NoError(t, FillAtPressure(m, map[Species]float64{o2: 0.2, n2: 0.8}, OneAtmosphere))

	total := MolesAt(OneAtmosphere, CellVolume, T20C)
	assert.InDelta(t, total, m.TotalMoles(), 1e-9)
	assert.InDelta(t, 0.2*total, m.GetMoles(o2), 1e-9)
	assert.InDelta(t, OneAtmosphere, m.TotalPressure(), 1e-9)
}

func TestFillAtPressure_NormalizesFractions(t *testing.T) {
	r := testRegistry(t)
	m := MustMixture(CellVolume, T20C, r)
	require.NoError(t, FillAtPressure(m, map[Species]float64{0: 1, 1: 4}, OneAtmosphere))
	assert.InDelta(t, 0.2, m.MoleFraction(0), 1e-12)
}

func TestFillAtPressure_ZeroPressureEmpties(t *testing.T) {
	m := MustMixture(CellVolume, T20C, testRegistry(t))
	require.NoError(t, m.SetMoles(0, 3))
	require.NoError(t, FillAtPressure(m, map[Species]float64{0: 1}, 0))
	assert.Zero(t, m.TotalMoles())
}

func TestClone_IsIndependent(t *testing.T) {
	m := MustMixture(CellVolume, T20C, testRegistry(t))
	require.NoError(t, m.SetMoles(0, 1))
	c := m.Clone()
	require.NoError(t, c.AdjustMoles(0, 1))
	assert.Equal(t, 1.0, m.GetMoles(0))
	assert.Equal(t, 2.0, c.GetMoles(0))
	assert.True(t, m.Compatible(c))
}

func TestEach_SkipsEmptySpecies(t *testing.T) {
	m := MustMixture(CellVolume, T20C, testRegistry(t))
	require.NoError(t, m.SetMoles(2, 0.5))

	var seen []Species
	m.Each(func(s Species, _ float64) { seen = append(seen, s) })
	assert.Equal(t, []Species{2}, seen)
}

func TestString(t *testing.T) {
	m := MustMixture(CellVolume, T20C, testRegistry(t))
	assert.Contains(t, m.String(), "empty")
	require.NoError(t, m.SetMoles(0, 1))
	assert.Contains(t, m.String(), "oxygen=1")
}
