package gas

// Physical constants. Pressure is in kPa, volume in litres, temperature in kelvin.
const (
	// R is the ideal gas constant in L·kPa/(mol·K).
	R = 8.314462618

	// T20C is 20 degrees Celsius, the default mixture temperature.
	T20C = 293.15

	// OneAtmosphere is standard sea-level pressure.
	OneAtmosphere = 101.325

	// CellVolume is the volume of one standard environment region.
	CellVolume = 2500.0

	// BreathVolume is the volume of gas exchanged per breath.
	BreathVolume = 0.5

	// Epsilon is the mole quantity below which a species is treated as absent.
	Epsilon = 1e-12
)

// MolesAt returns the number of moles that fill volume at the given pressure and temperature.
func MolesAt(pressure, volume, temperature float64) float64 {
	if temperature <= 0 {
		return 0
	}
	return pressure * volume / (R * temperature)
}
