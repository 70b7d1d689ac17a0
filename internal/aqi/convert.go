// Package aqi converts between pollutant concentrations and the US EPA Air
// Quality Index, and derives the Berkeley Earth cigarette-equivalence metric
// (22 µg/m³ of sustained PM2.5 exposure ≈ one cigarette smoked per day).
package aqi

import (
	"math"
)

// CigaretteEquivalentPM25 is the PM2.5 concentration (µg/m³) equivalent to
// smoking one cigarette per day, per Berkeley Earth.
const CigaretteEquivalentPM25 = 22.0

// Defaults used by AdjustedAQI when the caller has no environment data.
const (
	DefaultTemperature = 20.0
	DefaultHumidity    = 50.0
)

var (
	// ErrInvalidInput is returned for non-finite numeric input (NaN, ±Inf).
	// Clamping applies only to finite out-of-range values.
	ErrInvalidInput = &ConversionError{"input is not a finite number"}

	// ErrNoBreakpoint indicates a gap in the breakpoint table. It is
	// unreachable once inputs are clamped; a caller seeing it has found a
	// defect in the table.
	ErrNoBreakpoint = &ConversionError{"no breakpoint segment matches"}
)

// ConversionError represents a conversion error
type ConversionError struct {
	msg string
}

func (e *ConversionError) Error() string {
	return e.msg
}

// PM25ToAQI converts a PM2.5 concentration to an AQI value in [0, 500].
// Negative concentrations clamp to 0; concentrations above the table maximum
// (500.4 µg/m³) clamp to 500. The function is monotonically non-decreasing.
func PM25ToAQI(pm25 float64) (int, error) {
	return concToIndex(pm25, PM25Breakpoints)
}

// PM10ToAQI converts a PM10 concentration to an AQI value in [0, 500].
func PM10ToAQI(pm10 float64) (int, error) {
	return concToIndex(pm10, PM10Breakpoints)
}

func concToIndex(c float64, table []Breakpoint) (int, error) {
	if math.IsNaN(c) || math.IsInf(c, 0) {
		return 0, ErrInvalidInput
	}

	first := table[0]
	last := table[len(table)-1]

	if c < first.ConcLo {
		return first.AQILo, nil
	}
	if c > last.ConcHi {
		return last.AQIHi, nil
	}

	for _, bp := range table {
		if c <= bp.ConcHi {
			slope := float64(bp.AQIHi-bp.AQILo) / (bp.ConcHi - bp.ConcLo)
			return int(math.Round(slope*(c-bp.ConcLo) + float64(bp.AQILo))), nil
		}
	}

	return 0, ErrNoBreakpoint
}

// AQIToPM25 converts an AQI value back to a PM2.5 concentration using the
// same breakpoint table in the reverse direction. AQI below 0 clamps to a
// zero concentration; AQI above 500 clamps to the table maximum. Round-trips
// through PM25ToAQI reproduce the input within ±1 index point.
func AQIToPM25(aqi float64) (float64, error) {
	if math.IsNaN(aqi) || math.IsInf(aqi, 0) {
		return 0, ErrInvalidInput
	}

	table := PM25Breakpoints
	last := table[len(table)-1]

	if aqi < 0 {
		return 0, nil
	}
	if aqi > float64(last.AQIHi) {
		return last.ConcHi, nil
	}

	for _, bp := range table {
		if aqi <= float64(bp.AQIHi) {
			slope := (bp.ConcHi - bp.ConcLo) / float64(bp.AQIHi-bp.AQILo)
			conc := slope*(aqi-float64(bp.AQILo)) + bp.ConcLo
			// An AQI in the gap below this segment (e.g. 50.5) would
			// extrapolate below ConcLo; clamp to the segment floor so the
			// inverse stays monotone.
			if conc < bp.ConcLo {
				conc = bp.ConcLo
			}
			return conc, nil
		}
	}

	return 0, ErrNoBreakpoint
}

// CigarettesPerDay converts an AQI value to its cigarette-per-day equivalent,
// rounded to two decimals. The AQI is first converted back to a PM2.5
// concentration so that the concentration-based Berkeley Earth formula is the
// only formula in use.
func CigarettesPerDay(aqi float64) (float64, error) {
	conc, err := AQIToPM25(aqi)
	if err != nil {
		return 0, err
	}
	return round2(conc / CigaretteEquivalentPM25), nil
}

// CigarettesFromPM25 converts a PM2.5 concentration directly to its
// cigarette-per-day equivalent, rounded to two decimals. Never negative.
func CigarettesFromPM25(pm25 float64) (float64, error) {
	if math.IsNaN(pm25) || math.IsInf(pm25, 0) {
		return 0, ErrInvalidInput
	}
	if pm25 < 0 {
		pm25 = 0
	}
	return round2(pm25 / CigaretteEquivalentPM25), nil
}

// AdjustedAQI applies an environmental-sensitivity penalty to the base AQI:
// +1% per °C above 25°C and +0.5% per percentage point of humidity above 70%.
// This is a heuristic approximation, not a regulatory standard. The result is
// re-clamped to [0, 500].
func AdjustedAQI(pm25, temperature, humidity float64) (int, error) {
	if math.IsNaN(temperature) || math.IsInf(temperature, 0) ||
		math.IsNaN(humidity) || math.IsInf(humidity, 0) {
		return 0, ErrInvalidInput
	}

	base, err := PM25ToAQI(pm25)
	if err != nil {
		return 0, err
	}

	factor := 1.0
	if temperature > 25 {
		factor += 0.01 * (temperature - 25)
	}
	if humidity > 70 {
		factor += 0.005 * (humidity - 70)
	}

	adjusted := int(math.Round(float64(base) * factor))
	if adjusted < 0 {
		adjusted = 0
	}
	if adjusted > 500 {
		adjusted = 500
	}
	return adjusted, nil
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
