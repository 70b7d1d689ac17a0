package aqi

// Breakpoint maps a closed concentration interval (µg/m³) to a closed
// interval of index points, per the US EPA piecewise-linear AQI scale.
type Breakpoint struct {
	ConcLo float64
	ConcHi float64
	AQILo  int
	AQIHi  int
}

// PM25Breakpoints is the published EPA table for PM2.5 (24-hour average).
// Boundaries are contiguous but not coincident (12.0 / 12.1); concentrations
// that fall in a gap resolve to the higher segment, which keeps the mapping
// total and monotone over [0, 500.4].
var PM25Breakpoints = []Breakpoint{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
	{250.5, 350.4, 301, 400},
	{350.5, 500.4, 401, 500},
}

// PM10Breakpoints is the published EPA table for PM10.
var PM10Breakpoints = []Breakpoint{
	{0, 54, 0, 50},
	{55, 154, 51, 100},
	{155, 254, 101, 150},
	{255, 354, 151, 200},
	{355, 424, 201, 300},
	{425, 504, 301, 400},
	{505, 604, 401, 500},
}
