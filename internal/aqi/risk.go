package aqi

// Category is a health-risk band derived from an AQI value.
type Category string

const (
	CategoryGood          Category = "good"
	CategoryModerate      Category = "moderate"
	CategorySensitive     Category = "unhealthy-sensitive"
	CategoryVeryUnhealthy Category = "very-unhealthy"
	CategoryHazardous     Category = "hazardous"
	CategorySevere        Category = "severe"
	CategoryExtreme       Category = "extreme"
)

// ClassifyRisk maps an AQI value to its health-risk band. Boundaries are
// inclusive on the upper end. Values above 500 classify as extreme rather
// than being rejected, so an overflow reading still renders.
func ClassifyRisk(aqi int) Category {
	switch {
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategoryModerate
	case aqi <= 150:
		return CategorySensitive
	case aqi <= 200:
		return CategoryVeryUnhealthy
	case aqi <= 300:
		return CategoryHazardous
	case aqi <= 500:
		return CategorySevere
	default:
		return CategoryExtreme
	}
}

// Label returns the display name for a category.
func (c Category) Label() string {
	switch c {
	case CategoryGood:
		return "Good"
	case CategoryModerate:
		return "Moderate"
	case CategorySensitive:
		return "Unhealthy for Sensitive Groups"
	case CategoryVeryUnhealthy:
		return "Very Unhealthy"
	case CategoryHazardous:
		return "Hazardous"
	case CategorySevere:
		return "Severe"
	case CategoryExtreme:
		return "Extreme"
	default:
		return "Unknown"
	}
}

// Result is an immutable snapshot derived from a single PM2.5 reading.
type Result struct {
	AQI              int      `json:"aqi"`
	Category         Category `json:"category"`
	CigarettesPerDay float64  `json:"cigarettes_per_day"`
}

// Compute derives the full result for a PM2.5 concentration. The cigarette
// equivalent is computed from the concentration directly, not from the
// rounded AQI, so the two fields never disagree.
func Compute(pm25 float64) (Result, error) {
	index, err := PM25ToAQI(pm25)
	if err != nil {
		return Result{}, err
	}

	cigarettes, err := CigarettesFromPM25(pm25)
	if err != nil {
		return Result{}, err
	}

	return Result{
		AQI:              index,
		Category:         ClassifyRisk(index),
		CigarettesPerDay: cigarettes,
	}, nil
}
