package scoring

// Grade bands are half-open [Min, Max) except E, which includes 100.
type Threshold struct {
	Letter      string  `json:"letter"`
	Min         float64 `json:"min"`
	Max         float64 `json:"max"`
	Description string  `json:"description"`
	Color       string  `json:"color"`
}

var thresholds = []Threshold{
	{"A", 0, 20, "Excellent", "#1E8449"},
	{"B", 20, 40, "Good", "#82E0AA"},
	{"C", 40, 60, "Average", "#F4D03F"},
	{"D", 60, 80, "Poor", "#E67E22"},
	{"E", 80, 100, "Very Poor", "#E74C3C"},
}

const unknownGradeColor = "#808080"

// Letter grades a 0-100 score. Out-of-range scores grade as the nearest end.
func Letter(score float64) string {
	switch {
	case score < 20:
		return "A"
	case score < 40:
		return "B"
	case score < 60:
		return "C"
	case score < 80:
		return "D"
	default:
		return "E"
	}
}

func Thresholds() []Threshold {
	out := make([]Threshold, len(thresholds))
	copy(out, thresholds)
	return out
}

// Color returns the display colour for a letter grade.
func Color(letter string) string {
	for _, t := range thresholds {
		if t.Letter == letter {
			return t.Color
		}
	}
	return unknownGradeColor
}

// GradeRange returns the score band of a letter; unknown letters span 0-100.
func GradeRange(letter string) (lo, hi float64) {
	for _, t := range thresholds {
		if t.Letter == letter {
			return t.Min, t.Max
		}
	}
	return 0, 100
}
