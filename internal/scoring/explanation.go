package scoring

import (
	"fmt"
	"strings"

	"ecolabel/internal/domain"
)

var gradeSentences = map[string]string{
	"A": "This product has excellent environmental performance with very low impacts across all indicators.",
	"B": "This product has good environmental performance with low impacts.",
	"C": "This product has average environmental performance. There is room for improvement.",
	"D": "This product has below average environmental performance with notable impacts.",
	"E": "This product has poor environmental performance with high environmental impacts.",
}

// Explain renders a short human-readable justification of a grade.
func Explain(letter string, ind domain.Indicators, adjustments []domain.Adjustment) string {
	var insights []string
	insights = appendInsight(insights, ind.CO2, "Low carbon footprint", "High carbon footprint")
	insights = appendInsight(insights, ind.Water, "Low water usage", "High water usage")
	insights = appendInsight(insights, ind.Energy, "Low energy consumption", "High energy consumption")

	var bonuses, concerns []string
	for _, a := range adjustments {
		if a.Points < 0 {
			bonuses = append(bonuses, a.Label)
		} else {
			concerns = append(concerns, a.Label)
		}
	}
	if len(bonuses) > 0 {
		insights = append(insights, "Bonuses: "+strings.Join(bonuses, ", "))
	}
	if len(concerns) > 0 {
		insights = append(insights, "Concerns: "+strings.Join(concerns, ", "))
	}

	base := gradeSentences[letter]
	if len(insights) == 0 {
		return base
	}
	return fmt.Sprintf("%s Key factors: %s.", base, strings.Join(insights, "; "))
}

func appendInsight(out []string, v float64, low, high string) []string {
	switch {
	case v < 30:
		return append(out, low)
	case v > 70:
		return append(out, high)
	}
	return out
}
