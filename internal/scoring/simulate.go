package scoring

type ImprovementDetail struct {
	Improvement     string  `json:"improvement"`
	PotentialPoints float64 `json:"potential_points"`
}

type Simulation struct {
	CurrentScore         float64             `json:"current_score"`
	CurrentGrade         string              `json:"current_grade"`
	PotentialScore       float64             `json:"potential_score"`
	PotentialGrade       string              `json:"potential_grade"`
	PotentialImprovement float64             `json:"potential_improvement"`
	GradeChange          bool                `json:"grade_change"`
	Details              []ImprovementDetail `json:"details"`
}

// Simulate estimates the score after the named improvements. Each known
// adjustment type is worth its absolute point value: gaining a bonus and
// removing a malus both lower the score. Unknown names are ignored.
func Simulate(current float64, improvements []string) Simulation {
	saving := 0.0
	details := []ImprovementDetail{}
	for _, name := range improvements {
		r, ok := ruleByKind(name)
		if !ok {
			continue
		}
		p := abs(r.points)
		saving += p
		details = append(details, ImprovementDetail{Improvement: name, PotentialPoints: p})
	}
	potential := max(0, current-saving)
	return Simulation{
		CurrentScore:         current,
		CurrentGrade:         Letter(current),
		PotentialScore:       potential,
		PotentialGrade:       Letter(potential),
		PotentialImprovement: saving,
		GradeChange:          Letter(current) != Letter(potential),
		Details:              details,
	}
}

func ruleByKind(kind string) (rule, bool) {
	for _, r := range rules {
		if r.kind == kind {
			return r, true
		}
	}
	return rule{}, false
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
