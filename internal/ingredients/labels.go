package ingredients

import "ecolabel/internal/scoring"

// LabelFlags raises the scoring flags implied by detected labels. Labels
// without a scoring effect (vegan, natural, ...) are ignored.
func LabelFlags(labels []string) scoring.Flags {
	var f scoring.Flags
	for _, l := range labels {
		switch l {
		case "bio":
			f.BioCertified = true
		case "recyclable":
			f.RecyclablePackaging = true
		case "fair_trade":
			f.FairTrade = true
		}
	}
	return f
}
