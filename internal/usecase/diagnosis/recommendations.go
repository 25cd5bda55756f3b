package diagnosis

import "github.com/kigali-health/screening-backend/internal/entity"

const urgentRecommendation = "URGENT: Seek medical attention TODAY"

// urgentSeverityThreshold triggers the urgent prepend for the acute tier.
const urgentSeverityThreshold = 60.0

var recommendationsByLabel = map[string][]string{
	entity.LabelNoTyphoid: {
		"Monitor symptoms for the next 24-48 hours",
		"Stay well hydrated",
		"Maintain good hygiene practices",
		"Consult a doctor if symptoms worsen",
	},
	entity.LabelAcuteTyphoid: {
		"Visit a healthcare facility for confirmation tests",
		"Get blood culture and Widal test done",
		"Do not self-medicate with antibiotics",
		"Maintain strict hygiene and isolation",
		"Stay hydrated and rest",
	},
	entity.LabelRelapsingTyphoid: {
		"Seek immediate medical care",
		"Inform your doctor about previous typhoid history",
		"Complete the full antibiotic course as prescribed",
		"Get follow-up blood cultures done",
		"Strict bed rest required",
	},
	entity.LabelComplicatedTyphoid: {
		"GO TO EMERGENCY ROOM IMMEDIATELY",
		"Hospitalization is likely required",
		"Life-threatening complications are possible",
		"Do not delay treatment",
	},
}

// recommendationsFor is a pure function of (label, severity): identical
// inputs always yield the same ordered list. Unknown labels fall back to the
// complicated tier, the most cautious set.
func recommendationsFor(label string, severity float64) []string {
	base, ok := recommendationsByLabel[label]
	if !ok {
		base = recommendationsByLabel[entity.LabelComplicatedTyphoid]
	}

	recs := make([]string, 0, len(base)+1)
	if label == entity.LabelAcuteTyphoid && severity > urgentSeverityThreshold {
		recs = append(recs, urgentRecommendation)
	}
	recs = append(recs, base...)
	return recs
}
