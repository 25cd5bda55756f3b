package entity

// Diagnosis class labels exposed by the prediction collaborator. The severity
// calculation depends on the three typhoid tiers being present in the
// probability map.
const (
	LabelNoTyphoid          = "Normal or No Typhoid"
	LabelAcuteTyphoid       = "Acute Typhoid Fever"
	LabelRelapsingTyphoid   = "Relapsing Typhoid"
	LabelComplicatedTyphoid = "Complicated Typhoid"
)

// PredictRequest is the wire shape sent to the prediction service: the full
// validated field -> value mapping (ints for numeric fields, canonical
// strings for enumerated ones).
type PredictRequest struct {
	PatientData map[string]any `json:"patient_data"`
}

// PredictResponse is the raw model output: a predicted label plus class
// probabilities in percent.
type PredictResponse struct {
	Prediction    string             `json:"prediction"`
	Probabilities map[string]float64 `json:"probabilities"`
}

// DiagnosisResult is the finished assessment produced once per completed
// session.
type DiagnosisResult struct {
	Prediction      string             `json:"prediction"`
	Probabilities   map[string]float64 `json:"probabilities"`
	SeverityRisk    float64            `json:"severity_risk_percentage"`
	Confidence      float64            `json:"confidence"`
	Recommendations []string           `json:"recommendations"`
}
