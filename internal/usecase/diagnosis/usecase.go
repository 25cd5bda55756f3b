// Package diagnosis packages a completed session's answers for the external
// prediction model and derives the clinical assessment: severity risk,
// confidence and recommendations.
package diagnosis

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/catalog"
	"github.com/kigali-health/screening-backend/internal/entity"
)

// Severity weights for the three escalating typhoid tiers. Other classes
// contribute nothing to the base score.
const (
	acuteWeight       = 0.5
	relapsingWeight   = 0.7
	complicatedWeight = 1.0
)

// Multiplicative risk adjustments, applied in this order.
const (
	prolongedFeverFactor = 1.2
	complicationFactor   = 1.3
	priorHistoryFactor   = 1.1

	prolongedFeverDays = 7
	maxSeverity        = 100.0
)

// Usecase is the diagnosis invoker. It calls the prediction collaborator at
// the request of the conversation layer and never mutates session state.
type Usecase struct {
	predictor PredictorConnector
	logger    *zap.Logger
}

func NewUsecase(predictor PredictorConnector, logger *zap.Logger) *Usecase {
	return &Usecase{
		predictor: predictor,
		logger:    logger,
	}
}

// Diagnose builds the canonical model input from collected data, invokes the
// prediction collaborator and derives severity, confidence and
// recommendations. A connector failure surfaces as ErrPredictionUnavailable;
// the caller's session state is untouched so the call can be retried.
func (uc *Usecase) Diagnose(ctx context.Context, collected map[string]any) (*entity.DiagnosisResult, error) {
	input := buildModelInput(collected)

	resp, err := uc.predictor.Predict(ctx, &entity.PredictRequest{PatientData: input})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrPredictionUnavailable, err)
	}

	severity := severityRisk(resp.Probabilities, input)
	confidence := maxProbability(resp.Probabilities)

	ctxzap.Info(ctx, "prediction received",
		zap.String("prediction", resp.Prediction),
		zap.Float64("confidence", confidence),
		zap.Float64("severity_risk", severity),
	)

	return &entity.DiagnosisResult{
		Prediction:      resp.Prediction,
		Probabilities:   resp.Probabilities,
		SeverityRisk:    severity,
		Confidence:      confidence,
		Recommendations: recommendationsFor(resp.Prediction, severity),
	}, nil
}

// buildModelInput copies the collected mapping and default-fills the optional
// symptom fields with the "None" sentinel, per the model's input contract.
func buildModelInput(collected map[string]any) map[string]any {
	input := make(map[string]any, len(collected))
	for k, v := range collected {
		input[k] = v
	}
	for _, field := range catalog.OptionalSymptomFields {
		if _, ok := input[field]; !ok {
			input[field] = catalog.NoneOption
		}
	}
	return input
}

// severityRisk combines the typhoid tier probabilities with the patient's
// risk factors. Adjustment order is fixed; the result is clamped to 100.
func severityRisk(probabilities map[string]float64, input map[string]any) float64 {
	risk := probabilities[entity.LabelAcuteTyphoid]*acuteWeight +
		probabilities[entity.LabelRelapsingTyphoid]*relapsingWeight +
		probabilities[entity.LabelComplicatedTyphoid]*complicatedWeight

	if feverDays, ok := input[catalog.FieldFeverDuration].(int); ok && feverDays > prolongedFeverDays {
		risk *= prolongedFeverFactor
	}

	if complication, ok := input[catalog.FieldComplications].(string); ok && complication != catalog.NoneOption {
		risk *= complicationFactor
	}

	if history, ok := input[catalog.FieldPreviousTyphoid].(string); ok && history == "Yes" {
		risk *= priorHistoryFactor
	}

	if risk > maxSeverity {
		risk = maxSeverity
	}
	return risk
}

func maxProbability(probabilities map[string]float64) float64 {
	var max float64
	for _, p := range probabilities {
		if p > max {
			max = p
		}
	}
	return max
}

// FormatAssessment renders the final agent message: diagnosis, confidence,
// severity, probability breakdown sorted by descending probability, and the
// numbered recommendation list.
func (uc *Usecase) FormatAssessment(result *entity.DiagnosisResult) string {
	type classProb struct {
		label string
		prob  float64
	}
	sorted := make([]classProb, 0, len(result.Probabilities))
	for label, prob := range result.Probabilities {
		sorted = append(sorted, classProb{label, prob})
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].prob == sorted[j].prob {
			return sorted[i].label < sorted[j].label
		}
		return sorted[i].prob > sorted[j].prob
	})

	var b strings.Builder
	b.WriteString("Thank you for providing all the information. Based on your symptoms and health profile, here is my assessment:\n\n")
	fmt.Fprintf(&b, "**Diagnosis:** %s\n", result.Prediction)
	fmt.Fprintf(&b, "**Confidence:** %.1f%%\n", result.Confidence)
	fmt.Fprintf(&b, "**Severity Risk:** %.1f%%\n\n", result.SeverityRisk)

	b.WriteString("**Probability Breakdown:**\n")
	for _, cp := range sorted {
		fmt.Fprintf(&b, "• %s: %.1f%%\n", cp.label, cp.prob)
	}

	b.WriteString("\n**Recommendations:**\n")
	for i, rec := range result.Recommendations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, rec)
	}

	b.WriteString("\n⚠️ **Important:** This is a screening tool and NOT a substitute for professional medical diagnosis. Please consult a healthcare provider for proper diagnosis and treatment.")

	return b.String()
}
