package diagnosis

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/catalog"
	"github.com/kigali-health/screening-backend/internal/entity"
)

type stubPredictor struct {
	resp     *entity.PredictResponse
	err      error
	lastReq  *entity.PredictRequest
	numCalls int
}

func (s *stubPredictor) Predict(_ context.Context, req *entity.PredictRequest) (*entity.PredictResponse, error) {
	s.numCalls++
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func fullInput() map[string]any {
	return map[string]any{
		catalog.FieldAge:              45,
		catalog.FieldGender:           "Male",
		catalog.FieldLocation:         "Urban",
		catalog.FieldSocioeconomic:    "Low",
		catalog.FieldWaterSource:      "Tap",
		catalog.FieldSanitation:       "Proper",
		catalog.FieldHandHygiene:      "Yes",
		catalog.FieldStreetFood:       "No",
		catalog.FieldFeverDuration:    3,
		catalog.FieldGISymptoms:       "None",
		catalog.FieldNeuroSymptoms:    "None",
		catalog.FieldSkin:             "No",
		catalog.FieldComplications:    "None",
		catalog.FieldVaccination:      "Received",
		catalog.FieldPreviousTyphoid:  "No",
		catalog.FieldWeather:          "Moderate",
		catalog.FieldOngoingInfection: "None",
	}
}

func TestSeverityRiskBaseFormula(t *testing.T) {
	probabilities := map[string]float64{
		entity.LabelAcuteTyphoid:       10,
		entity.LabelRelapsingTyphoid:   20,
		entity.LabelComplicatedTyphoid: 5,
		entity.LabelNoTyphoid:          65,
	}

	// 10*0.5 + 20*0.7 + 5*1.0 = 24.0 with no adjustments.
	risk := severityRisk(probabilities, fullInput())
	assert.InDelta(t, 24.0, risk, 1e-9)
}

func TestSeverityRiskAdjustments(t *testing.T) {
	probabilities := map[string]float64{
		entity.LabelAcuteTyphoid:       10,
		entity.LabelRelapsingTyphoid:   20,
		entity.LabelComplicatedTyphoid: 5,
	}

	input := fullInput()
	input[catalog.FieldFeverDuration] = 8
	risk := severityRisk(probabilities, input)
	assert.InDelta(t, 28.8, risk, 1e-9)

	input[catalog.FieldComplications] = "Sepsis"
	risk = severityRisk(probabilities, input)
	assert.InDelta(t, 37.44, risk, 1e-9)

	input[catalog.FieldPreviousTyphoid] = "Yes"
	risk = severityRisk(probabilities, input)
	assert.InDelta(t, 41.184, risk, 1e-9)
}

func TestSeverityRiskBoundaries(t *testing.T) {
	probabilities := map[string]float64{
		entity.LabelAcuteTyphoid:       10,
		entity.LabelRelapsingTyphoid:   20,
		entity.LabelComplicatedTyphoid: 5,
	}

	// Exactly seven fever days is not prolonged.
	input := fullInput()
	input[catalog.FieldFeverDuration] = 7
	assert.InDelta(t, 24.0, severityRisk(probabilities, input), 1e-9)

	// Severity is clamped at 100.
	high := map[string]float64{
		entity.LabelComplicatedTyphoid: 95,
	}
	input[catalog.FieldFeverDuration] = 20
	input[catalog.FieldComplications] = "Meningitis"
	assert.InDelta(t, 100.0, severityRisk(high, input), 1e-9)
}

func TestBuildModelInputDefaultsOptionalFields(t *testing.T) {
	collected := fullInput()
	delete(collected, catalog.FieldGISymptoms)
	delete(collected, catalog.FieldComplications)

	input := buildModelInput(collected)
	assert.Equal(t, catalog.NoneOption, input[catalog.FieldGISymptoms])
	assert.Equal(t, catalog.NoneOption, input[catalog.FieldComplications])
	assert.Equal(t, "None", input[catalog.FieldNeuroSymptoms])

	// The collected map is not mutated.
	_, ok := collected[catalog.FieldGISymptoms]
	assert.False(t, ok)
}

func TestDiagnose(t *testing.T) {
	predictor := &stubPredictor{
		resp: &entity.PredictResponse{
			Prediction: entity.LabelAcuteTyphoid,
			Probabilities: map[string]float64{
				entity.LabelNoTyphoid:          20,
				entity.LabelAcuteTyphoid:       60,
				entity.LabelRelapsingTyphoid:   12,
				entity.LabelComplicatedTyphoid: 8,
			},
		},
	}
	uc := NewUsecase(predictor, zap.NewNop())

	result, err := uc.Diagnose(context.Background(), fullInput())
	require.NoError(t, err)

	assert.Equal(t, entity.LabelAcuteTyphoid, result.Prediction)
	assert.InDelta(t, 60.0, result.Confidence, 1e-9)
	// 60*0.5 + 12*0.7 + 8*1.0 = 46.4, no adjustments apply.
	assert.InDelta(t, 46.4, result.SeverityRisk, 1e-9)
	assert.NotEmpty(t, result.Recommendations)
	assert.Equal(t, 1, predictor.numCalls)
	assert.Len(t, predictor.lastReq.PatientData, 17)
}

func TestDiagnoseConnectorFailure(t *testing.T) {
	predictor := &stubPredictor{err: errors.New("connection refused")}
	uc := NewUsecase(predictor, zap.NewNop())

	_, err := uc.Diagnose(context.Background(), fullInput())
	require.ErrorIs(t, err, entity.ErrPredictionUnavailable)
}

func TestRecommendationsFor(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		severity  float64
		wantFirst string
		wantLen   int
	}{
		{"no typhoid", entity.LabelNoTyphoid, 10, "Monitor symptoms for the next 24-48 hours", 4},
		{"acute below threshold", entity.LabelAcuteTyphoid, 60, "Visit a healthcare facility for confirmation tests", 5},
		{"acute above threshold", entity.LabelAcuteTyphoid, 60.1, urgentRecommendation, 6},
		{"relapsing", entity.LabelRelapsingTyphoid, 90, "Seek immediate medical care", 5},
		{"complicated", entity.LabelComplicatedTyphoid, 95, "GO TO EMERGENCY ROOM IMMEDIATELY", 4},
		{"unknown label falls back", "Garbled Label", 95, "GO TO EMERGENCY ROOM IMMEDIATELY", 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := recommendationsFor(tt.label, tt.severity)
			require.Len(t, recs, tt.wantLen)
			assert.Equal(t, tt.wantFirst, recs[0])

			// Pure: a second call yields the identical list.
			assert.Equal(t, recs, recommendationsFor(tt.label, tt.severity))
		})
	}
}

func TestFormatAssessment(t *testing.T) {
	uc := NewUsecase(&stubPredictor{}, zap.NewNop())

	result := &entity.DiagnosisResult{
		Prediction: entity.LabelAcuteTyphoid,
		Probabilities: map[string]float64{
			entity.LabelNoTyphoid:          20,
			entity.LabelAcuteTyphoid:       60,
			entity.LabelRelapsingTyphoid:   12,
			entity.LabelComplicatedTyphoid: 8,
		},
		SeverityRisk: 46.4,
		Confidence:   60,
		Recommendations: []string{
			"Visit a healthcare facility for confirmation tests",
			"Get blood culture and Widal test done",
		},
	}

	text := uc.FormatAssessment(result)

	assert.Contains(t, text, "**Diagnosis:** Acute Typhoid Fever")
	assert.Contains(t, text, "**Confidence:** 60.0%")
	assert.Contains(t, text, "**Severity Risk:** 46.4%")
	assert.Contains(t, text, "1. Visit a healthcare facility for confirmation tests")
	assert.Contains(t, text, "2. Get blood culture and Widal test done")
	assert.Contains(t, text, "NOT a substitute for professional medical diagnosis")

	// Probability lines are sorted by descending probability.
	acuteIdx := strings.Index(text, "Acute Typhoid Fever: 60.0%")
	noIdx := strings.Index(text, "Normal or No Typhoid: 20.0%")
	relapsingIdx := strings.Index(text, "Relapsing Typhoid: 12.0%")
	complicatedIdx := strings.Index(text, "Complicated Typhoid: 8.0%")
	require.True(t, acuteIdx >= 0 && noIdx >= 0 && relapsingIdx >= 0 && complicatedIdx >= 0)
	assert.Less(t, acuteIdx, noIdx)
	assert.Less(t, noIdx, relapsingIdx)
	assert.Less(t, relapsingIdx, complicatedIdx)
}
