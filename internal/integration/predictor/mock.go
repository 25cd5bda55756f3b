package predictor

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/catalog"
	"github.com/kigali-health/screening-backend/internal/entity"
)

// MockConnector is a stand-in for the classification service, used in local
// development and integration environments without the model deployed.
type MockConnector struct {
	logger *zap.Logger
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
	}
}

// Predict returns a canned distribution, skewed towards the acute tier when
// the reported fever is long or complications were reported.
func (m *MockConnector) Predict(ctx context.Context, req *entity.PredictRequest) (*entity.PredictResponse, error) {
	ctxzap.Info(ctx, "[MOCK] predicting typhoid class", zap.Int("field_count", len(req.PatientData)))

	feverDays, _ := req.PatientData[catalog.FieldFeverDuration].(int)
	complication, _ := req.PatientData[catalog.FieldComplications].(string)

	resp := &entity.PredictResponse{
		Prediction: entity.LabelNoTyphoid,
		Probabilities: map[string]float64{
			entity.LabelNoTyphoid:          70.0,
			entity.LabelAcuteTyphoid:       20.0,
			entity.LabelRelapsingTyphoid:   6.0,
			entity.LabelComplicatedTyphoid: 4.0,
		},
	}

	if feverDays > 5 || (complication != "" && complication != catalog.NoneOption) {
		resp.Prediction = entity.LabelAcuteTyphoid
		resp.Probabilities = map[string]float64{
			entity.LabelNoTyphoid:          15.0,
			entity.LabelAcuteTyphoid:       60.0,
			entity.LabelRelapsingTyphoid:   15.0,
			entity.LabelComplicatedTyphoid: 10.0,
		}
	}

	ctxzap.Info(ctx, "[MOCK] prediction generated", zap.String("prediction", resp.Prediction))
	return resp, nil
}
