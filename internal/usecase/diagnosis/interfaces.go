package diagnosis

import (
	"context"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// PredictorConnector is the external classification model: validated patient
// data in, predicted label plus class probabilities (percent) out.
type PredictorConnector interface {
	Predict(ctx context.Context, req *entity.PredictRequest) (*entity.PredictResponse, error)
}
