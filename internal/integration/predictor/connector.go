// Package predictor is the client for the external typhoid classification
// service. The model itself is a black box: field mapping in, label and
// class probabilities out.
package predictor

import (
	"context"
	"fmt"
	"net/http"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/config"
	"github.com/kigali-health/screening-backend/internal/entity"
	"github.com/kigali-health/screening-backend/internal/integration/common"
	pkghttp "github.com/kigali-health/screening-backend/pkg/http"
)

type Connector struct {
	config    config.PredictorConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.PredictorConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// Predict sends the collected patient data to the classification service.
// Network-level failures are retried per the connector's retry policy; HTTP
// 4xx responses are not, since a rejected input shape will not fix itself.
func (c *Connector) Predict(ctx context.Context, req *entity.PredictRequest) (*entity.PredictResponse, error) {
	ctxzap.Info(ctx, "requesting prediction", zap.Int("field_count", len(req.PatientData)))

	var resp entity.PredictResponse
	err := retry.Do(
		func() error {
			return c.connector.DoRequest(ctx, http.MethodPost, c.config.PredictEndpoint, req, &resp)
		},
		append(c.config.Retry.ToRetryOptions(),
			retry.Context(ctx),
			retry.RetryIf(func(err error) bool {
				httpErr, ok := err.(*pkghttp.HTTPError)
				return !ok || httpErr.StatusCode >= 500
			}),
		)...,
	)
	if err != nil {
		return nil, fmt.Errorf("predict request failed: %w", err)
	}

	if resp.Prediction == "" || len(resp.Probabilities) == 0 {
		return nil, fmt.Errorf("invalid prediction response: empty label or probabilities")
	}

	ctxzap.Info(ctx, "prediction received",
		zap.String("prediction", resp.Prediction),
		zap.Int("class_count", len(resp.Probabilities)),
	)

	return &resp, nil
}
