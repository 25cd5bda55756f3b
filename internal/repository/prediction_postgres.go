package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// PredictionRepository defines the interface for prediction record persistence
type PredictionRepository interface {
	CreatePrediction(ctx context.Context, sessionID string, result *entity.DiagnosisResult, riskLevel string) error
	GetSessionPrediction(ctx context.Context, sessionID string) (*entity.DiagnosisResult, error)
}

var _ PredictionRepository = &PredictionPostgres{}

// PredictionPostgres implements PredictionRepository using PostgreSQL
type PredictionPostgres struct {
	db *pgxpool.Pool
}

func NewPredictionPostgres(db *pgxpool.Pool) *PredictionPostgres {
	return &PredictionPostgres{db: db}
}

func (r *PredictionPostgres) CreatePrediction(
	ctx context.Context,
	sessionID string,
	result *entity.DiagnosisResult,
	riskLevel string,
) error {
	sessID, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	probabilities, err := json.Marshal(result.Probabilities)
	if err != nil {
		return fmt.Errorf("marshal probabilities: %w", err)
	}

	const query = `
		INSERT INTO prediction
			(prediction_id, session_id, predicted_condition, risk_level, confidence_score, severity_risk, probabilities)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.Exec(ctx, query,
		uuid.New(), sessID, result.Prediction, riskLevel,
		result.Confidence, result.SeverityRisk, probabilities,
	)
	if err != nil {
		return fmt.Errorf("create prediction: %w", err)
	}

	return nil
}

func (r *PredictionPostgres) GetSessionPrediction(ctx context.Context, sessionID string) (*entity.DiagnosisResult, error) {
	sessID, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	const query = `
		SELECT predicted_condition, confidence_score, severity_risk, probabilities
		FROM prediction
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var result entity.DiagnosisResult
	var probabilities []byte
	err = r.db.QueryRow(ctx, query, sessID).
		Scan(&result.Prediction, &result.Confidence, &result.SeverityRisk, &probabilities)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: prediction for session %s", entity.ErrRecordNotFound, sessionID)
	}
	if err != nil {
		return nil, fmt.Errorf("get session prediction: %w", err)
	}

	if err := json.Unmarshal(probabilities, &result.Probabilities); err != nil {
		return nil, fmt.Errorf("unmarshal probabilities: %w", err)
	}

	return &result, nil
}
