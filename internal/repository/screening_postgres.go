package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// ScreeningRepository defines the interface for session record persistence
type ScreeningRepository interface {
	CreateSession(ctx context.Context, sessionID string, patientID *string) (*entity.ScreeningRecord, error)
	GetSessionByID(ctx context.Context, id string) (*entity.ScreeningRecord, error)
	UpdateSessionStatus(ctx context.Context, id string, status entity.SessionStatus) error
	UpdatePredictionInfo(ctx context.Context, id, predictionLabel string, confidence float64) error
	DeleteSession(ctx context.Context, id string) error
}

var _ ScreeningRepository = &ScreeningPostgres{}

// ScreeningPostgres implements ScreeningRepository using PostgreSQL
type ScreeningPostgres struct {
	db *pgxpool.Pool
}

func NewScreeningPostgres(db *pgxpool.Pool) *ScreeningPostgres {
	return &ScreeningPostgres{db: db}
}

func (r *ScreeningPostgres) CreateSession(ctx context.Context, sessionID string, patientID *string) (*entity.ScreeningRecord, error) {
	sessID, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	var patID *uuid.UUID
	if patientID != nil && *patientID != "" {
		parsed, err := uuid.Parse(*patientID)
		if err != nil {
			return nil, fmt.Errorf("invalid patient ID: %w", err)
		}
		patID = &parsed
	}

	const query = `
		INSERT INTO screening_session (session_id, patient_id, status)
		VALUES ($1, $2, $3)
		RETURNING session_id, patient_id, status, created_at, updated_at`

	var rec entity.ScreeningRecord
	err = r.db.QueryRow(ctx, query, sessID, patID, entity.SessionStatusActive).
		Scan(&rec.ID, &rec.PatientID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create screening session: %w", err)
	}

	return &rec, nil
}

func (r *ScreeningPostgres) GetSessionByID(ctx context.Context, id string) (*entity.ScreeningRecord, error) {
	sessID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	const query = `
		SELECT session_id, patient_id, status, created_at, updated_at
		FROM screening_session
		WHERE session_id = $1`

	var rec entity.ScreeningRecord
	err = r.db.QueryRow(ctx, query, sessID).
		Scan(&rec.ID, &rec.PatientID, &rec.Status, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrRecordNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get screening session: %w", err)
	}

	return &rec, nil
}

func (r *ScreeningPostgres) UpdateSessionStatus(ctx context.Context, id string, status entity.SessionStatus) error {
	sessID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	const query = `UPDATE screening_session SET status = $1, updated_at = now() WHERE session_id = $2`

	tag, err := r.db.Exec(ctx, query, status, sessID)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", entity.ErrRecordNotFound, id)
	}

	return nil
}

func (r *ScreeningPostgres) UpdatePredictionInfo(ctx context.Context, id, predictionLabel string, confidence float64) error {
	sessID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	const query = `
		UPDATE screening_session
		SET prediction_label = $1, prediction_confidence = $2, updated_at = now()
		WHERE session_id = $3`

	if _, err := r.db.Exec(ctx, query, predictionLabel, confidence, sessID); err != nil {
		return fmt.Errorf("update prediction info: %w", err)
	}

	return nil
}

func (r *ScreeningPostgres) DeleteSession(ctx context.Context, id string) error {
	sessID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	if _, err := r.db.Exec(ctx, `DELETE FROM screening_session WHERE session_id = $1`, sessID); err != nil {
		return fmt.Errorf("delete screening session: %w", err)
	}

	return nil
}
