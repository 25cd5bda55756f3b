package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// SymptomRepository defines the interface for structured symptom persistence
type SymptomRepository interface {
	AddSymptom(ctx context.Context, sessionID, name, value string) error
	GetSessionSymptoms(ctx context.Context, sessionID string) ([]entity.SymptomEntry, error)
}

var _ SymptomRepository = &SymptomPostgres{}

// SymptomPostgres implements SymptomRepository using PostgreSQL
type SymptomPostgres struct {
	db *pgxpool.Pool
}

func NewSymptomPostgres(db *pgxpool.Pool) *SymptomPostgres {
	return &SymptomPostgres{db: db}
}

func (r *SymptomPostgres) AddSymptom(ctx context.Context, sessionID, name, value string) error {
	sessID, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	const query = `
		INSERT INTO symptom (symptom_id, session_id, symptom_name, symptom_value)
		VALUES ($1, $2, $3, $4)`

	if _, err := r.db.Exec(ctx, query, uuid.New(), sessID, name, value); err != nil {
		return fmt.Errorf("add symptom: %w", err)
	}

	return nil
}

func (r *SymptomPostgres) GetSessionSymptoms(ctx context.Context, sessionID string) ([]entity.SymptomEntry, error) {
	sessID, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	const query = `
		SELECT symptom_id, session_id, symptom_name, symptom_value, recorded_at
		FROM symptom
		WHERE session_id = $1
		ORDER BY recorded_at`

	rows, err := r.db.Query(ctx, query, sessID)
	if err != nil {
		return nil, fmt.Errorf("get session symptoms: %w", err)
	}
	defer rows.Close()

	var symptoms []entity.SymptomEntry
	for rows.Next() {
		var s entity.SymptomEntry
		if err := rows.Scan(&s.ID, &s.SessionID, &s.Field, &s.Value, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan symptom: %w", err)
		}
		symptoms = append(symptoms, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate symptoms: %w", err)
	}

	return symptoms, nil
}
