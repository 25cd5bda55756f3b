package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// PrescriptionRepository defines the interface for recommendation persistence
type PrescriptionRepository interface {
	CreatePrescriptionLines(ctx context.Context, sessionID string, lines []string) error
	GetSessionPrescriptions(ctx context.Context, sessionID string) ([]entity.Prescription, error)
}

var _ PrescriptionRepository = &PrescriptionPostgres{}

// PrescriptionPostgres implements PrescriptionRepository using PostgreSQL
type PrescriptionPostgres struct {
	db *pgxpool.Pool
}

func NewPrescriptionPostgres(db *pgxpool.Pool) *PrescriptionPostgres {
	return &PrescriptionPostgres{db: db}
}

func (r *PrescriptionPostgres) CreatePrescriptionLines(ctx context.Context, sessionID string, lines []string) error {
	sessID, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	const query = `
		INSERT INTO prescription (prescription_id, session_id, line_number, instructions)
		VALUES ($1, $2, $3, $4)`

	for i, line := range lines {
		if _, err := r.db.Exec(ctx, query, uuid.New(), sessID, i+1, line); err != nil {
			return fmt.Errorf("create prescription line %d: %w", i+1, err)
		}
	}

	return nil
}

func (r *PrescriptionPostgres) GetSessionPrescriptions(ctx context.Context, sessionID string) ([]entity.Prescription, error) {
	sessID, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	const query = `
		SELECT prescription_id, session_id, line_number, instructions, created_at
		FROM prescription
		WHERE session_id = $1
		ORDER BY line_number`

	rows, err := r.db.Query(ctx, query, sessID)
	if err != nil {
		return nil, fmt.Errorf("get session prescriptions: %w", err)
	}
	defer rows.Close()

	var prescriptions []entity.Prescription
	for rows.Next() {
		var p entity.Prescription
		if err := rows.Scan(&p.ID, &p.SessionID, &p.LineNumber, &p.Text, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan prescription: %w", err)
		}
		prescriptions = append(prescriptions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prescriptions: %w", err)
	}

	return prescriptions, nil
}
