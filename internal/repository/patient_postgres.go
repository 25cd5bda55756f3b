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

// PatientRepository defines the interface for patient registry persistence
type PatientRepository interface {
	UpsertPatient(ctx context.Context, fullName, phoneNumber, preferredLanguage string, location *string) (*entity.Patient, error)
	GetPatientByPhone(ctx context.Context, phoneNumber string) (*entity.Patient, error)
	GetPatientByID(ctx context.Context, id string) (*entity.Patient, error)
}

var _ PatientRepository = &PatientPostgres{}

// PatientPostgres implements PatientRepository using PostgreSQL
type PatientPostgres struct {
	db *pgxpool.Pool
}

func NewPatientPostgres(db *pgxpool.Pool) *PatientPostgres {
	return &PatientPostgres{db: db}
}

func (r *PatientPostgres) UpsertPatient(
	ctx context.Context,
	fullName, phoneNumber, preferredLanguage string,
	location *string,
) (*entity.Patient, error) {
	const query = `
		INSERT INTO patient (patient_id, full_name, phone_number, preferred_language, location)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (phone_number, full_name)
		DO UPDATE SET updated_at = now()
		RETURNING patient_id, full_name, phone_number, preferred_language, location, created_at`

	var p entity.Patient
	err := r.db.QueryRow(ctx, query, uuid.New(), fullName, phoneNumber, preferredLanguage, location).
		Scan(&p.ID, &p.FullName, &p.PhoneNumber, &p.PreferredLanguage, &p.Location, &p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert patient: %w", err)
	}

	return &p, nil
}

func (r *PatientPostgres) GetPatientByPhone(ctx context.Context, phoneNumber string) (*entity.Patient, error) {
	const query = `
		SELECT patient_id, full_name, phone_number, preferred_language, location, created_at
		FROM patient
		WHERE phone_number = $1
		ORDER BY created_at DESC
		LIMIT 1`

	var p entity.Patient
	err := r.db.QueryRow(ctx, query, phoneNumber).
		Scan(&p.ID, &p.FullName, &p.PhoneNumber, &p.PreferredLanguage, &p.Location, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: phone %s", entity.ErrPatientNotFound, phoneNumber)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient by phone: %w", err)
	}

	return &p, nil
}

func (r *PatientPostgres) GetPatientByID(ctx context.Context, id string) (*entity.Patient, error) {
	patientID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid patient ID: %w", err)
	}

	const query = `
		SELECT patient_id, full_name, phone_number, preferred_language, location, created_at
		FROM patient
		WHERE patient_id = $1`

	var p entity.Patient
	err = r.db.QueryRow(ctx, query, patientID).
		Scan(&p.ID, &p.FullName, &p.PhoneNumber, &p.PreferredLanguage, &p.Location, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", entity.ErrPatientNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get patient: %w", err)
	}

	return &p, nil
}
