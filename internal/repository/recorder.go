package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/entity"
)

const recorderTimeout = 10 * time.Second

const (
	riskLevelHigh     = "high"
	riskLevelModerate = "moderate"
	riskLevelLow      = "low"

	highRiskThreshold     = 60.0
	moderateRiskThreshold = 30.0
)

// PostgresRecorder persists conversation events asynchronously. Persistence
// failures are logged and never propagate to the conversation flow, so a
// database outage degrades the audit trail but not the screening itself.
type PostgresRecorder struct {
	patients      PatientRepository
	sessions      ScreeningRepository
	messages      MessageRepository
	symptoms      SymptomRepository
	predictions   PredictionRepository
	prescriptions PrescriptionRepository
	logger        *zap.Logger
}

func NewPostgresRecorder(
	patients PatientRepository,
	sessions ScreeningRepository,
	messages MessageRepository,
	symptoms SymptomRepository,
	predictions PredictionRepository,
	prescriptions PrescriptionRepository,
	logger *zap.Logger,
) *PostgresRecorder {
	return &PostgresRecorder{
		patients:      patients,
		sessions:      sessions,
		messages:      messages,
		symptoms:      symptoms,
		predictions:   predictions,
		prescriptions: prescriptions,
		logger:        logger,
	}
}

func (r *PostgresRecorder) SessionStarted(_ context.Context, sessionID string, req *entity.StartConversationRequest) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recorderTimeout)
		defer cancel()

		var patientID *string
		if req != nil && req.PatientName != nil && req.PatientPhone != nil {
			language := "kinyarwanda"
			if req.PatientLanguage != nil {
				language = *req.PatientLanguage
			}
			patient, err := r.patients.UpsertPatient(ctx, *req.PatientName, *req.PatientPhone, language, req.PatientLocation)
			if err != nil {
				r.logger.Error("record patient registration",
					zap.String("session_id", sessionID), zap.Error(err))
			} else {
				patientID = &patient.ID
			}
		}

		if _, err := r.sessions.CreateSession(ctx, sessionID, patientID); err != nil {
			r.logger.Error("record session start",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}()
}

func (r *PostgresRecorder) MessageAppended(_ context.Context, sessionID string, entry entity.TranscriptEntry) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recorderTimeout)
		defer cancel()

		if err := r.messages.AddMessage(ctx, sessionID, entry.Role, entry.Text); err != nil {
			r.logger.Error("record conversation message",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}()
}

func (r *PostgresRecorder) SessionCompleted(
	_ context.Context,
	sessionID string,
	collected map[string]any,
	result *entity.DiagnosisResult,
) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recorderTimeout)
		defer cancel()

		for field, value := range collected {
			if err := r.symptoms.AddSymptom(ctx, sessionID, field, fmt.Sprint(value)); err != nil {
				r.logger.Error("record symptom",
					zap.String("session_id", sessionID),
					zap.String("field", field), zap.Error(err))
			}
		}

		riskLevel := riskLevelFor(result.SeverityRisk)

		if err := r.predictions.CreatePrediction(ctx, sessionID, result, riskLevel); err != nil {
			r.logger.Error("record prediction",
				zap.String("session_id", sessionID), zap.Error(err))
		}

		if err := r.prescriptions.CreatePrescriptionLines(ctx, sessionID, result.Recommendations); err != nil {
			r.logger.Error("record prescriptions",
				zap.String("session_id", sessionID), zap.Error(err))
		}

		if err := r.sessions.UpdatePredictionInfo(ctx, sessionID, result.Prediction, result.Confidence); err != nil {
			r.logger.Error("record prediction info",
				zap.String("session_id", sessionID), zap.Error(err))
		}

		if err := r.sessions.UpdateSessionStatus(ctx, sessionID, completionStatus(riskLevel)); err != nil {
			r.logger.Error("record session completion",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}()
}

func (r *PostgresRecorder) SessionDeleted(_ context.Context, sessionID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recorderTimeout)
		defer cancel()

		if err := r.sessions.DeleteSession(ctx, sessionID); err != nil {
			r.logger.Error("record session deletion",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}()
}

func riskLevelFor(severity float64) string {
	switch {
	case severity > highRiskThreshold:
		return riskLevelHigh
	case severity > moderateRiskThreshold:
		return riskLevelModerate
	default:
		return riskLevelLow
	}
}

// completionStatus maps a finished screening to its terminal record status.
// High-risk screenings are queued for clinician review instead of being
// closed outright.
func completionStatus(riskLevel string) entity.SessionStatus {
	if riskLevel == riskLevelHigh {
		return entity.SessionStatusAwaitingReview
	}
	return entity.SessionStatusCompleted
}

// NoopRecorder discards all events. Used when the service runs without a
// database and in tests.
type NoopRecorder struct{}

func (NoopRecorder) SessionStarted(context.Context, string, *entity.StartConversationRequest) {}

func (NoopRecorder) MessageAppended(context.Context, string, entity.TranscriptEntry) {}

func (NoopRecorder) SessionCompleted(context.Context, string, map[string]any, *entity.DiagnosisResult) {
}

func (NoopRecorder) SessionDeleted(context.Context, string) {}
