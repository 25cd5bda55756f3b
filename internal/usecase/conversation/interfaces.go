package conversation

import (
	"context"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// DiagnosisInvoker turns a completed session's collected data into a final
// assessment. It is the only collaborator that performs blocking I/O.
type DiagnosisInvoker interface {
	Diagnose(ctx context.Context, collected map[string]any) (*entity.DiagnosisResult, error)
	FormatAssessment(result *entity.DiagnosisResult) string
}

// Recorder receives fire-and-forget persistence events. Implementations must
// not block the conversation flow; failures are logged, never surfaced to the
// patient.
type Recorder interface {
	SessionStarted(ctx context.Context, sessionID string, req *entity.StartConversationRequest)
	MessageAppended(ctx context.Context, sessionID string, entry entity.TranscriptEntry)
	SessionCompleted(ctx context.Context, sessionID string, collected map[string]any, result *entity.DiagnosisResult)
	SessionDeleted(ctx context.Context, sessionID string)
}
