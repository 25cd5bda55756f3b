package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/catalog"
	"github.com/kigali-health/screening-backend/internal/entity"
)

const (
	greeting       = "Hello! I'm your AI diagnostic assistant for typhoid fever screening. I'll ask you some questions to assess your condition."
	acknowledgment = "Got it."
)

// Outcome is the result of one answer submission. A rejected submission
// leaves the session untouched and carries a hint for re-prompting.
type Outcome struct {
	Accepted bool
	Reason   error
	Hint     string
}

// Usecase owns the conversation state machine: session creation, question
// sequencing, answer validation and the transition to diagnosis.
type Usecase struct {
	store     Store
	diagnosis DiagnosisInvoker
	recorder  Recorder
	logger    *zap.Logger
}

func NewUsecase(store Store, diagnosis DiagnosisInvoker, recorder Recorder, logger *zap.Logger) *Usecase {
	return &Usecase{
		store:     store,
		diagnosis: diagnosis,
		recorder:  recorder,
		logger:    logger,
	}
}

// CreateSession initializes an empty session under the given identifier.
func (uc *Usecase) CreateSession(ctx context.Context, id string) (*Session, error) {
	session := newSession(id)
	if err := uc.store.Add(session); err != nil {
		return nil, err
	}

	ctxzap.Info(ctx, "session created", zap.String("session_id", id))
	return session, nil
}

// GetSession looks up an active session by identifier.
func (uc *Usecase) GetSession(ctx context.Context, id string) (*Session, error) {
	return uc.store.Get(id)
}

// DeleteSession removes a session from the registry.
func (uc *Usecase) DeleteSession(ctx context.Context, id string) error {
	if err := uc.store.Delete(id); err != nil {
		return err
	}

	uc.recorder.SessionDeleted(ctx, id)
	ctxzap.Info(ctx, "session deleted", zap.String("session_id", id))
	return nil
}

// PeekNextQuestion returns the question at the session's cursor together with
// the progress indicator, or nil once the session is complete. Read-only.
func (uc *Usecase) PeekNextQuestion(s *Session) *entity.QuestionDTO {
	s.mu.Lock()
	defer s.mu.Unlock()
	return peekLocked(s)
}

func peekLocked(s *Session) *entity.QuestionDTO {
	if s.completed {
		return nil
	}

	q := catalog.At(s.cursor)
	options := []string{}
	if q.Kind == catalog.KindEnumerated {
		options = q.Enumerated.Options
	}

	return &entity.QuestionDTO{
		Field:    q.Field,
		Question: q.Prompt,
		Type:     string(q.Kind),
		Options:  options,
		Progress: fmt.Sprintf("%d/%d", s.cursor+1, catalog.Len()),
	}
}

// SubmitAnswer validates rawAnswer against the field at the session cursor.
// The supplied fieldID must name that exact field; answering out of order is
// an error, not a rejection. On acceptance the canonical value is stored and
// the cursor advances; completion is set in the same critical section as the
// final advance. On rejection nothing changes.
func (uc *Usecase) SubmitAnswer(ctx context.Context, s *Session, fieldID, rawAnswer string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return Outcome{}, fmt.Errorf("%w: %s", entity.ErrSessionComplete, s.ID)
	}

	current := catalog.At(s.cursor)
	if fieldID != current.Field {
		return Outcome{}, fmt.Errorf("%w: got %q, expected %q", entity.ErrWrongField, fieldID, current.Field)
	}

	return uc.answerLocked(ctx, s, current, rawAnswer), nil
}

// submitMessage is the peek-validate-advance composite behind HandleMessage.
// The completion check, the patient transcript append and the cursor read all
// happen in one critical section, so a concurrent message cannot complete the
// session between the check and the read.
func (uc *Usecase) submitMessage(ctx context.Context, s *Session, message string) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return Outcome{}, fmt.Errorf("%w: %s", entity.ErrSessionComplete, s.ID)
	}

	entry := entity.TranscriptEntry{
		Role:      entity.RolePatient,
		Text:      message,
		Timestamp: time.Now(),
	}
	s.transcript = append(s.transcript, entry)
	uc.recorder.MessageAppended(ctx, s.ID, entry)

	return uc.answerLocked(ctx, s, catalog.At(s.cursor), message), nil
}

// answerLocked validates and applies one answer. Caller holds s.mu and has
// checked that the session is not complete.
func (uc *Usecase) answerLocked(ctx context.Context, s *Session, current catalog.QuestionSpec, rawAnswer string) Outcome {
	value, err := catalog.Validate(current, rawAnswer)
	if err != nil {
		ctxzap.Debug(ctx, "answer rejected",
			zap.String("session_id", s.ID),
			zap.String("field", current.Field),
			zap.Error(err),
		)
		return Outcome{Reason: err, Hint: catalog.Hint(current)}
	}

	s.answers[current.Field] = value
	s.order = append(s.order, current.Field)
	s.cursor++
	if s.cursor == catalog.Len() {
		s.completed = true
	}

	ctxzap.Debug(ctx, "answer accepted",
		zap.String("session_id", s.ID),
		zap.String("field", current.Field),
		zap.Int("cursor", s.cursor),
		zap.Bool("completed", s.completed),
	)

	return Outcome{Accepted: true}
}

// AppendTranscript appends one transcript entry, timestamped at append time.
func (uc *Usecase) AppendTranscript(ctx context.Context, s *Session, role entity.SpeakerRole, text string) {
	entry := entity.TranscriptEntry{
		Role:      role,
		Text:      text,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	s.transcript = append(s.transcript, entry)
	s.mu.Unlock()

	uc.recorder.MessageAppended(ctx, s.ID, entry)
}

// StartConversation creates a fresh session, greets the patient and returns
// the first question.
func (uc *Usecase) StartConversation(ctx context.Context, req *entity.StartConversationRequest) (*entity.StartConversationResponse, error) {
	session, err := uc.CreateSession(ctx, uuid.New().String())
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	uc.recorder.SessionStarted(ctx, session.ID, req)

	next := uc.PeekNextQuestion(session)
	uc.AppendTranscript(ctx, session, entity.RoleAgent, greeting)
	uc.AppendTranscript(ctx, session, entity.RoleAgent, next.Question)

	return &entity.StartConversationResponse{
		SessionID:    session.ID,
		Message:      greeting,
		NextQuestion: next,
	}, nil
}

// HandleMessage processes one patient message: it records the message,
// validates it against the current question and either re-prompts, asks the
// next question, or (after the final answer) invokes the diagnosis and
// appends the assessment to the transcript.
//
// If the prediction collaborator is unavailable the error is returned and the
// session stays complete, so the caller may retry without re-asking anything.
func (uc *Usecase) HandleMessage(ctx context.Context, sessionID, message string) (*entity.MessageResponse, error) {
	session, err := uc.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.String("session_id", sessionID)))

	outcome, err := uc.submitMessage(ctx, session, message)
	if err != nil {
		if errors.Is(err, entity.ErrSessionComplete) {
			return uc.retryDiagnosis(ctx, session)
		}
		return nil, err
	}

	if !outcome.Accepted {
		uc.AppendTranscript(ctx, session, entity.RoleAgent, outcome.Hint)
		return &entity.MessageResponse{
			SessionID:    sessionID,
			AgentMessage: outcome.Hint,
			NextQuestion: uc.PeekNextQuestion(session),
			History:      session.Transcript(),
		}, nil
	}

	if session.Completed() {
		return uc.finishConversation(ctx, session)
	}

	next := uc.PeekNextQuestion(session)
	agentMessage := fmt.Sprintf("%s %s", acknowledgment, next.Question)
	uc.AppendTranscript(ctx, session, entity.RoleAgent, agentMessage)

	return &entity.MessageResponse{
		SessionID:    sessionID,
		AgentMessage: agentMessage,
		NextQuestion: next,
		History:      session.Transcript(),
	}, nil
}

// Diagnose runs the diagnosis invoker for a completed session. The result is
// cached on the session so the external model is called at most once; retries
// only happen after a failed call. Concurrent callers are serialized on
// diagMu rather than the session lock, so a slow model call does not block
// session reads.
func (uc *Usecase) Diagnose(ctx context.Context, s *Session) (*entity.DiagnosisResult, error) {
	if !s.Completed() {
		return nil, fmt.Errorf("%w: %s", entity.ErrSessionIncomplete, s.ID)
	}

	s.diagMu.Lock()
	defer s.diagMu.Unlock()

	s.mu.Lock()
	cached := s.result
	s.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	result, err := uc.diagnosis.Diagnose(ctx, s.CollectedData())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.result = result
	s.mu.Unlock()

	return result, nil
}

func (uc *Usecase) finishConversation(ctx context.Context, session *Session) (*entity.MessageResponse, error) {
	result, err := uc.Diagnose(ctx, session)
	if err != nil {
		ctxzap.Error(ctx, "diagnosis failed, session preserved for retry", zap.Error(err))
		return nil, err
	}

	assessment := uc.diagnosis.FormatAssessment(result)
	uc.AppendTranscript(ctx, session, entity.RoleAgent, assessment)
	uc.recorder.SessionCompleted(ctx, session.ID, session.CollectedData(), result)

	ctxzap.Info(ctx, "conversation completed",
		zap.String("prediction", result.Prediction),
		zap.Float64("severity", result.SeverityRisk),
	)

	return &entity.MessageResponse{
		SessionID:    session.ID,
		AgentMessage: assessment,
		IsComplete:   true,
		Diagnosis:    result,
		History:      session.Transcript(),
	}, nil
}

// retryDiagnosis serves messages that arrive after completion: the interview
// cannot be reopened, but a failed prediction call may be retried.
func (uc *Usecase) retryDiagnosis(ctx context.Context, session *Session) (*entity.MessageResponse, error) {
	result, err := uc.Diagnose(ctx, session)
	if err != nil {
		return nil, err
	}

	assessment := uc.diagnosis.FormatAssessment(result)
	return &entity.MessageResponse{
		SessionID:    session.ID,
		AgentMessage: assessment,
		IsComplete:   true,
		Diagnosis:    result,
		History:      session.Transcript(),
	}, nil
}

// Report renders the final assessment text for a completed session.
func (uc *Usecase) Report(ctx context.Context, sessionID string) (string, error) {
	session, err := uc.store.Get(sessionID)
	if err != nil {
		return "", err
	}

	result, err := uc.Diagnose(ctx, session)
	if err != nil {
		return "", err
	}

	return uc.diagnosis.FormatAssessment(result), nil
}

// State returns the read model of a session for the get-session endpoint.
func (uc *Usecase) State(ctx context.Context, sessionID string) (*entity.ConversationStateResponse, error) {
	session, err := uc.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	return &entity.ConversationStateResponse{
		SessionID:     session.ID,
		CreatedAt:     session.CreatedAt,
		IsComplete:    session.Completed(),
		CollectedData: session.CollectedData(),
		History:       session.Transcript(),
	}, nil
}
