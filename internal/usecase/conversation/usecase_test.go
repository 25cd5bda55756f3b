package conversation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/catalog"
	"github.com/kigali-health/screening-backend/internal/entity"
)

// orderedAnswers walks the full interview, one valid answer per question.
var orderedAnswers = []string{
	"45", "Male", "Urban", "Low", "Tap", "Proper", "Yes", "No",
	"10", "Diarrhea", "Headache", "Yes", "None", "Received", "No",
	"Moderate", "None",
}

type stubInvoker struct {
	mu     sync.Mutex
	calls  int
	result *entity.DiagnosisResult
	err    error
}

func (s *stubInvoker) Diagnose(_ context.Context, _ map[string]any) (*entity.DiagnosisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubInvoker) FormatAssessment(_ *entity.DiagnosisResult) string {
	return "final assessment"
}

type stubRecorder struct {
	mu        sync.Mutex
	started   int
	appended  int
	completed int
	deleted   int
}

func (r *stubRecorder) SessionStarted(context.Context, string, *entity.StartConversationRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started++
}
func (r *stubRecorder) MessageAppended(context.Context, string, entity.TranscriptEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.appended++
}
func (r *stubRecorder) SessionCompleted(context.Context, string, map[string]any, *entity.DiagnosisResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed++
}
func (r *stubRecorder) SessionDeleted(context.Context, string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted++
}

func newTestUsecase(invoker *stubInvoker) (*Usecase, *stubRecorder) {
	recorder := &stubRecorder{}
	uc := NewUsecase(
		NewMemoryStore(time.Minute, time.Minute),
		invoker,
		recorder,
		zap.NewNop(),
	)
	return uc, recorder
}

func defaultResult() *entity.DiagnosisResult {
	return &entity.DiagnosisResult{
		Prediction: entity.LabelAcuteTyphoid,
		Probabilities: map[string]float64{
			entity.LabelAcuteTyphoid: 60.0,
			entity.LabelNoTyphoid:    40.0,
		},
		SeverityRisk:    37.44,
		Confidence:      60.0,
		Recommendations: []string{"Visit a healthcare facility for confirmation tests"},
	}
}

func TestStartConversation(t *testing.T) {
	uc, recorder := newTestUsecase(&stubInvoker{result: defaultResult()})

	resp, err := uc.StartConversation(context.Background(), &entity.StartConversationRequest{})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.SessionID)
	assert.Contains(t, resp.Message, "typhoid")
	require.NotNil(t, resp.NextQuestion)
	assert.Equal(t, catalog.FieldAge, resp.NextQuestion.Field)
	assert.Equal(t, "1/17", resp.NextQuestion.Progress)
	assert.Equal(t, 1, recorder.started)

	// Greeting and first question are both on the transcript.
	session, err := uc.GetSession(context.Background(), resp.SessionID)
	require.NoError(t, err)
	transcript := session.Transcript()
	require.Len(t, transcript, 2)
	assert.Equal(t, entity.RoleAgent, transcript[0].Role)
}

func TestSubmitAnswerRejectionLeavesStateUntouched(t *testing.T) {
	uc, _ := newTestUsecase(&stubInvoker{result: defaultResult()})
	ctx := context.Background()

	session, err := uc.CreateSession(ctx, "sess-1")
	require.NoError(t, err)

	outcome, err := uc.SubmitAnswer(ctx, session, catalog.FieldAge, "150")
	require.NoError(t, err)
	assert.False(t, outcome.Accepted)
	assert.ErrorIs(t, outcome.Reason, entity.ErrOutOfRange)
	assert.Contains(t, outcome.Hint, "What is your age?")
	assert.Equal(t, 0, session.Cursor())
	assert.Empty(t, session.CollectedFields())

	// The same question accepts a valid retry.
	outcome, err = uc.SubmitAnswer(ctx, session, catalog.FieldAge, "45")
	require.NoError(t, err)
	assert.True(t, outcome.Accepted)
	assert.Equal(t, 1, session.Cursor())
	assert.Equal(t, 45, session.CollectedData()[catalog.FieldAge])
}

func TestSubmitAnswerWrongField(t *testing.T) {
	uc, _ := newTestUsecase(&stubInvoker{result: defaultResult()})
	ctx := context.Background()

	session, err := uc.CreateSession(ctx, "sess-1")
	require.NoError(t, err)

	_, err = uc.SubmitAnswer(ctx, session, catalog.FieldGender, "Male")
	require.ErrorIs(t, err, entity.ErrWrongField)
	assert.Equal(t, 0, session.Cursor())
}

func TestSubmitAnswerCanonicalizesCase(t *testing.T) {
	uc, _ := newTestUsecase(&stubInvoker{result: defaultResult()})
	ctx := context.Background()

	session, err := uc.CreateSession(ctx, "sess-1")
	require.NoError(t, err)

	_, err = uc.SubmitAnswer(ctx, session, catalog.FieldAge, "45")
	require.NoError(t, err)

	outcome, err := uc.SubmitAnswer(ctx, session, catalog.FieldGender, "male")
	require.NoError(t, err)
	require.True(t, outcome.Accepted)
	assert.Equal(t, "Male", session.CollectedData()[catalog.FieldGender])
}

func TestFullInterviewCompletes(t *testing.T) {
	invoker := &stubInvoker{result: defaultResult()}
	uc, recorder := newTestUsecase(invoker)
	ctx := context.Background()

	start, err := uc.StartConversation(ctx, &entity.StartConversationRequest{})
	require.NoError(t, err)

	var last *entity.MessageResponse
	for i, answer := range orderedAnswers {
		last, err = uc.HandleMessage(ctx, start.SessionID, answer)
		require.NoError(t, err, "answer %d", i)

		if i < len(orderedAnswers)-1 {
			assert.False(t, last.IsComplete)
			require.NotNil(t, last.NextQuestion)
			assert.Contains(t, last.AgentMessage, "Got it.")
		}
	}

	assert.True(t, last.IsComplete)
	assert.Nil(t, last.NextQuestion)
	require.NotNil(t, last.Diagnosis)
	assert.Equal(t, entity.LabelAcuteTyphoid, last.Diagnosis.Prediction)
	assert.Equal(t, "final assessment", last.AgentMessage)
	assert.Equal(t, 1, invoker.calls)
	assert.Equal(t, 1, recorder.completed)

	session, err := uc.GetSession(ctx, start.SessionID)
	require.NoError(t, err)
	assert.True(t, session.Completed())
	assert.Equal(t, catalog.Len(), session.Cursor())
	assert.Len(t, session.CollectedFields(), catalog.Len())
}

func TestRejectedMessageReprompts(t *testing.T) {
	uc, _ := newTestUsecase(&stubInvoker{result: defaultResult()})
	ctx := context.Background()

	start, err := uc.StartConversation(ctx, &entity.StartConversationRequest{})
	require.NoError(t, err)

	resp, err := uc.HandleMessage(ctx, start.SessionID, "not a number")
	require.NoError(t, err)
	assert.False(t, resp.IsComplete)
	assert.Contains(t, resp.AgentMessage, "didn't quite understand")
	require.NotNil(t, resp.NextQuestion)
	assert.Equal(t, catalog.FieldAge, resp.NextQuestion.Field)
	assert.Equal(t, "1/17", resp.NextQuestion.Progress)
}

func TestMessageAfterCompletionReturnsAssessment(t *testing.T) {
	invoker := &stubInvoker{result: defaultResult()}
	uc, _ := newTestUsecase(invoker)
	ctx := context.Background()

	start, err := uc.StartConversation(ctx, &entity.StartConversationRequest{})
	require.NoError(t, err)

	for _, answer := range orderedAnswers {
		_, err = uc.HandleMessage(ctx, start.SessionID, answer)
		require.NoError(t, err)
	}

	resp, err := uc.HandleMessage(ctx, start.SessionID, "hello?")
	require.NoError(t, err)
	assert.True(t, resp.IsComplete)
	assert.Equal(t, "final assessment", resp.AgentMessage)

	// The cached result is reused; the model is never called twice.
	assert.Equal(t, 1, invoker.calls)
}

func TestConcurrentMessagesOnFinalQuestion(t *testing.T) {
	// Racing messages at the last question must never read past the catalog:
	// exactly one completes the interview, the rest are served the assessment.
	for i := 0; i < 200; i++ {
		invoker := &stubInvoker{result: defaultResult()}
		uc, recorder := newTestUsecase(invoker)
		ctx := context.Background()

		start, err := uc.StartConversation(ctx, &entity.StartConversationRequest{})
		require.NoError(t, err)

		for _, answer := range orderedAnswers[:len(orderedAnswers)-1] {
			_, err = uc.HandleMessage(ctx, start.SessionID, answer)
			require.NoError(t, err)
		}

		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				resp, err := uc.HandleMessage(ctx, start.SessionID, orderedAnswers[len(orderedAnswers)-1])
				assert.NoError(t, err)
				assert.True(t, resp.IsComplete)
			}()
		}
		wg.Wait()

		session, err := uc.GetSession(ctx, start.SessionID)
		require.NoError(t, err)
		assert.True(t, session.Completed())
		assert.Equal(t, catalog.Len(), session.Cursor())
		assert.Len(t, session.CollectedFields(), catalog.Len())
		assert.Equal(t, 1, invoker.calls)
		assert.Equal(t, 1, recorder.completed)
	}
}

func TestDiagnosisFailurePreservesSessionForRetry(t *testing.T) {
	invoker := &stubInvoker{err: entity.ErrPredictionUnavailable}
	uc, _ := newTestUsecase(invoker)
	ctx := context.Background()

	start, err := uc.StartConversation(ctx, &entity.StartConversationRequest{})
	require.NoError(t, err)

	for i, answer := range orderedAnswers {
		resp, err := uc.HandleMessage(ctx, start.SessionID, answer)
		if i < len(orderedAnswers)-1 {
			require.NoError(t, err)
			require.False(t, resp.IsComplete)
		} else {
			require.ErrorIs(t, err, entity.ErrPredictionUnavailable)
		}
	}

	// The session is complete and survives the failure.
	session, err := uc.GetSession(ctx, start.SessionID)
	require.NoError(t, err)
	assert.True(t, session.Completed())

	// Once the model recovers, the next message retries the diagnosis.
	invoker.err = nil
	invoker.result = defaultResult()
	resp, err := uc.HandleMessage(ctx, start.SessionID, "retry please")
	require.NoError(t, err)
	assert.True(t, resp.IsComplete)
	require.NotNil(t, resp.Diagnosis)
}

func TestDiagnoseRequiresCompletion(t *testing.T) {
	uc, _ := newTestUsecase(&stubInvoker{result: defaultResult()})
	ctx := context.Background()

	session, err := uc.CreateSession(ctx, "sess-1")
	require.NoError(t, err)

	_, err = uc.Diagnose(ctx, session)
	require.ErrorIs(t, err, entity.ErrSessionIncomplete)
}

func TestDeleteSession(t *testing.T) {
	uc, recorder := newTestUsecase(&stubInvoker{result: defaultResult()})
	ctx := context.Background()

	start, err := uc.StartConversation(ctx, &entity.StartConversationRequest{})
	require.NoError(t, err)

	require.NoError(t, uc.DeleteSession(ctx, start.SessionID))
	assert.Equal(t, 1, recorder.deleted)

	_, err = uc.HandleMessage(ctx, start.SessionID, "45")
	require.ErrorIs(t, err, entity.ErrSessionNotFound)

	require.ErrorIs(t, uc.DeleteSession(ctx, start.SessionID), entity.ErrSessionNotFound)
}

func TestState(t *testing.T) {
	uc, _ := newTestUsecase(&stubInvoker{result: defaultResult()})
	ctx := context.Background()

	start, err := uc.StartConversation(ctx, &entity.StartConversationRequest{})
	require.NoError(t, err)

	_, err = uc.HandleMessage(ctx, start.SessionID, "45")
	require.NoError(t, err)

	state, err := uc.State(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, start.SessionID, state.SessionID)
	assert.False(t, state.IsComplete)
	assert.Equal(t, 45, state.CollectedData[catalog.FieldAge])
	assert.NotEmpty(t, state.History)
}

func TestReport(t *testing.T) {
	uc, _ := newTestUsecase(&stubInvoker{result: defaultResult()})
	ctx := context.Background()

	start, err := uc.StartConversation(ctx, &entity.StartConversationRequest{})
	require.NoError(t, err)

	_, err = uc.Report(ctx, start.SessionID)
	require.ErrorIs(t, err, entity.ErrSessionIncomplete)

	for _, answer := range orderedAnswers {
		_, err = uc.HandleMessage(ctx, start.SessionID, answer)
		require.NoError(t, err)
	}

	report, err := uc.Report(ctx, start.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "final assessment", report)

	var notFound error
	_, notFound = uc.Report(ctx, "missing")
	require.True(t, errors.Is(notFound, entity.ErrSessionNotFound))
}
