package conversation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kigali-health/screening-backend/internal/entity"
	"github.com/kigali-health/screening-backend/internal/pkg/formatter"
)

type stubUsecase struct {
	startResp   *entity.StartConversationResponse
	messageResp *entity.MessageResponse
	stateResp   *entity.ConversationStateResponse
	report      string
	err         error
}

func (s *stubUsecase) StartConversation(context.Context, *entity.StartConversationRequest) (*entity.StartConversationResponse, error) {
	return s.startResp, s.err
}

func (s *stubUsecase) HandleMessage(context.Context, string, string) (*entity.MessageResponse, error) {
	return s.messageResp, s.err
}

func (s *stubUsecase) State(context.Context, string) (*entity.ConversationStateResponse, error) {
	return s.stateResp, s.err
}

func (s *stubUsecase) Report(context.Context, string) (string, error) {
	return s.report, s.err
}

func (s *stubUsecase) DeleteSession(context.Context, string) error {
	return s.err
}

func setupRouter(uc ConversationUsecase) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(uc, formatter.NewFactory()))
	return r
}

func TestStartConversationEndpoint(t *testing.T) {
	uc := &stubUsecase{
		startResp: &entity.StartConversationResponse{
			SessionID: "sess-1",
			Message:   "Hello!",
			NextQuestion: &entity.QuestionDTO{
				Field:    "Age",
				Question: "What is your age?",
				Type:     "number",
				Progress: "1/17",
			},
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/conversation/start", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	setupRouter(uc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp entity.StartConversationResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
	require.NotNil(t, resp.NextQuestion)
	assert.Equal(t, "1/17", resp.NextQuestion.Progress)
}

func TestStartConversationAcceptsEmptyBody(t *testing.T) {
	uc := &stubUsecase{
		startResp: &entity.StartConversationResponse{SessionID: "sess-1"},
	}

	req := httptest.NewRequest(http.MethodPost, "/conversation/start", nil)
	rec := httptest.NewRecorder()
	setupRouter(uc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSendMessageEndpoint(t *testing.T) {
	uc := &stubUsecase{
		messageResp: &entity.MessageResponse{
			SessionID:    "sess-1",
			AgentMessage: "Got it. What is your gender? (Male/Female)",
		},
	}

	body := `{"session_id":"sess-1","message":"45"}`
	req := httptest.NewRequest(http.MethodPost, "/conversation/message", strings.NewReader(body))
	rec := httptest.NewRecorder()
	setupRouter(uc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.AgentMessage, "Got it.")
}

func TestSendMessageValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing session id", `{"message":"45"}`},
		{"missing message", `{"session_id":"sess-1"}`},
		{"blank message", `{"session_id":"sess-1","message":"   "}`},
		{"malformed json", `{"session_id":`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/conversation/message", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			setupRouter(&stubUsecase{}).ServeHTTP(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"session not found", entity.ErrSessionNotFound, http.StatusNotFound},
		{"wrong field", entity.ErrWrongField, http.StatusBadRequest},
		{"session complete", entity.ErrSessionComplete, http.StatusConflict},
		{"prediction unavailable", entity.ErrPredictionUnavailable, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &stubUsecase{err: tt.err}
			body := `{"session_id":"sess-1","message":"45"}`
			req := httptest.NewRequest(http.MethodPost, "/conversation/message", strings.NewReader(body))
			rec := httptest.NewRecorder()
			setupRouter(uc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var resp entity.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestGetConversationEndpoint(t *testing.T) {
	uc := &stubUsecase{
		stateResp: &entity.ConversationStateResponse{
			SessionID:     "sess-1",
			IsComplete:    false,
			CollectedData: map[string]any{"Age": 45},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/conversation/sess-1", nil)
	rec := httptest.NewRecorder()
	setupRouter(uc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp entity.ConversationStateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "sess-1", resp.SessionID)
}

func TestDeleteConversationEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/conversation/sess-1", nil)
	rec := httptest.NewRecorder()
	setupRouter(&stubUsecase{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestGetReportEndpoint(t *testing.T) {
	uc := &stubUsecase{report: "assessment body"}

	req := httptest.NewRequest(http.MethodGet, "/conversation/sess-1/report", nil)
	rec := httptest.NewRecorder()
	setupRouter(uc).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "screening-sess-1.md")
	assert.Contains(t, rec.Body.String(), "assessment body")
}

func TestGetReportInvalidFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/conversation/sess-1/report?format=xlsx", nil)
	rec := httptest.NewRecorder()
	setupRouter(&stubUsecase{report: "x"}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
