package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/entity"
	"github.com/kigali-health/screening-backend/internal/pkg/formatter"
	"github.com/kigali-health/screening-backend/internal/pkg/logger"
)

type Handler struct {
	usecase    ConversationUsecase
	formatters *formatter.Factory
}

func NewHandler(usecase ConversationUsecase, formatters *formatter.Factory) *Handler {
	return &Handler{
		usecase:    usecase,
		formatters: formatters,
	}
}

// StartConversation handles POST /conversation/start - Begin a new screening
func (h *Handler) StartConversation(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "StartConversation")

	// An empty body is allowed: patient details are optional.
	var req entity.StartConversationRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}

	resp, err := h.usecase.StartConversation(ctx, &req)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "conversation started", zap.String("session_id", resp.SessionID))
	h.respondJSON(w, http.StatusCreated, resp)
}

// SendMessage handles POST /conversation/message - Submit a patient message
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "SendMessage")

	var req entity.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if req.SessionID == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "session_id is required", entity.ErrMissingField)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		h.respondError(ctx, w, http.StatusBadRequest, "message is required", entity.ErrMissingField)
		return
	}

	ctx = logger.AddFields(ctx, zap.String("session_id", req.SessionID))

	resp, err := h.usecase.HandleMessage(ctx, req.SessionID, req.Message)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, resp)
}

// GetConversation handles GET /conversation/{id} - Inspect session state
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	ctx = logger.AddFields(ctx,
		zap.String("session_id", sessionID),
		zap.String("action", "GetConversation"),
	)

	state, err := h.usecase.State(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, state)
}

// DeleteConversation handles DELETE /conversation/{id} - End a session
func (h *Handler) DeleteConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	ctx = logger.AddFields(ctx,
		zap.String("session_id", sessionID),
		zap.String("action", "DeleteConversation"),
	)

	if err := h.usecase.DeleteSession(ctx, sessionID); err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	ctxzap.Info(ctx, "conversation deleted")
	h.respondJSON(w, http.StatusOK, map[string]string{
		"message": "session ended successfully",
	})
}

// GetReport handles GET /conversation/{id}/report - Export the assessment
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionID := chi.URLParam(r, "id")

	ctx = logger.AddFields(ctx,
		zap.String("session_id", sessionID),
		zap.String("action", "GetReport"),
	)

	formatParam := r.URL.Query().Get("format")
	if formatParam == "" {
		formatParam = string(entity.FormatMarkdown)
	}

	format := entity.ResultFormat(formatParam)
	if !format.IsValid() {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid format parameter",
			fmt.Errorf("%w: format must be one of: markdown, pdf, docx", entity.ErrInvalidParameter))
		return
	}

	report, err := h.usecase.Report(ctx, sessionID)
	if err != nil {
		h.handleUsecaseError(ctx, w, err)
		return
	}

	fmtr, err := h.formatters.Create(format)
	if err != nil {
		h.respondError(ctx, w, http.StatusNotImplemented, "format not implemented", err)
		return
	}

	body, err := fmtr.Format(report)
	if err != nil {
		h.respondError(ctx, w, http.StatusInternalServerError, "failed to format report", err)
		return
	}

	ctxzap.Info(ctx, "report exported", zap.String("format", string(format)))
	w.Header().Set("Content-Type", fmtr.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"screening-%s%s\"", sessionID, fmtr.FileExtension()))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Helper methods
func (h *Handler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) respondError(ctx context.Context, w http.ResponseWriter, status int, message string, err error) {
	ctxzap.Error(ctx, message, zap.Error(err))
	h.respondJSON(w, status, entity.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	})
}

func (h *Handler) handleUsecaseError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, entity.ErrSessionNotFound) || errors.Is(err, entity.ErrPatientNotFound) || errors.Is(err, entity.ErrRecordNotFound) {
		h.respondError(ctx, w, http.StatusNotFound, "resource not found", err)
	} else if errors.Is(err, entity.ErrMissingField) || errors.Is(err, entity.ErrInvalidParameter) || errors.Is(err, entity.ErrWrongField) {
		h.respondError(ctx, w, http.StatusBadRequest, "invalid parameter", err)
	} else if errors.Is(err, entity.ErrSessionComplete) || errors.Is(err, entity.ErrSessionIncomplete) || errors.Is(err, entity.ErrDuplicateSession) {
		h.respondError(ctx, w, http.StatusConflict, "invalid session state", err)
	} else if errors.Is(err, entity.ErrPredictionUnavailable) {
		h.respondError(ctx, w, http.StatusBadGateway, "prediction service unavailable", err)
	} else {
		h.respondError(ctx, w, http.StatusInternalServerError, "internal server error", err)
	}
}
