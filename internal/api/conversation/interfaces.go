package conversation

import (
	"context"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// ConversationUsecase is the screening flow consumed by the HTTP handlers.
type ConversationUsecase interface {
	StartConversation(ctx context.Context, req *entity.StartConversationRequest) (*entity.StartConversationResponse, error)
	HandleMessage(ctx context.Context, sessionID, message string) (*entity.MessageResponse, error)
	State(ctx context.Context, sessionID string) (*entity.ConversationStateResponse, error)
	Report(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, id string) error
}
