package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// MessageRepository defines the interface for transcript persistence
type MessageRepository interface {
	AddMessage(ctx context.Context, sessionID string, role entity.SpeakerRole, text string) error
	GetConversation(ctx context.Context, sessionID string) ([]entity.TranscriptEntry, error)
}

var _ MessageRepository = &MessagePostgres{}

// MessagePostgres implements MessageRepository using PostgreSQL
type MessagePostgres struct {
	db *pgxpool.Pool
}

func NewMessagePostgres(db *pgxpool.Pool) *MessagePostgres {
	return &MessagePostgres{db: db}
}

func (r *MessagePostgres) AddMessage(ctx context.Context, sessionID string, role entity.SpeakerRole, text string) error {
	sessID, err := uuid.Parse(sessionID)
	if err != nil {
		return fmt.Errorf("invalid session ID: %w", err)
	}

	// Sequence numbers are allocated in the insert so concurrent appends from
	// the same session never collide.
	const query = `
		INSERT INTO conversation_message (message_id, session_id, sender_type, message_text, sequence_number)
		SELECT $1, $2, $3, $4, COALESCE(MAX(sequence_number), 0) + 1
		FROM conversation_message
		WHERE session_id = $2`

	if _, err := r.db.Exec(ctx, query, uuid.New(), sessID, string(role), text); err != nil {
		return fmt.Errorf("add conversation message: %w", err)
	}

	return nil
}

func (r *MessagePostgres) GetConversation(ctx context.Context, sessionID string) ([]entity.TranscriptEntry, error) {
	sessID, err := uuid.Parse(sessionID)
	if err != nil {
		return nil, fmt.Errorf("invalid session ID: %w", err)
	}

	const query = `
		SELECT sender_type, message_text, created_at
		FROM conversation_message
		WHERE session_id = $1
		ORDER BY sequence_number`

	rows, err := r.db.Query(ctx, query, sessID)
	if err != nil {
		return nil, fmt.Errorf("get conversation: %w", err)
	}
	defer rows.Close()

	var entries []entity.TranscriptEntry
	for rows.Next() {
		var e entity.TranscriptEntry
		if err := rows.Scan(&e.Role, &e.Text, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan conversation message: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversation messages: %w", err)
	}

	return entries, nil
}
