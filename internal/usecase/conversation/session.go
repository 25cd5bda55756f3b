package conversation

import (
	"sync"
	"time"

	"github.com/kigali-health/screening-backend/internal/catalog"
	"github.com/kigali-health/screening-backend/internal/entity"
)

// Session tracks one consultation's progress through the interview catalog.
//
// The cursor always equals the number of successfully validated answers, and
// completed holds exactly when the cursor has reached the catalog length.
// All mutation goes through the usecase operations, serialized by mu;
// different sessions are independent.
type Session struct {
	mu sync.Mutex
	// diagMu serializes the diagnosis invocation so the model is called at
	// most once even when completion messages race.
	diagMu sync.Mutex

	ID        string
	CreatedAt time.Time

	transcript []entity.TranscriptEntry
	answers    map[string]any
	order      []string
	cursor     int
	completed  bool
	result     *entity.DiagnosisResult
}

func newSession(id string) *Session {
	return &Session{
		ID:        id,
		CreatedAt: time.Now(),
		answers:   make(map[string]any, catalog.Len()),
		order:     make([]string, 0, catalog.Len()),
	}
}

// Completed reports whether every catalog field has a validated answer.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// Cursor returns the index of the next field awaiting an answer.
func (s *Session) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Transcript returns a copy of the conversation history in append order.
func (s *Session) Transcript() []entity.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.TranscriptEntry, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// CollectedData returns a copy of the accumulated field -> value mapping. It
// is only fully populated once the session is complete.
func (s *Session) CollectedData() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// CollectedFields returns the answered field identifiers in question order.
func (s *Session) CollectedFields() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
