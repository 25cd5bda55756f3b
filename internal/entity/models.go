package entity

import (
	"time"
)

type SessionStatus string

// Session status mirrors the lifecycle recorded in the persistence layer
const (
	SessionStatusActive         SessionStatus = "active"
	SessionStatusAwaitingReview SessionStatus = "awaiting_review"
	SessionStatusCompleted      SessionStatus = "completed"
)

type SpeakerRole string

const (
	RoleAgent   SpeakerRole = "agent"
	RolePatient SpeakerRole = "patient"
)

// TranscriptEntry is one line of the consultation transcript. Entries are
// immutable once appended.
type TranscriptEntry struct {
	Role      SpeakerRole `json:"role"`
	Text      string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// Patient is the registry record for a screened person.
type Patient struct {
	ID                string    `json:"patient_id"`
	FullName          string    `json:"full_name"`
	PhoneNumber       string    `json:"phone_number"`
	PreferredLanguage string    `json:"preferred_language"`
	Location          *string   `json:"location,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
}

// ScreeningRecord is the durable session row written by the persistence
// collaborator. It is distinct from the in-memory ConversationSession owned
// by the state machine.
type ScreeningRecord struct {
	ID        string        `json:"session_id"`
	PatientID *string       `json:"patient_id,omitempty"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// SymptomEntry is one structured answer persisted for clinical review.
type SymptomEntry struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Field     string    `json:"field"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

// Prescription is one recommendation line persisted with the final diagnosis.
type Prescription struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	LineNumber int       `json:"line_number"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}
