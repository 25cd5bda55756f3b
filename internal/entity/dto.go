package entity

import "time"

// QuestionDTO is the question payload returned to clients, including the
// "n/total" progress indicator.
type QuestionDTO struct {
	Field    string   `json:"field"`
	Question string   `json:"question"`
	Type     string   `json:"type"`
	Options  []string `json:"options"`
	Progress string   `json:"progress"`
}

type StartConversationRequest struct {
	PatientName     *string `json:"patient_name,omitempty"`
	PatientPhone    *string `json:"patient_phone,omitempty"`
	PatientLanguage *string `json:"patient_language,omitempty"`
	PatientLocation *string `json:"patient_location,omitempty"`
}

type StartConversationResponse struct {
	SessionID    string       `json:"session_id"`
	Message      string       `json:"message"`
	NextQuestion *QuestionDTO `json:"next_question"`
}

type MessageRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

type MessageResponse struct {
	SessionID    string            `json:"session_id"`
	AgentMessage string            `json:"agent_message"`
	NextQuestion *QuestionDTO      `json:"next_question,omitempty"`
	IsComplete   bool              `json:"is_complete"`
	Diagnosis    *DiagnosisResult  `json:"diagnosis,omitempty"`
	History      []TranscriptEntry `json:"conversation_history"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type ConversationStateResponse struct {
	SessionID     string            `json:"session_id"`
	CreatedAt     time.Time         `json:"created_at"`
	IsComplete    bool              `json:"is_complete"`
	CollectedData map[string]any    `json:"collected_data"`
	History       []TranscriptEntry `json:"conversation_history"`
}
