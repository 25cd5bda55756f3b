package entity

import "errors"

// Domain errors
var (
	// Session lifecycle errors
	ErrDuplicateSession = errors.New("session already exists")
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionComplete  = errors.New("session is already complete")
	ErrWrongField       = errors.New("answer does not target the current question")

	// Answer validation errors
	ErrNotANumber         = errors.New("answer is not a number")
	ErrOutOfRange         = errors.New("answer is out of the accepted range")
	ErrUnrecognizedOption = errors.New("answer does not match any accepted option")

	// Diagnosis errors
	ErrPredictionUnavailable = errors.New("prediction service unavailable")
	ErrSessionIncomplete     = errors.New("session has unanswered questions")

	// Persistence errors
	ErrPatientNotFound = errors.New("patient not found")
	ErrRecordNotFound  = errors.New("record not found")

	// Request validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidParameter = errors.New("invalid parameter")
)
