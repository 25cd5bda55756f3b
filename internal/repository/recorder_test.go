package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kigali-health/screening-backend/internal/entity"
)

func TestRiskLevelFor(t *testing.T) {
	tests := []struct {
		name     string
		severity float64
		want     string
	}{
		{"zero", 0, riskLevelLow},
		{"at moderate threshold", 30.0, riskLevelLow},
		{"just above moderate", 30.1, riskLevelModerate},
		{"at high threshold", 60.0, riskLevelModerate},
		{"just above high", 60.1, riskLevelHigh},
		{"clamped maximum", 100.0, riskLevelHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, riskLevelFor(tt.severity))
		})
	}
}

func TestCompletionStatus(t *testing.T) {
	// High-risk screenings land in the clinician review queue; the rest are
	// closed as completed.
	assert.Equal(t, entity.SessionStatusAwaitingReview, completionStatus(riskLevelHigh))
	assert.Equal(t, entity.SessionStatusCompleted, completionStatus(riskLevelModerate))
	assert.Equal(t, entity.SessionStatusCompleted, completionStatus(riskLevelLow))
}
