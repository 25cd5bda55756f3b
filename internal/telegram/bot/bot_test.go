package bot

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kigali-health/screening-backend/internal/entity"
)

func TestStaleSession(t *testing.T) {
	tests := []struct {
		name  string
		state *entity.ConversationStateResponse
		err   error
		want  bool
	}{
		{
			name:  "active interview",
			state: &entity.ConversationStateResponse{SessionID: "sess-1", IsComplete: false},
			want:  false,
		},
		{
			name:  "finished interview",
			state: &entity.ConversationStateResponse{SessionID: "sess-1", IsComplete: true},
			want:  true,
		},
		{
			name: "evicted session",
			err:  fmt.Errorf("%w: sess-1", entity.ErrSessionNotFound),
			want: true,
		},
		{
			name: "transient lookup failure keeps binding",
			err:  errors.New("temporary failure"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, staleSession(tt.state, tt.err))
		})
	}
}

func TestSessionBinding(t *testing.T) {
	b := &Bot{sessions: make(map[int64]string)}

	_, ok := b.sessionFor(42)
	assert.False(t, ok)

	b.bindSession(42, "sess-1")
	id, ok := b.sessionFor(42)
	assert.True(t, ok)
	assert.Equal(t, "sess-1", id)

	b.unbindSession(42)
	_, ok = b.sessionFor(42)
	assert.False(t, ok)
}
