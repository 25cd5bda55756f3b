package keyboard

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kigali-health/screening-backend/internal/entity"
)

// optionsPerRow keeps long option lists (complications have eight entries)
// readable on narrow screens.
const optionsPerRow = 2

// Builder creates reply keyboards for screening questions
type Builder struct{}

// NewBuilder creates a keyboard builder
func NewBuilder() *Builder {
	return &Builder{}
}

// ForQuestion returns a one-time reply keyboard with the question's options,
// or a keyboard removal for free-form numeric questions.
func (b *Builder) ForQuestion(q *entity.QuestionDTO) interface{} {
	if q == nil || len(q.Options) == 0 {
		return tgbotapi.NewRemoveKeyboard(false)
	}

	var rows [][]tgbotapi.KeyboardButton
	var row []tgbotapi.KeyboardButton
	for _, option := range q.Options {
		row = append(row, tgbotapi.NewKeyboardButton(option))
		if len(row) == optionsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	keyboard := tgbotapi.NewReplyKeyboard(rows...)
	keyboard.OneTimeKeyboard = true
	return keyboard
}

// Remove clears any previously shown keyboard.
func (b *Builder) Remove() interface{} {
	return tgbotapi.NewRemoveKeyboard(false)
}
