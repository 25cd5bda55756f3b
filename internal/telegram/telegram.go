package telegram

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/config"
	"github.com/kigali-health/screening-backend/internal/telegram/bot"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot initializes the telegram bot with all dependencies
func NewBot(
	cfg *config.TelegramConfig,
	usecase bot.ScreeningUsecase,
	logger *zap.Logger,
) (Bot, error) {
	b, err := bot.New(cfg, usecase, logger)
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	logger.Info("telegram bot initialized successfully")

	return b, nil
}
