package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/config"
	"github.com/kigali-health/screening-backend/internal/entity"
	"github.com/kigali-health/screening-backend/internal/pkg/formatter"
	"github.com/kigali-health/screening-backend/internal/telegram/keyboard"
	"github.com/kigali-health/screening-backend/internal/telegram/middleware"
	"github.com/kigali-health/screening-backend/internal/telegram/render"
)

// ScreeningUsecase is the conversation flow consumed by the bot.
type ScreeningUsecase interface {
	StartConversation(ctx context.Context, req *entity.StartConversationRequest) (*entity.StartConversationResponse, error)
	HandleMessage(ctx context.Context, sessionID, message string) (*entity.MessageResponse, error)
	State(ctx context.Context, sessionID string) (*entity.ConversationStateResponse, error)
	Report(ctx context.Context, sessionID string) (string, error)
	DeleteSession(ctx context.Context, id string) error
}

// Bot represents the Telegram bot
type Bot struct {
	api        *tgbotapi.BotAPI
	cfg        *config.TelegramConfig
	usecase    ScreeningUsecase
	keyboard   *keyboard.Builder
	formatters *formatter.Factory
	logger     *zap.Logger

	loggingMW  *middleware.LoggingMiddleware
	recoveryMW *middleware.RecoveryMiddleware

	// sessions maps a chat to its active screening session. Bot state is
	// per-process; the durable record lives in the recorder's store.
	mu       sync.Mutex
	sessions map[int64]string

	updatesChan tgbotapi.UpdatesChannel
	stopChan    chan struct{}
	wg          sync.WaitGroup
}

// New creates a new Telegram bot
func New(
	cfg *config.TelegramConfig,
	usecase ScreeningUsecase,
	logger *zap.Logger,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}

	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	bot := &Bot{
		api:        api,
		cfg:        cfg,
		usecase:    usecase,
		keyboard:   keyboard.NewBuilder(),
		formatters: formatter.NewFactory(),
		logger:     logger,
		sessions:   make(map[int64]string),
		stopChan:   make(chan struct{}),
	}

	bot.loggingMW = middleware.NewLoggingMiddleware(logger)
	bot.recoveryMW = middleware.NewRecoveryMiddleware(logger, api)

	return bot, nil
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout

	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)

	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	close(b.stopChan)
	b.api.StopReceivingUpdates()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

// processUpdates processes incoming updates
func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update := <-b.updatesChan:
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer b.wg.Done()
				b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
					b.recoveryMW.Handle(u2, b.handleUpdate)
				})
			}(update)
		}
	}
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil {
		return
	}

	ctx := ctxzap.ToContext(context.Background(), b.logger.With(
		zap.Int64("chat_id", update.Message.Chat.ID),
	))

	if update.Message.IsCommand() {
		b.handleCommand(ctx, update.Message)
		return
	}

	b.handleAnswer(ctx, update.Message)
}

func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()

	ctxzap.Info(ctx, "command received",
		zap.String("command", command),
		zap.Int64("user_id", message.From.ID),
	)

	switch command {
	case "start":
		b.sendMessage(message.Chat.ID, render.MsgWelcome, nil)
	case "help":
		b.sendMessage(message.Chat.ID, render.MsgHelp, nil)
	case "screen":
		b.handleScreenCommand(ctx, message)
	case "report":
		b.handleReportCommand(ctx, message)
	case "cancel":
		b.handleCancelCommand(ctx, message)
	default:
		b.sendError(message.Chat.ID, "❌ Unknown command. Send /help for the command list.")
	}
}

// handleScreenCommand begins a new screening conversation
func (b *Bot) handleScreenCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if sessionID, ok := b.sessionFor(chatID); ok {
		state, err := b.usecase.State(ctx, sessionID)
		if !staleSession(state, err) {
			b.sendMessage(chatID, render.MsgSessionInProgress, nil)
			return
		}
		// Finished or evicted session; discard the binding and start fresh.
		b.unbindSession(chatID)
	}

	name := message.From.FirstName
	phone := fmt.Sprintf("tg:%d", message.From.ID)
	resp, err := b.usecase.StartConversation(ctx, &entity.StartConversationRequest{
		PatientName:  &name,
		PatientPhone: &phone,
	})
	if err != nil {
		ctxzap.Error(ctx, "failed to start screening", zap.Error(err))
		b.sendError(chatID, render.ErrGeneric)
		return
	}

	b.bindSession(chatID, resp.SessionID)

	b.sendMessage(chatID, resp.Message, nil)
	b.sendQuestion(chatID, resp.NextQuestion)
}

// handleAnswer forwards a patient message to the active screening session
func (b *Bot) handleAnswer(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	sessionID, ok := b.sessionFor(chatID)
	if !ok {
		b.sendMessage(chatID, render.MsgNoActiveSession, nil)
		return
	}

	resp, err := b.usecase.HandleMessage(ctx, sessionID, message.Text)
	if err != nil {
		if errors.Is(err, entity.ErrSessionNotFound) {
			// Session expired between messages; drop the stale binding.
			b.unbindSession(chatID)
			b.sendMessage(chatID, render.MsgNoActiveSession, b.keyboard.Remove())
			return
		}
		ctxzap.Error(ctx, "failed to handle message",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		b.sendError(chatID, render.ErrGeneric)
		return
	}

	if resp.IsComplete {
		b.sendMessage(chatID, resp.AgentMessage, b.keyboard.Remove())
		return
	}

	// The agent message already carries the question to answer, whether the
	// answer was accepted or rejected.
	b.sendMessage(chatID, render.AgentReply(resp.NextQuestion, resp.AgentMessage), b.keyboard.ForQuestion(resp.NextQuestion))
}

// handleReportCommand resends the final assessment as a markdown document
func (b *Bot) handleReportCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	sessionID, ok := b.sessionFor(chatID)
	if !ok {
		b.sendMessage(chatID, render.MsgNoActiveSession, nil)
		return
	}

	report, err := b.usecase.Report(ctx, sessionID)
	if err != nil {
		if errors.Is(err, entity.ErrSessionNotFound) {
			b.unbindSession(chatID)
			b.sendMessage(chatID, render.MsgNoActiveSession, nil)
			return
		}
		ctxzap.Warn(ctx, "report not available",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
		b.sendMessage(chatID, render.MsgReportNotReady, nil)
		return
	}

	fmtr, err := b.formatters.Create(entity.FormatMarkdown)
	if err != nil {
		b.sendError(chatID, render.ErrGeneric)
		return
	}

	body, err := fmtr.Format(report)
	if err != nil {
		ctxzap.Error(ctx, "failed to format report", zap.Error(err))
		b.sendError(chatID, render.ErrGeneric)
		return
	}

	filename := fmt.Sprintf("screening-%s%s", sessionID, fmtr.FileExtension())
	if err := b.sendDocument(chatID, filename, body); err != nil {
		ctxzap.Error(ctx, "failed to send report", zap.Error(err))
		b.sendError(chatID, render.ErrGeneric)
	}
}

// handleCancelCommand ends the active screening
func (b *Bot) handleCancelCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	sessionID, ok := b.sessionFor(chatID)
	if !ok {
		b.sendMessage(chatID, render.MsgNoActiveSession, nil)
		return
	}

	if err := b.usecase.DeleteSession(ctx, sessionID); err != nil {
		ctxzap.Error(ctx, "failed to delete session",
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}

	b.unbindSession(chatID)
	b.sendMessage(chatID, render.MsgSessionFinished, b.keyboard.Remove())
}

func (b *Bot) sendQuestion(chatID int64, q *entity.QuestionDTO) {
	if q == nil {
		return
	}
	b.sendMessage(chatID, render.Question(q), b.keyboard.ForQuestion(q))
}

// staleSession reports whether a chat's binding no longer refers to an
// answerable interview: the session was evicted, or it already finished.
// A finished binding is kept until /screen or /report so the assessment can
// still be resent, but it must not block a new screening.
func staleSession(state *entity.ConversationStateResponse, err error) bool {
	if errors.Is(err, entity.ErrSessionNotFound) {
		return true
	}
	return err == nil && state.IsComplete
}

func (b *Bot) sessionFor(chatID int64) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.sessions[chatID]
	return id, ok
}

func (b *Bot) bindSession(chatID int64, sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[chatID] = sessionID
}

func (b *Bot) unbindSession(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, chatID)
}

// sendMessage sends a message to chat
func (b *Bot) sendMessage(chatID int64, text string, replyMarkup interface{}) {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

// sendError sends an error message
func (b *Bot) sendError(chatID int64, text string) {
	b.sendMessage(chatID, text, nil)
}

// sendDocument sends a document
func (b *Bot) sendDocument(chatID int64, filename string, data []byte) error {
	doc := tgbotapi.FileBytes{
		Name:  filename,
		Bytes: data,
	}

	msg := tgbotapi.NewDocument(chatID, doc)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send document: %w", err)
	}

	return nil
}
