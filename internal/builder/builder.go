package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/kigali-health/screening-backend/internal/api"
	conversationapi "github.com/kigali-health/screening-backend/internal/api/conversation"
	"github.com/kigali-health/screening-backend/internal/config"
	"github.com/kigali-health/screening-backend/internal/integration/predictor"
	"github.com/kigali-health/screening-backend/internal/pkg/formatter"
	"github.com/kigali-health/screening-backend/internal/repository"
	"github.com/kigali-health/screening-backend/internal/telegram"
	"github.com/kigali-health/screening-backend/internal/usecase/conversation"
	"github.com/kigali-health/screening-backend/internal/usecase/diagnosis"
)

func Build() (*App, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	conversationUC := buildConversationUsecase(cfg, db, logger)

	// Setup API handlers
	conversationHandler := conversationapi.NewHandler(conversationUC, formatter.NewFactory())
	logger.Info("API handlers initialized")

	// Setup router
	router := api.SetupRouter(conversationHandler, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		db:     db,
		logger: logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (telegram.Bot, *zap.Logger, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	// Setup database connection
	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("setup database: %w", err)
	}

	// Run database migrations
	logger.Info("Running database migrations")
	if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Database migrations completed successfully")

	conversationUC := buildConversationUsecase(cfg, db, logger)

	// Initialize Telegram bot
	bot, err := telegram.NewBot(&cfg.TelegramCfg, conversationUC, logger)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("initialize telegram bot: %w", err)
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return bot, logger, nil
}

// buildConversationUsecase wires the repositories, the prediction connector
// and the session registry shared by both entrypoints.
func buildConversationUsecase(cfg *config.Config, db *pgxpool.Pool, logger *zap.Logger) *conversation.Usecase {
	// Initialize repositories
	patientRepo := repository.NewPatientPostgres(db)
	screeningRepo := repository.NewScreeningPostgres(db)
	messageRepo := repository.NewMessagePostgres(db)
	symptomRepo := repository.NewSymptomPostgres(db)
	predictionRepo := repository.NewPredictionPostgres(db)
	prescriptionRepo := repository.NewPrescriptionPostgres(db)
	logger.Info("Repositories initialized")

	recorder := repository.NewPostgresRecorder(
		patientRepo,
		screeningRepo,
		messageRepo,
		symptomRepo,
		predictionRepo,
		prescriptionRepo,
		logger,
	)

	// Initialize external service connectors (with mock support)
	var predictorConnector diagnosis.PredictorConnector
	if cfg.EnableMocks {
		logger.Info("Using mock connector for the prediction service")
		predictorConnector = predictor.NewMockConnector(logger)
	} else {
		logger.Info("Using real connector for the prediction service")
		predictorConnector = predictor.NewConnector(cfg.PredictorCfg, logger)
	}

	// Initialize use cases
	diagnosisUC := diagnosis.NewUsecase(predictorConnector, logger)

	sessionStore := conversation.NewMemoryStore(cfg.SessionTTL, cfg.SessionCleanupInterval)
	conversationUC := conversation.NewUsecase(sessionStore, diagnosisUC, recorder, logger)
	logger.Info("Use cases initialized")

	return conversationUC
}
