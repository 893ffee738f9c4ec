package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/linguadesk/quiz-session-service/internal/client"
	"github.com/linguadesk/quiz-session-service/internal/config"
	"github.com/linguadesk/quiz-session-service/internal/handlers"
	"github.com/linguadesk/quiz-session-service/internal/media"
	"github.com/linguadesk/quiz-session-service/internal/session"
	"github.com/linguadesk/quiz-session-service/internal/store"
	"github.com/linguadesk/quiz-session-service/internal/utils"
	"github.com/linguadesk/quiz-session-service/internal/validator"
	"github.com/linguadesk/quiz-session-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger := utils.ForEnvironment(cfg.Environment)
	logger.Info("Starting quiz session service",
		"environment", cfg.Environment,
		"store_backend", cfg.StoreBackend,
		"quiz_api", cfg.QuizAPIBaseURL)

	answers, err := buildAnswerStore(cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize answer store", "error", err)
		os.Exit(1)
	}

	notifier, err := cfg.Events.CreateProgressPublisher(utils.ToSlogLogger(logger))
	if err != nil {
		logger.Error("Failed to create progress publisher", "error", err)
		os.Exit(1)
	}
	defer notifier.Close()

	manager := session.NewManager(session.Dependencies{
		API:        client.NewQuizAPI(cfg.QuizAPIBaseURL),
		Store:      answers,
		Device:     media.UnsupportedDevice{},
		Encoder:    media.WAVEncoder{},
		Recognizer: media.UnavailableRecognizer{},
		Notifier:   notifier,
		Logger:     logger,
	})

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlers.NewHandlerManager(manager, validator.New(), logger).SetupRoutes(router)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err)
	}
}

func buildAnswerStore(cfg *config.Config, logger utils.Logger) (store.AnswerStore, error) {
	switch cfg.StoreBackend {
	case "redis":
		redisClient, err := pkg.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return store.NewRedisStore(redisClient), nil

	case "postgres":
		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return nil, err
		}
		return store.NewPostgresStore(db)

	case "memory":
		return store.NewMemoryStore(), nil

	default:
		logger.Warn("Unknown store backend, falling back to memory", "backend", cfg.StoreBackend)
		return store.NewMemoryStore(), nil
	}
}
