package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/scoped-query-api/internal/config"
	"github.com/noah-isme/scoped-query-api/internal/database"
	"github.com/noah-isme/scoped-query-api/internal/handler"
	"github.com/noah-isme/scoped-query-api/internal/middleware"
	"github.com/noah-isme/scoped-query-api/internal/repository"
	"github.com/noah-isme/scoped-query-api/internal/router"
	"github.com/noah-isme/scoped-query-api/internal/service"
	"github.com/noah-isme/scoped-query-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	validate := validator.New(validator.WithRequiredStructEnabled())

	store, err := repository.OpenRecordStore(cfg.StudentsPath, cfg.AdminsPath, repository.NewLoader(validate, logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load student data")
	}
	summary := store.Summary()
	logger.Info().
		Int("students", summary.TotalStudents).
		Ints("grades", summary.Grades).
		Strs("classes", summary.Classes).
		Strs("regions", summary.Regions).
		Float64("avg_quiz_score", summary.AverageQuizScore).
		Msg("dataset ready")

	resolver := buildResolver(cfg, logger)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL, "scoped-query-api")
		if err != nil {
			logger.Warn().Err(err).Msg("intent cache disabled")
		} else {
			defer redisClient.Close()
		}
	}
	resolver = service.NewCachedIntentResolver(resolver, redisClient, cfg.IntentCacheTTL, logger)

	var events service.QueryEventPublisher
	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("query events disabled")
		} else {
			defer drainNATS(natsConn, logger)
			events = service.NewNATSQueryPublisher(natsConn, cfg.NATSSubject)
		}
	}

	engine := service.NewQueryEngine(logger)
	queryService := service.NewQueryService(store, resolver, engine, events, logger)
	queryHandler := handler.NewQueryHandler(queryService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, CORSOrigins: cfg.CORSOrigins})
	router.Register(app, cfg, router.Dependencies{
		QueryHandler:    queryHandler,
		AdminMiddleware: middleware.AdminAuth(cfg.JWTSecret),
		QueryLimiter:    middleware.RateLimit("query", cfg.QueryRateLimit, cfg.QueryRateWindow),
		Records:         summary.TotalStudents,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func buildResolver(cfg config.Config, logger zerolog.Logger) service.IntentResolver {
	if !cfg.UsesLLM() {
		logger.Warn().Str("provider", cfg.AIProvider).Msg("no language model configured, using keyword resolver")
		return service.NewKeywordIntentResolver()
	}

	parser, err := ai.NewOpenAIIntentParser(ai.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Model:   cfg.AIModel,
		Timeout: cfg.AITimeout,
		Logger:  logger,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create intent parser")
	}
	return service.NewLLMIntentResolver(parser, logger)
}

func drainNATS(conn *nats.Conn, logger zerolog.Logger) {
	if err := conn.Drain(); err != nil {
		logger.Warn().Err(err).Msg("failed to drain nats connection")
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
