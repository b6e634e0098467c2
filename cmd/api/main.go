package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/kittipat-dev/unilib-api/internal/config"
	"github.com/kittipat-dev/unilib-api/internal/handler"
	"github.com/kittipat-dev/unilib-api/internal/middleware"
	"github.com/kittipat-dev/unilib-api/internal/otpstore"
	"github.com/kittipat-dev/unilib-api/internal/repository"
	"github.com/kittipat-dev/unilib-api/internal/usecase"
	"github.com/kittipat-dev/unilib-api/shared/auth"
	"github.com/kittipat-dev/unilib-api/shared/mailer"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := bootstrapLogger()
		bootLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mongoClient, err := mongo.Connect(options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to MongoDB")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error().Err(err).Msg("failed to disconnect from MongoDB")
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		logger.Fatal().Err(err).Msg("MongoDB is unreachable")
	}

	db := mongoClient.Database(cfg.Mongo.Database)
	userRepo := repository.NewUserMongoRepository(ctx, &logger, db)

	issuer, err := auth.NewTokenIssuer(cfg.Token.Secret, cfg.Token.Issuer, cfg.Token.ExpiresIn)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token issuer")
	}

	notifier, err := mailer.NewMailer(&logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create mailer")
	}

	// SIGHUP re-runs mail channel selection, picking SMTP back up after a
	// transient outage without a restart.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			logger.Info().Msg("redialing mail channel")
			notifier.Redial()
		}
	}()

	otpStore := newOTPStore(cfg, &logger)

	production := cfg.IsProduction()

	authUsecase := usecase.NewAuthUsecase(userRepo, issuer)
	userUsecase := usecase.NewUserUsecase(userRepo)
	standardReset := usecase.NewPasswordResetUsecase(
		userRepo, notifier, usecase.StandardResetScope, cfg.Reset.AppBaseURL, production, &logger)
	adminReset := usecase.NewPasswordResetUsecase(
		userRepo, notifier, usecase.AdminResetScope, cfg.Reset.AppBaseURL, production, &logger)
	otpUsecase := usecase.NewOTPUsecase(otpStore, userRepo, notifier, production, &logger)

	guard := middleware.NewGuard(issuer, userRepo)

	router := handler.NewRouter(handler.RouterDeps{
		Logger:        &logger,
		Guard:         guard,
		Auth:          handler.NewAuthHandler(authUsecase, &logger, cfg.Token.ExpiresIn, production),
		Users:         handler.NewUserHandler(authUsecase, userUsecase, &logger, production),
		PasswordReset: handler.NewPasswordResetHandler(standardReset, &logger, production),
		AdminReset:    handler.NewPasswordResetHandler(adminReset, &logger, production),
		OTP:           handler.NewOTPHandler(otpUsecase, &logger, production),
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.Server.Addr).Str("environment", cfg.Environment).Msg("server listening")

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// newOTPStore picks the shared Redis store when configured, otherwise the
// in-process map. Multi-instance deployments need Redis so every process
// sees the same codes.
func newOTPStore(cfg *config.Config, logger *zerolog.Logger) otpstore.Store {
	if cfg.Redis.Addr == "" {
		logger.Info().Msg("using in-memory OTP store")
		return otpstore.NewMemory()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	logger.Info().Str("addr", cfg.Redis.Addr).Msg("using Redis OTP store")

	return otpstore.NewRedis(client)
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsProduction() {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func bootstrapLogger() zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}
