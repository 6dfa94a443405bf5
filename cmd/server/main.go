// @title           Quiet Summit API
// @version         1.0
// @description     Accounts and sessions for the Quiet Summit travel booking app.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quietsummit/travel-api/internal/api"
	"github.com/quietsummit/travel-api/internal/api/handler"
	"github.com/quietsummit/travel-api/internal/core/service"
	mongodb "github.com/quietsummit/travel-api/internal/infrastructure/db/mongo"
	redisdb "github.com/quietsummit/travel-api/internal/infrastructure/db/redis"
	"github.com/quietsummit/travel-api/internal/pkg/config"
	"github.com/quietsummit/travel-api/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	cfg, err := config.Load(ctx)
	if err != nil {
		panic(err)
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "travel-api",
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Msg("service starting")

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "travel-api",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect error")
		}
	}()

	redisClient, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()

	users := mongodb.NewUserRepository(db)
	if err := users.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to create user indexes")
	}

	e := api.NewRouter(api.Deps{
		Logger:      log,
		Env:         cfg.Env,
		JWTSecret:   cfg.JWTSecret,
		AuthService: service.NewAuthService(users, cfg.JWTSecret, cfg.JWTTTL),
		Readiness: map[string]handler.PingFunc{
			"mongo": mongodb.Ping(db),
			"redis": redisdb.Ping(redisClient),
		},
	})

	go func() {
		log.Info().Str("port", cfg.Port).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	log.Info().Dur("timeout", shutdownTimeout).Msg("shutting down")
	if err := api.Shutdown(e, shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("http server shutdown error")
	}
	log.Info().Msg("shutdown complete")
}
