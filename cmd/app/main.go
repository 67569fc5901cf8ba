package main

import (
	"Replicaide/internal/config"
	"Replicaide/pkg/google"
	"Replicaide/pkg/log"
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	logger := log.NewLogger()
	if err := godotenv.Load(); err != nil {
		if os.Getenv("APP_ENV") == "production" || !errors.Is(err, os.ErrNotExist) {
			logger.Fatalf("Error loading .env file: %v", err)
		}
		logger.Warn("No .env file found, reading configuration from the environment")
	}

	env, err := config.LoadEnv()
	if err != nil {
		logger.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fiberApp := config.NewFiber(logger)
	validator := config.NewValidator()
	googleProvider := google.New(google.Config{
		ClientID:     env.Google.ClientID,
		ClientSecret: env.Google.ClientSecret,
		RedirectURL:  env.Google.RedirectURL,
	})

	server, err := config.NewServer(
		config.WithFiber(fiberApp),
		config.WithLogger(logger),
		config.WithEnv(env),
		config.WithValidator(validator),
		config.WithDatabase(ctx),
		config.WithRedis(ctx),
		config.WithGoogleProvider(googleProvider),
		config.WithBlobStore(),
		config.WithGenerator(ctx),
		config.WithAudio(),
		config.WithVoiceAgent(),
		config.WithMiddleware(),
		config.WithBcryptUtils(),
		config.WithUtils(),
	)
	if err != nil {
		logger.Fatal(err)
	}

	server.RegisterHandler()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Server starting on port %s", env.App.Port)
		return server.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), env.App.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatalf("Server stopped with error: %v", err)
	}
	logger.Info("Server stopped")
}
