package config

import (
	"Replicaide/database/postgres"
	authHandler "Replicaide/internal/api/auth/handler"
	authRepository "Replicaide/internal/api/auth/repository"
	authService "Replicaide/internal/api/auth/service"
	"Replicaide/internal/api/listing"
	listingHandler "Replicaide/internal/api/listing/handler"
	listingRepository "Replicaide/internal/api/listing/repository"
	listingService "Replicaide/internal/api/listing/service"
	orderHandler "Replicaide/internal/api/order/handler"
	orderRepository "Replicaide/internal/api/order/repository"
	orderService "Replicaide/internal/api/order/service"
	"Replicaide/internal/entity"
	"Replicaide/internal/middleware"
	"Replicaide/pkg/audio"
	"Replicaide/pkg/bcrypt"
	"Replicaide/pkg/blob"
	"Replicaide/pkg/convai"
	"Replicaide/pkg/gemini"
	"Replicaide/pkg/generation"
	"Replicaide/pkg/google"
	"Replicaide/pkg/openai"
	"Replicaide/pkg/redis"
	"Replicaide/pkg/s3"
	"Replicaide/pkg/utils"
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type ServerOption func(*Server) error

type Server struct {
	engine         *fiber.App
	env            Env
	db             *sqlx.DB
	log            *logrus.Logger
	middleware     middleware.Middleware
	validator      *validator.Validate
	utils          utils.IUtils
	bcryptUtils    bcrypt.IBcrypt
	handlers       []handler
	googleProvider google.ItfGoogle
	redisClient    *goredis.Client
	blobStore      blob.Store
	generator      generation.Generator
	transcriber    audio.Transcriber
	speech         audio.SpeechGenerator
	voiceAgent     convai.IClient
	orders         orderService.OrderService
	closers        []func() error
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.db == nil {
		return nil, fmt.Errorf("database is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithEnv(env Env) ServerOption {
	return func(s *Server) error {
		s.env = env
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithDatabase(ctx context.Context) ServerOption {
	return func(s *Server) error {
		cfg := s.env.Postgres
		db, err := postgres.New(postgres.Config{
			Host:            cfg.Host,
			Port:            cfg.Port,
			User:            cfg.User,
			Password:        cfg.Password,
			Name:            cfg.Name,
			SSLMode:         cfg.SSLMode,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		})
		if err != nil {
			if s.log != nil {
				s.log.Errorf("Failed to connect to database: %v", err)
			}
			return fmt.Errorf("failed to create database connection: %w", err)
		}

		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, db); err != nil {
				_ = db.Close()
				return err
			}
		}

		s.db = db
		s.closers = append(s.closers, db.Close)
		return nil
	}
}

// WithRedis connects only when voice sessions live in redis.
func WithRedis(ctx context.Context) ServerOption {
	return func(s *Server) error {
		if s.env.Session.Store != SessionStoreRedis {
			return nil
		}

		client, err := redis.New(ctx, redis.Config{
			Address:  s.env.Redis.Address,
			Password: s.env.Redis.Password,
			DB:       s.env.Redis.DB,
		}, s.log)
		if err != nil {
			return fmt.Errorf("failed to create redis client: %w", err)
		}

		s.redisClient = client
		s.closers = append(s.closers, client.Close)
		return nil
	}
}

func WithGoogleProvider(provider google.ItfGoogle) ServerOption {
	return func(s *Server) error {
		s.googleProvider = provider
		return nil
	}
}

func WithBlobStore() ServerOption {
	return func(s *Server) error {
		cfg := s.env.Blob
		switch cfg.Backend {
		case BlobBackendS3:
			store, err := s3.New(s3.Config{
				Region:          cfg.S3Region,
				Bucket:          cfg.S3Bucket,
				AccessKeyID:     cfg.S3AccessKeyID,
				SecretAccessKey: cfg.S3SecretAccessKey,
				Endpoint:        cfg.S3Endpoint,
			}, s.log)
			if err != nil {
				if s.log != nil {
					s.log.Errorf("Failed to initialize S3 client: %v", err)
				}
				return fmt.Errorf("failed to create S3 client: %w", err)
			}
			s.blobStore = store
		default:
			s.blobStore = blob.NewGithub(blob.GithubConfig{
				Owner:  cfg.GithubOwner,
				Repo:   cfg.GithubRepo,
				Branch: cfg.GithubBranch,
				Token:  cfg.GithubToken,
			}, s.log)
		}
		return nil
	}
}

func WithGenerator(ctx context.Context) ServerOption {
	return func(s *Server) error {
		cfg := s.env.Generator
		if cfg.Provider == GeneratorGemini {
			client, closeFn, err := gemini.NewGeminiClient(ctx, gemini.Config{
				APIKey: cfg.GeminiKey,
				Model:  cfg.GeminiModel,
			})
			if err != nil {
				if s.log != nil {
					s.log.Errorf("Failed to create Gemini client: %v", err)
				}
				return fmt.Errorf("failed to create Gemini client: %w", err)
			}
			s.generator = client
			s.closers = append(s.closers, closeFn)
			return nil
		}

		s.generator = openai.NewChatGPT(openai.Config{
			APIKey:  cfg.OpenAIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
		return nil
	}
}

func WithAudio() ServerOption {
	return func(s *Server) error {
		s.transcriber = audio.NewTranscriptionService(audio.TranscriptionConfig{
			BaseURL: s.env.Generator.OpenAIBaseURL,
			APIKey:  s.env.Generator.OpenAIKey,
			Model:   s.env.Generator.WhisperModel,
		})
		s.speech = audio.NewTTSService(audio.TTSConfig{
			APIKey: s.env.Voice.ElevenLabsKey,
			Model:  s.env.Voice.TTSModel,
		})
		return nil
	}
}

// WithVoiceAgent leaves the agent relay disabled when no agent id is set.
func WithVoiceAgent() ServerOption {
	return func(s *Server) error {
		if s.env.Voice.AgentID == "" {
			if s.log != nil {
				s.log.Warn("ELEVENLABS_AGENT_ID is not set, voice agent relay disabled")
			}
			return nil
		}

		s.voiceAgent = convai.New(convai.Config{
			BaseURL: s.env.Voice.AgentBaseURL,
			APIKey:  s.env.Voice.ElevenLabsKey,
			AgentID: s.env.Voice.AgentID,
		}, s.log)
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		s.middleware = middleware.New(s.log, middleware.Config{
			JWTSecret: s.env.Auth.JWTSecret,
			RateLimit: s.env.App.RateLimit,
			RateBurst: s.env.App.RateBurst,
		})
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		s.utils = utils.New()
		return nil
	}
}

func WithBcryptUtils() ServerOption {
	return func(s *Server) error {
		s.bcryptUtils = bcrypt.New()
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Auth Domain
	authRepo := authRepository.New(s.db, s.log)
	authServices := authService.New(s.log, authRepo, s.googleProvider, s.bcryptUtils, s.utils, authService.Config{
		JWTSecret: s.env.Auth.JWTSecret,
		TokenTTL:  s.env.Auth.TokenTTL,
	})
	authHandlers := authHandler.New(s.log, authServices, s.validator, s.middleware)

	// Listing Domain
	listingRepo := listingRepository.New(s.db, s.log)
	listingServices := listingService.NewListingService(
		s.log,
		listingRepo,
		s.blobStore,
		s.transcriber,
		listingService.NewAnalyzer(s.generator),
		listingService.NewSynthesizer(s.speech, s.blobStore, s.utils),
		s.utils,
		listingService.Config{
			EnglishVoiceID: s.env.Voice.EnglishVoiceID,
			SpanishVoiceID: s.env.Voice.SpanishVoiceID,
			Retry: listingService.RetryPolicy{
				MaxRetries:  s.env.Retry.MaxRetries,
				BaseDelay:   s.env.Retry.BaseDelay,
				MaxDelay:    s.env.Retry.MaxDelay,
				CallTimeout: s.env.Retry.CallTimeout,
			},
			Observer: s.logStage,
		},
	)
	listingHandlers := listingHandler.New(s.log, s.validator, s.middleware, listingServices, authServices.User(), s.utils)

	// Order Domain
	orderRepo := orderRepository.New(s.db, s.log)
	orderServices := orderService.NewOrderService(
		s.log,
		orderRepo,
		s.sessionStore(),
		listingServices,
		orderService.NewExtractor(s.generator, s.log),
		s.voiceAgent,
		orderService.NewHub(),
		s.utils,
		orderService.Config{
			VoiceIDs: map[entity.Locale]string{
				entity.LocaleEnglish: s.env.Voice.EnglishVoiceID,
				entity.LocaleSpanish: s.env.Voice.SpanishVoiceID,
			},
			ExtractionTimeout: s.env.Session.ExtractionTimeout,
		},
	)
	orderHandlers := orderHandler.New(s.log, s.validator, s.middleware, orderServices, authServices.User())
	s.orders = orderServices

	s.setupHealthCheck()
	s.handlers = append(s.handlers, authHandlers, listingHandlers, orderHandlers)
}

func (s *Server) sessionStore() orderRepository.SessionStore {
	if s.redisClient != nil {
		return orderRepository.NewRedisSessionStore(s.redisClient, s.env.Session.TTL, s.log)
	}
	return orderRepository.NewMemorySessionStore(s.env.Session.TTL)
}

func (s *Server) logStage(c context.Context, from listing.Stage, to listing.Stage) {
	s.log.WithFields(logrus.Fields{
		"from": from,
		"to":   to,
	}).Debug("listing pipeline stage changed")
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(middleware.LoggerConfig())
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	return s.engine.Listen(fmt.Sprintf(":%s", s.env.App.Port))
}

// Shutdown drains the listener and the voice sessions, then releases the
// clients opened by the options in reverse order.
func (s *Server) Shutdown(ctx context.Context) error {
	errs := []error{s.engine.ShutdownWithContext(ctx)}
	if s.orders != nil {
		errs = append(errs, s.orders.Drain(ctx))
	}

	for i := len(s.closers) - 1; i >= 0; i-- {
		errs = append(errs, s.closers[i]())
	}

	return errors.Join(errs...)
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Server is Healthy!",
		})
	})
}
