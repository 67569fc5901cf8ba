package authHandler

import (
	authService "Replicaide/internal/api/auth/service"
	"Replicaide/internal/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type AuthHandler struct {
	log         *logrus.Logger
	authService authService.AuthService
	validator   *validator.Validate
	middleware  middleware.Middleware
}

func New(
	log *logrus.Logger,
	as authService.AuthService,
	validate *validator.Validate,
	middleware middleware.Middleware,
) *AuthHandler {
	return &AuthHandler{
		log:         log,
		authService: as,
		validator:   validate,
		middleware:  middleware,
	}
}

func (h *AuthHandler) Start(srv fiber.Router) {
	auth := srv.Group("/auth")
	auth.Post("/register", h.middleware.NewRateLimiter, h.HandleRegister)
	auth.Post("/login", h.middleware.NewRateLimiter, h.HandleLogin)
	auth.Get("/google", h.HandleGoogleLogin)
	auth.Get("/google/callback", h.CallBackFromGoogle)
	auth.Get("/me", h.middleware.NewTokenMiddleware, h.HandleMe)
}
