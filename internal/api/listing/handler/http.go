package listingHandler

import (
	listingService "Replicaide/internal/api/listing/service"
	"Replicaide/internal/entity"
	"Replicaide/internal/middleware"
	"Replicaide/pkg/utils"
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const LocaleHeader = "X-Locale"

// ActorResolver loads the authenticated user in the locale the request asks
// for, falling back to the stored one.
type ActorResolver interface {
	Actor(c context.Context, userID string, requestedLocale string) (entity.Actor, error)
}

type ListingHandler struct {
	log            *logrus.Logger
	validator      *validator.Validate
	middleware     middleware.Middleware
	listingService listingService.ListingService
	actors         ActorResolver
	utils          utils.IUtils
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	ls listingService.ListingService,
	actors ActorResolver,
	utils utils.IUtils,
) *ListingHandler {
	return &ListingHandler{
		log:            log,
		validator:      validator,
		middleware:     middleware,
		listingService: ls,
		actors:         actors,
		utils:          utils,
	}
}

func (h *ListingHandler) Start(srv fiber.Router) {
	listings := srv.Group("/listings", h.middleware.NewTokenMiddleware)
	listings.Post("", h.middleware.NewRateLimiter, h.CreateListing)
	listings.Get("", h.ListListings)
	listings.Get("/:id", h.GetListing)
	listings.Put("/:id", h.UpdateListing)
	listings.Delete("/:id", h.DeleteListing)
}
