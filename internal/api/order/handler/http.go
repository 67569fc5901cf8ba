package orderHandler

import (
	orderService "Replicaide/internal/api/order/service"
	"Replicaide/internal/entity"
	"Replicaide/internal/middleware"
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type ActorResolver interface {
	Actor(c context.Context, userID string, requestedLocale string) (entity.Actor, error)
}

type OrderHandler struct {
	log          *logrus.Logger
	validator    *validator.Validate
	middleware   middleware.Middleware
	orderService orderService.OrderService
	actors       ActorResolver
}

func New(
	log *logrus.Logger,
	validator *validator.Validate,
	middleware middleware.Middleware,
	svc orderService.OrderService,
	actors ActorResolver,
) *OrderHandler {
	return &OrderHandler{
		log:          log,
		validator:    validator,
		middleware:   middleware,
		orderService: svc,
		actors:       actors,
	}
}

func (h *OrderHandler) Start(srv fiber.Router) {
	orders := srv.Group("/orders", h.middleware.NewTokenMiddleware)
	orders.Get("", h.ListOrders)

	sessions := orders.Group("/sessions")
	sessions.Post("", h.StartSession)
	sessions.Get("/:id", h.GetSession)
	sessions.Post("/:id/messages", h.AppendMessage)
	sessions.Post("/:id/confirm", h.ConfirmOrder)
	sessions.Delete("/:id", h.CancelSession)

	sessions.Get("/:id/updates", h.middleware.NewWebSocketUpgrade, h.RequireSession, websocket.New(h.handleOrderUpdates))
	sessions.Get("/:id/agent", h.middleware.NewWebSocketUpgrade, h.RequireSession, websocket.New(h.handleAgentRelay))
}
