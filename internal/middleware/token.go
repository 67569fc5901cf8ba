package middleware

import (
	jwtPkg "Replicaide/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

const unauthorizedMessage = "Unauthorized, access token invalid or expired"

type tokenMiddleware struct {
	secret string
}

func newTokenMiddleware(secret string) *tokenMiddleware {
	return &tokenMiddleware{secret: secret}
}

// NewTokenMiddleware verifies the bearer token and stores the login data in
// Locals("user"). Browsers cannot set headers on a WebSocket handshake, so
// upgrade requests may pass the token as the access_token query parameter.
func (m *middleware) NewTokenMiddleware(ctx *fiber.Ctx) error {
	requestID := m.GetRequestID(ctx)

	authHeader := ctx.Get(fiber.HeaderAuthorization)
	if authHeader == "" && websocket.IsWebSocketUpgrade(ctx) {
		if token := ctx.Query("access_token"); token != "" {
			authHeader = "Bearer " + token
		}
	}

	token, err := jwtPkg.ParseBearer(authHeader, m.token.secret)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"client_ip":  ctx.IP(),
			"error":      err.Error(),
		}).Warn("Token verification failed")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": unauthorizedMessage,
		})
	}

	user, err := jwtPkg.LoginDataFromToken(token)
	if err != nil {
		m.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
			"error":      err.Error(),
		}).Warn("Token claims check")
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": unauthorizedMessage,
		})
	}

	ctx.Locals("user", user)

	m.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    user.ID,
	}).Debug("Authentication successful")

	return ctx.Next()
}

func (m *middleware) NewWebSocketUpgrade(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		return ctx.Next()
	}
	return fiber.ErrUpgradeRequired
}
