package authHandler

import (
	"Replicaide/internal/api/auth"
	contextPkg "Replicaide/pkg/context"
	"Replicaide/pkg/handlerUtil"
	"Replicaide/pkg/log"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/net/context"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

func (h *AuthHandler) HandleGoogleLogin(ctx *fiber.Ctx) error {
	state := uuid.NewString()

	ctx.Cookie(&fiber.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(oauthStateTTL),
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   ctx.Protocol() == "https",
	})

	return ctx.Redirect(h.authService.Auth().GoogleLoginURL(state), fiber.StatusTemporaryRedirect)
}

func (h *AuthHandler) CallBackFromGoogle(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), 10*time.Second)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	state := ctx.Query("state")
	expected := ctx.Cookies(oauthStateCookie)
	ctx.ClearCookie(oauthStateCookie)

	if state == "" || state != expected {
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"path":       ctx.Path(),
		}).Warn("Invalid state parameter")
		return errHandler.Handle(ctx, requestID, auth.ErrInvalidOAuthState, ctx.Path(), "google_callback")
	}

	code := ctx.Query("code")
	if code == "" {
		if reason := ctx.Query("error"); reason != "" {
			return errHandler.HandleUnauthorized(ctx, requestID, "Access denied by user")
		}
		return errHandler.HandleValidationError(ctx, requestID,
			errors.New("no authorization code provided"), ctx.Path())
	}

	res, err := h.authService.Auth().LoginGoogle(c, code)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "login_google")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, res)
	}
}
