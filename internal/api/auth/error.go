package auth

import (
	"Replicaide/pkg/response"
	"net/http"
)

var (
	ErrInvalidEmailOrPassword = response.NewError(http.StatusBadRequest, "email or password is wrong")
	ErrUserNotFound           = response.NewError(http.StatusNotFound, "user not found")
	ErrEmailAlreadyExists     = response.NewError(http.StatusConflict, "email already exists")
	ErrUnauthorized           = response.NewError(http.StatusUnauthorized, "unauthorized")
	ErrInvalidOAuthState      = response.NewError(http.StatusBadRequest, "invalid oauth state")
	ErrInvalidLocale          = response.NewError(http.StatusBadRequest, "unsupported locale")
	ErrGoogleUnverifiedEmail  = response.NewError(http.StatusBadRequest, "google account email is not verified")
)
