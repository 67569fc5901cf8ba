package order

import (
	"Replicaide/pkg/response"
	"net/http"
)

var (
	ErrSessionNotFound  = response.NewError(http.StatusNotFound, "voice session not found")
	ErrInvalidLanguage  = response.NewError(http.StatusBadRequest, "unsupported language")
	ErrInvalidSource    = response.NewError(http.StatusBadRequest, "message source must be user or agent")
	ErrEmptyMessage     = response.NewError(http.StatusBadRequest, "message text is required")
	ErrInvalidItems     = response.NewError(http.StatusBadRequest, "order items need a name and non-negative quantity and price")
	ErrPersistence      = response.NewError(http.StatusInternalServerError, "failed to save order")
	ErrAgentUnavailable = response.NewError(http.StatusBadGateway, "voice agent unavailable")
)
