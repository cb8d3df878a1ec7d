package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/messagely/internal/auth"
	"github.com/hongminglow/messagely/internal/http/respond"
	"github.com/hongminglow/messagely/internal/messaging"
)

// writeError maps service failures onto HTTP statuses. Unexpected errors are
// logged and answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidInput):
		respond.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, messaging.ErrEmptyBody):
		respond.Error(w, http.StatusBadRequest, "message body is required")
	case errors.Is(err, auth.ErrAuthenticationFailed):
		respond.Error(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, auth.ErrUnauthenticated):
		respond.Error(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, auth.ErrForbidden):
		respond.Error(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, auth.ErrMessageNotFound):
		respond.Error(w, http.StatusNotFound, "message not found")
	case errors.Is(err, messaging.ErrRecipientNotFound):
		respond.Error(w, http.StatusNotFound, "recipient not found")
	case errors.Is(err, auth.ErrUserNotFound):
		respond.Error(w, http.StatusNotFound, "user not found")
	case errors.Is(err, auth.ErrDuplicateUsername):
		respond.Error(w, http.StatusConflict, "username already exists")
	default:
		logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
