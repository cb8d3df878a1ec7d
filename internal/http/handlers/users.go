package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hongminglow/messagely/internal/auth"
	"github.com/hongminglow/messagely/internal/http/respond"
	"github.com/hongminglow/messagely/internal/messaging"
)

// UsersHandler serves the user directory and per-user message lists.
type UsersHandler struct {
	auth     *auth.Service
	messages *messaging.Service
	logger   *slog.Logger
}

// NewUsersHandler constructs the handler.
func NewUsersHandler(authSvc *auth.Service, messages *messaging.Service, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{auth: authSvc, messages: messages, logger: logger}
}

// Register attaches user routes behind the identity middleware.
func (h *UsersHandler) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("GET /users", protect(http.HandlerFunc(h.handleList)))
	mux.Handle("GET /users/{username}", protect(http.HandlerFunc(h.handleDetail)))
	mux.Handle("GET /users/{username}/to", protect(http.HandlerFunc(h.handleReceived)))
	mux.Handle("GET /users/{username}/from", protect(http.HandlerFunc(h.handleSent)))
}

func (h *UsersHandler) handleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context(), auth.IdentityFrom(r.Context()))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", map[string]any{"users": users})
}

func (h *UsersHandler) handleDetail(w http.ResponseWriter, r *http.Request) {
	user, err := h.auth.Profile(r.Context(), auth.IdentityFrom(r.Context()), r.PathValue("username"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", map[string]any{"user": user})
}

func (h *UsersHandler) handleReceived(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.Received(r.Context(), auth.IdentityFrom(r.Context()), r.PathValue("username"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", map[string]any{"messages": messages})
}

func (h *UsersHandler) handleSent(w http.ResponseWriter, r *http.Request) {
	messages, err := h.messages.Sent(r.Context(), auth.IdentityFrom(r.Context()), r.PathValue("username"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", map[string]any{"messages": messages})
}
