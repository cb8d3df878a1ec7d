package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hongminglow/messagely/internal/auth"
	"github.com/hongminglow/messagely/internal/http/respond"
	"github.com/hongminglow/messagely/internal/models/dto"
)

// AuthHandler owns the register and login endpoints.
type AuthHandler struct {
	auth   *auth.Service
	logger *slog.Logger
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(svc *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: svc, logger: logger}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	session, err := h.auth.RegisterAndLogin(r.Context(), auth.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, "user registered", dto.TokenResponse{
		Token:       session.Token,
		LastLoginAt: session.LastLoginAt,
	})
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, "username and password are required")
		return
	}

	session, err := h.auth.Login(r.Context(), strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, "login successful", dto.TokenResponse{
		Token:       session.Token,
		LastLoginAt: session.LastLoginAt,
	})
}

// A missing user right after authentication or registration is an
// inconsistency, not a client error.
func (h *AuthHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, auth.ErrUserNotFound) {
		h.logger.ErrorContext(r.Context(), "user vanished during login", "error", err)
		respond.Error(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeError(w, r, h.logger, err)
}
