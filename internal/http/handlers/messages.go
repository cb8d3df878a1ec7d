package handlers

import (
	"log/slog"
	"net/http"

	"github.com/hongminglow/messagely/internal/auth"
	"github.com/hongminglow/messagely/internal/http/respond"
	"github.com/hongminglow/messagely/internal/messaging"
	"github.com/hongminglow/messagely/internal/models/dto"
)

// MessagesHandler serves sending, viewing and read receipts.
type MessagesHandler struct {
	messages *messaging.Service
	logger   *slog.Logger
}

// NewMessagesHandler constructs the handler.
func NewMessagesHandler(messages *messaging.Service, logger *slog.Logger) *MessagesHandler {
	return &MessagesHandler{messages: messages, logger: logger}
}

// Register attaches message routes behind the identity middleware.
func (h *MessagesHandler) Register(mux *http.ServeMux, protect func(http.Handler) http.Handler) {
	mux.Handle("POST /messages", protect(http.HandlerFunc(h.handleSend)))
	mux.Handle("GET /messages/{id}", protect(http.HandlerFunc(h.handleGet)))
	mux.Handle("POST /messages/{id}/read", protect(http.HandlerFunc(h.handleMarkRead)))
}

func (h *MessagesHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req dto.SendMessageRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	msg, err := h.messages.Send(r.Context(), auth.IdentityFrom(r.Context()), req.ToUsername, req.Body)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusCreated, "message sent", map[string]any{"message": msg})
}

// handleGet shows the message to either party; the recipient's view also marks it read.
func (h *MessagesHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.messages.Open(r.Context(), auth.IdentityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", map[string]any{"message": detail})
}

func (h *MessagesHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	msg, err := h.messages.MarkRead(r.Context(), auth.IdentityFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respond.JSON(w, http.StatusOK, "message read", map[string]any{
		"message": dto.ReadReceipt{ID: msg.ID, ReadAt: *msg.ReadAt},
	})
}
