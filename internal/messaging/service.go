// Package messaging sends, reads and lists direct messages on behalf of a
// verified identity.
package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/messagely/internal/auth"
	"github.com/hongminglow/messagely/internal/models"
	"github.com/hongminglow/messagely/internal/storage"
)

var (
	// ErrEmptyBody indicates a message without text.
	ErrEmptyBody = errors.New("message body is required")

	// ErrRecipientNotFound indicates the addressed user does not exist.
	ErrRecipientNotFound = errors.New("recipient not found")
)

// Service applies the visibility and read rules on top of the stores.
type Service struct {
	messages storage.MessageStore
	users    storage.UserStore
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs the service.
func NewService(messages storage.MessageStore, users storage.UserStore, logger *slog.Logger) *Service {
	return &Service{
		messages: messages,
		users:    users,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send stores a message from the caller to the user named to.
func (s *Service) Send(ctx context.Context, id *auth.Identity, to, body string) (models.Message, error) {
	if err := auth.EnsureLoggedIn(id); err != nil {
		return models.Message{}, err
	}
	to = strings.TrimSpace(to)
	if strings.TrimSpace(body) == "" {
		return models.Message{}, ErrEmptyBody
	}

	if _, err := s.users.FindByUsername(ctx, to); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Message{}, fmt.Errorf("%w: %s", ErrRecipientNotFound, to)
		}
		return models.Message{}, fmt.Errorf("load recipient: %w", err)
	}

	msg, err := s.messages.CreateMessage(ctx, models.Message{
		ID:           uuid.NewString(),
		FromUsername: id.Username,
		ToUsername:   to,
		Body:         body,
		SentAt:       s.now(),
	})
	if err != nil {
		return models.Message{}, fmt.Errorf("create message: %w", err)
	}
	s.logger.InfoContext(ctx, "message sent", "message_id", msg.ID, "from", msg.FromUsername, "to", msg.ToUsername)
	return msg, nil
}

// Get returns the message if the caller is one of its parties. It never marks the message read.
func (s *Service) Get(ctx context.Context, id *auth.Identity, messageID string) (models.MessageDetail, error) {
	if err := auth.EnsureLoggedIn(id); err != nil {
		return models.MessageDetail{}, err
	}
	detail, err := s.find(ctx, messageID)
	if err != nil {
		return models.MessageDetail{}, err
	}
	if err := auth.EnsureCanView(id, detail.Message); err != nil {
		s.logger.WarnContext(ctx, "message view denied", "message_id", messageID, "username", id.Username)
		return models.MessageDetail{}, err
	}
	return detail, nil
}

// MarkRead sets read_at for the recipient. Marking an already read message
// returns the original read_at unchanged.
func (s *Service) MarkRead(ctx context.Context, id *auth.Identity, messageID string) (models.Message, error) {
	if err := auth.EnsureLoggedIn(id); err != nil {
		return models.Message{}, err
	}
	detail, err := s.find(ctx, messageID)
	if err != nil {
		return models.Message{}, err
	}
	msg := detail.Message
	if err := auth.EnsureCanMarkRead(id, msg); err != nil {
		s.logger.WarnContext(ctx, "mark read denied", "message_id", messageID, "username", id.Username)
		return models.Message{}, err
	}
	if msg.ReadAt != nil {
		return msg, nil
	}

	readAt, err := s.messages.MarkRead(ctx, msg.ID, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Message{}, auth.ErrMessageNotFound
		}
		return models.Message{}, fmt.Errorf("mark read: %w", err)
	}
	msg.ReadAt = &readAt
	return msg, nil
}

// Open fetches a message for viewing and, when the caller is its recipient,
// marks it read in a second, separately authorized step.
func (s *Service) Open(ctx context.Context, id *auth.Identity, messageID string) (models.MessageDetail, error) {
	detail, err := s.Get(ctx, id, messageID)
	if err != nil {
		return models.MessageDetail{}, err
	}
	if !auth.CanMarkRead(id, detail.Message) {
		return detail, nil
	}

	read, err := s.MarkRead(ctx, id, messageID)
	if err != nil {
		return models.MessageDetail{}, err
	}
	detail.ReadAt = read.ReadAt
	return detail, nil
}

// Sent lists the messages username has sent; only username may ask.
func (s *Service) Sent(ctx context.Context, id *auth.Identity, username string) ([]models.SentMessage, error) {
	if err := auth.EnsureCorrectUser(id, username); err != nil {
		return nil, err
	}
	out, err := s.messages.ListFrom(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list sent messages: %w", err)
	}
	return out, nil
}

// Received lists the messages username has received; only username may ask.
func (s *Service) Received(ctx context.Context, id *auth.Identity, username string) ([]models.ReceivedMessage, error) {
	if err := auth.EnsureCorrectUser(id, username); err != nil {
		return nil, err
	}
	out, err := s.messages.ListTo(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("list received messages: %w", err)
	}
	return out, nil
}

func (s *Service) find(ctx context.Context, messageID string) (models.MessageDetail, error) {
	parsed, err := uuid.Parse(messageID)
	if err != nil {
		return models.MessageDetail{}, auth.ErrMessageNotFound
	}
	detail, err := s.messages.FindMessage(ctx, parsed.String())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.MessageDetail{}, auth.ErrMessageNotFound
		}
		return models.MessageDetail{}, fmt.Errorf("find message: %w", err)
	}
	return detail, nil
}
