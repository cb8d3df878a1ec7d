package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/messagely/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures user persistence needed by the auth flow and the directory.
type UserStore interface {
	// CreateUser inserts the user; a taken username yields ErrAlreadyExists.
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	// FindByUsername returns the full record including the password hash.
	FindByUsername(ctx context.Context, username string) (models.User, error)
	// UpdateLastLogin stores now as last_login_at and returns the stored value.
	UpdateLastLogin(ctx context.Context, username string, now time.Time) (time.Time, error)
	ListUsers(ctx context.Context) ([]models.UserSummary, error)
}

// MessageStore captures message persistence.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg models.Message) (models.Message, error)
	// FindMessage returns the message joined with both parties' public fields.
	FindMessage(ctx context.Context, id string) (models.MessageDetail, error)
	// MarkRead fills read_at only when it is still NULL and returns the stored value.
	MarkRead(ctx context.Context, id string, now time.Time) (time.Time, error)
	ListFrom(ctx context.Context, username string) ([]models.SentMessage, error)
	ListTo(ctx context.Context, username string) ([]models.ReceivedMessage, error)
}

// Store is a full persistence backend.
type Store interface {
	UserStore
	MessageStore
	Close()
}
