package auth

import (
	"context"
	"time"

	"github.com/hongminglow/messagely/internal/models"
)

// Identity is the verified caller attached to a request. It mirrors the
// token payload, so profile fields may be older than the stored record.
type Identity struct {
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Phone       string     `json:"phone"`
	JoinAt      time.Time  `json:"join_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

// IdentityOf builds the public identity payload for user.
func IdentityOf(user models.User) Identity {
	return Identity{
		Username:    user.Username,
		FirstName:   user.FirstName,
		LastName:    user.LastName,
		Phone:       user.Phone,
		JoinAt:      user.JoinAt,
		LastLoginAt: user.LastLoginAt,
	}
}

type identityKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored on ctx, or nil when the request is anonymous.
func IdentityFrom(ctx context.Context) *Identity {
	id, ok := ctx.Value(identityKey{}).(Identity)
	if !ok {
		return nil
	}
	return &id
}
