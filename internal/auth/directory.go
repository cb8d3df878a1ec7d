package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/hongminglow/messagely/internal/models"
	"github.com/hongminglow/messagely/internal/storage"
)

// ListUsers returns every user's public fields to a logged-in caller.
func (s *Service) ListUsers(ctx context.Context, id *Identity) ([]models.UserSummary, error) {
	if err := EnsureLoggedIn(id); err != nil {
		return nil, err
	}
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Profile returns the stored record of username to that same user. The result
// is read from the store, not from the token, so last_login_at is current.
func (s *Service) Profile(ctx context.Context, id *Identity, username string) (models.User, error) {
	if err := EnsureCorrectUser(id, username); err != nil {
		return models.User{}, err
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return models.User{}, fmt.Errorf("load profile: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}
