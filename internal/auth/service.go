package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hongminglow/messagely/internal/models"
	"github.com/hongminglow/messagely/internal/storage"
)

// RegisterInput carries the fields accepted at registration.
type RegisterInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

// Session is the outcome of a successful login or registration.
type Session struct {
	Token       string
	User        models.User
	LastLoginAt time.Time
}

// Service implements registration, authentication and login bookkeeping.
type Service struct {
	users     storage.UserStore
	tokens    *TokenManager
	cost      int
	logger    *slog.Logger
	now       func() time.Time
	dummyHash string
}

// NewService wires the service. A cost outside bcrypt's range falls back to DefaultCost.
func NewService(users storage.UserStore, tokens *TokenManager, cost int, logger *slog.Logger) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	// Compared against when the username is unknown.
	dummy, err := bcrypt.GenerateFromPassword([]byte(rand.Text()), cost)
	if err != nil {
		logger.Error("generate dummy password hash", "error", err)
	}
	return &Service{
		users:     users,
		tokens:    tokens,
		cost:      cost,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		dummyHash: string(dummy),
	}
}

// normalizeUsername is applied on every path that takes a username from a client.
func normalizeUsername(username string) string {
	return strings.TrimSpace(username)
}

// Register hashes the password and stores a new user. The returned user carries no hash.
func (s *Service) Register(ctx context.Context, in RegisterInput) (models.User, error) {
	in.Username = normalizeUsername(in.Username)
	if in.Username == "" || in.Password == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	hash, err := HashPassword(in.Password, s.cost)
	if err != nil {
		return models.User{}, err
	}

	created, err := s.users.CreateUser(ctx, models.User{
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Phone:        strings.TrimSpace(in.Phone),
		JoinAt:       s.now(),
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return models.User{}, ErrDuplicateUsername
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}

	created.PasswordHash = ""
	s.logger.InfoContext(ctx, "user registered", "username", created.Username)
	return created, nil
}

// Authenticate reports whether password matches the stored hash for username.
// An unknown username is reported as false, not as an error.
func (s *Service) Authenticate(ctx context.Context, username, password string) (bool, error) {
	user, err := s.users.FindByUsername(ctx, normalizeUsername(username))
	hash := s.dummyHash
	switch {
	case err == nil:
		hash = user.PasswordHash
	case errors.Is(err, storage.ErrNotFound):
	default:
		return false, fmt.Errorf("authenticate: %w", err)
	}

	matched := VerifyPassword(hash, password)
	return err == nil && matched, nil
}

// UpdateLoginTimestamp records a login for username and returns the stored time.
func (s *Service) UpdateLoginTimestamp(ctx context.Context, username string) (time.Time, error) {
	at, err := s.users.UpdateLastLogin(ctx, username, s.now())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.logger.ErrorContext(ctx, "login timestamp update for missing user", "username", username)
			return time.Time{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return time.Time{}, fmt.Errorf("update login timestamp: %w", err)
	}
	return at, nil
}

// IssueToken signs a token for user.
func (s *Service) IssueToken(user models.User) (string, error) {
	return s.tokens.Issue(user)
}

// VerifyToken returns the identity embedded in a valid token.
func (s *Service) VerifyToken(raw string) (Identity, error) {
	return s.tokens.Verify(raw)
}

// Login authenticates the credentials, stamps the login time and issues a token.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	username = normalizeUsername(username)
	ok, err := s.Authenticate(ctx, username, password)
	if err != nil {
		return Session{}, err
	}
	if !ok {
		s.logger.InfoContext(ctx, "login rejected", "username", username)
		return Session{}, ErrAuthenticationFailed
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	return s.startSession(ctx, user)
}

// RegisterAndLogin registers the user and performs the implicit first login.
func (s *Service) RegisterAndLogin(ctx context.Context, in RegisterInput) (Session, error) {
	user, err := s.Register(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return s.startSession(ctx, user)
}

func (s *Service) startSession(ctx context.Context, user models.User) (Session, error) {
	at, err := s.UpdateLoginTimestamp(ctx, user.Username)
	if err != nil {
		return Session{}, err
	}
	user.PasswordHash = ""
	user.LastLoginAt = &at

	token, err := s.tokens.Issue(user)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: user, LastLoginAt: at}, nil
}
