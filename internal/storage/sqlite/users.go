package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hongminglow/messagely/internal/models"
	"github.com/hongminglow/messagely/internal/storage"
)

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (username, password_hash, first_name, last_name, phone, join_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Phone, user.JoinAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return s.FindByUsername(ctx, user.Username)
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `
		SELECT username, password_hash, first_name, last_name, phone, join_at, last_login_at
		FROM users
		WHERE username = ?
	`
	var (
		user      models.User
		lastLogin sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, username).Scan(
		&user.Username, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Phone, &user.JoinAt, &lastLogin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, fmt.Errorf("find user: %w", err)
	}
	user.LastLoginAt = nullTime(lastLogin)
	return user, nil
}

// UpdateLastLogin stamps last_login_at for the user.
func (s *Store) UpdateLastLogin(ctx context.Context, username string, now time.Time) (time.Time, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at = ? WHERE username = ?`, now, username)
	if err != nil {
		return time.Time{}, fmt.Errorf("update last login: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return time.Time{}, fmt.Errorf("update last login: %w", err)
	}
	if affected == 0 {
		return time.Time{}, storage.ErrNotFound
	}

	var stored time.Time
	if err := s.db.QueryRowContext(ctx, `SELECT last_login_at FROM users WHERE username = ?`, username).Scan(&stored); err != nil {
		return time.Time{}, fmt.Errorf("read last login: %w", err)
	}
	return stored, nil
}

// ListUsers returns the public fields of every user.
func (s *Store) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT username, first_name, last_name, phone FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.Username, &u.FirstName, &u.LastName, &u.Phone); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
