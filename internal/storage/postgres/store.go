package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/hongminglow/messagely/internal/models"
	"github.com/hongminglow/messagely/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

const uniqueViolation = "23505"

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence for users and messages.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to Postgres and applies pending migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	const query = `
		INSERT INTO users (username, password_hash, first_name, last_name, phone, join_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING username, password_hash, first_name, last_name, phone, join_at, last_login_at;
	`
	row := s.pool.QueryRow(ctx, query, user.Username, user.PasswordHash, user.FirstName, user.LastName, user.Phone, user.JoinAt)
	created, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, err
	}
	return created, nil
}

// FindByUsername fetches a user by username.
func (s *Store) FindByUsername(ctx context.Context, username string) (models.User, error) {
	const query = `
	SELECT username, password_hash, first_name, last_name, phone, join_at, last_login_at
	FROM users
	WHERE username = $1;
	`
	return scanUser(s.pool.QueryRow(ctx, query, username))
}

// UpdateLastLogin stamps last_login_at for the user.
func (s *Store) UpdateLastLogin(ctx context.Context, username string, now time.Time) (time.Time, error) {
	const query = `
	UPDATE users SET last_login_at = $2
	WHERE username = $1
	RETURNING last_login_at;
	`
	var lastLogin time.Time
	if err := s.pool.QueryRow(ctx, query, username, now).Scan(&lastLogin); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("update last login: %w", err)
	}
	return lastLogin, nil
}

// ListUsers returns the public fields of every user.
func (s *Store) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	const query = `
	SELECT username, first_name, last_name, phone
	FROM users
	ORDER BY username;
	`
	rows, err := s.pool.Query(ctx, query)
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

// CreateMessage inserts a new message row.
func (s *Store) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	const query = `
	INSERT INTO messages (id, from_username, to_username, body, sent_at)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, from_username, to_username, body, sent_at, read_at;
	`
	var created models.Message
	err := s.pool.QueryRow(ctx, query, msg.ID, msg.FromUsername, msg.ToUsername, msg.Body, msg.SentAt).
		Scan(&created.ID, &created.FromUsername, &created.ToUsername, &created.Body, &created.SentAt, &created.ReadAt)
	if err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	return created, nil
}

// FindMessage fetches a message with both parties joined in.
func (s *Store) FindMessage(ctx context.Context, id string) (models.MessageDetail, error) {
	const query = `
	SELECT m.id, m.from_username, m.to_username, m.body, m.sent_at, m.read_at,
		f.username, f.first_name, f.last_name, f.phone,
		t.username, t.first_name, t.last_name, t.phone
	FROM messages m
	JOIN users f ON f.username = m.from_username
	JOIN users t ON t.username = m.to_username
	WHERE m.id = $1;
	`
	var d models.MessageDetail
	err := s.pool.QueryRow(ctx, query, id).Scan(
		&d.ID, &d.FromUsername, &d.ToUsername, &d.Body, &d.SentAt, &d.ReadAt,
		&d.FromUser.Username, &d.FromUser.FirstName, &d.FromUser.LastName, &d.FromUser.Phone,
		&d.ToUser.Username, &d.ToUser.FirstName, &d.ToUser.LastName, &d.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.MessageDetail{}, storage.ErrNotFound
		}
		return models.MessageDetail{}, fmt.Errorf("find message: %w", err)
	}
	return d, nil
}

// MarkRead sets read_at once; later calls return the original timestamp.
func (s *Store) MarkRead(ctx context.Context, id string, now time.Time) (time.Time, error) {
	const query = `
	UPDATE messages SET read_at = COALESCE(read_at, $2)
	WHERE id = $1
	RETURNING read_at;
	`
	var readAt time.Time
	if err := s.pool.QueryRow(ctx, query, id, now).Scan(&readAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("mark message read: %w", err)
	}
	return readAt, nil
}

// ListFrom returns the messages sent by username with their recipients.
func (s *Store) ListFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	const query = `
	SELECT m.id, m.body, m.sent_at, m.read_at, u.username, u.first_name, u.last_name, u.phone
	FROM messages m
	JOIN users u ON u.username = m.to_username
	WHERE m.from_username = $1
	ORDER BY m.sent_at;
	`
	rows, err := s.pool.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("list sent messages: %w", err)
	}
	defer rows.Close()

	out := []models.SentMessage{}
	for rows.Next() {
		var m models.SentMessage
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &m.ReadAt, &m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone); err != nil {
			return nil, fmt.Errorf("scan sent message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListTo returns the messages received by username with their senders.
func (s *Store) ListTo(ctx context.Context, username string) ([]models.ReceivedMessage, error) {
	const query = `
	SELECT m.id, m.body, m.sent_at, m.read_at, u.username, u.first_name, u.last_name, u.phone
	FROM messages m
	JOIN users u ON u.username = m.from_username
	WHERE m.to_username = $1
	ORDER BY m.sent_at;
	`
	rows, err := s.pool.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("list received messages: %w", err)
	}
	defer rows.Close()

	out := []models.ReceivedMessage{}
	for rows.Next() {
		var m models.ReceivedMessage
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &m.ReadAt, &m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone); err != nil {
			return nil, fmt.Errorf("scan received message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.Username, &user.PasswordHash, &user.FirstName, &user.LastName, &user.Phone, &user.JoinAt, &user.LastLoginAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}
