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

// CreateMessage inserts a new message row.
func (s *Store) CreateMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	const query = `
		INSERT INTO messages (id, from_username, to_username, body, sent_at)
		VALUES (?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, msg.ID, msg.FromUsername, msg.ToUsername, msg.Body, msg.SentAt); err != nil {
		return models.Message{}, fmt.Errorf("insert message: %w", err)
	}
	detail, err := s.FindMessage(ctx, msg.ID)
	if err != nil {
		return models.Message{}, err
	}
	return detail.Message, nil
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
		WHERE m.id = ?
	`
	var (
		d      models.MessageDetail
		readAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.FromUsername, &d.ToUsername, &d.Body, &d.SentAt, &readAt,
		&d.FromUser.Username, &d.FromUser.FirstName, &d.FromUser.LastName, &d.FromUser.Phone,
		&d.ToUser.Username, &d.ToUser.FirstName, &d.ToUser.LastName, &d.ToUser.Phone,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.MessageDetail{}, storage.ErrNotFound
		}
		return models.MessageDetail{}, fmt.Errorf("find message: %w", err)
	}
	d.ReadAt = nullTime(readAt)
	return d, nil
}

// MarkRead sets read_at once; later calls return the original timestamp.
func (s *Store) MarkRead(ctx context.Context, id string, now time.Time) (time.Time, error) {
	if _, err := s.db.ExecContext(ctx, `UPDATE messages SET read_at = ? WHERE id = ? AND read_at IS NULL`, now, id); err != nil {
		return time.Time{}, fmt.Errorf("mark message read: %w", err)
	}

	var readAt sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT read_at FROM messages WHERE id = ?`, id).Scan(&readAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return time.Time{}, storage.ErrNotFound
		}
		return time.Time{}, fmt.Errorf("read message state: %w", err)
	}
	if !readAt.Valid {
		return time.Time{}, fmt.Errorf("mark message read: read_at still unset for %s", id)
	}
	return readAt.Time, nil
}

// ListFrom returns the messages sent by username with their recipients.
func (s *Store) ListFrom(ctx context.Context, username string) ([]models.SentMessage, error) {
	const query = `
		SELECT m.id, m.body, m.sent_at, m.read_at, u.username, u.first_name, u.last_name, u.phone
		FROM messages m
		JOIN users u ON u.username = m.to_username
		WHERE m.from_username = ?
		ORDER BY m.sent_at
	`
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("list sent messages: %w", err)
	}
	defer rows.Close()

	out := []models.SentMessage{}
	for rows.Next() {
		var (
			m      models.SentMessage
			readAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt, &m.ToUser.Username, &m.ToUser.FirstName, &m.ToUser.LastName, &m.ToUser.Phone); err != nil {
			return nil, fmt.Errorf("scan sent message: %w", err)
		}
		m.ReadAt = nullTime(readAt)
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
		WHERE m.to_username = ?
		ORDER BY m.sent_at
	`
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("list received messages: %w", err)
	}
	defer rows.Close()

	out := []models.ReceivedMessage{}
	for rows.Next() {
		var (
			m      models.ReceivedMessage
			readAt sql.NullTime
		)
		if err := rows.Scan(&m.ID, &m.Body, &m.SentAt, &readAt, &m.FromUser.Username, &m.FromUser.FirstName, &m.FromUser.LastName, &m.FromUser.Phone); err != nil {
			return nil, fmt.Errorf("scan received message: %w", err)
		}
		m.ReadAt = nullTime(readAt)
		out = append(out, m)
	}
	return out, rows.Err()
}
