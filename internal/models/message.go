package models

import "time"

// Message is a direct message between two users. ReadAt stays nil until the
// recipient reads it and is never changed afterwards.
type Message struct {
	ID           string     `json:"id"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Body         string     `json:"body"`
	SentAt       time.Time  `json:"sent_at"`
	ReadAt       *time.Time `json:"read_at"`
}

// MessageDetail is a message joined with both parties' public fields.
type MessageDetail struct {
	Message
	FromUser UserSummary `json:"from_user"`
	ToUser   UserSummary `json:"to_user"`
}

// SentMessage is an entry of a user's outbox.
type SentMessage struct {
	ID     string      `json:"id"`
	Body   string      `json:"body"`
	SentAt time.Time   `json:"sent_at"`
	ReadAt *time.Time  `json:"read_at"`
	ToUser UserSummary `json:"to_user"`
}

// ReceivedMessage is an entry of a user's inbox.
type ReceivedMessage struct {
	ID       string      `json:"id"`
	Body     string      `json:"body"`
	SentAt   time.Time   `json:"sent_at"`
	ReadAt   *time.Time  `json:"read_at"`
	FromUser UserSummary `json:"from_user"`
}
