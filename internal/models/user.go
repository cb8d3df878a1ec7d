package models

import "time"

// User captures the stored account record. PasswordHash never leaves the server.
type User struct {
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Phone        string     `json:"phone"`
	JoinAt       time.Time  `json:"join_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// UserSummary is the public projection used in listings and message views.
type UserSummary struct {
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// Summary drops everything but the public listing fields.
func (u User) Summary() UserSummary {
	return UserSummary{
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
	}
}
