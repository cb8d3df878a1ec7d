package auth

import "github.com/hongminglow/messagely/internal/models"

// EnsureLoggedIn fails with ErrUnauthenticated when no identity is attached.
func EnsureLoggedIn(id *Identity) error {
	if id == nil || id.Username == "" {
		return ErrUnauthenticated
	}
	return nil
}

// EnsureCorrectUser allows only the user named target to act on their own data.
func EnsureCorrectUser(id *Identity, target string) error {
	if err := EnsureLoggedIn(id); err != nil {
		return err
	}
	if id.Username != target {
		return ErrForbidden
	}
	return nil
}

// CanViewMessage reports whether the caller is the sender or the recipient of msg.
func CanViewMessage(id *Identity, msg models.Message) bool {
	if EnsureLoggedIn(id) != nil {
		return false
	}
	return id.Username == msg.FromUsername || id.Username == msg.ToUsername
}

// CanMarkRead reports whether the caller is the recipient of msg.
func CanMarkRead(id *Identity, msg models.Message) bool {
	if EnsureLoggedIn(id) != nil {
		return false
	}
	return id.Username == msg.ToUsername
}

// EnsureCanView is the error-returning form of CanViewMessage.
func EnsureCanView(id *Identity, msg models.Message) error {
	if err := EnsureLoggedIn(id); err != nil {
		return err
	}
	if !CanViewMessage(id, msg) {
		return ErrForbidden
	}
	return nil
}

// EnsureCanMarkRead is the error-returning form of CanMarkRead.
func EnsureCanMarkRead(id *Identity, msg models.Message) error {
	if err := EnsureLoggedIn(id); err != nil {
		return err
	}
	if !CanMarkRead(id, msg) {
		return ErrForbidden
	}
	return nil
}
