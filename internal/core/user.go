package core

import (
	"errors"
	"strings"
	"time"
)

var ErrInvalidEmail = errors.New("invalid email")

// User is an account that owns transactions. Accounts are provisioned on
// first Google sign-in and keyed by the Google subject id.
type User struct {
	ID          string
	Email       string
	Name        string
	Picture     string
	CreatedAt   time.Time
	LastLoginAt time.Time
}

func (u User) Validate() error {
	if strings.TrimSpace(u.ID) == "" {
		return ErrEmptyOwner
	}
	if !strings.Contains(u.Email, "@") {
		return ErrInvalidEmail
	}
	return nil
}
