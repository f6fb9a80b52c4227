package models

import "time"

type User struct {
	ID       string
	Email    string
	Password string
	// EmailVerified is never set by self-registration.
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
