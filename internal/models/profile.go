package models

import "time"

// Profile holds account-level metadata for one identity. MediaRef is nil
// when the identity has no profile image.
type Profile struct {
	OwnerID   string
	MediaRef  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
