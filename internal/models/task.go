package models

import "time"

type Task struct {
	ID          string
	OwnerID     string
	Title       string
	Description *string
	Completed   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
