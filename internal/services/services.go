package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/adanyl0v/go-todo-tenants/internal/models"
	"github.com/adanyl0v/go-todo-tenants/internal/validation"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	// ErrTaskNotFound covers both a missing task and a task owned by
	// someone else.
	ErrTaskNotFound    = errors.New("task not found")
	ErrProfileNotFound = errors.New("profile not found")
	ErrInvalidMedia    = errors.New("invalid media")
	ErrNoMediaToDelete = errors.New("no profile image to delete")
	ErrMediaNotFound   = errors.New("media not found")
	// ErrStoreFailure wraps any relational or object store fault.
	ErrStoreFailure = errors.New("store failure")

	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionExpired       = errors.New("session expired")
)

// Pool is the part of *pgxpool.Pool the services use.
type Pool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type AuthService interface {
	// Login authenticates the user by email and password.
	//
	// It deletes all sessions with the same user ID and creates
	// a new session and generates a new JWT token pair.
	//
	// It returns ErrUserNotFound if the user with the given
	// email doesn't exist or ErrUserPasswordMismatch if the
	// given password doesn't match the user's password.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Refresh updates the session with the given refresh token.
	//
	// It returns ErrSessionNotFound if the session with the
	// given refresh token and fingerprint doesn't exist or
	// ErrSessionExpired if the session is expired.
	Refresh(ctx context.Context, params RefreshParams) (*LoginResult, error)

	// Register a user with the given email and password.
	//
	// It returns ErrUserAlreadyExists if the user
	// with the given email already exists.
	Register(ctx context.Context, params LoginParams) (*LoginResult, error)

	// Logout invalidates all sessions with the given user ID.
	Logout(ctx context.Context, userID string) error

	// VerifyEmail marks the user's email as verified. Only verified
	// emails are matched against the admin allow-list. It is not
	// reachable over HTTP.
	VerifyEmail(ctx context.Context, email string) error
}

type SessionService interface {
	GetSessionByID(ctx context.Context, sessionID string) (*models.Session, error)
}

// TaskService is the owner-scoped gateway to task records. Every method
// returns ErrUnauthorized when ownerID is empty.
type TaskService interface {
	// ListTasks returns the owner's tasks, newest first. No tasks is an
	// empty slice, not an error.
	ListTasks(ctx context.Context, ownerID string) ([]*models.Task, error)

	// GetTask returns ErrTaskNotFound unless a task with the ID exists
	// under the owner.
	GetTask(ctx context.Context, id, ownerID string) (*models.Task, error)

	CreateTask(ctx context.Context, ownerID string, input validation.CreateTask) (*models.Task, error)

	// UpdateTask applies only the supplied fields and refreshes UpdatedAt.
	UpdateTask(ctx context.Context, id, ownerID string, input validation.UpdateTask) (*models.Task, error)

	// ToggleTaskCompletion flips Completed. Concurrent toggles of the same
	// task are not serialized; the last write wins.
	ToggleTaskCompletion(ctx context.Context, id, ownerID string) (*models.Task, error)

	// DeleteTask permanently removes the task. Deleting an already
	// deleted task returns ErrTaskNotFound.
	DeleteTask(ctx context.Context, id, ownerID string) error
}

// ProfileService keeps a profile's media reference and the object store
// in step.
type ProfileService interface {
	GetProfile(ctx context.Context, ownerID string) (*models.Profile, error)

	// UploadProfileImage stores the object first and records its
	// reference second. A failed object write leaves the profile untouched.
	UploadProfileImage(ctx context.Context, ownerID string, upload MediaUpload) (string, error)

	// FetchProfileImage returns (nil, nil) for an empty reference and
	// ErrMediaNotFound when the reference does not resolve.
	FetchProfileImage(ctx context.Context, ref string) (*Media, error)

	// DeleteProfileImage deletes the object first and clears the
	// reference second. It returns ErrNoMediaToDelete for a profile
	// without media.
	DeleteProfileImage(ctx context.Context, ownerID string) error
}

// StatsService reports across all owners. It re-checks the allow-list
// independently of any route gate.
type StatsService interface {
	Summarize(ctx context.Context, callerID string) (*TaskStats, error)
}

type LoginParams struct {
	Email       string
	Password    string
	Fingerprint string
}

type LoginResult struct {
	UserID                string
	SessionID             string
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

type RefreshParams struct {
	RefreshToken string
	Fingerprint  string
}

type MediaUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

type Media struct {
	Data        []byte
	ContentType string
}

type TaskStats struct {
	Total     int64
	Completed int64
	Pending   int64
}

// JWTParams configures access token issuing and parsing.
type JWTParams struct {
	Issuer          string
	SigningKey      []byte
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

func storeFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrStoreFailure, err)
}
