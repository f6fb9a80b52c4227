package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jaevor/go-nanoid"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-tenants/internal/models"
	"github.com/adanyl0v/go-todo-tenants/internal/storage"
)

const (
	// MaxMediaSize is the upload ceiling for profile images.
	MaxMediaSize = 5 << 20

	mediaKeyPrefix = "profiles/"
)

type profileServiceImpl struct {
	logger  zerolog.Logger
	pgPool  Pool
	objects storage.ObjectStore
	suffix  func() string
}

func NewProfileService(
	logger zerolog.Logger,
	pgPool Pool,
	objects storage.ObjectStore,
) (ProfileService, error) {
	suffix, err := nanoid.Standard(12)
	if err != nil {
		return nil, fmt.Errorf("failed to create media key generator: %w", err)
	}

	return &profileServiceImpl{
		logger:  logger,
		pgPool:  pgPool,
		objects: objects,
		suffix:  suffix,
	}, nil
}

func (s *profileServiceImpl) GetProfile(ctx context.Context, ownerID string) (*models.Profile, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	profile := &models.Profile{OwnerID: ownerID}

	const selectProfileQuery = `
SELECT media_ref,
       created_at,
       updated_at
FROM profiles
WHERE owner_id = $1
`
	err := s.pgPool.QueryRow(
		ctx,
		selectProfileQuery,
		profile.OwnerID,
	).Scan(
		&profile.MediaRef,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}

		s.logger.Error().
			Err(err).
			Str("owner_id", ownerID).
			Msg("failed to select profile")
		return nil, storeFailure(err)
	}
	return profile, nil
}

func (s *profileServiceImpl) UploadProfileImage(ctx context.Context, ownerID string, upload MediaUpload) (string, error) {
	if ownerID == "" {
		return "", ErrUnauthorized
	}

	err := checkMedia(upload)
	if err != nil {
		s.logger.Debug().
			Err(err).
			Str("owner_id", ownerID).
			Msg("rejected profile image")
		return "", err
	}

	ref := s.mediaRef(ownerID, upload.Name)
	err = s.objects.Put(ctx, ref, upload.Data, upload.ContentType)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("media_ref", ref).
			Msg("failed to put profile image")
		return "", storeFailure(err)
	}
	s.logger.Debug().
		Str("media_ref", ref).
		Int("size", len(upload.Data)).
		Msg("put profile image")

	prevRef, err := s.upsertMediaRef(ctx, ownerID, ref)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("owner_id", ownerID).
			Str("media_ref", ref).
			Msg("failed to record profile image, object is orphaned")
		return "", storeFailure(err)
	}

	if prevRef != nil && *prevRef != ref {
		err = s.objects.Delete(ctx, *prevRef)
		if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Warn().
				Err(err).
				Str("media_ref", *prevRef).
				Msg("failed to delete replaced profile image")
		}
	}

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("media_ref", ref).
		Msg("uploaded profile image")
	return ref, nil
}

// upsertMediaRef points the profile at ref, creating the row if needed,
// and returns the reference it replaced.
func (s *profileServiceImpl) upsertMediaRef(ctx context.Context, ownerID, ref string) (*string, error) {
	tx, err := s.pgPool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const selectMediaRefForUpdateQuery = `
SELECT media_ref
FROM profiles
WHERE owner_id = $1
FOR UPDATE
`
	var prevRef *string
	err = tx.QueryRow(
		ctx,
		selectMediaRefForUpdateQuery,
		ownerID,
	).Scan(&prevRef)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to select media ref: %w", err)
	}

	now := time.Now()
	const upsertProfileQuery = `
INSERT INTO profiles (owner_id,
                      media_ref,
                      created_at,
                      updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (owner_id) DO UPDATE
SET media_ref = EXCLUDED.media_ref,
    updated_at = EXCLUDED.updated_at
`
	_, err = tx.Exec(
		ctx,
		upsertProfileQuery,
		ownerID,
		ref,
		now,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}

	err = tx.Commit(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return prevRef, nil
}

func (s *profileServiceImpl) FetchProfileImage(ctx context.Context, ref string) (*Media, error) {
	if ref == "" {
		return nil, nil
	}

	object, err := s.objects.Get(ctx, ref)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, ErrMediaNotFound
		}

		s.logger.Error().
			Err(err).
			Str("media_ref", ref).
			Msg("failed to get profile image")
		return nil, storeFailure(err)
	}

	return &Media{
		Data:        object.Data,
		ContentType: object.ContentType,
	}, nil
}

func (s *profileServiceImpl) DeleteProfileImage(ctx context.Context, ownerID string) error {
	profile, err := s.GetProfile(ctx, ownerID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return ErrNoMediaToDelete
		}
		return err
	}
	if profile.MediaRef == nil {
		return ErrNoMediaToDelete
	}
	ref := *profile.MediaRef

	// A missing object means the reference was already dangling, so it
	// is still cleared below.
	err = s.objects.Delete(ctx, ref)
	if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
		s.logger.Error().
			Err(err).
			Str("media_ref", ref).
			Msg("failed to delete profile image, reference retained")
		return storeFailure(err)
	}

	const clearMediaRefQuery = `
UPDATE profiles
SET media_ref = NULL,
    updated_at = $1
WHERE owner_id = $2 AND media_ref = $3
`
	tag, err := s.pgPool.Exec(
		ctx,
		clearMediaRefQuery,
		time.Now(),
		ownerID,
		ref,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("owner_id", ownerID).
			Str("media_ref", ref).
			Msg("failed to clear media ref, reference is stale")
		return storeFailure(err)
	}
	if tag.RowsAffected() == 0 {
		s.logger.Warn().
			Str("owner_id", ownerID).
			Str("media_ref", ref).
			Msg("media ref replaced during delete")
	}

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("media_ref", ref).
		Msg("deleted profile image")
	return nil
}

// mediaRef builds profiles/{owner}/{unix millis}-{random}-{base name}.
// The name keeps only URL-safe characters so the key can be used as an
// image path as is.
func (s *profileServiceImpl) mediaRef(ownerID, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = "image"
	}
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	return fmt.Sprintf("%s%s/%d-%s-%s", mediaKeyPrefix, ownerID, time.Now().UnixMilli(), s.suffix(), name)
}

func checkMedia(upload MediaUpload) error {
	switch {
	case len(upload.Data) == 0:
		return fmt.Errorf("%w: no file provided", ErrInvalidMedia)
	case !strings.HasPrefix(strings.ToLower(upload.ContentType), "image/"):
		return fmt.Errorf("%w: file must be an image", ErrInvalidMedia)
	case len(upload.Data) > MaxMediaSize:
		return fmt.Errorf("%w: file size must be less than 5MB", ErrInvalidMedia)
	}
	return nil
}
