package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-tenants/internal/storage"
)

// MediaSweeper reclaims profile objects that no profile row references,
// such as those left behind when a row upsert fails after the object
// write. Objects younger than the grace period are skipped so uploads
// between their two steps are never reclaimed.
type MediaSweeper struct {
	logger      zerolog.Logger
	pgPool      Pool
	objects     storage.ObjectStore
	gracePeriod time.Duration
}

func NewMediaSweeper(
	logger zerolog.Logger,
	pgPool Pool,
	objects storage.ObjectStore,
	gracePeriod time.Duration,
) *MediaSweeper {
	return &MediaSweeper{
		logger:      logger,
		pgPool:      pgPool,
		objects:     objects,
		gracePeriod: gracePeriod,
	}
}

// Sweep deletes orphaned objects and returns how many it removed.
func (s *MediaSweeper) Sweep(ctx context.Context) (int, error) {
	objects, err := s.objects.List(ctx, mediaKeyPrefix)
	if err != nil {
		return 0, storeFailure(err)
	}
	if len(objects) == 0 {
		return 0, nil
	}

	referenced, err := s.referencedRefs(ctx)
	if err != nil {
		return 0, storeFailure(err)
	}

	cutoff := time.Now().Add(-s.gracePeriod)
	deleted := 0
	for _, object := range objects {
		if _, ok := referenced[object.Key]; ok || object.ModTime.After(cutoff) {
			continue
		}

		err = s.objects.Delete(ctx, object.Key)
		if err != nil {
			s.logger.Warn().
				Err(err).
				Str("media_ref", object.Key).
				Msg("failed to delete orphaned profile image")
			continue
		}
		deleted++
		s.logger.Debug().
			Str("media_ref", object.Key).
			Msg("deleted orphaned profile image")
	}

	s.logger.Info().
		Int("scanned", len(objects)).
		Int("deleted", deleted).
		Msg("swept profile images")
	return deleted, nil
}

func (s *MediaSweeper) referencedRefs(ctx context.Context) (map[string]struct{}, error) {
	const selectMediaRefsQuery = `
SELECT media_ref
FROM profiles
WHERE media_ref IS NOT NULL
`
	rows, err := s.pgPool.Query(ctx, selectMediaRefsQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to select media refs: %w", err)
	}
	defer rows.Close()

	refs := make(map[string]struct{})
	for rows.Next() {
		var ref string
		err = rows.Scan(&ref)
		if err != nil {
			return nil, fmt.Errorf("failed to scan media ref: %w", err)
		}
		refs[ref] = struct{}{}
	}
	return refs, rows.Err()
}
