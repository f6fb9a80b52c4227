package services

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-tenants/internal/identity"
)

type statsServiceImpl struct {
	logger    zerolog.Logger
	pgPool    Pool
	resolver  identity.Resolver
	allowList identity.AllowList
}

func NewStatsService(
	logger zerolog.Logger,
	pgPool Pool,
	resolver identity.Resolver,
	allowList identity.AllowList,
) StatsService {
	return &statsServiceImpl{
		logger:    logger,
		pgPool:    pgPool,
		resolver:  resolver,
		allowList: allowList,
	}
}

func (s *statsServiceImpl) Summarize(ctx context.Context, callerID string) (*TaskStats, error) {
	if callerID == "" {
		return nil, ErrUnauthorized
	}

	err := identity.CheckPrivileged(ctx, s.resolver, s.allowList, callerID)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("user_id", callerID).
			Msg("denied task stats")
		return nil, ErrForbidden
	}

	const countTasksQuery = `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE completed)
FROM tasks
`
	stats := &TaskStats{}
	err = s.pgPool.QueryRow(ctx, countTasksQuery).Scan(
		&stats.Total,
		&stats.Completed,
	)
	if err != nil {
		s.logger.Error().
			Err(err).
			Msg("failed to count tasks")
		return nil, storeFailure(err)
	}
	stats.Pending = stats.Total - stats.Completed

	s.logger.Info().
		Str("user_id", callerID).
		Int64("total", stats.Total).
		Msg("summarized tasks")
	return stats, nil
}
