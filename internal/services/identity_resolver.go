package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-tenants/internal/identity"
)

// identityResolverImpl resolves identities from access tokens issued by
// AuthService and roles from the users table.
type identityResolverImpl struct {
	logger   zerolog.Logger
	pgPool   Pool
	sessions SessionService
	jwt      JWTParams
}

func NewIdentityResolver(
	logger zerolog.Logger,
	pgPool Pool,
	sessions SessionService,
	jwtParams JWTParams,
) identity.Resolver {
	return &identityResolverImpl{
		logger:   logger,
		pgPool:   pgPool,
		sessions: sessions,
		jwt:      jwtParams,
	}
}

func (r *identityResolverImpl) ResolveIdentity(ctx context.Context, creds identity.Credentials) (string, error) {
	if creds.AccessToken == "" {
		return "", identity.ErrNoIdentity
	}

	claims, err := parseAccessToken(creds.AccessToken, r.jwt)
	if err != nil {
		r.logger.Debug().
			Err(err).
			Msg("rejected access token")
		return "", identity.ErrNoIdentity
	}

	session, err := r.sessions.GetSessionByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return "", identity.ErrNoIdentity
		}
		return "", err
	}

	if time.Now().After(session.ExpiresAt) {
		r.logger.Debug().
			Str("session_id", session.ID).
			Msg("session expired")
		return "", identity.ErrNoIdentity
	}
	if session.Fingerprint != creds.Fingerprint {
		r.logger.Warn().
			Str("session_id", session.ID).
			Msg("fingerprint mismatch")
		return "", identity.ErrNoIdentity
	}
	return session.UserID, nil
}

// ResolveRole reports the user's email only once it is verified. An
// unverified email is reported as absent, so a self-registered address
// never matches the allow-list.
func (r *identityResolverImpl) ResolveRole(ctx context.Context, identityID string) (*identity.Role, error) {
	const selectUserEmailQuery = `
SELECT email,
       email_verified
FROM users
WHERE id = $1
`
	var (
		email    string
		verified bool
	)
	err := r.pgPool.QueryRow(
		ctx,
		selectUserEmailQuery,
		identityID,
	).Scan(
		&email,
		&verified,
	)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			r.logger.Error().
				Err(err).
				Str("user_id", identityID).
				Msg("failed to select user email")
		}
		return nil, fmt.Errorf("%w: %w", identity.ErrRoleUnresolved, err)
	}

	if !verified {
		r.logger.Debug().
			Str("user_id", identityID).
			Msg("user email is not verified")
		return &identity.Role{}, nil
	}
	return &identity.Role{Email: email}, nil
}

func parseAccessToken(token string, params JWTParams) (*jwt.RegisteredClaims, error) {
	t, err := jwt.ParseWithClaims(
		token,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return params.SigningKey, nil
		},
		jwt.WithIssuer(params.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := t.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
