// Package identity describes how a caller's identity and role are
// resolved. The resolver is an injected capability so that authorization
// decisions can be exercised without a real identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoIdentity means the credentials do not map to a live session.
	ErrNoIdentity = errors.New("no identity")
	// ErrRoleUnresolved means the role lookup failed. It must be treated
	// as "not privileged".
	ErrRoleUnresolved = errors.New("role unresolved")
)

// Credentials are what a request presents to prove who it is.
type Credentials struct {
	AccessToken string
	Fingerprint string
}

// Role carries the attributes used for authorization decisions.
type Role struct {
	Email string
}

type Resolver interface {
	// ResolveIdentity returns the caller's identity ID, or ErrNoIdentity
	// when the credentials are missing, invalid or expired. Other errors
	// are provider faults.
	ResolveIdentity(ctx context.Context, creds Credentials) (string, error)

	// ResolveRole looks up the identity's role attributes. Any failure is
	// reported as ErrRoleUnresolved.
	ResolveRole(ctx context.Context, identityID string) (*Role, error)
}

// AllowList is an immutable set of privileged emails.
type AllowList struct {
	emails map[string]struct{}
}

// ParseAllowList builds an AllowList from a comma-separated list.
// Entries are trimmed and lower-cased, blanks are skipped.
func ParseAllowList(raw string) AllowList {
	emails := make(map[string]struct{})
	for _, email := range strings.Split(raw, ",") {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			continue
		}
		emails[email] = struct{}{}
	}
	return AllowList{emails: emails}
}

func (a AllowList) Permits(email string) bool {
	if email == "" {
		return false
	}
	_, ok := a.emails[strings.ToLower(email)]
	return ok
}

func (a AllowList) Len() int {
	return len(a.emails)
}

// CheckPrivileged resolves the identity's role and matches its email
// against the allow-list. It returns nil only for a privileged identity.
func CheckPrivileged(ctx context.Context, resolver Resolver, allowList AllowList, identityID string) error {
	role, err := resolver.ResolveRole(ctx, identityID)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRoleUnresolved, err)
	}
	if role == nil || !allowList.Permits(role.Email) {
		return fmt.Errorf("identity %s is not on the allow-list", identityID)
	}
	return nil
}
