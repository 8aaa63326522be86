// Package identity resolves the owner UID of the active session.
//
// The owner UID is an opaque identifier issued by the identity provider and
// carried on each request by the auth layer. Nothing in this package invents
// owner identities: when no session exists, resolution fails with
// ErrNoActiveSession rather than falling back to a placeholder owner, which
// would misattribute data.
package identity

import (
	"context"
	"errors"
)

// ErrNoActiveSession means no authenticated owner identity is available.
// All scoped storage operations are blocked until a session exists.
var ErrNoActiveSession = errors.New("no active session")

type contextKey struct{}

var ownerKey contextKey

// Resolver yields the owner UID bound to the given context.
type Resolver interface {
	CurrentOwner(ctx context.Context) (string, error)
}

// WithOwner returns a context carrying the given owner UID. Set by the auth
// middleware after a successful key match.
func WithOwner(ctx context.Context, ownerUID string) context.Context {
	return context.WithValue(ctx, ownerKey, ownerUID)
}

// ContextResolver reads the owner UID previously bound by WithOwner.
type ContextResolver struct{}

func (ContextResolver) CurrentOwner(ctx context.Context) (string, error) {
	uid, ok := ctx.Value(ownerKey).(string)
	if !ok || uid == "" {
		return "", ErrNoActiveSession
	}
	return uid, nil
}

// Static always resolves to a fixed owner UID. Used by tests and by
// maintenance commands that operate on behalf of a known owner.
type Static string

func (s Static) CurrentOwner(context.Context) (string, error) {
	if s == "" {
		return "", ErrNoActiveSession
	}
	return string(s), nil
}

// RequireCurrentOwner resolves the owner UID or fails with ErrNoActiveSession.
// It never returns an empty UID alongside a nil error.
func RequireCurrentOwner(ctx context.Context, r Resolver) (string, error) {
	uid, err := r.CurrentOwner(ctx)
	if err != nil {
		return "", err
	}
	if uid == "" {
		return "", ErrNoActiveSession
	}
	return uid, nil
}
