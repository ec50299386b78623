// Package store defines the collaborator ports the core consumes: a
// realtime document store with per-collection change streams and atomic
// multi-write batches, and an identity source used to scope every
// collection path to the authenticated user.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated is returned when a collection path is requested
	// and no user identity is available. Never retried automatically.
	ErrUnauthenticated = errors.New("unauthenticated")

	ErrNotFound = errors.New("document not found")
	ErrClosed   = errors.New("store closed")
)

// Document is a raw store record before the typed decode step.
type Document struct {
	ID     string
	Fields map[string]any
}

// ChangeFunc receives the full current contents of a collection on every
// change, including the initial snapshot. A non-nil err signals that the
// underlying stream failed; no further calls follow an error.
type ChangeFunc func(docs []Document, err error)

// Unsubscribe stops callback delivery. Safe to call more than once and at
// any time, including during an in-flight delivery.
type Unsubscribe func()

// Store is the realtime document store port. Document order within a
// snapshot is the backend's default order and carries no meaning.
type Store interface {
	Subscribe(ctx context.Context, path string, fn ChangeFunc) (Unsubscribe, error)
	Get(ctx context.Context, path, id string) (Document, error)
	Create(ctx context.Context, path string, fields map[string]any) (string, error)
	Update(ctx context.Context, path, id string, fields map[string]any) error
	Delete(ctx context.Context, path, id string) error

	// NewID reserves a fresh document id without writing, for use with
	// Batch.Set when linked documents must reference each other inside
	// one commit.
	NewID(path string) string

	// Batch starts an atomic multi-write. All operations apply together
	// on Commit or not at all.
	Batch() Batch

	Close() error
}

// Batch accumulates writes for a single atomic commit.
type Batch interface {
	Set(path, id string, fields map[string]any)
	Update(path, id string, fields map[string]any)
	Delete(path, id string)
	Commit(ctx context.Context) error
}

// Identity resolves the current user. Implementations wrap the external
// authentication provider; the core only ever asks for the user id.
type Identity interface {
	CurrentUserID() (string, bool)
}

// StaticIdentity is an Identity fixed at construction, used by the local
// backends and in tests.
type StaticIdentity string

func (s StaticIdentity) CurrentUserID() (string, bool) {
	return string(s), s != ""
}

// UserPath scopes a collection name to the current user. Fails with
// ErrUnauthenticated rather than silently operating on a wrong scope.
func UserPath(id Identity, collection string) (string, error) {
	uid, ok := id.CurrentUserID()
	if !ok {
		return "", fmt.Errorf("resolve path for %q: %w", collection, ErrUnauthenticated)
	}
	return fmt.Sprintf("users/%s/%s", uid, collection), nil
}
