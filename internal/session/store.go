package session

import (
	"context"
	"errors"
)

var (
	// ErrNotFound indicates no session exists for the id.
	ErrNotFound = errors.New("session not found")
	// ErrVersionConflict indicates a concurrent write advanced the session
	// since it was read. The caller re-reads and re-applies its transition.
	ErrVersionConflict = errors.New("session version conflict")
)

// Store abstracts session persistence with get-then-put semantics per event.
// Put enforces an optimistic version check so two events for the same user in
// quick succession cannot silently lose a transition.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	// List returns every stored session. Used by the inactivity sweep.
	List(ctx context.Context) ([]*Session, error)
}
