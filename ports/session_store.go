package ports

import (
	"context"

	"disputelens/domain/core"
)

// SessionStore persists the backend session identifier per client, the way a
// browser keeps it in local storage.
type SessionStore interface {
	// Get returns the stored session or core.ErrNotFound
	Get(ctx context.Context, client core.ClientKey) (core.SessionID, error)

	// Put stores or replaces the session for a client
	Put(ctx context.Context, client core.ClientKey, sessionID core.SessionID) error

	// Delete forgets the client's session; deleting a missing entry is not an error
	Delete(ctx context.Context, client core.ClientKey) error
}
