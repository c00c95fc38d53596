package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// SessionID is the opaque token the backend issues on upload. It correlates
// the uploaded workbooks with later filter, analyze and report calls.
type SessionID string

// String returns the string representation
func (id SessionID) String() string {
	return string(id)
}

// IsEmpty checks if the session ID is empty
func (id SessionID) IsEmpty() bool {
	return strings.TrimSpace(string(id)) == ""
}

// ParseSessionID parses a string into SessionID
func ParseSessionID(s string) (SessionID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: session ID cannot be empty", ErrInvalidID)
	}
	return SessionID(s), nil
}

// ClientKey identifies one browser or CLI profile in the session store.
type ClientKey string

// String returns the string representation
func (k ClientKey) String() string {
	return string(k)
}

// IsEmpty checks if the client key is empty
func (k ClientKey) IsEmpty() bool {
	return k == ""
}

// NewClientKey creates a new client key using UUID v7 for time-ordered generation
func NewClientKey() ClientKey {
	return ClientKey(newUUID())
}

// NewRequestID returns an identifier for the X-Request-ID header.
func NewRequestID() string {
	return newUUID()
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
