package db

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/jmoiron/sqlx"

	"disputelens/domain/core"
	"disputelens/internal/errors"
	"disputelens/ports"
)

// SessionRepositoryImpl implements ports.SessionStore on sqlx. Queries are
// written with ? placeholders and rebound for the connected driver.
type SessionRepositoryImpl struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *sqlx.DB) ports.SessionStore {
	return &SessionRepositoryImpl{db: db, now: time.Now}
}

type clientSessionRow struct {
	ClientKey string    `db:"client_key"`
	SessionID string    `db:"session_id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Get retrieves the session stored for a client
func (r *SessionRepositoryImpl) Get(ctx context.Context, client core.ClientKey) (core.SessionID, error) {
	var row clientSessionRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(`
		SELECT client_key, session_id, created_at, updated_at
		FROM client_sessions
		WHERE client_key = ?
	`), client.String())
	if stderrors.Is(err, sql.ErrNoRows) {
		return "", core.ErrNotFound
	}
	if err != nil {
		return "", errors.DatabaseError("failed to load session", err)
	}
	return core.SessionID(row.SessionID), nil
}

// Put stores or replaces the session for a client
func (r *SessionRepositoryImpl) Put(ctx context.Context, client core.ClientKey, sessionID core.SessionID) error {
	if client.IsEmpty() {
		return errors.InvalidInput("client key is empty")
	}
	now := r.now().UTC()
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO client_sessions (client_key, session_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (client_key) DO UPDATE
		SET session_id = excluded.session_id, updated_at = excluded.updated_at
	`), client.String(), sessionID.String(), now, now)
	if err != nil {
		return errors.DatabaseError("failed to store session", err)
	}
	return nil
}

// Delete forgets the client's session
func (r *SessionRepositoryImpl) Delete(ctx context.Context, client core.ClientKey) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM client_sessions WHERE client_key = ?`), client.String())
	if err != nil {
		return errors.DatabaseError("failed to delete session", err)
	}
	return nil
}

// PurgeBefore removes sessions not touched since cutoff and returns how many
// were dropped.
func (r *SessionRepositoryImpl) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM client_sessions WHERE updated_at < ?`), cutoff.UTC())
	if err != nil {
		return 0, errors.DatabaseError("failed to purge sessions", err)
	}
	return res.RowsAffected()
}
