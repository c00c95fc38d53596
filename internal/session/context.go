// Package session owns the backend session identifier of one client. The
// identifier is resolved once per request and handed explicitly to every
// backend call.
package session

import (
	"context"
	stderrors "errors"
	"net/url"
	"time"

	"disputelens/domain/core"
	"disputelens/internal/errors"
	"disputelens/ports"
)

// RedirectDelay is how long the analyzer shows the missing-session alert
// before sending the user back to the upload page.
const RedirectDelay = 3 * time.Second

// QueryParam carries the session identifier in page URLs
const QueryParam = "sessionId"

// ErrNoSession is returned when neither the URL nor the store has a session
var ErrNoSession = errors.NoSession()

// Context is the session state of one client
type Context struct {
	id     core.SessionID
	client core.ClientKey
	store  ports.SessionStore
}

// Resolve builds the context for a client. The URL query value wins over the
// stored identifier; when neither exists the returned context is empty and
// the error is ErrNoSession.
func Resolve(ctx context.Context, queryValue string, client core.ClientKey, store ports.SessionStore) (*Context, error) {
	sc := &Context{client: client, store: store}

	if id, err := core.ParseSessionID(queryValue); err == nil {
		sc.id = id
		return sc, nil
	}

	if client.IsEmpty() || store == nil {
		return sc, ErrNoSession
	}

	id, err := store.Get(ctx, client)
	if stderrors.Is(err, core.ErrNotFound) {
		return sc, ErrNoSession
	}
	if err != nil {
		return sc, errors.Wrap(err, "failed to load session")
	}
	if id.IsEmpty() {
		return sc, ErrNoSession
	}
	sc.id = id
	return sc, nil
}

// ID returns the resolved session identifier.
func (c *Context) ID() core.SessionID {
	return c.id
}

// Client returns the client key the context belongs to.
func (c *Context) Client() core.ClientKey {
	return c.client
}

// Has reports whether a session was resolved.
func (c *Context) Has() bool {
	return !c.id.IsEmpty()
}

// Require returns the identifier or ErrNoSession.
func (c *Context) Require() (core.SessionID, error) {
	if !c.Has() {
		return "", ErrNoSession
	}
	return c.id, nil
}

// Start records a freshly uploaded session and persists it for the client.
func (c *Context) Start(ctx context.Context, id core.SessionID) error {
	if id.IsEmpty() {
		return errors.InvalidInput("session id is empty")
	}
	if c.store != nil && !c.client.IsEmpty() {
		if err := c.store.Put(ctx, c.client, id); err != nil {
			return errors.Wrap(err, "failed to persist session")
		}
	}
	c.id = id
	return nil
}

// Forget drops the session from the context and the store.
func (c *Context) Forget(ctx context.Context) error {
	c.id = ""
	if c.store == nil || c.client.IsEmpty() {
		return nil
	}
	if err := c.store.Delete(ctx, c.client); err != nil {
		return errors.Wrap(err, "failed to forget session")
	}
	return nil
}

// AnalyzerURL is the analyzer page address carrying the session.
func AnalyzerURL(id core.SessionID) string {
	return "/analyzer?" + QueryParam + "=" + url.QueryEscape(id.String())
}
