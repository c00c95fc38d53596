// Package notify holds the transient status banners shown to the user.
package notify

import (
	"sync"
	"time"

	"disputelens/domain/core"
	"disputelens/internal/errors"
)

// Severity of an alert
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// TTL is how long an alert stays visible
const TTL = 5 * time.Second

// Alert is one dismissible banner
type Alert struct {
	ID        string
	Message   string
	Severity  Severity
	CreatedAt time.Time
}

// New creates an alert stamped with now.
func New(message string, severity Severity, now time.Time) Alert {
	return Alert{
		ID:        core.NewRequestID(),
		Message:   message,
		Severity:  severity,
		CreatedAt: now,
	}
}

// Expired reports whether the alert is older than ttl at now.
func (a Alert) Expired(now time.Time, ttl time.Duration) bool {
	return !now.Before(a.CreatedAt.Add(ttl))
}

// FromError maps an error to a danger alert. Application failures keep the
// server's text verbatim.
func FromError(err error, now time.Time) Alert {
	return New(errors.Message(err), SeverityDanger, now)
}

// Board keeps the alerts of one client. It is safe for concurrent use.
type Board struct {
	mu     sync.Mutex
	ttl    time.Duration
	alerts []Alert
}

// NewBoard creates a board; a non-positive ttl falls back to TTL.
func NewBoard(ttl time.Duration) *Board {
	if ttl <= 0 {
		ttl = TTL
	}
	return &Board{ttl: ttl}
}

// TTL returns the board's alert lifetime.
func (b *Board) TTL() time.Duration {
	return b.ttl
}

// Push adds an alert and returns it.
func (b *Board) Push(message string, severity Severity, now time.Time) Alert {
	a := New(message, severity, now)
	b.mu.Lock()
	b.alerts = append(b.alerts, a)
	b.mu.Unlock()
	return a
}

// Active drops expired alerts and returns the rest, oldest first.
func (b *Board) Active(now time.Time) []Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(now)
	out := make([]Alert, len(b.alerts))
	copy(out, b.alerts)
	return out
}

// Drain returns the active alerts and empties the board, the way a page
// consumes flashed messages once.
func (b *Board) Drain(now time.Time) []Alert {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.prune(now)
	out := b.alerts
	b.alerts = nil
	return out
}

// Dismiss removes an alert by id.
func (b *Board) Dismiss(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, a := range b.alerts {
		if a.ID == id {
			b.alerts = append(b.alerts[:i], b.alerts[i+1:]...)
			return true
		}
	}
	return false
}

func (b *Board) prune(now time.Time) {
	kept := b.alerts[:0]
	for _, a := range b.alerts {
		if !a.Expired(now, b.ttl) {
			kept = append(kept, a)
		}
	}
	b.alerts = kept
}
