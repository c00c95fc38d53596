package notify

import (
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disputelens/internal/errors"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAlert_Expired(t *testing.T) {
	a := New("Files uploaded", SeveritySuccess, t0)
	assert.False(t, a.Expired(t0.Add(4999*time.Millisecond), TTL))
	assert.True(t, a.Expired(t0.Add(5*time.Second), TTL))
}

func TestFromError(t *testing.T) {
	a := FromError(errors.Application("Missing Deal data for 2024"), t0)
	assert.Equal(t, SeverityDanger, a.Severity)
	assert.Equal(t, "Missing Deal data for 2024", a.Message)

	a = FromError(errors.Transport("/analyze", stderrors.New("connection refused")), t0)
	assert.Equal(t, SeverityDanger, a.Severity)
	assert.Equal(t, "request to /analyze failed", a.Message)
}

func TestBoard_ExpiresAfterTTL(t *testing.T) {
	b := NewBoard(0)
	assert.Equal(t, TTL, b.TTL())

	b.Push("first", SeveritySuccess, t0)
	b.Push("second", SeverityWarning, t0.Add(3*time.Second))

	active := b.Active(t0.Add(4 * time.Second))
	require.Len(t, active, 2)
	assert.Equal(t, "first", active[0].Message)

	active = b.Active(t0.Add(6 * time.Second))
	require.Len(t, active, 1)
	assert.Equal(t, "second", active[0].Message)

	assert.Empty(t, b.Active(t0.Add(9*time.Second)))
}

func TestBoard_DrainAndDismiss(t *testing.T) {
	b := NewBoard(time.Minute)
	a := b.Push("one", SeverityDanger, t0)
	b.Push("two", SeveritySuccess, t0)

	assert.True(t, b.Dismiss(a.ID))
	assert.False(t, b.Dismiss(a.ID))

	drained := b.Drain(t0)
	require.Len(t, drained, 1)
	assert.Equal(t, "two", drained[0].Message)
	assert.Empty(t, b.Drain(t0))
}
