package session

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"disputelens/domain/core"
	"disputelens/internal/errors"
)

type memoryStore struct {
	data   map[core.ClientKey]core.SessionID
	getErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[core.ClientKey]core.SessionID)}
}

func (m *memoryStore) Get(_ context.Context, client core.ClientKey) (core.SessionID, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	id, ok := m.data[client]
	if !ok {
		return "", core.ErrNotFound
	}
	return id, nil
}

func (m *memoryStore) Put(_ context.Context, client core.ClientKey, id core.SessionID) error {
	m.data[client] = id
	return nil
}

func (m *memoryStore) Delete(_ context.Context, client core.ClientKey) error {
	delete(m.data, client)
	return nil
}

func TestResolve_QueryWins(t *testing.T) {
	store := newMemoryStore()
	store.data["c1"] = "stored"

	sc, err := Resolve(context.Background(), "from-url", "c1", store)
	require.NoError(t, err)
	assert.Equal(t, core.SessionID("from-url"), sc.ID())
}

func TestResolve_FallsBackToStore(t *testing.T) {
	store := newMemoryStore()
	store.data["c1"] = "stored"

	sc, err := Resolve(context.Background(), "  ", "c1", store)
	require.NoError(t, err)
	assert.Equal(t, core.SessionID("stored"), sc.ID())
	assert.True(t, sc.Has())
}

func TestResolve_NoSession(t *testing.T) {
	sc, err := Resolve(context.Background(), "", "c1", newMemoryStore())
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeNoSession))
	assert.Equal(t, "No session found. Please upload files first.", errors.Message(err))
	assert.False(t, sc.Has())

	_, err = sc.Require()
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = Resolve(context.Background(), "", "", nil)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestResolve_StoreFailure(t *testing.T) {
	store := newMemoryStore()
	store.getErr = stderrors.New("disk on fire")

	_, err := Resolve(context.Background(), "", "c1", store)
	require.Error(t, err)
	assert.False(t, errors.Is(err, errors.CodeNoSession))
}

func TestContext_StartAndForget(t *testing.T) {
	store := newMemoryStore()
	ctx := context.Background()
	sc, _ := Resolve(ctx, "", "c1", store)

	require.NoError(t, sc.Start(ctx, "new-session"))
	assert.Equal(t, core.SessionID("new-session"), store.data["c1"])

	again, err := Resolve(ctx, "", "c1", store)
	require.NoError(t, err)
	assert.Equal(t, core.SessionID("new-session"), again.ID())

	require.NoError(t, sc.Forget(ctx))
	assert.False(t, sc.Has())
	assert.Empty(t, store.data)

	assert.Error(t, sc.Start(ctx, ""))
}

func TestAnalyzerURL(t *testing.T) {
	assert.Equal(t, "/analyzer?sessionId=a+b%2Fc", AnalyzerURL("a b/c"))
	assert.Equal(t, "3s", RedirectDelay.String())
}
