package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]string)}
}

func (s *memoryStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = fmt.Sprint(value)
	return nil
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (s *memoryStore) Del(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}

func (s *memoryStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(store *memoryStore) *Manager {
	return &Manager{store: store, keyer: store, ttl: time.Hour}
}

func TestGenerateStoresRefreshToken(t *testing.T) {
	store := newMemoryStore()
	manager := newTestManager(store)

	accessID := NewAccessID()
	token, err := manager.Generate(context.Background(), accessID)
	require.NoError(t, err)
	assert.Equal(t, token, store.data[store.AccessSessionKey(accessID)])

	_, err = manager.Generate(context.Background(), "  ")
	assert.Error(t, err)
}

func TestRotateSwapsSessionAndRejectsBadToken(t *testing.T) {
	store := newMemoryStore()
	manager := newTestManager(store)
	ctx := context.Background()

	accessID := NewAccessID()
	token, err := manager.Generate(ctx, accessID)
	require.NoError(t, err)

	_, _, err = manager.Rotate(ctx, accessID, "not-the-token")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	newAccessID, newToken, err := manager.Rotate(ctx, accessID, token)
	require.NoError(t, err)
	assert.NotEqual(t, accessID, newAccessID)
	assert.NotContains(t, store.data, store.AccessSessionKey(accessID))
	assert.Equal(t, newToken, store.data[store.AccessSessionKey(newAccessID)])

	// The old session is gone, so replaying the old pair must fail.
	_, _, err = manager.Rotate(ctx, accessID, token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestRevokeEndsSession(t *testing.T) {
	store := newMemoryStore()
	manager := newTestManager(store)
	ctx := context.Background()

	accessID := NewAccessID()
	_, err := manager.Generate(ctx, accessID)
	require.NoError(t, err)

	active, err := manager.HasSession(ctx, accessID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, manager.Revoke(ctx, accessID))

	active, err = manager.HasSession(ctx, accessID)
	require.NoError(t, err)
	assert.False(t, active)
}
