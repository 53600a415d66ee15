package services_test

import (
	"context"
	"testing"
	"time"

	"resto/internal/database"
	"resto/internal/repositories"
	"resto/internal/testutil"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testPepper = "test-pepper"

// storeFactories runs each test against both store implementations.
var storeFactories = map[string]func(t *testing.T) repositories.Store{
	"memory": func(t *testing.T) repositories.Store { return repositories.NewMemoryStore() },
	"sqlite": func(t *testing.T) repositories.Store { return repositories.NewGORMStore(testutil.NewSQLiteDB(t)) },
}

// seededStore returns a store holding the ten starter dishes.
func seededStore(t *testing.T, newStore func(t *testing.T) repositories.Store) repositories.Store {
	t.Helper()
	store := newStore(t)
	n, err := database.SeedMenu(context.Background(), store.Dishes())
	require.NoError(t, err)
	require.Equal(t, 10, n)
	return store
}

// MockPublisher is a mock implementation of services.EventPublisher.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	args := m.Called(routingKey, payload)
	return args.Error(0)
}

// fakeClock is a settable clock for session expiry tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
