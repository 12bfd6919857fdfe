package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Both backends must behave identically from the caller's side.
func storeImpls(t *testing.T) map[string]Store {
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestGetMissingKey(t *testing.T) {
	ctx := context.Background()
	for name, s := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Get(ctx, "report:nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, s := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "report:abc", []byte(`{"reportId":"abc"}`)))
			got, err := s.Get(ctx, "report:abc")
			require.NoError(t, err)
			assert.Equal(t, `{"reportId":"abc"}`, string(got))
		})
	}
}

func TestScanPrefix(t *testing.T) {
	ctx := context.Background()
	for name, s := range storeImpls(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, s.Set(ctx, "report:a", []byte("1")))
			require.NoError(t, s.Set(ctx, "report:b", []byte("2")))
			require.NoError(t, s.Set(ctx, "session:c", []byte("3")))

			got, err := s.Scan(ctx, "report:")
			require.NoError(t, err)
			assert.Len(t, got, 2)
			assert.Contains(t, got, "report:a")
			assert.Contains(t, got, "report:b")
			assert.NotContains(t, got, "session:c")
		})
	}
}

func TestNewDefaultsToMemory(t *testing.T) {
	s, err := New(Config{})
	require.NoError(t, err)
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)
}

func TestNewUnknownBackend(t *testing.T) {
	_, err := New(Config{Backend: "dynamo"})
	assert.Error(t, err)
}
