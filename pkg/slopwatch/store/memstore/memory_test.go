package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, found, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	require.False(t, found)

	blob := []byte(`{"a":1}`)
	require.NoError(t, s.Save(ctx, "slopwatch:one", blob))
	blob[0] = 'X'

	got, found, err := s.Load(ctx, "slopwatch:one")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, s.Save(ctx, "slopwatch:two", nil))
	require.NoError(t, s.Save(ctx, "other", nil))
	keys, err := s.Keys(ctx, "slopwatch:")
	require.NoError(t, err)
	require.Equal(t, []string{"slopwatch:one", "slopwatch:two"}, keys)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, New().Save(ctx, "k", nil), context.Canceled)
}
