package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaCreationIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, initSchema(ctx, db), "iteration %d", i)
	}

	var count int
	require.NoError(t, db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%'").Scan(&count))
	require.Equal(t, 1, count)
}

func TestSaveLoadAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "snapshots.db")

	st, err := Open(ctx, path)
	require.NoError(t, err)

	_, found, err := st.Load(ctx, "slopwatch:chat")
	require.NoError(t, err)
	require.False(t, found)

	require.NoError(t, st.Save(ctx, "slopwatch:chat", []byte("first")))
	require.NoError(t, st.Save(ctx, "slopwatch:chat", []byte("second")))
	require.NoError(t, st.Save(ctx, "slopwatch:other", []byte("x")))
	require.NoError(t, st.Save(ctx, "unrelated", nil))
	require.NoError(t, st.Close())

	st, err = Open(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	blob, found, err := st.Load(ctx, "slopwatch:chat")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "second", string(blob))

	keys, err := st.Keys(ctx, "slopwatch:")
	require.NoError(t, err)
	require.Equal(t, []string{"slopwatch:chat", "slopwatch:other"}, keys)
}
