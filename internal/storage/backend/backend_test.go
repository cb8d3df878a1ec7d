package backend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	t.Run("sqlite in memory", func(t *testing.T) {
		store, err := Open(context.Background(), DriverSQLite, ":memory:")
		require.NoError(t, err)
		defer store.Close()

		users, err := store.ListUsers(context.Background())
		require.NoError(t, err)
		assert.Empty(t, users)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open(context.Background(), "mysql", "whatever")
		assert.ErrorContains(t, err, `unsupported database driver "mysql"`)
	})
}
