package helper

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDatabase(t *testing.T) {
	logger := slog.New(NewPrettyHandler(os.Stdout, PrettyHandlerOptions{}))

	t.Run("Valid call NewDatabase", func(t *testing.T) {
		config := &DatabaseConfiguration{Path: filepath.Join(t.TempDir(), "test.sqlite3")}
		db, err := NewDatabase("matcher", config, logger)
		assert.NoError(t, err, "Expected NewDatabase to not return an error")
		require.NotNil(t, db, "Expected NewDatabase to return a non-nil instance")
		require.NotNil(t, db.Instance, "Expected a non-nil database connection instance")
		defer db.Instance.Close()

		assert.NoError(t, db.Instance.Ping(), "Expected the connection to be alive")
	})

	t.Run("Invalid call NewDatabase with empty path", func(t *testing.T) {
		_, err := NewDatabase("matcher", &DatabaseConfiguration{}, logger)
		assert.Error(t, err, "Expected error for an empty database path")
		assert.ErrorIs(t, err, ErrConfiguration, "Expected a configuration error")
	})
}
