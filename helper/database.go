package helper

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// DatabaseConfiguration holds the location of the embedded store.
type DatabaseConfiguration struct {
	Path string
}

// Database wraps the embedded sqlite connection shared by all handlers.
type Database struct {
	Name     string
	Instance *sql.DB
	Logger   *slog.Logger
}

// NewDatabase opens the sqlite database at the configured path. WAL mode and
// a busy timeout keep concurrent short transactions from failing on lock
// contention; foreign keys must be enabled per connection in sqlite.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) (*Database, error) {
	if config == nil || config.Path == "" {
		return nil, NewError("open database", fmt.Errorf("%w: database path is empty", ErrConfiguration))
	}

	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=1", config.Path)
	instance, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, NewError("open database", err)
	}

	err = instance.Ping()
	if err != nil {
		return nil, NewError("ping database", errors.Join(err, instance.Close()))
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("path", config.Path))

	return &Database{
		Name:     name,
		Instance: instance,
		Logger:   logger,
	}, nil
}
