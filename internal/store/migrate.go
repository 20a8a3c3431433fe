package store

import (
	"embed"
	"errors"
	"fmt"
	"strings"

	migrate "github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Source returns the embedded schema migrations.
func Source() (source.Driver, error) {
	return iofs.New(migrations, "migrations")
}

// Migrate applies every pending migration to the database at databaseURL.
func Migrate(databaseURL string) error {
	src, err := Source()
	if err != nil {
		return fmt.Errorf("store: open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, MigrateURL(databaseURL))
	if err != nil {
		return fmt.Errorf("store: init migrate: %w", err)
	}
	defer m.Close()
	return RunMigrations(m)
}

// RunMigrations runs m up, treating an already current schema as success.
func RunMigrations(m *migrate.Migrate) error {
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}
	return nil
}

// MigrateURL rewrites a postgres URL to the pgx/v5 migrate driver scheme.
func MigrateURL(databaseURL string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(databaseURL, scheme) {
			return "pgx5://" + strings.TrimPrefix(databaseURL, scheme)
		}
	}
	return databaseURL
}
