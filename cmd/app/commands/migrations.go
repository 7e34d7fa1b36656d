package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/astroeyes/authcore/internal/config"
)

// migrationDirs maps DB_DRIVER to its migrations directory, relative to the working directory.
var migrationDirs = map[string]string{
	config.DriverPostgres: "file://migrations/postgresql",
	config.DriverMySQL:    "file://migrations/mysql",
}

// RunMigrations applies every pending migration for driver. The memory driver
// has no schema and is a no-op.
func RunMigrations(logger *slog.Logger, driver, connectionString string) error {
	if driver == config.DriverMemory {
		logger.Info("memory driver has no migrations to run")
		return nil
	}

	migrationsPath, ok := migrationDirs[driver]
	if !ok {
		return fmt.Errorf("unsupported database driver: %s", driver)
	}

	logger.Info("running database migrations", slog.String("driver", driver))

	m, err := migrate.New(migrationsPath, connectionString)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer closeMigrate(m, logger)

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("migrations completed successfully")
	return nil
}
