package database

import (
	"embed"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

//go:embed migrations
var migrationFS embed.FS

// Migrate applies the embedded migrations for the connection's driver.
// Running it against an up-to-date schema is a no-op.
func Migrate(db *DB) error {
	src, err := iofs.New(migrationFS, "migrations/"+db.Driver)
	if err != nil {
		return errors.Wrap(err, "open migration source")
	}

	var driver migratedb.Driver
	switch db.Driver {
	case DriverPostgres:
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
	case DriverSQLite:
		driver, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	default:
		return errors.Errorf("no migrations for driver %q", db.Driver)
	}
	if err != nil {
		return errors.Wrap(err, "init migration driver")
	}

	m, err := migrate.NewWithInstance("iofs", src, db.Driver, driver)
	if err != nil {
		return errors.Wrap(err, "init migrator")
	}
	// m.Close would also close the shared pool, so only the source is released.
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return errors.Wrap(err, "migration failed")
	}
	return nil
}
