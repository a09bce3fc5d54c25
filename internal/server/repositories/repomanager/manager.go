// Package repomanager opens the bookmark database for the configured driver,
// runs its goose migrations and vends repositories bound to a DBTX.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/deltacheats/internal/common"
	"github.com/dmitrijs2005/deltacheats/internal/dbx"
	"github.com/dmitrijs2005/deltacheats/internal/server/repositories/bookmarks"
	"github.com/pressly/goose/v3"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Bookmarks(db dbx.DBTX) bookmarks.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// sqlOpen is a seam for testing sql.Open.
var sqlOpen = sql.Open

// Open connects to the bookmark database, runs migrations and returns the
// matching manager.
func Open(ctx context.Context, driver, dsn string) (*sql.DB, RepositoryManager, error) {
	var (
		m          RepositoryManager
		driverName string
	)
	switch driver {
	case DriverSQLite, "":
		m, driverName = NewSQLiteRepositoryManager(), "sqlite"
	case DriverPostgres:
		m, driverName = NewPostgresRepositoryManager(), "pgx"
	default:
		return nil, nil, fmt.Errorf("%w: unknown bookmarks driver %q", common.ErrInputValidation, driver)
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driverName == "sqlite" {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate %s: %w", driver, err)
	}
	return db, m, nil
}
