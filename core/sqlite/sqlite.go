// Package sqlite opens SQLite databases through either the pure Go driver
// (modernc.org/sqlite) or the CGO driver (mattn/go-sqlite3).
//
// Build modes:
//   - Default (CGO_ENABLED=0): modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags cgo_sqlite): github.com/mattn/go-sqlite3
//
// Use Open instead of sql.Open so the driver name always matches the build.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// DriverName returns the SQL driver name registered by the build.
func DriverName() string {
	return driverName
}

// DriverType returns "cgo" for mattn/go-sqlite3 and "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database using the build's driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens an existing SQLite database in read-only mode and checks
// that it can be reached.
func OpenReadOnly(ctx context.Context, path string) (*sql.DB, error) {
	db, err := Open("file:" + path + "?mode=ro")
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	return db, nil
}

// WithTx runs fn inside a transaction, committing when fn succeeds and
// rolling back otherwise.
func WithTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
