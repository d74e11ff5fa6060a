// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file contains database bootstrapping helpers for
// SQLite (pure Go driver) and schema migrations.
package repo

import (
	"net/url"
	"strings"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-meetmerge-backend/internal/domain"
	"github.com/tbourn/go-meetmerge-backend/internal/sysutil"
)

// pragmas are attached to the DSN so every pooled connection gets them,
// not only the one that happened to run a PRAGMA statement.
var pragmas = []string{
	"foreign_keys(1)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"busy_timeout(5000)",
}

// DSN appends the connection PRAGMAs to a SQLite path or URI.
func DSN(path string) string {
	q := url.Values{}
	for _, p := range pragmas {
		q.Add("_pragma", p)
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + q.Encode()
}

// OpenSQLite opens (or creates) a SQLite database at path, creating the parent
// directory when needed.
//
// The pool is capped at a single connection. SQLite allows one writer at a
// time, and funnelling every transaction through one connection turns lock
// contention into ordinary queueing instead of SQLITE_BUSY errors.
func OpenSQLite(path string) (*gorm.DB, error) {
	if err := sysutil.EnsureParentDir(path); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(DSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxIdleTime(0)
	sqlDB.SetConnMaxLifetime(0)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates the polls, slots and votes tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Poll{},
		&domain.Slot{},
		&domain.Vote{},
	)
}
