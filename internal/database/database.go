package database

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Type string

const (
	PostgreSQL Type = "postgresql"
	SQLite     Type = "sqlite"
)

type Options struct {
	Type Type
	URI  string

	// Verbose makes gorm log every statement.
	Verbose bool
}

// sqlite returns SQLITE_BUSY right away unless told to wait.
const busyTimeout = "_busy_timeout=5000"

func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch opts.Type {
	case SQLite:
		dialector = sqlite.Open(withBusyTimeout(sharedMemory(opts.URI)))
	case PostgreSQL:
		dialector = postgres.Open(opts.URI)
	default:
		return nil, fmt.Errorf("unknown database type: %v", opts.Type)
	}

	level := logger.Silent
	if opts.Verbose {
		level = logger.Info
	}

	return gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(level),
	})
}

func withBusyTimeout(uri string) string {
	if strings.Contains(uri, "_busy_timeout") {
		return uri
	}

	if strings.Contains(uri, "?") {
		return uri + "&" + busyTimeout
	}

	return uri + "?" + busyTimeout
}

// sharedMemory makes every pooled connection see the same in-memory
// database. Without a shared cache each connection opens its own, empty one.
// Plain ":memory:" gets a fresh name so separate Opens stay isolated.
func sharedMemory(uri string) string {
	if uri == ":memory:" || uri == "file::memory:" {
		return "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	}

	if !strings.Contains(uri, "mode=memory") || strings.Contains(uri, "cache=shared") {
		return uri
	}

	if strings.Contains(uri, "?") {
		return uri + "&cache=shared"
	}

	return uri + "?cache=shared"
}
