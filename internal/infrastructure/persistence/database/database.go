// Package database provides the core functionality for creating and managing
// the TapX database connection.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BrightFrames/tapx-go/internal/infrastructure/observability/logging"
	"github.com/BrightFrames/tapx-go/pkg/config"
	_ "github.com/mattn/go-sqlite3"                      // SQLite driver
	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
)

// DB wraps the standard SQL connection with the driver it was opened with.
type DB struct {
	*sql.DB
	UseTurso bool
}

// Open establishes the database connection. Turso is preferred when
// credentials are configured; local SQLite is the fallback.
func Open(logger *logging.ChanneledLogger) (*DB, error) {
	if config.TursoDatabase != "" && config.TursoToken != "" {
		connStr := config.TursoDatabase + "?authToken=" + config.TursoToken
		conn, err := sql.Open("libsql", connStr)
		if err == nil {
			if pingErr := conn.Ping(); pingErr == nil {
				logger.Database().Info("Database connection established", "driver", "libsql")
				return configurePool(&DB{DB: conn, UseTurso: true}), nil
			}
			conn.Close()
		}
		logger.Database().Warn("Turso connection failed, falling back to SQLite")
	}

	dbDir := filepath.Dir(config.SQLitePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", config.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("SQLite database ping failed: %w", err)
	}

	logger.Database().Info("Database connection established", "driver", "sqlite3", "path", config.SQLitePath)
	return configurePool(&DB{DB: conn, UseTurso: false}), nil
}

// OpenMemory opens an in-memory SQLite database. Used by tests.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	// In-memory databases vanish when their sole connection closes.
	conn.SetMaxOpenConns(1)
	return &DB{DB: conn}, nil
}

func configurePool(db *DB) *DB {
	db.SetMaxOpenConns(config.DBMaxOpenConns)
	db.SetMaxIdleConns(config.DBMaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute)
	return db
}

// ConnectionInfo returns a string describing the database connection
func (db *DB) ConnectionInfo() string {
	if db.UseTurso {
		return "Turso"
	}
	return "SQLite"
}
