// Package sqlite provides SQLite database operations for attune.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// StoreConfig holds database configuration.
type StoreConfig struct {
	Path     string // Path to SQLite database file
	MaxConns int    // Maximum number of open connections (default: 4)
	WALMode  bool   // Enable WAL journal mode
}

// Store represents the SQLite database connection. GORM is used for schema
// migrations; all hot-path queries run over the raw *sql.DB with a prepared
// statement cache.
type Store struct {
	db        *sql.DB
	gormDB    *gorm.DB
	stmtCache map[string]*sql.Stmt
	stmtMu    sync.RWMutex
}

// NewStore opens the database, runs migrations, and applies pragmas.
func NewStore(cfg StoreConfig) (*Store, error) {
	// Foreign keys must be set per-connection, so they go in the DSN.
	dsn := cfg.Path + "?_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 4
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(0) // SQLite connections are cheap, never expire

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Wrap the existing connection with GORM for migrations only.
	gormDB, err := gorm.Open(gormsqlite.Dialector{
		DriverName: "sqlite",
		Conn:       db,
	}, &gorm.Config{
		Logger:      logger.Default.LogMode(logger.Silent),
		PrepareStmt: false,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open gorm: %w", err)
	}

	if err := runMigrations(gormDB); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if cfg.WALMode {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set synchronous mode: %w", err)
		}
	}
	// Retry instead of failing immediately when the database is locked.
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return &Store{
		db:        db,
		gormDB:    gormDB,
		stmtCache: make(map[string]*sql.Stmt),
	}, nil
}

// GetStmt returns a cached prepared statement for the query.
func (s *Store) GetStmt(query string) (*sql.Stmt, error) {
	s.stmtMu.RLock()
	stmt, ok := s.stmtCache[query]
	s.stmtMu.RUnlock()
	if ok {
		return stmt, nil
	}

	s.stmtMu.Lock()
	defer s.stmtMu.Unlock()

	// Re-check under write lock
	if stmt, ok := s.stmtCache[query]; ok {
		return stmt, nil
	}

	stmt, err := s.db.Prepare(query)
	if err != nil {
		return nil, err
	}
	s.stmtCache[query] = stmt
	return stmt, nil
}

// ExecContext executes a query without returning rows, using the statement
// cache.
func (s *Store) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	stmt, err := s.GetStmt(query)
	if err != nil {
		return nil, err
	}
	return stmt.ExecContext(ctx, args...)
}

// QueryContext executes a query that returns rows, using the statement cache.
func (s *Store) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	stmt, err := s.GetStmt(query)
	if err != nil {
		return nil, err
	}
	return stmt.QueryContext(ctx, args...)
}

// QueryRowContext executes a query that returns at most one row, using the
// statement cache. Falls back to a direct query when preparation fails so the
// error surfaces through Row.Scan.
func (s *Store) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	stmt, err := s.GetStmt(query)
	if err != nil {
		return s.db.QueryRowContext(ctx, query, args...)
	}
	return stmt.QueryRowContext(ctx, args...)
}

// BeginTx starts a transaction.
func (s *Store) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return s.db.BeginTx(ctx, nil)
}

// Ping verifies the database connection is alive.
func (s *Store) Ping() error {
	return s.db.Ping()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes cached statements and the database connection.
func (s *Store) Close() error {
	s.stmtMu.Lock()
	for _, stmt := range s.stmtCache {
		_ = stmt.Close()
	}
	s.stmtCache = make(map[string]*sql.Stmt)
	s.stmtMu.Unlock()

	return s.db.Close()
}
