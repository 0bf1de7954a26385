package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dfryer1193/spacetraveling/shared/db"
	_ "modernc.org/sqlite"
)

const (
	// DefaultPath is the default path for the SQLite database
	DefaultPath        = "./spacetraveling.db"
	defaultBusyTimeout = 5 * time.Second
	memoryPath         = ":memory:"
)

var _ db.Database = (*SQLiteDB)(nil)

type SQLiteConfig struct {
	Path string
	// BusyTimeout is how long a statement waits for a locked database.
	BusyTimeout time.Duration
}

// NewSQLiteConfig returns a config for path, falling back to DefaultPath.
func NewSQLiteConfig(path string) *SQLiteConfig {
	if path == "" {
		path = DefaultPath
	}

	return &SQLiteConfig{
		Path:        path,
		BusyTimeout: defaultBusyTimeout,
	}
}

// SQLiteDB implements the db.Database interface for SQLite
type SQLiteDB struct {
	dbPath      string
	busyTimeout time.Duration
	db          *sql.DB
}

// NewSQLiteDB creates a new SQLite database instance
func NewSQLiteDB(cfg *SQLiteConfig) *SQLiteDB {
	busyTimeout := cfg.BusyTimeout
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeout
	}
	return &SQLiteDB{
		dbPath:      cfg.Path,
		busyTimeout: busyTimeout,
	}
}

// Connect opens a connection to the SQLite database and applies pending migrations
func (s *SQLiteDB) Connect() error {
	if s.db != nil {
		return fmt.Errorf("database already connected")
	}

	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Every connection to :memory: opens its own empty database
	if s.dbPath == memoryPath {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	for _, pragma := range s.pragmas() {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	s.db = db
	return nil
}

func (s *SQLiteDB) pragmas() []string {
	pragmas := []string{
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		fmt.Sprintf("PRAGMA busy_timeout=%d", s.busyTimeout.Milliseconds()),
		"PRAGMA cache_size=-16000", // 16MB, negative means KB
	}
	// WAL needs a file
	if s.dbPath != memoryPath {
		pragmas = append([]string{"PRAGMA journal_mode=WAL"}, pragmas...)
	}
	return pragmas
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	if s.db == nil {
		return nil
	}

	err := s.db.Close()
	s.db = nil
	return err
}

// DB returns the underlying *sql.DB instance
func (s *SQLiteDB) DB() *sql.DB {
	return s.db
}

// Ping checks that the database is connected and answering.
func (s *SQLiteDB) Ping(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not connected")
	}
	return s.db.PingContext(ctx)
}
