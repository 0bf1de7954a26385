package db

import (
	"context"
	"database/sql"
)

// Database is a connection to the snapshot store.
type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
	// Ping reports whether the store is reachable, for health checks.
	Ping(ctx context.Context) error
}
