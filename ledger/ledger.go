// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"fmt"
	"io"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/birkland/deposit-services/lib/clock"
)

// Config holds the parameters for opening a ledger.
type Config struct {
	// Path is the filesystem path to the SQLite database file,
	// created if it does not exist.
	Path string

	// PoolSize is the number of connections in the pool. Defaults to
	// 4 if zero or negative. SQLite serializes writes regardless of
	// pool size; extra connections serve concurrent reads.
	PoolSize int

	// Clock provides timestamps for created_at and updated_at.
	// Defaults to the real clock.
	Clock clock.Clock

	// Logger receives operational messages. nil discards.
	Logger *slog.Logger
}

// Ledger is the deposit record store. Safe for concurrent use; each
// operation borrows a pooled connection for its duration.
type Ledger struct {
	pool   *sqlitex.Pool
	clock  clock.Clock
	logger *slog.Logger
	path   string
}

const depositsSchema = `
CREATE TABLE IF NOT EXISTS deposits (
    id            TEXT PRIMARY KEY,
    submission_id TEXT NOT NULL,
    repository    TEXT NOT NULL,
    package_path  TEXT NOT NULL,
    specification TEXT NOT NULL,
    archive       TEXT NOT NULL,
    compression   TEXT NOT NULL,
    size_bytes    INTEGER NOT NULL,
    checksums     BLOB,
    status        TEXT NOT NULL,
    statement_url TEXT,
    created_at    INTEGER NOT NULL,
    updated_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS deposits_by_repository
    ON deposits(repository, status);

CREATE INDEX IF NOT EXISTS deposits_by_status
    ON deposits(status);
`

// Open creates the connection pool, applies the standard pragmas to
// every connection, and ensures the schema exists. The caller must
// Close the ledger when done.
func Open(cfg Config) (*Ledger, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("ledger: Path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitex.NewPool(cfg.Path, sqlitex.PoolOptions{
		PoolSize:    poolSize,
		PrepareConn: prepareConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: opening %s: %w", cfg.Path, err)
	}

	logger.Info("ledger opened", "path", cfg.Path, "pool_size", poolSize)

	return &Ledger{
		pool:   pool,
		clock:  clk,
		logger: logger,
		path:   cfg.Path,
	}, nil
}

// Close closes the pool. Blocks until borrowed connections are
// returned.
func (l *Ledger) Close() error {
	if err := l.pool.Close(); err != nil {
		return fmt.Errorf("ledger: closing %s: %w", l.path, err)
	}
	l.logger.Info("ledger closed", "path", l.path)
	return nil
}

// prepareConnection applies the standard pragmas and ensures the
// schema. Runs once per pooled connection, on first use.
func prepareConnection(conn *sqlite.Conn) error {
	// WAL mode: concurrent readers, single writer, no reader
	// blocking.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=OFF",
		"PRAGMA cache_size=-8192",
		"PRAGMA temp_store=MEMORY",
	}
	for _, pragma := range pragmas {
		if err := sqlitex.ExecuteTransient(conn, pragma, nil); err != nil {
			return fmt.Errorf("ledger: %s: %w", pragma, err)
		}
	}

	if err := sqlitex.ExecuteScript(conn, depositsSchema, nil); err != nil {
		return fmt.Errorf("ledger: creating schema: %w", err)
	}
	return nil
}
