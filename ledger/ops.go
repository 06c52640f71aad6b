// Copyright 2026 The Deposit Services Authors
// SPDX-License-Identifier: Apache-2.0

package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/birkland/deposit-services/assembler"
	"github.com/birkland/deposit-services/deposit"
	"github.com/birkland/deposit-services/lib/codec"
)

const depositColumns = "id, submission_id, repository, package_path, specification, " +
	"archive, compression, size_bytes, checksums, status, statement_url, " +
	"created_at, updated_at"

// Record inserts a new deposit. An empty ID is assigned a UUID and an
// empty Status starts as submitted; both are written back to d, as
// are the created/updated timestamps.
func (l *Ledger) Record(ctx context.Context, d *Deposit) error {
	if d.SubmissionID == "" {
		return fmt.Errorf("ledger: record: submission id is required")
	}
	if d.Repository == "" {
		return fmt.Errorf("ledger: record: repository is required")
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.Status == "" {
		d.Status = deposit.StatusSubmitted
	}

	now := l.clock.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	var checksums any
	if len(d.Checksums) > 0 {
		blob, err := codec.Marshal(d.Checksums)
		if err != nil {
			return fmt.Errorf("ledger: encoding checksums: %w", err)
		}
		checksums = blob
	}

	conn, err := l.pool.Take(ctx)
	if err != nil {
		return fmt.Errorf("ledger: record: %w", err)
	}
	defer l.pool.Put(conn)

	err = sqlitex.Execute(conn, `INSERT INTO deposits
		(id, submission_id, repository, package_path, specification,
		 archive, compression, size_bytes, checksums, status,
		 statement_url, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{
			Args: []any{
				d.ID,
				d.SubmissionID,
				d.Repository,
				d.PackagePath,
				d.Specification,
				d.Archive.String(),
				d.Compression.String(),
				d.Size,
				checksums,
				string(d.Status),
				d.StatementURL,
				now.UnixNano(),
				now.UnixNano(),
			},
		})
	if err != nil {
		return fmt.Errorf("ledger: recording deposit %s: %w", d.ID, err)
	}

	l.logger.Info("deposit recorded",
		"id", d.ID,
		"submission", d.SubmissionID,
		"repository", d.Repository,
		"status", string(d.Status),
	)
	return nil
}

// Get returns the deposit with the given id, or ErrNotFound.
func (l *Ledger) Get(ctx context.Context, id string) (*Deposit, error) {
	conn, err := l.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: get: %w", err)
	}
	defer l.pool.Put(conn)

	var found *Deposit
	err = sqlitex.Execute(conn,
		"SELECT "+depositColumns+" FROM deposits WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				d, err := scanDeposit(stmt)
				if err != nil {
					return err
				}
				found = d
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("ledger: get %s: %w", id, err)
	}
	if found == nil {
		return nil, fmt.Errorf("ledger: deposit %s: %w", id, ErrNotFound)
	}
	return found, nil
}

// List returns deposits matching the filter, newest first.
func (l *Ledger) List(ctx context.Context, filter Filter) ([]*Deposit, error) {
	conn, err := l.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	defer l.pool.Put(conn)

	query := "SELECT " + depositColumns + " FROM deposits"
	var conditions []string
	var args []any
	if filter.Repository != "" {
		conditions = append(conditions, "repository = ?")
		args = append(args, filter.Repository)
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	var deposits []*Deposit
	err = sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(stmt *sqlite.Stmt) error {
			d, err := scanDeposit(stmt)
			if err != nil {
				return err
			}
			deposits = append(deposits, d)
			return nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("ledger: list: %w", err)
	}
	return deposits, nil
}

// Pending returns the deposits the status poller should watch:
// status submitted with a statement URL, oldest first.
func (l *Ledger) Pending(ctx context.Context) ([]*Deposit, error) {
	conn, err := l.pool.Take(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger: pending: %w", err)
	}
	defer l.pool.Put(conn)

	var deposits []*Deposit
	err = sqlitex.Execute(conn,
		"SELECT "+depositColumns+" FROM deposits "+
			"WHERE status = ? AND statement_url <> '' ORDER BY created_at, id",
		&sqlitex.ExecOptions{
			Args: []any{string(deposit.StatusSubmitted)},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				d, err := scanDeposit(stmt)
				if err != nil {
					return err
				}
				deposits = append(deposits, d)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("ledger: pending: %w", err)
	}
	return deposits, nil
}

// UpdateStatus moves a deposit to the given status. Terminal statuses
// are immutable: updating an accepted or rejected deposit returns
// changed=false with no error, as does a no-op update to the current
// status. Unknown ids return ErrNotFound.
func (l *Ledger) UpdateStatus(ctx context.Context, id string, next deposit.Status) (changed bool, err error) {
	conn, err := l.pool.Take(ctx)
	if err != nil {
		return false, fmt.Errorf("ledger: update status: %w", err)
	}
	defer l.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return false, fmt.Errorf("ledger: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	var current deposit.Status
	found := false
	err = sqlitex.Execute(conn,
		"SELECT status FROM deposits WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				parsed, err := deposit.ParseStatus(stmt.ColumnText(0))
				if err != nil {
					return err
				}
				current = parsed
				found = true
				return nil
			},
		})
	if err != nil {
		return false, fmt.Errorf("ledger: update status %s: %w", id, err)
	}
	if !found {
		return false, fmt.Errorf("ledger: deposit %s: %w", id, ErrNotFound)
	}
	if current.Terminal() || current == next {
		return false, nil
	}

	err = sqlitex.Execute(conn,
		"UPDATE deposits SET status = ?, updated_at = ? WHERE id = ?",
		&sqlitex.ExecOptions{
			Args: []any{string(next), l.clock.Now().UTC().UnixNano(), id},
		})
	if err != nil {
		return false, fmt.Errorf("ledger: update status %s: %w", id, err)
	}

	l.logger.Info("deposit status updated",
		"id", id,
		"from", string(current),
		"to", string(next),
	)
	return true, nil
}

// scanDeposit reads one row of depositColumns.
func scanDeposit(stmt *sqlite.Stmt) (*Deposit, error) {
	// Columns: id(0), submission_id(1), repository(2),
	// package_path(3), specification(4), archive(5), compression(6),
	// size_bytes(7), checksums(8), status(9), statement_url(10),
	// created_at(11), updated_at(12)
	d := &Deposit{
		ID:            stmt.ColumnText(0),
		SubmissionID:  stmt.ColumnText(1),
		Repository:    stmt.ColumnText(2),
		PackagePath:   stmt.ColumnText(3),
		Specification: stmt.ColumnText(4),
		Size:          stmt.ColumnInt64(7),
		StatementURL:  stmt.ColumnText(10),
		CreatedAt:     time.Unix(0, stmt.ColumnInt64(11)).UTC(),
		UpdatedAt:     time.Unix(0, stmt.ColumnInt64(12)).UTC(),
	}

	archive, err := assembler.ParseArchiveFormat(stmt.ColumnText(5))
	if err != nil {
		return nil, fmt.Errorf("deposit %s: %w", d.ID, err)
	}
	d.Archive = archive

	compression, err := assembler.ParseCompression(stmt.ColumnText(6))
	if err != nil {
		return nil, fmt.Errorf("deposit %s: %w", d.ID, err)
	}
	d.Compression = compression

	if !stmt.ColumnIsNull(8) {
		blob := make([]byte, stmt.ColumnLen(8))
		stmt.ColumnBytes(8, blob)
		if err := codec.Unmarshal(blob, &d.Checksums); err != nil {
			return nil, fmt.Errorf("deposit %s: decoding checksums: %w", d.ID, err)
		}
	}

	status, err := deposit.ParseStatus(stmt.ColumnText(9))
	if err != nil {
		return nil, fmt.Errorf("deposit %s: %w", d.ID, err)
	}
	d.Status = status

	return d, nil
}
