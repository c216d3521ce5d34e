package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// tx implements types.Tx over a SQLite transaction.
type tx struct {
	ctx      context.Context
	tx       *sql.Tx
	now      func() time.Time
	readOnly bool
}

func (t *tx) timestamp() string {
	return t.now().UTC().Format(time.RFC3339Nano)
}

func (t *tx) Create(addr types.Address, data []byte, space int) error {
	if t.readOnly {
		return types.ErrReadOnly
	}
	if len(data) > space {
		return types.ErrSpaceExceeded
	}
	var one int
	err := t.tx.QueryRowContext(t.ctx, `SELECT 1 FROM records WHERE address = ?`, addr.String()).Scan(&one)
	if err == nil {
		return types.ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking address: %w", err)
	}
	ts := t.timestamp()
	_, err = t.tx.ExecContext(t.ctx,
		`INSERT INTO records (address, space, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		addr.String(), space, nonNil(data), ts, ts)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

func (t *tx) Read(addr types.Address) ([]byte, error) {
	var data []byte
	err := t.tx.QueryRowContext(t.ctx, `SELECT data FROM records WHERE address = ?`, addr.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	return data, nil
}

func (t *tx) Write(addr types.Address, data []byte) error {
	if t.readOnly {
		return types.ErrReadOnly
	}
	var space int
	err := t.tx.QueryRowContext(t.ctx, `SELECT space FROM records WHERE address = ?`, addr.String()).Scan(&space)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("reading record space: %w", err)
	}
	if len(data) > space {
		return types.ErrSpaceExceeded
	}
	_, err = t.tx.ExecContext(t.ctx,
		`UPDATE records SET data = ?, updated_at = ? WHERE address = ?`,
		nonNil(data), t.timestamp(), addr.String())
	if err != nil {
		return fmt.Errorf("updating record: %w", err)
	}
	return nil
}

func (t *tx) Delete(addr types.Address) error {
	if t.readOnly {
		return types.ErrReadOnly
	}
	res, err := t.tx.ExecContext(t.ctx, `DELETE FROM records WHERE address = ?`, addr.String())
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// nonNil keeps empty records from being stored as NULL.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
