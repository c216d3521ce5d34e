// Package sqlite implements the persistent keyed record store.
//
// records.jsonl in the data directory is the source of truth. On Attach a
// fresh SQLite database is built from it; transactions run against SQLite
// and committed state is written back to records.jsonl according to the
// configured sync strategy.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Compile-time check that Backend satisfies the backend contract.
var _ types.Backend = (*Backend)(nil)

// Backend implements types.Backend using SQLite as the transaction engine and
// a JSONL file as the source of truth.
type Backend struct {
	mu       sync.RWMutex // write-locked for the whole of an Update
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
	now      func() time.Time

	// Sync strategy state.
	syncStrategy  string
	batchSize     int
	batchInterval time.Duration
	pendingWrites int         // committed transactions not yet in records.jsonl
	batchTimer    *time.Timer // interval-based batch flush
	batchMu       sync.Mutex  // protects pendingWrites and batchTimer
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{now: time.Now}
}

// Attach validates config, creates DataDir if needed, rebuilds the SQLite
// database and loads records.jsonl into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// The database is a cache of records.jsonl; start from an empty one.
	dbPath := filepath.Join(dataDir, dbFileName)
	for _, suffix := range []string{"", "-wal", "-shm"} {
		_ = os.Remove(dbPath + suffix)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	// SQLite has a single writer; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := initSchema(db); err != nil {
		db.Close()
		return err
	}

	jsonlPath := filepath.Join(dataDir, recordsJSONL)
	if err := ensureJSONL(jsonlPath); err != nil {
		db.Close()
		return err
	}
	if err := loadRecords(db, jsonlPath); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.syncStrategy = config.SQLiteConfig.GetSyncStrategy()
	b.batchSize = config.SQLiteConfig.GetBatchSize()
	b.batchInterval = time.Duration(config.SQLiteConfig.GetBatchInterval()) * time.Second
	b.pendingWrites = 0
	b.attached = true

	if b.syncStrategy == types.SyncBatch && b.batchInterval > 0 {
		b.startBatchTimer()
	}
	return nil
}

// Detach flushes pending writes and closes the database. Idempotent.
func (b *Backend) Detach() error {
	b.stopBatchTimer()

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if err := b.flushLocked(); err != nil {
		return fmt.Errorf("flush pending writes: %w", err)
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// Update runs fn in a SQLite transaction and commits it if fn returns nil.
// With the immediate strategy records.jsonl is rewritten before the commit,
// and a failed write rolls the transaction back, so an error always means
// nothing changed. Other strategies commit and queue the write.
func (b *Backend) Update(ctx context.Context, fn func(tx types.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrDetached
	}

	sqlTx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(&tx{ctx: ctx, tx: sqlTx, now: b.now}); err != nil {
		_ = sqlTx.Rollback()
		return err
	}

	if b.persistsImmediately() {
		if err := b.persistRecords(sqlTx); err != nil {
			_ = sqlTx.Rollback()
			return fmt.Errorf("persist records: %w", err)
		}
		if err := sqlTx.Commit(); err != nil {
			// records.jsonl holds the uncommitted state; rewrite it from the database.
			_ = b.persistRecords(b.db)
			return fmt.Errorf("commit transaction: %w", err)
		}
		return nil
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	b.recordCommit()
	return nil
}

// View runs fn in a transaction that is always rolled back. Writes fail with
// ErrReadOnly.
func (b *Backend) View(ctx context.Context, fn func(tx types.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrDetached
	}

	sqlTx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer sqlTx.Rollback()
	return fn(&tx{ctx: ctx, tx: sqlTx, now: b.now, readOnly: true})
}

// Flush writes all committed records to records.jsonl now, whatever the
// sync strategy.
func (b *Backend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.attached {
		return types.ErrDetached
	}
	return b.flushLocked()
}

// Pending returns the number of commits not yet persisted to JSONL.
func (b *Backend) Pending() int {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()
	return b.pendingWrites
}

func initSchema(db *sql.DB) error {
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt, err)
		}
	}
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// loadRecords inserts every valid line of records.jsonl into db. Lines with
// a malformed address are skipped like malformed JSON.
func loadRecords(db *sql.DB, path string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO records (address, space, data, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	err = readJSONL(path, func(line []byte) error {
		var rec recordJSON
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil
		}
		if _, err := types.ParseAddress(rec.Address); err != nil {
			return nil
		}
		if rec.Data == nil {
			rec.Data = []byte{}
		}
		_, err := stmt.Exec(rec.Address, rec.Space, rec.Data, rec.CreatedAt, rec.UpdatedAt)
		return err
	})
	if err != nil {
		return err
	}
	return tx.Commit()
}

// querier is the query side shared by *sql.DB and *sql.Tx.
type querier interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

// persistRecords writes the records table as seen by q to records.jsonl.
// The caller must hold b.mu.
func (b *Backend) persistRecords(q querier) error {
	rows, err := q.Query(`SELECT address, space, data, created_at, updated_at FROM records ORDER BY address`)
	if err != nil {
		return fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	return writeJSONL(filepath.Join(b.dataDir, recordsJSONL), func(enc *json.Encoder) error {
		for rows.Next() {
			var rec recordJSON
			if err := rows.Scan(&rec.Address, &rec.Space, &rec.Data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
				return fmt.Errorf("scanning record: %w", err)
			}
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return rows.Err()
	})
}

// Sync strategy handling.

func (b *Backend) persistsImmediately() bool {
	return b.syncStrategy == types.SyncImmediate || b.syncStrategy == ""
}

// recordCommit counts a committed transaction as pending and flushes when
// the batch is full. A failed flush leaves the writes pending; Flush and
// Detach retry and report it. The caller must hold b.mu.
func (b *Backend) recordCommit() {
	b.batchMu.Lock()
	b.pendingWrites++
	full := b.syncStrategy == types.SyncBatch && b.batchSize > 0 && b.pendingWrites >= b.batchSize
	b.batchMu.Unlock()

	if full {
		_ = b.flushLocked()
	}
}

// flushLocked persists records if any commit is pending.
// The caller must hold b.mu.
func (b *Backend) flushLocked() error {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.pendingWrites == 0 {
		return nil
	}
	if err := b.persistRecords(b.db); err != nil {
		return err
	}
	b.pendingWrites = 0
	return nil
}

// startBatchTimer starts periodic flushes for the batch strategy.
func (b *Backend) startBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(b.batchInterval, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if !b.attached {
			return
		}
		_ = b.flushLocked()

		b.batchMu.Lock()
		if b.batchTimer == timer {
			timer.Reset(b.batchInterval)
		}
		b.batchMu.Unlock()
	})
	b.batchTimer = timer
}

// stopBatchTimer stops the batch timer if running.
func (b *Backend) stopBatchTimer() {
	b.batchMu.Lock()
	defer b.batchMu.Unlock()

	if b.batchTimer != nil {
		b.batchTimer.Stop()
		b.batchTimer = nil
	}
}
