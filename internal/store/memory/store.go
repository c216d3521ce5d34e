// Package memory provides an in-memory keyed record store used for tests and
// ephemeral environments.
package memory

import (
	"context"
	"sync"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Compile-time check that Store satisfies the backend contract.
var _ types.Backend = (*Store)(nil)

type entry struct {
	data  []byte
	space int
}

// Store keeps records in a map guarded by a mutex. Update holds the write
// lock for the whole transaction, so transactions are serialized.
type Store struct {
	mu       sync.RWMutex
	attached bool
	records  map[types.Address]entry
}

// NewStore returns an attached, empty store.
func NewStore() *Store {
	return &Store{attached: true, records: map[types.Address]entry{}}
}

// Attach resets the store to empty and marks it attached.
func (s *Store) Attach(config types.Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached {
		return types.ErrAlreadyAttached
	}
	s.attached = true
	s.records = map[types.Address]entry{}
	return nil
}

// Detach drops all records. Idempotent.
func (s *Store) Detach() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached = false
	s.records = nil
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Update runs fn in a read-write transaction. Changes are staged and applied
// only if fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(tx types.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.attached {
		return types.ErrDetached
	}

	tx := &transaction{base: s.records, staged: map[types.Address]*entry{}}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for addr, e := range tx.staged {
		if e == nil {
			delete(s.records, addr)
			continue
		}
		s.records[addr] = *e
	}
	return nil
}

// View runs fn in a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(tx types.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.attached {
		return types.ErrDetached
	}
	return fn(&transaction{base: s.records, readOnly: true})
}

// transaction overlays staged changes on the committed records. A nil staged
// entry marks a deletion.
type transaction struct {
	base     map[types.Address]entry
	staged   map[types.Address]*entry
	readOnly bool
}

func (t *transaction) lookup(addr types.Address) (entry, bool) {
	if e, ok := t.staged[addr]; ok {
		if e == nil {
			return entry{}, false
		}
		return *e, true
	}
	e, ok := t.base[addr]
	return e, ok
}

func (t *transaction) Create(addr types.Address, data []byte, space int) error {
	if t.readOnly {
		return types.ErrReadOnly
	}
	if _, ok := t.lookup(addr); ok {
		return types.ErrAlreadyExists
	}
	if len(data) > space {
		return types.ErrSpaceExceeded
	}
	t.staged[addr] = &entry{data: clone(data), space: space}
	return nil
}

func (t *transaction) Read(addr types.Address) ([]byte, error) {
	e, ok := t.lookup(addr)
	if !ok {
		return nil, types.ErrNotFound
	}
	return clone(e.data), nil
}

func (t *transaction) Write(addr types.Address, data []byte) error {
	if t.readOnly {
		return types.ErrReadOnly
	}
	e, ok := t.lookup(addr)
	if !ok {
		return types.ErrNotFound
	}
	if len(data) > e.space {
		return types.ErrSpaceExceeded
	}
	t.staged[addr] = &entry{data: clone(data), space: e.space}
	return nil
}

func (t *transaction) Delete(addr types.Address) error {
	if t.readOnly {
		return types.ErrReadOnly
	}
	if _, ok := t.lookup(addr); !ok {
		return types.ErrNotFound
	}
	t.staged[addr] = nil
	return nil
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
