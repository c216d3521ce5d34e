package types

import (
	"context"
	"errors"
)

// Tx is a view of the keyed record store inside one transaction. Records are
// opaque byte blobs stored at derived addresses.
type Tx interface {
	// Create stores data at addr with space bytes allocated.
	// Returns ErrAlreadyExists if addr is occupied and ErrSpaceExceeded if
	// data does not fit in space.
	Create(addr Address, data []byte, space int) error

	// Read returns the data stored at addr, or ErrNotFound.
	Read(addr Address) ([]byte, error)

	// Write replaces the data at addr. Returns ErrNotFound if addr is empty
	// and ErrSpaceExceeded if data is larger than the allocated space.
	Write(addr Address, data []byte) error

	// Delete removes the record at addr and reclaims the address.
	// Returns ErrNotFound if addr is empty.
	Delete(addr Address) error
}

// Store runs transactions against a keyed record store. Update is atomic:
// when fn returns an error none of its effects are applied. Transactions are
// serialized; no transaction observes a partial effect of another.
type Store interface {
	Update(ctx context.Context, fn func(tx Tx) error) error
	View(ctx context.Context, fn func(tx Tx) error) error
}

// Backend is a Store with an attach/detach lifecycle.
type Backend interface {
	Store

	// Attach connects the backend described by config. Returns
	// ErrAlreadyAttached if called while attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent. After Detach,
	// transactions return ErrDetached.
	Detach() error
}

// Store errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrAlreadyExists   = errors.New("address already occupied")
	ErrSpaceExceeded   = errors.New("record exceeds allocated space")
	ErrReadOnly        = errors.New("write in read-only transaction")
	ErrDetached        = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)

// Ledger errors.
var (
	ErrUnauthorized    = errors.New("caller is not the owner")
	ErrInvalidIndex    = errors.New("index out of range")
	ErrPayloadTooLarge = errors.New("payload too large")
	ErrInvalidRecord   = errors.New("invalid record data")
	ErrNoViableNonce   = errors.New("no viable nonce for derived address")
)
