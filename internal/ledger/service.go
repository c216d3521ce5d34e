// Package ledger implements the profile and item lifecycle on top of a keyed
// record store.
//
// Every record lives at an address derived from its owner (and, for items,
// its index). A profile is created once per owner and holds the next item
// index and the live item count. Items are appended at the next index,
// marked done at most once, and deleted; a deleted item's index is never
// reused. Each operation runs in one store transaction and either applies
// all of its effects or none.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/larder/internal/address"
	"github.com/mesh-intelligence/larder/internal/record"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Service runs lifecycle operations against a Store.
type Service struct {
	store      types.Store
	deriver    *address.Deriver
	logger     *slog.Logger
	maxPayload int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMaxPayload sets the largest accepted item payload in bytes, at most
// types.MaxPayloadLimit.
func WithMaxPayload(n int) Option {
	return func(s *Service) { s.maxPayload = min(n, types.MaxPayloadLimit) }
}

// New returns a Service over store using deriver for addressing.
func New(store types.Store, deriver *address.Deriver, opts ...Option) *Service {
	s := &Service{
		store:      store,
		deriver:    deriver,
		logger:     slog.Default(),
		maxPayload: types.DefaultMaxPayload,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Deriver returns the address deriver used by the service.
func (s *Service) Deriver() *address.Deriver { return s.deriver }

// InitializeProfile creates the caller's profile with both counters at zero.
// Returns ErrAlreadyExists if the profile already exists.
func (s *Service) InitializeProfile(ctx context.Context, caller types.Caller) (*types.Receipt, error) {
	if err := authorizeCaller(caller); err != nil {
		return nil, fmt.Errorf("initialize profile: %w", err)
	}
	addr, nonce, err := s.deriver.ProfileAddress(caller.Claimed)
	if err != nil {
		return nil, fmt.Errorf("initialize profile: %w", err)
	}

	profile := types.NewProfile(caller.Claimed)
	err = s.store.Update(ctx, func(tx types.Tx) error {
		data, err := record.EncodeProfile(profile)
		if err != nil {
			return err
		}
		return tx.Create(addr, data, record.ProfileSpace())
	})
	if err != nil {
		return nil, fmt.Errorf("initialize profile: %w", err)
	}

	return s.committed(types.OpInitializeProfile, caller.Claimed, addr, nonce, 0, profile), nil
}

// AddItem appends an item holding payload at the profile's next index and
// advances both profile counters.
func (s *Service) AddItem(ctx context.Context, caller types.Caller, payload []byte) (*types.Receipt, error) {
	if err := authorizeCaller(caller); err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}
	if len(payload) > s.maxPayload {
		return nil, fmt.Errorf("add item: %w: %d bytes exceeds %d", types.ErrPayloadTooLarge, len(payload), s.maxPayload)
	}
	profileAddr, _, err := s.deriver.ProfileAddress(caller.Claimed)
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	var (
		profile   *types.Profile
		itemAddr  types.Address
		itemNonce types.Nonce
		index     uint64
	)
	err = s.store.Update(ctx, func(tx types.Tx) error {
		profile, err = s.loadProfile(tx, caller, profileAddr)
		if err != nil {
			return err
		}

		index, err = profile.Advance(s.deriver.MaxIndex())
		if err != nil {
			return err
		}
		itemAddr, itemNonce, err = s.deriver.ItemAddress(caller.Claimed, index)
		if err != nil {
			return err
		}

		item := &types.Item{Owner: caller.Claimed, Index: index, Payload: payload}
		data, err := record.EncodeItem(item)
		if err != nil {
			return err
		}
		if err := tx.Create(itemAddr, data, record.ItemSpace(len(payload))); err != nil {
			return err
		}
		return s.saveProfile(tx, profileAddr, profile)
	})
	if err != nil {
		return nil, fmt.Errorf("add item: %w", err)
	}

	return s.committed(types.OpAddItem, caller.Claimed, itemAddr, itemNonce, index, profile), nil
}

// MarkItem sets the done flag of the caller's item at index. Returns
// ErrAlreadyMarked if the item is already done.
func (s *Service) MarkItem(ctx context.Context, caller types.Caller, index uint64) (*types.Receipt, error) {
	if err := authorizeCaller(caller); err != nil {
		return nil, fmt.Errorf("mark item %d: %w", index, err)
	}
	profileAddr, _, err := s.deriver.ProfileAddress(caller.Claimed)
	if err != nil {
		return nil, fmt.Errorf("mark item %d: %w", index, err)
	}
	itemAddr, itemNonce, err := s.deriver.ItemAddress(caller.Claimed, index)
	if err != nil {
		return nil, fmt.Errorf("mark item %d: %w", index, err)
	}

	var profile *types.Profile
	err = s.store.Update(ctx, func(tx types.Tx) error {
		profile, err = s.loadProfile(tx, caller, profileAddr)
		if err != nil {
			return err
		}
		item, err := s.loadItem(tx, caller, itemAddr)
		if err != nil {
			return err
		}
		if err := item.Mark(); err != nil {
			return err
		}
		data, err := record.EncodeItem(item)
		if err != nil {
			return err
		}
		return tx.Write(itemAddr, data)
	})
	if err != nil {
		return nil, fmt.Errorf("mark item %d: %w", index, err)
	}

	return s.committed(types.OpMarkItem, caller.Claimed, itemAddr, itemNonce, index, profile), nil
}

// DeleteItem removes the caller's item at index and decrements the live
// count. The profile's next index is left alone, so the index is retired.
func (s *Service) DeleteItem(ctx context.Context, caller types.Caller, index uint64) (*types.Receipt, error) {
	if err := authorizeCaller(caller); err != nil {
		return nil, fmt.Errorf("delete item %d: %w", index, err)
	}
	profileAddr, _, err := s.deriver.ProfileAddress(caller.Claimed)
	if err != nil {
		return nil, fmt.Errorf("delete item %d: %w", index, err)
	}
	itemAddr, itemNonce, err := s.deriver.ItemAddress(caller.Claimed, index)
	if err != nil {
		return nil, fmt.Errorf("delete item %d: %w", index, err)
	}

	var profile *types.Profile
	err = s.store.Update(ctx, func(tx types.Tx) error {
		profile, err = s.loadProfile(tx, caller, profileAddr)
		if err != nil {
			return err
		}
		if _, err := s.loadItem(tx, caller, itemAddr); err != nil {
			return err
		}
		if err := profile.Release(); err != nil {
			return err
		}
		if err := tx.Delete(itemAddr); err != nil {
			return err
		}
		return s.saveProfile(tx, profileAddr, profile)
	})
	if err != nil {
		return nil, fmt.Errorf("delete item %d: %w", index, err)
	}

	return s.committed(types.OpDeleteItem, caller.Claimed, itemAddr, itemNonce, index, profile), nil
}

// loadProfile reads and authorizes the profile at addr.
func (s *Service) loadProfile(tx types.Tx, caller types.Caller, addr types.Address) (*types.Profile, error) {
	data, err := tx.Read(addr)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("profile %s: %w", caller.Claimed, err)
	}
	if err != nil {
		return nil, err
	}
	profile, err := record.DecodeProfile(data)
	if err != nil {
		return nil, err
	}
	if err := authorizeRecord(caller, profile.Owner); err != nil {
		return nil, err
	}
	return profile, nil
}

// loadItem reads and authorizes the item at addr.
func (s *Service) loadItem(tx types.Tx, caller types.Caller, addr types.Address) (*types.Item, error) {
	data, err := tx.Read(addr)
	if errors.Is(err, types.ErrNotFound) {
		return nil, fmt.Errorf("item at %s: %w", addr, err)
	}
	if err != nil {
		return nil, err
	}
	item, err := record.DecodeItem(data)
	if err != nil {
		return nil, err
	}
	if err := authorizeRecord(caller, item.Owner); err != nil {
		return nil, err
	}
	return item, nil
}

// saveProfile checks the counter invariant and writes the profile back.
func (s *Service) saveProfile(tx types.Tx, addr types.Address, profile *types.Profile) error {
	if err := profile.CheckInvariant(); err != nil {
		return err
	}
	data, err := record.EncodeProfile(profile)
	if err != nil {
		return err
	}
	return tx.Write(addr, data)
}

func (s *Service) committed(op string, owner types.Identity, addr types.Address, nonce types.Nonce, index uint64, profile *types.Profile) *types.Receipt {
	r := &types.Receipt{
		TxnID:     uuid.Must(uuid.NewV7()).String(),
		Operation: op,
		Owner:     owner,
		Address:   addr,
		Nonce:     nonce,
		Index:     index,
		Profile:   *profile,
	}
	s.logger.Debug("committed",
		"op", op,
		"txn", r.TxnID,
		"owner", owner.String(),
		"address", addr.String(),
		"index", index,
		"next_index", profile.NextIndex,
		"live_count", profile.LiveCount,
	)
	return r
}
