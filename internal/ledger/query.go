package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/larder/internal/record"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// Profile returns owner's profile, or ErrNotFound.
func (s *Service) Profile(ctx context.Context, owner types.Identity) (*types.Profile, error) {
	addr, _, err := s.deriver.ProfileAddress(owner)
	if err != nil {
		return nil, err
	}
	var profile *types.Profile
	err = s.store.View(ctx, func(tx types.Tx) error {
		data, err := tx.Read(addr)
		if err != nil {
			return err
		}
		profile, err = record.DecodeProfile(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", owner, err)
	}
	return profile, nil
}

// Item returns owner's item at index, or ErrNotFound.
func (s *Service) Item(ctx context.Context, owner types.Identity, index uint64) (*types.Item, error) {
	addr, _, err := s.deriver.ItemAddress(owner, index)
	if err != nil {
		return nil, err
	}
	var item *types.Item
	err = s.store.View(ctx, func(tx types.Tx) error {
		data, err := tx.Read(addr)
		if err != nil {
			return err
		}
		item, err = record.DecodeItem(data)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("item %d of %s: %w", index, owner, err)
	}
	return item, nil
}

// Items returns owner's live items in ascending index order. Retired indices
// are skipped. Returns ErrNotFound if owner has no profile.
func (s *Service) Items(ctx context.Context, owner types.Identity) ([]*types.Item, error) {
	profileAddr, _, err := s.deriver.ProfileAddress(owner)
	if err != nil {
		return nil, err
	}
	var items []*types.Item
	err = s.store.View(ctx, func(tx types.Tx) error {
		data, err := tx.Read(profileAddr)
		if err != nil {
			return err
		}
		profile, err := record.DecodeProfile(data)
		if err != nil {
			return err
		}
		items = make([]*types.Item, 0, profile.LiveCount)
		for i := uint64(0); i < profile.NextIndex && uint64(len(items)) < profile.LiveCount; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			addr, _, err := s.deriver.ItemAddress(owner, i)
			if err != nil {
				return err
			}
			data, err := tx.Read(addr)
			if errors.Is(err, types.ErrNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			item, err := record.DecodeItem(data)
			if err != nil {
				return err
			}
			items = append(items, item)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("items of %s: %w", owner, err)
	}
	return items, nil
}
