package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	addr := types.Address{1}

	err := s.Update(ctx, func(tx types.Tx) error {
		return tx.Create(addr, []byte("hello"), 8)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	err = s.View(ctx, func(tx types.Tx) error {
		data, err := tx.Read(addr)
		require.NoError(t, err)
		assert.Equal(t, []byte("hello"), data)
		return nil
	})
	require.NoError(t, err)

	err = s.Update(ctx, func(tx types.Tx) error {
		return tx.Write(addr, []byte("goodbye"))
	})
	require.NoError(t, err)

	err = s.Update(ctx, func(tx types.Tx) error {
		return tx.Delete(addr)
	})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	addr := types.Address{2}
	require.NoError(t, s.Update(ctx, func(tx types.Tx) error {
		return tx.Create(addr, []byte("abc"), 4)
	}))

	tests := []struct {
		name    string
		fn      func(tx types.Tx) error
		wantErr error
	}{
		{
			name:    "create on occupied address",
			fn:      func(tx types.Tx) error { return tx.Create(addr, []byte("x"), 4) },
			wantErr: types.ErrAlreadyExists,
		},
		{
			name:    "create larger than space",
			fn:      func(tx types.Tx) error { return tx.Create(types.Address{3}, []byte("xxxxx"), 4) },
			wantErr: types.ErrSpaceExceeded,
		},
		{
			name:    "write larger than allocation",
			fn:      func(tx types.Tx) error { return tx.Write(addr, []byte("xxxxx")) },
			wantErr: types.ErrSpaceExceeded,
		},
		{
			name:    "read missing",
			fn:      func(tx types.Tx) error { _, err := tx.Read(types.Address{9}); return err },
			wantErr: types.ErrNotFound,
		},
		{
			name:    "write missing",
			fn:      func(tx types.Tx) error { return tx.Write(types.Address{9}, nil) },
			wantErr: types.ErrNotFound,
		},
		{
			name:    "delete missing",
			fn:      func(tx types.Tx) error { return tx.Delete(types.Address{9}) },
			wantErr: types.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Update(ctx, tt.fn)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestStore_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	keep := types.Address{1}
	require.NoError(t, s.Update(ctx, func(tx types.Tx) error {
		return tx.Create(keep, []byte("v1"), 8)
	}))

	boom := errors.New("boom")
	err := s.Update(ctx, func(tx types.Tx) error {
		require.NoError(t, tx.Write(keep, []byte("v2")))
		require.NoError(t, tx.Create(types.Address{2}, []byte("new"), 8))
		require.NoError(t, tx.Delete(keep))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.View(ctx, func(tx types.Tx) error {
		data, err := tx.Read(keep)
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), data)
		_, err = tx.Read(types.Address{2})
		assert.ErrorIs(t, err, types.ErrNotFound)
		return nil
	}))
}

func TestStore_StagedReadsSeeOwnWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	addr := types.Address{5}

	require.NoError(t, s.Update(ctx, func(tx types.Tx) error {
		require.NoError(t, tx.Create(addr, []byte("a"), 4))
		data, err := tx.Read(addr)
		require.NoError(t, err)
		assert.Equal(t, []byte("a"), data)

		require.NoError(t, tx.Delete(addr))
		_, err = tx.Read(addr)
		assert.ErrorIs(t, err, types.ErrNotFound)

		// The address is reclaimed and may be created again.
		return tx.Create(addr, []byte("b"), 4)
	}))
}

func TestStore_ViewIsReadOnly(t *testing.T) {
	s := NewStore()
	err := s.View(context.Background(), func(tx types.Tx) error {
		return tx.Create(types.Address{1}, nil, 0)
	})
	assert.ErrorIs(t, err, types.ErrReadOnly)
}

func TestStore_AttachDetach(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	assert.ErrorIs(t, s.Attach(types.Config{Backend: types.BackendMemory}), types.ErrAlreadyAttached)

	require.NoError(t, s.Detach())
	require.NoError(t, s.Detach())
	err := s.Update(ctx, func(tx types.Tx) error { return nil })
	assert.ErrorIs(t, err, types.ErrDetached)

	require.NoError(t, s.Attach(types.Config{Backend: types.BackendMemory}))
	assert.Equal(t, 0, s.Len())
}

func TestStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewStore()
	err := s.Update(ctx, func(tx types.Tx) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
