package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/larder/pkg/types"
)

func TestAuthorizeRecord(t *testing.T) {
	tests := []struct {
		name    string
		caller  types.Caller
		stored  types.Identity
		wantErr bool
	}{
		{name: "owner acting for itself", caller: types.Self(alice), stored: alice},
		{name: "claimed differs from proven", caller: types.Caller{Proven: bob, Claimed: alice}, stored: alice, wantErr: true},
		{name: "stored owner differs", caller: types.Self(alice), stored: bob, wantErr: true},
		{name: "zero stored owner", caller: types.Self(alice), stored: types.Identity{}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := authorizeRecord(tt.caller, tt.stored)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrUnauthorized)
				return
			}
			assert.NoError(t, err)
		})
	}
}
