package ledger

import (
	"fmt"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// authorizeCaller checks that the caller acts for itself. It runs before any
// store access.
func authorizeCaller(caller types.Caller) error {
	if !caller.Claimed.Equal(caller.Proven) {
		return fmt.Errorf("%w: %s acting for %s", types.ErrUnauthorized, caller.Proven, caller.Claimed)
	}
	return nil
}

// authorizeRecord checks a stored owner field against the caller. The
// address was already derived from caller.Claimed; this is the explicit
// field check that must hold as well.
func authorizeRecord(caller types.Caller, stored types.Identity) error {
	if err := authorizeCaller(caller); err != nil {
		return err
	}
	if !stored.Equal(caller.Claimed) {
		return fmt.Errorf("%w: record owned by %s", types.ErrUnauthorized, stored)
	}
	return nil
}
