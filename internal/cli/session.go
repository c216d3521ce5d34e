package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/mesh-intelligence/larder/internal/identity"
	"github.com/mesh-intelligence/larder/pkg/larder"
	"github.com/mesh-intelligence/larder/pkg/types"
)

// session is an opened larder plus the local signing key. The caller must
// call close.
type session struct {
	*settings
	larder   *larder.Larder
	signer   *identity.Signer
	verifier *identity.Verifier
}

// openSession loads settings and the key file and attaches the backend.
func (a *app) openSession() (*session, error) {
	s, err := a.loadSettings()
	if err != nil {
		return nil, sysError(err)
	}
	signer, err := identity.Load(s.keyFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("no identity at %s: run 'larder init' or 'larder keygen'", s.keyFile)
	}
	if err != nil {
		return nil, sysError(err)
	}
	l, err := larder.Open(s.config, a.logger)
	if err != nil {
		return nil, sysError(err)
	}
	return &session{
		settings: s,
		larder:   l,
		signer:   signer,
		verifier: identity.NewVerifier(),
	}, nil
}

func (s *session) close(a *app) {
	if err := s.larder.Close(); err != nil {
		a.logger.Error("closing store", "error", err)
	}
}

// caller signs a request for op and verifies it, returning the caller the
// ledger should see. --owner sets the claimed owner.
func (s *session) caller(a *app, op string, args ...string) (types.Caller, error) {
	var claimed types.Identity
	if a.flags.owner != "" {
		id, err := types.ParseIdentity(a.flags.owner)
		if err != nil {
			return types.Caller{}, fmt.Errorf("--owner: %w", err)
		}
		claimed = id
	}
	env, err := s.signer.Sign(identity.Request{Op: op, Claimed: claimed, Args: args})
	if err != nil {
		return types.Caller{}, sysError(err)
	}
	// Verify what would travel on the wire, not the in-memory envelope.
	received, err := identity.ParseEnvelope(env.Bytes())
	if err != nil {
		return types.Caller{}, err
	}
	_, req, err := s.verifier.Verify(received)
	if err != nil {
		return types.Caller{}, err
	}
	a.logger.Debug("request verified", "op", op, "signer", req.Signer, "claimed", req.Claimed)
	return req.Caller(), nil
}

// subject returns the owner a read command looks at: --owner, else the
// local identity.
func (s *session) subject(a *app) (types.Identity, error) {
	if a.flags.owner == "" {
		return s.signer.Identity(), nil
	}
	id, err := types.ParseIdentity(a.flags.owner)
	if err != nil {
		return types.Identity{}, fmt.Errorf("--owner: %w", err)
	}
	return id, nil
}

// userErrors are the failures caused by the request rather than the system.
var userErrors = []error{
	types.ErrUnauthorized,
	types.ErrAlreadyExists,
	types.ErrAlreadyMarked,
	types.ErrNotFound,
	types.ErrOverflow,
	types.ErrUnderflow,
	types.ErrInvalidIndex,
	types.ErrPayloadTooLarge,
	identity.ErrBadSignature,
}

// classify wraps err with its exit code.
func classify(err error) error {
	if err == nil {
		return nil
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return &exitError{code: exitUserError, err: err}
		}
	}
	return sysError(err)
}

func sysError(err error) error {
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}
	return &exitError{code: exitSysError, err: err}
}
