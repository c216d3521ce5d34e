package types

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
)

// IdentitySize is the size of an Identity (an ed25519 public key).
const IdentitySize = 32

// AddressSize is the size of a derived Address.
const AddressSize = 32

// ErrInvalidIdentity is returned when an identity string cannot be parsed.
var ErrInvalidIdentity = errors.New("invalid identity")

// ErrInvalidAddress is returned when an address string cannot be parsed.
var ErrInvalidAddress = errors.New("invalid address")

// Identity is an opaque, externally verified principal. Larder uses the
// signer's ed25519 public key.
type Identity [IdentitySize]byte

// ParseIdentity decodes the hex form produced by Identity.String.
func ParseIdentity(s string) (Identity, error) {
	var id Identity
	if err := decodeFixedHex(s, id[:]); err != nil {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	return id, nil
}

// String returns the lowercase hex encoding.
func (id Identity) String() string { return hex.EncodeToString(id[:]) }

// IsZero reports whether id is the all-zero identity.
func (id Identity) IsZero() bool { return id == Identity{} }

// Equal compares two identities in constant time.
func (id Identity) Equal(other Identity) bool {
	return subtle.ConstantTimeCompare(id[:], other[:]) == 1
}

// MarshalText implements encoding.TextMarshaler.
func (id Identity) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *Identity) UnmarshalText(b []byte) error {
	parsed, err := ParseIdentity(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Address is a storage location derived from a namespace tag and key fields.
type Address [AddressSize]byte

// ParseAddress decodes the hex form produced by Address.String.
func ParseAddress(s string) (Address, error) {
	var a Address
	if err := decodeFixedHex(s, a[:]); err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return a, nil
}

// String returns the lowercase hex encoding.
func (a Address) String() string { return hex.EncodeToString(a[:]) }

// MarshalText implements encoding.TextMarshaler.
func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(b []byte) error {
	parsed, err := ParseAddress(string(b))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Nonce disambiguates a derived address. It is the first value, counting down
// from 255, for which the derived digest is usable as an address.
type Nonce uint8

// Caller describes who is invoking a mutating operation. Proven is the
// identity established by the identity verifier. Claimed is the owner the
// request acts for; record addresses are always derived from Claimed.
type Caller struct {
	Proven  Identity
	Claimed Identity
}

// Self returns a Caller acting for its own proven identity.
func Self(id Identity) Caller {
	return Caller{Proven: id, Claimed: id}
}

func decodeFixedHex(s string, dst []byte) error {
	if len(s) != hex.EncodedLen(len(dst)) {
		return fmt.Errorf("want %d hex characters, got %d", hex.EncodedLen(len(dst)), len(s))
	}
	_, err := hex.Decode(dst, []byte(s))
	return err
}
