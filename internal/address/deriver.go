// Package address derives record addresses from a namespace tag, an owner
// identity and an optional item index.
//
// An address is a BLAKE3 keyed hash over the length-prefixed seeds followed
// by a one-byte nonce. The hash key is derived from the deployment namespace,
// so the same owner gets unrelated addresses in different namespaces. The
// nonce is searched downward from 255 and the first digest that does not
// decode as an edwards25519 point is used. Identities are ed25519 public
// keys, so a derived address can never be mistaken for an identity and no
// signing key exists for it.
package address

import (
	"encoding/binary"
	"fmt"
	"math"

	"filippo.io/edwards25519"
	"github.com/zeebo/blake3"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// Tag selects the address namespace of a record kind.
type Tag string

// Record tags.
const (
	TagProfile Tag = "profile"
	TagItem    Tag = "item"
)

// keyContext is the BLAKE3 derive-key context. Changing it invalidates every
// stored address.
const keyContext = "larder 2026-01-01 record address derivation v1"

// Deriver computes derived addresses for one namespace and index width.
// A Deriver is immutable and safe for concurrent use.
type Deriver struct {
	key        [32]byte
	namespace  string
	indexWidth int
}

// New returns a Deriver for namespace. indexWidth is the number of bytes an
// item index occupies in the seed: 1, 2, 4 or 8.
func New(namespace string, indexWidth int) (*Deriver, error) {
	switch indexWidth {
	case 1, 2, 4, 8:
	default:
		return nil, types.ErrIndexWidthInvalid
	}
	d := &Deriver{namespace: namespace, indexWidth: indexWidth}
	blake3.DeriveKey(keyContext, []byte(namespace), d.key[:])
	return d, nil
}

// FromConfig returns the Deriver described by cfg.
func FromConfig(cfg types.Config) (*Deriver, error) {
	return New(cfg.GetNamespace(), cfg.GetIndexWidth())
}

// Namespace returns the namespace the Deriver was built for.
func (d *Deriver) Namespace() string { return d.namespace }

// IndexWidth returns the index seed width in bytes.
func (d *Deriver) IndexWidth() int { return d.indexWidth }

// MaxIndex returns the largest index that fits in the index seed.
func (d *Deriver) MaxIndex() uint64 {
	if d.indexWidth == 8 {
		return math.MaxUint64
	}
	return 1<<(8*d.indexWidth) - 1
}

// ProfileAddress derives the address of owner's profile.
func (d *Deriver) ProfileAddress(owner types.Identity) (types.Address, types.Nonce, error) {
	return d.Derive(TagProfile, owner)
}

// ItemAddress derives the address of owner's item at index.
func (d *Deriver) ItemAddress(owner types.Identity, index uint64) (types.Address, types.Nonce, error) {
	return d.Derive(TagItem, owner, index)
}

// Derive computes the address for tag and owner. At most one index may be
// given; it must not exceed MaxIndex.
func (d *Deriver) Derive(tag Tag, owner types.Identity, index ...uint64) (types.Address, types.Nonce, error) {
	if len(index) > 1 {
		return types.Address{}, 0, fmt.Errorf("derive %s: at most one index, got %d", tag, len(index))
	}

	seeds := [][]byte{[]byte(tag), owner[:]}
	if len(index) == 1 {
		seed, err := d.encodeIndex(index[0])
		if err != nil {
			return types.Address{}, 0, err
		}
		seeds = append(seeds, seed)
	}

	hasher, err := blake3.NewKeyed(d.key[:])
	if err != nil {
		return types.Address{}, 0, fmt.Errorf("derive %s: %w", tag, err)
	}

	var lenBuf [binary.MaxVarintLen64]byte
	for nonce := 255; nonce >= 0; nonce-- {
		hasher.Reset()
		for _, s := range seeds {
			n := binary.PutUvarint(lenBuf[:], uint64(len(s)))
			hasher.Write(lenBuf[:n])
			hasher.Write(s)
		}
		hasher.Write([]byte{byte(nonce)})

		var addr types.Address
		copy(addr[:], hasher.Sum(nil))
		if !onCurve(addr) {
			return addr, types.Nonce(nonce), nil
		}
	}
	return types.Address{}, 0, types.ErrNoViableNonce
}

// encodeIndex writes index little-endian in exactly indexWidth bytes.
func (d *Deriver) encodeIndex(index uint64) ([]byte, error) {
	if index > d.MaxIndex() {
		return nil, fmt.Errorf("%w: %d exceeds %d", types.ErrInvalidIndex, index, d.MaxIndex())
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], index)
	return buf[:d.indexWidth], nil
}

// onCurve reports whether b decodes as a compressed edwards25519 point.
func onCurve(a types.Address) bool {
	_, err := new(edwards25519.Point).SetBytes(a[:])
	return err == nil
}
