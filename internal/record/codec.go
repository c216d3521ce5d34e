// Package record defines the stored layout of profile and item records.
//
// A record is an 8-byte discriminator followed by a CBOR body in Core
// Deterministic Encoding. The discriminator names the record kind, so a
// blob of one kind never decodes as the other.
package record

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// DiscriminatorSize is the length of the kind prefix on every record.
const DiscriminatorSize = 8

// Kind names a record kind.
type Kind string

// Record kinds.
const (
	KindProfile Kind = "Profile"
	KindItem    Kind = "Item"
)

var (
	profileDiscriminator = discriminator(KindProfile)
	itemDiscriminator    = discriminator(KindItem)
)

// encMode sorts map keys and uses the smallest integer encodings, so the
// same record always produces identical bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("record: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("record: CBOR decoder initialization failed: " + err.Error())
	}
}

func discriminator(k Kind) [DiscriminatorSize]byte {
	sum := blake3.Sum256([]byte("larder:record:" + string(k)))
	var d [DiscriminatorSize]byte
	copy(d[:], sum[:DiscriminatorSize])
	return d
}

// profileBody is the CBOR body of a profile record.
type profileBody struct {
	_         struct{} `cbor:",toarray"`
	Owner     [types.IdentitySize]byte
	NextIndex uint64
	LiveCount uint64
}

// itemBody is the CBOR body of an item record.
type itemBody struct {
	_       struct{} `cbor:",toarray"`
	Owner   [types.IdentitySize]byte
	Index   uint64
	Payload []byte
	Done    bool
}

// EncodeProfile returns the stored form of p.
func EncodeProfile(p *types.Profile) ([]byte, error) {
	return encode(profileDiscriminator, profileBody{
		Owner:     p.Owner,
		NextIndex: p.NextIndex,
		LiveCount: p.LiveCount,
	})
}

// DecodeProfile parses a stored profile record.
func DecodeProfile(data []byte) (*types.Profile, error) {
	var body profileBody
	if err := decode(profileDiscriminator, KindProfile, data, &body); err != nil {
		return nil, err
	}
	return &types.Profile{
		Owner:     body.Owner,
		NextIndex: body.NextIndex,
		LiveCount: body.LiveCount,
	}, nil
}

// EncodeItem returns the stored form of it.
func EncodeItem(it *types.Item) ([]byte, error) {
	return encode(itemDiscriminator, itemBody{
		Owner:   it.Owner,
		Index:   it.Index,
		Payload: it.Payload,
		Done:    it.Done,
	})
}

// DecodeItem parses a stored item record.
func DecodeItem(data []byte) (*types.Item, error) {
	var body itemBody
	if err := decode(itemDiscriminator, KindItem, data, &body); err != nil {
		return nil, err
	}
	return &types.Item{
		Owner:   body.Owner,
		Index:   body.Index,
		Payload: body.Payload,
		Done:    body.Done,
	}, nil
}

// KindOf returns the kind named by data's discriminator.
func KindOf(data []byte) (Kind, error) {
	if len(data) < DiscriminatorSize {
		return "", fmt.Errorf("%w: %d bytes is shorter than the discriminator", types.ErrInvalidRecord, len(data))
	}
	switch {
	case bytes.Equal(data[:DiscriminatorSize], profileDiscriminator[:]):
		return KindProfile, nil
	case bytes.Equal(data[:DiscriminatorSize], itemDiscriminator[:]):
		return KindItem, nil
	default:
		return "", fmt.Errorf("%w: unknown discriminator %x", types.ErrInvalidRecord, data[:DiscriminatorSize])
	}
}

func encode(disc [DiscriminatorSize]byte, body any) ([]byte, error) {
	b, err := encMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	out := make([]byte, 0, DiscriminatorSize+len(b))
	out = append(out, disc[:]...)
	return append(out, b...), nil
}

func decode(disc [DiscriminatorSize]byte, kind Kind, data []byte, body any) error {
	got, err := KindOf(data)
	if err != nil {
		return err
	}
	if got != kind {
		return fmt.Errorf("%w: want %s record, got %s", types.ErrInvalidRecord, kind, got)
	}
	if err := decMode.Unmarshal(data[DiscriminatorSize:], body); err != nil {
		return fmt.Errorf("%w: %v", types.ErrInvalidRecord, err)
	}
	return nil
}
