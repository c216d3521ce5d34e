package record

import "github.com/mesh-intelligence/larder/pkg/types"

// Upper bounds of CBOR encodings used in the record bodies.
const (
	cborArrayHeader = 1 // arrays of fewer than 24 elements
	cborUintMax     = 9 // major type 0 with an 8-byte argument
	cborBool        = 1
	identityField   = 2 + types.IdentitySize // byte string header + bytes
)

// ProfileSpace is the space allocated for a profile record. Every encoded
// profile fits, whatever its counter values.
func ProfileSpace() int {
	return DiscriminatorSize + cborArrayHeader + identityField + cborUintMax + cborUintMax
}

// ItemSpace is the space allocated for an item with a payload of
// payloadLen bytes.
func ItemSpace(payloadLen int) int {
	return DiscriminatorSize + cborArrayHeader + identityField + cborUintMax +
		byteStringHeader(payloadLen) + payloadLen + cborBool
}

// byteStringHeader returns the size of a CBOR byte string header for n bytes.
func byteStringHeader(n int) int {
	switch {
	case n < 24:
		return 1
	case n <= 0xff:
		return 2
	case n <= 0xffff:
		return 3
	case uint64(n) <= 0xffffffff:
		return 5
	default:
		return 9
	}
}
