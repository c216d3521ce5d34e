package identity

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// DefaultMaxAge is how old a signed request may be before Verify rejects it.
const DefaultMaxAge = 5 * time.Minute

// Verification errors. An expired request fails with both.
var (
	ErrBadSignature   = errors.New("identity: bad signature")
	ErrRequestExpired = errors.New("identity: request outside max age")
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("identity: cbor encoder: %v", err))
	}
	decMode, err = cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("identity: cbor decoder: %v", err))
	}
}

// Request is the signed statement of one operation.
type Request struct {
	// Op is the operation name, one of the types.Op* constants.
	Op string
	// Signer is the public key that signed the request.
	Signer types.Identity
	// Claimed is the owner the caller acts for. Usually equal to Signer.
	Claimed types.Identity
	// Args are the operation arguments in command-line form.
	Args []string
	// IssuedAt is when the request was signed.
	IssuedAt time.Time
}

// Caller returns the ledger caller for a verified request.
func (r Request) Caller() types.Caller {
	return types.Caller{Proven: r.Signer, Claimed: r.Claimed}
}

type wireRequest struct {
	Op       string   `cbor:"1,keyasint"`
	Signer   []byte   `cbor:"2,keyasint"`
	Claimed  []byte   `cbor:"3,keyasint"`
	Args     []string `cbor:"4,keyasint,omitempty"`
	IssuedAt int64    `cbor:"5,keyasint"`
}

// Envelope is a CBOR payload and its Ed25519 signature.
type Envelope struct {
	Payload   []byte
	Signature []byte
}

// Bytes returns the wire form: payload followed by the signature.
func (e *Envelope) Bytes() []byte {
	out := make([]byte, 0, len(e.Payload)+len(e.Signature))
	out = append(out, e.Payload...)
	return append(out, e.Signature...)
}

// ParseEnvelope splits wire bytes produced by Envelope.Bytes.
func ParseEnvelope(b []byte) (*Envelope, error) {
	if len(b) <= ed25519.SignatureSize {
		return nil, fmt.Errorf("%w: envelope too short", ErrBadSignature)
	}
	split := len(b) - ed25519.SignatureSize
	return &Envelope{Payload: b[:split], Signature: b[split:]}, nil
}

// Sign encodes req and signs it. Signer and IssuedAt are set by the signer;
// a zero Claimed defaults to the signer's identity.
func (s *Signer) Sign(req Request) (*Envelope, error) {
	req.Signer = s.id
	if req.Claimed.IsZero() {
		req.Claimed = s.id
	}
	req.IssuedAt = s.now()

	payload, err := encMode.Marshal(wireRequest{
		Op:       req.Op,
		Signer:   req.Signer[:],
		Claimed:  req.Claimed[:],
		Args:     req.Args,
		IssuedAt: req.IssuedAt.Unix(),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	return &Envelope{Payload: payload, Signature: ed25519.Sign(s.key, payload)}, nil
}

// Verifier checks envelopes.
type Verifier struct {
	maxAge time.Duration
	now    func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

// WithMaxAge sets the accepted clock distance between IssuedAt and now.
func WithMaxAge(d time.Duration) VerifierOption {
	return func(v *Verifier) { v.maxAge = d }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) { v.now = now }
}

// NewVerifier returns a Verifier with DefaultMaxAge.
func NewVerifier(opts ...VerifierOption) *Verifier {
	v := &Verifier{maxAge: DefaultMaxAge, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks the signature against the signer named in the payload and
// the request age. It returns the proven identity and the decoded request.
func (v *Verifier) Verify(env *Envelope) (types.Identity, Request, error) {
	var none types.Identity
	if env == nil || len(env.Signature) != ed25519.SignatureSize {
		return none, Request{}, ErrBadSignature
	}

	var w wireRequest
	if err := decMode.Unmarshal(env.Payload, &w); err != nil {
		return none, Request{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if len(w.Signer) != types.IdentitySize || len(w.Claimed) != types.IdentitySize {
		return none, Request{}, fmt.Errorf("%w: malformed identity", ErrBadSignature)
	}
	if !ed25519.Verify(ed25519.PublicKey(w.Signer), env.Payload, env.Signature) {
		return none, Request{}, ErrBadSignature
	}

	req := Request{
		Op:       w.Op,
		Args:     w.Args,
		IssuedAt: time.Unix(w.IssuedAt, 0),
	}
	copy(req.Signer[:], w.Signer)
	copy(req.Claimed[:], w.Claimed)

	age := v.now().Sub(req.IssuedAt)
	if age > v.maxAge || age < -v.maxAge {
		return none, Request{}, fmt.Errorf("%w: %w: issued %s", ErrBadSignature, ErrRequestExpired, req.IssuedAt.UTC().Format(time.RFC3339))
	}
	return req.Signer, req, nil
}
