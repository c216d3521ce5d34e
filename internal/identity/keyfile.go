// Package identity proves who is calling. A caller holds an Ed25519 key;
// its public key is its types.Identity. Requests are CBOR-encoded, signed,
// and verified before the ledger sees them.
package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mesh-intelligence/larder/pkg/types"
)

// KeyFileName is the default key file name inside the config directory.
const KeyFileName = "identity.key"

// Key file errors.
var (
	ErrKeyExists  = errors.New("identity: key file already exists")
	ErrKeyInvalid = errors.New("identity: key file is not a hex Ed25519 seed")
)

// Signer signs requests with one Ed25519 key.
type Signer struct {
	key ed25519.PrivateKey
	id  types.Identity
	now func() time.Time
}

// NewSigner returns a Signer for the given 32-byte seed.
func NewSigner(seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("%w: seed has %d bytes, want %d", ErrKeyInvalid, len(seed), ed25519.SeedSize)
	}
	key := ed25519.NewKeyFromSeed(seed)
	s := &Signer{key: key, now: time.Now}
	copy(s.id[:], key.Public().(ed25519.PublicKey))
	return s, nil
}

// Identity returns the signer's public identity.
func (s *Signer) Identity() types.Identity {
	return s.id
}

// Generate creates a new key and writes its seed as hex to path with mode
// 0600. It refuses to overwrite an existing file.
func Generate(path string) (*Signer, error) {
	seed := make([]byte, ed25519.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("generating seed: %w", err)
	}
	signer, err := NewSigner(seed)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating key directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if os.IsExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrKeyExists, path)
	}
	if err != nil {
		return nil, fmt.Errorf("creating key file: %w", err)
	}
	if _, err := fmt.Fprintln(f, hex.EncodeToString(seed)); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing key file: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("closing key file: %w", err)
	}
	return signer, nil
}

// Load reads the hex seed at path.
func Load(path string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}
	seed, err := hex.DecodeString(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyInvalid, err)
	}
	return NewSigner(seed)
}

// LoadOrGenerate loads the key at path, generating one if the file does not
// exist. The bool reports whether a new key was written.
func LoadOrGenerate(path string) (*Signer, bool, error) {
	signer, err := Load(path)
	if err == nil {
		return signer, false, nil
	}
	if _, statErr := os.Stat(path); statErr == nil {
		// Present but unreadable or corrupt.
		return nil, false, err
	}
	signer, err = Generate(path)
	if err != nil {
		return nil, false, err
	}
	return signer, true, nil
}
