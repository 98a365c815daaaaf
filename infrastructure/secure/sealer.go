package secure

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/nacl/secretbox"
)

const sealedPrefix = "sealed:"

var ErrOpen = errors.New("secure: cannot open sealed payload")

// Sealer encrypts credential payloads at rest. A nil Sealer, or one built
// from an empty key, passes data through unchanged.
type Sealer struct {
	key *[32]byte
}

// NewSealer derives a secretbox key from an arbitrary passphrase.
func NewSealer(passphrase string) *Sealer {
	if passphrase == "" {
		return &Sealer{}
	}
	k := sha256.Sum256([]byte(passphrase))
	return &Sealer{key: &k}
}

func (s *Sealer) Enabled() bool { return s != nil && s.key != nil }

func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	if !s.Enabled() {
		return plain, nil
	}
	var nonce [24]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("secure: nonce: %w", err)
	}
	box := secretbox.Seal(nonce[:], plain, &nonce, s.key)
	return []byte(sealedPrefix + base64.StdEncoding.EncodeToString(box)), nil
}

// Open reverses Seal. Unsealed payloads are returned as they are so that
// records written before a key was configured stay readable.
func (s *Sealer) Open(data []byte) ([]byte, error) {
	str := string(data)
	if !strings.HasPrefix(str, sealedPrefix) {
		return data, nil
	}
	if !s.Enabled() {
		return nil, fmt.Errorf("%w: no encryption key configured", ErrOpen)
	}
	box, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(str, sealedPrefix))
	if err != nil || len(box) < 24 {
		return nil, ErrOpen
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, s.key)
	if !ok {
		return nil, ErrOpen
	}
	return plain, nil
}
