// Package ethsigner implements the signing port with secp256k1 keys derived
// deterministically from a master seed. Private keys are re-derived on every
// call and never stored or persisted.
package ethsigner

import (
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Signer derives per-path keypairs from a master seed.
type Signer struct {
	seed []byte
}

// New creates a Signer from a hex-encoded master seed. The seed must decode
// to at least 16 bytes.
func New(seedHex string) (*Signer, error) {
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("decode master seed: %w", err)
	}
	if len(seed) < 16 {
		return nil, errors.New("master seed must be at least 16 bytes")
	}
	return &Signer{seed: seed}, nil
}

// derive produces the private key for path. keccak256(seed || path) is used
// as key material; the counter suffix skips the astronomically rare digests
// that fall outside the curve order.
func (s *Signer) derive(path string) (*ecdsa.PrivateKey, error) {
	for ctr := byte(0); ctr < 255; ctr++ {
		material := crypto.Keccak256(s.seed, []byte(path), []byte{ctr})
		key, err := crypto.ToECDSA(material)
		if err == nil {
			return key, nil
		}
	}
	return nil, fmt.Errorf("derive key for path %q: no valid scalar", path)
}

// DeriveAddress returns the checksummed address for the keypair at path.
func (s *Signer) DeriveAddress(path string) (string, error) {
	key, err := s.derive(path)
	if err != nil {
		return "", err
	}
	return crypto.PubkeyToAddress(key.PublicKey).Hex(), nil
}

// SignPayload signs keccak256(payload) with the keypair at path.
func (s *Signer) SignPayload(path string, payload []byte) ([]byte, error) {
	key, err := s.derive(path)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(crypto.Keccak256(payload), key)
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}
	return sig, nil
}
