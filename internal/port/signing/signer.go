// Package signing defines the port for the deterministic key derivation and
// transaction signing service. Derived private material is never persisted;
// implementations re-derive it from the master seed on every call.
package signing

// Signer derives per-agent keypairs from a master seed and signs payloads.
type Signer interface {
	// DeriveAddress returns the address for the keypair derived at path.
	// The same path always yields the same address.
	DeriveAddress(path string) (string, error)

	// SignPayload signs the given payload bytes with the keypair derived at
	// path and returns the signature.
	SignPayload(path string, payload []byte) ([]byte, error)
}
