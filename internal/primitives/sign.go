package primitives

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/ed25519"
)

// GenerateKey creates a fresh Ed25519 keypair.
func GenerateKey() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, fmt.Errorf("primitives: generate key: %w", err)
	}
	return pub, priv, nil
}

// Sign signs msg with priv, returning the raw Ed25519 signature.
func Sign(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// Verify reports whether sig is a valid Ed25519 signature over msg
// under pub. Malformed public keys or signatures simply fail to
// verify rather than panicking.
func Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, msg, sig)
}
