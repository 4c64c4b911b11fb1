// Package primitives implements the cryptographic and serialization
// building blocks shared by every other package: the 32-byte digest
// type, Ed25519 signing, canonical binary serialization, and the
// Merkle tree.
package primitives

import (
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

// Size is the byte length of a Hash.
const Size = sha256.Size

// Hash is an immutable 32-byte digest. The zero value is the sentinel
// "no parent"/"empty" hash used throughout the chain.
type Hash [Size]byte

// ZeroHash is the all-zero sentinel hash.
var ZeroHash Hash

// Sum256 hashes b and returns the resulting Hash. This is the single
// hash primitive used everywhere blocks, transactions, and Merkle
// nodes are hashed.
func Sum256(b []byte) Hash {
	return Hash(sha256.Sum256(b))
}

// IsZero reports whether h is the all-zero sentinel hash.
func (h Hash) IsZero() bool {
	return h == ZeroHash
}

// String formats h as lowercase hex, with no byte-order reversal.
func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns a copy of h's underlying bytes.
func (h Hash) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, h[:])
	return out
}

// HashFromBytes builds a Hash from a byte slice, which must be exactly
// Size bytes long.
func HashFromBytes(b []byte) (Hash, bool) {
	var h Hash
	if len(b) != Size {
		return h, false
	}
	copy(h[:], b)
	return h, true
}

// big returns h interpreted as a big-endian 256-bit unsigned integer.
func (h Hash) big() *big.Int {
	return new(big.Int).SetBytes(h[:])
}

// LessOrEqual reports whether h, interpreted as a big-endian 256-bit
// integer, is less than or equal to target. This is the comparison
// PoW validation uses: hash <= difficulty.
func (h Hash) LessOrEqual(target Hash) bool {
	return h.big().Cmp(target.big()) <= 0
}

// Compare orders two hashes byte-lexicographically: -1 if h < other,
// 0 if equal, 1 if h > other.
func (h Hash) Compare(other Hash) int {
	for i := range h {
		if h[i] != other[i] {
			if h[i] < other[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
