// Package chain defines the wire-level data model: transactions,
// signed transactions, block headers, and blocks.
package chain

import (
	"golang.org/x/crypto/ed25519"

	"github.com/cinderchain/cinderd/internal/primitives"
)

// Transaction is the unsigned transfer of value from sender to
// receiver. sender and receiver are base64-encoded Ed25519 public
// keys; Transaction itself stores the decoded key bytes and leaves the
// base64 string form to callers that need it (e.g. the HTTP control
// plane, address-keyed maps).
type Transaction struct {
	Sender   ed25519.PublicKey
	Receiver ed25519.PublicKey
	Value    int64
	Nonce    uint64
}

// CanonicalBytes returns the deterministic serialization of t used for
// both signing and as the input to SignedTransaction's hash.
func (t *Transaction) CanonicalBytes() []byte {
	buf := newByteBuffer()
	enc := primitives.NewEncoder(buf)
	enc.WriteVarBytes(t.Sender)
	enc.WriteVarBytes(t.Receiver)
	enc.WriteInt64(t.Value)
	enc.WriteUint64(t.Nonce)
	return buf.Bytes()
}

// SignedTransaction pairs a Transaction with the signature and public
// key that authorize it.
type SignedTransaction struct {
	Transaction Transaction
	Signature   []byte
	PublicKey   ed25519.PublicKey
}

// CanonicalBytes returns the deterministic serialization of st used to
// compute Hash. It is exactly EncodeSignedTransaction's wire form, so
// the wire layout and the canonical serialization can never diverge.
func (st *SignedTransaction) CanonicalBytes() []byte {
	buf := newByteBuffer()
	enc := primitives.NewEncoder(buf)
	EncodeSignedTransaction(enc, st)
	return buf.Bytes()
}

// Hash returns SHA256(canonical_serialize(st)).
func (st *SignedTransaction) Hash() primitives.Hash {
	return primitives.Sum256(st.CanonicalBytes())
}

// Verify checks the two invariants a SignedTransaction must satisfy:
// the embedded public key matches the transaction's claimed sender,
// and the signature is valid over the transaction's canonical bytes
// under that key.
func (st *SignedTransaction) Verify() bool {
	if len(st.PublicKey) != ed25519.PublicKeySize {
		return false
	}
	if !publicKeyEqual(st.PublicKey, st.Transaction.Sender) {
		return false
	}
	return primitives.Verify(st.PublicKey, st.Transaction.CanonicalBytes(), st.Signature)
}

func publicKeyEqual(a, b ed25519.PublicKey) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Sign builds a SignedTransaction over tx authorized by priv. The
// caller is responsible for ensuring tx.Sender matches the public half
// of priv.
func Sign(tx Transaction, priv ed25519.PrivateKey) SignedTransaction {
	sig := primitives.Sign(priv, tx.CanonicalBytes())
	pub := priv.Public().(ed25519.PublicKey)
	return SignedTransaction{Transaction: tx, Signature: sig, PublicKey: pub}
}
