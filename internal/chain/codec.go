package chain

import (
	"fmt"

	"golang.org/x/crypto/ed25519"

	"github.com/cinderchain/cinderd/internal/primitives"
)

// EncodeSignedTransaction writes st's wire form to enc. This is the
// exact canonical serialization used for hashing: block and
// SignedTransaction wire layouts are exactly their canonical
// serializations.
func EncodeSignedTransaction(enc *primitives.Encoder, st *SignedTransaction) {
	enc.WriteVarBytes(st.Transaction.Sender)
	enc.WriteVarBytes(st.Transaction.Receiver)
	enc.WriteInt64(st.Transaction.Value)
	enc.WriteUint64(st.Transaction.Nonce)
	enc.WriteVarBytes(st.Signature)
	enc.WriteVarBytes(st.PublicKey)
}

// DecodeSignedTransaction reads a SignedTransaction written by
// EncodeSignedTransaction.
func DecodeSignedTransaction(dec *primitives.Decoder) (SignedTransaction, error) {
	var st SignedTransaction
	st.Transaction.Sender = ed25519.PublicKey(dec.ReadVarBytes())
	st.Transaction.Receiver = ed25519.PublicKey(dec.ReadVarBytes())
	st.Transaction.Value = dec.ReadInt64()
	st.Transaction.Nonce = dec.ReadUint64()
	st.Signature = dec.ReadVarBytes()
	st.PublicKey = ed25519.PublicKey(dec.ReadVarBytes())
	if dec.Err() != nil {
		return SignedTransaction{}, fmt.Errorf("chain: decode signed transaction: %w", dec.Err())
	}
	return st, nil
}

// EncodeBlock writes b's wire form to enc.
func EncodeBlock(enc *primitives.Encoder, b *Block) {
	enc.WriteHash(b.Header.Parent)
	enc.WriteUint32(b.Header.Nonce)
	enc.WriteHash(b.Header.Difficulty)
	enc.WriteUint64(b.Header.TimestampMS)
	enc.WriteHash(b.Header.MerkleRoot)
	enc.WriteCount(len(b.Content.Transactions))
	for i := range b.Content.Transactions {
		EncodeSignedTransaction(enc, &b.Content.Transactions[i])
	}
}

// DecodeBlock reads a Block written by EncodeBlock.
func DecodeBlock(dec *primitives.Decoder) (*Block, error) {
	var b Block
	b.Header.Parent = dec.ReadHash()
	b.Header.Nonce = dec.ReadUint32()
	b.Header.Difficulty = dec.ReadHash()
	b.Header.TimestampMS = dec.ReadUint64()
	b.Header.MerkleRoot = dec.ReadHash()
	n := dec.ReadCount()
	if dec.Err() != nil {
		return nil, fmt.Errorf("chain: decode block header: %w", dec.Err())
	}
	b.Content.Transactions = make([]SignedTransaction, n)
	for i := 0; i < n; i++ {
		st, err := DecodeSignedTransaction(dec)
		if err != nil {
			return nil, err
		}
		b.Content.Transactions[i] = st
	}
	return &b, nil
}
