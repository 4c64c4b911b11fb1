package chain

import (
	"github.com/cinderchain/cinderd/internal/primitives"
)

// BlockHeader is everything about a block that contributes to its
// hash but not its transaction list directly (the transaction list is
// committed via MerkleRoot).
type BlockHeader struct {
	Parent      primitives.Hash
	Nonce       uint32
	Difficulty  primitives.Hash
	TimestampMS uint64 // ms since epoch; a uint64 covers about 584 million years
	MerkleRoot  primitives.Hash
}

// CanonicalBytes returns the deterministic serialization of h.
func (h *BlockHeader) CanonicalBytes() []byte {
	buf := newByteBuffer()
	enc := primitives.NewEncoder(buf)
	enc.WriteHash(h.Parent)
	enc.WriteUint32(h.Nonce)
	enc.WriteHash(h.Difficulty)
	enc.WriteUint64(h.TimestampMS)
	enc.WriteHash(h.MerkleRoot)
	return buf.Bytes()
}

// Hash returns SHA256(canonical_serialize(header)).
func (h *BlockHeader) Hash() primitives.Hash {
	return primitives.Sum256(h.CanonicalBytes())
}

// MeetsTarget reports whether the header's hash satisfies its own
// difficulty target: hash(header) <= difficulty.
func (h *BlockHeader) MeetsTarget() bool {
	return h.Hash().LessOrEqual(h.Difficulty)
}

// BlockContent holds a block's transactions.
type BlockContent struct {
	Transactions []SignedTransaction
}

// Block is a header plus its content.
type Block struct {
	Header  BlockHeader
	Content BlockContent
}

// Hash returns the block's identity: the hash of its header.
func (b *Block) Hash() primitives.Hash {
	return b.Header.Hash()
}

// ComputeMerkleRoot returns the Merkle root over the block's
// transaction hashes, in order.
func (b *Block) ComputeMerkleRoot() primitives.Hash {
	leaves := make([]primitives.Hash, len(b.Content.Transactions))
	for i := range b.Content.Transactions {
		leaves[i] = b.Content.Transactions[i].Hash()
	}
	return primitives.MerkleRoot(leaves)
}

// NewBlock constructs a block over txs with parent, difficulty, and
// timestampMS, computing the Merkle root. Nonce starts at zero; the
// miner's PoW loop is responsible for searching it.
func NewBlock(parent primitives.Hash, difficulty primitives.Hash, timestampMS uint64, txs []SignedTransaction) *Block {
	b := &Block{
		Header: BlockHeader{
			Parent:      parent,
			Nonce:       0,
			Difficulty:  difficulty,
			TimestampMS: timestampMS,
		},
		Content: BlockContent{Transactions: txs},
	}
	b.Header.MerkleRoot = b.ComputeMerkleRoot()
	return b
}
