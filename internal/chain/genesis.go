package chain

import "github.com/cinderchain/cinderd/internal/primitives"

// GenesisTimestampMS is the fixed timestamp constant used by the
// genesis block, chosen so every node derives an identical genesis
// hash regardless of when it first starts.
const GenesisTimestampMS uint64 = 1577836800000 // 2020-01-01T00:00:00Z

// GenesisDifficulty is the fixed genesis difficulty target: a
// leading-zero-byte target (the top byte is 0x00, the rest 0xff),
// giving a PoW search that completes quickly in practice.
var GenesisDifficulty = func() primitives.Hash {
	var h primitives.Hash
	for i := 1; i < primitives.Size; i++ {
		h[i] = 0xff
	}
	return h
}()

// Genesis returns the fixed, deterministic genesis block: zero parent,
// zero nonce, the fixed timestamp and difficulty above, and no
// transactions.
func Genesis() *Block {
	return NewBlock(primitives.ZeroHash, GenesisDifficulty, GenesisTimestampMS, nil)
}
