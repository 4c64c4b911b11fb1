// Package blockchain implements the block index: the longest-chain
// store with fork choice by height. Blocks live in an arena-style
// slice with a hash->id side map rather than pointer-linked nodes.
package blockchain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/logging"
	"github.com/cinderchain/cinderd/internal/primitives"
	"github.com/cinderchain/cinderd/internal/state"
)

var log = logging.Logger(logging.SubsystemChain)

// Errors returned by Chain methods.
var (
	ErrBlockExists    = errors.New("blockchain: block already present")
	ErrUnknownParent  = errors.New("blockchain: parent not present")
	ErrBlockNotFound  = errors.New("blockchain: block not found")
	ErrGenesisMissing = errors.New("blockchain: genesis not initialized")
)

// Chain is the mutex-protected block index: blocks stored by an
// integer id in a slice, with a hash->id side map, a height map, and
// the current tip. One mutex covers all three.
type Chain struct {
	mu sync.RWMutex

	blocks   []*chain.Block          // arena, indexed by id
	idByHash map[primitives.Hash]int // hash -> index into blocks
	height   map[primitives.Hash]int64

	tip primitives.Hash

	icoAddress state.Address
}

// New returns a Chain seeded with the genesis block.
func New(icoAddress state.Address) *Chain {
	c := &Chain{
		idByHash:   make(map[primitives.Hash]int),
		height:     make(map[primitives.Hash]int64),
		icoAddress: icoAddress,
	}
	genesis := chain.Genesis()
	c.insertLocked(genesis, 0)
	c.tip = genesis.Hash()
	return c
}

func (c *Chain) insertLocked(b *chain.Block, height int64) {
	h := b.Hash()
	id := len(c.blocks)
	c.blocks = append(c.blocks, b)
	c.idByHash[h] = id
	c.height[h] = height
}

// Insert stores block, setting its height to parent's height + 1. The
// parent must already be present — callers (the gossip worker) are
// responsible for orphan-buffering blocks whose parent is unknown
// before calling Insert. If block's height exceeds the current tip's
// height, the tip advances to block; on a tie the existing tip is
// kept (first-seen wins). Re-inserting an already-present block is a
// no-op success, making Insert idempotent.
func (c *Chain) Insert(b *chain.Block) error {
	h := b.Hash()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.idByHash[h]; exists {
		return nil
	}
	parentHeight, ok := c.height[b.Header.Parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParent, b.Header.Parent)
	}
	height := parentHeight + 1
	c.insertLocked(b, height)

	if height > c.height[c.tip] {
		c.tip = h
	}

	log.Debugf("inserted block %s at height %d (tip %s at height %d)", h, height, c.tip, c.height[c.tip])
	return nil
}

// Tip returns the current tip's hash.
func (c *Chain) Tip() primitives.Hash {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tip
}

// TipHeight returns the current tip's height.
func (c *Chain) TipHeight() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.height[c.tip]
}

// ContainsBlock reports whether h is present in the index.
func (c *Chain) ContainsBlock(h primitives.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.idByHash[h]
	return ok
}

// GetBlock returns the block for h, if present.
func (c *Chain) GetBlock(h primitives.Hash) (*chain.Block, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.idByHash[h]
	if !ok {
		return nil, false
	}
	return c.blocks[id], true
}

// HeightOf returns the height of the block with hash h, if present.
func (c *Chain) HeightOf(h primitives.Hash) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	height, ok := c.height[h]
	return height, ok
}

// ContainsTransaction reports whether any stored block embeds a
// transaction with hash h. A linear scan is acceptable here.
func (c *Chain) ContainsTransaction(h primitives.Hash) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, b := range c.blocks {
		for i := range b.Content.Transactions {
			if b.Content.Transactions[i].Hash() == h {
				return true
			}
		}
	}
	return false
}

// LongestChain walks parent pointers from the tip down to genesis and
// returns them in genesis-to-tip order.
func (c *Chain) LongestChain() []*chain.Block {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.longestChainLocked(c.tip)
}

func (c *Chain) longestChainLocked(from primitives.Hash) []*chain.Block {
	var rev []*chain.Block
	cur := from
	for {
		id, ok := c.idByHash[cur]
		if !ok {
			break
		}
		b := c.blocks[id]
		rev = append(rev, b)
		if b.Header.Parent.IsZero() {
			break
		}
		cur = b.Header.Parent
	}
	out := make([]*chain.Block, len(rev))
	for i, b := range rev {
		out[len(rev)-1-i] = b
	}
	return out
}

// SnapshotUpTo returns the State obtained by replaying, from genesis
// forward, every block in the longest chain with height <= height. If
// height exceeds the tip's height it is clamped to the tip. Failures
// in Apply are logged but do not abort the snapshot.
func (c *Chain) SnapshotUpTo(height int64) *state.State {
	c.mu.RLock()
	chainBlocks := c.longestChainLocked(c.tip)
	ico := c.icoAddress
	c.mu.RUnlock()

	if height < 0 {
		height = 0
	}
	if int64(len(chainBlocks))-1 < height {
		height = int64(len(chainBlocks)) - 1
	}

	st := state.New(ico)
	for i := int64(0); i <= height && i < int64(len(chainBlocks)); i++ {
		b := chainBlocks[i]
		for j := range b.Content.Transactions {
			st.ApplyLogged(&b.Content.Transactions[j])
		}
	}
	return st
}
