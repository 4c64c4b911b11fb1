package gossip

import (
	"sync"

	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/primitives"
)

// orphanBuffer holds blocks whose parent is not (yet) in the chain,
// keyed by that missing parent hash. Each gossip worker's per-goroutine
// state may see a different partial view, so the buffer is shared
// under its own mutex to preserve the transitive drain invariant
// across workers — one orphanBuffer is shared by every Worker in a
// Pool.
type orphanBuffer struct {
	mu      sync.Mutex
	byParent map[primitives.Hash]*chain.Block
}

func newOrphanBuffer() *orphanBuffer {
	return &orphanBuffer{byParent: make(map[primitives.Hash]*chain.Block)}
}

// put parks b, keyed by its (missing) parent hash.
func (o *orphanBuffer) put(b *chain.Block) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.byParent[b.Header.Parent] = b
}

// takeChild removes and returns the orphan keyed by parentHash, if
// any.
func (o *orphanBuffer) takeChild(parentHash primitives.Hash) (*chain.Block, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	b, ok := o.byParent[parentHash]
	if ok {
		delete(o.byParent, parentHash)
	}
	return b, ok
}
