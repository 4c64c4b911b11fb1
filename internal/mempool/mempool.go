// Package mempool holds signed transactions waiting to be mined,
// admitting only cryptographically valid ones. An RWMutex-guarded map
// keyed by hash, with signature-checked admission and chain-aware
// selection.
package mempool

import (
	"sync"

	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/logging"
	"github.com/cinderchain/cinderd/internal/primitives"
)

var log = logging.Logger(logging.SubsystemMempool)

// ChainView is the subset of blockchain.Chain the mempool needs for
// TakeForBlock's "not already embedded" filter, kept as a narrow
// interface so mempool does not import blockchain.
type ChainView interface {
	ContainsTransaction(h primitives.Hash) bool
}

// Mempool is the set of currently admitted signed transactions, keyed
// by hash.
type Mempool struct {
	mu sync.RWMutex

	// order records admission order so TakeForBlock's selection is
	// deterministic.
	order []primitives.Hash
	txs   map[primitives.Hash]*chain.SignedTransaction
}

// New returns an empty Mempool.
func New() *Mempool {
	return &Mempool{txs: make(map[primitives.Hash]*chain.SignedTransaction)}
}

// Add admits st if its hash isn't already present and its signature
// verifies. It fails silently (returns false) on either condition —
// mempool admission enforces only cryptographic validity, not
// balance/nonce.
func (mp *Mempool) Add(st chain.SignedTransaction) bool {
	h := st.Hash()

	mp.mu.Lock()
	defer mp.mu.Unlock()

	if _, exists := mp.txs[h]; exists {
		return false
	}
	if !st.Verify() {
		log.Warnf("rejecting transaction %s: signature verification failed", h)
		return false
	}
	mp.txs[h] = &st
	mp.order = append(mp.order, h)
	return true
}

// Contains reports whether h is currently admitted.
func (mp *Mempool) Contains(h primitives.Hash) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	_, ok := mp.txs[h]
	return ok
}

// Get returns the transaction for h, if present.
func (mp *Mempool) Get(h primitives.Hash) (chain.SignedTransaction, bool) {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	st, ok := mp.txs[h]
	if !ok {
		return chain.SignedTransaction{}, false
	}
	return *st, true
}

// GetMany returns every transaction among hs that is currently
// admitted, preserving the order of hs.
func (mp *Mempool) GetMany(hs []primitives.Hash) []chain.SignedTransaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	var out []chain.SignedTransaction
	for _, h := range hs {
		if st, ok := mp.txs[h]; ok {
			out = append(out, *st)
		}
	}
	return out
}

// Remove deletes the listed hashes from the mempool. Idempotent: a
// hash that isn't present is silently skipped.
func (mp *Mempool) Remove(hs []primitives.Hash) {
	if len(hs) == 0 {
		return
	}
	mp.mu.Lock()
	defer mp.mu.Unlock()
	remove := make(map[primitives.Hash]struct{}, len(hs))
	for _, h := range hs {
		remove[h] = struct{}{}
		delete(mp.txs, h)
	}
	kept := mp.order[:0]
	for _, h := range mp.order {
		if _, gone := remove[h]; !gone {
			kept = append(kept, h)
		}
	}
	mp.order = kept
}

// Count returns the number of currently admitted transactions.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()
	return len(mp.txs)
}

// TakeForBlock returns up to max currently-held transactions, in
// admission order, skipping every transaction for which
// chainView.ContainsTransaction reports true. With blockchain.Chain as
// the view that is any block the chain has stored, side forks
// included: a transaction embedded only in a block off the longest
// chain is skipped as well.
func (mp *Mempool) TakeForBlock(max int, chainView ChainView) []chain.SignedTransaction {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	out := make([]chain.SignedTransaction, 0, max)
	for _, h := range mp.order {
		if len(out) >= max {
			break
		}
		st, ok := mp.txs[h]
		if !ok {
			continue
		}
		if chainView != nil && chainView.ContainsTransaction(h) {
			continue
		}
		out = append(out, *st)
	}
	return out
}
