// Package publish implements the block-publish worker: the sole
// consumer of the miner's output channel. Insert then announce by
// hash, in that order.
package publish

import (
	"github.com/cinderchain/cinderd/internal/blockchain"
	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/gossip"
	"github.com/cinderchain/cinderd/internal/logging"
	"github.com/cinderchain/cinderd/internal/network"
	"github.com/cinderchain/cinderd/internal/primitives"
)

var log = logging.Logger(logging.SubsystemPublish)

// Worker drains a miner's mined-block channel, committing each block
// to chain and announcing it to the network.
type Worker struct {
	chain *blockchain.Chain
	net   *network.Network
}

// New returns a Worker wired to chn and net.
func New(chn *blockchain.Chain, net *network.Network) *Worker {
	return &Worker{chain: chn, net: net}
}

// Run drains mined until it is closed, handling each block in turn.
// It should be launched in its own goroutine and runs for the process
// lifetime, since the miner's channel is never closed during normal
// operation.
func (w *Worker) Run(mined <-chan *chain.Block) {
	for b := range mined {
		w.publish(b)
	}
}

// publish commits b and announces it. Insert happens before the
// broadcast: a block emitted to the publish channel is committed
// before the corresponding NewBlockHashes broadcast reaches any peer.
func (w *Worker) publish(b *chain.Block) {
	h := b.Hash()
	if err := w.chain.Insert(b); err != nil {
		log.Errorf("failed to commit mined block %s: %v", h, err)
		return
	}
	log.Infof("published block %s at height %d", h, w.chain.TipHeight())
	msg := gossip.NewBlockHashesMsg([]primitives.Hash{h})
	w.net.Broadcast(&msg)
}
