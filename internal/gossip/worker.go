package gossip

import (
	"fmt"

	"github.com/cinderchain/cinderd/internal/blockchain"
	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/logging"
	"github.com/cinderchain/cinderd/internal/mempool"
	"github.com/cinderchain/cinderd/internal/network"
	"github.com/cinderchain/cinderd/internal/primitives"
)

var log = logging.Logger(logging.SubsystemGossip)

// IntakeCapacity is the shared gossip intake channel's capacity;
// producers (peer read loops) block when it's full.
const IntakeCapacity = 10000

// Envelope is one inbound wire message paired with the peer it
// arrived from.
type Envelope struct {
	Data   []byte
	PeerID string
}

// Pool runs N gossip workers (default 4) all draining a shared MPMC
// intake channel.
type Pool struct {
	chain   *blockchain.Chain
	mempool *mempool.Mempool
	net     *network.Network
	orphans *orphanBuffer

	Intake chan Envelope
}

// NewPool returns a Pool wired to chain, mempool, and net, with an
// intake channel of capacity IntakeCapacity.
func NewPool(chn *blockchain.Chain, mp *mempool.Mempool, net *network.Network) *Pool {
	return &Pool{
		chain:   chn,
		mempool: mp,
		net:     net,
		orphans: newOrphanBuffer(),
		Intake:  make(chan Envelope, IntakeCapacity),
	}
}

// Run starts n worker goroutines, each draining Intake until it is
// closed. Run itself returns immediately and offers no way to wait for
// the workers to exit; they run until Intake is closed or the process
// ends.
func (p *Pool) Run(n int) {
	for i := 0; i < n; i++ {
		go p.loop(i)
	}
}

func (p *Pool) loop(workerID int) {
	for env := range p.Intake {
		var msg Message
		if err := msg.UnmarshalBinary(env.Data); err != nil {
			log.Warnf("worker %d: dropping undecodable message from %s: %v", workerID, env.PeerID, err)
			continue
		}
		p.dispatch(env.PeerID, &msg)
	}
}

// dispatch handles a single decoded message.
func (p *Pool) dispatch(peerID string, msg *Message) {
	switch msg.Tag {
	case TagPing:
		p.reply(peerID, NewPong(msg.Text))

	case TagPong:
		log.Debugf("pong from %s: %s", peerID, msg.Text)

	case TagNewBlockHashes:
		var unknown []primitives.Hash
		for _, h := range msg.Hashes {
			if !p.chain.ContainsBlock(h) {
				unknown = append(unknown, h)
			}
		}
		if len(unknown) > 0 {
			p.reply(peerID, NewGetBlocksMsg(unknown))
		}

	case TagGetBlocks:
		var found []*chain.Block
		for _, h := range msg.Hashes {
			if b, ok := p.chain.GetBlock(h); ok {
				found = append(found, b)
			}
		}
		p.reply(peerID, NewBlocksMsg(found))

	case TagBlocks:
		var newHashes []primitives.Hash
		for _, b := range msg.Blocks {
			committed := p.processBlock(b)
			if !committed {
				continue
			}
			h := b.Hash()
			newHashes = append(newHashes, h)
			newHashes = append(newHashes, p.drainOrphans(h)...)
		}
		if len(newHashes) > 0 {
			p.net.Broadcast(ptr(NewBlockHashesMsg(newHashes)))
		}

	case TagNewTransactionHashes:
		var unknown []primitives.Hash
		for _, h := range msg.Hashes {
			if !p.chain.ContainsTransaction(h) && !p.mempool.Contains(h) {
				unknown = append(unknown, h)
			}
		}
		if len(unknown) > 0 {
			p.reply(peerID, NewGetTransactionsMsg(unknown))
		}

	case TagGetTransactions:
		found := p.mempool.GetMany(msg.Hashes)
		p.reply(peerID, NewTransactionsMsg(found))

	case TagTransactions:
		// Received transactions are admitted but not rebroadcast here —
		// a known flood-convergence gap, not a bug.
		for i := range msg.Transactions {
			st := msg.Transactions[i]
			if p.mempool.Contains(st.Hash()) {
				continue
			}
			p.mempool.Add(st)
		}

	default:
		log.Warnf("dropping message with unknown tag %d from %s", msg.Tag, peerID)
	}
}

func (p *Pool) reply(peerID string, msg Message) {
	if err := p.net.Write(peerID, &msg); err != nil {
		log.Warnf("reply to %s failed: %v", peerID, err)
	}
}

func ptr(m Message) *Message { return &m }

// processBlock validates and commits b:
//  1. PoW check: hash(b) <= b.difficulty.
//  2. Difficulty consistency: b.difficulty == parent.difficulty; if
//     the parent is unknown, b.difficulty is accepted at face value
//     for this check only — a deliberate asymmetry, not tightened here.
//  3. If the parent is unknown, park b in the orphan buffer and
//     request it, returning false (not committed).
//  4. Otherwise insert b and return true.
func (p *Pool) processBlock(b *chain.Block) bool {
	if !b.Header.MeetsTarget() {
		log.Warnf("dropping block %s: PoW target not met", b.Hash())
		return false
	}

	parent, haveParent := p.chain.GetBlock(b.Header.Parent)
	if haveParent {
		if b.Header.Difficulty != parent.Header.Difficulty {
			log.Warnf("dropping block %s: difficulty %s does not match parent difficulty %s",
				b.Hash(), b.Header.Difficulty, parent.Header.Difficulty)
			return false
		}
	} else {
		p.orphans.put(b)
		p.net.Broadcast(ptr(NewGetBlocksMsg([]primitives.Hash{b.Header.Parent})))
		return false
	}

	if err := p.chain.Insert(b); err != nil {
		log.Warnf("dropping block %s: %v", b.Hash(), err)
		return false
	}
	return true
}

// drainOrphans runs process_orphan_blocks(h): while an orphan exists
// whose key equals h, remove it, insert it into the chain, and
// continue with the newly-inserted block's hash.
// If h itself is not in the chain, nothing is drained.
func (p *Pool) drainOrphans(h primitives.Hash) []primitives.Hash {
	if !p.chain.ContainsBlock(h) {
		return nil
	}
	var committed []primitives.Hash
	for {
		child, ok := p.orphans.takeChild(h)
		if !ok {
			return committed
		}
		if err := p.chain.Insert(child); err != nil {
			log.Warnf("dropping drained orphan %s: %v", child.Hash(), err)
			return committed
		}
		h = child.Hash()
		committed = append(committed, h)
	}
}

// Stats is a human-readable snapshot of pool-internal counters, for
// logging/debugging only.
func (p *Pool) Stats() string {
	return fmt.Sprintf("intake depth=%d/%d", len(p.Intake), cap(p.Intake))
}
