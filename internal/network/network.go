// Package network implements the broadcast-to-all-peers primitive: an
// abstracted network handle that the publish worker and the gossip
// worker use to reach remote peers, without concerning themselves with
// socket accept/connect bookkeeping (left to cmd/cinderd).
package network

import (
	"sync"

	"github.com/cinderchain/cinderd/internal/logging"
)

var log = logging.Logger(logging.SubsystemNetwork)

// Message is the minimal contract a wire message must satisfy to be
// sent over a PeerHandle: encode itself to bytes. internal/gossip's
// Message type implements this.
type Message interface {
	MarshalBinary() ([]byte, error)
}

// PeerHandle is a single remote peer's write side. Delivery is
// best-effort; no ordering guarantees across peers, though per-peer
// writes are delivered in send order.
type PeerHandle interface {
	// ID identifies the peer for logging purposes.
	ID() string
	// Write sends msg to this peer alone.
	Write(msg Message) error
}

// Network is the broadcast/per-peer write abstraction (C8). It holds
// no knowledge of how peers were discovered or connected; cmd/cinderd
// registers and unregisters PeerHandles as sockets come and go.
type Network struct {
	mu    sync.RWMutex
	peers map[string]PeerHandle
}

// New returns an empty Network.
func New() *Network {
	return &Network{peers: make(map[string]PeerHandle)}
}

// Register adds p to the set of peers reachable by Broadcast.
func (n *Network) Register(p PeerHandle) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.peers[p.ID()] = p
}

// Unregister removes the peer with the given ID, e.g. on disconnect.
func (n *Network) Unregister(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.peers, id)
}

// PeerCount returns the number of currently registered peers.
func (n *Network) PeerCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.peers)
}

// Broadcast sends msg to every registered peer, best-effort: a write
// failure to one peer is logged and does not block or fail the
// broadcast to the others.
func (n *Network) Broadcast(msg Message) {
	n.mu.RLock()
	peers := make([]PeerHandle, 0, len(n.peers))
	for _, p := range n.peers {
		peers = append(peers, p)
	}
	n.mu.RUnlock()

	for _, p := range peers {
		if err := p.Write(msg); err != nil {
			log.Warnf("broadcast to peer %s failed: %v", p.ID(), err)
		}
	}
}

// Write sends msg to a single peer by ID, used to reply to the
// originator of a request (Ping/Pong, GetBlocks/Blocks, ...).
func (n *Network) Write(peerID string, msg Message) error {
	n.mu.RLock()
	p, ok := n.peers[peerID]
	n.mu.RUnlock()
	if !ok {
		return nil
	}
	return p.Write(msg)
}
