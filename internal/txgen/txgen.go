// Package txgen is the local transaction generator: a cadence-driven
// source of signed transactions feeding the mempool, driven by the
// HTTP control plane's /tx-generator/start?theta= route.
package txgen

import (
	"math/rand"
	"sync"
	"time"

	"golang.org/x/crypto/ed25519"

	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/logging"
	"github.com/cinderchain/cinderd/internal/mempool"
	"github.com/cinderchain/cinderd/internal/primitives"
	"github.com/cinderchain/cinderd/internal/state"
)

var log = logging.Logger(logging.SubsystemTxGen)

// Generator periodically crafts a signed transaction from a fixed
// sending key to a freshly generated receiver and admits it to the
// mempool.
type Generator struct {
	mempool *mempool.Mempool
	sender  ed25519.PublicKey
	signer  ed25519.PrivateKey

	mu      sync.Mutex
	nonce   uint64
	stop    chan struct{}
	running bool
}

// New returns a Generator that will sign outgoing transactions with
// senderPriv, crediting funds away from senderPub's balance (typically
// the node's own ICO-seeded key).
func New(mp *mempool.Mempool, senderPub ed25519.PublicKey, senderPriv ed25519.PrivateKey) *Generator {
	return &Generator{mempool: mp, sender: senderPub, signer: senderPriv}
}

// Start begins generating transactions at a 10*theta ms cadence,
// stopping and replacing any previously running cadence.
func (g *Generator) Start(theta uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.running {
		close(g.stop)
	}
	g.stop = make(chan struct{})
	g.running = true
	interval := time.Duration(theta*10) * time.Millisecond
	if interval <= 0 {
		interval = time.Millisecond
	}
	go g.loop(interval, g.stop)
}

func (g *Generator) loop(interval time.Duration, stop chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			g.tick()
		}
	}
}

func (g *Generator) tick() {
	receiverPub, _, err := primitives.GenerateKey()
	if err != nil {
		log.Warnf("failed to generate receiver key: %v", err)
		return
	}

	g.mu.Lock()
	nonce := g.nonce
	g.nonce++
	g.mu.Unlock()

	txn := chain.Transaction{
		Sender:   g.sender,
		Receiver: receiverPub,
		Value:    int64(1 + rand.Intn(10)),
		Nonce:    nonce,
	}
	st := chain.Sign(txn, g.signer)
	if !g.mempool.Add(st) {
		log.Debugf("generated transaction %s was not admitted", st.Hash())
		return
	}
	log.Debugf("generated transaction %s from %s", st.Hash(), state.AddressFromPublicKey(g.sender))
}
