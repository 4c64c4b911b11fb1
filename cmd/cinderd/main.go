// Command cinderd is the node daemon: it wires together the core
// components (chain, mempool, miner, publish worker, gossip pool) with
// its ambient collaborators (CLI flags, HTTP control plane, peer
// socket bookkeeping, the transaction generator). Sequential
// construction followed by a signal.Notify shutdown.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cinderchain/cinderd/internal/blockchain"
	"github.com/cinderchain/cinderd/internal/config"
	"github.com/cinderchain/cinderd/internal/gossip"
	"github.com/cinderchain/cinderd/internal/httpapi"
	"github.com/cinderchain/cinderd/internal/logging"
	"github.com/cinderchain/cinderd/internal/mempool"
	"github.com/cinderchain/cinderd/internal/miner"
	"github.com/cinderchain/cinderd/internal/network"
	"github.com/cinderchain/cinderd/internal/publish"
	"github.com/cinderchain/cinderd/internal/txgen"
	"github.com/cinderchain/cinderd/internal/walletkey"
)

var log = logging.Logger("MAIN")

func main() {
	opts, err := config.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logging.SetLevelAll(logging.LevelFromVerbosity(opts.Verbosity()))

	log.Info("starting cinderd")

	key, err := walletkey.LoadOrGenerate(opts.KeyFile)
	if err != nil {
		log.Errorf("failed to load or generate key: %v", err)
		os.Exit(1)
	}
	log.Infof("node address (ICO address): %s", key.Address())

	chn := blockchain.New(key.Address())
	mp := mempool.New()
	net := network.New()

	pool := gossip.NewPool(chn, mp, net)
	pool.Run(opts.P2PWorkers)
	log.Infof("gossip pool running with %d workers", opts.P2PWorkers)

	m := miner.New(chn, mp)
	go m.Run()

	pub := publish.New(chn, net)
	go pub.Run(m.Mined)

	gen := txgen.New(mp, key.Public, key.Private)

	apiSrv := &httpapi.Server{Miner: m, TxGen: gen, Network: net, Chain: chn}
	httpServer := &http.Server{Addr: opts.APIAddr, Handler: apiSrv.Mux()}
	go func() {
		log.Infof("HTTP control plane listening on %s", opts.APIAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("HTTP server error: %v", err)
		}
	}()

	p2p := newP2PListener(opts.P2PAddr, net, pool)
	go p2p.listen()

	for _, peerAddr := range opts.Connect {
		connectToPeer(peerAddr, net, pool)
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, os.Interrupt, syscall.SIGTERM)
	sig := <-shutdownCh
	log.Infof("caught signal %v, shutting down", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Warnf("HTTP server shutdown error: %v", err)
	}
	p2p.close()
	m.Control() <- miner.ControlSignal{Kind: miner.SignalExit}

	log.Info("cinderd shut down gracefully")
}

// p2pListener owns the raw websocket listener cmd/cinderd uses to
// accept inbound peer connections. Socket accept/connect bookkeeping
// lives here rather than in internal/network.
type p2pListener struct {
	addr    string
	net     *network.Network
	pool    *gossip.Pool
	server  *http.Server
	upgrade websocket.Upgrader
}

func newP2PListener(addr string, net *network.Network, pool *gossip.Pool) *p2pListener {
	return &p2pListener{addr: addr, net: net, pool: pool}
}

func (p *p2pListener) listen() {
	mux := http.NewServeMux()
	mux.HandleFunc("/", p.handleConn)
	p.server = &http.Server{Addr: p.addr, Handler: mux}
	if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Errorf("p2p listener error: %v", err)
	}
}

func (p *p2pListener) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := p.upgrade.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("p2p upgrade from %s failed: %v", r.RemoteAddr, err)
		return
	}
	peer := network.NewWSPeer(r.RemoteAddr, conn)
	p.net.Register(peer)
	go servePeer(peer, p.net, p.pool)
}

func (p *p2pListener) close() {
	if p.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		p.server.Shutdown(ctx)
	}
}

func connectToPeer(addr string, net *network.Network, pool *gossip.Pool) {
	url := fmt.Sprintf("ws://%s/", addr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Warnf("failed to connect to peer %s: %v", addr, err)
		return
	}
	peer := network.NewWSPeer(addr, conn)
	net.Register(peer)
	go servePeer(peer, net, pool)
}

// servePeer pumps inbound frames from peer into the gossip pool's
// intake channel until the connection closes, then unregisters it.
func servePeer(peer *network.WSPeer, net *network.Network, pool *gossip.Pool) {
	defer net.Unregister(peer.ID())
	defer peer.Close()
	err := peer.ReadLoop(func(data []byte) error {
		pool.Intake <- gossip.Envelope{Data: data, PeerID: peer.ID()}
		return nil
	})
	if err != nil {
		log.Debugf("peer %s disconnected: %v", peer.ID(), err)
	}
}
