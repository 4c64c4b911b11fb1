// Package httpapi is the node's HTTP control/inspection surface, which
// only ever talks to the core through the handles the other packages
// already expose. Routes are stdlib net/http ServeMux handlers with no
// router framework; see DESIGN.md for the stdlib justification.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/cinderchain/cinderd/internal/blockchain"
	"github.com/cinderchain/cinderd/internal/gossip"
	"github.com/cinderchain/cinderd/internal/logging"
	"github.com/cinderchain/cinderd/internal/miner"
	"github.com/cinderchain/cinderd/internal/network"
	"github.com/cinderchain/cinderd/internal/state"
	"github.com/cinderchain/cinderd/internal/txgen"
)

var log = logging.Logger(logging.SubsystemHTTP)

// Server bundles the handles the control plane needs to act on: the
// miner's control channel, the transaction generator, the network
// broadcaster, and the chain index.
type Server struct {
	Miner   *miner.Miner
	TxGen   *txgen.Generator
	Network *network.Network
	Chain   *blockchain.Chain
}

// Mux builds a *http.ServeMux wired to every control-plane route.
func (s *Server) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/miner/start", s.handleMinerStart)
	mux.HandleFunc("/tx-generator/start", s.handleTxGenStart)
	mux.HandleFunc("/network/ping", s.handleNetworkPing)
	mux.HandleFunc("/blockchain/longest-chain", s.handleLongestChain)
	mux.HandleFunc("/blockchain/longest-chain-tx", s.handleLongestChainTx)
	mux.HandleFunc("/blockchain/longest-chain-tx-count", s.handleLongestChainTxCount)
	mux.HandleFunc("/blockchain/state", s.handleState)
	return mux
}

type okResponse struct {
	Success bool `json:"success"`
	Result  any  `json:"result,omitempty"`
}

type errResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func writeOK(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(okResponse{Success: true, Result: result})
}

// writeErr always responds HTTP 200 with a {success:false,...} body.
func writeErr(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(errResponse{Success: false, Message: message})
}

func (s *Server) handleMinerStart(w http.ResponseWriter, r *http.Request) {
	lambda, err := parseUint64(r, "lambda")
	if err != nil {
		writeErr(w, err.Error())
		return
	}
	s.Miner.Control() <- miner.ControlSignal{Kind: miner.SignalStart, Lambda: lambda}
	writeOK(w, "miner started")
}

func (s *Server) handleTxGenStart(w http.ResponseWriter, r *http.Request) {
	theta, err := parseUint64(r, "theta")
	if err != nil {
		writeErr(w, err.Error())
		return
	}
	s.TxGen.Start(theta)
	writeOK(w, "transaction generator started")
}

func (s *Server) handleNetworkPing(w http.ResponseWriter, r *http.Request) {
	msg := gossip.NewPing("ping")
	s.Network.Broadcast(&msg)
	writeOK(w, "ping broadcast")
}

func (s *Server) handleLongestChain(w http.ResponseWriter, r *http.Request) {
	blocks := s.Chain.LongestChain()
	hashes := make([]string, len(blocks))
	for i, b := range blocks {
		hashes[i] = b.Hash().String()
	}
	writeOK(w, hashes)
}

func (s *Server) handleLongestChainTx(w http.ResponseWriter, r *http.Request) {
	blocks := s.Chain.LongestChain()
	out := make([][]string, len(blocks))
	for i, b := range blocks {
		txHashes := make([]string, len(b.Content.Transactions))
		for j := range b.Content.Transactions {
			txHashes[j] = b.Content.Transactions[j].Hash().String()
		}
		out[i] = txHashes
	}
	writeOK(w, out)
}

func (s *Server) handleLongestChainTxCount(w http.ResponseWriter, r *http.Request) {
	blocks := s.Chain.LongestChain()
	count := 0
	for _, b := range blocks {
		count += len(b.Content.Transactions)
	}
	writeOK(w, count)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	height, err := parseUint64(r, "block")
	if err != nil {
		writeErr(w, err.Error())
		return
	}
	st := s.Chain.SnapshotUpTo(int64(height))
	accounts := st.Accounts()

	addrs := make([]string, 0, len(accounts))
	for addr := range accounts {
		addrs = append(addrs, string(addr))
	}
	sort.Strings(addrs)

	lines := make([]string, len(addrs))
	for i, addr := range addrs {
		info := accounts[state.Address(addr)]
		lines[i] = fmt.Sprintf("(%s, %d, %s)", addr, info.Nonce, info.Balance.String())
	}
	writeOK(w, lines)
}

func parseUint64(r *http.Request, param string) (uint64, error) {
	raw := r.URL.Query().Get(param)
	if raw == "" {
		return 0, fmt.Errorf("httpapi: missing query parameter %q", param)
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("httpapi: invalid %q: %w", param, err)
	}
	return v, nil
}
