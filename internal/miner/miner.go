// Package miner implements the PoW search loop and its control
// signaling: a tight nonce-search loop with a non-blocking
// control-channel poll every PoWCheckInterval nonce attempts.
package miner

import (
	"time"

	"github.com/cinderchain/cinderd/internal/blockchain"
	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/logging"
	"github.com/cinderchain/cinderd/internal/mempool"
)

var log = logging.Logger(logging.SubsystemMiner)

// MaxTxsPerBlock is the candidate-block transaction budget.
const MaxTxsPerBlock = 20

// SignalKind tags a ControlSignal.
type SignalKind int

const (
	// SignalStart transitions the miner to Running(Lambda).
	SignalStart SignalKind = iota
	// SignalUpdate hints the current candidate may be stale.
	SignalUpdate
	// SignalExit transitions the miner to Shutdown.
	SignalExit
)

// ControlSignal is sent on the miner's control channel.
type ControlSignal struct {
	Kind   SignalKind
	Lambda uint64 // microseconds between blocks; only meaningful for SignalStart
}

// state is the miner's internal Paused/Running/Shutdown state machine.
type state int

const (
	statePaused state = iota
	stateRunning
	stateShutdown
)

// Miner is the PoW search loop driven by a control channel. The zero
// value is not usable; construct with New.
type Miner struct {
	chain   *blockchain.Chain
	mempool *mempool.Mempool
	control chan ControlSignal

	// minedIn is Run's private handoff to the pump goroutine, which
	// re-exposes it as the unbounded Mined channel below.
	minedIn chan *chain.Block

	// Mined is the single-producer, single-consumer, unbounded output
	// channel the block-publish worker (internal/publish) drains. It
	// is backed by an in-memory queue (see pumpMined) rather than a
	// fixed buffer, so a stalled consumer never blocks the miner.
	Mined chan *chain.Block
}

// New returns a Miner in the initial Paused state.
func New(chn *blockchain.Chain, mp *mempool.Mempool) *Miner {
	m := &Miner{
		chain:   chn,
		mempool: mp,
		control: make(chan ControlSignal),
		minedIn: make(chan *chain.Block),
		Mined:   make(chan *chain.Block),
	}
	go m.pumpMined()
	return m
}

// pumpMined relays blocks from minedIn to Mined through an unbounded
// in-memory queue, so sending a mined block never blocks the miner
// goroutine regardless of how far behind the publish worker falls.
func (m *Miner) pumpMined() {
	var queue []*chain.Block
	for {
		if len(queue) == 0 {
			queue = append(queue, <-m.minedIn)
			continue
		}
		select {
		case b := <-m.minedIn:
			queue = append(queue, b)
		case m.Mined <- queue[0]:
			queue = queue[1:]
		}
	}
}

// Control returns the channel used to drive the miner: send
// ControlSignal{Kind: SignalStart, Lambda: l} to start or retune
// mining, SignalUpdate to hint the candidate may be stale, or
// SignalExit to shut the miner down.
func (m *Miner) Control() chan<- ControlSignal {
	return m.control
}

// Run is the miner's main loop; it blocks until a SignalExit is
// received, and should be launched in its own goroutine. A
// disconnected (closed, never-sent-again) control channel is treated
// as fatal — the node cannot continue mining without its control
// plane, so Run panics rather than silently idling forever.
func (m *Miner) Run() {
	st := statePaused
	var lambda uint64

	for {
		switch st {
		case statePaused:
			sig, ok := <-m.control
			if !ok {
				panic("miner: control channel closed while paused")
			}
			st, lambda = m.applySignal(st, lambda, sig)

		case stateRunning:
			block, mined, pending := m.mineOne(lambda)
			if mined {
				m.minedIn <- block
				if lambda != 0 {
					time.Sleep(time.Duration(lambda) * time.Microsecond)
				}
			}
			if pending != nil {
				st, lambda = m.applySignal(st, lambda, *pending)
				continue
			}
			// Drain any pending control signals without blocking,
			// between PoW attempts.
			select {
			case sig, ok := <-m.control:
				if !ok {
					panic("miner: control channel closed while running")
				}
				st, lambda = m.applySignal(st, lambda, sig)
			default:
			}

		case stateShutdown:
			return
		}
	}
}

func (m *Miner) applySignal(st state, lambda uint64, sig ControlSignal) (state, uint64) {
	switch sig.Kind {
	case SignalStart:
		return stateRunning, sig.Lambda
	case SignalUpdate:
		// Implemented as "abort current PoW search and restart from step
		// 1" by simply returning to the top of the Running loop, which
		// mineOne already does per attempt — there is no in-flight search
		// state to abort mid-call, since mineOne only ever searches the
		// candidate built from the most recent tip/mempool view once per
		// invocation before re-checking control. The visible effect is
		// the same as restarting: the next mineOne call rebuilds the
		// candidate from a fresh tip read.
		return stRunningOrPaused(st), lambda
	case SignalExit:
		return stateShutdown, lambda
	default:
		return st, lambda
	}
}

func stRunningOrPaused(st state) state {
	if st == stateRunning {
		return stateRunning
	}
	return statePaused
}

// PoWCheckInterval bounds how many nonces mineOne tries before
// re-checking the control channel, so a long-running search on a
// high-difficulty target can't make the miner unresponsive to Exit.
const PoWCheckInterval = 1 << 16

// mineOne builds one candidate block from the current tip and mempool
// and searches for a nonce satisfying the difficulty target. It
// returns (block, true, nil) on success. It returns (nil, false, sig)
// if a control signal arrives mid-search; Run applies sig directly
// rather than mineOne re-sending it, since Run is the control
// channel's only receiver and cannot receive again until mineOne
// returns — re-sending into the unbuffered channel here would
// deadlock.
func (m *Miner) mineOne(lambda uint64) (*chain.Block, bool, *ControlSignal) {
	parent := m.chain.Tip()
	parentBlock, ok := m.chain.GetBlock(parent)
	if !ok {
		log.Errorf("tip %s not present in chain index", parent)
		return nil, false, nil
	}

	txs := m.mempool.TakeForBlock(MaxTxsPerBlock, m.chain)
	candidate := chain.NewBlock(parent, parentBlock.Header.Difficulty, nowMS(), txs)

	for nonce := uint32(0); ; nonce++ {
		candidate.Header.Nonce = nonce
		if candidate.Header.MeetsTarget() {
			log.Infof("mined block %s at height %d (nonce=%d, %d txs)",
				candidate.Hash(), m.chain.TipHeight()+1, nonce, len(txs))
			return candidate, true, nil
		}
		if nonce%PoWCheckInterval == 0 {
			select {
			case sig, ok := <-m.control:
				if !ok {
					panic("miner: control channel closed while mining")
				}
				return nil, false, &sig
			default:
			}
		}
	}
}

func nowMS() uint64 { return uint64(time.Now().UnixMilli()) }
