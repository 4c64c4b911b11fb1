// Package state implements account balances and nonces, and the
// deterministic application of transactions against them.
package state

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"sync"

	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/logging"
)

var log = logging.Logger(logging.SubsystemState)

// AccountInfo is one account's nonce and balance.
type AccountInfo struct {
	Nonce   uint64
	Balance *big.Int // big.Int models an unbounded/128-bit balance without overflow risk
}

// Address is an account address: the base64 encoding of an Ed25519
// public key, matching the sender/receiver encoding used on the wire.
type Address string

// AddressFromPublicKey returns the Address for a raw public key.
func AddressFromPublicKey(pub []byte) Address {
	return Address(base64.StdEncoding.EncodeToString(pub))
}

// State is the mapping from account address to AccountInfo. A
// distinguished ICO address starts with a fixed balance; every other
// account implicitly starts at nonce 0, balance 0 and is only
// materialized in the map once touched.
type State struct {
	mu sync.RWMutex

	accounts map[Address]*AccountInfo

	// StrictNonce gates whether Apply additionally requires
	// tx.Nonce == state[sender].Nonce. Left as a policy decision rather
	// than a hard invariant; this node defaults it off.
	StrictNonce bool
}

// ICOBalance is the fixed starting balance credited to the ICO address.
var ICOBalance = big.NewInt(200000)

// New returns a State seeded with icoAddress at ICOBalance.
func New(icoAddress Address) *State {
	s := &State{accounts: make(map[Address]*AccountInfo)}
	s.accounts[icoAddress] = &AccountInfo{Nonce: 0, Balance: new(big.Int).Set(ICOBalance)}
	return s
}

// Clone returns a deep copy of s; later changes to either State do not
// affect the other.
func (s *State) Clone() *State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &State{accounts: make(map[Address]*AccountInfo, len(s.accounts)), StrictNonce: s.StrictNonce}
	for addr, info := range s.accounts {
		clone.accounts[addr] = &AccountInfo{Nonce: info.Nonce, Balance: new(big.Int).Set(info.Balance)}
	}
	return clone
}

// Account returns a copy of the AccountInfo for addr, or the implicit
// zero account if addr has never been touched.
func (s *State) Account(addr Address) AccountInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if info, ok := s.accounts[addr]; ok {
		return AccountInfo{Nonce: info.Nonce, Balance: new(big.Int).Set(info.Balance)}
	}
	return AccountInfo{Nonce: 0, Balance: new(big.Int)}
}

// Accounts returns every materialized account address, for the HTTP
// state dump (/blockchain/state).
func (s *State) Accounts() map[Address]AccountInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Address]AccountInfo, len(s.accounts))
	for addr, info := range s.accounts {
		out[addr] = AccountInfo{Nonce: info.Nonce, Balance: new(big.Int).Set(info.Balance)}
	}
	return out
}

func (s *State) get(addr Address) *AccountInfo {
	if info, ok := s.accounts[addr]; ok {
		return info
	}
	info := &AccountInfo{Nonce: 0, Balance: new(big.Int)}
	s.accounts[addr] = info
	return info
}

// Apply applies st to s, proceeding iff the signature verifies and the
// sender's balance covers the transfer (and, if StrictNonce is set,
// the transaction's nonce matches the sender's current nonce exactly).
// On success the sender is debited and its nonce incremented, and the
// receiver is credited (materializing it at nonce 0, balance 0 if it
// didn't already exist).
func (s *State) Apply(st *chain.SignedTransaction) error {
	if !st.Verify() {
		return fmt.Errorf("state: signature verification failed for tx from %s", AddressFromPublicKey(st.PublicKey))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	senderAddr := AddressFromPublicKey(st.Transaction.Sender)
	receiverAddr := AddressFromPublicKey(st.Transaction.Receiver)

	sender := s.get(senderAddr)
	if s.StrictNonce && st.Transaction.Nonce != sender.Nonce {
		return fmt.Errorf("state: nonce mismatch for %s: tx has %d, account has %d", senderAddr, st.Transaction.Nonce, sender.Nonce)
	}
	value := big.NewInt(st.Transaction.Value)
	if sender.Balance.Cmp(value) < 0 {
		return fmt.Errorf("state: insufficient balance for %s: have %s, need %s", senderAddr, sender.Balance, value)
	}

	sender.Balance.Sub(sender.Balance, value)
	sender.Nonce++

	receiver := s.get(receiverAddr)
	receiver.Balance.Add(receiver.Balance, value)

	return nil
}

// ApplyLogged is Apply, but logs and swallows the error instead of
// returning it. It is used during block replay (snapshot
// reconstruction), where a failing transaction is skipped without
// aborting the whole replay.
func (s *State) ApplyLogged(st *chain.SignedTransaction) {
	if err := s.Apply(st); err != nil {
		log.Warnf("skipping transaction %s during replay: %v", st.Hash(), err)
	}
}
