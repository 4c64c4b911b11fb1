package state

import (
	"math/big"
	"testing"

	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/primitives"
)

func newKeyedAddr(t *testing.T) (chain.Transaction, func(int64, uint64) chain.SignedTransaction, Address) {
	t.Helper()
	pub, priv, err := primitives.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	rpub, _, err := primitives.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	sign := func(value int64, nonce uint64) chain.SignedTransaction {
		return chain.Sign(chain.Transaction{Sender: pub, Receiver: rpub, Value: value, Nonce: nonce}, priv)
	}
	return chain.Transaction{Sender: pub, Receiver: rpub}, sign, AddressFromPublicKey(pub)
}

func TestNewSeedsICOBalance(t *testing.T) {
	_, _, ico := newKeyedAddr(t)
	s := New(ico)
	acct := s.Account(ico)
	if acct.Balance.Cmp(ICOBalance) != 0 {
		t.Fatalf("ICO address balance = %s, want %s", acct.Balance, ICOBalance)
	}
}

func TestApplyTransfersValue(t *testing.T) {
	_, sign, ico := newKeyedAddr(t)
	s := New(ico)

	st := sign(100, 0)
	if err := s.Apply(&st); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	sender := s.Account(ico)
	wantSender := new(big.Int).Sub(ICOBalance, big.NewInt(100))
	if sender.Balance.Cmp(wantSender) != 0 {
		t.Fatalf("sender balance = %s, want %s", sender.Balance, wantSender)
	}
	if sender.Nonce != 1 {
		t.Fatalf("sender nonce = %d, want 1", sender.Nonce)
	}

	receiverAddr := AddressFromPublicKey(st.Transaction.Receiver)
	receiver := s.Account(receiverAddr)
	if receiver.Balance.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("receiver balance = %s, want 100", receiver.Balance)
	}
}

func TestApplyRejectsInsufficientBalance(t *testing.T) {
	_, sign, ico := newKeyedAddr(t)
	s := New(ico)

	st := sign(1_000_000, 0)
	if err := s.Apply(&st); err == nil {
		t.Fatal("Apply should reject a transfer exceeding the sender's balance")
	}
}

func TestApplyRejectsBadSignature(t *testing.T) {
	_, sign, ico := newKeyedAddr(t)
	s := New(ico)

	st := sign(10, 0)
	st.Signature[0] ^= 0xff
	if err := s.Apply(&st); err == nil {
		t.Fatal("Apply should reject a transaction with an invalid signature")
	}
}

func TestApplyStrictNonce(t *testing.T) {
	_, sign, ico := newKeyedAddr(t)
	s := New(ico)
	s.StrictNonce = true

	st := sign(10, 5) // sender's real nonce starts at 0
	if err := s.Apply(&st); err == nil {
		t.Fatal("Apply with StrictNonce should reject a transaction whose nonce does not match")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	_, sign, ico := newKeyedAddr(t)
	s := New(ico)
	clone := s.Clone()

	st := sign(10, 0)
	if err := s.Apply(&st); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	if clone.Account(ico).Balance.Cmp(ICOBalance) != 0 {
		t.Fatal("mutating the original State should not affect a previously taken Clone")
	}
}

func TestApplyLoggedSwallowsErrors(t *testing.T) {
	_, sign, ico := newKeyedAddr(t)
	s := New(ico)

	st := sign(1_000_000, 0)
	s.ApplyLogged(&st) // should not panic despite insufficient balance
	if s.Account(ico).Balance.Cmp(ICOBalance) != 0 {
		t.Fatal("a failed ApplyLogged call should leave balances untouched")
	}
}
