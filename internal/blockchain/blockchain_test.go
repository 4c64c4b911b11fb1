package blockchain

import (
	"testing"

	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/primitives"
	"github.com/cinderchain/cinderd/internal/state"
)

func newICOAddr(t *testing.T) state.Address {
	t.Helper()
	pub, _, err := primitives.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	return state.AddressFromPublicKey(pub)
}

func childOf(parent primitives.Hash, nonce uint32) *chain.Block {
	b := chain.NewBlock(parent, chain.GenesisDifficulty, 1, nil)
	b.Header.Nonce = nonce
	return b
}

// TestInsertOne covers the base insert-one-block scenario.
func TestInsertOne(t *testing.T) {
	c := New(newICOAddr(t))
	genesisHash := c.Tip()

	b := childOf(genesisHash, 1)
	if err := c.Insert(b); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if c.Tip() != b.Hash() {
		t.Fatalf("tip = %s, want %s", c.Tip(), b.Hash())
	}
	if c.TipHeight() != 1 {
		t.Fatalf("tip height = %d, want 1", c.TipHeight())
	}
}

func TestInsertUnknownParentFails(t *testing.T) {
	c := New(newICOAddr(t))
	b := childOf(primitives.Sum256([]byte("nonexistent")), 1)
	if err := c.Insert(b); err == nil {
		t.Fatal("Insert should fail for a block whose parent is unknown")
	}
}

// TestInsertIdempotent covers the idempotence invariant.
func TestInsertIdempotent(t *testing.T) {
	c := New(newICOAddr(t))
	b := childOf(c.Tip(), 1)

	if err := c.Insert(b); err != nil {
		t.Fatalf("first Insert: %v", err)
	}
	tipAfterFirst := c.Tip()
	heightAfterFirst := c.TipHeight()

	if err := c.Insert(b); err != nil {
		t.Fatalf("second Insert (re-insert) should succeed as a no-op: %v", err)
	}
	if c.Tip() != tipAfterFirst || c.TipHeight() != heightAfterFirst {
		t.Fatal("re-inserting an already-present block should leave the chain unchanged")
	}
}

func TestTipIsMaximalHeight(t *testing.T) {
	c := New(newICOAddr(t))
	genesisHash := c.Tip()

	short := childOf(genesisHash, 1)
	if err := c.Insert(short); err != nil {
		t.Fatalf("Insert short: %v", err)
	}

	// Build a competing two-block fork off genesis directly.
	forkA := childOf(genesisHash, 2)
	if err := c.Insert(forkA); err != nil {
		t.Fatalf("Insert forkA: %v", err)
	}
	forkB := childOf(forkA.Hash(), 3)
	if err := c.Insert(forkB); err != nil {
		t.Fatalf("Insert forkB: %v", err)
	}

	if c.Tip() != forkB.Hash() {
		t.Fatalf("tip should advance to the greater-height fork: got %s, want %s", c.Tip(), forkB.Hash())
	}
	if c.TipHeight() != 2 {
		t.Fatalf("tip height = %d, want 2", c.TipHeight())
	}
}

func TestTipFirstSeenWinsOnTie(t *testing.T) {
	c := New(newICOAddr(t))
	genesisHash := c.Tip()

	first := childOf(genesisHash, 1)
	if err := c.Insert(first); err != nil {
		t.Fatalf("Insert first: %v", err)
	}
	second := childOf(genesisHash, 2)
	if err := c.Insert(second); err != nil {
		t.Fatalf("Insert second: %v", err)
	}

	if c.Tip() != first.Hash() {
		t.Fatal("a same-height competitor should not displace the existing tip")
	}
}

// TestHeightParentInvariant covers the universal invariant:
// height[B] = height[parent(B)] + 1 for all non-genesis B, and walking
// parent pointers reaches genesis in exactly height[B] steps.
func TestHeightParentInvariant(t *testing.T) {
	c := New(newICOAddr(t))
	cur := c.Tip()
	for i := 0; i < 5; i++ {
		b := childOf(cur, uint32(i+1))
		if err := c.Insert(b); err != nil {
			t.Fatalf("Insert at step %d: %v", i, err)
		}
		cur = b.Hash()
	}

	chainBlocks := c.LongestChain()
	for i, b := range chainBlocks {
		height, ok := c.HeightOf(b.Hash())
		if !ok {
			t.Fatalf("HeightOf missing for block at index %d", i)
		}
		if height != int64(i) {
			t.Fatalf("block at index %d has height %d, want %d", i, height, i)
		}
	}

	steps := 0
	h := c.Tip()
	for {
		b, ok := c.GetBlock(h)
		if !ok {
			t.Fatalf("GetBlock missing for %s", h)
		}
		if b.Header.Parent.IsZero() {
			break
		}
		h = b.Header.Parent
		steps++
	}
	if int64(steps) != c.TipHeight() {
		t.Fatalf("walking parent pointers took %d steps, want %d", steps, c.TipHeight())
	}
}

func TestSnapshotUpToReplaysTransactions(t *testing.T) {
	icoPub, icoPriv, err := primitives.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	receiverPub, _, err := primitives.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	c := New(state.AddressFromPublicKey(icoPub))

	tx := chain.Transaction{Sender: icoPub, Receiver: receiverPub, Value: 500, Nonce: 0}
	st := chain.Sign(tx, icoPriv)

	b := chain.NewBlock(c.Tip(), chain.GenesisDifficulty, 1, []chain.SignedTransaction{st})
	if err := c.Insert(b); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	snap := c.SnapshotUpTo(c.TipHeight())
	receiverAddr := state.AddressFromPublicKey(receiverPub)
	if snap.Account(receiverAddr).Balance.Sign() == 0 {
		t.Fatal("SnapshotUpTo should have replayed the transfer into the receiver's balance")
	}
}
