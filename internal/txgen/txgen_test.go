package txgen

import (
	"testing"
	"time"

	"github.com/cinderchain/cinderd/internal/mempool"
	"github.com/cinderchain/cinderd/internal/primitives"
)

func TestGeneratorAdmitsTransactions(t *testing.T) {
	pub, priv, err := primitives.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	mp := mempool.New()
	g := New(mp, pub, priv)

	g.Start(1) // 10ms cadence

	deadline := time.After(2 * time.Second)
	for mp.Count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the generator to admit a transaction")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestGeneratorRestartReplacesCadence(t *testing.T) {
	pub, priv, err := primitives.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	mp := mempool.New()
	g := New(mp, pub, priv)

	g.Start(100)
	g.Start(1) // should replace the slow cadence, not run both concurrently

	deadline := time.After(2 * time.Second)
	for mp.Count() == 0 {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for the restarted generator to admit a transaction")
		case <-time.After(5 * time.Millisecond):
		}
	}
}
