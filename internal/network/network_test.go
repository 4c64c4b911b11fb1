package network

import (
	"errors"
	"sync"
	"testing"
)

type fakeMessage struct {
	payload string
}

func (f *fakeMessage) MarshalBinary() ([]byte, error) {
	return []byte(f.payload), nil
}

type fakePeer struct {
	id string

	mu      sync.Mutex
	written []Message
	failNext bool
}

func (p *fakePeer) ID() string { return p.id }

func (p *fakePeer) Write(msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failNext {
		p.failNext = false
		return errors.New("simulated write failure")
	}
	p.written = append(p.written, msg)
	return nil
}

func (p *fakePeer) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.written)
}

func TestRegisterUnregisterPeerCount(t *testing.T) {
	n := New()
	p1 := &fakePeer{id: "p1"}
	p2 := &fakePeer{id: "p2"}

	n.Register(p1)
	n.Register(p2)
	if n.PeerCount() != 2 {
		t.Fatalf("PeerCount() = %d, want 2", n.PeerCount())
	}

	n.Unregister("p1")
	if n.PeerCount() != 1 {
		t.Fatalf("PeerCount() after Unregister = %d, want 1", n.PeerCount())
	}
}

func TestBroadcastReachesAllPeers(t *testing.T) {
	n := New()
	p1 := &fakePeer{id: "p1"}
	p2 := &fakePeer{id: "p2"}
	n.Register(p1)
	n.Register(p2)

	n.Broadcast(&fakeMessage{payload: "hello"})

	if p1.count() != 1 || p2.count() != 1 {
		t.Fatalf("expected both peers to receive the broadcast, got p1=%d p2=%d", p1.count(), p2.count())
	}
}

func TestBroadcastToleratesOnePeerFailure(t *testing.T) {
	n := New()
	p1 := &fakePeer{id: "p1", failNext: true}
	p2 := &fakePeer{id: "p2"}
	n.Register(p1)
	n.Register(p2)

	n.Broadcast(&fakeMessage{payload: "hello"})

	if p1.count() != 0 {
		t.Fatalf("p1 should have failed its write, got count %d", p1.count())
	}
	if p2.count() != 1 {
		t.Fatal("p2 should still receive the broadcast despite p1's failure")
	}
}

func TestWriteToSpecificPeer(t *testing.T) {
	n := New()
	p1 := &fakePeer{id: "p1"}
	p2 := &fakePeer{id: "p2"}
	n.Register(p1)
	n.Register(p2)

	if err := n.Write("p2", &fakeMessage{payload: "reply"}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if p1.count() != 0 || p2.count() != 1 {
		t.Fatalf("expected only p2 to receive the write, got p1=%d p2=%d", p1.count(), p2.count())
	}
}

func TestWriteToUnknownPeerIsNoop(t *testing.T) {
	n := New()
	if err := n.Write("ghost", &fakeMessage{payload: "x"}); err != nil {
		t.Fatalf("Write to an unregistered peer should be a no-op, got error: %v", err)
	}
}
