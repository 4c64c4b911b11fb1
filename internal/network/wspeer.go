package network

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// WSPeer is a PeerHandle backed by a websocket connection: the
// concrete duplex transport for the otherwise-abstracted network
// handle, encoding messages with a stable binary codec.
type WSPeer struct {
	id   string
	conn *websocket.Conn

	mu sync.Mutex // serializes writes; *websocket.Conn forbids concurrent writers
}

// NewWSPeer wraps conn as a PeerHandle identified by id (typically the
// remote address).
func NewWSPeer(id string, conn *websocket.Conn) *WSPeer {
	return &WSPeer{id: id, conn: conn}
}

// ID returns the peer's identifier.
func (p *WSPeer) ID() string {
	return p.id
}

// Write encodes msg and sends it as a single binary websocket frame.
func (p *WSPeer) Write(msg Message) error {
	data, err := msg.MarshalBinary()
	if err != nil {
		return fmt.Errorf("network: marshal message for peer %s: %w", p.id, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.conn.WriteMessage(websocket.BinaryMessage, data)
}

// Close closes the underlying connection.
func (p *WSPeer) Close() error {
	return p.conn.Close()
}

// ReadLoop reads binary frames off the connection and passes their
// raw bytes to handle until the connection closes or handle returns an
// error. It is meant to run in its own goroutine, one per peer; the
// gossip worker's intake channel is the actual consumer, fed via
// handle.
func (p *WSPeer) ReadLoop(handle func(data []byte) error) error {
	for {
		msgType, data, err := p.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("network: read from peer %s: %w", p.id, err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		if err := handle(data); err != nil {
			return err
		}
	}
}
