// Package gossip implements the peer-to-peer wire protocol (tagged
// Message variants) and the gossip worker that dispatches them: the
// inv/getdata reconciliation handshake and the orphan buffer.
package gossip

import (
	"bytes"
	"fmt"

	"github.com/cinderchain/cinderd/internal/chain"
	"github.com/cinderchain/cinderd/internal/primitives"
)

// Tag identifies which variant a Message carries.
type Tag uint8

// The eight wire message variants.
const (
	TagPing Tag = iota
	TagPong
	TagNewBlockHashes
	TagGetBlocks
	TagBlocks
	TagNewTransactionHashes
	TagGetTransactions
	TagTransactions
)

func (t Tag) String() string {
	switch t {
	case TagPing:
		return "Ping"
	case TagPong:
		return "Pong"
	case TagNewBlockHashes:
		return "NewBlockHashes"
	case TagGetBlocks:
		return "GetBlocks"
	case TagBlocks:
		return "Blocks"
	case TagNewTransactionHashes:
		return "NewTransactionHashes"
	case TagGetTransactions:
		return "GetTransactions"
	case TagTransactions:
		return "Transactions"
	default:
		return fmt.Sprintf("Tag(%d)", uint8(t))
	}
}

// Message is the tagged variant carried over the wire. Exactly one of
// the payload fields is meaningful for any given Tag; this mirrors a
// tagged union rather than subclassing.
type Message struct {
	Tag Tag

	Text         string               // Ping, Pong
	Hashes       []primitives.Hash    // NewBlockHashes, GetBlocks, NewTransactionHashes, GetTransactions
	Blocks       []*chain.Block       // Blocks
	Transactions []chain.SignedTransaction // Transactions
}

// Constructors, one per variant, so callers never build a Message with
// a mismatched tag/payload pairing by hand.

func NewPing(n string) Message              { return Message{Tag: TagPing, Text: n} }
func NewPong(n string) Message              { return Message{Tag: TagPong, Text: n} }
func NewBlockHashesMsg(hs []primitives.Hash) Message {
	return Message{Tag: TagNewBlockHashes, Hashes: hs}
}
func NewGetBlocksMsg(hs []primitives.Hash) Message { return Message{Tag: TagGetBlocks, Hashes: hs} }
func NewBlocksMsg(bs []*chain.Block) Message       { return Message{Tag: TagBlocks, Blocks: bs} }
func NewNewTransactionHashesMsg(hs []primitives.Hash) Message {
	return Message{Tag: TagNewTransactionHashes, Hashes: hs}
}
func NewGetTransactionsMsg(hs []primitives.Hash) Message {
	return Message{Tag: TagGetTransactions, Hashes: hs}
}
func NewTransactionsMsg(ts []chain.SignedTransaction) Message {
	return Message{Tag: TagTransactions, Transactions: ts}
}

// MarshalBinary implements network.Message.
func (m *Message) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := primitives.NewEncoder(buf)
	enc.WriteUint8(uint8(m.Tag))
	switch m.Tag {
	case TagPing, TagPong:
		enc.WriteVarString(m.Text)
	case TagNewBlockHashes, TagGetBlocks, TagNewTransactionHashes, TagGetTransactions:
		enc.WriteCount(len(m.Hashes))
		for _, h := range m.Hashes {
			enc.WriteHash(h)
		}
	case TagBlocks:
		enc.WriteCount(len(m.Blocks))
		for _, b := range m.Blocks {
			chain.EncodeBlock(enc, b)
		}
	case TagTransactions:
		enc.WriteCount(len(m.Transactions))
		for i := range m.Transactions {
			chain.EncodeSignedTransaction(enc, &m.Transactions[i])
		}
	default:
		return nil, fmt.Errorf("gossip: unknown message tag %d", m.Tag)
	}
	if enc.Err() != nil {
		return nil, fmt.Errorf("gossip: encode message: %w", enc.Err())
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes a Message previously produced by
// MarshalBinary.
func (m *Message) UnmarshalBinary(data []byte) error {
	dec := primitives.NewDecoder(bytes.NewReader(data))
	tag := Tag(dec.ReadUint8())
	if dec.Err() != nil {
		return fmt.Errorf("gossip: decode tag: %w", dec.Err())
	}
	switch tag {
	case TagPing, TagPong:
		m.Text = dec.ReadVarString()
	case TagNewBlockHashes, TagGetBlocks, TagNewTransactionHashes, TagGetTransactions:
		n := dec.ReadCount()
		hs := make([]primitives.Hash, n)
		for i := 0; i < n; i++ {
			hs[i] = dec.ReadHash()
		}
		m.Hashes = hs
	case TagBlocks:
		n := dec.ReadCount()
		bs := make([]*chain.Block, n)
		for i := 0; i < n; i++ {
			b, err := chain.DecodeBlock(dec)
			if err != nil {
				return fmt.Errorf("gossip: decode block %d: %w", i, err)
			}
			bs[i] = b
		}
		m.Blocks = bs
	case TagTransactions:
		n := dec.ReadCount()
		ts := make([]chain.SignedTransaction, n)
		for i := 0; i < n; i++ {
			st, err := chain.DecodeSignedTransaction(dec)
			if err != nil {
				return fmt.Errorf("gossip: decode transaction %d: %w", i, err)
			}
			ts[i] = st
		}
		m.Transactions = ts
	default:
		return fmt.Errorf("gossip: unknown message tag %d", tag)
	}
	if dec.Err() != nil {
		return fmt.Errorf("gossip: decode message body: %w", dec.Err())
	}
	m.Tag = tag
	return nil
}
