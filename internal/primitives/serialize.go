package primitives

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Encoder builds up a canonical, deterministic, length-prefixed byte
// stream. All hashing and signing, and the wire codec in
// internal/gossip, are built on top of this. Field order is always
// fixed by the caller, never derived from struct reflection.
type Encoder struct {
	w   io.Writer
	err error
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Err returns the first error encountered by any Write* call, if any.
func (e *Encoder) Err() error {
	return e.err
}

func (e *Encoder) write(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

// WriteUint8 writes a single byte.
func (e *Encoder) WriteUint8(v uint8) {
	e.write([]byte{v})
}

// WriteUint32 writes v as fixed-width big-endian.
func (e *Encoder) WriteUint32(v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	e.write(buf[:])
}

// WriteUint64 writes v as fixed-width big-endian.
func (e *Encoder) WriteUint64(v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	e.write(buf[:])
}

// WriteInt64 writes v as fixed-width big-endian.
func (e *Encoder) WriteInt64(v int64) {
	e.WriteUint64(uint64(v))
}

// WriteHash writes a fixed-width 32-byte Hash.
func (e *Encoder) WriteHash(h Hash) {
	e.write(h[:])
}

// WriteVarBytes writes a fixed-width 8-byte big-endian length prefix
// followed by p's bytes.
func (e *Encoder) WriteVarBytes(p []byte) {
	e.WriteUint64(uint64(len(p)))
	e.write(p)
}

// WriteVarString writes a fixed-width 8-byte big-endian length prefix
// followed by s's bytes.
func (e *Encoder) WriteVarString(s string) {
	e.WriteVarBytes([]byte(s))
}

// WriteCount writes a count prefix used ahead of a repeated field (a
// list of hashes, transactions, or blocks).
func (e *Encoder) WriteCount(n int) {
	e.WriteUint64(uint64(n))
}

// Decoder reads back values written by an Encoder, in the same order.
type Decoder struct {
	r   io.Reader
	err error
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Err returns the first error encountered by any Read* call, if any.
func (d *Decoder) Err() error {
	return d.err
}

func (d *Decoder) read(p []byte) {
	if d.err != nil {
		return
	}
	_, d.err = io.ReadFull(d.r, p)
}

// ReadUint8 reads a single byte.
func (d *Decoder) ReadUint8() uint8 {
	var buf [1]byte
	d.read(buf[:])
	return buf[0]
}

// ReadUint32 reads a fixed-width big-endian uint32.
func (d *Decoder) ReadUint32() uint32 {
	var buf [4]byte
	d.read(buf[:])
	return binary.BigEndian.Uint32(buf[:])
}

// ReadUint64 reads a fixed-width big-endian uint64.
func (d *Decoder) ReadUint64() uint64 {
	var buf [8]byte
	d.read(buf[:])
	return binary.BigEndian.Uint64(buf[:])
}

// ReadInt64 reads a fixed-width big-endian int64.
func (d *Decoder) ReadInt64() int64 {
	return int64(d.ReadUint64())
}

// ReadHash reads a fixed-width 32-byte Hash.
func (d *Decoder) ReadHash() Hash {
	var h Hash
	d.read(h[:])
	return h
}

// MaxVarBytes bounds the size a single ReadVarBytes call will allocate,
// guarding against a hostile or corrupt length prefix.
const MaxVarBytes = 32 * 1024 * 1024

// ReadVarBytes reads a fixed-width 8-byte big-endian length prefix
// followed by that many bytes, rejecting lengths over MaxVarBytes.
func (d *Decoder) ReadVarBytes() []byte {
	n := d.ReadUint64()
	if d.err != nil {
		return nil
	}
	if n > MaxVarBytes {
		d.err = fmt.Errorf("primitives: var bytes length %d exceeds max %d", n, MaxVarBytes)
		return nil
	}
	buf := make([]byte, n)
	d.read(buf)
	return buf
}

// ReadVarString reads a string written by WriteVarString.
func (d *Decoder) ReadVarString() string {
	return string(d.ReadVarBytes())
}

// MaxCount bounds the number of repeated elements ReadCount will allow
// a caller to subsequently allocate for.
const MaxCount = 1 << 20

// ReadCount reads a repetition count written by WriteCount.
func (d *Decoder) ReadCount() int {
	n := d.ReadUint64()
	if d.err != nil {
		return 0
	}
	if n > MaxCount {
		d.err = fmt.Errorf("primitives: element count %d exceeds max %d", n, MaxCount)
		return 0
	}
	return int(n)
}
