package chain

import "bytes"

// newByteBuffer returns a fresh buffer for canonical-serialization
// helpers that need an io.Writer but build an in-memory byte slice.
func newByteBuffer() *bytes.Buffer {
	return new(bytes.Buffer)
}
