package restable

import (
	"errors"

	"github.com/dnr/restable/common/shift"
)

// Chunk is a validated view of one chunk: header followed by payload.
type Chunk struct {
	Type       uint16
	HeaderSize uint16
	Size       uint32

	b []byte
}

// Bytes returns the whole chunk including its header.
func (c Chunk) Bytes() []byte { return c.b }

// Header returns the header bytes, including the common 8 byte prefix.
func (c Chunk) Header() []byte { return c.b[:c.HeaderSize] }

// Data returns the payload after the header.
func (c Chunk) Data() []byte { return c.b[c.HeaderSize:] }

// HeaderAtLeast returns the header if it is at least min bytes long.
func (c Chunk) HeaderAtLeast(min int) ([]byte, bool) {
	if int(c.HeaderSize) < min {
		return nil, false
	}
	return c.Header(), true
}

// ChunkIterator walks a sequence of chunks, verifying each one before it is
// handed out.
type ChunkIterator struct {
	data []byte
	off  int
	next Chunk

	err   error
	fatal bool
}

var errNoNext = errors.New("Next() called with no chunk remaining")

func NewChunkIterator(data []byte) *ChunkIterator {
	it := &ChunkIterator{data: data}
	if len(data) != 0 {
		it.verifyNext()
	}
	return it
}

func (it *ChunkIterator) remaining() int { return len(it.data) - it.off }

// HasNext reports whether a verified chunk is pending.
func (it *ChunkIterator) HasNext() bool {
	return it.err == nil && it.remaining() != 0
}

// Next returns the pending chunk and verifies the one after it. If nothing is
// pending, it records a fatal error and returns a zero Chunk.
func (it *ChunkIterator) Next() Chunk {
	if !it.HasNext() {
		if it.err == nil {
			it.setErr(errNoNext, true)
		}
		return Chunk{}
	}
	c := it.next
	it.off += int(c.Size)
	it.next = Chunk{}
	if it.remaining() != 0 && it.verifyNextNonFatal() {
		it.verifyNext()
	}
	return c
}

func (it *ChunkIterator) HadError() bool      { return it.err != nil }
func (it *ChunkIterator) HadFatalError() bool { return it.err != nil && it.fatal }
func (it *ChunkIterator) Err() error          { return it.err }

func (it *ChunkIterator) setErr(err error, fatal bool) {
	it.err = err
	it.fatal = fatal
}

// Checks that may fail at the tail of a stream written by older tools.
func (it *ChunkIterator) verifyNextNonFatal() bool {
	rem := it.remaining()
	if rem < chunkHeaderSize {
		it.setErr(malformed("not enough space for header"), false)
		return false
	}
	if size := u32(it.data, it.off+4); int64(size) > int64(rem) {
		it.setErr(malformed("chunk size is bigger than given data"), false)
		return false
	}
	return true
}

func (it *ChunkIterator) verifyNext() bool {
	rem := it.remaining()
	if !shift.Word.Aligned(int64(it.off)) {
		it.setErr(malformed("header not aligned on 4-byte boundary"), true)
		return false
	}
	if rem < chunkHeaderSize {
		it.setErr(malformed("not enough space for header"), true)
		return false
	}
	tp := u16(it.data, it.off)
	headerSize := u16(it.data, it.off+2)
	size := u32(it.data, it.off+4)
	switch {
	case headerSize < chunkHeaderSize:
		it.setErr(malformed("header size too small"), true)
		return false
	case uint32(headerSize) > size:
		it.setErr(malformed("header size is larger than entire chunk"), true)
		return false
	case int64(size) > int64(rem):
		it.setErr(malformed("chunk size is bigger than given data"), true)
		return false
	case !shift.Word.Aligned(int64(size | uint32(headerSize))):
		it.setErr(malformed("header sizes are not aligned on 4-byte boundary"), true)
		return false
	}
	it.next = Chunk{
		Type:       tp,
		HeaderSize: headerSize,
		Size:       size,
		b:          it.data[it.off : it.off+int(size)],
	}
	return true
}
