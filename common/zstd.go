package common

import (
	"encoding/binary"
	"sync"

	"github.com/DataDog/zstd"
)

const zstdMagic = 0xFD2FB528

var zstdCtxPool = sync.Pool{New: func() any { return zstd.NewCtx() }}

// IsZstd reports whether b starts with a zstd frame.
func IsZstd(b []byte) bool {
	return len(b) >= 4 && binary.LittleEndian.Uint32(b) == zstdMagic
}

// Decompress decodes a whole zstd stream using a pooled context.
func Decompress(b []byte) ([]byte, error) {
	z := zstdCtxPool.Get().(zstd.Ctx)
	defer zstdCtxPool.Put(z)
	return z.Decompress(nil, b)
}

// Compress encodes b at the default level.
func Compress(b []byte) ([]byte, error) {
	z := zstdCtxPool.Get().(zstd.Ctx)
	defer zstdCtxPool.Put(z)
	return z.Compress(nil, b)
}
