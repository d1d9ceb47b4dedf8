package common

import (
	"fmt"
	"math"
)

// TruncU16 converts v to uint16, panicking if it does not fit. Builders use
// it where an overflow means the caller asked for an unencodable table.
func TruncU16[L ~int | ~int32 | ~int64 | ~uint | ~uint16 | ~uint32 | ~uint64](v L) uint16 {
	if v < 0 || uint64(v) > math.MaxUint16 {
		panic(fmt.Sprintf("value %d overflows uint16", v))
	}
	return uint16(v)
}

func TruncU32[L ~int | ~int64 | ~uint | ~uint32 | ~uint64](v L) uint32 {
	if v < 0 || uint64(v) > math.MaxUint32 {
		panic(fmt.Sprintf("value %d overflows uint32", v))
	}
	return uint32(v)
}
