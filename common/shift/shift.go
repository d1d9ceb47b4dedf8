// Package shift does power-of-two alignment arithmetic.
package shift

// Word is the alignment of chunks, entries and idmap blocks.
const Word Shift = 2

type Shift int

func (b Shift) Size() int64 {
	return 1 << b
}

func (b Shift) Roundup(i int64) int64 {
	m1 := b.Size() - 1
	return (i + m1) &^ m1
}

func (b Shift) Leftover(i int64) int64 {
	return i & (b.Size() - 1)
}

func (b Shift) Aligned(i int64) bool {
	return b.Leftover(i) == 0
}
