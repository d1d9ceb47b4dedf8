package restable

import (
	"fmt"
	"unicode/utf8"
)

// StringPool is a read-only view of a RES_STRING_POOL_TYPE chunk. Strings
// are decoded on access; the pool holds no mutable state.
type StringPool struct {
	b       []byte
	hdr     res_string_pool_header
	strings []byte // string data region
	styles  []byte // style data region
}

// Span marks a styled range of characters within a string.
type Span struct {
	Name      uint32 // string index of the tag name
	FirstChar uint32
	LastChar  uint32
}

// NewStringPool validates and wraps a string pool chunk. b must start with the
// chunk header.
func NewStringPool(b []byte) (*StringPool, error) {
	if len(b) < stringPoolHeaderSize {
		return nil, malformed("string pool too small (%d bytes)", len(b))
	}
	p := &StringPool{}
	if err := unpackBytes(b[:stringPoolHeaderSize], &p.hdr); err != nil {
		return nil, err
	}
	h := &p.hdr
	size := uint64(len(b))
	if uint64(h.Header.HeaderSize) > uint64(h.Header.Size) || uint64(h.Header.Size) > size {
		return nil, malformed("string pool header size %d or total size %d larger than data size %d",
			h.Header.HeaderSize, h.Header.Size, size)
	}
	if h.Header.HeaderSize < stringPoolHeaderSize {
		return nil, malformed("string pool header size %d too small", h.Header.HeaderSize)
	}
	p.b = b[:h.Header.Size]
	psize := uint64(h.Header.Size)
	charSize := uint64(2)
	if p.IsUTF8() {
		charSize = 1
	}

	if h.StringCount > 0 {
		if uint64(h.Header.HeaderSize)+4*uint64(h.StringCount) > psize {
			return nil, malformed("string pool index of %d items extends past data size %d", h.StringCount, psize)
		}
		// room for at least a length and a terminator
		if uint64(h.StringsStart) >= psize-2 {
			return nil, malformed("string data starts at %d, after total size %d", h.StringsStart, psize)
		}
		end := psize
		if h.StyleCount > 0 {
			if uint64(h.StylesStart) >= psize-2 {
				return nil, malformed("style data starts at %d past data size %d", h.StylesStart, psize)
			}
			if h.StylesStart <= h.StringsStart {
				return nil, malformed("style data starts at %d, before strings at %d", h.StylesStart, h.StringsStart)
			}
			end = uint64(h.StylesStart)
		}
		poolChars := (end - uint64(h.StringsStart)) / charSize
		if poolChars == 0 {
			return nil, malformed("stringCount is %d but pool size is 0", h.StringCount)
		}
		p.strings = p.b[h.StringsStart : uint64(h.StringsStart)+poolChars*charSize]
		last := p.strings[len(p.strings)-int(charSize):]
		if last[0] != 0 || (charSize == 2 && last[1] != 0) {
			return nil, malformed("last string is not 0-terminated")
		}
	}

	if h.StyleCount > 0 {
		if uint64(h.Header.HeaderSize)+4*(uint64(h.StringCount)+uint64(h.StyleCount)) > psize {
			return nil, malformed("string pool index of %d styles extends past data size %d", h.StyleCount, psize)
		}
		if uint64(h.StylesStart) >= psize {
			return nil, malformed("style data starts at %d, after total size %d", h.StylesStart, psize)
		}
		nwords := (psize - uint64(h.StylesStart)) / 4
		if nwords < 3 {
			return nil, malformed("style data too small")
		}
		p.styles = p.b[h.StylesStart : uint64(h.StylesStart)+nwords*4]
		tail := p.styles[len(p.styles)-12:]
		if u32(tail, 0) != SPAN_END || u32(tail, 4) != SPAN_END || u32(tail, 8) != SPAN_END {
			return nil, malformed("last style is not 0xFFFFFFFF-terminated")
		}
	}
	return p, nil
}

func (p *StringPool) Len() int        { return int(p.hdr.StringCount) }
func (p *StringPool) StyleCount() int { return int(p.hdr.StyleCount) }
func (p *StringPool) IsUTF8() bool    { return p.hdr.Flags&UTF8_FLAG != 0 }
func (p *StringPool) IsSorted() bool  { return p.hdr.Flags&SORTED_FLAG != 0 }

func (p *StringPool) entry(i int) uint32 {
	return u32(p.b, int(p.hdr.Header.HeaderSize)+4*i)
}

// StringAt decodes string i.
func (p *StringPool) StringAt(i int) (string, error) {
	if p == nil || i < 0 || i >= p.Len() {
		return "", fmt.Errorf("string index %d out of range", i)
	}
	off := int(p.entry(i))
	if p.IsUTF8() {
		return p.utf8At(i, off)
	}
	return p.utf16At(i, off)
}

func (p *StringPool) utf8At(i, off int) (string, error) {
	s := p.strings
	if off >= len(s)-1 {
		return "", malformed("string #%d entry is at %d, past end at %d", i, off, len(s))
	}
	readLen := func() int {
		if off >= len(s) {
			return -1
		}
		l := int(s[off])
		if l&0x80 != 0 {
			if off++; off >= len(s) {
				return -1
			}
			l = (l&0x7f)<<8 | int(s[off])
		}
		off++
		return l
	}
	u16len := readLen() // utf-16 length, unused
	n := readLen()
	if u16len < 0 || n < 0 || off+n >= len(s) {
		return "", malformed("string #%d extends to %d, past end at %d", i, off+n, len(s))
	}
	if s[off+n] != 0 {
		return "", malformed("string #%d is not null-terminated", i)
	}
	str := s[off : off+n]
	if !utf8.Valid(str) {
		return "", malformed("string #%d is not valid utf-8", i)
	}
	return string(str), nil
}

func (p *StringPool) utf16At(i, off int) (string, error) {
	s := p.strings
	units := len(s) / 2
	pos := off / 2
	if pos >= units-1 {
		return "", malformed("string #%d entry is at %d, past end at %d", i, off, len(s))
	}
	l := int(u16(s, 2*pos))
	if l&0x8000 != 0 {
		if pos+1 >= units {
			return "", malformed("string #%d length runs past end", i)
		}
		pos++
		l = (l&0x7fff)<<16 | int(u16(s, 2*pos))
	}
	pos++
	if pos+l >= units {
		return "", malformed("string #%d extends to %d, past end at %d", i, pos+l, units)
	}
	if u16(s, 2*(pos+l)) != 0 {
		return "", malformed("string #%d is not null-terminated", i)
	}
	return decodeUTF16(s[2*pos : 2*(pos+l)]), nil
}

// StyleAt returns the spans for string i, or nil if it has none.
func (p *StringPool) StyleAt(i int) []Span {
	if p == nil || i < 0 || i >= p.StyleCount() {
		return nil
	}
	off := int(p.entry(p.Len() + i))
	var out []Span
	for off+4 <= len(p.styles) {
		name := u32(p.styles, off)
		if name == SPAN_END || off+12 > len(p.styles) {
			break
		}
		out = append(out, Span{Name: name, FirstChar: u32(p.styles, off+4), LastChar: u32(p.styles, off+8)})
		off += 12
	}
	return out
}

// IndexOf finds the index of s by linear scan.
func (p *StringPool) IndexOf(s string) (int, bool) {
	if p == nil {
		return 0, false
	}
	for i := 0; i < p.Len(); i++ {
		if str, err := p.StringAt(i); err == nil && str == s {
			return i, true
		}
	}
	return 0, false
}

// StringPoolRef is a non-owning reference to one string of a pool.
type StringPoolRef struct {
	Pool  *StringPool
	Index uint32
}

func (r StringPoolRef) String() string {
	s, _ := r.Pool.StringAt(int(r.Index))
	return s
}
