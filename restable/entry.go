package restable

import (
	"sort"
)

// Entry is either a *SimpleEntry or a *ComplexEntry.
type Entry interface {
	KeyIndex() uint32
	EntryFlags() uint16
	isEntry()
}

// SimpleEntry holds a single value.
type SimpleEntry struct {
	Key   uint32
	Flags uint16
	Value Value
}

// MapEntry is one name/value pair of a bag.
type MapEntry struct {
	Name  uint32
	Value Value
}

// ComplexEntry is a bag: an optional parent plus an ordered list of
// name/value pairs.
type ComplexEntry struct {
	Key     uint32
	Flags   uint16
	Parent  uint32
	Entries []MapEntry
}

func (e *SimpleEntry) KeyIndex() uint32    { return e.Key }
func (e *SimpleEntry) EntryFlags() uint16  { return e.Flags }
func (e *SimpleEntry) isEntry()            {}
func (e *ComplexEntry) KeyIndex() uint32   { return e.Key }
func (e *ComplexEntry) EntryFlags() uint16 { return e.Flags }
func (e *ComplexEntry) isEntry()           {}

// Type is one configuration variant of a resource type: a RES_TABLE_TYPE_TYPE
// chunk.
type Type struct {
	ID           uint8
	Flags        uint8
	EntryCount   uint32
	EntriesStart uint32
	Config       Config

	b         []byte // whole chunk
	indexBase int    // start of the offset array
}

func (t *Type) IsSparse() bool   { return t.Flags&FLAG_SPARSE != 0 }
func (t *Type) IsOffset16() bool { return t.Flags&FLAG_OFFSET16 != 0 }

func (t *Type) indexWidth() int {
	if t.IsOffset16() {
		return 2
	}
	return 4
}

// newType parses and verifies a type chunk.
func newType(c Chunk) (*Type, error) {
	hdr, ok := c.HeaderAtLeast(typeMinHeaderSize)
	if !ok {
		return nil, malformed("RES_TABLE_TYPE_TYPE too small")
	}
	var h res_table_type
	if err := unpackBytes(hdr[:typeHeaderFixedSize], &h); err != nil {
		return nil, err
	}
	cfg, err := ReadConfig(hdr[typeHeaderFixedSize:])
	if err != nil {
		return nil, err
	}
	t := &Type{
		ID:           h.Id,
		Flags:        h.Flags,
		EntryCount:   h.EntryCount,
		EntriesStart: h.EntriesStart,
		Config:       cfg,
		b:            c.Bytes(),
		indexBase:    int(c.HeaderSize),
	}
	if err := t.verify(); err != nil {
		return nil, err
	}
	return t, nil
}

// VerifyType checks a type chunk's header, offset array and every entry it
// points to.
func VerifyType(c Chunk) error {
	_, err := newType(c)
	return err
}

func (t *Type) verify() error {
	if t.ID == 0 {
		return malformed("RES_TABLE_TYPE_TYPE has invalid ID 0")
	}
	if t.EntryCount > 0xffff {
		return malformed("RES_TABLE_TYPE_TYPE has too many entries (%d)", t.EntryCount)
	}
	offsetsLen := uint64(t.EntryCount) * uint64(t.indexWidth())
	if t.IsSparse() {
		offsetsLen = uint64(t.EntryCount) * sparseEntrySize
	}
	indexBase, entriesStart := uint64(t.indexBase), uint64(t.EntriesStart)
	if indexBase > entriesStart || entriesStart-indexBase < offsetsLen {
		return malformed("RES_TABLE_TYPE_TYPE entry offsets overlap actual entry data")
	}
	if entriesStart > uint64(len(t.b)) {
		return malformed("RES_TABLE_TYPE_TYPE entry offsets extend beyond chunk")
	}
	if entriesStart&3 != 0 {
		return malformed("RES_TABLE_TYPE_TYPE entries start at unaligned address")
	}
	var err error
	t.forEachOffset(func(idx int, off uint32) bool {
		err = t.verifyEntry(off)
		return err == nil
	})
	return err
}

// forEachOffset calls fn with each present entry index and its offset.
func (t *Type) forEachOffset(fn func(idx int, off uint32) bool) {
	n := int(t.EntryCount)
	for i := 0; i < n; i++ {
		var idx int
		var off uint32
		switch {
		case t.IsSparse():
			p := t.indexBase + i*sparseEntrySize
			idx, off = int(u16(t.b, p)), uint32(u16(t.b, p+2))*4
		case t.IsOffset16():
			o := u16(t.b, t.indexBase+2*i)
			if o == 0xffff {
				continue
			}
			idx, off = i, uint32(o)*4
		default:
			o := u32(t.b, t.indexBase+4*i)
			if o == NO_ENTRY {
				continue
			}
			idx, off = i, o
		}
		if !fn(idx, off) {
			return
		}
	}
}

func (t *Type) verifyEntry(off uint32) error {
	if off&3 != 0 {
		return malformed("entry at offset %d is not 4-byte aligned", off)
	}
	if uint64(off) > 0xffffffff-uint64(t.EntriesStart) {
		return malformed("entry at offset %d is too large", off)
	}
	chunkSize := uint64(len(t.b))
	pos := uint64(off) + uint64(t.EntriesStart)
	if pos+entryHeaderSize > chunkSize {
		return malformed("entry at offset %d is too large, no room for entry header", pos)
	}
	flags := u16(t.b, int(pos)+2)
	if flags&FLAG_COMPACT != 0 {
		// compact entries are a single 8 byte record
		return nil
	}
	size := uint64(u16(t.b, int(pos)))
	if size < entryHeaderSize {
		return malformed("entry size %d at offset %d is too small", size, pos)
	}
	if size > chunkSize || pos > chunkSize-size {
		return malformed("entry size %d at offset %d is too large", size, pos)
	}
	if flags&FLAG_COMPLEX == 0 || size < mapEntryHeaderSize {
		if flags&FLAG_COMPLEX != 0 {
			return malformed("complex entry at offset %d has size %d", pos, size)
		}
		if pos+size+valueSize > chunkSize {
			return malformed("no room for value after entry at offset %d for type %d", pos, t.ID)
		}
		vsize := uint64(u16(t.b, int(pos+size)))
		if vsize < valueSize {
			return malformed("value at offset %d is too small", pos)
		}
		if vsize > chunkSize || pos+size > chunkSize-vsize {
			return malformed("value size %d at offset %d is too large", vsize, pos)
		}
		return nil
	}
	count := uint64(u32(t.b, int(pos)+12))
	mapStart := pos + size
	if mapStart&3 != 0 {
		return malformed("map entries at offset %d start at unaligned offset", pos)
	}
	if mapStart > chunkSize || count > (chunkSize-mapStart)/mapSize {
		return malformed("too many map entries in map entry at offset %d", pos)
	}
	return nil
}

// EntryOffset returns the offset of entry idx relative to EntriesStart, or
// NO_ENTRY.
func (t *Type) EntryOffset(idx uint16) uint32 {
	switch {
	case t.IsSparse():
		n := int(t.EntryCount)
		i := sort.Search(n, func(i int) bool {
			return u16(t.b, t.indexBase+i*sparseEntrySize) >= idx
		})
		if i < n && u16(t.b, t.indexBase+i*sparseEntrySize) == idx {
			return uint32(u16(t.b, t.indexBase+i*sparseEntrySize+2)) * 4
		}
		return NO_ENTRY
	case uint32(idx) >= t.EntryCount:
		return NO_ENTRY
	case t.IsOffset16():
		o := u16(t.b, t.indexBase+2*int(idx))
		if o == 0xffff {
			return NO_ENTRY
		}
		return uint32(o) * 4
	default:
		return u32(t.b, t.indexBase+4*int(idx))
	}
}

// HasEntry reports whether this variant defines entry idx.
func (t *Type) HasEntry(idx uint16) bool { return t.EntryOffset(idx) != NO_ENTRY }

// Entry decodes the entry at off. off must come from EntryOffset.
func (t *Type) Entry(off uint32) (Entry, error) {
	if err := t.verifyEntry(off); err != nil {
		return nil, err
	}
	pos := int(off) + int(t.EntriesStart)
	flags := u16(t.b, pos+2)
	if flags&FLAG_COMPACT != 0 {
		return &SimpleEntry{
			Key:   uint32(u16(t.b, pos)),
			Flags: flags,
			Value: Value{Type: uint8(flags >> 8), Data: u32(t.b, pos+4)},
		}, nil
	}
	size := int(u16(t.b, pos))
	key := u32(t.b, pos+4)
	if flags&FLAG_COMPLEX == 0 {
		vp := pos + size
		return &SimpleEntry{
			Key:   key,
			Flags: flags,
			Value: Value{Type: t.b[vp+3], Data: u32(t.b, vp+4)},
		}, nil
	}
	count := int(u32(t.b, pos+12))
	e := &ComplexEntry{
		Key:     key,
		Flags:   flags,
		Parent:  u32(t.b, pos+8),
		Entries: make([]MapEntry, count),
	}
	mp := pos + size
	for i := range e.Entries {
		e.Entries[i] = MapEntry{
			Name:  u32(t.b, mp),
			Value: Value{Type: t.b[mp+7], Data: u32(t.b, mp+8)},
		}
		mp += mapSize
	}
	return e, nil
}

// IsComplexAt reports whether the entry at off is a bag, without decoding it.
func (t *Type) IsComplexAt(off uint32) bool {
	pos := int(off) + int(t.EntriesStart)
	if pos+entryHeaderSize > len(t.b) {
		return false
	}
	flags := u16(t.b, pos+2)
	return flags&FLAG_COMPACT == 0 && flags&FLAG_COMPLEX != 0 && u16(t.b, pos) >= mapEntryHeaderSize
}
