package restable

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/dnr/restable/common"
	"github.com/dnr/restable/common/shift"
)

// TableBuilder writes resource tables. It covers the parts of the format this
// package reads and is used for test fixtures and tooling.
type TableBuilder struct {
	// UTF16 writes every string pool in UTF-16 instead of UTF-8.
	UTF16 bool

	strings  []string
	styles   [][]Span
	packages []*PackageBuilder
}

type PackageBuilder struct {
	ID           uint32
	Name         string
	TypeIDOffset uint32
	// ShortHeader omits the typeIdOffset field from the package header.
	ShortHeader bool

	typeNames []string
	keys      []string
	keyIdx    map[string]uint32
	specs     map[uint8]*specBuilder
	libs      []DynamicPackageEntry
}

type specBuilder struct {
	flags    map[uint16]uint32
	variants []*TypeVariant
}

// TypeVariant collects the entries of one type under one configuration.
type TypeVariant struct {
	Config Config
	// Sparse writes a sorted {index, offset} table.
	Sparse bool
	// Offset16 writes 16 bit offsets.
	Offset16 bool
	// Compact writes simple entries in the 8 byte compact form.
	Compact bool

	entries map[uint16]Entry
}

func NewTableBuilder() *TableBuilder { return &TableBuilder{} }

// AddString adds s to the global pool and returns its index.
func (b *TableBuilder) AddString(s string) uint32 {
	if i := slices.Index(b.strings, s); i >= 0 {
		return uint32(i)
	}
	b.strings = append(b.strings, s)
	return uint32(len(b.strings) - 1)
}

// AddStyledString adds s with style spans. Styled strings always get new
// slots and must be added before any plain string.
func (b *TableBuilder) AddStyledString(s string, spans []Span) uint32 {
	if len(b.styles) != len(b.strings) {
		panic("styled strings must come first")
	}
	b.strings = append(b.strings, s)
	b.styles = append(b.styles, spans)
	return uint32(len(b.strings) - 1)
}

// StringValue adds s to the global pool and returns a value referencing it.
func (b *TableBuilder) StringValue(s string) Value {
	return Value{Type: TypeString, Data: b.AddString(s)}
}

func (b *TableBuilder) AddPackage(id uint32, name string) *PackageBuilder {
	p := &PackageBuilder{
		ID:     id,
		Name:   name,
		keyIdx: make(map[string]uint32),
		specs:  make(map[uint8]*specBuilder),
	}
	b.packages = append(b.packages, p)
	return p
}

// AddType names a type id. Type ids are 1-based within the package.
func (p *PackageBuilder) AddType(id uint8, name string) {
	for len(p.typeNames) < int(id) {
		p.typeNames = append(p.typeNames, "")
	}
	p.typeNames[id-1] = name
	if p.specs[id] == nil {
		p.specs[id] = &specBuilder{flags: make(map[uint16]uint32)}
	}
}

func (p *PackageBuilder) AddLibrary(id uint8, name string) {
	p.libs = append(p.libs, DynamicPackageEntry{Name: name, ID: id})
}

// SetSpecFlags sets the type spec flags of an entry.
func (p *PackageBuilder) SetSpecFlags(typeID uint8, entry uint16, flags uint32) {
	p.spec(typeID).flags[entry] = flags
}

func (p *PackageBuilder) spec(typeID uint8) *specBuilder {
	s := p.specs[typeID]
	if s == nil {
		panic(fmt.Sprintf("type %d not added", typeID))
	}
	return s
}

func (p *PackageBuilder) key(name string) uint32 {
	if i, ok := p.keyIdx[name]; ok {
		return i
	}
	i := uint32(len(p.keys))
	p.keys = append(p.keys, name)
	p.keyIdx[name] = i
	return i
}

// Variant returns the variant of a type for config, creating it if needed.
func (p *PackageBuilder) Variant(typeID uint8, config Config) *TypeVariant {
	s := p.spec(typeID)
	config.Size = configSize
	for _, v := range s.variants {
		if v.Config == config {
			return v
		}
	}
	v := &TypeVariant{Config: config, entries: make(map[uint16]Entry)}
	s.variants = append(s.variants, v)
	return v
}

// AddValue adds a simple entry and returns its id.
func (p *PackageBuilder) AddValue(typeID uint8, entry uint16, key string, config Config, v Value) uint32 {
	p.Variant(typeID, config).entries[entry] = &SimpleEntry{Key: p.key(key), Value: v}
	return p.resid(typeID, entry)
}

// AddBag adds a complex entry and returns its id. Map entries are written in
// the order given.
func (p *PackageBuilder) AddBag(typeID uint8, entry uint16, key string, config Config, parent uint32, entries []MapEntry) uint32 {
	p.Variant(typeID, config).entries[entry] = &ComplexEntry{
		Key:     p.key(key),
		Flags:   FLAG_COMPLEX,
		Parent:  parent,
		Entries: slices.Clone(entries),
	}
	return p.resid(typeID, entry)
}

func (p *PackageBuilder) resid(typeID uint8, entry uint16) uint32 {
	return MakeResID(uint8(p.ID), typeID+uint8(p.TypeIDOffset), entry)
}

// Build writes the table.
func (b *TableBuilder) Build() ([]byte, error) {
	var body bytes.Buffer
	body.Write(buildStringPool(b.strings, b.styles, !b.UTF16))
	for _, p := range b.packages {
		pb, err := p.build(!b.UTF16)
		if err != nil {
			return nil, err
		}
		body.Write(pb)
	}
	var out bytes.Buffer
	h := res_table_header{
		Header: res_chunk_header{
			Type:       RES_TABLE_TYPE,
			HeaderSize: tableHeaderSize,
			Size:       common.TruncU32(tableHeaderSize + body.Len()),
		},
		PackageCount: common.TruncU32(len(b.packages)),
	}
	if err := pack(&out, &h); err != nil {
		return nil, err
	}
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func (p *PackageBuilder) build(utf8 bool) ([]byte, error) {
	headerSize := packageHeaderSize
	if p.ShortHeader {
		headerSize = packageMinHeaderSize
	}
	var body bytes.Buffer
	typeStrings := body.Len() + headerSize
	body.Write(buildStringPool(p.typeNames, nil, utf8))
	keyStrings := body.Len() + headerSize
	body.Write(buildStringPool(p.keys, nil, utf8))
	if len(p.libs) > 0 {
		if err := writeLibrary(&body, p.libs); err != nil {
			return nil, err
		}
	}
	ids := maps.Keys(p.specs)
	slices.Sort(ids)
	for _, id := range ids {
		if err := p.specs[id].write(&body, id); err != nil {
			return nil, err
		}
	}

	h := res_table_package{
		Header: res_chunk_header{
			Type:       RES_TABLE_PACKAGE_TYPE,
			HeaderSize: common.TruncU16(headerSize),
			Size:       common.TruncU32(headerSize + body.Len()),
		},
		Id:           p.ID,
		Name:         toFixedUTF16(p.Name),
		TypeStrings:  common.TruncU32(typeStrings),
		KeyStrings:   common.TruncU32(keyStrings),
		TypeIdOffset: p.TypeIDOffset,
	}
	hb, err := packToBytes(&h)
	if err != nil {
		return nil, err
	}
	return append(hb[:headerSize], body.Bytes()...), nil
}

func (s *specBuilder) entryCount() int {
	n := 0
	for e := range s.flags {
		n = max(n, int(e)+1)
	}
	for _, v := range s.variants {
		for e := range v.entries {
			n = max(n, int(e)+1)
		}
	}
	return n
}

func (s *specBuilder) write(out *bytes.Buffer, id uint8) error {
	n := s.entryCount()
	h := res_table_type_spec{
		Header: res_chunk_header{
			Type:       RES_TABLE_TYPE_SPEC_TYPE,
			HeaderSize: typeSpecHeaderSize,
			Size:       common.TruncU32(typeSpecHeaderSize + 4*n),
		},
		Id:         id,
		EntryCount: common.TruncU32(n),
	}
	if err := pack(out, &h); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		binary.Write(out, binary.LittleEndian, s.flags[uint16(i)])
	}
	for _, v := range s.variants {
		if err := v.write(out, id, n); err != nil {
			return err
		}
	}
	return nil
}

func (v *TypeVariant) write(out *bytes.Buffer, id uint8, n int) error {
	idxs := maps.Keys(v.entries)
	slices.Sort(idxs)

	var entries bytes.Buffer
	offsets := make(map[uint16]uint32, len(idxs))
	for _, i := range idxs {
		offsets[i] = uint32(entries.Len())
		if err := v.writeEntry(&entries, v.entries[i]); err != nil {
			return err
		}
	}

	var index bytes.Buffer
	var flags uint8
	count := n
	switch {
	case v.Sparse:
		flags |= FLAG_SPARSE
		count = len(idxs)
		for _, i := range idxs {
			binary.Write(&index, binary.LittleEndian, [2]uint16{i, common.TruncU16(offsets[i] / 4)})
		}
	case v.Offset16:
		flags |= FLAG_OFFSET16
		for i := 0; i < n; i++ {
			o, ok := offsets[uint16(i)]
			if !ok {
				binary.Write(&index, binary.LittleEndian, uint16(0xffff))
				continue
			} else if o/4 >= 0xffff {
				return errors.New("entry offset too large for 16 bit offsets")
			}
			binary.Write(&index, binary.LittleEndian, uint16(o/4))
		}
	default:
		for i := 0; i < n; i++ {
			o, ok := offsets[uint16(i)]
			if !ok {
				o = NO_ENTRY
			}
			binary.Write(&index, binary.LittleEndian, o)
		}
	}
	pad(&index, shift.Word)

	headerSize := typeHeaderFixedSize + configSize
	entriesStart := headerSize + index.Len()
	h := res_table_type{
		Header: res_chunk_header{
			Type:       RES_TABLE_TYPE_TYPE,
			HeaderSize: common.TruncU16(headerSize),
			Size:       common.TruncU32(entriesStart + entries.Len()),
		},
		Id:           id,
		Flags:        flags,
		EntryCount:   common.TruncU32(count),
		EntriesStart: common.TruncU32(entriesStart),
	}
	if err := pack(out, &h); err != nil {
		return err
	}
	out.Write(v.Config.Bytes())
	out.Write(index.Bytes())
	out.Write(entries.Bytes())
	return nil
}

func (v *TypeVariant) writeEntry(out io.Writer, e Entry) error {
	switch e := e.(type) {
	case *SimpleEntry:
		if v.Compact && e.Key <= 0xffff {
			return binary.Write(out, binary.LittleEndian, struct {
				Key   uint16
				Flags uint16
				Data  uint32
			}{uint16(e.Key), e.Flags | FLAG_COMPACT | uint16(e.Value.Type)<<8, e.Value.Data})
		}
		if err := pack(out, &res_table_entry{Size: entryHeaderSize, Flags: e.Flags, Key: e.Key}); err != nil {
			return err
		}
		return pack(out, &res_value{Size: valueSize, DataType: e.Value.Type, Data: e.Value.Data})
	case *ComplexEntry:
		h := res_table_map_entry{
			Size:   mapEntryHeaderSize,
			Flags:  e.Flags | FLAG_COMPLEX,
			Key:    e.Key,
			Parent: e.Parent,
			Count:  common.TruncU32(len(e.Entries)),
		}
		if err := pack(out, &h); err != nil {
			return err
		}
		for _, m := range e.Entries {
			rm := res_table_map{Name: m.Name, Value: res_value{Size: valueSize, DataType: m.Value.Type, Data: m.Value.Data}}
			if err := pack(out, &rm); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown entry type %T", e)
	}
}

func writeLibrary(out *bytes.Buffer, libs []DynamicPackageEntry) error {
	h := res_table_lib_header{
		Header: res_chunk_header{
			Type:       RES_TABLE_LIBRARY_TYPE,
			HeaderSize: libHeaderSize,
			Size:       common.TruncU32(libHeaderSize + libEntrySize*len(libs)),
		},
		Count: common.TruncU32(len(libs)),
	}
	if err := pack(out, &h); err != nil {
		return err
	}
	for _, l := range libs {
		if err := pack(out, &res_table_lib_entry{PackageId: uint32(l.ID), PackageName: toFixedUTF16(l.Name)}); err != nil {
			return err
		}
	}
	return nil
}

func buildStringPool(strs []string, styles [][]Span, utf8 bool) []byte {
	var data bytes.Buffer
	index := make([]uint32, 0, len(strs)+len(styles))
	for _, s := range strs {
		index = append(index, uint32(data.Len()))
		if utf8 {
			writeLen8(&data, len([]rune(s)))
			writeLen8(&data, len(s))
			data.WriteString(s)
			data.WriteByte(0)
		} else {
			u := encodeUTF16(s)
			writeLen16(&data, len(u)/2)
			data.Write(u)
			data.Write([]byte{0, 0})
		}
	}
	pad(&data, shift.Word)

	var styleData bytes.Buffer
	for _, spans := range styles {
		index = append(index, uint32(styleData.Len()))
		for _, sp := range spans {
			binary.Write(&styleData, binary.LittleEndian, [3]uint32{sp.Name, sp.FirstChar, sp.LastChar})
		}
		binary.Write(&styleData, binary.LittleEndian, uint32(SPAN_END))
	}
	if len(styles) > 0 {
		binary.Write(&styleData, binary.LittleEndian, [2]uint32{SPAN_END, SPAN_END})
	}

	stringsStart := stringPoolHeaderSize + 4*len(index)
	var flags uint32
	if utf8 {
		flags |= UTF8_FLAG
	}
	h := res_string_pool_header{
		Header: res_chunk_header{
			Type:       RES_STRING_POOL_TYPE,
			HeaderSize: stringPoolHeaderSize,
			Size:       common.TruncU32(stringsStart + data.Len() + styleData.Len()),
		},
		StringCount: common.TruncU32(len(strs)),
		StyleCount:  common.TruncU32(len(styles)),
		Flags:       flags,
	}
	if len(strs) > 0 {
		h.StringsStart = common.TruncU32(stringsStart)
	}
	if len(styles) > 0 {
		h.StylesStart = common.TruncU32(stringsStart + data.Len())
	}
	var out bytes.Buffer
	if err := pack(&out, &h); err != nil {
		panic(err)
	}
	binary.Write(&out, binary.LittleEndian, index)
	out.Write(data.Bytes())
	out.Write(styleData.Bytes())
	return out.Bytes()
}

func writeLen8(out *bytes.Buffer, n int) {
	if n > 0x7f {
		out.WriteByte(byte(n>>8) | 0x80)
	}
	out.WriteByte(byte(n))
}

func writeLen16(out *bytes.Buffer, n int) {
	if n > 0x7fff {
		binary.Write(out, binary.LittleEndian, uint16(n>>16)|0x8000)
	}
	binary.Write(out, binary.LittleEndian, uint16(n))
}

func pad(out *bytes.Buffer, s shift.Shift) {
	if n := int(s.Roundup(int64(out.Len())) - int64(out.Len())); n > 0 {
		out.Write(make([]byte, n))
	}
}

// IdmapBuilder writes idmap files.
type IdmapBuilder struct {
	TargetPackageID uint8
	OverlayPath     string
	maps            []idmapBlock
}

type idmapBlock struct {
	target, overlay uint8
	offset          uint16
	entries         []uint32
}

// Map adds a block mapping target entries offset.. to the given overlay
// entries. Use NoOverlayEntry for gaps.
func (b *IdmapBuilder) Map(targetType, overlayType uint8, offset uint16, overlayEntries ...uint32) {
	b.maps = append(b.maps, idmapBlock{targetType, overlayType, offset, overlayEntries})
}

const NoOverlayEntry = idmapNoEntry

func (b *IdmapBuilder) Build() ([]byte, error) {
	var out bytes.Buffer
	h := idmap_header{
		Magic:           IdmapMagic,
		Version:         IdmapVersion,
		TargetPackageId: uint16(b.TargetPackageID),
		TypeCount:       common.TruncU16(len(b.maps)),
	}
	copy(h.OverlayPath[:idmapPathLen-1], b.OverlayPath)
	if err := pack(&out, &h); err != nil {
		return nil, err
	}
	for _, m := range b.maps {
		eh := idmap_entry_header{
			TargetTypeId:  uint16(m.target),
			OverlayTypeId: uint16(m.overlay),
			EntryIdOffset: m.offset,
			EntryCount:    common.TruncU16(len(m.entries)),
		}
		if err := pack(&out, &eh); err != nil {
			return nil, err
		}
		binary.Write(&out, binary.LittleEndian, m.entries)
	}
	return out.Bytes(), nil
}
