package restable

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

// TypeSpec groups every configuration variant of one resource type.
type TypeSpec struct {
	// ID is the slot this spec occupies: the target type id for overlays, the
	// file's type id otherwise.
	ID uint8
	// SourceID is the type id as written in the file.
	SourceID   uint8
	EntryCount uint32
	Types      []*Type
	Idmap      *IdmapTypeMap

	flags []byte
}

// Flags returns the configuration axes entry idx varies on, plus the public
// and staged bits.
func (s *TypeSpec) Flags(idx uint16) uint32 {
	if uint32(idx) >= s.EntryCount {
		return 0
	}
	return u32(s.flags, 4*int(idx))
}

// LoadedPackage is one package chunk from a table.
//
// The first string pool found in a package is its type name pool and the
// second is its key name pool, regardless of the typeStrings and keyStrings
// offsets in the header.
type LoadedPackage struct {
	id           uint8
	name         string
	typeIDOffset uint8
	dynamic      bool
	overlay      bool
	system       bool

	typeStrings *StringPool
	keyStrings  *StringPool
	typeSpecs   [256]*TypeSpec
	libraries   []DynamicPackageEntry
}

func loadPackage(c Chunk, opts *LoadOptions) (*LoadedPackage, error) {
	log := opts.Logger
	hdr, ok := c.HeaderAtLeast(packageMinHeaderSize)
	if !ok {
		return nil, malformed("RES_TABLE_PACKAGE_TYPE too small")
	}
	var ph res_table_package
	full := make([]byte, packageHeaderSize)
	copy(full, hdr)
	if err := unpackBytes(full, &ph); err != nil {
		return nil, err
	}

	p := &LoadedPackage{
		system: opts.System,
		name:   fixedUTF16(ph.Name[:]),
	}
	if ph.Id > 255 {
		return nil, malformed("package id %#x out of range", ph.Id)
	}
	p.id = uint8(ph.Id)
	if p.id == 0 || (p.id == AppPackageID && opts.SharedLibrary) {
		p.dynamic = true
	}
	if opts.Idmap != nil {
		p.id = opts.Idmap.TargetPackageID()
		p.overlay = true
	}
	if c.HeaderSize >= packageHeaderSize {
		if ph.TypeIdOffset > 255 {
			return nil, malformed("RES_TABLE_PACKAGE_TYPE type id offset %d is too large", ph.TypeIdOffset)
		}
		p.typeIDOffset = uint8(ph.TypeIdOffset)
	}

	var cur *TypeSpec
	it := NewChunkIterator(c.Data())
	for it.HasNext() {
		child := it.Next()
		switch child.Type {
		case RES_STRING_POOL_TYPE:
			pool, err := NewStringPool(child.Bytes())
			if err != nil {
				return nil, fmt.Errorf("package %q: %w", p.name, err)
			}
			switch {
			case p.typeStrings == nil:
				p.typeStrings = pool
			case p.keyStrings == nil:
				p.keyStrings = pool
			default:
				log.Warn("ignoring extra string pool in package", zap.String("package", p.name))
			}

		case RES_TABLE_TYPE_SPEC_TYPE:
			spec, err := p.loadTypeSpec(child, opts)
			if err != nil {
				return nil, err
			}
			// nil spec: overlay type with nothing to map, its types are skipped
			cur = spec

		case RES_TABLE_TYPE_TYPE:
			t, err := newType(child)
			if err != nil {
				return nil, err
			}
			if opts.Idmap != nil && opts.Idmap.TypeMap(t.ID) == nil {
				continue
			}
			if cur == nil || cur.SourceID != t.ID {
				return nil, malformed("RES_TABLE_TYPE_TYPE with id %#x has no preceding type spec", t.ID)
			}
			if t.EntryCount == 0 {
				continue
			}
			cur.Types = append(cur.Types, t)

		case RES_TABLE_LIBRARY_TYPE:
			libs, err := loadLibrary(child)
			if err != nil {
				return nil, err
			}
			p.libraries = append(p.libraries, libs...)

		default:
			log.Warn("unknown chunk type in package",
				zap.String("package", p.name), zap.Uint16("type", child.Type))
		}
	}
	if it.HadFatalError() {
		return nil, fmt.Errorf("package %q: %w", p.name, it.Err())
	} else if it.HadError() {
		log.Warn("stopped parsing package early", zap.String("package", p.name), zap.Error(it.Err()))
	}
	if p.typeStrings == nil || p.keyStrings == nil {
		return nil, malformed("package %q is missing its type or key string pool", p.name)
	}
	return p, nil
}

func (p *LoadedPackage) loadTypeSpec(c Chunk, opts *LoadOptions) (*TypeSpec, error) {
	hdr, ok := c.HeaderAtLeast(typeSpecHeaderSize)
	if !ok {
		return nil, malformed("RES_TABLE_TYPE_SPEC_TYPE too small")
	}
	var h res_table_type_spec
	if err := unpackBytes(hdr[:typeSpecHeaderSize], &h); err != nil {
		return nil, err
	}
	if h.Id == 0 {
		return nil, malformed("RES_TABLE_TYPE_SPEC_TYPE has invalid ID 0")
	}
	if int(p.typeIDOffset)+int(h.Id) > 255 {
		return nil, malformed("RES_TABLE_TYPE_SPEC_TYPE has out of range ID %d", int(p.typeIDOffset)+int(h.Id))
	}
	if h.EntryCount > 0xffff {
		return nil, malformed("RES_TABLE_TYPE_SPEC_TYPE has too many entries (%d)", h.EntryCount)
	}
	data := c.Data()
	if uint64(h.EntryCount)*4 > uint64(len(data)) {
		return nil, malformed("RES_TABLE_TYPE_SPEC_TYPE too small to hold entries")
	}
	spec := &TypeSpec{
		ID:         h.Id,
		SourceID:   h.Id,
		EntryCount: h.EntryCount,
		flags:      data[:4*h.EntryCount],
	}
	if opts.Idmap != nil {
		m := opts.Idmap.TypeMap(h.Id)
		if m == nil {
			opts.Logger.Debug("overlay type has no idmap entry", zap.Uint8("type", h.Id))
			return nil, nil
		}
		spec.ID = m.TargetTypeID
		spec.Idmap = m
	}
	if p.typeSpecs[spec.ID-1] != nil {
		opts.Logger.Warn("duplicate type spec, replacing", zap.String("package", p.name), zap.Uint8("type", spec.ID))
	}
	p.typeSpecs[spec.ID-1] = spec
	return spec, nil
}

func loadLibrary(c Chunk) ([]DynamicPackageEntry, error) {
	hdr, ok := c.HeaderAtLeast(libHeaderSize)
	if !ok {
		return nil, malformed("RES_TABLE_LIBRARY_TYPE too small")
	}
	var h res_table_lib_header
	if err := unpackBytes(hdr[:libHeaderSize], &h); err != nil {
		return nil, err
	}
	data := c.Data()
	if uint64(h.Count)*libEntrySize > uint64(len(data)) {
		return nil, malformed("RES_TABLE_LIBRARY_TYPE too small to hold entries")
	}
	out := make([]DynamicPackageEntry, 0, h.Count)
	for i := 0; i < int(h.Count); i++ {
		var e res_table_lib_entry
		if err := unpackBytes(data[i*libEntrySize:(i+1)*libEntrySize], &e); err != nil {
			return nil, err
		}
		if e.PackageId >= 255 {
			return nil, malformed("RES_TABLE_LIBRARY_TYPE package id %#x out of range", e.PackageId)
		}
		out = append(out, DynamicPackageEntry{Name: fixedUTF16(e.PackageName[:]), ID: uint8(e.PackageId)})
	}
	return out, nil
}

func (p *LoadedPackage) ID() uint8                { return p.id }
func (p *LoadedPackage) Name() string             { return p.name }
func (p *LoadedPackage) IsDynamic() bool          { return p.dynamic }
func (p *LoadedPackage) IsOverlay() bool          { return p.overlay }
func (p *LoadedPackage) IsSystem() bool           { return p.system }
func (p *LoadedPackage) TypeIDOffset() uint8      { return p.typeIDOffset }
func (p *LoadedPackage) TypeStrings() *StringPool { return p.typeStrings }
func (p *LoadedPackage) KeyStrings() *StringPool  { return p.keyStrings }

// DynamicPackageMap returns the libraries this package was built against.
func (p *LoadedPackage) DynamicPackageMap() []DynamicPackageEntry { return p.libraries }

// TypeSpecByIndex returns the spec for 0-based type index typeIdx, already
// adjusted for the type id offset, or nil.
func (p *LoadedPackage) TypeSpecByIndex(typeIdx uint8) *TypeSpec {
	if typeIdx == 255 {
		return nil
	}
	return p.typeSpecs[typeIdx]
}

// TypeSpecForResID returns the spec for the type of resid.
func (p *LoadedPackage) TypeSpecForResID(resid uint32) *TypeSpec {
	tid := TypeID(resid)
	if tid == 0 || tid <= p.typeIDOffset {
		return nil
	}
	return p.TypeSpecByIndex(tid - 1 - p.typeIDOffset)
}

// FindEntry returns the best entry for typeIdx/entryIdx under config. A nil
// config takes the first variant that has the entry.
func (p *LoadedPackage) FindEntry(typeIdx uint8, entryIdx uint16, config *Config) (Entry, Config, error) {
	spec := p.TypeSpecByIndex(typeIdx)
	if spec == nil {
		return nil, Config{}, notFound("package %#x has no type index %d", p.id, typeIdx)
	}
	var best *Type
	for _, t := range spec.Types {
		if config == nil {
			if t.HasEntry(entryIdx) {
				best = t
				break
			}
			continue
		}
		if t.Config.Match(config) && (best == nil || t.Config.IsBetterThan(&best.Config, config)) {
			best = t
		}
	}
	if best == nil {
		return nil, Config{}, notFound("no matching configuration for type index %d", typeIdx)
	}
	off := best.EntryOffset(entryIdx)
	if off == NO_ENTRY {
		return nil, Config{}, notFound("entry %#x missing from best configuration %s", entryIdx, best.Config)
	}
	e, err := best.Entry(off)
	return e, best.Config, err
}

// ResIDFor builds the runtime-independent id for a spec slot and entry.
func (p *LoadedPackage) ResIDFor(spec *TypeSpec, entryIdx uint16) uint32 {
	return MakeResID(p.id, spec.ID+p.typeIDOffset, entryIdx)
}

// FindEntryByName looks up a resource by type and key name.
func (p *LoadedPackage) FindEntryByName(typeName, keyName string) (uint32, bool) {
	ti, ok := p.typeStrings.IndexOf(typeName)
	if !ok {
		return 0, false
	}
	ki, ok := p.keyStrings.IndexOf(keyName)
	if !ok {
		return 0, false
	}
	for _, spec := range p.typeSpecs {
		if spec == nil || int(spec.SourceID)-1 != ti {
			continue
		}
		for _, t := range spec.Types {
			var found uint32
			var hit bool
			t.forEachOffset(func(idx int, off uint32) bool {
				if t.keyAt(off) == uint32(ki) {
					found, hit = p.ResIDFor(spec, uint16(idx)), true
					return false
				}
				return true
			})
			if hit {
				return found, true
			}
		}
	}
	return 0, false
}

// EntryName returns the type and key names for an entry in a spec.
func (p *LoadedPackage) EntryName(spec *TypeSpec, entryIdx uint16) (typeName, keyName string, err error) {
	if typeName, err = p.typeStrings.StringAt(int(spec.SourceID) - 1); err != nil {
		return
	}
	for _, t := range spec.Types {
		if off := t.EntryOffset(entryIdx); off != NO_ENTRY {
			keyName, err = p.keyStrings.StringAt(int(t.keyAt(off)))
			return
		}
	}
	return typeName, "", notFound("no entry %#x in type %s", entryIdx, typeName)
}

// ForEachResource calls fn once for every resource id defined in any
// configuration, in id order.
func (p *LoadedPackage) ForEachResource(fn func(resid uint32)) {
	for _, spec := range p.typeSpecs {
		if spec == nil {
			continue
		}
		seen := make(map[int]bool)
		for _, t := range spec.Types {
			t.forEachOffset(func(idx int, off uint32) bool {
				seen[idx] = true
				return true
			})
		}
		ids := make([]int, 0, len(seen))
		for idx := range seen {
			ids = append(ids, idx)
		}
		slices.Sort(ids)
		for _, idx := range ids {
			fn(p.ResIDFor(spec, uint16(idx)))
		}
	}
}

// CollectConfigurations calls fn with each configuration used by the package.
func (p *LoadedPackage) CollectConfigurations(excludeMipmap bool, fn func(Config)) {
	for _, spec := range p.typeSpecs {
		if spec == nil {
			continue
		}
		if excludeMipmap {
			if name, err := p.typeStrings.StringAt(int(spec.SourceID) - 1); err == nil && name == "mipmap" {
				continue
			}
		}
		for _, t := range spec.Types {
			fn(t.Config)
		}
	}
}

var canonicalLanguages = map[string]string{"iw": "he", "in": "id", "ji": "yi", "tl": "fil"}

// CollectLocales calls fn with the locale of each configuration that has
// one. With canonicalize, legacy language codes are replaced by their modern
// forms.
func (p *LoadedPackage) CollectLocales(canonicalize bool, fn func(string)) {
	p.CollectConfigurations(false, func(c Config) {
		if c.Language[0] == 0 && c.Country[0] == 0 {
			return
		}
		if canonicalize {
			if l, ok := canonicalLanguages[c.LanguageString()]; ok {
				c.SetLanguage(l)
			}
		}
		fn(c.Locale())
	})
}

func (t *Type) keyAt(off uint32) uint32 {
	pos := int(off) + int(t.EntriesStart)
	if pos+entryHeaderSize > len(t.b) {
		return NO_ENTRY
	}
	if u16(t.b, pos+2)&FLAG_COMPACT != 0 {
		return uint32(u16(t.b, pos))
	}
	return u32(t.b, pos+4)
}
