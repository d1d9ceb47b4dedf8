package restable

import (
	"bytes"

	"go.uber.org/zap"

	"github.com/dnr/restable/common/shift"
)

const (
	IdmapMagic   = 0x504D4449
	IdmapVersion = 0x01

	idmapPathLen         = 256
	idmapHeaderSize      = 12 + idmapPathLen
	idmapEntryHeaderSize = 8

	idmapNoEntry = 0xffffffff
)

// IdmapTypeMap maps entries of one overlay type onto a target type.
type IdmapTypeMap struct {
	TargetTypeID  uint8
	OverlayTypeID uint8
	EntryIDOffset uint16
	entries       []byte // EntryCount little-endian u32s
}

func (m *IdmapTypeMap) EntryCount() int { return len(m.entries) / 4 }

// Lookup translates an overlay entry id into the target's entry id.
func (m *IdmapTypeMap) Lookup(entryID uint16) (uint16, bool) {
	if m == nil || entryID < m.EntryIDOffset {
		return 0, false
	}
	i := int(entryID - m.EntryIDOffset)
	if i >= m.EntryCount() {
		return 0, false
	}
	v := u32(m.entries, 4*i)
	if v == idmapNoEntry {
		return 0, false
	}
	return uint16(v), true
}

// Idmap is a parsed overlay id map.
type Idmap struct {
	hdr      idmap_header
	typeMaps map[uint8]*IdmapTypeMap
}

// LoadIdmap parses and validates an idmap file. The whole file is rejected on
// any structural problem.
func LoadIdmap(data []byte, log *zap.Logger) (*Idmap, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fail := func(err error) (*Idmap, error) {
		log.Error("rejecting idmap", zap.Error(err))
		return nil, err
	}
	if len(data) < idmapHeaderSize {
		return fail(malformed("idmap header is too small"))
	}
	if !shift.Word.Aligned(int64(len(data))) {
		return fail(malformed("idmap size %d is not 4-byte aligned", len(data)))
	}
	im := &Idmap{typeMaps: make(map[uint8]*IdmapTypeMap)}
	if err := unpackBytes(data[:idmapHeaderSize], &im.hdr); err != nil {
		return fail(err)
	}
	if im.hdr.Magic != IdmapMagic {
		return fail(malformed("invalid idmap magic %#x", im.hdr.Magic))
	}
	if im.hdr.Version != IdmapVersion {
		return fail(malformed("version mismatch in idmap: got %d", im.hdr.Version))
	}
	if !isValidPackageID(uint32(im.hdr.TargetPackageId)) {
		return fail(malformed("target package id %#x is out of range", im.hdr.TargetPackageId))
	}
	if im.hdr.TypeCount > 255 {
		return fail(malformed("idmap has too many type mappings (%d)", im.hdr.TypeCount))
	}

	off := idmapHeaderSize
	var found int
	for off < len(data) {
		if !shift.Word.Aligned(int64(off)) {
			return fail(malformed("idmap type map at offset %d is not aligned", off))
		}
		if len(data)-off < idmapEntryHeaderSize {
			return fail(malformed("idmap type map header at offset %d is truncated", off))
		}
		var eh idmap_entry_header
		if err := unpackBytes(data[off:off+idmapEntryHeaderSize], &eh); err != nil {
			return fail(err)
		}
		if eh.TargetTypeId == 0 || eh.TargetTypeId > 255 || eh.OverlayTypeId == 0 || eh.OverlayTypeId > 255 {
			return fail(malformed("invalid type map (%#x -> %#x)", eh.OverlayTypeId, eh.TargetTypeId))
		}
		body := off + idmapEntryHeaderSize
		n := int(eh.EntryCount) * 4
		if n > len(data)-body {
			return fail(malformed("idmap type map (%#x -> %#x) is truncated", eh.OverlayTypeId, eh.TargetTypeId))
		}
		for i := body; i < body+n; i += 4 {
			if v := u32(data, i); v != idmapNoEntry && v > 0xffff {
				return fail(malformed("idmap type map (%#x -> %#x) has out of range entry %#x",
					eh.OverlayTypeId, eh.TargetTypeId, v))
			}
		}
		if eh.EntryCount > 0 {
			im.typeMaps[uint8(eh.OverlayTypeId)] = &IdmapTypeMap{
				TargetTypeID:  uint8(eh.TargetTypeId),
				OverlayTypeID: uint8(eh.OverlayTypeId),
				EntryIDOffset: eh.EntryIdOffset,
				entries:       data[body : body+n],
			}
		}
		found++
		off = body + n
	}
	if found != int(im.hdr.TypeCount) {
		return fail(malformed("idmap declared %d type maps but has %d", im.hdr.TypeCount, found))
	}
	return im, nil
}

func (im *Idmap) TargetPackageID() uint8 { return uint8(im.hdr.TargetPackageId) }

func (im *Idmap) OverlayPath() string {
	p := im.hdr.OverlayPath[:]
	if i := bytes.IndexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	return string(p)
}

// TypeMap returns the map for an overlay type, or nil.
func (im *Idmap) TypeMap(overlayTypeID uint8) *IdmapTypeMap {
	return im.typeMaps[overlayTypeID]
}

// Lookup is a convenience for TypeMap(...).Lookup, tolerating a nil map.
func Lookup(m *IdmapTypeMap, entryID uint16) (uint16, bool) {
	return m.Lookup(entryID)
}

func isValidPackageID(id uint32) bool { return id != 0 && id <= 255 }
