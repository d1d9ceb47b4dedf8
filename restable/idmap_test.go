package restable

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func buildIdmap(t testing.TB) []byte {
	b := &IdmapBuilder{TargetPackageID: AppPackageID, OverlayPath: "/vendor/overlay/theme.apk"}
	b.Map(2, 1, 3, 0, NoOverlayEntry, 1)
	b.Map(3, 2, 0) // empty, dropped after parsing
	data, err := b.Build()
	require.NoError(t, err)
	return data
}

func TestLoadIdmap(t *testing.T) {
	r := require.New(t)
	im, err := LoadIdmap(buildIdmap(t), nil)
	r.NoError(err)
	r.EqualValues(AppPackageID, im.TargetPackageID())
	r.Equal("/vendor/overlay/theme.apk", im.OverlayPath())

	m := im.TypeMap(1)
	r.NotNil(m)
	r.EqualValues(2, m.TargetTypeID)
	r.Equal(3, m.EntryCount())
	r.Nil(im.TypeMap(2))

	for in, want := range map[uint16]struct {
		out uint16
		ok  bool
	}{
		0: {0, false}, // below offset
		2: {0, false},
		3: {0, true},
		4: {0, false}, // unmapped sentinel
		5: {1, true},
		6: {0, false}, // past the end
	} {
		out, ok := Lookup(m, in)
		r.Equal(want.ok, ok, "entry %d", in)
		r.Equal(want.out, out, "entry %d", in)
	}

	_, ok := Lookup(nil, 3)
	r.False(ok)
}

func TestLoadIdmapRejects(t *testing.T) {
	good := buildIdmap(t)
	for name, mod := range map[string]func(b []byte) []byte{
		"short":        func(b []byte) []byte { return b[:100] },
		"unaligned":    func(b []byte) []byte { return append(b, 0) },
		"magic":        func(b []byte) []byte { b[0] ^= 0xff; return b },
		"version":      func(b []byte) []byte { binary.LittleEndian.PutUint32(b[4:], 2); return b },
		"package zero": func(b []byte) []byte { binary.LittleEndian.PutUint16(b[8:], 0); return b },
		"package big":  func(b []byte) []byte { binary.LittleEndian.PutUint16(b[8:], 256); return b },
		"type count":   func(b []byte) []byte { binary.LittleEndian.PutUint16(b[10:], 3); return b },
		"too many types": func(b []byte) []byte {
			binary.LittleEndian.PutUint16(b[10:], 300)
			return b
		},
		"zero type id": func(b []byte) []byte {
			binary.LittleEndian.PutUint16(b[idmapHeaderSize:], 0)
			return b
		},
		"entry out of range": func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[idmapHeaderSize+idmapEntryHeaderSize:], 0x10000)
			return b
		},
		"truncated block": func(b []byte) []byte {
			binary.LittleEndian.PutUint16(b[idmapHeaderSize+6:], 100)
			return b
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadIdmap(mod(append([]byte(nil), good...)), nil)
			require.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestOverlayPackage(t *testing.T) {
	r := require.New(t)

	// overlay type 1 ("string") maps onto the target's type 2
	ob := NewTableBuilder()
	op := ob.AddPackage(AppPackageID, "com.example.overlay")
	op.AddType(1, "string")
	op.AddType(2, "color")
	op.AddValue(1, 0, "hello", Config{}, ob.StringValue("Howdy"))
	op.AddValue(1, 1, "extra", Config{}, ob.StringValue("Extra"))
	op.AddValue(2, 0, "unmapped", Config{}, Value{Type: TypeIntColorRGB8, Data: 1})
	data, err := ob.Build()
	r.NoError(err)

	ib := &IdmapBuilder{TargetPackageID: AppPackageID}
	ib.Map(2, 1, 0, 0)
	idata, err := ib.Build()
	r.NoError(err)
	im, err := LoadIdmap(idata, nil)
	r.NoError(err)

	tab, err := Load(data, LoadOptions{Idmap: im})
	r.NoError(err)
	p := tab.Packages()[0]
	r.True(p.IsOverlay())
	r.EqualValues(AppPackageID, p.ID())

	spec := p.TypeSpecByIndex(1)
	r.NotNil(spec)
	r.EqualValues(1, spec.SourceID)
	r.Same(im.TypeMap(1), spec.Idmap)
	r.Len(spec.Types, 1)

	// the color type has no mapping and is dropped
	r.Nil(p.TypeSpecByIndex(0))

	overlayEntry, ok := spec.Idmap.Lookup(0)
	r.True(ok)
	e, _, err := p.FindEntry(1, overlayEntry, nil)
	r.NoError(err)
	r.Equal("Howdy", stringOf(t, tab, e))
}

func FuzzIdmap(f *testing.F) {
	f.Add(buildIdmap(f))
	f.Fuzz(func(t *testing.T, data []byte) {
		im, err := LoadIdmap(data, nil)
		if err != nil {
			return
		}
		for i := 1; i < 256; i++ {
			m := im.TypeMap(uint8(i))
			if m == nil {
				continue
			}
			lo, hi := int(m.EntryIDOffset), int(m.EntryIDOffset)+m.EntryCount()
			for e := 0; e < 0x10000; e++ {
				out, ok := m.Lookup(uint16(e))
				if e < lo || e >= hi {
					require.False(t, ok, "entry %d outside [%d, %d)", e, lo, hi)
					continue
				}
				word := binary.LittleEndian.Uint32(m.entries[4*(e-lo):])
				if word == NoOverlayEntry {
					require.False(t, ok, "entry %d is unmapped", e)
					continue
				}
				require.True(t, ok, "entry %d", e)
				require.EqualValues(t, word, out, "entry %d", e)
			}
		}
	})
}
