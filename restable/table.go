package restable

import (
	"go.uber.org/zap"
)

type LoadOptions struct {
	Logger *zap.Logger
	// System marks the table as part of the framework.
	System bool
	// SharedLibrary loads an app package (0x7f) as a dynamic library.
	SharedLibrary bool
	// Idmap makes every package an overlay of the idmap's target.
	Idmap *Idmap
}

// LoadedTable is a parsed resources.arsc.
type LoadedTable struct {
	pool     *StringPool
	packages []*LoadedPackage
	system   bool
}

// Load parses a resource table. Structural problems fail the whole load.
func Load(data []byte, opts LoadOptions) (*LoadedTable, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	log := opts.Logger
	t := &LoadedTable{system: opts.System}
	it := NewChunkIterator(data)
	for it.HasNext() {
		c := it.Next()
		switch c.Type {
		case RES_TABLE_TYPE:
			if err := t.loadTable(c, &opts); err != nil {
				log.Error("failed to load resource table", zap.Error(err))
				return nil, err
			}
		default:
			log.Warn("unknown chunk type at top level", zap.Uint16("type", c.Type))
		}
	}
	if it.HadFatalError() {
		log.Error("failed to load resource table", zap.Error(it.Err()))
		return nil, it.Err()
	} else if it.HadError() {
		log.Warn("stopped parsing resource table early", zap.Error(it.Err()))
	}
	return t, nil
}

func (t *LoadedTable) loadTable(c Chunk, opts *LoadOptions) error {
	hdr, ok := c.HeaderAtLeast(tableHeaderSize)
	if !ok {
		return malformed("RES_TABLE_TYPE too small")
	}
	var h res_table_header
	if err := unpackBytes(hdr[:tableHeaderSize], &h); err != nil {
		return err
	}
	log := opts.Logger
	var packages int
	it := NewChunkIterator(c.Data())
	for it.HasNext() {
		child := it.Next()
		switch child.Type {
		case RES_STRING_POOL_TYPE:
			if t.pool != nil {
				log.Warn("multiple global string pools found, ignoring")
				continue
			}
			pool, err := NewStringPool(child.Bytes())
			if err != nil {
				return err
			}
			t.pool = pool
		case RES_TABLE_PACKAGE_TYPE:
			if packages >= int(h.PackageCount) {
				return malformed("more package chunks than the declared %d", h.PackageCount)
			}
			p, err := loadPackage(child, opts)
			if err != nil {
				return err
			}
			t.packages = append(t.packages, p)
			packages++
		default:
			log.Warn("unknown chunk type in table", zap.Uint16("type", child.Type))
		}
	}
	if it.HadFatalError() {
		return it.Err()
	} else if it.HadError() {
		log.Warn("stopped parsing table early", zap.Error(it.Err()))
	}
	return nil
}

// StringPool returns the global value pool, which may be nil.
func (t *LoadedTable) StringPool() *StringPool    { return t.pool }
func (t *LoadedTable) Packages() []*LoadedPackage { return t.packages }
func (t *LoadedTable) IsSystem() bool             { return t.system }

// Package returns the package with the given id, or nil.
func (t *LoadedTable) Package(id uint8) *LoadedPackage {
	for _, p := range t.packages {
		if p.id == id {
			return p
		}
	}
	return nil
}
