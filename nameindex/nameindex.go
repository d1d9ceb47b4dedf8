// Package nameindex keeps a persistent map from resource names
// (package:type/entry) to runtime resource ids for a loaded asset set.
package nameindex

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"

	"github.com/dnr/restable/assets"
	"github.com/dnr/restable/common"
	"github.com/dnr/restable/restable"
)

const (
	schemaV0 uint32 = iota

	schemaLatest = schemaV0
)

var (
	metaBucket  = []byte("meta")
	namesBucket = []byte("names")

	metaSchema  = []byte("schema")
	metaSources = []byte("sources")
)

type Options struct {
	Logger *zap.Logger
}

type Index struct {
	db  *bbolt.DB
	log *zap.Logger
}

// Open opens or creates the index at path.
func Open(path string, opts Options) (*Index, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	ix := &Index{log: opts.Logger}
	if err := ix.openDb(path); err != nil {
		if ix.db != nil {
			ix.db.Close()
		}
		return nil, err
	}
	return ix, nil
}

func (ix *Index) openDb(path string) (err error) {
	opts := bbolt.Options{
		Timeout:        time.Second,
		NoFreelistSync: true,
		FreelistType:   bbolt.FreelistMapType,
	}
	ix.db, err = bbolt.Open(path, 0644, &opts)
	if err != nil {
		return err
	}

	checkSchemaVer := func(mb *bbolt.Bucket) error {
		b := mb.Get(metaSchema)
		if len(b) != 4 {
			ver := binary.LittleEndian.AppendUint32(nil, schemaLatest)
			return mb.Put(metaSchema, ver)
		}
		have := binary.LittleEndian.Uint32(b)
		if have != schemaLatest {
			return fmt.Errorf("mismatched schema version %d != %d", have, schemaLatest)
		}
		return nil
	}

	return ix.db.Update(func(tx *bbolt.Tx) error {
		if mb, err := tx.CreateBucketIfNotExists(metaBucket); err != nil {
			return err
		} else if _, err = tx.CreateBucketIfNotExists(namesBucket); err != nil {
			return err
		} else if err = checkSchemaVer(mb); err != nil {
			return err
		}
		return nil
	})
}

func (ix *Index) Close() error {
	return ix.db.Close()
}

// Rebuild replaces the index contents with every resource of am. Overlay
// packages are skipped since they only supply values for target names.
func (ix *Index) Rebuild(am *assets.AssetManager) (int, error) {
	type kv struct {
		name  string
		resid uint32
	}
	var all []kv
	var sources []string
	for _, a := range am.ApkAssets() {
		sources = append(sources, a.Path())
		for _, pkg := range a.Table().Packages() {
			if pkg.IsOverlay() {
				continue
			}
			rt := am.GetAssignedPackageID(pkg)
			var err error
			pkg.ForEachResource(func(resid uint32) {
				if err != nil {
					return
				}
				spec := pkg.TypeSpecForResID(resid)
				tp, key, e := pkg.EntryName(spec, restable.EntryID(resid))
				if e != nil {
					err = fmt.Errorf("naming %#08x: %w", resid, e)
					return
				}
				name := assets.ResourceName{Package: pkg.Name(), Type: tp, Entry: key}
				all = append(all, kv{name.String(), restable.FixPackageID(resid, rt)})
			})
			if err != nil {
				return 0, err
			}
		}
	}

	err := ix.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(namesBucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		nb, err := tx.CreateBucket(namesBucket)
		if err != nil {
			return err
		}
		for _, e := range all {
			if err := nb.Put([]byte(e.name), binary.LittleEndian.AppendUint32(nil, e.resid)); err != nil {
				return err
			}
		}
		return tx.Bucket(metaBucket).Put(metaSources, []byte(strings.Join(sources, "\n")))
	})
	if err != nil {
		return 0, err
	}
	ix.log.Info("rebuilt name index", zap.Int("names", len(all)), zap.Int("sources", len(sources)))
	return len(all), nil
}

// Lookup returns the resource id stored for name.
func (ix *Index) Lookup(name string) (resid uint32, err error) {
	err = ix.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(namesBucket).Get([]byte(name))
		if len(v) != 4 {
			return common.NotFound("no resource named %s in index", name)
		}
		resid = binary.LittleEndian.Uint32(v)
		return nil
	})
	return
}

// Names returns every indexed name starting with prefix, in order.
func (ix *Index) Names(prefix string) (out []string, err error) {
	p := []byte(prefix)
	err = ix.db.View(func(tx *bbolt.Tx) error {
		cur := tx.Bucket(namesBucket).Cursor()
		for k, _ := cur.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = cur.Next() {
			out = append(out, string(k))
		}
		return nil
	})
	return
}

// Sources returns the paths the index was last built from.
func (ix *Index) Sources() (out []string, err error) {
	err = ix.db.View(func(tx *bbolt.Tx) error {
		if b := tx.Bucket(metaBucket).Get(metaSources); len(b) > 0 {
			out = strings.Split(string(b), "\n")
		}
		return nil
	})
	return
}
