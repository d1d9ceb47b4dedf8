package nameindex

import (
	"encoding/binary"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.etcd.io/bbolt"
	"go.uber.org/zap/zaptest"

	"github.com/dnr/restable/assets"
	"github.com/dnr/restable/common"
	"github.com/dnr/restable/restable"
)

func table(t *testing.T, id uint32, name string, entries ...string) *assets.ApkAssets {
	b := restable.NewTableBuilder()
	p := b.AddPackage(id, name)
	p.AddType(1, "string")
	p.AddType(2, "integer")
	for i, e := range entries {
		p.AddValue(1, uint16(i), e, restable.Config{}, b.StringValue(e))
	}
	p.AddValue(2, 0, "count", restable.Config{}, restable.Value{Type: restable.TypeIntDec, Data: 3})
	data, err := b.Build()
	require.NoError(t, err)
	a, err := assets.LoadTable(name+".arsc", data, restable.LoadOptions{})
	require.NoError(t, err)
	return a
}

func manager(t *testing.T) *assets.AssetManager {
	am := assets.New(assets.Options{})
	am.SetApkAssets([]*assets.ApkAssets{
		table(t, 0, "com.example.lib", "title"),
		table(t, restable.AppPackageID, "com.example.app", "hello", "bye"),
	})
	return am
}

func TestRebuildLookup(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "names.bolt")
	ix, err := Open(path, Options{Logger: zaptest.NewLogger(t)})
	r.NoError(err)

	n, err := ix.Rebuild(manager(t))
	r.NoError(err)
	r.Equal(5, n)

	id, err := ix.Lookup("com.example.app:string/bye")
	r.NoError(err)
	r.EqualValues(0x7f010001, id)
	// the shared library is indexed under its runtime id
	id, err = ix.Lookup("com.example.lib:string/title")
	r.NoError(err)
	r.EqualValues(0x02010000, id)
	_, err = ix.Lookup("com.example.app:string/nope")
	r.True(common.IsNotFound(err))

	names, err := ix.Names("com.example.app:string/")
	r.NoError(err)
	r.Equal([]string{"com.example.app:string/bye", "com.example.app:string/hello"}, names)
	names, err = ix.Names("")
	r.NoError(err)
	r.Len(names, 5)

	src, err := ix.Sources()
	r.NoError(err)
	r.Equal([]string{"com.example.lib.arsc", "com.example.app.arsc"}, src)
	r.NoError(ix.Close())

	// persisted across reopen
	ix, err = Open(path, Options{})
	r.NoError(err)
	id, err = ix.Lookup("com.example.app:integer/count")
	r.NoError(err)
	r.EqualValues(0x7f020000, id)

	// rebuilding replaces old names
	am := assets.New(assets.Options{})
	am.SetApkAssets([]*assets.ApkAssets{table(t, restable.AppPackageID, "com.example.app", "only")})
	n, err = ix.Rebuild(am)
	r.NoError(err)
	r.Equal(2, n)
	_, err = ix.Lookup("com.example.lib:string/title")
	r.True(common.IsNotFound(err))
	r.NoError(ix.Close())
}

func TestSchemaMismatch(t *testing.T) {
	r := require.New(t)
	path := filepath.Join(t.TempDir(), "names.bolt")
	ix, err := Open(path, Options{})
	r.NoError(err)
	r.NoError(ix.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(metaBucket).Put(metaSchema, binary.LittleEndian.AppendUint32(nil, schemaLatest+1))
	}))
	r.NoError(ix.Close())

	_, err = Open(path, Options{})
	r.ErrorContains(err, "mismatched schema version")
}
