package assets

import (
	"archive/zip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dnr/restable/common"
	"github.com/dnr/restable/restable"
)

func writeFile(t testing.TB, dir, name string, data []byte) string {
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}

func writeApk(t testing.TB, dir, name string, files map[string][]byte) string {
	p := filepath.Join(dir, name)
	f, err := os.Create(p)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for n, b := range files {
		w, err := zw.Create(n)
		require.NoError(t, err)
		_, err = w.Write(b)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return p
}

func TestLoadPathKinds(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()
	ctx := context.Background()
	opts := restable.LoadOptions{Logger: zaptest.NewLogger(t)}
	app := buildApp(t)

	raw := writeFile(t, dir, "resources.arsc", app)
	a, err := LoadPath(ctx, raw, opts)
	r.NoError(err)
	r.Equal(raw, a.Path())
	r.Len(a.Table().Packages(), 1)
	r.False(a.IsOverlay())
	_, err = a.Open("assets/x")
	r.True(common.IsNotFound(err))
	r.NoError(a.Close())
	r.NoError(a.Close())

	zst, err := common.Compress(app)
	r.NoError(err)
	zpath := writeFile(t, dir, "resources.arsc.zst", zst)
	a, err = LoadPath(ctx, zpath, opts)
	r.NoError(err)
	r.Equal("com.example.app", a.Table().Packages()[0].Name())

	apk := writeApk(t, dir, "app.apk", map[string][]byte{
		"resources.arsc":  app,
		"assets/hi.txt":   []byte("hi"),
		"res/raw/doc.bin": {1, 2, 3},
	})
	a, err = LoadPath(ctx, apk, opts)
	r.NoError(err)
	defer a.Close()
	r.Len(a.Table().Packages(), 1)
	b, err := a.Open("assets/hi.txt")
	r.NoError(err)
	r.Equal("hi", string(b))
	_, err = a.Open("assets/nope")
	r.True(common.IsNotFound(err))

	empty := writeFile(t, dir, "empty.arsc", nil)
	a, err = LoadPath(ctx, empty, opts)
	r.NoError(err)
	r.Empty(a.Table().Packages())

	_, err = LoadPath(ctx, filepath.Join(dir, "missing"), opts)
	r.Error(err)

	bad := writeFile(t, dir, "bad.arsc", app[:len(app)-4])
	_, err = LoadPath(ctx, bad, opts)
	r.ErrorIs(err, restable.ErrMalformed)
}

func TestLoadBytesZip(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()
	// apks without a table still serve assets
	apk := writeApk(t, dir, "assets.apk", map[string][]byte{"assets/a": []byte("a")})
	data, err := os.ReadFile(apk)
	r.NoError(err)
	a, err := LoadBytes("mem.apk", data, restable.LoadOptions{})
	r.NoError(err)
	r.Empty(a.Table().Packages())
	b, err := a.Open("assets/a")
	r.NoError(err)
	r.Equal("a", string(b))
}

func TestLoadPathUrl(t *testing.T) {
	r := require.New(t)
	app := buildApp(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.URL.Path != "/resources.arsc" {
			http.NotFound(w, req)
			return
		}
		w.Write(app)
	}))
	defer srv.Close()

	ctx := context.Background()
	a, err := LoadPath(ctx, srv.URL+"/resources.arsc", restable.LoadOptions{})
	r.NoError(err)
	r.Len(a.Table().Packages(), 1)

	_, err = LoadPath(ctx, srv.URL+"/nope", restable.LoadOptions{})
	r.True(common.IsNotFound(err))

	p := writeFile(t, t.TempDir(), "t.arsc", app)
	a, err = LoadPath(ctx, "file://"+p, restable.LoadOptions{})
	r.NoError(err)
	r.Len(a.Table().Packages(), 1)
}

func TestLoadOverlayAndAll(t *testing.T) {
	r := require.New(t)
	dir := t.TempDir()
	ctx := context.Background()

	fw := writeFile(t, dir, "framework.arsc", buildFramework(t))
	app := writeApk(t, dir, "app.apk", map[string][]byte{
		"resources.arsc": buildApp(t),
		"assets/a.txt":   []byte("app"),
	})
	ovl := writeApk(t, dir, "overlay.apk", map[string][]byte{
		"resources.arsc": buildOverlay(t),
		"assets/a.txt":   []byte("overlay"),
	})
	idmap := writeFile(t, dir, "overlay.idmap", buildOverlayIdmap(t, ovl))

	list, err := LoadAll(ctx, []string{fw, app}, restable.LoadOptions{})
	r.NoError(err)
	r.Len(list, 2)
	r.Equal(fw, list[0].Path())
	r.Equal(app, list[1].Path())

	o, err := LoadOverlay(ctx, idmap, restable.LoadOptions{})
	r.NoError(err)
	r.True(o.IsOverlay())
	r.Equal(ovl, o.Idmap().OverlayPath())
	r.True(o.Table().Packages()[0].IsOverlay())

	am := New(Options{Logger: zaptest.NewLogger(t)})
	am.SetApkAssets(append(list, o))
	v, err := am.GetResource(appHello, false, 0)
	r.NoError(err)
	r.Equal("Howdy", stringOf(t, am, v))

	// later apks win for assets
	b, err := am.Open("a.txt")
	r.NoError(err)
	r.Equal("overlay", string(b))
	b, err = am.OpenNonAsset(1, "assets/a.txt")
	r.NoError(err)
	r.Equal("app", string(b))
	_, err = am.Open("zzz")
	r.True(common.IsNotFound(err))
	_, err = am.OpenNonAsset(7, "assets/a.txt")
	r.Error(err)

	for _, a := range am.ApkAssets() {
		r.NoError(a.Close())
	}

	_, err = LoadAll(ctx, []string{fw, filepath.Join(dir, "missing")}, restable.LoadOptions{})
	r.Error(err)
}
