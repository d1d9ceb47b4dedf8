package assets

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dnr/restable/common"
	"github.com/dnr/restable/restable"
)

const (
	tableEntryName = "resources.arsc"
	assetsPrefix   = "assets/"
)

var zipMagic = []byte("PK\x03\x04")

// ApkAssets is one loaded input: a bare resource table or an apk with its
// table and raw files.
type ApkAssets struct {
	path  string
	table *restable.LoadedTable
	idmap *restable.Idmap
	zr    *zip.Reader

	closer func() error
}

func (a *ApkAssets) Path() string                 { return a.path }
func (a *ApkAssets) Table() *restable.LoadedTable { return a.table }
func (a *ApkAssets) Idmap() *restable.Idmap       { return a.idmap }

// IsOverlay reports whether the table was loaded through an idmap.
func (a *ApkAssets) IsOverlay() bool { return a.idmap != nil }

// Close releases the backing file or mapping. The table must not be used
// afterwards.
func (a *ApkAssets) Close() error {
	if a.closer == nil {
		return nil
	}
	c := a.closer
	a.closer = nil
	return c()
}

// Open reads a file from the archive by its full path, e.g.
// "assets/fonts/x.ttf" or "res/raw/y.bin".
func (a *ApkAssets) Open(name string) ([]byte, error) {
	if a.zr == nil {
		return nil, common.NotFound("%s: not an archive", a.path)
	}
	f, err := a.zr.Open(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.NotFound("%s: no entry %q", a.path, name)
		}
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// LoadTable parses a bare resources.arsc that is already in memory.
func LoadTable(path string, data []byte, opts restable.LoadOptions) (*ApkAssets, error) {
	t, err := restable.Load(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &ApkAssets{path: path, table: t, idmap: opts.Idmap}, nil
}

// LoadApk opens a zip archive on disk and loads its resources.arsc.
func LoadApk(path string, opts restable.LoadOptions) (*ApkAssets, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	a, err := loadZip(path, &zrc.Reader, opts)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	a.closer = zrc.Close
	return a, nil
}

func loadZip(path string, zr *zip.Reader, opts restable.LoadOptions) (*ApkAssets, error) {
	a := &ApkAssets{path: path, zr: zr, idmap: opts.Idmap}
	data, err := a.Open(tableEntryName)
	if common.IsNotFound(err) {
		// apks without resources still provide assets
		a.table, err = restable.Load(nil, opts)
		return a, err
	} else if err != nil {
		return nil, err
	}
	if a.table, err = restable.Load(data, opts); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// LoadBytes loads an in-memory apk, zstd-compressed input or bare table,
// chosen by magic number.
func LoadBytes(path string, data []byte, opts restable.LoadOptions) (*ApkAssets, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
		if err != nil {
			return nil, err
		}
		return loadZip(path, zr, opts)
	case common.IsZstd(data):
		raw, err := common.Decompress(data)
		if err != nil {
			return nil, fmt.Errorf("%s: decompress: %w", path, err)
		}
		if common.IsZstd(raw) {
			return nil, fmt.Errorf("%s: nested zstd stream", path)
		}
		return LoadBytes(path, raw, opts)
	default:
		return LoadTable(path, data, opts)
	}
}

// LoadPath loads a local path or a file:// or http(s):// url. Local
// uncompressed tables are memory mapped.
func LoadPath(ctx context.Context, path string, opts restable.LoadOptions) (*ApkAssets, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if common.IsUrl(path) {
		data, err := common.LoadFromFileOrHttpUrl(ctx, opts.Logger, path)
		if err != nil {
			return nil, err
		}
		return LoadBytes(path, data, opts)
	}
	magic, err := readMagic(path)
	if err != nil {
		return nil, err
	}
	switch {
	case bytes.HasPrefix(magic, zipMagic):
		return LoadApk(path, opts)
	case common.IsZstd(magic):
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return LoadBytes(path, data, opts)
	default:
		return MapTable(path, opts)
	}
}

func readMagic(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var b [4]byte
	n, err := io.ReadFull(f, b[:])
	if err == io.ErrUnexpectedEOF || err == io.EOF {
		err = nil
	}
	return b[:n], err
}

// LoadOverlay reads an idmap and loads the overlay it names, with every
// package remapped onto the idmap's target.
func LoadOverlay(ctx context.Context, idmapPath string, opts restable.LoadOptions) (*ApkAssets, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	data, err := common.LoadFromFileOrHttpUrl(ctx, opts.Logger, idmapPath)
	if err != nil {
		return nil, err
	}
	im, err := restable.LoadIdmap(data, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", idmapPath, err)
	}
	opts.Idmap = im
	return LoadPath(ctx, im.OverlayPath(), opts)
}

// LoadAll loads paths concurrently. The result is in the order of paths. If
// any load fails, the others are closed.
func LoadAll(ctx context.Context, paths []string, opts restable.LoadOptions) ([]*ApkAssets, error) {
	out := make([]*ApkAssets, len(paths))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, p := range paths {
		eg.Go(func() (err error) {
			out[i], err = LoadPath(egCtx, p, opts)
			return
		})
	}
	if err := eg.Wait(); err != nil {
		for _, a := range out {
			if a != nil {
				a.Close()
			}
		}
		return nil, err
	}
	return out, nil
}
