package assets

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/dnr/restable/restable"
)

// MapTable maps a bare resources.arsc read-only and parses it in place.
// Strings and entries are read from the mapping, so Close must only be called
// once the table is no longer in use.
func MapTable(path string, opts restable.LoadOptions) (*ApkAssets, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if st.Size() == 0 {
		return LoadTable(path, nil, opts)
	} else if st.Size() > 1<<31 {
		return nil, fmt.Errorf("%s: table too large (%d bytes)", path, st.Size())
	}
	mem, err := unix.Mmap(int(f.Fd()), 0, int(st.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("%s: mmap: %w", path, err)
	}
	a, err := LoadTable(path, mem, opts)
	if err != nil {
		unix.Munmap(mem)
		return nil, err
	}
	a.closer = func() error { return unix.Munmap(mem) }
	return a, nil
}
