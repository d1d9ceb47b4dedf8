package restable

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/lunixbochs/struc"
	"golang.org/x/text/encoding/unicode"

	"github.com/dnr/restable/common"
)

// ErrMalformed is wrapped by every error caused by structurally invalid input.
var ErrMalformed = errors.New("malformed resource data")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformed, fmt.Sprintf(format, args...))
}

var _popts = struc.Options{Order: binary.LittleEndian}

func pack(out io.Writer, v any) error {
	return struc.PackWithOptions(out, v, &_popts)
}

func packToBytes(v any) ([]byte, error) {
	var b bytes.Buffer
	err := struc.PackWithOptions(&b, v, &_popts)
	return common.ValOrErr(b.Bytes(), err)
}

func unpackBytes(b []byte, v any) error {
	return struc.UnpackWithOptions(bytes.NewReader(b), v, &_popts)
}

func u16(b []byte, off int) uint16 { return binary.LittleEndian.Uint16(b[off:]) }
func u32(b []byte, off int) uint32 { return binary.LittleEndian.Uint32(b[off:]) }

var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

// decodeUTF16 decodes little-endian UTF-16 bytes, replacing invalid sequences.
func decodeUTF16(b []byte) string {
	out, err := utf16le.NewDecoder().Bytes(b)
	if err != nil {
		return ""
	}
	return string(out)
}

func encodeUTF16(s string) []byte {
	out, err := utf16le.NewEncoder().Bytes([]byte(s))
	if err != nil {
		panic(err)
	}
	return out
}

// fixedUTF16 decodes a NUL-padded fixed size name field.
func fixedUTF16(units []uint16) string {
	n := 0
	for n < len(units) && units[n] != 0 {
		n++
	}
	b := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		binary.LittleEndian.PutUint16(b[2*i:], units[i])
	}
	return decodeUTF16(b)
}

func toFixedUTF16(s string) (out [maxPackageNameLen]uint16) {
	b := encodeUTF16(s)
	for i := 0; i+1 < len(b) && i/2 < maxPackageNameLen-1; i += 2 {
		out[i/2] = binary.LittleEndian.Uint16(b[i:])
	}
	return
}

func notFound(format string, args ...any) error { return common.NotFound(format, args...) }
