package restable

import (
	"fmt"
	"math"
	"strconv"
)

// Res_value data types.
const (
	TypeNull             = 0x00
	TypeReference        = 0x01
	TypeAttribute        = 0x02
	TypeString           = 0x03
	TypeFloat            = 0x04
	TypeDimension        = 0x05
	TypeFraction         = 0x06
	TypeDynamicReference = 0x07
	TypeDynamicAttribute = 0x08
	TypeIntDec           = 0x10
	TypeIntHex           = 0x11
	TypeIntBoolean       = 0x12
	TypeIntColorARGB8    = 0x1c
	TypeIntColorRGB8     = 0x1d
	TypeIntColorARGB4    = 0x1e
	TypeIntColorRGB4     = 0x1f

	// TYPE_NULL data: undefined vs explicitly empty (@empty).
	DataNullUndefined = 0
	DataNullEmpty     = 1
)

// Internal bag keys, as produced by Res_MAKEINTERNAL.
const (
	AttrType  = 0x01000000
	AttrMin   = 0x01000001
	AttrMax   = 0x01000002
	AttrL10N  = 0x01000003
	AttrOther = 0x01000004
	AttrZero  = 0x01000005
	AttrOne   = 0x01000006
	AttrTwo   = 0x01000007
	AttrFew   = 0x01000008
	AttrMany  = 0x01000009
)

const (
	SysPackageID = 0x01
	AppPackageID = 0x7f
)

// Value is a typed 32-bit resource value.
type Value struct {
	Type uint8
	Data uint32
}

func (v Value) IsNull() bool  { return v.Type == TypeNull && v.Data == DataNullUndefined }
func (v Value) IsEmpty() bool { return v.Type == TypeNull && v.Data == DataNullEmpty }

func PackageID(resid uint32) uint8 { return uint8(resid >> 24) }
func TypeID(resid uint32) uint8    { return uint8(resid >> 16) }
func EntryID(resid uint32) uint16  { return uint16(resid) }

func MakeResID(pkg, tp uint8, entry uint16) uint32 {
	return uint32(pkg)<<24 | uint32(tp)<<16 | uint32(entry)
}

// FixPackageID replaces the package byte of resid.
func FixPackageID(resid uint32, pkg uint8) uint32 {
	return resid&0x00ffffff | uint32(pkg)<<24
}

// IsValidResID reports whether resid has a non-zero package and type.
func IsValidResID(resid uint32) bool {
	return resid&0x00ff0000 != 0 && resid&0xff000000 != 0
}

// IsInternalResID reports whether resid is one of the Attr* bag keys.
func IsInternalResID(resid uint32) bool {
	return resid&0xffff0000 != 0 && resid&0x00ff0000 == 0
}

var typeNames = map[uint8]string{
	TypeNull:             "null",
	TypeReference:        "reference",
	TypeAttribute:        "attribute",
	TypeString:           "string",
	TypeFloat:            "float",
	TypeDimension:        "dimension",
	TypeFraction:         "fraction",
	TypeDynamicReference: "dynamic reference",
	TypeDynamicAttribute: "dynamic attribute",
	TypeIntDec:           "int",
	TypeIntHex:           "hex",
	TypeIntBoolean:       "boolean",
	TypeIntColorARGB8:    "color argb8",
	TypeIntColorRGB8:     "color rgb8",
	TypeIntColorARGB4:    "color argb4",
	TypeIntColorRGB4:     "color rgb4",
}

func TypeName(t uint8) string {
	if n, ok := typeNames[t]; ok {
		return n
	}
	return fmt.Sprintf("type 0x%02x", t)
}

var (
	dimensionUnits = []string{"px", "dp", "sp", "pt", "in", "mm"}
	fractionUnits  = []string{"%", "%p"}
	radixMults     = []float64{1.0 / (1 << 8), 1.0 / (1 << 15), 1.0 / (1 << 23), 1.0 / (1 << 31)}
)

func complexToFloat(c uint32) float64 {
	mantissa := float64(int32(c & 0xffffff00))
	return mantissa * radixMults[(c>>4)&3]
}

// Format renders v the way aapt dumps values. pool resolves string values
// and may be nil.
func (v Value) Format(pool *StringPool) string {
	switch v.Type {
	case TypeNull:
		if v.Data == DataNullEmpty {
			return "@empty"
		}
		return "@null"
	case TypeReference, TypeDynamicReference:
		return fmt.Sprintf("@0x%08x", v.Data)
	case TypeAttribute, TypeDynamicAttribute:
		return fmt.Sprintf("?0x%08x", v.Data)
	case TypeString:
		if pool != nil {
			if s, err := pool.StringAt(int(v.Data)); err == nil {
				return strconv.Quote(s)
			}
		}
		return fmt.Sprintf("(string) #%d", v.Data)
	case TypeFloat:
		return strconv.FormatFloat(float64(math.Float32frombits(v.Data)), 'g', -1, 32)
	case TypeDimension:
		unit := "?"
		if u := int(v.Data & 0xf); u < len(dimensionUnits) {
			unit = dimensionUnits[u]
		}
		return strconv.FormatFloat(complexToFloat(v.Data), 'g', -1, 32) + unit
	case TypeFraction:
		unit := "?"
		if u := int(v.Data & 0xf); u < len(fractionUnits) {
			unit = fractionUnits[u]
		}
		return strconv.FormatFloat(complexToFloat(v.Data)*100, 'g', -1, 32) + unit
	case TypeIntDec:
		return strconv.Itoa(int(int32(v.Data)))
	case TypeIntHex:
		return fmt.Sprintf("0x%x", v.Data)
	case TypeIntBoolean:
		return strconv.FormatBool(v.Data != 0)
	case TypeIntColorARGB8, TypeIntColorRGB8, TypeIntColorARGB4, TypeIntColorRGB4:
		return fmt.Sprintf("#%08x", v.Data)
	default:
		return fmt.Sprintf("(%s) 0x%08x", TypeName(v.Type), v.Data)
	}
}

func (v Value) String() string { return v.Format(nil) }
