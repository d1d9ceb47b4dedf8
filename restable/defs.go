package restable

import (
	"fmt"

	"github.com/lunixbochs/struc"
)

// References:
// https://android.googlesource.com/platform/frameworks/base/+/refs/heads/main/libs/androidfw/include/androidfw/ResourceTypes.h

const (
	RES_NULL_TYPE        = 0x0000
	RES_STRING_POOL_TYPE = 0x0001
	RES_TABLE_TYPE       = 0x0002
	RES_XML_TYPE         = 0x0003

	RES_TABLE_PACKAGE_TYPE            = 0x0200
	RES_TABLE_TYPE_TYPE               = 0x0201
	RES_TABLE_TYPE_SPEC_TYPE          = 0x0202
	RES_TABLE_LIBRARY_TYPE            = 0x0203
	RES_TABLE_OVERLAYABLE_TYPE        = 0x0204
	RES_TABLE_OVERLAYABLE_POLICY_TYPE = 0x0205
	RES_TABLE_STAGED_ALIAS_TYPE       = 0x0206

	// ResStringPool_header flags
	SORTED_FLAG = 1 << 0
	UTF8_FLAG   = 1 << 8

	// ResStringPool_span end marker
	SPAN_END = 0xFFFFFFFF

	// ResTable_typeSpec flags
	SPEC_PUBLIC     = 0x40000000
	SPEC_STAGED_API = 0x20000000

	// ResTable_type flags
	FLAG_SPARSE   = 0x01
	FLAG_OFFSET16 = 0x02

	NO_ENTRY = 0xFFFFFFFF

	// ResTable_entry flags
	FLAG_COMPLEX = 0x0001
	FLAG_PUBLIC  = 0x0002
	FLAG_WEAK    = 0x0004
	FLAG_COMPACT = 0x0008

	maxPackageNameLen = 128
)

// Sizes of on-disk structures.
const (
	chunkHeaderSize      = 8
	tableHeaderSize      = 12
	stringPoolHeaderSize = 28
	packageHeaderSize    = 288
	// headers written before typeIdOffset existed
	packageMinHeaderSize = packageHeaderSize - 4
	typeSpecHeaderSize   = 16
	typeHeaderFixedSize  = 20
	// type header without the config, but with the config's size field
	typeMinHeaderSize  = typeHeaderFixedSize + 4
	libHeaderSize      = 12
	libEntrySize       = 4 + 2*maxPackageNameLen
	entryHeaderSize    = 8
	mapEntryHeaderSize = 16
	valueSize          = 8
	mapSize            = 4 + valueSize
	sparseEntrySize    = 4
	configSize         = 64
)

type (
	res_chunk_header struct {
		// struct ResChunk_header {
		// 	uint16_t type;
		Type uint16
		// 	uint16_t headerSize;
		HeaderSize uint16
		// 	uint32_t size;
		Size uint32
		// };
	}

	res_table_header struct {
		// struct ResTable_header {
		// 	struct ResChunk_header header;
		Header res_chunk_header
		// 	uint32_t packageCount;
		PackageCount uint32
		// };
	}

	res_string_pool_header struct {
		// struct ResStringPool_header {
		// 	struct ResChunk_header header;
		Header res_chunk_header
		// 	uint32_t stringCount;
		StringCount uint32
		// 	uint32_t styleCount;
		StyleCount uint32
		// 	uint32_t flags;
		Flags uint32
		// 	uint32_t stringsStart;
		StringsStart uint32
		// 	uint32_t stylesStart;
		StylesStart uint32
		// };
	}

	res_table_package struct {
		// struct ResTable_package {
		// 	struct ResChunk_header header;
		Header res_chunk_header
		// 	uint32_t id;
		Id uint32
		// 	uint16_t name[128];
		Name [maxPackageNameLen]uint16
		// 	uint32_t typeStrings;
		TypeStrings uint32
		// 	uint32_t lastPublicType;
		LastPublicType uint32
		// 	uint32_t keyStrings;
		KeyStrings uint32
		// 	uint32_t lastPublicKey;
		LastPublicKey uint32
		// 	uint32_t typeIdOffset;
		TypeIdOffset uint32
		// };
	}

	res_table_type_spec struct {
		// struct ResTable_typeSpec {
		// 	struct ResChunk_header header;
		Header res_chunk_header
		// 	uint8_t id;
		Id uint8
		// 	uint8_t res0;
		Res0 uint8
		// 	uint16_t typesCount;
		TypesCount uint16
		// 	uint32_t entryCount;
		EntryCount uint32
		// };
	}

	res_table_type struct {
		// struct ResTable_type {
		// 	struct ResChunk_header header;
		Header res_chunk_header
		// 	uint8_t id;
		Id uint8
		// 	uint8_t flags;
		Flags uint8
		// 	uint16_t reserved;
		Reserved uint16
		// 	uint32_t entryCount;
		EntryCount uint32
		// 	uint32_t entriesStart;
		EntriesStart uint32
		// 	ResTable_config config;
		// };
	}

	res_table_lib_header struct {
		// struct ResTable_lib_header {
		// 	struct ResChunk_header header;
		Header res_chunk_header
		// 	uint32_t count;
		Count uint32
		// };
	}

	res_table_lib_entry struct {
		// struct ResTable_lib_entry {
		// 	uint32_t packageId;
		PackageId uint32
		// 	uint16_t packageName[128];
		PackageName [maxPackageNameLen]uint16
		// };
	}

	res_value struct {
		// struct Res_value {
		// 	uint16_t size;
		Size uint16
		// 	uint8_t res0;
		Res0 uint8
		// 	uint8_t dataType;
		DataType uint8
		// 	uint32_t data;
		Data uint32
		// };
	}

	res_table_entry struct {
		// struct ResTable_entry {
		// 	uint16_t size;
		Size uint16
		// 	uint16_t flags;
		Flags uint16
		// 	struct ResStringPool_ref key;
		Key uint32
		// };
	}

	res_table_map_entry struct {
		// struct ResTable_map_entry : public ResTable_entry {
		Size  uint16
		Flags uint16
		Key   uint32
		// 	ResTable_ref parent;
		Parent uint32
		// 	uint32_t count;
		Count uint32
		// };
	}

	res_table_map struct {
		// struct ResTable_map {
		// 	ResTable_ref name;
		Name uint32
		// 	Res_value value;
		Value res_value
		// };
	}

	// Config is a device configuration, laid out as ResTable_config. Zero
	// fields mean "any".
	Config struct {
		// struct ResTable_config {
		// 	uint32_t size;
		Size uint32
		// 	union { struct { uint16_t mcc; uint16_t mnc; }; uint32_t imsi; };
		Mcc uint16
		Mnc uint16
		// 	union { struct { char language[2]; char country[2]; }; uint32_t locale; };
		Language [2]byte
		Country  [2]byte
		// 	union { struct { uint8_t orientation; uint8_t touchscreen; uint16_t density; }; uint32_t screenType; };
		Orientation uint8
		Touchscreen uint8
		Density     uint16
		// 	union { struct { uint8_t keyboard; uint8_t navigation; uint8_t inputFlags; uint8_t grammaticalInflection; }; uint32_t input; };
		Keyboard              uint8
		Navigation            uint8
		InputFlags            uint8
		GrammaticalInflection uint8
		// 	union { struct { uint16_t screenWidth; uint16_t screenHeight; }; uint32_t screenSize; };
		ScreenWidth  uint16
		ScreenHeight uint16
		// 	union { struct { uint16_t sdkVersion; uint16_t minorVersion; }; uint32_t version; };
		SdkVersion   uint16
		MinorVersion uint16
		// 	union { struct { uint8_t screenLayout; uint8_t uiMode; uint16_t smallestScreenWidthDp; }; uint32_t screenConfig; };
		ScreenLayout          uint8
		UiMode                uint8
		SmallestScreenWidthDp uint16
		// 	union { struct { uint16_t screenWidthDp; uint16_t screenHeightDp; }; uint32_t screenSizeDp; };
		ScreenWidthDp  uint16
		ScreenHeightDp uint16
		// 	char localeScript[4];
		LocaleScript [4]byte
		// 	char localeVariant[8];
		LocaleVariant [8]byte
		// 	union { struct { uint8_t screenLayout2; uint8_t colorMode; uint16_t screenConfigPad2; }; uint32_t screenConfig2; };
		ScreenLayout2    uint8
		ColorMode        uint8
		ScreenConfigPad2 uint16
		// 	bool localeScriptWasComputed;
		LocaleScriptWasComputed bool
		// 	char localeNumberingSystem[8];
		LocaleNumberingSystem [8]byte
		// 	padding to 64
		Pad [3]byte
		// };
	}

	idmap_header struct {
		// struct Idmap_header {
		// 	uint32_t magic;
		Magic uint32
		// 	uint32_t version;
		Version uint32
		// 	uint16_t target_package_id;
		TargetPackageId uint16
		// 	uint16_t type_count;
		TypeCount uint16
		// 	uint8_t overlay_path[256];
		OverlayPath [idmapPathLen]byte
		// };
	}

	idmap_entry_header struct {
		// struct IdmapEntry_header {
		// 	uint16_t target_type_id;
		TargetTypeId uint16
		// 	uint16_t overlay_type_id;
		OverlayTypeId uint16
		// 	uint16_t entry_id_offset;
		EntryIdOffset uint16
		// 	uint16_t entry_count;
		EntryCount uint16
		// 	uint32_t entries[0];
		// };
	}
)

func init() {
	checkSize := func(v any, expected int) {
		if s, err := struc.Sizeof(v); err != nil {
			panic(err)
		} else if s != expected {
			panic(fmt.Sprintf("size of %T should be %d but is %d", v, expected, s))
		}
	}

	checkSize(&res_chunk_header{}, chunkHeaderSize)
	checkSize(&res_table_header{}, tableHeaderSize)
	checkSize(&res_string_pool_header{}, stringPoolHeaderSize)
	checkSize(&res_table_package{}, packageHeaderSize)
	checkSize(&res_table_type_spec{}, typeSpecHeaderSize)
	checkSize(&res_table_type{}, typeHeaderFixedSize)
	checkSize(&res_table_lib_header{}, libHeaderSize)
	checkSize(&res_table_lib_entry{}, libEntrySize)
	checkSize(&res_value{}, valueSize)
	checkSize(&res_table_entry{}, entryHeaderSize)
	checkSize(&res_table_map_entry{}, mapEntryHeaderSize)
	checkSize(&res_table_map{}, mapSize)
	checkSize(&Config{}, configSize)
	checkSize(&idmap_header{}, idmapHeaderSize)
	checkSize(&idmap_entry_header{}, idmapEntryHeaderSize)
}
