package assets

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dnr/restable/restable"
)

const (
	fwTextColor = 0x01010000
	fwTextSize  = 0x01010001
	fwTheme     = 0x01020000

	appAccent     = 0x7f010000
	appAccentRef  = 0x7f010001
	appHello      = 0x7f020000
	appAlias      = 0x7f020001
	appLoopA      = 0x7f020002
	appLoopB      = 0x7f020003
	appSelf       = 0x7f020004
	appDangling   = 0x7f020005
	appChainStart = 0x7f02000a
	appChainLen   = 21
	appPrimary    = 0x7f030000
	appTheme      = 0x7f040000
	appChild      = 0x7f040001
	appCycleA     = 0x7f040002
	appCycleB     = 0x7f040003
	appEmptyStyle = 0x7f040004
	appNullStyle  = 0x7f040005
	appOrphan     = 0x7f040006
	appIndirect   = 0x7f040007
	appPlurals    = 0x7f040008
	appSize       = 0x7f050000
	appLibRef     = 0x7f060000

	// build-time id of com.example.lib as seen by the app
	appLibBuildID = 0x02
	// runtime id of com.example.lib when loaded after com.example.other
	libRuntimeID = 0x03

	libAttr   = 0x00010000
	libStyle  = 0x00020000
	libAnswer = 0x00030000

	cookieFw, cookieOther, cookieLib, cookieApp, cookieOverlay = 0, 1, 2, 3, 4
)

func cfg(t testing.TB, s string) restable.Config {
	c, err := restable.ParseConfig(s)
	require.NoError(t, err)
	return c
}

func build(t testing.TB, b *restable.TableBuilder) []byte {
	data, err := b.Build()
	require.NoError(t, err)
	return data
}

func buildFramework(t testing.TB) []byte {
	b := restable.NewTableBuilder()
	p := b.AddPackage(restable.SysPackageID, "android")
	p.AddType(1, "attr")
	p.AddType(2, "style")
	p.AddValue(1, 0, "textColor", restable.Config{}, restable.Value{Type: restable.TypeIntDec})
	p.AddValue(1, 1, "textSize", restable.Config{}, restable.Value{Type: restable.TypeIntDec})
	p.AddBag(2, 0, "Theme", restable.Config{}, 0, []restable.MapEntry{
		{Name: fwTextColor, Value: restable.Value{Type: restable.TypeIntColorARGB8, Data: 0xff000000}},
		{Name: fwTextSize, Value: restable.Value{Type: restable.TypeDimension, Data: 0xc01}},
	})
	return build(t, b)
}

func buildOther(t testing.TB) []byte {
	b := restable.NewTableBuilder()
	p := b.AddPackage(0, "com.example.other")
	p.AddType(1, "integer")
	p.AddValue(1, 0, "x", restable.Config{}, restable.Value{Type: restable.TypeIntDec, Data: 7})
	return build(t, b)
}

func buildLib(t testing.TB) []byte {
	b := restable.NewTableBuilder()
	p := b.AddPackage(0, "com.example.lib")
	p.AddType(1, "attr")
	p.AddType(2, "style")
	p.AddType(3, "integer")
	p.AddValue(1, 0, "libAttr", restable.Config{}, restable.Value{Type: restable.TypeIntDec})
	p.AddBag(2, 0, "LibStyle", restable.Config{}, 0, []restable.MapEntry{
		{Name: libAttr, Value: restable.Value{Type: restable.TypeDynamicReference, Data: libAnswer}},
	})
	p.AddValue(3, 0, "answer", restable.Config{}, restable.Value{Type: restable.TypeIntDec, Data: 42})
	return build(t, b)
}

func ref(id uint32) restable.Value  { return restable.Value{Type: restable.TypeReference, Data: id} }
func attr(id uint32) restable.Value { return restable.Value{Type: restable.TypeAttribute, Data: id} }
func color(c uint32) restable.Value { return restable.Value{Type: restable.TypeIntColorRGB8, Data: c} }
func intv(i uint32) restable.Value  { return restable.Value{Type: restable.TypeIntDec, Data: i} }

func buildApp(t testing.TB) []byte {
	b := restable.NewTableBuilder()
	p := b.AddPackage(restable.AppPackageID, "com.example.app")
	p.AddLibrary(appLibBuildID, "com.example.lib")
	for i, name := range []string{"attr", "string", "color", "style", "dimen", "integer"} {
		p.AddType(uint8(i+1), name)
	}
	def := restable.Config{}

	p.AddValue(1, 0, "accent", def, intv(0))
	p.AddValue(1, 1, "accentRef", def, intv(0))

	p.AddValue(2, 0, "hello", def, b.StringValue("Hello"))
	p.AddValue(2, 0, "hello", cfg(t, "fr"), b.StringValue("Bonjour"))
	p.SetSpecFlags(2, 0, restable.ConfigLocale)
	p.AddValue(2, 1, "alias", def, ref(appHello))
	p.AddValue(2, 2, "loopA", def, ref(appLoopB))
	p.AddValue(2, 3, "loopB", def, ref(appLoopA))
	p.AddValue(2, 4, "self", def, ref(appSelf))
	p.AddValue(2, 5, "dangling", def, ref(0x7f02ffff))
	for i := uint16(0); i < appChainLen; i++ {
		id := uint16(restable.EntryID(appChainStart)) + i
		p.AddValue(2, id, "chain"+string(rune('a'+i)), def, ref(restable.MakeResID(0x7f, 2, id+1)))
	}
	last := uint16(restable.EntryID(appChainStart)) + appChainLen
	p.AddValue(2, last, "chainEnd", def, intv(99))

	p.AddValue(3, 0, "primary", def, color(0xff0000))
	p.AddValue(3, 0, "primary", cfg(t, "night"), color(0x880000))
	p.SetSpecFlags(3, 0, restable.ConfigUIMode)

	p.AddBag(4, 0, "AppTheme", def, fwTheme, []restable.MapEntry{
		{Name: fwTextColor, Value: ref(appPrimary)},
		{Name: appAccent, Value: color(0x00ff00)},
		{Name: appAccentRef, Value: attr(appAccent)},
	})
	p.SetSpecFlags(4, 0, restable.ConfigUIMode)
	p.AddBag(4, 1, "Child", def, appTheme, []restable.MapEntry{
		{Name: appAccent, Value: color(0x0000ff)},
	})
	p.AddBag(4, 2, "CycleA", def, appCycleB, []restable.MapEntry{
		{Name: appAccent, Value: color(0xa)},
	})
	p.AddBag(4, 3, "CycleB", def, appCycleA, []restable.MapEntry{
		{Name: appAccent, Value: color(0xb)},
		{Name: appAccentRef, Value: color(0xb)},
	})
	p.AddBag(4, 4, "Empty", def, 0, []restable.MapEntry{
		{Name: appAccent, Value: restable.Value{Type: restable.TypeNull, Data: restable.DataNullEmpty}},
	})
	p.AddBag(4, 5, "Null", def, 0, []restable.MapEntry{
		{Name: appAccent, Value: restable.Value{Type: restable.TypeNull, Data: restable.DataNullUndefined}},
	})
	p.AddBag(4, 6, "Orphan", def, 0x7f04ffff, []restable.MapEntry{
		{Name: appAccent, Value: color(1)},
	})
	// accentRef points at itself through the theme
	p.AddBag(4, 7, "Indirect", def, 0, []restable.MapEntry{
		{Name: appAccent, Value: attr(appAccentRef)},
		{Name: appAccentRef, Value: attr(appAccent)},
	})
	p.AddBag(4, 8, "Plurals", def, 0, []restable.MapEntry{
		{Name: restable.AttrType, Value: intv(4)},
		{Name: restable.AttrOne, Value: b.StringValue("one")},
	})

	p.AddValue(5, 0, "size", def, intv(0))
	p.AddValue(5, 0, "size", cfg(t, "hdpi"), intv(1))
	p.AddValue(5, 0, "size", cfg(t, "xhdpi"), intv(2))
	p.SetSpecFlags(5, 0, restable.ConfigDensity)

	p.AddValue(6, 0, "libref", def, restable.Value{
		Type: restable.TypeDynamicReference,
		Data: restable.MakeResID(appLibBuildID, 3, 0),
	})
	return build(t, b)
}

func buildOverlay(t testing.TB) []byte {
	b := restable.NewTableBuilder()
	p := b.AddPackage(restable.AppPackageID, "com.example.overlay")
	p.AddType(1, "string")
	p.AddValue(1, 0, "greeting", restable.Config{}, b.StringValue("Howdy"))
	return build(t, b)
}

func buildOverlayIdmap(t testing.TB, overlayPath string) []byte {
	ib := &restable.IdmapBuilder{TargetPackageID: restable.AppPackageID, OverlayPath: overlayPath}
	// target string/hello is overlay entry 0; alias is left alone
	ib.Map(2, 1, 0, 0, restable.NoOverlayEntry)
	data, err := ib.Build()
	require.NoError(t, err)
	return data
}

func loadOverlay(t testing.TB) *ApkAssets {
	im, err := restable.LoadIdmap(buildOverlayIdmap(t, "overlay.arsc"), nil)
	require.NoError(t, err)
	a, err := LoadTable("overlay.arsc", buildOverlay(t), restable.LoadOptions{Idmap: im})
	require.NoError(t, err)
	return a
}

func mustLoad(t testing.TB, name string, data []byte, opts restable.LoadOptions) *ApkAssets {
	a, err := LoadTable(name, data, opts)
	require.NoError(t, err)
	return a
}

// newManager loads framework, other, lib and app, plus the overlay when
// withOverlay is set, and applies config.
func newManager(t testing.TB, config string, withOverlay bool) *AssetManager {
	list := []*ApkAssets{
		mustLoad(t, "framework.arsc", buildFramework(t), restable.LoadOptions{System: true}),
		mustLoad(t, "other.arsc", buildOther(t), restable.LoadOptions{}),
		mustLoad(t, "lib.arsc", buildLib(t), restable.LoadOptions{}),
		mustLoad(t, "app.arsc", buildApp(t), restable.LoadOptions{}),
	}
	if withOverlay {
		list = append(list, loadOverlay(t))
	}
	am := New(Options{Logger: zaptest.NewLogger(t)})
	am.SetApkAssets(list)
	am.SetConfiguration(cfg(t, config))
	return am
}

func stringOf(t testing.TB, am *AssetManager, v ResolvedValue) string {
	require.EqualValues(t, restable.TypeString, v.Type)
	require.GreaterOrEqual(t, int(v.Cookie), 0)
	s, err := am.ApkAssets()[v.Cookie].Table().StringPool().StringAt(int(v.Data))
	require.NoError(t, err)
	return s
}
