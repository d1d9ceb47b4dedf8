package assets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dnr/restable/common"
	"github.com/dnr/restable/restable"
)

func TestFindEntryByConfiguration(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "en-rUS", false)

	v, err := am.GetResource(appHello, false, 0)
	r.NoError(err)
	r.Equal("Hello", stringOf(t, am, v))
	r.EqualValues(cookieApp, v.Cookie)
	r.EqualValues(restable.ConfigLocale, v.Flags&restable.ConfigLocale)

	am.SetConfiguration(cfg(t, "fr-rFR"))
	v, err = am.GetResource(appHello, false, 0)
	r.NoError(err)
	r.Equal("Bonjour", stringOf(t, am, v))
	r.Equal("fr", v.Config.String())

	res, err := am.FindEntry(appHello, 0)
	r.NoError(err)
	r.Equal("string", res.TypeString.String())
	r.Equal("hello", res.EntryString.String())
	r.Same(am.GetDynamicRefTableForPackage(restable.AppPackageID), res.DynamicRefTable)
}

func TestFindEntryInvalid(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)

	_, err := am.FindEntry(0x7f000001, 0)
	r.True(errors.Is(err, ErrInvalidID))
	_, err = am.FindEntry(0, 0)
	r.True(errors.Is(err, ErrInvalidID))

	_, err = am.FindEntry(0x05010000, 0)
	r.True(common.IsNotFound(err))
	_, err = am.FindEntry(0x7f090000, 0)
	r.True(common.IsNotFound(err))
	_, err = am.FindEntry(0x7f02ff00, 0)
	r.True(common.IsNotFound(err))
}

func TestFindEntryDensityOverride(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "xhdpi", false)

	v, err := am.GetResource(appSize, false, 0)
	r.NoError(err)
	r.EqualValues(2, v.Data)
	r.NotZero(v.Flags & restable.ConfigDensity)

	v, err = am.GetResource(appSize, false, restable.DensityHigh)
	r.NoError(err)
	r.EqualValues(1, v.Data)
	r.EqualValues(restable.DensityHigh, v.Config.Density)

	// overriding with the current density takes the normal path
	v, err = am.GetResource(appSize, false, restable.DensityXHigh)
	r.NoError(err)
	r.EqualValues(2, v.Data)

	flags, err := am.GetResourceFlags(appSize)
	r.NoError(err)
	r.EqualValues(restable.ConfigDensity, flags)
}

func TestOverlayWinsTies(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "de", true)

	v, err := am.GetResource(appHello, false, 0)
	r.NoError(err)
	r.Equal("Howdy", stringOf(t, am, v))
	r.EqualValues(cookieOverlay, v.Cookie)

	// a strictly better app config still beats the overlay's default
	am.SetConfiguration(cfg(t, "fr"))
	v, err = am.GetResource(appHello, false, 0)
	r.NoError(err)
	r.Equal("Bonjour", stringOf(t, am, v))
	r.EqualValues(cookieApp, v.Cookie)

	// unmapped entries come from the target
	v, err = am.GetResource(appAlias, false, 0)
	r.NoError(err)
	r.Equal(ref(appHello), v.Value)
	r.EqualValues(cookieApp, v.Cookie)

	// density override uses the slow path with the same tie rule
	am.SetConfiguration(cfg(t, "de"))
	v, err = am.GetResource(appHello, false, restable.DensityHigh)
	r.NoError(err)
	r.Equal("Howdy", stringOf(t, am, v))
}

func TestGetResourceBag(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)

	_, err := am.GetResource(appTheme, false, 0)
	r.True(errors.Is(err, ErrNotBag))

	v, err := am.GetResource(appTheme, true, 0)
	r.NoError(err)
	r.Equal(ref(appTheme), v.Value)

	// a bag reference resolves to itself
	v, err = am.ResolveReference(v)
	r.NoError(err)
	r.Equal(ref(appTheme), v.Value)
}

func TestResolveReference(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)

	v, err := am.GetResource(appAlias, false, 0)
	r.NoError(err)
	v, err = am.ResolveReference(v)
	r.NoError(err)
	r.Equal("Hello", stringOf(t, am, v))
	r.EqualValues(appHello, v.Reference)
	r.NotZero(v.Flags & restable.ConfigLocale)

	// self reference is left as is
	v, err = am.ResolveReference(ResolvedValue{Value: ref(appSelf)})
	r.NoError(err)
	r.Equal(ref(appSelf), v.Value)

	// cycles stop at the bound
	_, err = am.ResolveReference(ResolvedValue{Value: ref(appLoopA)})
	r.True(errors.Is(err, ErrChainTooLong))

	// a long chain fails, a slightly shorter one resolves
	_, err = am.ResolveReference(ResolvedValue{Value: ref(appChainStart)})
	r.True(errors.Is(err, ErrChainTooLong))
	v, err = am.ResolveReference(ResolvedValue{Value: ref(appChainStart + 2)})
	r.NoError(err)
	r.Equal(intv(99), v.Value)

	// a failing hop reports the last value reached
	v, err = am.ResolveReference(ResolvedValue{Value: ref(appDangling)})
	r.Error(err)
	r.True(common.IsNotFound(err))
	r.Equal(ref(0x7f02ffff), v.Value)
	r.EqualValues(appDangling, v.Reference)

	// non-references pass through
	v, err = am.ResolveReference(ResolvedValue{Value: intv(3)})
	r.NoError(err)
	r.Equal(intv(3), v.Value)
}

func TestDynamicPackages(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)

	lib := am.ApkAssets()[cookieLib].Table().Packages()[0]
	r.True(lib.IsDynamic())
	r.EqualValues(libRuntimeID, am.GetAssignedPackageID(lib))
	other := am.ApkAssets()[cookieOther].Table().Packages()[0]
	r.EqualValues(0x02, am.GetAssignedPackageID(other))
	r.Zero(am.GetAssignedPackageID(&restable.LoadedPackage{}))

	r.EqualValues(libRuntimeID, am.GetDynamicRefTableForPackage(libRuntimeID).AssignedPackageID())
	r.Same(am.GetDynamicRefTableForPackage(libRuntimeID), am.GetDynamicRefTableForCookie(cookieLib))
	r.Nil(am.GetDynamicRefTableForPackage(0x20))
	r.Nil(am.GetDynamicRefTableForCookie(17))

	// the app's build-time id for the library is translated
	v, err := am.GetResource(appLibRef, false, 0)
	r.NoError(err)
	r.Equal(ref(restable.MakeResID(libRuntimeID, 3, 0)), v.Value)
	v, err = am.ResolveReference(v)
	r.NoError(err)
	r.Equal(intv(42), v.Value)
	r.EqualValues(cookieLib, v.Cookie)

	// keys and values inside library bags use the runtime id
	bag, err := am.GetBag(restable.FixPackageID(libStyle, libRuntimeID))
	r.NoError(err)
	r.Len(bag.Entries, 1)
	r.EqualValues(restable.FixPackageID(libAttr, libRuntimeID), bag.Entries[0].Key)
	r.Equal(ref(restable.FixPackageID(libAnswer, libRuntimeID)), bag.Entries[0].Value)
}

func TestDynamicRefFailure(t *testing.T) {
	r := require.New(t)
	// without the library loaded, the app's reference cannot be mapped
	am := New(Options{})
	am.SetApkAssets([]*ApkAssets{mustLoad(t, "app.arsc", buildApp(t), restable.LoadOptions{})})

	_, err := am.GetResource(appLibRef, false, 0)
	r.True(errors.Is(err, ErrDynamicRef))

	// other resources are unaffected
	_, err = am.GetResource(appHello, false, 0)
	r.NoError(err)
}

func TestResourceNames(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)

	n, err := am.GetResourceName(appHello)
	r.NoError(err)
	r.Equal("com.example.app:string/hello", n.String())

	id, err := am.GetResourceID("@com.example.app:string/hello", "", "")
	r.NoError(err)
	r.EqualValues(appHello, id)
	id, err = am.GetResourceID("accent", "attr", "com.example.app")
	r.NoError(err)
	r.EqualValues(appAccent, id)
	id, err = am.GetResourceID("com.example.lib:integer/answer", "", "")
	r.NoError(err)
	r.EqualValues(restable.FixPackageID(libAnswer, libRuntimeID), id)

	_, err = am.GetResourceID("string/nope", "", "com.example.app")
	r.True(common.IsNotFound(err))
	_, err = am.GetResourceID("nothing", "", "")
	r.Error(err)

	pn, err := ParseResourceName("style/Base", "", "android")
	r.NoError(err)
	r.Equal(ResourceName{Package: "android", Type: "style", Entry: "Base"}, pn)
}

func TestConfigurationsAndLocales(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)

	var names []string
	for _, c := range am.GetResourceConfigurations(true, false) {
		names = append(names, c.String())
	}
	r.ElementsMatch([]string{"", "fr", "night", "hdpi", "xhdpi"}, names)
	r.Len(am.GetResourceConfigurations(false, false), 5)

	r.Equal([]string{"fr"}, am.GetResourceLocales(true, false))
}

func TestSetApkAssetsClearsCache(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)
	_, err := am.GetBag(appChild)
	r.NoError(err)
	r.Equal(3, am.BagCacheLen())

	am.SetApkAssets(am.ApkAssets())
	r.Zero(am.BagCacheLen())
}
