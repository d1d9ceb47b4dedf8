package assets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dnr/restable/common"
	"github.com/dnr/restable/restable"
)

func TestThemeApplyStyle(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)
	th := am.NewTheme()
	r.Same(am, th.AssetManager())

	r.NoError(th.ApplyStyle(appTheme, false))
	r.EqualValues(restable.ConfigUIMode, th.ChangingConfigurations())

	v, err := th.GetAttribute(appAccent)
	r.NoError(err)
	r.Equal(color(0x00ff00), v.Value)
	r.EqualValues(cookieApp, v.Cookie)
	r.EqualValues(restable.ConfigUIMode, v.Flags)

	v, err = th.GetAttribute(fwTextSize)
	r.NoError(err)
	r.EqualValues(restable.TypeDimension, v.Type)
	r.EqualValues(cookieFw, v.Cookie)

	// attribute indirection
	v, err = th.GetAttribute(appAccentRef)
	r.NoError(err)
	r.Equal(color(0x00ff00), v.Value)

	// existing values win without force
	r.NoError(th.ApplyStyle(appChild, false))
	v, err = th.GetAttribute(appAccent)
	r.NoError(err)
	r.Equal(color(0x00ff00), v.Value)

	r.NoError(th.ApplyStyle(appChild, true))
	v, err = th.GetAttribute(appAccent)
	r.NoError(err)
	r.Equal(color(0x0000ff), v.Value)

	_, err = th.GetAttribute(0x7f01ffff)
	r.True(common.IsNotFound(err))
	_, err = th.GetAttribute(0x05010000)
	r.True(common.IsNotFound(err))
}

func TestThemeResolveAttributeReference(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)
	th := am.NewTheme()
	r.NoError(th.ApplyStyle(appTheme, false))

	v, err := th.ResolveAttributeReference(ResolvedValue{Value: attr(fwTextColor)})
	r.NoError(err)
	r.Equal(color(0xff0000), v.Value)
	r.EqualValues(appPrimary, v.Reference)

	am.SetConfiguration(cfg(t, "night"))
	v, err = th.ResolveAttributeReference(ResolvedValue{Value: attr(fwTextColor)})
	r.NoError(err)
	r.Equal(color(0x880000), v.Value)
	r.NotZero(v.Flags & restable.ConfigUIMode)

	// plain references skip the theme
	v, err = th.ResolveAttributeReference(ResolvedValue{Value: ref(appAlias)})
	r.NoError(err)
	r.EqualValues(restable.TypeString, v.Type)

	_, err = th.ResolveAttributeReference(ResolvedValue{Value: attr(0x7f01ffff)})
	r.True(common.IsNotFound(err))
}

func TestThemeEmptyAndNull(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)

	th := am.NewTheme()
	r.NoError(th.ApplyStyle(appEmptyStyle, false))
	r.NoError(th.ApplyStyle(appTheme, false))
	v, err := th.GetAttribute(appAccent)
	r.NoError(err)
	r.True(v.IsEmpty())
	r.NoError(th.ApplyStyle(appTheme, true))
	v, err = th.GetAttribute(appAccent)
	r.NoError(err)
	r.Equal(color(0x00ff00), v.Value)

	th = am.NewTheme()
	r.NoError(th.ApplyStyle(appNullStyle, false))
	_, err = th.GetAttribute(appAccent)
	r.True(common.IsNotFound(err))
	r.NoError(th.ApplyStyle(appTheme, false))
	v, err = th.GetAttribute(appAccent)
	r.NoError(err)
	r.Equal(color(0x00ff00), v.Value)
}

func TestThemeFailures(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)
	th := am.NewTheme()

	r.NoError(th.ApplyStyle(appIndirect, false))
	_, err := th.GetAttribute(appAccent)
	r.True(errors.Is(err, ErrChainTooLong))

	r.True(errors.Is(th.ApplyStyle(appPlurals, false), ErrInvalidID))
	r.True(errors.Is(th.ApplyStyle(appHello, false), ErrNotBag))
	r.True(common.IsNotFound(th.ApplyStyle(appOrphan, false)))
}

func TestThemeDynamicLibrary(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)
	th := am.NewTheme()

	r.NoError(th.ApplyStyle(restable.FixPackageID(libStyle, libRuntimeID), false))
	v, err := th.ResolveAttributeReference(ResolvedValue{Value: attr(restable.FixPackageID(libAttr, libRuntimeID))})
	r.NoError(err)
	r.Equal(intv(42), v.Value)
	r.EqualValues(cookieLib, v.Cookie)
}

func TestThemeClearSetToRebase(t *testing.T) {
	r := require.New(t)
	am := newManager(t, "", false)
	th := am.NewTheme()
	r.NoError(th.ApplyStyle(appTheme, false))

	cp := am.NewTheme()
	cp.SetTo(th)
	r.EqualValues(th.ChangingConfigurations(), cp.ChangingConfigurations())
	// deep copy: later changes to th do not show in cp
	r.NoError(th.ApplyStyle(appChild, true))
	v, err := cp.GetAttribute(appAccent)
	r.NoError(err)
	r.Equal(color(0x00ff00), v.Value)
	cp.SetTo(cp)

	// across managers only the framework package is copied
	other := newManager(t, "", false).NewTheme()
	other.SetTo(th)
	_, err = other.GetAttribute(fwTextSize)
	r.NoError(err)
	_, err = other.GetAttribute(appAccent)
	r.True(common.IsNotFound(err))

	th.Clear()
	r.Zero(th.ChangingConfigurations())
	_, err = th.GetAttribute(fwTextSize)
	r.True(common.IsNotFound(err))

	r.NoError(th.Rebase([]uint32{appTheme, appChild}, []bool{false, true}))
	v, err = th.GetAttribute(appAccent)
	r.NoError(err)
	r.Equal(color(0x0000ff), v.Value)
	r.Error(th.Rebase([]uint32{appTheme}, nil))
}
