package assets

import (
	"fmt"

	"github.com/dnr/restable/common"
	"github.com/dnr/restable/restable"
)

type themeEntry struct {
	cookie Cookie
	flags  uint32
	value  restable.Value
}

// themeType is indexed by entry id.
type themeType []themeEntry

// themePackage is indexed by type id. Slot 0 is never used.
type themePackage [256]themeType

// Theme is a mutable set of attribute values built by applying styles. A
// theme belongs to the AssetManager that created it and is not safe for
// concurrent use.
type Theme struct {
	am       *AssetManager
	flags    uint32
	packages [256]*themePackage
}

func (t *Theme) AssetManager() *AssetManager { return t.am }

// ChangingConfigurations returns the configuration axes any applied style
// varies on.
func (t *Theme) ChangingConfigurations() uint32 { return t.flags }

// ApplyStyle copies the attributes of style resid into the theme. Existing
// values are kept unless force is set; an explicit @empty also blocks
// unforced writes.
func (t *Theme) ApplyStyle(resid uint32, force bool) error {
	bag, err := t.am.GetBag(resid)
	if err != nil {
		return err
	}
	t.flags |= bag.TypeSpecFlags

	// Walk backwards so each type grows at most once: the highest entry id
	// of each type is seen first.
	lastPkg, lastType := -1, -1
	var pkg *themePackage
	var tt *themeType
	for i := len(bag.Entries) - 1; i >= 0; i-- {
		be := &bag.Entries[i]
		if !restable.IsValidResID(be.Key) {
			return fmt.Errorf("%w: attribute %#08x in style %#08x", ErrInvalidID, be.Key, resid)
		}
		p, ty, e := int(restable.PackageID(be.Key)), int(restable.TypeID(be.Key)), int(restable.EntryID(be.Key))
		if p != lastPkg {
			if t.packages[p] == nil {
				t.packages[p] = new(themePackage)
			}
			pkg, lastPkg, lastType = t.packages[p], p, -1
		}
		if ty != lastType {
			tt, lastType = &pkg[ty], ty
		}
		if e >= len(*tt) {
			grown := make(themeType, e+1)
			copy(grown, *tt)
			*tt = grown
		}
		slot := &(*tt)[e]
		if force || (slot.value.Type == restable.TypeNull && slot.value.Data != restable.DataNullEmpty) {
			slot.cookie = be.Cookie
			slot.flags |= bag.TypeSpecFlags
			slot.value = be.Value
		}
	}
	return nil
}

func (t *Theme) entry(resid uint32) *themeEntry {
	pkg := t.packages[restable.PackageID(resid)]
	if pkg == nil {
		return nil
	}
	tt := pkg[restable.TypeID(resid)]
	e := int(restable.EntryID(resid))
	if e >= len(tt) {
		return nil
	}
	return &tt[e]
}

// GetAttribute returns the theme's value for attribute resid, following
// attribute indirections.
func (t *Theme) GetAttribute(resid uint32) (ResolvedValue, error) {
	var flags uint32
	for i := 0; ; i++ {
		te := t.entry(resid)
		if te == nil {
			return ResolvedValue{Cookie: InvalidCookie}, common.NotFound("attribute %#08x not in theme", resid)
		}
		flags |= te.flags
		v := te.value
		if v.Type == restable.TypeDynamicAttribute {
			dr := t.am.GetDynamicRefTableForCookie(te.cookie)
			if dr == nil {
				return ResolvedValue{Cookie: InvalidCookie}, fmt.Errorf("%w: no table for cookie %d", ErrDynamicRef, te.cookie)
			}
			var err error
			if v, err = dr.LookupResourceValue(v); err != nil {
				return ResolvedValue{Cookie: InvalidCookie}, fmt.Errorf("attribute %#08x: %w", resid, err)
			}
		}
		if v.Type == restable.TypeAttribute {
			if i == maxIterations {
				return ResolvedValue{Cookie: InvalidCookie}, fmt.Errorf("%w: attribute %#08x", ErrChainTooLong, resid)
			}
			resid = v.Data
			continue
		}
		if v.IsNull() {
			return ResolvedValue{Cookie: InvalidCookie}, common.NotFound("attribute %#08x is @null", resid)
		}
		return ResolvedValue{Value: v, Cookie: te.cookie, Flags: flags}, nil
	}
}

// ResolveAttributeReference resolves an attribute through the theme, then
// follows any references through the asset manager.
func (t *Theme) ResolveAttributeReference(v ResolvedValue) (ResolvedValue, error) {
	if v.Type == restable.TypeAttribute {
		av, err := t.GetAttribute(v.Data)
		if err != nil {
			return v, err
		}
		av.Flags |= v.Flags
		v = av
	}
	return t.am.ResolveReference(v)
}

// Clear removes every attribute.
func (t *Theme) Clear() {
	t.flags = 0
	clear(t.packages[:])
}

// SetTo makes t a copy of o. Themes of different asset managers only share
// the framework package, since other package ids are assigned per manager.
func (t *Theme) SetTo(o *Theme) {
	if t == o {
		return
	}
	t.flags = o.flags
	onlySystem := t.am != o.am
	for p := range t.packages {
		op := o.packages[p]
		if op == nil || (onlySystem && p != restable.SysPackageID) {
			t.packages[p] = nil
			continue
		}
		np := new(themePackage)
		for ty, tt := range op {
			if tt != nil {
				np[ty] = append(themeType(nil), tt...)
			}
		}
		t.packages[p] = np
	}
}

// Rebase clears the theme and reapplies styles, with force[i] used for
// styles[i]. Use after the manager's apk set changes.
func (t *Theme) Rebase(styles []uint32, force []bool) error {
	if len(styles) != len(force) {
		return fmt.Errorf("rebase: %d styles but %d force flags", len(styles), len(force))
	}
	t.Clear()
	for i, s := range styles {
		if err := t.ApplyStyle(s, force[i]); err != nil {
			return err
		}
	}
	return nil
}
