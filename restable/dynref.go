package restable

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// ErrDynamicRef is wrapped when a reference's package has no runtime mapping.
var ErrDynamicRef = errors.New("unresolved dynamic reference")

// DynamicPackageEntry is one entry of a RES_TABLE_LIBRARY chunk.
type DynamicPackageEntry struct {
	Name string
	ID   uint8
}

// DynamicRefTable translates build-time package ids into runtime ids.
type DynamicRefTable struct {
	assignedID uint8
	appAsLib   bool
	entries    map[string]uint8 // package name -> build time id
	lookup     [256]uint8       // build time id -> runtime id, 0 means unmapped
}

func NewDynamicRefTable(assignedID uint8, appAsLib bool) *DynamicRefTable {
	t := &DynamicRefTable{
		assignedID: assignedID,
		appAsLib:   appAsLib,
		entries:    make(map[string]uint8),
	}
	// the framework and the app itself never move
	t.lookup[SysPackageID] = SysPackageID
	t.lookup[AppPackageID] = AppPackageID
	return t
}

func (t *DynamicRefTable) AssignedPackageID() uint8 { return t.assignedID }
func (t *DynamicRefTable) AppAsLib() bool           { return t.appAsLib }

// Entries returns the library name map.
func (t *DynamicRefTable) Entries() map[string]uint8 { return maps.Clone(t.entries) }

// Names returns the library names in sorted order.
func (t *DynamicRefTable) Names() []string {
	names := maps.Keys(t.entries)
	slices.Sort(names)
	return names
}

// AddEntry records that name had build time id buildID.
func (t *DynamicRefTable) AddEntry(name string, buildID uint8) {
	t.entries[name] = buildID
}

// AddMappings copies library entries and mappings from other, keeping ours on
// conflict.
func (t *DynamicRefTable) AddMappings(other *DynamicRefTable) error {
	for name, id := range other.entries {
		if cur, ok := t.entries[name]; ok {
			if cur != id {
				return fmt.Errorf("library %q has conflicting build ids %#x and %#x", name, cur, id)
			}
			continue
		}
		t.entries[name] = id
	}
	for i, v := range other.lookup {
		if v != 0 && t.lookup[i] == 0 {
			t.lookup[i] = v
		}
	}
	return nil
}

// AddMapping sets the runtime id for the library called name.
func (t *DynamicRefTable) AddMapping(name string, runtimeID uint8) error {
	buildID, ok := t.entries[name]
	if !ok {
		return fmt.Errorf("%w: no library named %q", ErrDynamicRef, name)
	}
	t.lookup[buildID] = runtimeID
	return nil
}

// AddMappingByID maps a build time id directly.
func (t *DynamicRefTable) AddMappingByID(buildID, runtimeID uint8) {
	t.lookup[buildID] = runtimeID
}

// LookupResourceID translates resid into its runtime id.
func (t *DynamicRefTable) LookupResourceID(resid uint32) (uint32, error) {
	pkg := PackageID(resid)
	if pkg == AppPackageID && !t.appAsLib {
		return resid, nil
	}
	if pkg == 0 || (pkg == AppPackageID && t.appAsLib) {
		return FixPackageID(resid, t.assignedID), nil
	}
	if rt := t.lookup[pkg]; rt != 0 {
		return FixPackageID(resid, rt), nil
	}
	return resid, fmt.Errorf("%w: no mapping for package id %#x in %#08x", ErrDynamicRef, pkg, resid)
}

// LookupResourceValue translates references and attributes in v.
func (t *DynamicRefTable) LookupResourceValue(v Value) (Value, error) {
	switch v.Type {
	case TypeDynamicReference:
		v.Type = TypeReference
	case TypeDynamicAttribute:
		v.Type = TypeAttribute
	case TypeReference, TypeAttribute:
		if !t.appAsLib {
			return v, nil
		}
	default:
		return v, nil
	}
	if v.Data == 0 {
		return v, nil
	}
	id, err := t.LookupResourceID(v.Data)
	if err != nil {
		return v, err
	}
	v.Data = id
	return v, nil
}
