package assets

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dnr/restable/common"
	"github.com/dnr/restable/restable"
)

var (
	ErrInvalidID    = errors.New("invalid resource id")
	ErrNotBag       = errors.New("resource is not a bag")
	ErrChainTooLong = errors.New("reference chain too long")
	ErrDynamicRef   = restable.ErrDynamicRef
)

const (
	// bound on reference and theme attribute chains
	maxIterations = 20

	noGroup        = 0xff
	firstDynamicID = 0x02
)

// Cookie identifies the ApkAssets a value came from: its index in the list
// given to SetApkAssets.
type Cookie int32

const InvalidCookie Cookie = -1

type Options struct {
	Logger *zap.Logger
}

type configuredPackage struct {
	pkg    *restable.LoadedPackage
	cookie Cookie
	// types matching the current configuration, by type index
	filtered [256][]*restable.Type
}

// packageGroup is every package that shares one runtime package id.
type packageGroup struct {
	packages []*configuredPackage
	dynref   *restable.DynamicRefTable
}

// AssetManager resolves resources across an ordered set of ApkAssets for one
// device configuration. It is not safe for concurrent use.
type AssetManager struct {
	log *zap.Logger

	apks       []*ApkAssets
	groups     []*packageGroup
	packageIDs [256]uint8
	config     restable.Config
	bags       map[uint32]*ResolvedBag
}

func New(opts Options) *AssetManager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	am := &AssetManager{
		log:  opts.Logger,
		bags: make(map[uint32]*ResolvedBag),
	}
	for i := range am.packageIDs {
		am.packageIDs[i] = noGroup
	}
	return am
}

// SetApkAssets replaces the loaded set. Later entries take precedence for
// raw asset lookup; resource selection is by configuration.
func (am *AssetManager) SetApkAssets(list []*ApkAssets) {
	am.apks = append([]*ApkAssets(nil), list...)
	am.buildDynamicRefTable()
	am.rebuildFilterList()
	clear(am.bags)
}

func (am *AssetManager) buildDynamicRefTable() {
	am.groups = nil
	for i := range am.packageIDs {
		am.packageIDs[i] = noGroup
	}

	nextID := uint8(firstDynamicID)
	for cookie, apk := range am.apks {
		for _, pkg := range apk.Table().Packages() {
			id := pkg.ID()
			if pkg.IsDynamic() {
				id = nextID
				nextID++
			}
			idx := am.packageIDs[id]
			if idx == noGroup {
				idx = uint8(len(am.groups))
				am.packageIDs[id] = idx
				appAsLib := pkg.IsDynamic() && pkg.ID() == restable.AppPackageID
				am.groups = append(am.groups, &packageGroup{
					dynref: restable.NewDynamicRefTable(id, appAsLib),
				})
			}
			g := am.groups[idx]
			g.packages = append(g.packages, &configuredPackage{pkg: pkg, cookie: Cookie(cookie)})
			for _, e := range pkg.DynamicPackageMap() {
				g.dynref.AddEntry(e.Name, e.ID)
			}
		}
	}

	// map each group's name to its runtime id in every table that knows it
	for _, g := range am.groups {
		name := g.packages[0].pkg.Name()
		id := g.dynref.AssignedPackageID()
		for _, other := range am.groups {
			if err := other.dynref.AddMapping(name, id); err != nil && !errors.Is(err, ErrDynamicRef) {
				am.log.Warn("adding package mapping", zap.String("package", name), zap.Error(err))
			}
		}
	}
	am.log.Debug("built package groups", zap.Int("apks", len(am.apks)), zap.Int("groups", len(am.groups)))
}

func (am *AssetManager) rebuildFilterList() {
	for _, g := range am.groups {
		for _, cp := range g.packages {
			for i := range cp.filtered {
				cp.filtered[i] = nil
				spec := cp.pkg.TypeSpecByIndex(uint8(i))
				if spec == nil {
					continue
				}
				for _, t := range spec.Types {
					if t.Config.Match(&am.config) {
						cp.filtered[i] = append(cp.filtered[i], t)
					}
				}
			}
		}
	}
}

// SetConfiguration changes the device configuration. Cached bags that vary
// on a changed axis are dropped.
func (am *AssetManager) SetConfiguration(c restable.Config) {
	diff := am.config.Diff(&c)
	am.config = c
	if diff == 0 {
		return
	}
	am.rebuildFilterList()
	am.invalidateCaches(diff)
}

func (am *AssetManager) invalidateCaches(diff uint32) {
	n := 0
	for resid, bag := range am.bags {
		if bag.TypeSpecFlags&diff != 0 {
			delete(am.bags, resid)
			n++
		}
	}
	am.log.Debug("invalidated bags", zap.Uint32("diff", diff), zap.Int("dropped", n))
}

func (am *AssetManager) Configuration() restable.Config { return am.config }

// ApkAssets returns the loaded set in cookie order.
func (am *AssetManager) ApkAssets() []*ApkAssets { return am.apks }

// BagCacheLen returns the number of cached bags.
func (am *AssetManager) BagCacheLen() int { return len(am.bags) }

// FindEntryResult is the winning entry for a resource id.
type FindEntryResult struct {
	Entry restable.Entry
	// Config is the configuration of the variant the entry came from.
	Config restable.Config
	// TypeFlags is the union of type spec flags over every package that
	// defines the entry.
	TypeFlags       uint32
	TypeString      restable.StringPoolRef
	EntryString     restable.StringPoolRef
	DynamicRefTable *restable.DynamicRefTable
	Package         *restable.LoadedPackage
	Cookie          Cookie
}

// FindEntry selects the best entry for resid under the current configuration,
// or under it with the density replaced when densityOverride is non-zero.
// Overlays win ties against identically configured entries.
func (am *AssetManager) FindEntry(resid uint32, densityOverride uint16) (FindEntryResult, error) {
	res := FindEntryResult{Cookie: InvalidCookie}
	if !restable.IsValidResID(resid) {
		return res, fmt.Errorf("%w: %#08x", ErrInvalidID, resid)
	}

	desired := &am.config
	fast := true
	if densityOverride != 0 && densityOverride != am.config.Density {
		c := am.config
		c.Density = densityOverride
		desired = &c
		fast = false
	}

	idx := am.packageIDs[restable.PackageID(resid)]
	if idx == noGroup {
		am.log.Debug("no package for resource", zap.Uint32("resid", resid))
		return res, common.NotFound("no package for resource %#08x", resid)
	}
	g := am.groups[idx]
	entryIdx := restable.EntryID(resid)

	var (
		best       *restable.Type
		bestPkg    *configuredPackage
		bestSpec   *restable.TypeSpec
		bestOffset uint32
		flags      uint32
	)
	consider := func(cp *configuredPackage, spec *restable.TypeSpec, t *restable.Type, localIdx uint16) {
		better := best == nil || t.Config.IsBetterThan(&best.Config, desired)
		if !better && !(cp.pkg.IsOverlay() && t.Config.Compare(&best.Config) == 0) {
			return
		}
		off := t.EntryOffset(localIdx)
		if off == restable.NO_ENTRY {
			return
		}
		best, bestPkg, bestSpec, bestOffset = t, cp, spec, off
	}

	for _, cp := range g.packages {
		spec := cp.pkg.TypeSpecForResID(resid)
		if spec == nil {
			continue
		}
		localIdx := entryIdx
		if spec.Idmap != nil {
			var ok bool
			if localIdx, ok = spec.Idmap.Lookup(entryIdx); !ok {
				continue
			}
		}
		flags |= spec.Flags(localIdx)

		if fast {
			for _, t := range cp.filtered[spec.ID-1] {
				consider(cp, spec, t, localIdx)
			}
		} else {
			for _, t := range spec.Types {
				if t.Config.Match(desired) {
					consider(cp, spec, t, localIdx)
				}
			}
		}
	}

	if best == nil {
		am.log.Debug("no entry for resource", zap.Uint32("resid", resid))
		return res, common.NotFound("no entry for resource %#08x", resid)
	}
	e, err := best.Entry(bestOffset)
	if err != nil {
		return res, err
	}
	res = FindEntryResult{
		Entry:           e,
		Config:          best.Config,
		TypeFlags:       flags,
		TypeString:      restable.StringPoolRef{Pool: bestPkg.pkg.TypeStrings(), Index: uint32(bestSpec.SourceID) - 1},
		EntryString:     restable.StringPoolRef{Pool: bestPkg.pkg.KeyStrings(), Index: e.KeyIndex()},
		DynamicRefTable: g.dynref,
		Package:         bestPkg.pkg,
		Cookie:          bestPkg.cookie,
	}
	return res, nil
}

// ResolvedValue is a value together with where it came from.
type ResolvedValue struct {
	restable.Value
	Cookie Cookie
	Config restable.Config
	// Flags accumulates the type spec flags of every entry consulted.
	Flags uint32
	// Reference is the last resource id followed to reach the value.
	Reference uint32
}

// GetResource returns the value of a simple entry with dynamic references
// resolved. A bag yields a reference to itself when mayBeBag is set.
func (am *AssetManager) GetResource(resid uint32, mayBeBag bool, densityOverride uint16) (ResolvedValue, error) {
	res, err := am.FindEntry(resid, densityOverride)
	if err != nil {
		return ResolvedValue{Cookie: InvalidCookie}, err
	}
	out := ResolvedValue{
		Cookie:    res.Cookie,
		Config:    res.Config,
		Flags:     res.TypeFlags,
		Reference: resid,
	}
	switch e := res.Entry.(type) {
	case *restable.ComplexEntry:
		if !mayBeBag {
			return ResolvedValue{Cookie: InvalidCookie}, fmt.Errorf("%w: %#08x", ErrNotBag, resid)
		}
		out.Value = restable.Value{Type: restable.TypeReference, Data: resid}
	case *restable.SimpleEntry:
		v, err := res.DynamicRefTable.LookupResourceValue(e.Value)
		if err != nil {
			return ResolvedValue{Cookie: InvalidCookie}, fmt.Errorf("resource %#08x: %w", resid, err)
		}
		out.Value = v
	}
	return out, nil
}

// ResolveReference follows a chain of references. A reference to itself is
// left unresolved. On failure the last value reached is returned with the
// error.
func (am *AssetManager) ResolveReference(v ResolvedValue) (ResolvedValue, error) {
	for i := 0; v.Type == restable.TypeReference && v.Data != 0; i++ {
		if i == maxIterations {
			return v, fmt.Errorf("%w: stopped at %#08x", ErrChainTooLong, v.Data)
		}
		ref := v.Data
		next, err := am.GetResource(ref, true, 0)
		if err != nil {
			return v, fmt.Errorf("resolving %#08x: %w", ref, err)
		}
		next.Flags |= v.Flags
		next.Reference = ref
		v = next
		if v.Type == restable.TypeReference && v.Data == ref {
			break
		}
	}
	return v, nil
}

// GetResourceFlags returns the type spec flags for resid.
func (am *AssetManager) GetResourceFlags(resid uint32) (uint32, error) {
	res, err := am.FindEntry(resid, 0)
	if err != nil {
		return 0, err
	}
	return res.TypeFlags, nil
}

// GetAssignedPackageID returns the runtime id of pkg, or 0 if it is not
// loaded.
func (am *AssetManager) GetAssignedPackageID(pkg *restable.LoadedPackage) uint8 {
	for _, g := range am.groups {
		for _, cp := range g.packages {
			if cp.pkg == pkg {
				return g.dynref.AssignedPackageID()
			}
		}
	}
	return 0
}

// GetDynamicRefTableForPackage returns the table of the group with runtime
// id pkgID, or nil.
func (am *AssetManager) GetDynamicRefTableForPackage(pkgID uint8) *restable.DynamicRefTable {
	if idx := am.packageIDs[pkgID]; idx != noGroup {
		return am.groups[idx].dynref
	}
	return nil
}

// GetDynamicRefTableForCookie returns the table of the group holding the
// first package loaded from cookie, or nil.
func (am *AssetManager) GetDynamicRefTableForCookie(c Cookie) *restable.DynamicRefTable {
	for _, g := range am.groups {
		for _, cp := range g.packages {
			if cp.cookie == c {
				return g.dynref
			}
		}
	}
	return nil
}

// NewTheme returns an empty theme bound to am.
func (am *AssetManager) NewTheme() *Theme {
	return &Theme{am: am}
}
