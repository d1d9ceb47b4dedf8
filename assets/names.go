package assets

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/dnr/restable/common"
	"github.com/dnr/restable/restable"
)

const attrPrivateType = "^attr-private"

// ResourceName is the package:type/entry form of a resource id.
type ResourceName struct {
	Package string
	Type    string
	Entry   string
}

func (n ResourceName) String() string {
	if n.Package == "" {
		return n.Type + "/" + n.Entry
	}
	return n.Package + ":" + n.Type + "/" + n.Entry
}

// ParseResourceName splits "[@][package:]type/entry". Missing parts are
// taken from defType and defPackage.
func ParseResourceName(name, defType, defPackage string) (ResourceName, error) {
	s := strings.TrimPrefix(name, "@")
	n := ResourceName{Package: defPackage, Type: defType}
	if pkg, rest, ok := strings.Cut(s, ":"); ok {
		n.Package, s = pkg, rest
	}
	if tp, rest, ok := strings.Cut(s, "/"); ok {
		n.Type, s = tp, rest
	}
	n.Entry = s
	if n.Type == "" || n.Entry == "" {
		return n, fmt.Errorf("bad resource name %q", name)
	}
	return n, nil
}

// GetResourceName returns the name of the winning entry for resid.
func (am *AssetManager) GetResourceName(resid uint32) (ResourceName, error) {
	res, err := am.FindEntry(resid, 0)
	if err != nil {
		return ResourceName{}, err
	}
	tp, err := res.TypeString.Pool.StringAt(int(res.TypeString.Index))
	if err != nil {
		return ResourceName{}, err
	}
	entry, err := res.EntryString.Pool.StringAt(int(res.EntryString.Index))
	if err != nil {
		return ResourceName{}, err
	}
	return ResourceName{Package: res.Package.Name(), Type: tp, Entry: entry}, nil
}

// GetResourceID finds a resource by name and returns its runtime id.
func (am *AssetManager) GetResourceID(name, defType, defPackage string) (uint32, error) {
	n, err := ParseResourceName(name, defType, defPackage)
	if err != nil {
		return 0, err
	}
	for _, g := range am.groups {
		for _, cp := range g.packages {
			if cp.pkg.Name() != n.Package {
				// packages in a group share a name
				break
			}
			resid, ok := cp.pkg.FindEntryByName(n.Type, n.Entry)
			if !ok && n.Type == "attr" {
				resid, ok = cp.pkg.FindEntryByName(attrPrivateType, n.Entry)
			}
			if ok {
				return restable.FixPackageID(resid, g.dynref.AssignedPackageID()), nil
			}
		}
	}
	return 0, common.NotFound("no resource named %s", n)
}

// GetResourceConfigurations returns every distinct configuration in the
// loaded set, sorted.
func (am *AssetManager) GetResourceConfigurations(excludeSystem, excludeMipmap bool) []restable.Config {
	var out []restable.Config
	for _, g := range am.groups {
		for _, cp := range g.packages {
			if excludeSystem && cp.pkg.IsSystem() {
				continue
			}
			cp.pkg.CollectConfigurations(excludeMipmap, func(c restable.Config) {
				out = append(out, c)
			})
		}
	}
	cmp := func(a, b restable.Config) int { return a.Compare(&b) }
	slices.SortFunc(out, cmp)
	return slices.CompactFunc(out, func(a, b restable.Config) bool { return cmp(a, b) == 0 })
}

// GetResourceLocales returns every distinct locale in the loaded set, sorted.
// With mergeEquivalent, legacy language codes are folded into their modern
// forms.
func (am *AssetManager) GetResourceLocales(excludeSystem, mergeEquivalent bool) []string {
	var out []string
	for _, g := range am.groups {
		for _, cp := range g.packages {
			if excludeSystem && cp.pkg.IsSystem() {
				continue
			}
			cp.pkg.CollectLocales(mergeEquivalent, func(l string) {
				out = append(out, l)
			})
		}
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Open reads assets/name from the most recently added apk that has it.
func (am *AssetManager) Open(name string) ([]byte, error) {
	path := assetsPrefix + name
	for i := len(am.apks) - 1; i >= 0; i-- {
		b, err := am.apks[i].Open(path)
		if err == nil || !common.IsNotFound(err) {
			return b, err
		}
	}
	return nil, common.NotFound("no asset %q", name)
}

// OpenNonAsset reads a file by its full archive path from one apk.
func (am *AssetManager) OpenNonAsset(cookie Cookie, name string) ([]byte, error) {
	if cookie < 0 || int(cookie) >= len(am.apks) {
		return nil, fmt.Errorf("invalid cookie %d", cookie)
	}
	return am.apks[cookie].Open(name)
}
