package assets

import (
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/slices"

	"github.com/dnr/restable/restable"
)

// BagEntry is one attribute of a resolved bag.
type BagEntry struct {
	Key    uint32
	Value  restable.Value
	Cookie Cookie
}

// ResolvedBag is a bag with its parents merged in, sorted by key. Bags
// returned by GetBag are shared with the cache and must not be modified.
type ResolvedBag struct {
	// TypeSpecFlags is the union of the configuration axes of the bag and all
	// its parents.
	TypeSpecFlags uint32
	Entries       []BagEntry
}

// Find returns the entry for key, if present.
func (b *ResolvedBag) Find(key uint32) (BagEntry, bool) {
	i, ok := slices.BinarySearchFunc(b.Entries, key, func(e BagEntry, k uint32) int {
		switch {
		case e.Key < k:
			return -1
		case e.Key > k:
			return 1
		}
		return 0
	})
	if !ok {
		return BagEntry{}, false
	}
	return b.Entries[i], true
}

// GetBag resolves a bag and its parent chain. Results are cached until the
// apk set changes or the configuration changes along an axis the bag varies
// on. Failures are not cached.
func (am *AssetManager) GetBag(resid uint32) (*ResolvedBag, error) {
	bag, err := am.getBag(resid, nil)
	if err != nil {
		am.log.Debug("bag resolution failed", zap.Uint32("resid", resid), zap.Error(err))
	}
	return bag, err
}

func (am *AssetManager) getBag(resid uint32, visited []uint32) (*ResolvedBag, error) {
	if bag, ok := am.bags[resid]; ok {
		return bag, nil
	}
	res, err := am.FindEntry(resid, 0)
	if err != nil {
		return nil, err
	}
	ce, ok := res.Entry.(*restable.ComplexEntry)
	if !ok {
		return nil, fmt.Errorf("%w: %#08x", ErrNotBag, resid)
	}
	dr := res.DynamicRefTable
	visited = append(visited, resid)

	resolve := func(me restable.MapEntry) (BagEntry, error) {
		key := me.Name
		if !restable.IsInternalResID(key) {
			var err error
			if key, err = dr.LookupResourceID(key); err != nil {
				return BagEntry{}, fmt.Errorf("key %#08x in bag %#08x: %w", me.Name, resid, err)
			}
		}
		v, err := dr.LookupResourceValue(me.Value)
		if err != nil {
			return BagEntry{}, fmt.Errorf("value of %#08x in bag %#08x: %w", me.Name, resid, err)
		}
		return BagEntry{Key: key, Value: v, Cookie: res.Cookie}, nil
	}

	entries := make([]BagEntry, len(ce.Entries))
	for i, me := range ce.Entries {
		if entries[i], err = resolve(me); err != nil {
			return nil, err
		}
	}

	// dynamic packages write their own ids with a build-time package byte,
	// so the parent is compared both as written and as translated
	parent := ce.Parent
	if parent != 0 && !slices.Contains(visited, parent) {
		if parent, err = dr.LookupResourceID(parent); err != nil {
			return nil, fmt.Errorf("parent of bag %#08x: %w", resid, err)
		}
	}
	if parent == 0 || slices.Contains(visited, parent) {
		bag := &ResolvedBag{
			TypeSpecFlags: res.TypeFlags,
			Entries:       entries,
		}
		am.bags[resid] = bag
		return bag, nil
	}

	pbag, err := am.getBag(parent, visited)
	if err != nil {
		return nil, fmt.Errorf("parent %#08x of bag %#08x: %w", parent, resid, err)
	}

	// both sides are sorted by key; the child wins on equal keys
	out := make([]BagEntry, 0, len(entries)+len(pbag.Entries))
	ci, pi := 0, 0
	for ci < len(entries) && pi < len(pbag.Entries) {
		be, pe := entries[ci], pbag.Entries[pi]
		if be.Key <= pe.Key {
			out = append(out, be)
			ci++
		} else {
			out = append(out, pe)
		}
		if be.Key >= pe.Key {
			pi++
		}
	}
	out = append(out, entries[ci:]...)
	out = append(out, pbag.Entries[pi:]...)

	bag := &ResolvedBag{
		TypeSpecFlags: res.TypeFlags | pbag.TypeSpecFlags,
		Entries:       slices.Clip(out),
	}
	am.bags[resid] = bag
	return bag, nil
}
