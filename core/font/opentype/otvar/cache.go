package otvar

import (
	"encoding/binary"
	"math"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/zeebo/xxh3"
)

// ModelCache memoizes variation models, keyed by the set of master locations
// they are built from. Location sets are compared structurally: neither the
// order of locations nor duplicates within a set matter.
//
// Entries are created lazily and never evicted. A ModelCache is meant to live
// for the duration of one compilation and is not safe for concurrent use.
type ModelCache struct {
	axisOrder []ot.Tag
	models    map[uint64][]cachedModel // buckets by hash of the canonical location set
	hash      func([]NormalizedLocation) uint64
	size      int
}

type cachedModel struct {
	set   []NormalizedLocation // canonical
	model *VariationModel
}

// NewModelCache creates an empty cache. Models will be built using axisOrder
// to sort masters.
func NewModelCache(axisOrder []ot.Tag) *ModelCache {
	order := make([]ot.Tag, len(axisOrder))
	copy(order, axisOrder)
	return &ModelCache{
		axisOrder: order,
		models:    make(map[uint64][]cachedModel),
		hash:      hashLocationSet,
	}
}

// ModelFor returns the variation model for a set of locations. If the cache
// does not yet hold a model for a set equal to locations, a new one is built
// and inserted. Failing model construction is not cached.
func (c *ModelCache) ModelFor(locations []NormalizedLocation) (*VariationModel, error) {
	set := canonicalLocationSet(locations)
	h := c.hash(set)
	for _, entry := range c.models[h] { // more than one entry only for hash collisions
		if sameLocationSet(entry.set, set) {
			return entry.model, nil
		}
	}
	tracer().Debugf("model cache miss for location set %v", set)
	model, err := NewVariationModel(set, c.axisOrder)
	if err != nil {
		return nil, err
	}
	c.models[h] = append(c.models[h], cachedModel{set: set, model: model})
	c.size++
	return model, nil
}

// Len returns the number of models in the cache.
func (c *ModelCache) Len() int {
	return c.size
}

// canonicalLocationSet orders locations structurally and drops duplicates.
func canonicalLocationSet(locations []NormalizedLocation) []NormalizedLocation {
	set := treeset.NewWith(func(a, b interface{}) int {
		return compareLocations(a.(NormalizedLocation), b.(NormalizedLocation))
	})
	for _, loc := range locations {
		set.Add(loc)
	}
	canonical := make([]NormalizedLocation, 0, set.Size())
	for _, v := range set.Values() {
		canonical = append(canonical, v.(NormalizedLocation))
	}
	return canonical
}

// hashLocationSet hashes the binary form of a canonical location set: per
// location the number of coordinates, then tag and value bits of each.
func hashLocationSet(set []NormalizedLocation) uint64 {
	buf := make([]byte, 0, 64)
	for _, loc := range set {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(loc.coords)))
		for _, c := range loc.coords {
			buf = binary.BigEndian.AppendUint32(buf, uint32(c.Tag))
			buf = binary.BigEndian.AppendUint64(buf, math.Float64bits(c.Value))
		}
	}
	return xxh3.Hash(buf)
}

func sameLocationSet(a, b []NormalizedLocation) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
