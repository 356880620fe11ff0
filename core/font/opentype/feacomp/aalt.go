package feacomp

import (
	"sort"

	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otbuild"
)

// buildAalt assembles the lookups of feature 'aalt' from the single and
// alternate substitutions of the features it references, in order of
// reference. Glyphs with a single alternate go to a single substitution, the
// others to an alternate substitution. The new lookups are placed at the
// start of GSUB; buildAalt returns their number, by which all other GSUB
// lookup indices have been shifted.
func (c *compiler) buildAalt() int {
	aalt, ok := c.features[ot.T("aalt")]
	if !ok || len(aalt.refs) == 0 {
		return 0
	}
	alternates := make(map[ot.GlyphIndex][]ot.GlyphIndex)
	var order []ot.GlyphIndex
	add := func(g, alt ot.GlyphIndex) {
		list, ok := alternates[g]
		if !ok {
			order = append(order, g)
		}
		for _, a := range list {
			if a == alt {
				return
			}
		}
		alternates[g] = append(list, alt)
	}
	for _, ref := range aalt.refs {
		tag := ot.T(ref.Tag.Text)
		if tag == aalt.tag {
			continue
		}
		f, ok := c.features[tag]
		if !ok {
			continue // reported by validation
		}
		for _, inx := range f.lookups[gsub] {
			l := c.lookups[gsub][inx]
			switch l.typ {
			case otbuild.GSubSingle:
				for _, g := range sortedKeys(l.single) {
					add(g, l.single[g])
				}
			case otbuild.GSubAlternate:
				for _, g := range sortedKeys(l.alts) {
					for _, alt := range l.alts[g] {
						add(g, alt)
					}
				}
			}
		}
	}
	if len(order) == 0 {
		return 0
	}
	var prepended []*lookup
	single := &lookup{table: gsub, typ: otbuild.GSubSingle, single: make(map[ot.GlyphIndex]ot.GlyphIndex)}
	multi := &lookup{table: gsub, typ: otbuild.GSubAlternate, alts: make(map[ot.GlyphIndex][]ot.GlyphIndex)}
	for _, g := range order {
		if alts := alternates[g]; len(alts) == 1 {
			single.single[g] = alts[0]
		} else {
			multi.alts[g] = alts
		}
	}
	if len(single.single) > 0 {
		prepended = append(prepended, single)
	}
	if len(multi.alts) > 0 {
		prepended = append(prepended, multi)
	}
	shift := len(prepended)
	for _, l := range c.lookups[gsub] {
		l.index += shift
	}
	for _, f := range c.features {
		for i := range f.lookups[gsub] {
			f.lookups[gsub][i] += shift
		}
	}
	for i, l := range prepended {
		l.index = i
	}
	c.lookups[gsub] = append(prepended, c.lookups[gsub]...)
	own := aalt.lookups[gsub]
	aalt.lookups[gsub] = make([]int, 0, shift+len(own))
	for i := 0; i < shift; i++ {
		aalt.lookups[gsub] = append(aalt.lookups[gsub], i)
	}
	aalt.lookups[gsub] = append(aalt.lookups[gsub], own...)
	tracer().Debugf("aalt: %d glyphs with alternates, %d lookups prepended", len(order), shift)
	return shift
}

func sortedKeys[V any](m map[ot.GlyphIndex]V) []ot.GlyphIndex {
	keys := make([]ot.GlyphIndex, 0, len(m))
	for g := range m {
		keys = append(keys, g)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
