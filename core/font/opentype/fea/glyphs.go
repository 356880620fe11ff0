package fea

import (
	"fmt"
	"sort"

	"github.com/derekparker/trie"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// GlyphMap maps glyph names to glyph indices, following the glyph order of a
// font. If a name occurs more than once, the first occurrence wins.
type GlyphMap struct {
	names []string
	trie  *trie.Trie
}

// NewGlyphMap creates a glyph map from a glyph order.
func NewGlyphMap(order []string) *GlyphMap {
	m := &GlyphMap{
		names: make([]string, len(order)),
		trie:  trie.New(),
	}
	copy(m.names, order)
	for i, name := range order {
		if _, exists := m.trie.Find(name); !exists {
			m.trie.Add(name, ot.GlyphIndex(i))
		}
	}
	return m
}

// Len returns the number of glyphs.
func (m *GlyphMap) Len() int {
	return len(m.names)
}

// Lookup returns the glyph index for a glyph name.
func (m *GlyphMap) Lookup(name string) (ot.GlyphIndex, bool) {
	if name == "" {
		return 0, false
	}
	node, ok := m.trie.Find(name)
	if !ok {
		return 0, false
	}
	return node.Meta().(ot.GlyphIndex), true
}

// Name returns the name of a glyph.
func (m *GlyphMap) Name(gid ot.GlyphIndex) string {
	if int(gid) >= len(m.names) {
		return fmt.Sprintf("glyph%05d", gid)
	}
	return m.names[gid]
}

// Suggest returns up to count glyph names similar to name, most similar first.
// Candidates are glyphs sharing the longest possible prefix with name, and
// glyphs containing the characters of name in order.
func (m *GlyphMap) Suggest(name string, count int) []string {
	candidates := make(map[string]bool)
	prefix := name
	for len(prefix) > 0 && !m.trie.HasKeysWithPrefix(prefix) {
		prefix = prefix[:len(prefix)-1]
	}
	if prefix != "" {
		for _, k := range m.trie.PrefixSearch(prefix) {
			candidates[k] = true
		}
	}
	for _, k := range m.trie.FuzzySearch(name) {
		candidates[k] = true
	}
	limit := len(name)/3 + 1
	type ranked struct {
		name string
		dist int
	}
	var r []ranked
	for k := range candidates {
		if d := fuzzy.LevenshteinDistance(name, k); d <= limit {
			r = append(r, ranked{k, d})
		}
	}
	sort.Slice(r, func(i, j int) bool {
		if r[i].dist != r[j].dist {
			return r[i].dist < r[j].dist
		}
		return r[i].name < r[j].name
	})
	if len(r) > count {
		r = r[:count]
	}
	s := make([]string, len(r))
	for i := range r {
		s[i] = r[i].name
	}
	return s
}

// --- Glyph classes ---------------------------------------------------------

// UnknownGlyphError is returned for references to glyphs not in the glyph map
// or to undefined glyph classes.
type UnknownGlyphError struct {
	Ref         GlyphRef
	Suggestions []string
}

func (e *UnknownGlyphError) Error() string {
	if e.Ref.IsClass {
		return fmt.Sprintf("undefined glyph class '@%s'", e.Ref.Name)
	}
	msg := fmt.Sprintf("unknown glyph '%s'", e.Ref.Name)
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean '%s'?)", e.Suggestions[0])
	}
	return msg
}

// ClassTable holds named glyph classes, resolved to glyph indices.
type ClassTable struct {
	glyphs  *GlyphMap
	classes map[string][]ot.GlyphIndex
}

// NewClassTable creates an empty class table for a glyph map.
func NewClassTable(glyphs *GlyphMap) *ClassTable {
	return &ClassTable{glyphs: glyphs, classes: make(map[string][]ot.GlyphIndex)}
}

// IsDefined is a predicate: has a class been defined?
func (ct *ClassTable) IsDefined(name string) bool {
	_, ok := ct.classes[name]
	return ok
}

// Define resolves a glyph set and stores it as a named class.
func (ct *ClassTable) Define(name string, set GlyphSet) error {
	glyphs, err := ct.Resolve(set)
	if err != nil {
		return err
	}
	ct.classes[name] = glyphs
	return nil
}

// ResolveRef resolves a single glyph or a class reference.
func (ct *ClassTable) ResolveRef(ref GlyphRef) ([]ot.GlyphIndex, error) {
	if ref.IsClass {
		if glyphs, ok := ct.classes[ref.Name]; ok {
			return glyphs, nil
		}
		return nil, &UnknownGlyphError{Ref: ref}
	}
	if gid, ok := ct.glyphs.Lookup(ref.Name); ok {
		return []ot.GlyphIndex{gid}, nil
	}
	return nil, &UnknownGlyphError{Ref: ref, Suggestions: ct.glyphs.Suggest(ref.Name, 3)}
}

// Resolve resolves a glyph set to a list of glyphs, in order of appearance and
// without duplicates.
func (ct *ClassTable) Resolve(set GlyphSet) ([]ot.GlyphIndex, error) {
	var glyphs []ot.GlyphIndex
	seen := make(map[ot.GlyphIndex]bool)
	for _, ref := range set.Items {
		gids, err := ct.ResolveRef(ref)
		if err != nil {
			return nil, err
		}
		for _, g := range gids {
			if !seen[g] {
				seen[g] = true
				glyphs = append(glyphs, g)
			}
		}
	}
	return glyphs, nil
}
