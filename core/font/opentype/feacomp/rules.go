package feacomp

import (
	"fmt"
	"strings"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/fea"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otbuild"
	"github.com/npillmayer/shaperfont/core/font/opentype/otvar"
)

// lookup collects the rules of a single lookup. Only the map matching the
// lookup type is in use.
type lookup struct {
	table  table
	index  int
	typ    uint16
	flag   uint16
	single map[ot.GlyphIndex]ot.GlyphIndex
	alts   map[ot.GlyphIndex][]ot.GlyphIndex
	ligs   map[string]otbuild.Ligature
	order  []string // ligature keys in order of definition
	pos    map[ot.GlyphIndex]otbuild.ValueRecord
	pairs  map[ot.GlyphIndex]map[ot.GlyphIndex]otbuild.ValueRecord
}

func (c *compiler) newLookup(t table, typ, flag uint16) *lookup {
	l := &lookup{
		table:  t,
		index:  len(c.lookups[t]),
		typ:    typ,
		flag:   flag,
		single: make(map[ot.GlyphIndex]ot.GlyphIndex),
		alts:   make(map[ot.GlyphIndex][]ot.GlyphIndex),
		ligs:   make(map[string]otbuild.Ligature),
		pos:    make(map[ot.GlyphIndex]otbuild.ValueRecord),
		pairs:  make(map[ot.GlyphIndex]map[ot.GlyphIndex]otbuild.ValueRecord),
	}
	c.lookups[t] = append(c.lookups[t], l)
	return l
}

// build converts l into a lookup of the table writer, with a single subtable.
func (l *lookup) build() otbuild.Lookup {
	var sub otbuild.SubTable
	switch {
	case l.table == gsub && l.typ == otbuild.GSubSingle:
		sub = &otbuild.SingleSubst{Mapping: l.single}
	case l.table == gsub && l.typ == otbuild.GSubAlternate:
		sub = &otbuild.AlternateSubst{Alternates: l.alts}
	case l.table == gsub && l.typ == otbuild.GSubLigature:
		ligs := make([]otbuild.Ligature, 0, len(l.order))
		for _, key := range l.order {
			ligs = append(ligs, l.ligs[key])
		}
		sub = &otbuild.LigatureSubst{Ligatures: ligs}
	case l.table == gpos && l.typ == otbuild.GPosSingle:
		sub = &otbuild.SinglePos{Values: l.pos}
	default:
		pairs := make(map[ot.GlyphIndex][]otbuild.PairValue, len(l.pairs))
		for first, seconds := range l.pairs {
			for second, v := range seconds {
				pairs[first] = append(pairs[first], otbuild.PairValue{Second: second, Value: v})
			}
		}
		sub = &otbuild.PairPos{Pairs: pairs}
	}
	return otbuild.Lookup{Type: l.typ, Flag: l.flag, SubTables: []otbuild.SubTable{sub}}
}

// lookupFor returns the implicit lookup for a rule of a given type, starting a
// new one if the type or the flag has changed.
func (c *compiler) lookupFor(st *blockState, t table, typ uint16) *lookup {
	if cur := st.current; cur != nil && cur.table == t && cur.typ == typ && cur.flag == st.flag {
		return cur
	}
	if st.current != nil && st.feature == nil {
		// named lookups have a single type, which validation made sure of
		return st.current
	}
	l := c.newLookup(t, typ, st.flag)
	st.current = l
	if st.feature != nil {
		st.feature.add(t, l.index)
	}
	return l
}

// ruleResult counts what happened to the glyphs of a rule.
type ruleResult struct {
	duplicates int
	conflicts  []string
}

func (r *ruleResult) conflict(format string, args ...interface{}) {
	r.conflicts = append(r.conflicts, fmt.Sprintf(format, args...))
}

func (c *compiler) compileRule(st *blockState, s fea.Statement) {
	var res ruleResult
	switch rule := s.(type) {
	case *fea.SubRule:
		c.compileSub(st, rule, &res)
		if len(res.conflicts) > 0 {
			c.errorf(rule.Span(), core.EVALIDATION, "conflicting substitution: %s", strings.Join(res.conflicts, ", "))
		}
	case *fea.PosRule:
		c.compilePos(st, rule, &res)
		if len(res.conflicts) > 0 {
			c.warnf(rule.Span(), "positioning already defined for %s; keeping the first value",
				strings.Join(res.conflicts, ", "))
		}
	}
	if res.duplicates > 0 && len(res.conflicts) == 0 {
		c.warnf(s.Span(), "duplicate rule")
	}
}

func (c *compiler) resolve(gs fea.GlyphSet) []ot.GlyphIndex {
	glyphs, err := c.classes.Resolve(gs)
	if err != nil {
		c.diags.AddError(c.file, gs.Span(), core.WrapError(err, core.EVALIDATION, "%v", err))
		return nil
	}
	return glyphs
}

func (c *compiler) compileSub(st *blockState, rule *fea.SubRule, res *ruleResult) {
	switch rule.Kind {
	case fea.SubSingle:
		in, out := c.resolve(rule.Input[0]), c.resolve(rule.Replacement[0])
		if len(in) == 0 || len(out) == 0 || (len(out) != 1 && len(out) != len(in)) {
			return
		}
		l := c.lookupFor(st, gsub, otbuild.GSubSingle)
		for i, g := range in {
			r := out[0]
			if len(out) > 1 {
				r = out[i]
			}
			if prev, ok := l.single[g]; ok {
				if prev == r {
					res.duplicates++
				} else {
					res.conflict("'%s' by '%s' and '%s'", c.glyphs.Name(g), c.glyphs.Name(prev), c.glyphs.Name(r))
				}
				continue
			}
			l.single[g] = r
		}
	case fea.SubAlternate:
		in, alts := c.resolve(rule.Input[0]), c.resolve(rule.Replacement[0])
		if len(in) != 1 || len(alts) == 0 {
			return
		}
		l := c.lookupFor(st, gsub, otbuild.GSubAlternate)
		g := in[0]
		if prev, ok := l.alts[g]; ok {
			if sameGlyphs(prev, alts) {
				res.duplicates++
			} else {
				res.conflict("alternates of '%s'", c.glyphs.Name(g))
			}
			return
		}
		l.alts[g] = alts
	case fea.SubLigature:
		var sets [][]ot.GlyphIndex
		for _, gs := range rule.Input {
			glyphs := c.resolve(gs)
			if len(glyphs) == 0 {
				return
			}
			sets = append(sets, glyphs)
		}
		out := c.resolve(rule.Replacement[0])
		if len(out) != 1 {
			return
		}
		l := c.lookupFor(st, gsub, otbuild.GSubLigature)
		for _, seq := range sequences(sets) {
			key := sequenceKey(seq)
			if prev, ok := l.ligs[key]; ok {
				if prev.Glyph == out[0] {
					res.duplicates++
				} else {
					res.conflict("ligature '%s'", c.sequenceName(seq))
				}
				continue
			}
			l.ligs[key] = otbuild.Ligature{Components: seq, Glyph: out[0]}
			l.order = append(l.order, key)
		}
	}
}

func (c *compiler) compilePos(st *blockState, rule *fea.PosRule, res *ruleResult) {
	v, ok := c.value(rule.Value, st.vertical)
	if !ok {
		return
	}
	firsts := c.resolve(rule.Glyphs[0])
	if len(firsts) == 0 {
		return
	}
	if len(rule.Glyphs) == 1 {
		l := c.lookupFor(st, gpos, otbuild.GPosSingle)
		for _, g := range firsts {
			if prev, ok := l.pos[g]; ok {
				if sameValue(prev, v) {
					res.duplicates++
				} else {
					res.conflict("'%s'", c.glyphs.Name(g))
				}
				continue
			}
			l.pos[g] = v
		}
		return
	}
	seconds := c.resolve(rule.Glyphs[1])
	if len(seconds) == 0 {
		return
	}
	l := c.lookupFor(st, gpos, otbuild.GPosPair)
	for _, first := range firsts {
		pairs, ok := l.pairs[first]
		if !ok {
			pairs = make(map[ot.GlyphIndex]otbuild.ValueRecord)
			l.pairs[first] = pairs
		}
		for _, second := range seconds {
			if prev, ok := pairs[second]; ok {
				if sameValue(prev, v) {
					res.duplicates++
				} else {
					res.conflict("'%s' '%s'", c.glyphs.Name(first), c.glyphs.Name(second))
				}
				continue
			}
			pairs[second] = v
		}
	}
}

// --- Values ----------------------------------------------------------------

// value compiles a value record. A single metric adjusts the advance, in
// vertical features the vertical advance.
func (c *compiler) value(vr fea.ValueRecord, vertical bool) (otbuild.ValueRecord, bool) {
	var out otbuild.ValueRecord
	ok := true
	set := func(m *fea.Metric, v *int16, dev **otbuild.VariationIndex) {
		value, vi, good := c.metric(m)
		*v, *dev = value, vi
		ok = ok && good
	}
	if vr.Single != nil {
		if vertical {
			set(vr.Single, &out.YAdvance, &out.YAdvDevice)
		} else {
			set(vr.Single, &out.XAdvance, &out.XAdvDevice)
		}
		return out, ok
	}
	set(vr.XPlacement, &out.XPlacement, &out.XPlaDevice)
	set(vr.YPlacement, &out.YPlacement, &out.YPlaDevice)
	set(vr.XAdvance, &out.XAdvance, &out.XAdvDevice)
	set(vr.YAdvance, &out.YAdvance, &out.YAdvDevice)
	return out, ok
}

// metric compiles a metric into a default value and, for metrics which vary,
// a reference into the item variation store.
func (c *compiler) metric(m *fea.Metric) (int16, *otbuild.VariationIndex, bool) {
	if m == nil {
		return 0, nil, true
	}
	if m.IsNamed() {
		return c.namedValue(m)
	}
	if !m.IsVariable() {
		return m.Value, nil, true
	}
	if c.vi == nil || c.varStore == nil {
		c.errorf(m.Span(), core.EVARIATION, "variable value in a font without axes")
		return 0, nil, false
	}
	sample := make(otvar.MetricSample, 0, len(m.Variable))
	for _, ln := range m.Variable {
		loc, err := fea.NormalizeLocation(ln, c.vi)
		if err != nil {
			c.errorf(ln.Span(), core.EVARIATION, "%v", err)
			return 0, nil, false
		}
		sample = append(sample, otvar.LocatedValue{Location: loc, Value: ln.Value})
	}
	dflt, deltas, err := c.vi.ResolveVariableMetric(sample)
	if err != nil {
		c.diags.AddError(c.file, m.Span(), err)
		return 0, nil, false
	}
	deltas = nonZero(deltas)
	if len(deltas) == 0 {
		return dflt, nil, true
	}
	inx, err := c.varStore.Add(deltas)
	if err != nil {
		c.diags.AddError(c.file, m.Span(), err)
		return 0, nil, false
	}
	return dflt, &inx, true
}

// namedValue compiles a reference to a named design value ($name).
func (c *compiler) namedValue(m *fea.Metric) (int16, *otbuild.VariationIndex, bool) {
	var v int16
	err := core.Error(core.EUNSUPPORTED, "named value $%s is not supported", m.Named)
	if c.vi != nil {
		v, err = c.vi.ResolveGlyphsNumberValue(m.Named)
	}
	if err != nil {
		c.diags.AddError(c.file, m.Span(), err)
		return 0, nil, false
	}
	return v, nil, true
}

func nonZero(deltas []otvar.VariationDelta) []otvar.VariationDelta {
	var nz []otvar.VariationDelta
	for _, d := range deltas {
		if d.Value != 0 {
			nz = append(nz, d)
		}
	}
	return nz
}

// --- Helpers ---------------------------------------------------------------

// sequences returns the cartesian product of glyph sets, in order.
func sequences(sets [][]ot.GlyphIndex) [][]ot.GlyphIndex {
	result := [][]ot.GlyphIndex{{}}
	for _, set := range sets {
		var next [][]ot.GlyphIndex
		for _, prefix := range result {
			for _, g := range set {
				seq := make([]ot.GlyphIndex, len(prefix), len(prefix)+1)
				copy(seq, prefix)
				next = append(next, append(seq, g))
			}
		}
		result = next
	}
	return result
}

func sequenceKey(seq []ot.GlyphIndex) string {
	var sb strings.Builder
	for _, g := range seq {
		fmt.Fprintf(&sb, "%d,", g)
	}
	return sb.String()
}

func (c *compiler) sequenceName(seq []ot.GlyphIndex) string {
	names := make([]string, len(seq))
	for i, g := range seq {
		names[i] = c.glyphs.Name(g)
	}
	return strings.Join(names, " ")
}

func sameGlyphs(a, b []ot.GlyphIndex) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// sameValue is a predicate: do two value records adjust by the same amounts,
// with the same variation data?
func sameValue(a, b otbuild.ValueRecord) bool {
	same := func(x, y *otbuild.VariationIndex) bool {
		return (x == nil && y == nil) || (x != nil && y != nil && *x == *y)
	}
	return a.XPlacement == b.XPlacement && a.YPlacement == b.YPlacement &&
		a.XAdvance == b.XAdvance && a.YAdvance == b.YAdvance &&
		same(a.XPlaDevice, b.XPlaDevice) && same(a.YPlaDevice, b.YPlaDevice) &&
		same(a.XAdvDevice, b.XAdvDevice) && same(a.YAdvDevice, b.YAdvDevice)
}
