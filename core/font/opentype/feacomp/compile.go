package feacomp

import (
	"sort"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/diag"
	"github.com/npillmayer/shaperfont/core/font/opentype/fea"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otbuild"
	"github.com/npillmayer/shaperfont/core/font/opentype/otlayout"
	"github.com/npillmayer/shaperfont/core/font/opentype/otvar"
)

// VariationInfo gives the compiler access to the design axes of a font and
// resolves variable metrics and named design values.
// *otvar.MetricResolver implements it.
type VariationInfo interface {
	fea.VariationAxes
	Axes() []otvar.Axis
	ResolveVariableMetric(sample otvar.MetricSample) (int16, []otvar.VariationDelta, error)
	ResolveGlyphsNumberValue(name string) (int16, error)
}

var _ VariationInfo = (*otvar.MetricResolver)(nil)

// InsertMarker tells where generated code for a feature may be inserted: the
// index of the lookup such code would get, within the feature's layout table.
type InsertMarker struct {
	Tag      ot.Tag
	Table    otlayout.LayoutTagType
	LookupID int
}

// Output is the result of a successful compilation.
type Output struct {
	Tables  *otbuild.Compilation
	Markers []InsertMarker // sorted by feature tag
}

// table selects one of the layout tables.
type table int

const (
	gsub table = iota
	gpos
)

func tableFor(t otlayout.LayoutTagType) table {
	if t == otlayout.GPosFeatureType {
		return gpos
	}
	return gsub
}

// feature collects the lookups of a feature tag, over all blocks of that tag.
type feature struct {
	tag      ot.Tag
	lookups  [2][]int
	uiNameID uint16
	refs     []*fea.FeatureRef // features referenced by 'aalt'
}

func (f *feature) add(t table, inx int) {
	for _, l := range f.lookups[t] {
		if l == inx {
			return
		}
	}
	f.lookups[t] = append(f.lookups[t], inx)
}

type namedLookup struct {
	table table
	index int
	empty bool
}

type langSys struct {
	script, lang ot.Tag
}

type compiler struct {
	file     diag.FileID
	glyphs   *fea.GlyphMap
	classes  *fea.ClassTable
	vi       VariationInfo
	varStore *otbuild.VarStoreBuilder
	lookups  [2][]*lookup
	named    map[string]namedLookup
	features map[ot.Tag]*feature
	langSys  []langSys
	names    *otbuild.NameTable
	nameIDs  *otvar.NameAllocator
	markers  map[ot.Tag]InsertMarker
	diags    *diag.DiagnosticSet
}

// Compile compiles a validated syntax tree. vi may be nil for fonts without
// variation axes. Warnings and errors are returned as diagnostics; if there
// are errors, the output is nil.
func Compile(f *fea.File, glyphs *fea.GlyphMap, vi VariationInfo) (*Output, *diag.DiagnosticSet) {
	c := &compiler{
		file:     f.ID,
		glyphs:   glyphs,
		classes:  fea.NewClassTable(glyphs),
		vi:       vi,
		named:    make(map[string]namedLookup),
		features: make(map[ot.Tag]*feature),
		names:    &otbuild.NameTable{},
		nameIDs:  otvar.NewNameAllocator(nil),
		markers:  make(map[ot.Tag]InsertMarker),
		diags:    diag.NewDiagnosticSet(0),
	}
	if vi != nil && vi.AxisCount() > 0 {
		axes := vi.Axes()
		tags := make([]ot.Tag, len(axes))
		for i, a := range axes {
			tags[i] = a.Tag
		}
		c.varStore = otbuild.NewVarStoreBuilder(tags)
	}
	for _, st := range f.Statements {
		switch s := st.(type) {
		case *fea.LanguageSystem:
			c.languageSystem(s)
		case *fea.ClassDef:
			c.defineClass(s)
		case *fea.FeatureBlock:
			c.compileFeature(s)
		case *fea.LookupBlock:
			c.compileLookupBlock(s, 0, false)
		}
	}
	shift := c.buildAalt()
	if c.diags.HasErrors() {
		return nil, c.diags
	}
	out := &Output{
		Tables: &otbuild.Compilation{
			GSub: c.layoutTable(gsub),
			GPos: c.layoutTable(gpos),
			Name: c.names,
		},
		Markers: c.sortedMarkers(shift),
	}
	if c.varStore != nil && !c.varStore.IsEmpty() {
		out.Tables.GDef = &otbuild.GDefTable{VarStore: c.varStore}
	}
	tracer().Debugf("compiled %d GSUB and %d GPOS lookups", len(c.lookups[gsub]), len(c.lookups[gpos]))
	return out, c.diags
}

func (c *compiler) errorf(r diag.ByteRange, code int, format string, args ...interface{}) {
	c.diags.Errorf(c.file, r, code, format, args...)
}

func (c *compiler) warnf(r diag.ByteRange, format string, args ...interface{}) {
	c.diags.Warnf(c.file, r, format, args...)
}

func (c *compiler) languageSystem(ls *fea.LanguageSystem) {
	l := langSys{script: ot.T(ls.Script.Text), lang: ot.T(ls.Lang.Text)}
	for _, known := range c.langSys {
		if known == l {
			c.warnf(ls.Span(), "duplicate languagesystem %s %s", ls.Script.Text, ls.Lang.Text)
			return
		}
	}
	if !otlayout.IsKnownScript(l.script) {
		c.warnf(ls.Script.Span(), "script '%s' is not a registered script", ls.Script.Text)
	}
	tracer().Debugf("language system %s / %s", otlayout.ScriptName(l.script), otlayout.LanguageName(l.lang))
	c.langSys = append(c.langSys, l)
}

func (c *compiler) defineClass(cd *fea.ClassDef) {
	if err := c.classes.Define(cd.Name.Text, cd.Class); err != nil {
		c.diags.AddError(c.file, cd.Span(), core.WrapError(err, core.EVALIDATION, "%v", err))
	}
}

func (c *compiler) feature(tag ot.Tag) *feature {
	f, ok := c.features[tag]
	if !ok {
		f = &feature{tag: tag}
		c.features[tag] = f
	}
	return f
}

// blockState is the state of a block while its rules are compiled.
type blockState struct {
	feature  *feature // nil for top-level lookup blocks
	flag     uint16
	vertical bool
	current  *lookup // implicit lookup rules are currently added to
}

func (c *compiler) compileFeature(fb *fea.FeatureBlock) {
	tag := ot.T(fb.Tag.Text)
	if !otlayout.IsRegisteredFeature(tag) {
		c.warnf(fb.Tag.Span(), "feature '%s' is not a registered feature", fb.Tag.Text)
	}
	st := &blockState{feature: c.feature(tag), vertical: isVertical(tag)}
	for _, s := range fb.Statements {
		switch s := s.(type) {
		case *fea.ClassDef:
			c.defineClass(s)
		case *fea.LookupFlag:
			st.flag = flagValue(s)
			st.current = nil
		case *fea.LookupBlock:
			if nl, ok := c.compileLookupBlock(s, st.flag, st.vertical); ok {
				st.feature.add(nl.table, nl.index)
			}
			st.current = nil
		case *fea.LookupRef:
			if nl, ok := c.named[s.Label.Text]; ok && !nl.empty {
				st.feature.add(nl.table, nl.index)
			}
			st.current = nil
		case *fea.FeatureRef:
			st.feature.refs = append(st.feature.refs, s)
		case *fea.FeatureNames:
			c.featureNames(st.feature, s)
		case *fea.InsertionMarker:
			c.insertMarker(tag, s)
			st.current = nil
		case *fea.SubRule, *fea.PosRule:
			c.compileRule(st, s)
		}
	}
}

// compileLookupBlock compiles a named lookup. A lookup block inside a feature
// inherits the lookup flag in effect at its position.
func (c *compiler) compileLookupBlock(lb *fea.LookupBlock, flag uint16, vertical bool) (namedLookup, bool) {
	st := &blockState{flag: flag, vertical: vertical}
	for _, s := range lb.Statements {
		switch s := s.(type) {
		case *fea.ClassDef:
			c.defineClass(s)
		case *fea.LookupFlag:
			if st.current != nil {
				c.warnf(s.Span(), "lookupflag after the first rule of lookup '%s' is ignored", lb.Label.Text)
				continue
			}
			st.flag = flagValue(s)
		case *fea.SubRule, *fea.PosRule:
			c.compileRule(st, s)
		}
	}
	nl := namedLookup{empty: st.current == nil}
	if st.current != nil {
		nl.table, nl.index = st.current.table, st.current.index
	} else {
		c.warnf(lb.Label.Span(), "lookup '%s' has no rules", lb.Label.Text)
	}
	c.named[lb.Label.Text] = nl
	return nl, !nl.empty
}

// flagValue returns the flag bits of a lookupflag statement.
func flagValue(lf *fea.LookupFlag) uint16 {
	if lf.Numeric {
		return lf.Value
	}
	var v uint16
	for _, f := range lf.Flags {
		v |= fea.LookupFlags[f.Text]
	}
	return v
}

// isVertical is a predicate: do single values of a feature adjust vertical
// advances?
func isVertical(tag ot.Tag) bool {
	return tag == ot.T("vkrn") || tag == ot.T("vpal") || tag == ot.T("valt") || tag == ot.T("vhal")
}

func (c *compiler) featureNames(f *feature, fn *fea.FeatureNames) {
	var text string
	found := false
	for _, ns := range fn.Names {
		if !isWindowsEnglish(ns.IDs) {
			c.warnf(ns.Span(), "only Windows names in English are stored; name ignored")
			continue
		}
		if found {
			c.warnf(ns.Span(), "duplicate feature name ignored")
			continue
		}
		text, found = ns.Text, true
	}
	if !found {
		return
	}
	id, err := c.nameIDs.Next()
	if err != nil {
		c.diags.AddError(c.file, fn.Span(), err)
		return
	}
	c.names.Add(id, text)
	f.uiNameID = id
}

func isWindowsEnglish(ids []int) bool {
	want := []int{otbuild.PlatformWindows, otbuild.EncodingUnicode, otbuild.LanguageEnUS}
	if len(ids) > len(want) {
		return false
	}
	for i, id := range ids {
		if id != want[i] {
			return false
		}
	}
	return true
}

func (c *compiler) insertMarker(tag ot.Tag, m *fea.InsertionMarker) {
	kind := otlayout.FeatureTable(tag)
	c.markers[tag] = InsertMarker{
		Tag:      tag,
		Table:    kind,
		LookupID: len(c.lookups[tableFor(kind)]),
	}
}

// sortedMarkers returns the insertion markers sorted by tag. GSUB lookup IDs
// are shifted by the number of lookups prepended for 'aalt'.
func (c *compiler) sortedMarkers(shift int) []InsertMarker {
	markers := make([]InsertMarker, 0, len(c.markers))
	for _, m := range c.markers {
		if m.Table == otlayout.GSubFeatureType {
			m.LookupID += shift
		}
		markers = append(markers, m)
	}
	sort.Slice(markers, func(i, j int) bool { return markers[i].Tag < markers[j].Tag })
	return markers
}

// --- Table assembly --------------------------------------------------------

func (c *compiler) layoutTable(t table) *otbuild.LayoutTable {
	lt := &otbuild.LayoutTable{}
	for _, l := range c.lookups[t] {
		lt.Lookups = append(lt.Lookups, l.build())
	}
	tags := make([]ot.Tag, 0, len(c.features))
	for tag, f := range c.features {
		if len(f.lookups[t]) > 0 {
			tags = append(tags, tag)
		}
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	indices := make([]uint16, len(tags))
	for i, tag := range tags {
		f := c.features[tag]
		lookups := make([]uint16, len(f.lookups[t]))
		for j, l := range f.lookups[t] {
			lookups[j] = uint16(l)
		}
		feat := otbuild.Feature{Tag: tag, Lookups: lookups}
		if t == gsub {
			feat.UINameID = f.uiNameID
		}
		lt.Features = append(lt.Features, feat)
		indices[i] = uint16(i)
	}
	lt.Scripts = c.scripts(indices)
	return lt
}

// scripts registers all features for every language system. Without any
// languagesystem statement, DFLT/dflt is assumed.
func (c *compiler) scripts(featureIndices []uint16) []otbuild.Script {
	systems := c.langSys
	if len(systems) == 0 {
		systems = []langSys{{script: ot.DFLT, lang: ot.DFLTLang}}
	}
	var scripts []otbuild.Script
	byTag := make(map[ot.Tag]int)
	for _, ls := range systems {
		inx, ok := byTag[ls.script]
		if !ok {
			inx = len(scripts)
			byTag[ls.script] = inx
			scripts = append(scripts, otbuild.Script{Tag: ls.script})
		}
		sys := otbuild.LangSys{Tag: ls.lang, FeatureIndices: featureIndices}
		if ls.lang == ot.DFLTLang {
			scripts[inx].Default = &sys
		} else {
			scripts[inx].Langs = append(scripts[inx].Langs, sys)
		}
	}
	return scripts
}
