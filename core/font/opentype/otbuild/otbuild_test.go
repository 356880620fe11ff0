package otbuild

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otvar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyCompilation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	c := &Compilation{Head: &HeadTable{FontRevision: 0x10000, UnitsPerEm: 2048}}
	fb, err := c.ToFontBuilder()
	require.NoError(t, err)
	assert.Equal(t, []ot.Tag{ot.T("head")}, fb.Tags())
	font := fb.Build()
	assert.Equal(t, uint32(0xb1b0afba), checksum(font))
	otf, err := ot.Parse(font)
	require.NoError(t, err)
	head := otf.Table(ot.T("head")).Self().AsHead()
	require.NotNil(t, head)
	assert.Equal(t, uint16(2048), head.UnitsPerEm)
	assert.Equal(t, uint16(1), otf.Header.TableCount)
}

func TestBuildIsDeterministic(t *testing.T) {
	build := func() []byte {
		fb := NewFontBuilder()
		fb.AddTable(ot.T("zzzz"), []byte{1, 2, 3})
		fb.AddTable(ot.T("head"), DefaultHead().Encode())
		fb.AddTable(ot.T("aaaa"), []byte{4, 5, 6, 7, 8})
		return fb.Build()
	}
	f1, f2 := build(), build()
	assert.Equal(t, f1, f2)
	otf, err := ot.Parse(f1)
	require.NoError(t, err)
	assert.Equal(t, []ot.Tag{ot.T("aaaa"), ot.T("head"), ot.T("zzzz")}, otf.TableTags())
	assert.Equal(t, 0, len(f1)%4)
	off, size := otf.Table(ot.T("zzzz")).Extent()
	assert.Equal(t, uint32(3), size)
	assert.Equal(t, uint32(0), off%4)
	// 3 tables: largest power of 2 ≤ 3 is 2
	assert.Equal(t, uint16(32), otf.Header.SearchRange)
	assert.Equal(t, uint16(1), otf.Header.EntrySelector)
	assert.Equal(t, uint16(16), otf.Header.RangeShift)
}

func TestNameAndFVar(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	wght, err := otvar.NewAxis("wght", 100, 400, 900)
	require.NoError(t, err)
	names := &NameTable{}
	names.Add(256, "Small Caps")
	axes, err := otvar.BuildAxisTable([]otvar.Axis{wght}, names.NameIDs())
	require.NoError(t, err)
	names.AddAxisNames(axes)
	fb, err := (&Compilation{Name: names}).ToFontBuilder()
	require.NoError(t, err)
	fb.AddTable(ot.T("fvar"), EncodeFVar(axes))
	otf, err := ot.Parse(fb.Build())
	require.NoError(t, err)
	name := otf.Table(ot.T("name")).Self().AsName()
	require.NotNil(t, name)
	assert.Equal(t, []uint16{256, 257}, name.NameIDs())
	label, ok := name.Lookup(257)
	assert.True(t, ok)
	assert.Equal(t, "Weight", label)
	fvar := otf.Table(ot.T("fvar")).Self().AsFVar()
	require.NotNil(t, fvar)
	require.Len(t, fvar.Axes, 1)
	assert.Equal(t, ot.T("wght"), fvar.Axes[0].Tag)
	assert.Equal(t, 100.0, fvar.Axes[0].Min.Float())
	assert.Equal(t, 400.0, fvar.Axes[0].Default.Float())
	assert.Equal(t, 900.0, fvar.Axes[0].Max.Float())
	assert.Equal(t, uint16(257), fvar.Axes[0].NameID)
	assert.Equal(t, 0, fvar.InstanceCount)
}

func TestLayoutTables(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	dflt := &LangSys{FeatureIndices: []uint16{0, 1}}
	gsub := &LayoutTable{
		Scripts: []Script{{Tag: ot.DFLT, Default: dflt}},
		Features: []Feature{
			{Tag: ot.T("liga"), Lookups: []uint16{1}},
			{Tag: ot.T("ss01"), Lookups: []uint16{0}, UINameID: 256},
		},
		Lookups: []Lookup{
			{Type: GSubSingle, SubTables: []SubTable{&SingleSubst{Mapping: map[ot.GlyphIndex]ot.GlyphIndex{1: 3}}}},
			{Type: GSubLigature, Flag: IgnoreMarks, SubTables: []SubTable{&LigatureSubst{
				Ligatures: []Ligature{{Components: []ot.GlyphIndex{1, 2}, Glyph: 4}},
			}}},
		},
	}
	gpos := &LayoutTable{
		Scripts: []Script{{Tag: ot.DFLT, Default: &LangSys{FeatureIndices: []uint16{0}}}},
		Features: []Feature{
			{Tag: ot.T("kern"), Lookups: []uint16{0}},
		},
		Lookups: []Lookup{
			{Type: GPosPair, SubTables: []SubTable{&PairPos{Pairs: map[ot.GlyphIndex][]PairValue{
				1: {{Second: 2, Value: ValueRecord{XAdvance: -50}}},
			}}}},
		},
	}
	c := &Compilation{Head: DefaultHead(), GSub: gsub, GPos: gpos}
	fb, err := c.ToFontBuilder()
	require.NoError(t, err)
	otf, err := ot.Parse(fb.Build())
	require.NoError(t, err)
	sub := otf.Table(ot.T("GSUB")).Self().AsLayout()
	require.NotNil(t, sub)
	assert.Equal(t, []ot.Tag{ot.T("liga"), ot.T("ss01")}, sub.FeatureTags())
	assert.False(t, sub.Features[0].HasParams)
	assert.True(t, sub.Features[1].HasParams)
	assert.Equal(t, []uint16{0}, sub.Features[1].LookupIndices)
	require.Len(t, sub.Lookups, 2)
	assert.Equal(t, ot.Lookup{Type: 4, Flag: IgnoreMarks, SubTableCount: 1}, sub.Lookups[1])
	assert.Equal(t, []ot.Tag{ot.DFLTLang}, sub.Scripts[ot.DFLT])
	pos := otf.Table(ot.T("GPOS")).Self().AsLayout()
	require.NotNil(t, pos)
	assert.Equal(t, []ot.Tag{ot.T("kern")}, pos.FeatureTags())
	assert.Equal(t, uint16(GPosPair), pos.Lookups[0].Type)
	assert.Nil(t, otf.Table(ot.T("GDEF")), "no GDEF without variations")
}

func TestSingleSubstEncoding(t *testing.T) {
	st := &SingleSubst{Mapping: map[ot.GlyphIndex]ot.GlyphIndex{5: 9, 3: 7}}
	data, err := st.Encode()
	require.NoError(t, err)
	expected := []byte{
		0, 2, // format
		0, 10, // coverage offset
		0, 2, // glyph count
		0, 7, 0, 9, // substitutes, in coverage order
		0, 1, 0, 2, 0, 3, 0, 5, // coverage format 1
	}
	assert.Equal(t, expected, data)
}

func TestCoverageFormats(t *testing.T) {
	assert.Equal(t, []byte{0, 1, 0, 2, 0, 3, 0, 9}, encodeCoverage([]ot.GlyphIndex{3, 9}))
	assert.Equal(t, []byte{0, 2, 0, 1, 0, 10, 0, 14, 0, 0},
		encodeCoverage([]ot.GlyphIndex{10, 11, 12, 13, 14}))
}

func TestPairPosWithDevice(t *testing.T) {
	pp := &PairPos{Pairs: map[ot.GlyphIndex][]PairValue{
		1: {{Second: 2, Value: ValueRecord{XAdvance: -50, XAdvDevice: &VariationIndex{Outer: 0, Inner: 1}}}},
	}}
	data, err := pp.Encode()
	require.NoError(t, err)
	expected := []byte{
		0, 1, // format
		0, 20, // coverage offset
		0, 0x44, // value format 1: XAdvance | XAdvanceDevice
		0, 0, // value format 2
		0, 1, // pair set count
		0, 12, // pair set offset
		0, 1, // pair value count
		0, 2, // second glyph
		0xff, 0xce, // -50
		0, 26, // device offset, relative to subtable
		0, 1, 0, 1, 0, 1, // coverage
		0, 0, 0, 1, 0x80, 0, // variation index
	}
	assert.Equal(t, expected, data)
}

func TestVarStore(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	wght, _ := otvar.NewAxis("wght", 100, 400, 900)
	resolver := otvar.NewMetricResolver([]otvar.Axis{wght})
	_, deltas, err := resolver.ResolveVariableMetric(otvar.MetricSample{
		{Location: otvar.Loc(), Value: -50},
		{Location: otvar.Loc("wght", 1), Value: 50},
	})
	require.NoError(t, err)
	store := NewVarStoreBuilder([]ot.Tag{ot.T("wght")})
	vi1, err := store.Add(deltas)
	require.NoError(t, err)
	vi2, err := store.Add(deltas)
	require.NoError(t, err)
	assert.Equal(t, vi1, vi2, "identical delta sets are shared")
	assert.Equal(t, 1, store.RegionCount())
	data, err := store.Encode()
	require.NoError(t, err)
	expected := []byte{
		0, 1, // format
		0, 0, 0, 12, // region list offset
		0, 1, // data count
		0, 0, 0, 22, // data offset
		0, 1, 0, 1, // axis count, region count
		0, 0, 0x40, 0, 0x40, 0, // 0, 1, 1
		0, 1, 0, 1, 0, 1, 0, 0, // item count, word count, region index count, region index
		0, 100, // delta
	}
	assert.Equal(t, expected, data)
	_, err = store.Add([]otvar.VariationDelta{{Region: otvar.Region{{Tag: ot.T("wdth")}}, Value: 1}})
	assert.Equal(t, core.EVARIATION, core.Code(err))
	//
	fb, err := (&Compilation{GDef: &GDefTable{VarStore: store}}).ToFontBuilder()
	require.NoError(t, err)
	otf, err := ot.Parse(fb.Build())
	require.NoError(t, err)
	gdef := otf.Table(ot.T("GDEF")).Self().AsGDef()
	require.NotNil(t, gdef)
	assert.Equal(t, uint16(3), gdef.Minor)
	assert.Equal(t, uint32(18), gdef.ItemVarStore)
	assert.Equal(t, 1, gdef.VarRegionCount)
	assert.Equal(t, 1, gdef.VarDataCount)
}

func TestAssemblySharesChildren(t *testing.T) {
	a := newAssembly()
	a.offset16([]byte{7, 7})
	a.offset16(nil)
	a.offset16([]byte{7, 7})
	data, err := a.bytes("test")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 6, 0, 0, 0, 6, 7, 7}, data)
}
