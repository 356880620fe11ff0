package feacomp

import (
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/diag"
	"github.com/npillmayer/shaperfont/core/font/opentype/fea"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otbuild"
	"github.com/npillmayer/shaperfont/core/font/opentype/otlayout"
	"github.com/npillmayer/shaperfont/core/font/opentype/otvar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var glyphOrder = []string{".notdef", "A", "V", "A.alt", "f", "i", "fi"}

// gids of glyphOrder
const (
	gA ot.GlyphIndex = iota + 1
	gV
	gAalt
	gF
	gI
	gFI
)

func compile(t *testing.T, src string, vi VariationInfo) (*Output, *diag.DiagnosticSet) {
	f, diags := fea.Parse(src, 0)
	require.True(t, diags.IsEmpty(), "parse: %v", diags.Err())
	glyphs := fea.NewGlyphMap(glyphOrder)
	var axes fea.VariationAxes
	if vi != nil {
		axes = vi
	}
	diags = fea.Validate(f, glyphs, axes)
	require.False(t, diags.HasErrors(), "validation: %v", diags.Err())
	return Compile(f, glyphs, vi)
}

func lookupTypes(lt *otbuild.LayoutTable) []uint16 {
	var types []uint16
	for _, l := range lt.Lookups {
		types = append(types, l.Type)
	}
	return types
}

func TestCompileKern(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	src := `languagesystem DFLT dflt;
feature kern {
    # Automatic Code
    pos A V -50;
    pos V A -30;
} kern;
`
	out, diags := compile(t, src, nil)
	require.NotNil(t, out, "%v", diags.Err())
	assert.True(t, diags.IsEmpty())
	assert.True(t, out.Tables.GSub.IsEmpty())
	assert.Nil(t, out.Tables.GDef)
	gpos := out.Tables.GPos
	require.Len(t, gpos.Lookups, 1)
	assert.Equal(t, otbuild.GPosPair, gpos.Lookups[0].Type)
	require.Len(t, gpos.Features, 1)
	assert.Equal(t, ot.T("kern"), gpos.Features[0].Tag)
	assert.Equal(t, []uint16{0}, gpos.Features[0].Lookups)
	require.Len(t, gpos.Scripts, 1)
	assert.Equal(t, ot.DFLT, gpos.Scripts[0].Tag)
	require.NotNil(t, gpos.Scripts[0].Default)
	assert.Equal(t, []uint16{0}, gpos.Scripts[0].Default.FeatureIndices)
	pairs := gpos.Lookups[0].SubTables[0].(*otbuild.PairPos).Pairs
	assert.Equal(t, []otbuild.PairValue{{Second: gV, Value: otbuild.ValueRecord{XAdvance: -50}}}, pairs[gA])
	assert.Equal(t, []otbuild.PairValue{{Second: gA, Value: otbuild.ValueRecord{XAdvance: -30}}}, pairs[gV])
	assert.Equal(t, []InsertMarker{{Tag: ot.T("kern"), Table: otlayout.GPosFeatureType, LookupID: 0}}, out.Markers)
}

func TestClassPairsAreExpanded(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	src := "@LEFT = [A A.alt];\nfeature kern { pos @LEFT [V f] <0 0 -10 0>; } kern;"
	out, diags := compile(t, src, nil)
	require.NotNil(t, out, "%v", diags.Err())
	pairs := out.Tables.GPos.Lookups[0].SubTables[0].(*otbuild.PairPos).Pairs
	assert.Len(t, pairs, 2)
	assert.Len(t, pairs[gA], 2)
	assert.Len(t, pairs[gAalt], 2)
}

func TestImplicitLookups(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	src := `feature liga {
    sub f i by fi;
    sub A by A.alt;
    sub V by A;
    lookupflag IgnoreMarks;
    sub f by A;
} liga;
`
	out, diags := compile(t, src, nil)
	require.NotNil(t, out, "%v", diags.Err())
	gsub := out.Tables.GSub
	assert.Equal(t, []uint16{otbuild.GSubLigature, otbuild.GSubSingle, otbuild.GSubSingle}, lookupTypes(gsub))
	assert.Equal(t, uint16(0), gsub.Lookups[1].Flag)
	assert.Equal(t, otbuild.IgnoreMarks, gsub.Lookups[2].Flag)
	assert.Equal(t, []uint16{0, 1, 2}, gsub.Features[0].Lookups)
	single := gsub.Lookups[1].SubTables[0].(*otbuild.SingleSubst)
	assert.Equal(t, map[ot.GlyphIndex]ot.GlyphIndex{gA: gAalt, gV: gA}, single.Mapping)
	lig := gsub.Lookups[0].SubTables[0].(*otbuild.LigatureSubst)
	assert.Equal(t, []otbuild.Ligature{{Components: []ot.GlyphIndex{gF, gI}, Glyph: gFI}}, lig.Ligatures)
}

func TestNamedLookups(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	src := `lookup ALT { sub A by A.alt; } ALT;
feature ss01 { lookup ALT; } ss01;
feature ss02 { lookup ALT; sub V by A; } ss02;
`
	out, diags := compile(t, src, nil)
	require.NotNil(t, out, "%v", diags.Err())
	gsub := out.Tables.GSub
	require.Len(t, gsub.Lookups, 2)
	require.Len(t, gsub.Features, 2)
	assert.Equal(t, ot.T("ss01"), gsub.Features[0].Tag)
	assert.Equal(t, []uint16{0}, gsub.Features[0].Lookups)
	assert.Equal(t, []uint16{0, 1}, gsub.Features[1].Lookups)
}

func TestAaltAndFeatureNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	src := `feature kern {
    # Automatic Code
    pos A V -50;
} kern;
feature ss01 {
    featureNames { name "Small Caps"; };
    sub A by A.alt;
} ss01;
feature aalt {
    feature liga;
    feature ss01;
} aalt;
`
	out, diags := compile(t, src, nil)
	require.NotNil(t, out, "%v", diags.Err())
	assert.True(t, diags.IsEmpty())
	gsub := out.Tables.GSub
	require.Len(t, gsub.Lookups, 2)
	aalt := gsub.Lookups[0].SubTables[0].(*otbuild.SingleSubst)
	assert.Equal(t, map[ot.GlyphIndex]ot.GlyphIndex{gA: gAalt}, aalt.Mapping)
	require.Len(t, gsub.Features, 2)
	assert.Equal(t, otbuild.Feature{Tag: ot.T("aalt"), Lookups: []uint16{0}}, gsub.Features[0])
	assert.Equal(t, otbuild.Feature{Tag: ot.T("ss01"), Lookups: []uint16{1}, UINameID: 256}, gsub.Features[1])
	assert.Equal(t, []otbuild.NameRecord{{NameID: 256, Value: "Small Caps"}}, out.Tables.Name.Records)
	assert.Equal(t, []InsertMarker{{Tag: ot.T("kern"), Table: otlayout.GPosFeatureType}}, out.Markers)
}

func TestAaltShiftsMarkers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	src := `feature liga {
    sub f i by fi;
    # Automatic Code
    sub A by A.alt;
} liga;
feature salt { sub V from [A A.alt]; } salt;
feature aalt { feature liga; feature salt; } aalt;
`
	out, diags := compile(t, src, nil)
	require.NotNil(t, out, "%v", diags.Err())
	gsub := out.Tables.GSub
	// aalt single (A), aalt alternate (V), liga ligature, liga single, salt alternate
	assert.Equal(t, []uint16{otbuild.GSubSingle, otbuild.GSubAlternate, otbuild.GSubLigature,
		otbuild.GSubSingle, otbuild.GSubAlternate}, lookupTypes(gsub))
	alts := gsub.Lookups[1].SubTables[0].(*otbuild.AlternateSubst).Alternates
	assert.Equal(t, map[ot.GlyphIndex][]ot.GlyphIndex{gV: {gA, gAalt}}, alts)
	tags := []ot.Tag{}
	for _, f := range gsub.Features {
		tags = append(tags, f.Tag)
	}
	assert.Equal(t, []ot.Tag{ot.T("aalt"), ot.T("liga"), ot.T("salt")}, tags)
	assert.Equal(t, []uint16{0, 1}, gsub.Features[0].Lookups)
	assert.Equal(t, []uint16{2, 3}, gsub.Features[1].Lookups)
	assert.Equal(t, []uint16{4}, gsub.Features[2].Lookups)
	require.Len(t, out.Markers, 1)
	assert.Equal(t, 3, out.Markers[0].LookupID)
}

func TestConflictsAndDuplicates(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	out, diags := compile(t, "feature liga { sub A by V; sub A by A.alt; } liga;", nil)
	assert.Nil(t, out)
	require.True(t, diags.HasErrors())
	d := diags.Diagnostics()[0]
	assert.Equal(t, core.EVALIDATION, d.Code)
	assert.Equal(t, "conflicting substitution: 'A' by 'V' and 'A.alt'", d.Text)
	//
	out, diags = compile(t, "feature liga { sub A by V; sub A by V; } liga;", nil)
	require.NotNil(t, out)
	require.Equal(t, 1, diags.Len())
	assert.Equal(t, "duplicate rule", diags.Diagnostics()[0].Text)
	assert.False(t, diags.HasErrors())
	//
	out, diags = compile(t, "feature kern { pos A V -5; pos A V -7; } kern;", nil)
	require.NotNil(t, out)
	require.Equal(t, 1, diags.Len())
	assert.Contains(t, diags.Diagnostics()[0].Text, "keeping the first value")
	pairs := out.Tables.GPos.Lookups[0].SubTables[0].(*otbuild.PairPos).Pairs
	assert.Equal(t, int16(-5), pairs[gA][0].Value.XAdvance)
}

func TestUnregisteredFeatureWarning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	out, diags := compile(t, "feature xyzw { sub A by V; } xyzw;", nil)
	require.NotNil(t, out)
	require.Equal(t, 1, diags.Len())
	assert.Equal(t, "feature 'xyzw' is not a registered feature", diags.Diagnostics()[0].Text)
}

func TestLanguageSystems(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	src := `languagesystem DFLT dflt;
languagesystem latn dflt;
languagesystem latn DEU;
languagesystem latn DEU;
languagesystem qwer dflt;
feature liga { sub f i by fi; } liga;
`
	out, diags := compile(t, src, nil)
	require.NotNil(t, out)
	require.Equal(t, 2, diags.Len())
	assert.Equal(t, "duplicate languagesystem latn DEU", diags.Diagnostics()[0].Text)
	assert.Equal(t, "script 'qwer' is not a registered script", diags.Diagnostics()[1].Text)
	scripts := out.Tables.GSub.Scripts
	require.Len(t, scripts, 3)
}

func TestVariableKerning(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	wght, err := otvar.NewAxis("wght", 100, 400, 900)
	require.NoError(t, err)
	resolver := otvar.NewMetricResolver([]otvar.Axis{wght})
	src := `feature kern {
    pos A V (wght=400:-50 wght=900:-80);
    pos V A (wght=400:-20 wght=900:-20);
    pos A A (wght=400:10 wght=900:40);
} kern;
`
	out, diags := compile(t, src, resolver)
	require.NotNil(t, out, "%v", diags.Err())
	require.NotNil(t, out.Tables.GDef)
	assert.Equal(t, 1, out.Tables.GDef.VarStore.RegionCount())
	pairs := out.Tables.GPos.Lookups[0].SubTables[0].(*otbuild.PairPos).Pairs
	var av, aa otbuild.ValueRecord
	for _, pv := range pairs[gA] {
		switch pv.Second {
		case gV:
			av = pv.Value
		case gA:
			aa = pv.Value
		}
	}
	assert.Equal(t, int16(-50), av.XAdvance)
	require.NotNil(t, av.XAdvDevice)
	assert.Equal(t, otbuild.VariationIndex{Outer: 0, Inner: 0}, *av.XAdvDevice)
	assert.Equal(t, int16(10), aa.XAdvance)
	require.NotNil(t, aa.XAdvDevice)
	assert.Equal(t, otbuild.VariationIndex{Outer: 0, Inner: 1}, *aa.XAdvDevice)
	// constant values do not vary
	assert.Equal(t, []otbuild.PairValue{{Second: gA, Value: otbuild.ValueRecord{XAdvance: -20}}}, pairs[gV])
	assert.Equal(t, 1, resolver.Cache().Len())
}

func TestVariableMetricWithoutDefault(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	wght, _ := otvar.NewAxis("wght", 100, 400, 900)
	resolver := otvar.NewMetricResolver([]otvar.Axis{wght})
	out, diags := compile(t, "feature kern { pos A V (wght=100:-30 wght=900:-80); } kern;", resolver)
	assert.Nil(t, out)
	require.True(t, diags.HasErrors())
	assert.Equal(t, core.EVARIATION, diags.Diagnostics()[0].Code)
}

func TestNamedValueIsUnsupported(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	src := "feature kern { pos A V $tight; } kern;"
	at := strings.Index(src, "$tight")
	wght, _ := otvar.NewAxis("wght", 100, 400, 900)
	for _, vi := range []VariationInfo{otvar.NewMetricResolver([]otvar.Axis{wght}), nil} {
		out, diags := compile(t, src, vi)
		assert.Nil(t, out)
		require.Equal(t, 1, diags.Len())
		d := diags.Diagnostics()[0]
		assert.Equal(t, core.EUNSUPPORTED, d.Code)
		assert.Equal(t, diag.ByteRange{Start: at, End: at + len("$tight")}, d.Range)
		assert.Contains(t, d.Text, "not supported")
	}
}
