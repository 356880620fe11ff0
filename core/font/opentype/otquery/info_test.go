package otquery

import (
	"testing"

	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otlayout"
	"github.com/npillmayer/shaperfont/core/font/opentype/shaperfont"
	"github.com/stretchr/testify/suite"
)

// --- Test Suite Preparation ------------------------------------------------

type InfoTestEnviron struct {
	suite.Suite
	otf   *ot.Font
	plain *ot.Font
}

// listen for 'go test' command --> run test methods
func TestInfoFunctions(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	suite.Run(t, new(InfoTestEnviron))
}

const testSource = `languagesystem DFLT dflt;
languagesystem latn dflt;
languagesystem latn TRK;
feature kern {
    pos A V (wght=400:-50 wght=900:-80);
} kern;
feature ss01 {
    featureNames { name "Swash"; };
    sub A by A.alt;
} ss01;
`

// run once, before test suite methods
func (env *InfoTestEnviron) SetupSuite() {
	env.T().Log("Setting up test suite")
	tracing.Select("shaperfont.fonts").SetTraceLevel(tracing.LevelError)
	env.otf = buildFont(env.T(), testSource, []shaperfont.AxisInfo{{Tag: "wght", Min: 100, Default: 400, Max: 900}})
	env.plain = buildFont(env.T(), "feature liga { sub A V by A.alt; } liga;", nil)
	tracing.Select("shaperfont.fonts").SetTraceLevel(tracing.LevelInfo)
}

// run once, after test suite methods
func (env *InfoTestEnviron) TearDownSuite() {
	env.T().Log("Tearing down test suite")
}

// --- Tests -----------------------------------------------------------------

func (env *InfoTestEnviron) TestFontTypeInfo() {
	fti := FontType(env.otf)
	env.Equal("TrueType", fti, "expected font type of shaper font to be TrueType")
	env.Equal(uint16(1000), UnitsPerEm(env.otf))
}

func (env *InfoTestEnviron) TestLayoutInfo() {
	env.Equal([]string{"GDEF", "GPOS", "GSUB"}, LayoutTables(env.otf))
	env.Equal([]string{"GSUB"}, LayoutTables(env.plain))
}

func (env *InfoTestEnviron) TestNames() {
	names := Names(env.otf)
	env.Equal(map[uint16]string{256: "Swash", 257: "Weight"}, names)
	env.Empty(Names(env.plain))
}

func (env *InfoTestEnviron) TestFeatures() {
	features := Features(env.otf)
	env.Require().Len(features, 2)
	env.Equal(ot.T("ss01"), features[0].Tag)
	env.Equal(otlayout.GSubFeatureType, features[0].Table)
	env.Equal("Swash", features[0].UIName)
	env.Equal(ot.T("kern"), features[1].Tag)
	env.Equal(otlayout.GPosFeatureType, features[1].Table)
	env.Equal([]uint16{0}, features[1].Lookups)
	env.Equal("", features[1].UIName)
}

func (env *InfoTestEnviron) TestLanguageMatch() {
	script, lang := FontSupportsScript(env.otf, ot.T("latn"), ot.T("TRK"))
	env.Equal("latn", script.String(), "expected Latin script in test font")
	env.Equal("TRK ", lang.String(), "expected Turkish language support in test font")
	script, lang = FontSupportsScript(env.otf, ot.T("latn"), ot.T("DEU"))
	env.Equal(ot.T("latn"), script)
	env.Equal(ot.DFLT, lang)
	script, _ = FontSupportsScript(env.otf, ot.T("cyrl"), ot.T("RUS"))
	env.Equal(ot.DFLT, script)
	env.Equal([]ot.Tag{ot.DFLT, ot.T("latn")}, Scripts(env.otf))
}

func (env *InfoTestEnviron) TestVariations() {
	axes := VariationAxes(env.otf)
	env.Require().Len(axes, 1)
	env.Equal(AxisInfo{Tag: ot.T("wght"), Min: 100, Default: 400, Max: 900, Name: "Weight"}, axes[0])
	env.Equal(1, VariationRegions(env.otf))
	env.Nil(VariationAxes(env.plain))
	env.Equal(0, VariationRegions(env.plain))
}

// --- Helpers ---------------------------------------------------------------

func buildFont(t *testing.T, src string, axes []shaperfont.AxisInfo) *ot.Font {
	r := shaperfont.BuildShaperFont(1000, []string{".notdef", "A", "V", "A.alt"}, src, axes)
	if !r.Succeeded() {
		t.Fatalf("cannot compile test font: %s", r.Report)
	}
	otf, err := ot.Parse(r.FontData)
	if err != nil {
		t.Fatalf("cannot decode test font: %s", err)
	}
	return otf
}
