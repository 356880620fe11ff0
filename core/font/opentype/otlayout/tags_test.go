package otlayout

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestRegisteredFeatures(t *testing.T) {
	for _, tag := range []string{"kern", "liga", "aalt", "ss01", "ss20", "cv01", "cv99"} {
		assert.True(t, IsRegisteredFeature(ot.T(tag)), tag)
	}
	for _, tag := range []string{"ss00", "ss21", "cv00", "cvxx", "abcd", "KERN"} {
		assert.False(t, IsRegisteredFeature(ot.T(tag)), tag)
	}
}

func TestFeatureTable(t *testing.T) {
	assert.Equal(t, GPosFeatureType, FeatureTable(ot.T("kern")))
	assert.Equal(t, GPosFeatureType, FeatureTable(ot.T("mark")))
	assert.Equal(t, GSubFeatureType, FeatureTable(ot.T("liga")))
	assert.Equal(t, GSubFeatureType, FeatureTable(ot.T("ss07")))
	assert.Equal(t, GSubFeatureType, FeatureTable(ot.T("xyzw")))
	assert.Equal(t, "GPOS", GPosFeatureType.String())
}

func TestScriptNames(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	assert.Equal(t, "Latin", ScriptName(ot.T("latn")))
	assert.Equal(t, "Devanagari", ScriptName(ot.T("dev2")))
	assert.Equal(t, "Devanagari", ScriptName(ot.T("deva")))
	assert.Equal(t, "Default", ScriptName(ot.DFLT))
	assert.Equal(t, "xyzw", ScriptName(ot.T("xyzw")))
	assert.True(t, IsKnownScript(ot.T("cyrl")))
	assert.True(t, IsKnownScript(ot.DFLT))
	assert.False(t, IsKnownScript(ot.T("latin")))
	assert.Equal(t, ot.T("latn"), ScriptTagForScript(language.MustParseScript("Latn")))
	assert.Equal(t, ot.DFLT, ScriptTagForScript(language.MustParseScript("Zyyy")))
}

func TestLanguageTagForLanguage(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	langs := []struct {
		in  string
		out string
	}{
		{"DE", "DEU"},
		{"DE_de", "DEU"},
		{"DE_ch", "DEU"},
		{"EN_us", "ENG"},
	}
	for _, pair := range langs {
		tag := LanguageTagForLanguage(language.Make(pair.in), language.High)
		assert.Equal(t, ot.T(pair.out).String(), tag.String(), "expected language match %s", pair.out)
	}
	assert.Equal(t, "German", LanguageName(ot.T("DEU")))
	assert.Equal(t, "Default", LanguageName(ot.DFLTLang))
	assert.Equal(t, "XYZ", LanguageName(ot.T("XYZ")))
}
