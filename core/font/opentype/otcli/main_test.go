package main

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/shaperfont"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAxis(t *testing.T) {
	a, err := parseAxis("wght:100:400:900")
	require.NoError(t, err)
	assert.Equal(t, shaperfont.AxisInfo{Tag: "wght", Min: 100, Default: 400, Max: 900}, a)
	_, err = parseAxis("wght:100:400")
	assert.Equal(t, core.EINVALID, core.Code(err))
	_, err = parseAxis("wght:100:x:900")
	assert.Equal(t, core.EINVALID, core.Code(err))
}

func TestParseCommand(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	cmd, err := parseCommand("compile  lookups:GPOS save:out.otf")
	require.NoError(t, err)
	assert.Equal(t, []Op{{code: COMPILE}, {code: LOOKUPS, arg: "GPOS"}, {code: SAVE, arg: "out.otf"}}, cmd.ops)
	_, err = parseCommand("frobnicate")
	assert.Error(t, err)
}

func TestExecuteWithoutFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	intp := &Intp{project: &shaperfont.Project{
		UnitsPerEm:    1000,
		GlyphOrder:    []string{"A", "V"},
		FeatureSource: "feature kern { pos A V -50 } kern;",
	}}
	intp.compile()
	assert.False(t, intp.result.Succeeded())
	_, err := intp.execute(&Command{ops: []Op{{code: TABLES}}})
	assert.Error(t, err)
	quit, err := intp.execute(&Command{ops: []Op{{code: QUIT}}})
	assert.NoError(t, err)
	assert.True(t, quit)
}
