package otvar

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAxisNormalizationPinnedPoints(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	for _, a := range []struct{ min, dflt, max float64 }{
		{100, 400, 900},
		{0.3, 0.7, 1.1},
		{-20, 0, 0},
		{50, 50, 200},
		{1, 1, 1},
		{-1000.5, 12.25, 33.75},
	} {
		axis, err := NewAxis("test", a.min, a.dflt, a.max)
		require.NoError(t, err)
		assert.Equal(t, 0.0, axis.Normalize(a.dflt), "default of %v", a)
		if a.min < a.dflt {
			assert.Equal(t, -1.0, axis.Normalize(a.min), "min of %v", a)
		}
		if a.max > a.dflt {
			assert.Equal(t, 1.0, axis.Normalize(a.max), "max of %v", a)
		}
	}
}

func TestAxisNormalizationIsPiecewiseLinear(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	wght, err := NewAxis("wght", 100, 400, 900)
	require.NoError(t, err)
	assert.InDelta(t, -0.5, wght.Normalize(250), 1e-9)
	assert.InDelta(t, 0.5, wght.Normalize(650), 1e-9)
	assert.Equal(t, -1.0, wght.Normalize(50), "values below min are clamped")
	assert.Equal(t, 1.0, wght.Normalize(1000), "values above max are clamped")
	prev := -2.0
	for v := 100.0; v <= 900; v += 25 {
		n := wght.Normalize(v)
		assert.GreaterOrEqual(t, n, prev, "normalization must be monotone")
		prev = n
	}
}

func TestAxisTags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	a, err := NewAxis("wdt", 75, 100, 125)
	require.NoError(t, err)
	assert.Equal(t, "wdt ", a.Tag.String())
	for _, bad := range []string{"", "wghtx", " wgh", "w gh", "wä", "w\tgh"} {
		_, err := NewAxis(bad, 0, 0, 1)
		if assert.Error(t, err, "tag %q should be rejected", bad) {
			assert.Equal(t, core.EAXISTAG, core.Code(err))
		}
	}
}

func TestAxisLabel(t *testing.T) {
	assert.Equal(t, "Weight", Axis{Tag: ot.T("wght")}.Label())
	assert.Equal(t, "Optical Size", Axis{Tag: ot.T("opsz")}.Label())
	assert.Equal(t, "GRAD", Axis{Tag: ot.T("GRAD")}.Label())
	assert.Equal(t, "XO", Axis{Tag: ot.T("XO")}.Label())
}
