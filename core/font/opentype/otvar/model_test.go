package otvar

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Master locations of the fontTools VariationModel documentation, which
// does not care about normalization.
func fontToolsLocations() []NormalizedLocation {
	return []NormalizedLocation{
		Loc("wght", 100),
		Loc("wght", -100),
		Loc("wght", -180),
		Loc("wdth", 0.3),
		Loc("wght", 120, "wdth", 0.3),
		Loc("wght", 120, "wdth", 0.2),
		Loc(),
		Loc("wght", 180, "wdth", 0.3),
		Loc("wght", 180),
	}
}

func TestModelMasterOrder(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	model, err := NewVariationModel(fontToolsLocations(), []ot.Tag{ot.T("wght")})
	require.NoError(t, err)
	expected := []string{
		"{}",
		"{wght=-100}",
		"{wght=-180}",
		"{wght=100}",
		"{wght=180}",
		"{wdth=0.3}",
		"{wdth=0.3,wght=180}",
		"{wdth=0.3,wght=120}",
		"{wdth=0.2,wght=120}",
	}
	sorted := make([]string, 0, len(expected))
	for _, loc := range model.Locations() {
		sorted = append(sorted, loc.String())
	}
	if diff := cmp.Diff(expected, sorted); diff != "" {
		t.Errorf("unexpected master order (-want +got):\n%s", diff)
	}
}

func TestModelDeltaWeights(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	model, err := NewVariationModel(fontToolsLocations(), []ot.Tag{ot.T("wght")})
	require.NoError(t, err)
	weights := func(i int) map[int]float64 {
		m := make(map[int]float64)
		for _, w := range model.deltaWeights[i] {
			m[w.master] = w.weight
		}
		return m
	}
	assert.Empty(t, weights(0))
	for i := 1; i <= 5; i++ {
		assert.Equal(t, map[int]float64{0: 1}, weights(i), "master #%d", i)
	}
	assert.Equal(t, map[int]float64{0: 1, 4: 1, 5: 1}, weights(6))
	w7 := weights(7)
	assert.Len(t, w7, 5)
	assert.InDelta(t, 1.0, w7[0], 1e-9)
	assert.InDelta(t, 0.75, w7[3], 1e-9)
	assert.InDelta(t, 0.25, w7[4], 1e-9)
	assert.InDelta(t, 1.0, w7[5], 1e-9)
	assert.InDelta(t, 2.0/3.0, w7[6], 1e-9)
}

func TestModelSupports(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	locs := []NormalizedLocation{Loc(), Loc("wght", 1), Loc("wght", 0.5)}
	model, err := NewVariationModel(locs, []ot.Tag{ot.T("wght")})
	require.NoError(t, err)
	supports := model.Supports()
	require.Len(t, supports, 3)
	assert.True(t, supports[0].IsDefault())
	tent, ok := supports[1].Tent(ot.T("wght"))
	require.True(t, ok)
	assert.Equal(t, Tent{Lower: 0, Peak: 0.5, Upper: 1}, tent)
	tent, _ = supports[2].Tent(ot.T("wght"))
	assert.Equal(t, Tent{Lower: 0.5, Peak: 1, Upper: 1}, tent, "box of master at 1 is split at 0.5")
}

func TestModelDeltasInterpolateMasters(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	locs := fontToolsLocations()
	model, err := NewVariationModel(locs, []ot.Tag{ot.T("wght")})
	require.NoError(t, err)
	points := make([]PointSeq, len(locs))
	for i, loc := range locs {
		points[i] = PointSeq{Location: loc, Values: []float64{float64(i * 10), float64(-i)}}
	}
	deltas, err := model.Deltas(points)
	require.NoError(t, err)
	require.Len(t, deltas, len(locs))
	for _, p := range points {
		v := model.Interpolate(deltas, p.Location)
		assert.InDeltaSlice(t, p.Values, v, 1e-9, "interpolation at master %s", p.Location)
	}
}

func TestModelErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	_, err := NewVariationModel([]NormalizedLocation{Loc("wght", 1)}, nil)
	assert.Error(t, err, "model without default master")
	model, err := NewVariationModel([]NormalizedLocation{Loc(), Loc("wght", 1)}, nil)
	require.NoError(t, err)
	_, err = model.Deltas([]PointSeq{
		{Location: Loc(), Values: []float64{1}},
		{Location: Loc("wght", 1), Values: []float64{1, 2}},
	})
	assert.Error(t, err, "dimension mismatch")
	_, err = model.Deltas([]PointSeq{
		{Location: Loc(), Values: []float64{1}},
		{Location: Loc("wght", -1), Values: []float64{1}},
	})
	assert.Error(t, err, "location not in model")
}

func TestLocationsAreStructural(t *testing.T) {
	a := Loc("wght", 0.5, "wdth", -1)
	b := NewLocation(AxisCoord{Tag: ot.T("wdth"), Value: -1}, AxisCoord{Tag: ot.T("wght"), Value: 0.5},
		AxisCoord{Tag: ot.T("opsz"), Value: 0})
	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, 0, compareLocations(a, b))
	assert.True(t, Loc("wght", 0).IsDefault())
	assert.False(t, a.Equal(Loc("wght", 0.5)))
}
