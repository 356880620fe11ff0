package otvar

import (
	"math"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// LocatedValue is the value of a metric at a location.
type LocatedValue struct {
	Location NormalizedLocation
	Value    int16
}

// MetricSample is the set of per-master values of a single metric, e.g. a
// kerning adjustment specified at a few axis positions. Locations must be
// unique within a sample.
type MetricSample []LocatedValue

// VariationDelta is the delta of a metric for a region of the design space.
type VariationDelta struct {
	Region Region
	Value  int16
}

// MetricResolver resolves variable metrics into a default value plus deltas.
// It owns the axes of a compilation and a cache of interpolation models.
//
// A MetricResolver is not safe for concurrent use. The feature compiler may
// call it any number of times during a compilation, but only from a single
// goroutine.
type MetricResolver struct {
	axes  []Axis
	cache *ModelCache
}

// NewMetricResolver creates a resolver for a list of axes. The order of axes is
// significant: it is the axis order of the font's 'fvar' table.
func NewMetricResolver(axes []Axis) *MetricResolver {
	order := make([]ot.Tag, len(axes))
	for i, a := range axes {
		order[i] = a.Tag
	}
	r := &MetricResolver{
		axes:  make([]Axis, len(axes)),
		cache: NewModelCache(order),
	}
	copy(r.axes, axes)
	return r
}

// Axes returns the axes of the resolver, in 'fvar' order.
func (r *MetricResolver) Axes() []Axis {
	axes := make([]Axis, len(r.axes))
	copy(axes, r.axes)
	return axes
}

// AxisCount returns the number of axes.
func (r *MetricResolver) AxisCount() int {
	return len(r.axes)
}

// Axis looks up an axis by tag and returns its index and the axis itself.
func (r *MetricResolver) Axis(tag ot.Tag) (int, Axis, bool) {
	for i, a := range r.axes {
		if a.Tag == tag {
			return i, a, true
		}
	}
	return -1, Axis{}, false
}

// Cache returns the model cache of the resolver.
func (r *MetricResolver) Cache() *ModelCache {
	return r.cache
}

// ResolveVariableMetric turns a sparse set of per-location values into a rounded
// default value and a list of rounded deltas, one for every non-default region
// of the interpolation model for the sample's locations.
//
// Errors are of code core.EVARIATION. They are not recoverable for the metric
// in question.
func (r *MetricResolver) ResolveVariableMetric(sample MetricSample) (int16, []VariationDelta, error) {
	if len(sample) == 0 {
		return 0, nil, core.Error(core.EVARIATION, "variable metric without values")
	}
	locations := make([]NormalizedLocation, len(sample))
	points := make([]PointSeq, len(sample))
	seen := make(map[string]bool, len(sample))
	for i, lv := range sample {
		if seen[lv.Location.Key()] {
			return 0, nil, core.Error(core.EVARIATION, "duplicate location %s in variable metric", lv.Location)
		}
		seen[lv.Location.Key()] = true
		locations[i] = lv.Location
		points[i] = PointSeq{Location: lv.Location, Values: []float64{float64(lv.Value)}}
	}
	model, err := r.cache.ModelFor(locations)
	if err != nil {
		return 0, nil, core.WrapError(err, core.EVARIATION, "cannot build variation model: %v", err)
	}
	raw, err := model.Deltas(points)
	if err != nil {
		return 0, nil, core.WrapError(err, core.EVARIATION, "cannot compute deltas: %v", err)
	}
	sum := 0.0
	for _, rd := range raw {
		if len(rd.Values) != 1 {
			return 0, nil, core.Error(core.EVARIATION,
				"region %s contributes %d values, expected exactly one", rd.Region, len(rd.Values))
		}
		if scalar := rd.Region.ScalarAt(model.Default()); scalar != 0 {
			sum += scalar * rd.Values[0]
		}
	}
	dflt, err := roundToInt16(sum)
	if err != nil {
		return 0, nil, err
	}
	deltas := make([]VariationDelta, 0, len(raw))
	for _, rd := range raw {
		if rd.Region.IsDefault() {
			continue
		}
		v, err := roundToInt16(rd.Values[0])
		if err != nil {
			return 0, nil, err
		}
		deltas = append(deltas, VariationDelta{Region: rd.Region, Value: v})
	}
	tracer().Debugf("resolved variable metric to %d + %d deltas", dflt, len(deltas))
	return dflt, deltas, nil
}

// ResolveGlyphsNumberValue would resolve a named numeric design value. This is
// not supported and always fails with an error of code core.EUNSUPPORTED.
func (r *MetricResolver) ResolveGlyphsNumberValue(name string) (int16, error) {
	return 0, core.Error(core.EUNSUPPORTED, "cannot resolve named value %q: named design values are not supported", name)
}

// OTRound rounds to the nearest integer, with ties rounded away from zero.
func OTRound(v float64) float64 {
	return math.Round(v)
}

func roundToInt16(v float64) (int16, error) {
	r := OTRound(v)
	if r < math.MinInt16 || r > math.MaxInt16 || math.IsNaN(r) {
		return 0, core.Error(core.EVARIATION, "metric value %v out of 16-bit range", v)
	}
	return int16(r), nil
}
