package otvar

import (
	"fmt"
	"math"
	"sort"

	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// VariationModel is an interpolation model over a set of master locations.
// Every master is assigned a region of support, and deltas of a master are
// relative to the interpolation of all masters preceding it in model order.
//
// Construction follows fontTools.varLib.models.VariationModel, without
// extrapolation. Models are read-only after construction; two models built from
// equal location sets (in any order) produce identical deltas.
type VariationModel struct {
	axisOrder    []ot.Tag
	locations    []NormalizedLocation // masters in model order
	supports     []Region             // region of support, per master
	deltaWeights [][]deltaWeight      // weights of previous masters, per master
	index        map[string]int       // location key → model order
}

type deltaWeight struct {
	master int
	weight float64
}

// PointSeq is a sequence of values at a master location.
type PointSeq struct {
	Location NormalizedLocation
	Values   []float64
}

// RegionDeltas are the deltas of a master, together with its region of support.
type RegionDeltas struct {
	Region Region
	Values []float64
}

// NewVariationModel creates an interpolation model for a set of locations. The
// default location has to be part of the set. axisOrder is used to sort the
// masters; axes not contained in it are ordered by tag.
func NewVariationModel(locations []NormalizedLocation, axisOrder []ot.Tag) (*VariationModel, error) {
	m := &VariationModel{
		axisOrder: axisOrder,
		index:     make(map[string]int, len(locations)),
	}
	hasDefault := false
	seen := make(map[string]bool, len(locations))
	for _, loc := range locations {
		if seen[loc.Key()] {
			return nil, fmt.Errorf("duplicate master location %s", loc)
		}
		seen[loc.Key()] = true
		if loc.IsDefault() {
			hasDefault = true
		}
		m.locations = append(m.locations, loc)
	}
	if !hasDefault {
		return nil, fmt.Errorf("base master not found: no value at default location")
	}
	axisPoints := onAxisPoints(m.locations)
	sort.SliceStable(m.locations, func(i, j int) bool {
		return m.compareMasters(m.locations[i], m.locations[j], axisPoints) < 0
	})
	for i, loc := range m.locations {
		m.index[loc.Key()] = i
	}
	m.computeMasterSupports()
	m.computeDeltaWeights()
	tracer().Debugf("variation model with %d masters: %v", len(m.locations), m.locations)
	return m, nil
}

// Locations returns the master locations in model order.
func (m *VariationModel) Locations() []NormalizedLocation {
	locs := make([]NormalizedLocation, len(m.locations))
	copy(locs, m.locations)
	return locs
}

// Supports returns the regions of support of the masters, in model order.
func (m *VariationModel) Supports() []Region {
	return m.supports
}

// Default returns the default location of the model.
func (m *VariationModel) Default() NormalizedLocation {
	return NormalizedLocation{}
}

// Deltas decomposes the values at the masters of m into deltas, one per master
// region, in model order. Every master location of the model must be covered by
// exactly one point sequence, and all sequences must have equal length.
func (m *VariationModel) Deltas(points []PointSeq) ([]RegionDeltas, error) {
	if len(points) != len(m.locations) {
		return nil, fmt.Errorf("model has %d masters, got values for %d locations",
			len(m.locations), len(points))
	}
	values := make([][]float64, len(m.locations))
	dim := -1
	for _, p := range points {
		i, ok := m.index[p.Location.Key()]
		if !ok {
			return nil, fmt.Errorf("location %s is not a master of the model", p.Location)
		}
		if values[i] != nil {
			return nil, fmt.Errorf("duplicate values for location %s", p.Location)
		}
		if dim < 0 {
			dim = len(p.Values)
		} else if len(p.Values) != dim {
			return nil, fmt.Errorf("value sequences differ in length: %d vs. %d", dim, len(p.Values))
		}
		values[i] = p.Values
	}
	out := make([]RegionDeltas, len(m.locations))
	for i, weights := range m.deltaWeights {
		delta := make([]float64, dim)
		copy(delta, values[i])
		for _, w := range weights {
			for k := range delta {
				if w.weight == 1 {
					delta[k] -= out[w.master].Values[k]
				} else {
					delta[k] -= out[w.master].Values[k] * w.weight
				}
			}
		}
		out[i] = RegionDeltas{Region: m.supports[i], Values: delta}
	}
	return out, nil
}

// Interpolate computes the value at an arbitrary location from master deltas.
func (m *VariationModel) Interpolate(deltas []RegionDeltas, loc NormalizedLocation) []float64 {
	if len(deltas) == 0 {
		return nil
	}
	v := make([]float64, len(deltas[0].Values))
	for _, d := range deltas {
		scalar := d.Region.ScalarAt(loc)
		if scalar == 0 {
			continue
		}
		for k := range v {
			v[k] += scalar * d.Values[k]
		}
	}
	return v
}

// --- Model construction ----------------------------------------------------

// onAxisPoints collects, per axis, the values of masters located on that axis
// alone. 0 is an on-axis point for every axis.
func onAxisPoints(locations []NormalizedLocation) map[ot.Tag]map[float64]bool {
	points := make(map[ot.Tag]map[float64]bool)
	for _, loc := range locations {
		if loc.Len() != 1 {
			continue
		}
		c := loc.coords[0]
		if points[c.Tag] == nil {
			points[c.Tag] = map[float64]bool{0: true}
		}
		points[c.Tag][c.Value] = true
	}
	return points
}

// orderedAxes returns the axes of a location: first the ones contained in the
// model's axis order (in that order), then the rest, ordered by tag.
func (m *VariationModel) orderedAxes(loc NormalizedLocation) []ot.Tag {
	axes := make([]ot.Tag, 0, loc.Len())
	for _, tag := range m.axisOrder {
		if loc.Has(tag) {
			axes = append(axes, tag)
		}
	}
	for _, c := range loc.coords { // coords are sorted by tag
		if m.axisOrderIndex(c.Tag) == unorderedAxis {
			axes = append(axes, c.Tag)
		}
	}
	return axes
}

const unorderedAxis = 0x10000

func (m *VariationModel) axisOrderIndex(tag ot.Tag) int {
	for i, t := range m.axisOrder {
		if t == tag {
			return i
		}
	}
	return unorderedAxis
}

// compareMasters orders master locations: by increasing rank, then by decreasing
// number of on-axis coordinates, then by axis order, by axis tags, by signs of
// coordinates and finally by absolute values of coordinates.
func (m *VariationModel) compareMasters(a, b NormalizedLocation, axisPoints map[ot.Tag]map[float64]bool) int {
	if a.Len() != b.Len() {
		return a.Len() - b.Len()
	}
	onPoint := func(loc NormalizedLocation) int {
		n := 0
		for _, c := range loc.coords {
			if pts, ok := axisPoints[c.Tag]; ok && pts[c.Value] {
				n++
			}
		}
		return n
	}
	if pa, pb := onPoint(a), onPoint(b); pa != pb {
		return pb - pa
	}
	axesA, axesB := m.orderedAxes(a), m.orderedAxes(b)
	for i := range axesA {
		if ia, ib := m.axisOrderIndex(axesA[i]), m.axisOrderIndex(axesB[i]); ia != ib {
			return ia - ib
		}
	}
	for i := range axesA {
		if axesA[i] != axesB[i] {
			if axesA[i] < axesB[i] {
				return -1
			}
			return 1
		}
	}
	for i := range axesA {
		if sa, sb := sign(a.Get(axesA[i])), sign(b.Get(axesB[i])); sa != sb {
			return sa - sb
		}
	}
	for i := range axesA {
		va, vb := math.Abs(a.Get(axesA[i])), math.Abs(b.Get(axesB[i]))
		if va < vb {
			return -1
		} else if va > vb {
			return 1
		}
	}
	return 0
}

func sign(v float64) int {
	if v < 0 {
		return -1
	} else if v > 0 {
		return 1
	}
	return 0
}

// locationsToRegions computes an initial region for every master, spanning
// from the master to the extreme coordinate of all masters on each axis.
func (m *VariationModel) locationsToRegions() []map[ot.Tag]Tent {
	minV := make(map[ot.Tag]float64)
	maxV := make(map[ot.Tag]float64)
	for _, loc := range m.locations {
		for _, c := range loc.coords {
			if v, ok := minV[c.Tag]; !ok || c.Value < v {
				minV[c.Tag] = c.Value
			}
			if v, ok := maxV[c.Tag]; !ok || c.Value > v {
				maxV[c.Tag] = c.Value
			}
		}
	}
	regions := make([]map[ot.Tag]Tent, len(m.locations))
	for i, loc := range m.locations {
		region := make(map[ot.Tag]Tent, loc.Len())
		for _, c := range loc.coords {
			if c.Value > 0 {
				region[c.Tag] = Tent{Lower: 0, Peak: c.Value, Upper: maxV[c.Tag]}
			} else {
				region[c.Tag] = Tent{Lower: minV[c.Tag], Peak: c.Value, Upper: 0}
			}
		}
		regions[i] = region
	}
	return regions
}

// computeMasterSupports narrows the initial regions of masters: a region is
// split against every previous master of the same axes which lies within
// its box, cutting along the axes with the largest range ratio.
func (m *VariationModel) computeMasterSupports() {
	regions := m.locationsToRegions()
	m.supports = make([]Region, len(regions))
	for i, region := range regions {
		for _, prev := range regions[:i] {
			if !sameAxes(prev, region) {
				continue
			}
			relevant := true
			for tag, tent := range region {
				p := prev[tag].Peak
				if !(p == tent.Peak || (tent.Lower < p && p < tent.Upper)) {
					relevant = false
					break
				}
			}
			if !relevant {
				continue
			}
			bestAxes := make(map[ot.Tag]Tent)
			bestRatio := -1.0
			for tag, prevTent := range prev {
				val := prevTent.Peak
				tent := region[tag]
				newLower, newUpper := tent.Lower, tent.Upper
				var ratio float64
				if val < tent.Peak {
					newLower = val
					ratio = (val - tent.Peak) / (tent.Lower - tent.Peak)
				} else if tent.Peak < val {
					newUpper = val
					ratio = (val - tent.Peak) / (tent.Upper - tent.Peak)
				} else {
					continue // can't split box in this direction
				}
				if ratio > bestRatio {
					bestAxes = make(map[ot.Tag]Tent)
					bestRatio = ratio
				}
				if ratio == bestRatio {
					bestAxes[tag] = Tent{Lower: newLower, Peak: tent.Peak, Upper: newUpper}
				}
			}
			for tag, tent := range bestAxes {
				region[tag] = tent
			}
		}
		m.supports[i] = newRegion(region)
	}
}

func sameAxes(a, b map[ot.Tag]Tent) bool {
	if len(a) != len(b) {
		return false
	}
	for tag := range a {
		if _, ok := b[tag]; !ok {
			return false
		}
	}
	return true
}

func (m *VariationModel) computeDeltaWeights() {
	m.deltaWeights = make([][]deltaWeight, len(m.locations))
	for i, loc := range m.locations {
		var weights []deltaWeight
		for j, support := range m.supports[:i] {
			if scalar := supportScalar(loc, support); scalar != 0 {
				weights = append(weights, deltaWeight{master: j, weight: scalar})
			}
		}
		m.deltaWeights[i] = weights
	}
}
