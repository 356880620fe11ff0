package otvar

import (
	"fmt"
	"sort"
	"strings"

	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// Tent is the support of a master on a single axis: the master has full
// influence at Peak, decreasing linearly to no influence at Lower and Upper.
type Tent struct {
	Lower, Peak, Upper float64
}

// AxisTent is a tent for a given axis.
type AxisTent struct {
	Tag ot.Tag
	Tent
}

// Region is the region of influence of a master within the design space, given
// as one tent per axis. Axes without a tent do not restrict the region.
// The default region has no tents.
type Region []AxisTent

func newRegion(m map[ot.Tag]Tent) Region {
	r := make(Region, 0, len(m))
	for tag, tent := range m {
		r = append(r, AxisTent{Tag: tag, Tent: tent})
	}
	sort.Slice(r, func(i, j int) bool { return r[i].Tag < r[j].Tag })
	return r
}

// Tent returns the tent of region r for an axis, if any.
func (r Region) Tent(tag ot.Tag) (Tent, bool) {
	for _, at := range r {
		if at.Tag == tag {
			return at.Tent, true
		}
	}
	return Tent{}, false
}

// IsDefault is a predicate: is r the region of the default master?
func (r Region) IsDefault() bool {
	for _, at := range r {
		if at.Peak != 0 {
			return false
		}
	}
	return true
}

// ScalarAt returns the scalar weight of region r at a location.
func (r Region) ScalarAt(loc NormalizedLocation) float64 {
	return supportScalar(loc, r)
}

// Key returns a string which identifies r structurally.
func (r Region) Key() string {
	var sb strings.Builder
	for i, at := range r {
		if i > 0 {
			sb.WriteByte(';')
		}
		fmt.Fprintf(&sb, "%s:%g:%g:%g", at.Tag, at.Lower, at.Peak, at.Upper)
	}
	return sb.String()
}

func (r Region) String() string {
	return "[" + r.Key() + "]"
}

// supportScalar returns the scalar multiplier at location loc, given the support
// of a master. Handling follows OpenType semantics: tents with a zero peak,
// inverted tents or tents crossing zero do not restrict the support.
func supportScalar(loc NormalizedLocation, support Region) float64 {
	scalar := 1.0
	for _, at := range support {
		lower, peak, upper := at.Lower, at.Peak, at.Upper
		if peak == 0 {
			continue
		}
		if lower > peak || peak > upper {
			continue
		}
		if lower < 0 && upper > 0 {
			continue
		}
		v := loc.Get(at.Tag)
		if v == peak {
			continue
		}
		if v <= lower || upper <= v {
			return 0
		}
		if v < peak {
			scalar *= (v - lower) / (peak - lower)
		} else {
			scalar *= (v - upper) / (peak - upper)
		}
	}
	return scalar
}
