package otvar

import (
	"sort"
	"strconv"
	"strings"

	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// AxisCoord is a coordinate on a single axis.
type AxisCoord struct {
	Tag   ot.Tag
	Value float64
}

// NormalizedLocation is a position in normalized design space. Coordinates are
// kept ordered by axis tag, and coordinates of value 0 are not stored, i.e. the
// default location is the empty location. Two locations are equal if they
// have the same axis/value pairs.
//
// The zero value is the default location.
type NormalizedLocation struct {
	coords []AxisCoord
}

// NewLocation creates a location from a list of coordinates. If an axis occurs
// more than once, the last coordinate wins.
func NewLocation(coords ...AxisCoord) NormalizedLocation {
	m := make(map[ot.Tag]float64, len(coords))
	for _, c := range coords {
		m[c.Tag] = c.Value
	}
	loc := NormalizedLocation{coords: make([]AxisCoord, 0, len(m))}
	for tag, v := range m {
		if v != 0 {
			loc.coords = append(loc.coords, AxisCoord{Tag: tag, Value: v})
		}
	}
	sort.Slice(loc.coords, func(i, j int) bool {
		return loc.coords[i].Tag < loc.coords[j].Tag
	})
	return loc
}

// Loc is a shortcut to create a location from alternating tag strings and values, e.g.
//
//	Loc("wght", 0.5, "wdth", -1)
//
// It is intended for tests and will panic on malformed arguments.
func Loc(pairs ...interface{}) NormalizedLocation {
	if len(pairs)%2 != 0 {
		panic("otvar.Loc needs tag/value pairs")
	}
	coords := make([]AxisCoord, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		var v float64
		switch x := pairs[i+1].(type) {
		case float64:
			v = x
		case int:
			v = float64(x)
		default:
			panic("otvar.Loc needs numeric values")
		}
		coords = append(coords, AxisCoord{Tag: ot.T(pairs[i].(string)), Value: v})
	}
	return NewLocation(coords...)
}

// Get returns the coordinate of loc for an axis, which is 0 for axes not set.
func (loc NormalizedLocation) Get(tag ot.Tag) float64 {
	for _, c := range loc.coords {
		if c.Tag == tag {
			return c.Value
		}
	}
	return 0
}

// Has is a predicate: does loc have a non-zero coordinate for an axis?
func (loc NormalizedLocation) Has(tag ot.Tag) bool {
	for _, c := range loc.coords {
		if c.Tag == tag {
			return true
		}
	}
	return false
}

// Len returns the number of non-zero coordinates, i.e. the rank of the location.
func (loc NormalizedLocation) Len() int {
	return len(loc.coords)
}

// Coords returns a copy of the non-zero coordinates of loc, ordered by tag.
func (loc NormalizedLocation) Coords() []AxisCoord {
	c := make([]AxisCoord, len(loc.coords))
	copy(c, loc.coords)
	return c
}

// IsDefault is a predicate: is loc the default location?
func (loc NormalizedLocation) IsDefault() bool {
	return len(loc.coords) == 0
}

// Equal compares two locations structurally.
func (loc NormalizedLocation) Equal(other NormalizedLocation) bool {
	if len(loc.coords) != len(other.coords) {
		return false
	}
	for i, c := range loc.coords {
		if other.coords[i] != c {
			return false
		}
	}
	return true
}

// Key returns a string which identifies loc structurally, i.e. two locations
// are equal if and only if their keys are equal.
func (loc NormalizedLocation) Key() string {
	var sb strings.Builder
	for i, c := range loc.coords {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(c.Tag.String())
		sb.WriteByte('=')
		sb.WriteString(strconv.FormatFloat(c.Value, 'g', -1, 64))
	}
	return sb.String()
}

func (loc NormalizedLocation) String() string {
	return "{" + loc.Key() + "}"
}

// compareLocations orders locations by axis tags, then by values.
// Only structurally equal locations compare as 0.
func compareLocations(a, b NormalizedLocation) int {
	n := len(a.coords)
	if len(b.coords) < n {
		n = len(b.coords)
	}
	for i := 0; i < n; i++ {
		ca, cb := a.coords[i], b.coords[i]
		switch {
		case ca.Tag < cb.Tag:
			return -1
		case ca.Tag > cb.Tag:
			return 1
		case ca.Value < cb.Value:
			return -1
		case ca.Value > cb.Value:
			return 1
		}
	}
	return len(a.coords) - len(b.coords)
}
