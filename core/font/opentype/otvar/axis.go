package otvar

import (
	"strings"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// Axis is a design axis of a variable font, in user space coordinates.
//
// Normalization maps user coordinates to [-1, 1], piecewise-linearly, pinned at
// (Min → -1, Default → 0, Max → 1). Min ≤ Default ≤ Max is a precondition which
// is not checked here; for axes violating it, normalization results are undefined.
type Axis struct {
	Tag     ot.Tag
	Min     float64
	Default float64
	Max     float64
}

// NewAxis creates an axis from a tag string and user space coordinates.
// It fails with an error of code core.EAXISTAG if tag is not a valid OpenType tag.
func NewAxis(tag string, min, dflt, max float64) (Axis, error) {
	t, err := ot.ParseTag(tag)
	if err != nil {
		return Axis{}, core.WrapError(err, core.EAXISTAG, "invalid axis tag %q", tag)
	}
	return Axis{Tag: t, Min: min, Default: dflt, Max: max}, nil
}

// Normalize maps a user space coordinate to a normalized coordinate in [-1, 1].
// Values outside of [Min, Max] are clamped.
func (a Axis) Normalize(v float64) float64 {
	if v < a.Min {
		v = a.Min
	}
	if v > a.Max {
		v = a.Max
	}
	switch {
	case v < a.Default:
		return (v - a.Default) / (a.Default - a.Min)
	case v > a.Default:
		return (v - a.Default) / (a.Max - a.Default)
	}
	return 0
}

// Contains is a predicate: is user coordinate v within the range of axis a?
func (a Axis) Contains(v float64) bool {
	return a.Min <= v && v <= a.Max
}

// registered axis tags, see
// https://docs.microsoft.com/en-us/typography/opentype/spec/dvaraxisreg
var registeredAxisNames = map[ot.Tag]string{
	ot.T("ital"): "Italic",
	ot.T("opsz"): "Optical Size",
	ot.T("slnt"): "Slant",
	ot.T("wdth"): "Width",
	ot.T("wght"): "Weight",
}

// Label returns a human readable name for an axis, to be used in table 'name'.
func (a Axis) Label() string {
	if name, ok := registeredAxisNames[a.Tag]; ok {
		return name
	}
	return strings.TrimRight(a.Tag.String(), " ")
}
