/*
Package otvar implements the variation logic of the shaper-font compiler:
design axes and their normalization, interpolation models over sparse sets of
master locations, the resolution of variable metrics into a default value plus
region deltas, and the assembly of the 'fvar' axis table.

# Variable metrics

Feature files may specify a metric at a few positions in the design space only,
e.g.

	pos A V (wght=100:-30 wght=400:-50 wght=900:-80);

This is what we call sparseness: a metric need not be defined at every master
of a font. For every distinct set of locations a VariationModel is computed,
following the algorithm of the fontTools library (fontTools.varLib.models). As
many metrics of a font usually share the same sparse set of locations, models
are memoized in a ModelCache. A MetricResolver ties axes and cache together and
is handed to the feature compiler, which calls it for every variable value it
encounters.

Neither the cache nor the resolver are safe for concurrent use. They are meant
to live for exactly one compilation.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otvar

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'shaperfont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("shaperfont.fonts")
}
