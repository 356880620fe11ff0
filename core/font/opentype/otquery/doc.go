/*
Package otquery queries information from compiled shaper fonts.

Shaper fonts carry layout tables only: no outlines, no character map and no
glyph metrics. Queries are therefore about the layout of a font (which
scripts and language systems it supports, which features it offers and under
which names) and, for variable fonts, about its design axes and variation data.
Package otquery works on fonts as decoded by package ot.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otquery

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'shaperfont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("shaperfont.fonts")
}
