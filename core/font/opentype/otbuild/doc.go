/*
Package otbuild writes OpenType font tables.

The feature compiler produces a Compilation: an in-memory description of the
tables 'head', 'name', 'GSUB', 'GPOS' and 'GDEF'. ToFontBuilder serializes
these tables, and a FontBuilder assembles them into an SFNT binary, possibly
together with further tables like 'fvar':

	builder, err := compilation.ToFontBuilder()
	…
	builder.AddTable(ot.T("fvar"), otbuild.EncodeFVar(axisTable))
	fontData := builder.Build()

Output is deterministic: tables are sorted by tag, time stamps in 'head' are
zero and identical subtables within a table are shared.

Fonts produced by this package contain layout data only. They are not
renderable and are meant to be handed to a shaping engine.

Offsets within GSUB and GPOS are 16 bit. Tables which cannot be expressed
this way result in an error of code core.EOVERFLOW; extension lookups are not
produced.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otbuild

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'shaperfont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("shaperfont.fonts")
}
