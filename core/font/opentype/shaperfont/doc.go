/*
Package shaperfont compiles feature source into a "shaper font": a font which
carries layout tables only, and which a text shaper may load to apply the
features to a run of glyphs.

The entry point BuildShaperFont takes units-per-em, a glyph order, the source
of a feature file and an optional list of design axes. It never fails in the
sense of returning an error: every problem is reported as a message of the
result, and a result without font data signals failure.

	result := shaperfont.BuildShaperFont(1000, []string{".notdef", "A", "V"},
	    "feature kern { pos A V -50; } kern;", nil)
	if !result.Succeeded() {
	    fmt.Println(result.Report)
	}

Messages carry spans in UTF-16 code units, as this is how JavaScript hosts
index their strings.

Projects bundle the inputs of a compilation in an HCL file:

	units_per_em = 1000
	glyphs       = concat([".notdef"], formatlist("uni%04X", range(65, 91)))
	features     = "features.fea"

	axis "wght" {
	  min     = 100
	  default = 400
	  max     = 900
	}

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package shaperfont

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'shaperfont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("shaperfont.fonts")
}
