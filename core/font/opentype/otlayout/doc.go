/*
Package otlayout knows about the registered OpenType layout features.

Feature files may use any 4-character tag for a feature. Registered tags
carry a meaning defined by the OpenType specification, and they tell whether a
feature substitutes glyphs (GSUB) or positions them (GPOS). The feature
compiler consults this registry to decide where generated code for a feature
will go, and to warn about tags a shaping engine will not recognize.

The package also maps between OpenType script and language tags and their
ISO 15924 and BCP 47 counterparts, mainly to check and describe the language
systems of a feature file.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otlayout

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'shaperfont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("shaperfont.fonts")
}
