/*
Package feacomp compiles the syntax tree of a feature file into OpenType layout
tables.

Compile expects a tree which has passed fea.Validate. It walks the tree once,
collecting rules into lookups:

  - rules of a feature block go to implicit lookups; a new lookup is started
    whenever the lookup type or the lookup flag changes
  - named lookup blocks become lookups of their own, referenced by index
  - feature 'aalt' collects the single and alternate substitutions of the
    features it references; its lookups are placed at the start of GSUB
  - stylistic set names are stored in table 'name'
  - variable metrics are handed to a VariationInfo, and the resulting deltas
    are stored in the item variation store of table GDEF

Insertion markers report the index of the lookup which code generated at
the marker's position would receive.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package feacomp

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'shaperfont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("shaperfont.fonts")
}
