/*
Package ot provides the basic OpenType vocabulary shared by the shaper-font
compiler: tags, glyph indices and the fixed-point number formats of the
OpenType specification, together with a small reader for the tables the
compiler produces.

The reader is not a general purpose font parser. It understands the table
directory of an SFNT file and interprets the tables which the compiler emits:

▪︎ 'head' (units per em, checksum adjustment)

▪︎ 'name' (name records, Windows platform strings decoded from UTF-16BE)

▪︎ 'fvar' (variation axes)

▪︎ 'GDEF' (version and presence of an item variation store)

▪︎ 'GSUB' and 'GPOS' (feature tags, lookup types and counts)

Every other table is kept as a generic table, i.e. no table information will be
dropped, but clients have to interpret the bytes themselves:

	otf, err := ot.Parse(fontData)
	…
	fvar := otf.Table(ot.T("fvar")).Self().AsFVar()
	for _, axis := range fvar.Axes {
	    fmt.Printf("%s %v…%v\n", axis.Tag, axis.Min.Float(), axis.Max.Float())
	}

Code comments often will cite passages from the OpenType specification
version 1.9; see https://docs.microsoft.com/en-us/typography/opentype/spec/.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/shaperfont/core"
)

// tracer writes to trace with key 'shaperfont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("shaperfont.fonts")
}

// errFontFormat produces user level errors for font parsing.
func errFontFormat(x string) error {
	return core.Error(core.EINVALID, "OpenType font format: %s", x)
}
