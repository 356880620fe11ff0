/*
Package fea reads OpenType feature files, the textual notation font
developers use to describe the substitution and positioning rules of a font.

The package supports a subset of the syntax of the Adobe feature file
specification:

	languagesystem DFLT dflt;
	@Vowels = [a e i o u];

	feature kern {
	    # Automatic Code
	    pos A V -50;
	    pos A V (wght=100:-30 wght=900:-80);
	} kern;

	feature ss01 {
	    featureNames { name "Alternate A"; };
	    sub A by A.alt;
	} ss01;

Glyph classes, named lookups, lookup flags, single, ligature and alternate
substitutions, single and pair positioning, variable metrics and stylistic-set
names are understood. Anything else is reported as unsupported.

A comment reading '# Automatic Code' inside a feature block is an insertion
marker. It is kept as a statement of its own, as clients want to know where
generated rules may go.

Processing happens in two steps. Parse turns source text into a syntax tree,
recovering from syntax errors at statement boundaries. Validate checks the tree
against a glyph order and the design axes of a font. Both steps report
problems as diagnostics with byte ranges into the source.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fea

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'shaperfont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("shaperfont.fonts")
}
