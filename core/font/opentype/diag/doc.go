/*
Package diag collects the diagnostics of a compilation run and translates them
for hosts.

Compiler stages report problems as Diagnostics: a level, a message text and a
range of bytes within a source file. Byte ranges are the natural unit of the
lexer, which works on UTF-8 text. Hosts, however, index their strings by other
means; a JavaScript host counts UTF-16 code units. Translate converts a set
of diagnostics into Messages with spans in UTF-16 code units:

	sources := diag.NewSourceMap()
	file := sources.Add("features.fea", source)
	…
	for _, msg := range diag.Translate(diagnostics, sources) {
	    fmt.Printf("%s: %s at %d…%d\n", msg.Level, msg.Text, msg.Span.Start, msg.Span.End)
	}

Span conversion never fails: offsets which cannot be translated are passed
through unchanged.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package diag

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'shaperfont.fonts'
func tracer() tracing.Trace {
	return tracing.Select("shaperfont.fonts")
}
