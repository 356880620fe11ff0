package diag

import (
	"unicode/utf8"
)

// SourceMap maps file IDs to source texts.
type SourceMap struct {
	files []sourceFile
}

type sourceFile struct {
	name string
	text string
}

// NewSourceMap creates an empty source map.
func NewSourceMap() *SourceMap {
	return &SourceMap{}
}

// Add registers a source text under a file name and returns its ID.
func (m *SourceMap) Add(name, text string) FileID {
	m.files = append(m.files, sourceFile{name: name, text: text})
	return FileID(len(m.files) - 1)
}

// Source returns the text of a file.
func (m *SourceMap) Source(id FileID) (string, bool) {
	if m == nil || int(id) >= len(m.files) {
		return "", false
	}
	return m.files[id].text, true
}

// Name returns the name of a file, or the empty string for unknown files.
func (m *SourceMap) Name(id FileID) string {
	if m == nil || int(id) >= len(m.files) {
		return ""
	}
	return m.files[id].name
}

// Span is a half-open range of UTF-16 code unit offsets.
type Span struct {
	Start uint32
	End   uint32
}

// Message is a diagnostic prepared for a host.
type Message struct {
	Level string
	Text  string
	Span  Span
}

// Translate converts a set of diagnostics into messages, in the order of the
// set. Byte offsets are converted to UTF-16 code unit offsets with respect to
// the diagnostic's source text. Diagnostics referring to unknown files are
// treated as if their source were empty.
func Translate(set *DiagnosticSet, sources *SourceMap) []Message {
	if set == nil {
		return nil
	}
	msgs := make([]Message, 0, set.Len())
	for _, d := range set.Diagnostics() {
		text, _ := sources.Source(d.File)
		msgs = append(msgs, Message{
			Level: d.Level.String(),
			Text:  d.Text,
			Span: Span{
				Start: utf16OrByteOffset(text, d.Range.Start),
				End:   utf16OrByteOffset(text, d.Range.End),
			},
		})
	}
	if set.Overflow() > 0 {
		tracer().Infof("%d diagnostics have been dropped", set.Overflow())
	}
	return msgs
}

// UTF16Offset converts a byte offset within a UTF-8 text into an offset in
// UTF-16 code units. It fails if b is not on the boundary of a character or
// lies beyond the end of the text.
func UTF16Offset(text string, b int) (uint32, bool) {
	if b < 0 || b > len(text) {
		return 0, false
	}
	if b < len(text) && !utf8.RuneStart(text[b]) {
		return 0, false
	}
	var units uint32
	for i := 0; i < b; {
		r, w := utf8.DecodeRuneInString(text[i:])
		if r >= 0x10000 {
			units += 2
		} else {
			units++
		}
		i += w
	}
	return units, true
}

func utf16OrByteOffset(text string, b int) uint32 {
	if u, ok := UTF16Offset(text, b); ok {
		return u
	}
	if b < 0 {
		return 0
	}
	return uint32(b)
}
