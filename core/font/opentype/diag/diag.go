package diag

import (
	"fmt"
	"strings"

	"github.com/npillmayer/shaperfont/core"
)

// MaxDiagnostics is the default limit of diagnostics kept in a set.
const MaxDiagnostics = 100

// Level is the severity of a diagnostic.
type Level int8

// Diagnostic levels
const (
	LevelError Level = iota
	LevelWarning
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	}
	return "unknown"
}

// FileID identifies a source file within a SourceMap.
type FileID uint16

// ByteRange is a half-open range of byte offsets within a UTF-8 source text.
type ByteRange struct {
	Start, End int
}

// Len returns the number of bytes in range r.
func (r ByteRange) Len() int {
	return r.End - r.Start
}

func (r ByteRange) String() string {
	return fmt.Sprintf("%d…%d", r.Start, r.End)
}

// Diagnostic is a message of the compiler, referring to a location in a
// source file. Code is one of the error codes of package core and classifies
// the problem.
type Diagnostic struct {
	File  FileID
	Range ByteRange
	Level Level
	Code  int
	Text  string
}

// IsError is a predicate: is d of level error?
func (d Diagnostic) IsError() bool {
	return d.Level == LevelError
}

// DiagnosticSet is an ordered collection of diagnostics. A set keeps at most
// a limited number of diagnostics; further ones are counted, but not stored.
type DiagnosticSet struct {
	items     []Diagnostic
	limit     int
	overflow  int
	hasErrors bool
}

// NewDiagnosticSet creates an empty set, keeping at most limit diagnostics.
// A limit ≤ 0 selects MaxDiagnostics.
func NewDiagnosticSet(limit int) *DiagnosticSet {
	if limit <= 0 {
		limit = MaxDiagnostics
	}
	return &DiagnosticSet{limit: limit}
}

// Add appends a diagnostic to the set.
func (s *DiagnosticSet) Add(d Diagnostic) {
	if d.IsError() {
		s.hasErrors = true
	}
	if len(s.items) >= s.limit {
		s.overflow++
		return
	}
	s.items = append(s.items, d)
}

// Errorf adds an error diagnostic with an error code.
func (s *DiagnosticSet) Errorf(file FileID, r ByteRange, code int, format string, args ...interface{}) {
	s.Add(Diagnostic{
		File:  file,
		Range: r,
		Level: LevelError,
		Code:  code,
		Text:  fmt.Sprintf(format, args...),
	})
}

// Warnf adds a warning diagnostic.
func (s *DiagnosticSet) Warnf(file FileID, r ByteRange, format string, args ...interface{}) {
	s.Add(Diagnostic{
		File:  file,
		Range: r,
		Level: LevelWarning,
		Text:  fmt.Sprintf(format, args...),
	})
}

// AddError adds a diagnostic for an error. The error code is taken from err.
func (s *DiagnosticSet) AddError(file FileID, r ByteRange, err error) {
	if err == nil {
		return
	}
	text := core.UserMessage(err)
	if text == "" {
		text = err.Error()
	}
	s.Add(Diagnostic{File: file, Range: r, Level: LevelError, Code: core.Code(err), Text: text})
}

// Merge appends all diagnostics of another set.
func (s *DiagnosticSet) Merge(other *DiagnosticSet) {
	if other == nil {
		return
	}
	for _, d := range other.items {
		s.Add(d)
	}
	s.overflow += other.overflow
	s.hasErrors = s.hasErrors || other.hasErrors
}

// Len returns the number of diagnostics stored in the set.
func (s *DiagnosticSet) Len() int {
	return len(s.items)
}

// IsEmpty is a predicate: has nothing been reported?
func (s *DiagnosticSet) IsEmpty() bool {
	return len(s.items) == 0 && s.overflow == 0
}

// Overflow returns the number of diagnostics which have been dropped because
// the set was full.
func (s *DiagnosticSet) Overflow() int {
	return s.overflow
}

// HasErrors is a predicate: has at least one error been reported, including
// dropped ones?
func (s *DiagnosticSet) HasErrors() bool {
	return s.hasErrors
}

// Diagnostics returns the stored diagnostics, in order of reporting.
func (s *DiagnosticSet) Diagnostics() []Diagnostic {
	return s.items
}

// Err returns an error for the first error diagnostic of the set, if any.
// The error carries the code of the diagnostic.
func (s *DiagnosticSet) Err() error {
	for _, d := range s.items {
		if d.IsError() {
			code := d.Code
			if code == core.NOERROR {
				code = core.EINVALID
			}
			return core.Error(code, "%s", d.Text)
		}
	}
	if s.hasErrors {
		return core.Error(core.EINVALID, "%d diagnostics dropped", s.overflow)
	}
	return nil
}

// Display renders the diagnostics of s in a human readable form, one per line,
// with line and column numbers computed from the source map.
func (s *DiagnosticSet) Display(sources *SourceMap) string {
	var sb strings.Builder
	for _, d := range s.items {
		name, text := "<unknown>", ""
		if sources != nil {
			if src, ok := sources.Source(d.File); ok {
				name, text = sources.Name(d.File), src
			}
		}
		line, col := lineAndColumn(text, d.Range.Start)
		fmt.Fprintf(&sb, "%s: %s\n  --> %s:%d:%d\n", d.Level, d.Text, name, line, col)
	}
	if s.overflow > 0 {
		fmt.Fprintf(&sb, "… and %d more\n", s.overflow)
	}
	return sb.String()
}

// lineAndColumn computes 1-based line and column numbers, counting columns in
// characters.
func lineAndColumn(text string, offset int) (int, int) {
	if offset > len(text) {
		offset = len(text)
	}
	line, col := 1, 1
	for _, r := range text[:offset] {
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
