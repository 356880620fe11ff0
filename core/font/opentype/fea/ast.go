package fea

import (
	"github.com/npillmayer/shaperfont/core/font/opentype/diag"
)

// File is the syntax tree of a feature file.
type File struct {
	ID         diag.FileID
	Statements []Statement
}

// Statement is a statement of a feature file, either at top level or within
// a block.
type Statement interface {
	Span() diag.ByteRange
}

type node struct {
	Range diag.ByteRange
}

// Span returns the byte range of a node within its source.
func (n node) Span() diag.ByteRange {
	return n.Range
}

// Name is an identifier together with its location.
type Name struct {
	node
	Text string
}

// LanguageSystem is a 'languagesystem' statement.
type LanguageSystem struct {
	node
	Script Name
	Lang   Name
}

// GlyphRef is a reference to a single glyph or to a named glyph class.
type GlyphRef struct {
	node
	Name    string
	IsClass bool
}

// GlyphSet is either a single glyph, a named class or an inline class.
type GlyphSet struct {
	node
	Items  []GlyphRef
	Inline bool // written as [ … ]
}

// IsSingle is a predicate: does the set denote exactly one glyph by name?
func (gs GlyphSet) IsSingle() bool {
	return !gs.Inline && len(gs.Items) == 1 && !gs.Items[0].IsClass
}

// ClassDef is a glyph class definition.
type ClassDef struct {
	node
	Name  Name
	Class GlyphSet
}

// FeatureBlock is a feature definition.
type FeatureBlock struct {
	node
	Tag        Name
	Statements []Statement
}

// LookupBlock is a named lookup definition.
type LookupBlock struct {
	node
	Label      Name
	Statements []Statement
}

// LookupRef references a named lookup from within a feature.
type LookupRef struct {
	node
	Label Name
}

// FeatureRef references a feature from within feature 'aalt'.
type FeatureRef struct {
	node
	Tag Name
}

// LookupFlag sets the lookup flag for subsequent rules of a block, either by
// symbolic names or as a number.
type LookupFlag struct {
	node
	Flags   []Name
	Value   uint16
	Numeric bool
}

// FeatureNames holds the UI names of a stylistic set.
type FeatureNames struct {
	node
	Names []NameSpec
}

// NameSpec is a name entry of a featureNames block.
type NameSpec struct {
	node
	IDs  []int // platform, encoding and language IDs as given
	Text string
}

// InsertionMarker marks a position inside a feature block.
type InsertionMarker struct {
	node
}

// SubKind is the kind of a substitution rule.
type SubKind int

// Kinds of substitution rules
const (
	SubSingle SubKind = iota
	SubLigature
	SubAlternate
)

// SubRule is a substitution rule.
type SubRule struct {
	node
	Kind        SubKind
	Input       []GlyphSet
	Replacement []GlyphSet // a single set for single, ligature and alternate substitutions
}

// PosRule is a single (one glyph set) or pair (two glyph sets) positioning rule.
type PosRule struct {
	node
	Glyphs []GlyphSet
	Value  ValueRecord
}

// ValueRecord is a positioning value. A single metric is an advance adjustment
// (or a placement adjustment, for vertical features).
type ValueRecord struct {
	node
	Single     *Metric
	XPlacement *Metric
	YPlacement *Metric
	XAdvance   *Metric
	YAdvance   *Metric
}

// Metric is a number, either fixed or varying across the design space.
// A metric may also refer to a named design value ($name).
type Metric struct {
	node
	Value    int16
	Variable []LocatedNumber // non-nil for variable metrics
	Named    string          // name of a named value, without '$'
}

// IsVariable is a predicate: is m a variable metric?
func (m *Metric) IsVariable() bool {
	return m != nil && m.Variable != nil
}

// IsNamed is a predicate: does m refer to a named design value?
func (m *Metric) IsNamed() bool {
	return m != nil && m.Named != ""
}

// LocatedNumber is the value of a variable metric at a location, given in
// user coordinates.
type LocatedNumber struct {
	node
	Location []AxisValue
	Value    int16
}

// AxisValue is a position on an axis in user coordinates.
type AxisValue struct {
	node
	Axis  Name
	Value float64
}
