package ot

import (
	"fmt"
	"sort"

	"golang.org/x/text/encoding/unicode"
)

// Font represents the table structure of an SFNT font, as produced by the
// shaper-font compiler.
type Font struct {
	Header *FontHeader
	tables map[Tag]Table
}

// FontHeader is a directory of the top-level tables in a font.
//
// OpenType fonts that contain TrueType outlines should use the value of 0x00010000
// for the FontType. OpenType fonts containing CFF data (version 1 or 2) should
// use 0x4F54544F ('OTTO', when re-interpreted as a Tag).
type FontHeader struct {
	FontType      uint32
	TableCount    uint16
	SearchRange   uint16
	EntrySelector uint16
	RangeShift    uint16
}

// Table returns the font table for a given tag. If a table for a tag cannot
// be found in the font, nil is returned.
//
// Table tag names are case-sensitive, following the names in the OpenType specification.
// Tables not interpreted by this package are returned as generic tables.
func (otf *Font) Table(tag Tag) Table {
	if t, ok := otf.tables[tag]; ok {
		return t
	}
	return nil
}

// TableTags returns a list of tags, one for each table contained in the font,
// sorted in ascending order.
func (otf *Font) TableTags() []Tag {
	tags := make([]Tag, 0, len(otf.tables))
	for tag := range otf.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// GlyphIndex is a glyph index in a font.
type GlyphIndex uint16

// --- Tag -------------------------------------------------------------------

// Tag is defined by the spec as:
// Array of four uint8s (length = 32 bits) used to identify a table, design-variation axis,
// script, language system, feature, or baseline
type Tag uint32

// MakeTag creates a Tag from 4 bytes, e.g.,
// If b is shorter or longer, it will be silently extended or cut as appropriate
//
//	MakeTag([]byte("cmap"))
func MakeTag(b []byte) Tag {
	if b == nil {
		b = []byte{0, 0, 0, 0}
	} else if len(b) > 4 {
		b = b[:4]
	} else if len(b) < 4 {
		b = append([]byte{0, 0, 0, 0}[:4-len(b)], b...)
	}
	return Tag(u32(b))
}

// T returns a Tag from a (4-letter) string.
// If t is shorter or longer, it will be silently extended or cut as appropriate
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

// ParseTag creates a Tag from a string, checking it against the rules of the
// OpenType specification: a tag consists of 1 to 4 printable ASCII characters
// (U+0020…U+007E). Tags shorter than 4 characters are padded with spaces;
// spaces may only appear as trailing padding.
func ParseTag(s string) (Tag, error) {
	if len(s) == 0 || len(s) > 4 {
		return 0, fmt.Errorf("tag %q must have 1 to 4 characters", s)
	}
	seenSpace := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 0x20 || c > 0x7e {
			return 0, fmt.Errorf("tag %q contains non-printable or non-ASCII character", s)
		}
		if c == ' ' {
			if i == 0 {
				return 0, fmt.Errorf("tag %q must not start with a space", s)
			}
			seenSpace = true
		} else if seenSpace {
			return 0, fmt.Errorf("tag %q has a space before a non-space character", s)
		}
	}
	return T(s), nil
}

func (t Tag) String() string {
	bytes := []byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	}
	return string(bytes)
}

// Bytes returns the 4 bytes of a tag, in font byte order.
func (t Tag) Bytes() [4]byte {
	return [4]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)}
}

// DFLT is the default script tag.
var DFLT = T("DFLT")

// DFLTLang is the tag of the default language system 'dflt'.
var DFLTLang = T("dflt")

// --- Table -----------------------------------------------------------------

// Table represents one of the various OpenType font tables.
type Table interface {
	Extent() (uint32, uint32) // offset and byte size within the font's binary data
	Binary() []byte           // the bytes of this table; should be treated as read-only by clients
	Self() TableSelf          // reference to itself
}

func newTable(tag Tag, b binarySegm, offset, size uint32) *genericTable {
	t := &genericTable{tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	},
	}
	t.self = t
	return t
}

type genericTable struct {
	tableBase
}

// tableBase is a common parent for all kinds of OpenType tables.
type tableBase struct {
	data   binarySegm // a table is a slice of font data
	name   Tag        // 4-byte name as an integer
	offset uint32     // from offset
	length uint32     // to offset + length
	self   interface{}
}

func makeTableBase(tag Tag, b binarySegm, offset, size uint32) tableBase {
	return tableBase{
		data:   b,
		name:   tag,
		offset: offset,
		length: size,
	}
}

// Extent returns offset and byte size of this table within the OpenType font.
func (tb *tableBase) Extent() (uint32, uint32) {
	return tb.offset, tb.length
}

// Binary returns the bytes of this table. Should be treated as read-only by
// clients, as it is a view into the original data.
func (tb *tableBase) Binary() []byte {
	return tb.data
}

func (tb *tableBase) Self() TableSelf {
	return TableSelf{tableBase: tb}
}

// TableSelf is a reference to a table. Its primary use is for converting
// a generic table to a concrete table flavour, and for reproducing the
// name tag of a table.
type TableSelf struct {
	tableBase *tableBase
}

// NameTag returns the 4-letter name of a table.
func (tself TableSelf) NameTag() Tag {
	if tself.tableBase == nil {
		return 0
	}
	return tself.tableBase.name
}

func safeSelf(tself TableSelf) interface{} {
	if tself.tableBase == nil || tself.tableBase.self == nil {
		return TableSelf{}
	}
	return tself.tableBase.self
}

// AsHead returns this table as a head table, or nil.
func (tself TableSelf) AsHead() *HeadTable {
	if k, ok := safeSelf(tself).(*HeadTable); ok {
		return k
	}
	return nil
}

// AsName returns this table as a name table, or nil.
func (tself TableSelf) AsName() *NameTable {
	if k, ok := safeSelf(tself).(*NameTable); ok {
		return k
	}
	return nil
}

// AsFVar returns this table as an fvar table, or nil.
func (tself TableSelf) AsFVar() *FVarTable {
	if k, ok := safeSelf(tself).(*FVarTable); ok {
		return k
	}
	return nil
}

// AsGDef returns this table as a GDEF table, or nil.
func (tself TableSelf) AsGDef() *GDefTable {
	if g, ok := safeSelf(tself).(*GDefTable); ok {
		return g
	}
	return nil
}

// AsLayout returns this table as a layout table (GSUB or GPOS), or nil.
func (tself TableSelf) AsLayout() *LayoutTable {
	if g, ok := safeSelf(tself).(*LayoutTable); ok {
		return g
	}
	return nil
}

// --- Concrete table implementations ----------------------------------------

// HeadTable gives global information about the font.
// Only a small subset of fields are made public by HeadTable.
type HeadTable struct {
	tableBase
	Flags              uint16 // see https://docs.microsoft.com/en-us/typography/opentype/spec/head
	UnitsPerEm         uint16 // values 16 … 16384 are valid
	ChecksumAdjustment uint32 // set so that the whole font sums to 0xB1B0AFBA
	MagicNumber        uint32 // always 0x5F0F3CF5
	IndexToLocFormat   uint16 // needed to interpret loca table
}

// NameRecord is an entry of table 'name', with the string already decoded.
type NameRecord struct {
	PlatformID uint16
	EncodingID uint16
	LanguageID uint16
	NameID     uint16
	Value      string
}

// NameTable holds the decoded name records of table 'name'.
// Records of platform/encoding combinations other than Unicode (0/3) and
// Windows Unicode BMP (3/1) are kept with an empty value.
type NameTable struct {
	tableBase
	Records []NameRecord
}

// Lookup returns the first string value for a name ID, if present.
func (t *NameTable) Lookup(nameID uint16) (string, bool) {
	for _, r := range t.Records {
		if r.NameID == nameID {
			return r.Value, true
		}
	}
	return "", false
}

// NameIDs returns the distinct name IDs of the table in ascending order.
func (t *NameTable) NameIDs() []uint16 {
	seen := make(map[uint16]bool, len(t.Records))
	ids := make([]uint16, 0, len(t.Records))
	for _, r := range t.Records {
		if !seen[r.NameID] {
			seen[r.NameID] = true
			ids = append(ids, r.NameID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// VariationAxis is an axis record of table 'fvar'.
type VariationAxis struct {
	Tag     Tag
	Min     Fixed
	Default Fixed
	Max     Fixed
	Flags   uint16
	NameID  uint16
}

// FVarTable is the font variations table. It describes the variation axes of a
// variable font. Named instances are counted, but not interpreted.
type FVarTable struct {
	tableBase
	Axes          []VariationAxis
	InstanceCount int
}

// GDefTable, the Glyph Definition (GDEF) table, provides various glyph properties
// used in OpenType Layout processing. We only expose version information and
// the location of an item variation store (GDEF version 1.3).
type GDefTable struct {
	tableBase
	Major, Minor   uint16
	ItemVarStore   uint32 // offset of an item variation store, or 0
	VarRegionCount int    // number of regions in the variation store
	VarDataCount   int    // number of item variation data subtables
}

// Feature is an entry of a layout table's feature list.
type Feature struct {
	Tag           Tag
	LookupIndices []uint16
	HasParams     bool
	UINameID      uint16 // name ID of a stylistic set, if HasParams
}

// Lookup is an entry of a layout table's lookup list.
type Lookup struct {
	Type          uint16
	Flag          uint16
	SubTableCount int
}

// LayoutTable is a base type for layout tables.
// OpenType specifies two such tables–GPOS and GSUB–which share most of their
// structure.
type LayoutTable struct {
	tableBase
	Major, Minor uint16
	Scripts      map[Tag][]Tag // script → language systems, 'dflt' for the default language system
	Features     []Feature
	Lookups      []Lookup
}

// FeatureTags returns the tags of all features of a layout table, in feature list order.
func (t *LayoutTable) FeatureTags() []Tag {
	tags := make([]Tag, len(t.Features))
	for i, f := range t.Features {
		tags[i] = f.Tag
	}
	return tags
}

func decodeUtf16(str []byte) (string, error) {
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	decoder := enc.NewDecoder()
	s, err := decoder.Bytes(str)
	if err != nil {
		return "", fmt.Errorf("decoding UTF-16 error: %v", err)
	}
	return string(s), nil
}
