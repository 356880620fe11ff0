package otbuild

import (
	"encoding/binary"
	"math/bits"
	"sort"

	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// Compilation is the result of compiling a feature file: the tables of a
// layout-only font. Nil tables are omitted.
type Compilation struct {
	Head *HeadTable
	GSub *LayoutTable
	GPos *LayoutTable
	GDef *GDefTable
	Name *NameTable
}

// ToFontBuilder serializes the tables of c into a new FontBuilder. A missing
// head table is replaced by DefaultHead().
func (c *Compilation) ToFontBuilder() (*FontBuilder, error) {
	fb := NewFontBuilder()
	head := c.Head
	if head == nil {
		head = DefaultHead()
	}
	fb.AddTable(ot.T("head"), head.Encode())
	if c.Name != nil && len(c.Name.Records) > 0 {
		data, err := c.Name.Encode()
		if err != nil {
			return nil, err
		}
		fb.AddTable(ot.T("name"), data)
	}
	for _, lt := range []struct {
		tag   string
		table *LayoutTable
	}{{"GSUB", c.GSub}, {"GPOS", c.GPos}} {
		if lt.table.IsEmpty() {
			continue
		}
		data, err := lt.table.Encode(lt.tag)
		if err != nil {
			return nil, err
		}
		fb.AddTable(ot.T(lt.tag), data)
	}
	if c.GDef != nil && !c.GDef.VarStore.IsEmpty() {
		data, err := c.GDef.Encode()
		if err != nil {
			return nil, err
		}
		fb.AddTable(ot.T("GDEF"), data)
	}
	return fb, nil
}

// FontBuilder assembles tables into an SFNT font.
type FontBuilder struct {
	tables map[ot.Tag][]byte
}

// NewFontBuilder creates a builder without any tables.
func NewFontBuilder() *FontBuilder {
	return &FontBuilder{tables: make(map[ot.Tag][]byte)}
}

// AddTable adds a table to the font, replacing a previous table of the same tag.
func (fb *FontBuilder) AddTable(tag ot.Tag, data []byte) {
	fb.tables[tag] = data
}

// HasTable is a predicate: does the builder hold a table for tag?
func (fb *FontBuilder) HasTable(tag ot.Tag) bool {
	_, ok := fb.tables[tag]
	return ok
}

// Tags returns the tags of all tables, sorted.
func (fb *FontBuilder) Tags() []ot.Tag {
	tags := make([]ot.Tag, 0, len(fb.tables))
	for tag := range fb.tables {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Build serializes the font. Tables are sorted by tag and 4-byte aligned.
// If a head table is present, its checksum adjustment is set such that the
// font's checksum is 0xB1B0AFBA.
func (fb *FontBuilder) Build() []byte {
	tags := fb.Tags()
	n := len(tags)
	// "searchRange: Maximum power of 2 less than or equal to numTables, times 16"
	entrySelector := 0
	if n > 0 {
		entrySelector = bits.Len(uint(n)) - 1
	}
	searchRange := (1 << entrySelector) * 16
	w := NewWriter()
	w.U32(0x00010000)
	w.U16(uint16(n))
	w.U16(uint16(searchRange))
	w.U16(uint16(entrySelector))
	w.U16(uint16(n*16 - searchRange))
	if head, ok := fb.tables[ot.T("head")]; ok && len(head) >= 12 {
		head = append([]byte(nil), head...)
		binary.BigEndian.PutUint32(head[8:], 0)
		fb.tables[ot.T("head")] = head
	}
	offset := 12 + 16*n
	for _, tag := range tags {
		data := fb.tables[tag]
		w.Tag(tag)
		w.U32(checksum(data))
		w.U32(uint32(offset))
		w.U32(uint32(len(data)))
		offset += padded(len(data))
	}
	headAt := -1
	for _, tag := range tags {
		data := fb.tables[tag]
		if tag == ot.T("head") && len(data) >= 12 {
			headAt = w.Len()
		}
		w.WriteBytes(data)
		w.WriteBytes(make([]byte, padded(len(data))-len(data)))
	}
	font := w.Bytes()
	if headAt >= 0 {
		binary.BigEndian.PutUint32(font[headAt+8:], 0xb1b0afba-checksum(font))
	}
	tracer().Debugf("font with %d tables, %d bytes", n, len(font))
	return font
}

func padded(n int) int {
	return (n + 3) &^ 3
}

// checksum sums up data as big-endian uint32s, padding with zeros.
func checksum(data []byte) uint32 {
	var sum uint32
	for len(data) >= 4 {
		sum += binary.BigEndian.Uint32(data)
		data = data[4:]
	}
	if len(data) > 0 {
		var tail [4]byte
		copy(tail[:], data)
		sum += binary.BigEndian.Uint32(tail[:])
	}
	return sum
}
