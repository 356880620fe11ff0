package ot

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Code comment often will cite passage from the
// OpenType specification version 1.9;
// see https://docs.microsoft.com/en-us/typography/opentype/spec/.

// ---------------------------------------------------------------------------

// Parse parses an SFNT font from a byte slice.
// An ot.Font needs ongoing access to the fonts byte-data after the Parse function returns.
// Its elements are assumed immutable while the ot.Font remains in use.
//
// Other than a general purpose font parser, Parse does not require the tables
// mandatory for a rendering font (cmap, hmtx, …) to be present. Fonts produced
// by the shaper-font compiler contain layout information only.
func Parse(font []byte) (*Font, error) {
	// https://www.microsoft.com/typography/otspec/otff.htm: Offset Table is 12 bytes.
	r := bytes.NewReader(font)
	h := FontHeader{}
	if err := binary.Read(r, binary.BigEndian, &h); err != nil {
		return nil, errFontFormat("font header: " + err.Error())
	}
	tracer().Debugf("header = %v, tag = %x|%s", h, h.FontType, Tag(h.FontType).String())
	if !(h.FontType == 0x4f54544f || // OTTO
		h.FontType == 0x00010000 || // TrueType
		h.FontType == 0x74727565) { // true
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", h.FontType))
	}
	otf := &Font{Header: &h, tables: make(map[Tag]Table)}
	src := binarySegm(font)
	// "The Offset Table is followed immediately by the Table Record entries …
	// sorted in ascending order by tag", 16 bytes each.
	buf, err := src.view(12, 16*int(h.TableCount))
	if err != nil {
		return nil, errFontFormat("table record entries")
	}
	for b, prevTag := buf, Tag(0); len(b) > 0; b = b[16:] {
		tag := MakeTag(b)
		if tag < prevTag {
			return nil, errFontFormat("table order")
		}
		prevTag = tag
		off, size := u32(b[8:12]), u32(b[12:16])
		if off&3 != 0 { // "all tables must begin on four byte boundries".
			return nil, errFontFormat("invalid table offset")
		}
		data, err := src.view(int(off), int(size))
		if err != nil {
			return nil, errFontFormat(fmt.Sprintf("table %s exceeds font data", tag))
		}
		otf.tables[tag], err = parseTable(tag, data, off, size)
		if err != nil {
			return nil, err
		}
	}
	return otf, nil
}

func parseTable(t Tag, b binarySegm, offset, size uint32) (Table, error) {
	switch t {
	case T("head"):
		return parseHead(t, b, offset, size)
	case T("name"):
		return parseName(t, b, offset, size)
	case T("fvar"):
		return parseFVar(t, b, offset, size)
	case T("GDEF"):
		return parseGDef(t, b, offset, size)
	case T("GPOS"), T("GSUB"):
		return parseLayout(t, b, offset, size)
	}
	tracer().Debugf("font contains table (%s), will not be interpreted", t)
	return newTable(t, b, offset, size), nil
}

// --- Head table ------------------------------------------------------------

func parseHead(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if size < 54 {
		return nil, errFontFormat("size of head table")
	}
	t := &HeadTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	t.ChecksumAdjustment, _ = b.u32(8)
	t.MagicNumber, _ = b.u32(12)
	t.Flags, _ = b.u16(16)      // flags
	t.UnitsPerEm, _ = b.u16(18) // units per em
	// IndexToLocFormat is needed to interpret the loca table:
	// 0 for short offsets, 1 for long
	t.IndexToLocFormat, _ = b.u16(50)
	if t.MagicNumber != 0x5f0f3cf5 {
		return nil, errFontFormat("head table magic number")
	}
	return t, nil
}

// --- Names -----------------------------------------------------------------

func parseName(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if len(b) < 6 {
		return nil, errFontFormat("name section corrupt")
	}
	t := &NameTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	N, _ := b.u16(2)
	strOffset, _ := b.u16(4)
	strbuf, err := b.from(int(strOffset))
	if err != nil {
		return nil, errFontFormat("name string storage")
	}
	tracer().Debugf("name table has %d strings, starting at %d", N, strOffset)
	recs, err := b.view(6, 12*int(N))
	if err != nil {
		return nil, errFontFormat("name section corrupt")
	}
	t.Records = make([]NameRecord, 0, N)
	for i := 0; i < int(N); i++ {
		rec := recs[i*12 : i*12+12]
		nr := NameRecord{
			PlatformID: u16(rec[0:]),
			EncodingID: u16(rec[2:]),
			LanguageID: u16(rec[4:]),
			NameID:     u16(rec[6:]),
		}
		strlen, stroff := u16(rec[8:]), u16(rec[10:])
		if (nr.PlatformID == 0 && nr.EncodingID == 3) || (nr.PlatformID == 3 && nr.EncodingID == 1) {
			str, err := strbuf.view(int(stroff), int(strlen))
			if err != nil {
				return nil, errFontFormat("name record string out of bounds")
			}
			if nr.Value, err = decodeUtf16(str); err != nil {
				return nil, errFontFormat(err.Error())
			}
		}
		t.Records = append(t.Records, nr)
	}
	return t, nil
}

// --- fvar table ------------------------------------------------------------

// The font variations table is used in variable fonts to specify the variation
// axes used in the font, their ranges, and, optionally, named instances.
func parseFVar(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if len(b) < 16 {
		return nil, errFontFormat("fvar header")
	}
	t := &FVarTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	axesOffset := b.U16(4)
	axisCount, axisSize := b.U16(8), b.U16(10)
	t.InstanceCount = int(b.U16(12))
	if axisSize < 20 {
		return nil, errFontFormat("fvar axis record size")
	}
	for i := 0; i < int(axisCount); i++ {
		rec, err := b.view(int(axesOffset)+i*int(axisSize), 20)
		if err != nil {
			return nil, errFontFormat("fvar axis records")
		}
		t.Axes = append(t.Axes, VariationAxis{
			Tag:     MakeTag(rec[0:4]),
			Min:     Fixed(u32(rec[4:])),
			Default: Fixed(u32(rec[8:])),
			Max:     Fixed(u32(rec[12:])),
			Flags:   u16(rec[16:]),
			NameID:  u16(rec[18:]),
		})
	}
	return t, nil
}

// --- GDEF table ------------------------------------------------------------

// The Glyph Definition (GDEF) table provides various glyph properties used in
// OpenType Layout processing.
func parseGDef(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if len(b) < 12 {
		return nil, errFontFormat("GDEF header")
	}
	t := &GDefTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	t.Major, t.Minor = b.U16(0), b.U16(2)
	if t.Major != 1 {
		return nil, errFontFormat(fmt.Sprintf("GDEF version %d.%d", t.Major, t.Minor))
	}
	if t.Minor < 3 {
		return t, nil
	}
	var err error
	if t.ItemVarStore, err = b.u32(14); err != nil {
		return nil, errFontFormat("GDEF 1.3 header")
	}
	if t.ItemVarStore == 0 {
		return t, nil
	}
	store, err := b.from(int(t.ItemVarStore))
	if err != nil || store.U16(0) != 1 {
		return nil, errFontFormat("item variation store")
	}
	regionList, err := store.from(int(store.U32(2)))
	if err != nil {
		return nil, errFontFormat("variation region list")
	}
	t.VarRegionCount = int(regionList.U16(2))
	t.VarDataCount = int(store.U16(6))
	return t, nil
}

// --- Layout tables ---------------------------------------------------------

// parseLayout interprets GSUB and GPOS, which share their top-level structure:
// a ScriptList, a FeatureList and a LookupList.
func parseLayout(tag Tag, b binarySegm, offset, size uint32) (Table, error) {
	if len(b) < 10 {
		return nil, errFontFormat(tag.String() + " header")
	}
	t := &LayoutTable{tableBase: makeTableBase(tag, b, offset, size)}
	t.self = t
	t.Major, t.Minor = b.U16(0), b.U16(2)
	if t.Major != 1 {
		return nil, errFontFormat(fmt.Sprintf("%s version %d.%d", tag, t.Major, t.Minor))
	}
	if err := parseScriptList(t, b, int(b.U16(4))); err != nil {
		return nil, err
	}
	if err := parseFeatureList(t, b, int(b.U16(6))); err != nil {
		return nil, err
	}
	if err := parseLookupList(t, b, int(b.U16(8))); err != nil {
		return nil, err
	}
	tracer().Debugf("%s has %d features and %d lookups", tag, len(t.Features), len(t.Lookups))
	return t, nil
}

func parseScriptList(t *LayoutTable, b binarySegm, offset int) error {
	t.Scripts = make(map[Tag][]Tag)
	if offset == 0 {
		return nil
	}
	scriptList, err := b.from(offset)
	if err != nil {
		return errFontFormat("script list")
	}
	tags, offsets, err := tagRecords(scriptList)
	if err != nil {
		return errFontFormat("script records")
	}
	for i, script := range tags {
		scr, err := scriptList.from(int(offsets[i]))
		if err != nil {
			return errFontFormat("script table " + script.String())
		}
		var langs []Tag
		if scr.U16(0) != 0 {
			langs = append(langs, DFLTLang)
		}
		langRecs, err := scr.from(2)
		if err != nil {
			return errFontFormat("script table " + script.String())
		}
		langTags, _, err := tagRecords(langRecs)
		if err != nil {
			return errFontFormat("language system records of " + script.String())
		}
		t.Scripts[script] = append(langs, langTags...)
	}
	return nil
}

func parseFeatureList(t *LayoutTable, b binarySegm, offset int) error {
	if offset == 0 {
		return nil
	}
	featureList, err := b.from(offset)
	if err != nil {
		return errFontFormat("feature list")
	}
	tags, offsets, err := tagRecords(featureList)
	if err != nil {
		return errFontFormat("feature records")
	}
	for i, tag := range tags {
		ft, err := featureList.from(int(offsets[i]))
		if err != nil {
			return errFontFormat("feature table " + tag.String())
		}
		indices, err := u16Array(ft, 2)
		if err != nil {
			return errFontFormat("lookup indices of feature " + tag.String())
		}
		f := Feature{Tag: tag, LookupIndices: indices}
		if params := int(ft.U16(0)); params != 0 {
			f.HasParams = true
			// stylistic set parameters: version, UI name ID
			if p, err := ft.view(params, 4); err == nil {
				f.UINameID = p.U16(2)
			}
		}
		t.Features = append(t.Features, f)
	}
	return nil
}

func parseLookupList(t *LayoutTable, b binarySegm, offset int) error {
	if offset == 0 {
		return nil
	}
	lookupList, err := b.from(offset)
	if err != nil {
		return errFontFormat("lookup list")
	}
	offsets, err := u16Array(lookupList, 0)
	if err != nil {
		return errFontFormat("lookup offsets")
	}
	for i, off := range offsets {
		lt, err := lookupList.view(int(off), 6)
		if err != nil {
			return errFontFormat(fmt.Sprintf("lookup #%d", i))
		}
		t.Lookups = append(t.Lookups, Lookup{
			Type:          lt.U16(0),
			Flag:          lt.U16(2),
			SubTableCount: int(lt.U16(4)),
		})
	}
	return nil
}
