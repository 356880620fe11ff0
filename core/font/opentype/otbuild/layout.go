package otbuild

import (
	"sort"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// Lookup flags
const (
	RightToLeft         uint16 = 0x0001
	IgnoreBaseGlyphs    uint16 = 0x0002
	IgnoreLigatures     uint16 = 0x0004
	IgnoreMarks         uint16 = 0x0008
	UseMarkFilteringSet uint16 = 0x0010
)

// GSUB lookup types
const (
	GSubSingle    uint16 = 1
	GSubAlternate uint16 = 3
	GSubLigature  uint16 = 4
)

// GPOS lookup types
const (
	GPosSingle uint16 = 1
	GPosPair   uint16 = 2
)

// LayoutTable is the content of either GSUB or GPOS. Features have to be
// sorted by tag, as language systems refer to them by index.
type LayoutTable struct {
	Scripts  []Script
	Features []Feature
	Lookups  []Lookup
}

// Script is a script record with its language systems. Language systems
// reference features by index into the feature list.
type Script struct {
	Tag     ot.Tag
	Default *LangSys // may be nil
	Langs   []LangSys
}

// LangSys is a language system table.
type LangSys struct {
	Tag            ot.Tag
	FeatureIndices []uint16
}

// Feature is a feature table. UINameID is the name ID of a stylistic set's
// user interface string; 0 means the feature has no parameters.
type Feature struct {
	Tag      ot.Tag
	Lookups  []uint16
	UINameID uint16
}

// Lookup is a lookup table with its subtables.
type Lookup struct {
	Type             uint16
	Flag             uint16
	MarkFilteringSet uint16
	SubTables        []SubTable
}

// SubTable is a GSUB or GPOS subtable of a given lookup type. Offsets within a
// subtable are relative to its start, so subtables encode themselves.
type SubTable interface {
	LookupType() uint16
	Encode() ([]byte, error)
}

// IsEmpty is a predicate: does t have no lookups?
func (t *LayoutTable) IsEmpty() bool {
	return t == nil || len(t.Lookups) == 0
}

// Encode serializes a layout table (version 1.0). what names the table for
// error messages.
func (t *LayoutTable) Encode(what string) ([]byte, error) {
	scripts, err := t.encodeScriptList(what)
	if err != nil {
		return nil, err
	}
	features, err := t.encodeFeatureList(what)
	if err != nil {
		return nil, err
	}
	lookups, err := t.encodeLookupList(what)
	if err != nil {
		return nil, err
	}
	a := newAssembly()
	a.w.U16(1)
	a.w.U16(0)
	a.offset16(scripts)
	a.offset16(features)
	a.offset16(lookups)
	return a.bytes(what)
}

func (t *LayoutTable) encodeScriptList(what string) ([]byte, error) {
	scripts := make([]Script, len(t.Scripts))
	copy(scripts, t.Scripts)
	sort.SliceStable(scripts, func(i, j int) bool { return scripts[i].Tag < scripts[j].Tag })
	if err := checkCount(len(scripts), "scripts"); err != nil {
		return nil, err
	}
	a := newAssembly()
	a.w.U16(uint16(len(scripts)))
	for _, s := range scripts {
		script, err := s.encode(what)
		if err != nil {
			return nil, err
		}
		a.w.Tag(s.Tag)
		a.offset16(script)
	}
	return a.bytes(what + " script list")
}

func (s Script) encode(what string) ([]byte, error) {
	langs := make([]LangSys, len(s.Langs))
	copy(langs, s.Langs)
	sort.SliceStable(langs, func(i, j int) bool { return langs[i].Tag < langs[j].Tag })
	a := newAssembly()
	if s.Default != nil {
		a.offset16(s.Default.encode())
	} else {
		a.offset16(nil)
	}
	a.w.U16(uint16(len(langs)))
	for _, l := range langs {
		a.w.Tag(l.Tag)
		a.offset16(l.encode())
	}
	return a.bytes(what + " script " + s.Tag.String())
}

func (l LangSys) encode() []byte {
	w := NewWriter()
	w.U16(0)      // lookupOrderOffset, reserved
	w.U16(0xffff) // no required feature
	w.U16(uint16(len(l.FeatureIndices)))
	for _, inx := range l.FeatureIndices {
		w.U16(inx)
	}
	return w.Bytes()
}

func (t *LayoutTable) encodeFeatureList(what string) ([]byte, error) {
	if err := checkCount(len(t.Features), "features"); err != nil {
		return nil, err
	}
	a := newAssembly()
	a.w.U16(uint16(len(t.Features)))
	for _, f := range t.Features {
		ft := newAssembly()
		if f.UINameID != 0 {
			params := NewWriter()
			params.U16(0) // version
			params.U16(f.UINameID)
			ft.offset16(params.Bytes())
		} else {
			ft.offset16(nil)
		}
		ft.w.U16(uint16(len(f.Lookups)))
		for _, inx := range f.Lookups {
			ft.w.U16(inx)
		}
		feature, err := ft.bytes(what + " feature " + f.Tag.String())
		if err != nil {
			return nil, err
		}
		a.w.Tag(f.Tag)
		a.offset16(feature)
	}
	return a.bytes(what + " feature list")
}

func (t *LayoutTable) encodeLookupList(what string) ([]byte, error) {
	if err := checkCount(len(t.Lookups), "lookups"); err != nil {
		return nil, err
	}
	a := newAssembly()
	a.w.U16(uint16(len(t.Lookups)))
	for i, l := range t.Lookups {
		lookup, err := l.encode(what)
		if err != nil {
			return nil, err
		}
		tracer().Debugf("%s lookup #%d of type %d: %d bytes", what, i, l.Type, len(lookup))
		a.offset16(lookup)
	}
	return a.bytes(what + " lookup list")
}

func (l Lookup) encode(what string) ([]byte, error) {
	if err := checkCount(len(l.SubTables), "subtables"); err != nil {
		return nil, err
	}
	a := newAssembly()
	a.w.U16(l.Type)
	a.w.U16(l.Flag)
	a.w.U16(uint16(len(l.SubTables)))
	for _, st := range l.SubTables {
		if st.LookupType() != l.Type {
			return nil, core.Error(core.EINTERNAL, "subtable of type %d in %s lookup of type %d",
				st.LookupType(), what, l.Type)
		}
		data, err := st.Encode()
		if err != nil {
			return nil, err
		}
		a.offset16(data)
	}
	if l.Flag&UseMarkFilteringSet != 0 {
		a.w.U16(l.MarkFilteringSet)
	}
	return a.bytes(what + " lookup")
}
