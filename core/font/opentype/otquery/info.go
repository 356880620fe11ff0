package otquery

import (
	"sort"

	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otlayout"
)

// FontType returns the font type, encoded in the font header, as a string.
func FontType(otf *ot.Font) string {
	if otf.Header == nil {
		return "<empty>"
	}
	typ := otf.Header.FontType
	switch typ {
	case 0x4f54544f: // OTTO
		return "OpenType (outlines)"
	case 0x00010000: // TrueType
		return "TrueType"
	case 0x74727565: // true
		return "TrueType (Mac legacy)"
	}
	return "<unknown>"
}

// LayoutTables returns a list of tag strings, one for each layout-table a font includes.
//
// From the OpenType specification:
// OpenType Layout makes use of five tables: GSUB, GPOS, BASE, JSTF, and GDEF.
func LayoutTables(otf *ot.Font) []string {
	var lt []string
	tags := otf.TableTags()
	for _, tag := range tags {
		switch tag.String() {
		case "GSUB", "GPOS", "BASE", "JSTF", "GDEF":
			lt = append(lt, tag.String())
		}
	}
	return lt
}

// Names returns all strings of table 'name', by name ID.
func Names(otf *ot.Font) map[uint16]string {
	names := make(map[uint16]string)
	t := otf.Table(ot.T("name"))
	if t == nil {
		tracer().Debugf("no name table found in font")
		return names
	}
	nt := t.Self().AsName()
	for _, id := range nt.NameIDs() {
		if v, ok := nt.Lookup(id); ok {
			names[id] = v
		}
	}
	return names
}

// FeatureInfo describes a feature of a layout table.
type FeatureInfo struct {
	Tag     ot.Tag
	Table   otlayout.LayoutTagType
	Lookups []uint16
	UIName  string // name of a stylistic set, if present in table 'name'
}

// Features lists the features of both GSUB and GPOS, GSUB first, each in
// feature list order.
func Features(otf *ot.Font) []FeatureInfo {
	names := Names(otf)
	var features []FeatureInfo
	for _, lt := range []struct {
		tag string
		typ otlayout.LayoutTagType
	}{{"GSUB", otlayout.GSubFeatureType}, {"GPOS", otlayout.GPosFeatureType}} {
		layout := layoutTable(otf, lt.tag)
		if layout == nil {
			continue
		}
		for _, f := range layout.Features {
			info := FeatureInfo{Tag: f.Tag, Table: lt.typ, Lookups: f.LookupIndices}
			if f.UINameID != 0 {
				info.UIName = names[f.UINameID]
			}
			features = append(features, info)
		}
	}
	return features
}

// FontSupportsScript returns a tuple (script-tag, language-tag) for a given input
// of a script tag and a language tag. If the language has no special support in the
// font, DFLT will be returned. If the script has no support in the font,
// DFLT will be returned for the script.
func FontSupportsScript(otf *ot.Font, scr ot.Tag, lang ot.Tag) (ot.Tag, ot.Tag) {
	for _, tag := range []string{"GSUB", "GPOS"} {
		layout := layoutTable(otf, tag)
		if layout == nil {
			continue
		}
		langs, ok := layout.Scripts[scr]
		if !ok {
			continue
		}
		tracer().Debugf("script %s is contained in %s", scr.String(), tag)
		for _, l := range langs {
			if l == lang {
				return scr, lang
			}
		}
		return scr, ot.DFLT
	}
	tracer().Infof("cannot find script %s in font", scr.String())
	return ot.DFLT, ot.DFLT
}

// Scripts returns the scripts of all layout tables, sorted by tag.
func Scripts(otf *ot.Font) []ot.Tag {
	seen := make(map[ot.Tag]bool)
	var scripts []ot.Tag
	for _, tag := range []string{"GSUB", "GPOS"} {
		if layout := layoutTable(otf, tag); layout != nil {
			for scr := range layout.Scripts {
				if !seen[scr] {
					seen[scr] = true
					scripts = append(scripts, scr)
				}
			}
		}
	}
	sort.Slice(scripts, func(i, j int) bool { return scripts[i] < scripts[j] })
	return scripts
}

func layoutTable(otf *ot.Font, tag string) *ot.LayoutTable {
	t := otf.Table(ot.T(tag))
	if t == nil {
		return nil
	}
	return t.Self().AsLayout()
}
