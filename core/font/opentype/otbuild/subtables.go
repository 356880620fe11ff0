package otbuild

import (
	"sort"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// --- Coverage --------------------------------------------------------------

// encodeCoverage writes a coverage table for a sorted list of distinct glyphs,
// choosing the smaller of formats 1 and 2.
func encodeCoverage(glyphs []ot.GlyphIndex) []byte {
	type glyphRange struct{ start, end ot.GlyphIndex }
	var ranges []glyphRange
	for _, g := range glyphs {
		if n := len(ranges); n > 0 && ranges[n-1].end+1 == g {
			ranges[n-1].end = g
			continue
		}
		ranges = append(ranges, glyphRange{g, g})
	}
	w := NewWriter()
	if 2*len(glyphs) <= 6*len(ranges) {
		w.U16(1)
		w.U16(uint16(len(glyphs)))
		for _, g := range glyphs {
			w.U16(uint16(g))
		}
		return w.Bytes()
	}
	w.U16(2)
	w.U16(uint16(len(ranges)))
	inx := 0
	for _, r := range ranges {
		w.U16(uint16(r.start))
		w.U16(uint16(r.end))
		w.U16(uint16(inx))
		inx += int(r.end-r.start) + 1
	}
	return w.Bytes()
}

func sortedGlyphs[V any](m map[ot.GlyphIndex]V) []ot.GlyphIndex {
	glyphs := make([]ot.GlyphIndex, 0, len(m))
	for g := range m {
		glyphs = append(glyphs, g)
	}
	sort.Slice(glyphs, func(i, j int) bool { return glyphs[i] < glyphs[j] })
	return glyphs
}

// --- GSUB ------------------------------------------------------------------

// SingleSubst replaces single glyphs. It is written in format 2.
type SingleSubst struct {
	Mapping map[ot.GlyphIndex]ot.GlyphIndex
}

// LookupType is GSubSingle.
func (s *SingleSubst) LookupType() uint16 { return GSubSingle }

// Encode serializes the subtable.
func (s *SingleSubst) Encode() ([]byte, error) {
	glyphs := sortedGlyphs(s.Mapping)
	if err := checkCount(len(glyphs), "single substitutions"); err != nil {
		return nil, err
	}
	a := newAssembly()
	a.w.U16(2)
	a.offset16(encodeCoverage(glyphs))
	a.w.U16(uint16(len(glyphs)))
	for _, g := range glyphs {
		a.w.U16(uint16(s.Mapping[g]))
	}
	return a.bytes("single substitution")
}

// AlternateSubst offers alternatives for single glyphs.
type AlternateSubst struct {
	Alternates map[ot.GlyphIndex][]ot.GlyphIndex
}

// LookupType is GSubAlternate.
func (s *AlternateSubst) LookupType() uint16 { return GSubAlternate }

// Encode serializes the subtable.
func (s *AlternateSubst) Encode() ([]byte, error) {
	glyphs := sortedGlyphs(s.Alternates)
	if err := checkCount(len(glyphs), "alternate sets"); err != nil {
		return nil, err
	}
	a := newAssembly()
	a.w.U16(1)
	a.offset16(encodeCoverage(glyphs))
	a.w.U16(uint16(len(glyphs)))
	for _, g := range glyphs {
		alts := s.Alternates[g]
		set := NewWriter()
		set.U16(uint16(len(alts)))
		for _, alt := range alts {
			set.U16(uint16(alt))
		}
		a.offset16(set.Bytes())
	}
	return a.bytes("alternate substitution")
}

// Ligature is a sequence of component glyphs to be replaced by a ligature glyph.
type Ligature struct {
	Components []ot.GlyphIndex // including the first glyph
	Glyph      ot.GlyphIndex
}

// LigatureSubst replaces sequences of glyphs by ligatures.
type LigatureSubst struct {
	Ligatures []Ligature
}

// LookupType is GSubLigature.
func (s *LigatureSubst) LookupType() uint16 { return GSubLigature }

// Encode serializes the subtable. Ligatures are grouped by their first
// component; within a group, longer ligatures take precedence.
func (s *LigatureSubst) Encode() ([]byte, error) {
	sets := make(map[ot.GlyphIndex][]Ligature)
	for _, lig := range s.Ligatures {
		if len(lig.Components) < 2 {
			return nil, core.Error(core.EINTERNAL, "ligature with %d components", len(lig.Components))
		}
		first := lig.Components[0]
		sets[first] = append(sets[first], lig)
	}
	glyphs := sortedGlyphs(sets)
	a := newAssembly()
	a.w.U16(1)
	a.offset16(encodeCoverage(glyphs))
	a.w.U16(uint16(len(glyphs)))
	for _, g := range glyphs {
		ligs := sets[g]
		sort.SliceStable(ligs, func(i, j int) bool {
			return len(ligs[i].Components) > len(ligs[j].Components)
		})
		set := newAssembly()
		set.w.U16(uint16(len(ligs)))
		for _, lig := range ligs {
			lw := NewWriter()
			lw.U16(uint16(lig.Glyph))
			lw.U16(uint16(len(lig.Components)))
			for _, c := range lig.Components[1:] {
				lw.U16(uint16(c))
			}
			set.offset16(lw.Bytes())
		}
		data, err := set.bytes("ligature set")
		if err != nil {
			return nil, err
		}
		a.offset16(data)
	}
	return a.bytes("ligature substitution")
}

// --- GPOS ------------------------------------------------------------------

// Value format flags
const (
	XPlacement       uint16 = 0x0001
	YPlacement       uint16 = 0x0002
	XAdvance         uint16 = 0x0004
	YAdvance         uint16 = 0x0008
	XPlacementDevice uint16 = 0x0010
	YPlacementDevice uint16 = 0x0020
	XAdvanceDevice   uint16 = 0x0040
	YAdvanceDevice   uint16 = 0x0080
)

// VariationIndex references a delta set in the item variation store.
type VariationIndex struct {
	Outer, Inner uint16
}

func (vi *VariationIndex) encode() []byte {
	if vi == nil {
		return nil
	}
	w := NewWriter()
	w.U16(vi.Outer)
	w.U16(vi.Inner)
	w.U16(0x8000) // deltaFormat VARIATION_INDEX
	return w.Bytes()
}

// ValueRecord is a positioning adjustment. Device entries reference
// variation data for the corresponding value.
type ValueRecord struct {
	XPlacement, YPlacement int16
	XAdvance, YAdvance     int16
	XPlaDevice, YPlaDevice *VariationIndex
	XAdvDevice, YAdvDevice *VariationIndex
}

// Format returns the minimal value format of v.
func (v ValueRecord) Format() uint16 {
	var f uint16
	flag := func(cond bool, bit uint16) {
		if cond {
			f |= bit
		}
	}
	flag(v.XPlacement != 0, XPlacement)
	flag(v.YPlacement != 0, YPlacement)
	flag(v.XAdvance != 0, XAdvance)
	flag(v.YAdvance != 0, YAdvance)
	flag(v.XPlaDevice != nil, XPlacementDevice)
	flag(v.YPlaDevice != nil, YPlacementDevice)
	flag(v.XAdvDevice != nil, XAdvanceDevice)
	flag(v.YAdvDevice != nil, YAdvanceDevice)
	return f
}

// IsZero is a predicate: does v not adjust anything?
func (v ValueRecord) IsZero() bool {
	return v.Format() == 0
}

// encodeValue writes the fields of v selected by format into the header of
// a subtable assembly.
func encodeValue(a *assembly, v ValueRecord, format uint16) {
	for _, field := range []struct {
		bit uint16
		v   int16
	}{
		{XPlacement, v.XPlacement}, {YPlacement, v.YPlacement},
		{XAdvance, v.XAdvance}, {YAdvance, v.YAdvance},
	} {
		if format&field.bit != 0 {
			a.w.I16(field.v)
		}
	}
	for _, field := range []struct {
		bit uint16
		dev *VariationIndex
	}{
		{XPlacementDevice, v.XPlaDevice}, {YPlacementDevice, v.YPlaDevice},
		{XAdvanceDevice, v.XAdvDevice}, {YAdvanceDevice, v.YAdvDevice},
	} {
		if format&field.bit != 0 {
			a.offset16(field.dev.encode())
		}
	}
}

// SinglePos adjusts single glyphs. It is written in format 2, with a value
// format covering all values.
type SinglePos struct {
	Values map[ot.GlyphIndex]ValueRecord
}

// LookupType is GPosSingle.
func (s *SinglePos) LookupType() uint16 { return GPosSingle }

// Encode serializes the subtable.
func (s *SinglePos) Encode() ([]byte, error) {
	glyphs := sortedGlyphs(s.Values)
	if err := checkCount(len(glyphs), "single positionings"); err != nil {
		return nil, err
	}
	var format uint16
	for _, v := range s.Values {
		format |= v.Format()
	}
	a := newAssembly()
	a.w.U16(2)
	a.offset16(encodeCoverage(glyphs))
	a.w.U16(format)
	a.w.U16(uint16(len(glyphs)))
	for _, g := range glyphs {
		encodeValue(a, s.Values[g], format)
	}
	return a.bytes("single positioning")
}

// PairValue is the adjustment of the first glyph of a pair.
type PairValue struct {
	Second ot.GlyphIndex
	Value  ValueRecord
}

// PairPos adjusts pairs of glyphs. It is written in format 1, adjusting the
// first glyph of each pair only.
type PairPos struct {
	Pairs map[ot.GlyphIndex][]PairValue
}

// LookupType is GPosPair.
func (p *PairPos) LookupType() uint16 { return GPosPair }

// Encode serializes the subtable. Device tables are referenced relative to
// the start of the subtable, so all of them are placed behind the pair sets.
func (p *PairPos) Encode() ([]byte, error) {
	firsts := sortedGlyphs(p.Pairs)
	if err := checkCount(len(firsts), "pair sets"); err != nil {
		return nil, err
	}
	var format uint16
	for _, pairs := range p.Pairs {
		for _, pv := range pairs {
			format |= pv.Value.Format()
		}
	}
	// pair sets are assembled inline, as device offsets are relative to the
	// PairPos subtable and not to the pair set
	w := NewWriter()
	w.U16(1)
	w.U16(0) // coverage, patched below
	w.U16(format)
	w.U16(0) // valueFormat2
	w.U16(uint16(len(firsts)))
	setOffsetsAt := w.Len()
	for range firsts {
		w.U16(0)
	}
	header := w.Bytes()
	out := append([]byte(nil), header...)
	var devices []deviceRef
	for i, g := range firsts {
		pairs := append([]PairValue(nil), p.Pairs[g]...)
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].Second < pairs[j].Second })
		if err := checkCount(len(pairs), "pairs"); err != nil {
			return nil, err
		}
		if len(out) > 0xffff {
			return nil, core.Error(core.EOVERFLOW, "pair positioning subtable exceeds 64K")
		}
		putU16(out, setOffsetsAt+2*i, uint16(len(out)))
		out = appendU16(out, uint16(len(pairs)))
		for _, pv := range pairs {
			out = appendU16(out, uint16(pv.Second))
			out, devices = appendPairValue(out, devices, pv.Value, format)
		}
	}
	cov := encodeCoverage(firsts)
	return placeDevices(out, cov, devices)
}

type deviceRef struct {
	at   int
	data []byte
}

func appendPairValue(out []byte, devices []deviceRef, v ValueRecord, format uint16) ([]byte, []deviceRef) {
	for _, field := range []struct {
		bit uint16
		v   int16
	}{
		{XPlacement, v.XPlacement}, {YPlacement, v.YPlacement},
		{XAdvance, v.XAdvance}, {YAdvance, v.YAdvance},
	} {
		if format&field.bit != 0 {
			out = appendU16(out, uint16(field.v))
		}
	}
	for _, field := range []struct {
		bit uint16
		dev *VariationIndex
	}{
		{XPlacementDevice, v.XPlaDevice}, {YPlacementDevice, v.YPlaDevice},
		{XAdvanceDevice, v.XAdvDevice}, {YAdvanceDevice, v.YAdvDevice},
	} {
		if format&field.bit != 0 {
			if field.dev != nil {
				devices = append(devices, deviceRef{at: len(out), data: field.dev.encode()})
			}
			out = appendU16(out, 0)
		}
	}
	return out, devices
}

// placeDevices appends the coverage table and device tables to a PairPos
// subtable and patches their offsets.
func placeDevices(out []byte, coverage []byte, devices []deviceRef) ([]byte, error) {
	placed := make(map[string]int)
	place := func(data []byte) (uint16, error) {
		pos, ok := placed[string(data)]
		if !ok {
			pos = len(out)
			out = append(out, data...)
			placed[string(data)] = pos
		}
		if pos > 0xffff {
			return 0, core.Error(core.EOVERFLOW, "pair positioning subtable exceeds 64K")
		}
		return uint16(pos), nil
	}
	off, err := place(coverage)
	if err != nil {
		return nil, err
	}
	putU16(out, 2, off)
	for _, d := range devices {
		off, err := place(d.data)
		if err != nil {
			return nil, err
		}
		putU16(out, d.at, off)
	}
	return out, nil
}

func appendU16(b []byte, v uint16) []byte {
	return append(b, byte(v>>8), byte(v))
}

func putU16(b []byte, at int, v uint16) {
	b[at] = byte(v >> 8)
	b[at+1] = byte(v)
}
