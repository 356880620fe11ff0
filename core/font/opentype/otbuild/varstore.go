package otbuild

import (
	"sort"
	"strconv"
	"strings"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otvar"
)

// maxItemsPerData is the number of delta sets an ItemVariationData subtable may hold.
const maxItemsPerData = 0xffff

// VarStoreBuilder collects delta sets for an item variation store. Regions are
// registered as they appear; identical delta sets share a single entry.
type VarStoreBuilder struct {
	axes    []ot.Tag
	regions []otvar.Region
	index   map[string]int    // region key → region index
	rows    []map[int]int16   // delta sets, region index → delta
	rowKeys map[string]uint32 // delta set key → row number
}

// NewVarStoreBuilder creates a builder for a font with the given axes, in
// 'fvar' order.
func NewVarStoreBuilder(axes []ot.Tag) *VarStoreBuilder {
	return &VarStoreBuilder{
		axes:    axes,
		index:   make(map[string]int),
		rowKeys: make(map[string]uint32),
	}
}

// Add registers the deltas of a variable value and returns the index of its
// delta set.
func (b *VarStoreBuilder) Add(deltas []otvar.VariationDelta) (VariationIndex, error) {
	row := make(map[int]int16, len(deltas))
	for _, d := range deltas {
		for _, at := range d.Region {
			if !b.hasAxis(at.Tag) {
				return VariationIndex{}, core.Error(core.EVARIATION, "region refers to unknown axis %s", at.Tag)
			}
		}
		key := d.Region.Key()
		inx, ok := b.index[key]
		if !ok {
			inx = len(b.regions)
			if inx >= 0x7fff {
				return VariationIndex{}, core.Error(core.EOVERFLOW, "too many variation regions")
			}
			b.regions = append(b.regions, d.Region)
			b.index[key] = inx
		}
		row[inx] += d.Value
	}
	rowKey := deltaSetKey(row)
	n, ok := b.rowKeys[rowKey]
	if !ok {
		n = uint32(len(b.rows))
		if n >= maxItemsPerData*maxItemsPerData {
			return VariationIndex{}, core.Error(core.EOVERFLOW, "too many delta sets")
		}
		b.rows = append(b.rows, row)
		b.rowKeys[rowKey] = n
	}
	return VariationIndex{Outer: uint16(n / maxItemsPerData), Inner: uint16(n % maxItemsPerData)}, nil
}

func (b *VarStoreBuilder) hasAxis(tag ot.Tag) bool {
	for _, a := range b.axes {
		if a == tag {
			return true
		}
	}
	return false
}

func deltaSetKey(row map[int]int16) string {
	inx := make([]int, 0, len(row))
	for i, d := range row {
		if d != 0 {
			inx = append(inx, i)
		}
	}
	sort.Ints(inx)
	var sb strings.Builder
	for _, i := range inx {
		sb.WriteString(strconv.Itoa(i))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(int(row[i])))
		sb.WriteByte(';')
	}
	return sb.String()
}

// IsEmpty is a predicate: have no delta sets been added?
func (b *VarStoreBuilder) IsEmpty() bool {
	return b == nil || len(b.rows) == 0
}

// RegionCount returns the number of distinct regions.
func (b *VarStoreBuilder) RegionCount() int {
	return len(b.regions)
}

// Encode serializes the item variation store (format 1). Every region is
// described for all axes of the font. Deltas are stored as 16-bit words.
func (b *VarStoreBuilder) Encode() ([]byte, error) {
	a := newAssembly()
	a.w.U16(1) // format
	a.offset32(b.encodeRegionList())
	dataCount := (len(b.rows) + maxItemsPerData - 1) / maxItemsPerData
	a.w.U16(uint16(dataCount))
	for i := 0; i < dataCount; i++ {
		end := (i + 1) * maxItemsPerData
		if end > len(b.rows) {
			end = len(b.rows)
		}
		a.offset32(b.encodeVarData(b.rows[i*maxItemsPerData : end]))
	}
	return a.bytes("item variation store")
}

func (b *VarStoreBuilder) encodeRegionList() []byte {
	w := NewWriter()
	w.U16(uint16(len(b.axes)))
	w.U16(uint16(len(b.regions)))
	for _, r := range b.regions {
		for _, axis := range b.axes {
			tent, _ := r.Tent(axis) // zero tent for axes not in the region
			w.I16(int16(ot.F2Dot14FromFloat(tent.Lower)))
			w.I16(int16(ot.F2Dot14FromFloat(tent.Peak)))
			w.I16(int16(ot.F2Dot14FromFloat(tent.Upper)))
		}
	}
	return w.Bytes()
}

func (b *VarStoreBuilder) encodeVarData(rows []map[int]int16) []byte {
	n := len(b.regions)
	w := NewWriter()
	w.U16(uint16(len(rows)))
	w.U16(uint16(n)) // wordDeltaCount: all deltas are words
	w.U16(uint16(n))
	for i := 0; i < n; i++ {
		w.U16(uint16(i))
	}
	for _, row := range rows {
		for i := 0; i < n; i++ {
			w.I16(row[i])
		}
	}
	return w.Bytes()
}

// --- GDEF ------------------------------------------------------------------

// GDefTable is table 'GDEF'. It holds an item variation store only; glyph
// classes are not produced.
type GDefTable struct {
	VarStore *VarStoreBuilder
}

// Encode serializes the table as GDEF version 1.3.
func (g *GDefTable) Encode() ([]byte, error) {
	a := newAssembly()
	a.w.U16(1)
	a.w.U16(3)
	for i := 0; i < 5; i++ { // glyph classes, attachments, carets, mark classes, mark sets
		a.offset16(nil)
	}
	if g.VarStore.IsEmpty() {
		a.offset32(nil)
	} else {
		store, err := g.VarStore.Encode()
		if err != nil {
			return nil, err
		}
		a.offset32(store)
	}
	return a.bytes("GDEF")
}
