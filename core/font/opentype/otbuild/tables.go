package otbuild

import (
	"sort"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otvar"
	"golang.org/x/text/encoding/unicode"
)

// --- head ------------------------------------------------------------------

const headMagic = 0x5f0f3cf5

// headSize is the size of table 'head' in bytes.
const headSize = 54

// HeadTable holds the fields of table 'head' a layout-only font cares about.
// All other fields are written as zero.
type HeadTable struct {
	FontRevision ot.Fixed
	Flags        uint16
	UnitsPerEm   uint16
}

// DefaultHead returns a head table for a font of revision 1.0 with 1000 units per em.
func DefaultHead() *HeadTable {
	return &HeadTable{FontRevision: 0x10000, Flags: 0x0003, UnitsPerEm: 1000}
}

// Encode serializes the head table, with a zero checksum adjustment.
func (h *HeadTable) Encode() []byte {
	w := NewWriter()
	w.U16(1) // major version
	w.U16(0) // minor version
	w.U32(uint32(h.FontRevision))
	w.U32(0) // checksum adjustment, set when assembling the font
	w.U32(headMagic)
	w.U16(h.Flags)
	w.U16(h.UnitsPerEm)
	w.WriteBytes(make([]byte, 16)) // created, modified
	w.WriteBytes(make([]byte, 8))  // bounding box
	w.U16(0)                       // macStyle
	w.U16(0)                       // lowestRecPPEM
	w.I16(2)                       // fontDirectionHint, deprecated
	w.I16(0)                       // indexToLocFormat
	w.I16(0)                       // glyphDataFormat
	return w.Bytes()
}

// --- name ------------------------------------------------------------------

// Windows platform, Unicode BMP encoding, English/United States.
const (
	PlatformWindows = 3
	EncodingUnicode = 1
	LanguageEnUS    = 0x409
)

// NameRecord is a string of table 'name' for the Windows platform.
type NameRecord struct {
	NameID uint16
	Value  string
}

// NameTable holds the records of table 'name'.
type NameTable struct {
	Records []NameRecord
}

// Add appends a name record.
func (n *NameTable) Add(nameID uint16, value string) {
	n.Records = append(n.Records, NameRecord{NameID: nameID, Value: value})
}

// NameIDs returns the name IDs in use, in ascending order.
func (n *NameTable) NameIDs() []uint16 {
	if n == nil {
		return nil
	}
	ids := make([]uint16, 0, len(n.Records))
	seen := make(map[uint16]bool)
	for _, r := range n.Records {
		if !seen[r.NameID] {
			seen[r.NameID] = true
			ids = append(ids, r.NameID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// AddAxisNames appends the name records of an axis table.
func (n *NameTable) AddAxisNames(axes otvar.AxisTable) {
	for _, r := range axes.Names {
		n.Add(r.NameID, r.Label)
	}
}

// Encode serializes the name table as a format 0 table. Records are sorted by
// name ID, as all of them share platform, encoding and language.
func (n *NameTable) Encode() ([]byte, error) {
	if err := checkCount(len(n.Records), "name records"); err != nil {
		return nil, err
	}
	recs := make([]NameRecord, len(n.Records))
	copy(recs, n.Records)
	sort.SliceStable(recs, func(i, j int) bool { return recs[i].NameID < recs[j].NameID })
	enc := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder()
	w := NewWriter()
	w.U16(0) // format
	w.U16(uint16(len(recs)))
	w.U16(uint16(6 + 12*len(recs)))
	storage := NewWriter()
	offsets := make(map[string]int)
	for _, r := range recs {
		str, err := enc.Bytes([]byte(r.Value))
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "cannot encode name %d", r.NameID)
		}
		off, ok := offsets[string(str)]
		if !ok {
			off = storage.Len()
			offsets[string(str)] = off
			storage.WriteBytes(str)
		}
		if len(str) > 0xffff || off > 0xffff {
			return nil, core.Error(core.EOVERFLOW, "name string storage exceeds 64K")
		}
		w.U16(PlatformWindows)
		w.U16(EncodingUnicode)
		w.U16(LanguageEnUS)
		w.U16(r.NameID)
		w.U16(uint16(len(str)))
		w.U16(uint16(off))
	}
	w.WriteBytes(storage.Bytes())
	return w.Bytes(), nil
}

// --- fvar ------------------------------------------------------------------

// EncodeFVar serializes an axis table as table 'fvar', without named instances.
func EncodeFVar(axes otvar.AxisTable) []byte {
	w := NewWriter()
	w.U16(1)  // major version
	w.U16(0)  // minor version
	w.U16(16) // axesArrayOffset
	w.U16(2)  // reserved
	w.U16(uint16(len(axes.Axes)))
	w.U16(20) // axisSize
	w.U16(0)  // instanceCount
	w.U16(uint16(4 + 4*len(axes.Axes)))
	for _, a := range axes.Axes {
		w.Tag(a.Tag)
		w.U32(uint32(a.Min))
		w.U32(uint32(a.Default))
		w.U32(uint32(a.Max))
		w.U16(0) // flags
		w.U16(a.NameID)
	}
	return w.Bytes()
}
