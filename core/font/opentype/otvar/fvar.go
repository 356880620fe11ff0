package otvar

import (
	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

const (
	// LastReservedNameID is the highest name ID reserved by the OpenType specification.
	LastReservedNameID = 255
	// MaxNameID is the highest name ID a font may use.
	MaxNameID = 32767
)

// NameAllocator hands out fresh name IDs for table 'name', in increasing order
// and without gaps, starting above both the reserved IDs and all IDs already in use.
type NameAllocator struct {
	next int
}

// NewNameAllocator creates an allocator which will not collide with any of
// the existing name IDs.
func NewNameAllocator(existing []uint16) *NameAllocator {
	top := LastReservedNameID
	for _, id := range existing {
		if int(id) > top {
			top = int(id)
		}
	}
	return &NameAllocator{next: top + 1}
}

// Next returns the next free name ID. It fails with an error of code
// core.EOVERFLOW if name IDs are exhausted.
func (a *NameAllocator) Next() (uint16, error) {
	if a.next > MaxNameID {
		return 0, core.Error(core.EOVERFLOW, "name ID %d exceeds maximum of %d", a.next, MaxNameID)
	}
	id := uint16(a.next)
	a.next++
	return id, nil
}

// NameRecord associates a name ID with a label, to be stored in table 'name'.
type NameRecord struct {
	NameID uint16
	Label  string
}

// AxisTableEntry is an axis record of table 'fvar'.
type AxisTableEntry struct {
	Tag     ot.Tag
	Min     ot.Fixed
	Default ot.Fixed
	Max     ot.Fixed
	NameID  uint16
}

// AxisTable is the content of table 'fvar', together with the name records
// the axes refer to.
type AxisTable struct {
	Names []NameRecord
	Axes  []AxisTableEntry
}

// IsEmpty is a predicate: does the table have no axes? Empty axis tables must
// not be written to a font.
func (t AxisTable) IsEmpty() bool {
	return len(t.Axes) == 0
}

// BuildAxisTable assembles the axis records for table 'fvar' from a list of axes,
// allocating one name ID per axis above the existing name IDs of the font.
// An empty list of axes results in an empty table.
//
// Axis values are converted to 16.16 fixed-point numbers without any clamping;
// values not representable as such result in an error of code core.EOVERFLOW.
func BuildAxisTable(axes []Axis, existingNameIDs []uint16) (AxisTable, error) {
	table := AxisTable{}
	if len(axes) == 0 {
		return table, nil
	}
	names := NewNameAllocator(existingNameIDs)
	for _, axis := range axes {
		id, err := names.Next()
		if err != nil {
			return AxisTable{}, err
		}
		entry := AxisTableEntry{Tag: axis.Tag, NameID: id}
		for _, conv := range []struct {
			dest *ot.Fixed
			v    float64
		}{{&entry.Min, axis.Min}, {&entry.Default, axis.Default}, {&entry.Max, axis.Max}} {
			f, err := ot.FixedFromFloat(conv.v)
			if err != nil {
				return AxisTable{}, core.WrapError(err, core.EOVERFLOW, "axis %s: %v", axis.Tag, err)
			}
			*conv.dest = f
		}
		table.Names = append(table.Names, NameRecord{NameID: id, Label: axis.Label()})
		table.Axes = append(table.Axes, entry)
	}
	tracer().Debugf("axis table with %d axes, name IDs %d…%d", len(table.Axes),
		table.Names[0].NameID, table.Names[len(table.Names)-1].NameID)
	return table, nil
}
