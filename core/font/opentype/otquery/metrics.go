package otquery

import (
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
)

// UnitsPerEm returns the design units per em of a font, or 0 if the font has
// no table 'head'.
func UnitsPerEm(otf *ot.Font) uint16 {
	t := otf.Table(ot.T("head"))
	if t == nil {
		return 0
	}
	return t.Self().AsHead().UnitsPerEm // Head is a required table
}

// AxisInfo describes a design axis of a variable font, in user coordinates.
type AxisInfo struct {
	Tag               ot.Tag
	Min, Default, Max float64
	Name              string
}

// VariationAxes returns the design axes of a variable font, in the order of
// table 'fvar'. Fonts without 'fvar' have no axes.
func VariationAxes(otf *ot.Font) []AxisInfo {
	t := otf.Table(ot.T("fvar"))
	if t == nil {
		return nil
	}
	names := Names(otf)
	fvar := t.Self().AsFVar()
	axes := make([]AxisInfo, len(fvar.Axes))
	for i, a := range fvar.Axes {
		axes[i] = AxisInfo{
			Tag:     a.Tag,
			Min:     a.Min.Float(),
			Default: a.Default.Float(),
			Max:     a.Max.Float(),
			Name:    names[a.NameID],
		}
	}
	return axes
}

// VariationRegions returns the number of regions in the item variation store
// of table 'GDEF', i.e., the number of distinct regions variable metrics of
// the font vary over. Fonts without a variation store have 0 regions.
func VariationRegions(otf *ot.Font) int {
	t := otf.Table(ot.T("GDEF"))
	if t == nil {
		return 0
	}
	gdef := t.Self().AsGDef()
	if gdef.ItemVarStore == 0 {
		return 0
	}
	return gdef.VarRegionCount
}
