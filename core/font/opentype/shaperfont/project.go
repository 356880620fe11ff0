package shaperfont

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/npillmayer/shaperfont/core"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Project bundles the inputs of a compilation, as read from an HCL project file.
type Project struct {
	Path          string // project file, may be empty
	UnitsPerEm    uint16
	GlyphOrder    []string
	FeatureFile   string // file the feature source has been read from, may be empty
	FeatureSource string
	Axes          []AxisInfo
}

// hclProjectFile is the top-level structure of a project file for decoding.
type hclProjectFile struct {
	UnitsPerEm    *int       `hcl:"units_per_em,optional"`
	Glyphs        []string   `hcl:"glyphs"`
	Features      *string    `hcl:"features,optional"`
	FeatureSource *string    `hcl:"feature_source,optional"`
	Axes          []*hclAxis `hcl:"axis,block"`
}

type hclAxis struct {
	Tag     string  `hcl:"tag,label"`
	Min     float64 `hcl:"min"`
	Default float64 `hcl:"default"`
	Max     float64 `hcl:"max"`
}

// DefaultUnitsPerEm is used for projects not stating units-per-em.
const DefaultUnitsPerEm = 1000

// UnitsPerEm checks a units-per-em value handed over as a plain number. It
// has to be a whole number from 16 to 65535.
func UnitsPerEm(v float64) (uint16, error) {
	if v != math.Trunc(v) || v < 16 || v > math.MaxUint16 { // NaN fails the first test
		return 0, core.Error(core.EINVALID, "units per em must be a whole number from 16 to 65535, is %v", v)
	}
	return uint16(v), nil
}

// evalContext offers a few functions to project files, mainly for assembling
// glyph orders.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Functions: map[string]function.Function{
			"concat":     stdlib.ConcatFunc,
			"format":     stdlib.FormatFunc,
			"formatlist": stdlib.FormatListFunc,
			"range":      stdlib.RangeFunc,
			"upper":      stdlib.UpperFunc,
			"lower":      stdlib.LowerFunc,
		},
	}
}

// LoadProject reads a project file. A file of feature source is located
// relative to the project file.
func LoadProject(path string) (*Project, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, core.WrapError(err, core.EMISSING, "cannot read project file %s", path)
	}
	return parseProject(src, path, filepath.Dir(path))
}

// ParseProject reads a project from HCL source. filename is used for error
// messages only; feature files are located relative to the working directory.
func ParseProject(src []byte, filename string) (*Project, error) {
	return parseProject(src, filename, "")
}

func parseProject(src []byte, filename string, dir string) (*Project, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, core.WrapError(diags, core.EINVALID, "failed to parse project file %s", filename)
	}
	var pf hclProjectFile
	diags = gohcl.DecodeBody(file.Body, evalContext(), &pf)
	if diags.HasErrors() {
		return nil, core.WrapError(diags, core.EINVALID, "failed to decode project file %s", filename)
	}
	p := &Project{
		Path:       filename,
		UnitsPerEm: DefaultUnitsPerEm,
		GlyphOrder: pf.Glyphs,
	}
	if pf.UnitsPerEm != nil {
		upem, err := UnitsPerEm(float64(*pf.UnitsPerEm))
		if err != nil {
			return nil, core.WrapError(err, core.EINVALID, "%s: units_per_em: %s", filename, core.UserMessage(err))
		}
		p.UnitsPerEm = upem
	}
	switch {
	case pf.Features != nil && pf.FeatureSource != nil:
		return nil, core.Error(core.EINVALID, "%s: features and feature_source are mutually exclusive", filename)
	case pf.Features != nil:
		p.FeatureFile = *pf.Features
		if !filepath.IsAbs(p.FeatureFile) && dir != "" {
			p.FeatureFile = filepath.Join(dir, p.FeatureFile)
		}
		fea, err := os.ReadFile(p.FeatureFile)
		if err != nil {
			return nil, core.WrapError(err, core.EMISSING, "%s: cannot read feature file", filename)
		}
		p.FeatureSource = string(fea)
	case pf.FeatureSource != nil:
		p.FeatureSource = *pf.FeatureSource
	default:
		return nil, core.Error(core.EMISSING, "%s: neither features nor feature_source given", filename)
	}
	for _, a := range pf.Axes {
		p.Axes = append(p.Axes, AxisInfo{Tag: a.Tag, Min: a.Min, Default: a.Default, Max: a.Max})
	}
	tracer().Debugf("project %s: %d glyphs, %d axes", filename, len(p.GlyphOrder), len(p.Axes))
	return p, nil
}

// Build compiles the project.
func (p *Project) Build() *CompilationResult {
	return BuildShaperFont(p.UnitsPerEm, p.GlyphOrder, p.FeatureSource, p.Axes)
}

func (p *Project) String() string {
	return fmt.Sprintf("project %s (%d glyphs, %d axes)", p.Path, len(p.GlyphOrder), len(p.Axes))
}
