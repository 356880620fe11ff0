package shaperfont

import (
	"fmt"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/diag"
	"github.com/npillmayer/shaperfont/core/font/opentype/fea"
	"github.com/npillmayer/shaperfont/core/font/opentype/feacomp"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otbuild"
	"github.com/npillmayer/shaperfont/core/font/opentype/otvar"
)

// SourceName is the file name feature source is reported under.
const SourceName = "features.fea"

// AxisInfo describes a design axis, in user coordinates.
type AxisInfo struct {
	Tag     string
	Min     float64
	Default float64
	Max     float64
}

// InsertMarker is the position of an insertion marker: a feature tag and the
// index of the lookup which code inserted at the marker would get.
type InsertMarker struct {
	Tag      string
	LookupID int
}

// CompilationResult is the outcome of BuildShaperFont. FontData is nil if
// compilation failed. Messages holds errors and warnings, with spans in UTF-16
// code units; Report renders them for humans, with line and column numbers.
type CompilationResult struct {
	FontData      []byte
	InsertMarkers []InsertMarker
	Messages      []diag.Message
	Report        string
}

// Succeeded is a predicate: did compilation produce a font?
func (r *CompilationResult) Succeeded() bool {
	return r != nil && r.FontData != nil
}

// build holds the state of a single invocation of BuildShaperFont.
type build struct {
	sources *diag.SourceMap
	file    diag.FileID
	diags   *diag.DiagnosticSet
}

// BuildShaperFont compiles feature source for a glyph order into a shaper
// font. If axes are given, the font is a variable font: feature source may
// use variable metrics, and the font gets an 'fvar' table.
//
// BuildShaperFont is safe for concurrent use. It always returns a result.
func BuildShaperFont(unitsPerEm uint16, glyphOrder []string, source string, axes []AxisInfo) (result *CompilationResult) {
	b := &build{
		sources: diag.NewSourceMap(),
		diags:   diag.NewDiagnosticSet(diag.MaxDiagnostics),
	}
	b.file = b.sources.Add(SourceName, source)
	defer func() {
		if r := recover(); r != nil {
			tracer().Errorf("shaper font compilation panicked: %v", r)
			b.diags.Errorf(b.file, diag.ByteRange{}, core.EINTERNAL, "internal error: %v", r)
			result = b.result(nil, nil)
		}
	}()
	fontData, markers := b.compile(unitsPerEm, glyphOrder, source, axes)
	return b.result(fontData, markers)
}

func (b *build) result(fontData []byte, markers []feacomp.InsertMarker) *CompilationResult {
	r := &CompilationResult{
		Messages: diag.Translate(b.diags, b.sources),
		Report:   b.diags.Display(b.sources),
	}
	if fontData == nil || b.diags.HasErrors() {
		return r
	}
	r.FontData = fontData
	r.InsertMarkers = make([]InsertMarker, len(markers))
	for i, m := range markers {
		r.InsertMarkers[i] = InsertMarker{Tag: m.Tag.String(), LookupID: m.LookupID}
	}
	return r
}

// compile runs the stages of the compilation, stopping after the first stage
// which reports errors.
func (b *build) compile(unitsPerEm uint16, glyphOrder []string, source string, axisInfo []AxisInfo) ([]byte, []feacomp.InsertMarker) {
	axes, ok := b.axes(axisInfo)
	if !ok {
		return nil, nil
	}
	tree, diags := fea.Parse(source, b.file)
	if !b.merge(diags) {
		return nil, nil
	}
	glyphs := fea.NewGlyphMap(glyphOrder)
	var resolver *otvar.MetricResolver
	var vi feacomp.VariationInfo
	var va fea.VariationAxes
	if len(axes) > 0 {
		resolver = otvar.NewMetricResolver(axes)
		vi, va = resolver, resolver
	}
	if !b.merge(fea.Validate(tree, glyphs, va)) {
		return nil, nil
	}
	out, diags := feacomp.Compile(tree, glyphs, vi)
	if !b.merge(diags) {
		return nil, nil
	}
	head := otbuild.DefaultHead()
	head.UnitsPerEm = unitsPerEm
	out.Tables.Head = head
	var axisTable otvar.AxisTable
	if len(axes) > 0 {
		if axisTable, ok = b.axisTable(out.Tables, axes); !ok {
			return nil, nil
		}
		tracer().Debugf("variable font with %d axes, %d cached models", len(axes), resolver.Cache().Len())
	}
	fb, err := out.Tables.ToFontBuilder()
	if err != nil {
		b.diags.AddError(b.file, diag.ByteRange{}, err)
		return nil, nil
	}
	if !axisTable.IsEmpty() {
		fb.AddTable(ot.T("fvar"), otbuild.EncodeFVar(axisTable))
	}
	return fb.Build(), out.Markers
}

// merge adds diagnostics of a stage and tells if the stage was free of errors.
func (b *build) merge(diags *diag.DiagnosticSet) bool {
	b.diags.Merge(diags)
	return !diags.HasErrors()
}

func (b *build) axes(infos []AxisInfo) ([]otvar.Axis, bool) {
	axes := make([]otvar.Axis, 0, len(infos))
	seen := make(map[ot.Tag]bool)
	ok := true
	for _, info := range infos {
		axis, err := otvar.NewAxis(info.Tag, info.Min, info.Default, info.Max)
		if err != nil {
			b.diags.AddError(b.file, diag.ByteRange{}, err)
			ok = false
			continue
		}
		if !(info.Min <= info.Default && info.Default <= info.Max) {
			b.diags.AddError(b.file, diag.ByteRange{}, core.Error(core.EINVALID,
				"axis %q: expected min <= default <= max, have %g, %g, %g",
				info.Tag, info.Min, info.Default, info.Max))
			ok = false
			continue
		}
		if seen[axis.Tag] {
			b.diags.AddError(b.file, diag.ByteRange{}, core.Error(core.EAXISTAG, "duplicate axis %q", info.Tag))
			ok = false
			continue
		}
		seen[axis.Tag] = true
		axes = append(axes, axis)
	}
	return axes, ok
}

// axisTable builds the axis table of a variable font and adds the names of
// the axes to the font's names. Axis names get IDs above those of feature
// names.
func (b *build) axisTable(tables *otbuild.Compilation, axes []otvar.Axis) (otvar.AxisTable, bool) {
	if tables.Name == nil {
		tables.Name = &otbuild.NameTable{}
	}
	axisTable, err := otvar.BuildAxisTable(axes, tables.Name.NameIDs())
	if err != nil {
		b.diags.AddError(b.file, diag.ByteRange{}, err)
		return otvar.AxisTable{}, false
	}
	tables.Name.AddAxisNames(axisTable)
	return axisTable, true
}

// String returns a short summary of a result, for logging.
func (r *CompilationResult) String() string {
	if r == nil {
		return "<no result>"
	}
	if !r.Succeeded() {
		return fmt.Sprintf("failed with %d messages", len(r.Messages))
	}
	return fmt.Sprintf("%d bytes, %d markers, %d messages", len(r.FontData), len(r.InsertMarkers), len(r.Messages))
}
