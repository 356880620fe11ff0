package fea

import (
	"fmt"
	"regexp"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/diag"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/npillmayer/shaperfont/core/font/opentype/otvar"
)

// VariationAxes gives access to the design axes a feature file may refer to.
type VariationAxes interface {
	AxisCount() int
	Axis(tag ot.Tag) (int, otvar.Axis, bool)
}

// LookupFlags maps the symbolic lookup flags of the feature syntax to flag bits.
var LookupFlags = map[string]uint16{
	"RightToLeft":      0x0001,
	"IgnoreBaseGlyphs": 0x0002,
	"IgnoreLigatures":  0x0004,
	"IgnoreMarks":      0x0008,
}

var stylisticSet = regexp.MustCompile(`^ss(0[1-9]|1[0-9]|20)$`)

// IsStylisticSet is a predicate: is tag one of 'ss01'…'ss20'?
func IsStylisticSet(tag string) bool {
	return stylisticSet.MatchString(tag)
}

// validator checks a syntax tree against a glyph map and a set of axes.
type validator struct {
	file    diag.FileID
	glyphs  *GlyphMap
	axes    VariationAxes
	classes *ClassTable
	lookups map[string]bool
	diags   *diag.DiagnosticSet
}

// Validate checks a syntax tree for semantic errors: references to unknown
// glyphs, classes, lookups or axes, misplaced statements and invalid tags.
// axes may be nil for non-variable fonts.
func Validate(f *File, glyphs *GlyphMap, axes VariationAxes) *diag.DiagnosticSet {
	v := &validator{
		file:    f.ID,
		glyphs:  glyphs,
		axes:    axes,
		classes: NewClassTable(glyphs),
		lookups: make(map[string]bool),
		diags:   diag.NewDiagnosticSet(0),
	}
	features := make(map[string]bool)
	for _, st := range f.Statements {
		switch s := st.(type) {
		case *LanguageSystem:
			v.checkTag(s.Script, "script")
			v.checkTag(s.Lang, "language")
		case *ClassDef:
			v.defineClass(s)
		case *FeatureBlock:
			v.checkTag(s.Tag, "feature")
			features[s.Tag.Text] = true
			v.checkFeature(s)
		case *LookupBlock:
			v.checkLookupBlock(s)
		case *LookupRef:
			v.errorf(s.Span(), "lookup references are only allowed inside feature blocks")
		case *FeatureRef:
			v.errorf(s.Span(), "feature references are only allowed inside feature 'aalt'")
		}
	}
	for _, st := range f.Statements {
		if fb, ok := st.(*FeatureBlock); ok && fb.Tag.Text == "aalt" {
			for _, inner := range fb.Statements {
				if ref, ok := inner.(*FeatureRef); ok && !features[ref.Tag.Text] {
					v.diags.Warnf(v.file, ref.Tag.Span(), "feature '%s' referenced by 'aalt' is not defined", ref.Tag.Text)
				}
			}
		}
	}
	return v.diags
}

func (v *validator) errorf(r diag.ByteRange, format string, args ...interface{}) {
	v.diags.Errorf(v.file, r, core.EVALIDATION, format, args...)
}

func (v *validator) checkTag(n Name, what string) {
	if _, err := ot.ParseTag(n.Text); err != nil {
		v.errorf(n.Span(), "invalid %s tag: %v", what, err)
	}
}

func (v *validator) defineClass(cd *ClassDef) {
	if v.classes.IsDefined(cd.Name.Text) {
		v.errorf(cd.Name.Span(), "glyph class '@%s' is already defined", cd.Name.Text)
		return
	}
	if !v.checkGlyphSet(cd.Class) {
		return
	}
	if err := v.classes.Define(cd.Name.Text, cd.Class); err != nil {
		v.errorf(cd.Span(), "%v", err)
	}
}

// checkGlyphSet reports every unknown glyph or class of a set and tells if the
// set is valid.
func (v *validator) checkGlyphSet(set GlyphSet) bool {
	ok := true
	for _, ref := range set.Items {
		if _, err := v.classes.ResolveRef(ref); err != nil {
			v.errorf(ref.Span(), "%v", err)
			ok = false
		}
	}
	return ok
}

func (v *validator) checkFeature(fb *FeatureBlock) {
	tag := fb.Tag.Text
	namesSeen := false
	for _, st := range fb.Statements {
		switch s := st.(type) {
		case *FeatureBlock:
			v.errorf(s.Span(), "feature blocks cannot be nested")
		case *FeatureRef:
			if tag != "aalt" {
				v.errorf(s.Span(), "feature references are only allowed inside feature 'aalt'")
			} else {
				v.checkTag(s.Tag, "feature")
			}
		case *FeatureNames:
			if !IsStylisticSet(tag) {
				v.errorf(s.Span(), "featureNames are only allowed in stylistic sets ss01…ss20")
			} else if namesSeen {
				v.errorf(s.Span(), "duplicate featureNames block")
			}
			namesSeen = true
			if len(s.Names) == 0 {
				v.errorf(s.Span(), "featureNames block without names")
			}
		case *LookupBlock:
			v.checkLookupBlock(s)
		case *LookupRef:
			if !v.lookups[s.Label.Text] {
				v.errorf(s.Label.Span(), "lookup '%s' is not defined", s.Label.Text)
			}
		default:
			v.checkRuleOrSetting(st)
		}
	}
}

func (v *validator) checkLookupBlock(lb *LookupBlock) {
	if v.lookups[lb.Label.Text] {
		v.errorf(lb.Label.Span(), "lookup '%s' is already defined", lb.Label.Text)
	}
	v.lookups[lb.Label.Text] = true
	var kind string
	for _, st := range lb.Statements {
		switch s := st.(type) {
		case *LookupBlock, *FeatureBlock:
			v.errorf(s.Span(), "blocks cannot be nested inside lookup '%s'", lb.Label.Text)
		case *LookupRef, *FeatureRef, *FeatureNames:
			v.errorf(s.Span(), "statement not allowed inside lookup '%s'", lb.Label.Text)
		case *InsertionMarker:
			v.diags.Warnf(v.file, s.Span(), "insertion marker inside a lookup block is ignored")
		case *SubRule, *PosRule:
			k := ruleKind(st)
			if kind != "" && k != kind {
				v.errorf(s.Span(), "lookup '%s' mixes %s and %s rules", lb.Label.Text, kind, k)
			}
			kind = k
			v.checkRuleOrSetting(st)
		default:
			v.checkRuleOrSetting(st)
		}
	}
}

// ruleKind names the lookup type a rule will be compiled to.
func ruleKind(st Statement) string {
	switch s := st.(type) {
	case *SubRule:
		switch s.Kind {
		case SubLigature:
			return "ligature substitution"
		case SubAlternate:
			return "alternate substitution"
		}
		return "single substitution"
	case *PosRule:
		if len(s.Glyphs) == 2 {
			return "pair positioning"
		}
		return "single positioning"
	}
	return ""
}

func (v *validator) checkRuleOrSetting(st Statement) {
	switch s := st.(type) {
	case *ClassDef:
		v.defineClass(s)
	case *LookupFlag:
		for _, f := range s.Flags {
			if _, ok := LookupFlags[f.Text]; !ok {
				v.errorf(f.Span(), "unsupported lookup flag '%s'", f.Text)
			}
		}
		if s.Numeric && s.Value&^0x000f != 0 {
			v.errorf(s.Span(), "unsupported lookup flag value %d", s.Value)
		}
	case *SubRule:
		v.checkSub(s)
	case *PosRule:
		v.checkPos(s)
	}
}

func (v *validator) checkSub(s *SubRule) {
	ok := true
	for _, gs := range s.Input {
		ok = v.checkGlyphSet(gs) && ok
	}
	for _, gs := range s.Replacement {
		ok = v.checkGlyphSet(gs) && ok
	}
	if !ok {
		return
	}
	switch s.Kind {
	case SubSingle:
		in, _ := v.classes.Resolve(s.Input[0])
		out, _ := v.classes.Resolve(s.Replacement[0])
		if len(out) != 1 && len(out) != len(in) {
			v.errorf(s.Span(), "single substitution of %d glyphs by %d glyphs", len(in), len(out))
		}
	case SubLigature:
		out, _ := v.classes.Resolve(s.Replacement[0])
		if len(out) != 1 {
			v.errorf(s.Replacement[0].Span(), "ligature substitution needs a single replacement glyph")
		}
	case SubAlternate:
		in, _ := v.classes.Resolve(s.Input[0])
		if len(in) != 1 {
			v.errorf(s.Input[0].Span(), "alternate substitution needs a single input glyph")
		}
	}
}

func (v *validator) checkPos(s *PosRule) {
	for _, gs := range s.Glyphs {
		v.checkGlyphSet(gs)
	}
	for _, m := range []*Metric{s.Value.Single, s.Value.XPlacement, s.Value.YPlacement, s.Value.XAdvance, s.Value.YAdvance} {
		if m.IsVariable() {
			v.checkVariableMetric(m)
		}
	}
}

func (v *validator) checkVariableMetric(m *Metric) {
	if v.axes == nil || v.axes.AxisCount() == 0 {
		v.errorf(m.Span(), "variable value in a font without axes")
		return
	}
	seen := make(map[string]bool)
	for _, ln := range m.Variable {
		loc, ok := v.normalize(ln)
		if !ok {
			continue
		}
		if seen[loc.Key()] {
			v.errorf(ln.Span(), "duplicate location %s in variable value", describeLocation(ln))
		}
		seen[loc.Key()] = true
	}
}

// normalize converts the location of a located number to normalized
// coordinates, reporting unknown axes and out-of-range values.
func (v *validator) normalize(ln LocatedNumber) (otvar.NormalizedLocation, bool) {
	loc, err := NormalizeLocation(ln, v.axes)
	if err != nil {
		if ae, ok := err.(*AxisValueError); ok {
			v.errorf(ae.Value.Span(), "%v", ae)
		} else {
			v.errorf(ln.Span(), "%v", err)
		}
		return otvar.NormalizedLocation{}, false
	}
	return loc, true
}

// AxisValueError reports an invalid position on an axis.
type AxisValueError struct {
	Value AxisValue
	msg   string
}

func (e *AxisValueError) Error() string {
	return e.msg
}

// NormalizeLocation converts the user coordinates of a located number to a
// normalized location. Axes not mentioned are at their default.
func NormalizeLocation(ln LocatedNumber, axes VariationAxes) (otvar.NormalizedLocation, error) {
	coords := make([]otvar.AxisCoord, 0, len(ln.Location))
	seen := make(map[ot.Tag]bool)
	for _, av := range ln.Location {
		tag, err := ot.ParseTag(av.Axis.Text)
		if err != nil {
			return otvar.NormalizedLocation{}, &AxisValueError{Value: av, msg: fmt.Sprintf("invalid axis tag: %v", err)}
		}
		_, axis, ok := axes.Axis(tag)
		if !ok {
			return otvar.NormalizedLocation{}, &AxisValueError{Value: av,
				msg: fmt.Sprintf("unknown axis '%s'", av.Axis.Text)}
		}
		if !axis.Contains(av.Value) {
			return otvar.NormalizedLocation{}, &AxisValueError{Value: av,
				msg: fmt.Sprintf("value %g out of range for axis '%s' (%g…%g)", av.Value, av.Axis.Text, axis.Min, axis.Max)}
		}
		if seen[tag] {
			return otvar.NormalizedLocation{}, &AxisValueError{Value: av,
				msg: fmt.Sprintf("axis '%s' specified twice", av.Axis.Text)}
		}
		seen[tag] = true
		coords = append(coords, otvar.AxisCoord{Tag: tag, Value: axis.Normalize(av.Value)})
	}
	return otvar.NewLocation(coords...), nil
}

func describeLocation(ln LocatedNumber) string {
	s := ""
	for i, av := range ln.Location {
		if i > 0 {
			s += ","
		}
		s += fmt.Sprintf("%s=%g", av.Axis.Text, av.Value)
	}
	return s
}
