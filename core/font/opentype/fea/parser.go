package fea

import (
	"fmt"
	"math"
	"strconv"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/diag"
)

// Parser is a recursive descent parser for the supported subset of the
// OpenType feature file syntax. Parse errors are collected as diagnostics;
// after an error the parser skips to the end of the statement and continues.
type Parser struct {
	file   diag.FileID
	tokens []Token
	pos    int
	prev   Token
	diags  *diag.DiagnosticSet
}

// Parse parses a feature file. It always returns a (possibly partial) syntax
// tree; the diagnostic set tells if parsing was successful.
func Parse(src string, file diag.FileID) (*File, *diag.DiagnosticSet) {
	diags := diag.NewDiagnosticSet(0)
	p := &Parser{
		file:   file,
		tokens: Tokenize(src, file, diags),
		diags:  diags,
	}
	f := &File{ID: file}
	for p.peek().Kind != EOF {
		if st := p.parseTopLevel(); st != nil {
			f.Statements = append(f.Statements, st)
		}
	}
	tracer().Debugf("parsed %d top-level statements, %d diagnostics", len(f.Statements), diags.Len())
	return f, diags
}

type syntaxError struct {
	rng  diag.ByteRange
	code int
	msg  string
}

func (e syntaxError) Error() string {
	return e.msg
}

func (p *Parser) errorAt(t Token, format string, args ...interface{}) error {
	return syntaxError{rng: t.Range, code: core.ESYNTAX, msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) report(err error) {
	if se, ok := err.(syntaxError); ok {
		p.diags.Errorf(p.file, se.rng, se.code, "%s", se.msg)
		return
	}
	p.diags.AddError(p.file, p.peek().Range, err)
}

// --- Token access ----------------------------------------------------------

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) next() Token {
	t := p.tokens[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	p.prev = t
	return t
}

func (p *Parser) atKeyword(words ...string) bool {
	t := p.peek()
	if t.Kind != Ident || t.Escaped {
		return false
	}
	for _, w := range words {
		if t.Text == w {
			return true
		}
	}
	return false
}

func (p *Parser) expect(k Kind) (Token, error) {
	t := p.peek()
	if t.Kind != k {
		return t, p.errorAt(t, "expected %s, found %s", k, describe(t))
	}
	return p.next(), nil
}

func describe(t Token) string {
	switch t.Kind {
	case EOF, Marker:
		return t.Kind.String()
	case Ident:
		return fmt.Sprintf("'%s'", t.Text)
	case ClassName:
		return fmt.Sprintf("'@%s'", t.Text)
	case NamedValue:
		return fmt.Sprintf("'$%s'", t.Text)
	case String:
		return fmt.Sprintf("string %q", t.Text)
	}
	return fmt.Sprintf("'%s'", t.Text)
}

// from returns a node spanning from token t to the last token consumed.
func (p *Parser) from(t Token) node {
	return node{Range: diag.ByteRange{Start: t.Range.Start, End: p.prev.Range.End}}
}

// synchronize skips to the end of the current statement. A closing brace of
// an enclosing block is not consumed.
func (p *Parser) synchronize() {
	depth := 0
	for {
		switch p.peek().Kind {
		case EOF:
			return
		case LBrace:
			depth++
		case RBrace:
			if depth == 0 {
				return
			}
			depth--
		case Semicolon:
			if depth == 0 {
				p.next()
				return
			}
		}
		p.next()
	}
}

// --- Statements ------------------------------------------------------------

func (p *Parser) parseTopLevel() Statement {
	var st Statement
	var err error
	t := p.peek()
	switch {
	case p.atKeyword("languagesystem"):
		st, err = p.parseLanguageSystem()
	case t.Kind == ClassName:
		st, err = p.parseClassDef()
	case p.atKeyword("feature"):
		st, err = p.parseFeature()
	case p.atKeyword("lookup"):
		st, err = p.parseLookup()
	case p.atKeyword("include"):
		err = p.parseInclude()
	case t.Kind == Marker:
		p.next()
		p.diags.Warnf(p.file, t.Range, "insertion marker outside of a feature block is ignored")
	case t.Kind == Ident && isUnsupported(t.Text):
		err = syntaxError{rng: t.Range, code: core.EUNSUPPORTED, msg: fmt.Sprintf("unsupported statement '%s'", t.Text)}
	default:
		err = p.errorAt(t, "expected a top-level statement, found %s", describe(t))
	}
	if err != nil {
		p.report(err)
		p.synchronize()
		if p.peek().Kind == RBrace {
			p.next()
		}
		return nil
	}
	return st
}

var unsupportedStatements = map[string]bool{
	"table": true, "anchorDef": true, "valueRecordDef": true, "markClass": true,
	"script": true, "language": true, "subtable": true, "ignore": true, "enum": true,
	"enumerate": true, "rsub": true, "reversesub": true, "parameters": true,
	"sizemenuname": true, "cvParameters": true, "anonymous": true, "anon": true,
}

func isUnsupported(keyword string) bool {
	return unsupportedStatements[keyword]
}

func (p *Parser) parseInclude() error {
	kw := p.next()
	if _, err := p.expect(LParen); err != nil {
		return err
	}
	for p.peek().Kind != RParen && p.peek().Kind != EOF && p.peek().Kind != Semicolon {
		p.next()
	}
	if _, err := p.expect(RParen); err != nil {
		return err
	}
	p.diags.Errorf(p.file, p.from(kw).Range, core.ESYNTAX, "cannot handle imports")
	if p.peek().Kind == Semicolon {
		p.next()
	}
	return nil
}

func (p *Parser) parseName(what string) (Name, error) {
	t := p.peek()
	if t.Kind != Ident {
		return Name{}, p.errorAt(t, "expected %s, found %s", what, describe(t))
	}
	p.next()
	return Name{node: node{Range: t.Range}, Text: t.Text}, nil
}

func (p *Parser) parseLanguageSystem() (Statement, error) {
	kw := p.next()
	script, err := p.parseName("script tag")
	if err != nil {
		return nil, err
	}
	lang, err := p.parseName("language tag")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Semicolon); err != nil {
		return nil, err
	}
	return &LanguageSystem{node: p.from(kw), Script: script, Lang: lang}, nil
}

func (p *Parser) parseClassDef() (Statement, error) {
	name := p.next()
	if _, err := p.expect(Equals); err != nil {
		return nil, err
	}
	class, err := p.parseGlyphSet()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(Semicolon); err != nil {
		return nil, err
	}
	return &ClassDef{
		node:  p.from(name),
		Name:  Name{node: node{Range: name.Range}, Text: name.Text},
		Class: class,
	}, nil
}

// parseFeature parses a feature block or a feature reference.
func (p *Parser) parseFeature() (Statement, error) {
	kw := p.next()
	tag, err := p.parseName("feature tag")
	if err != nil {
		return nil, err
	}
	if p.peek().Kind == Semicolon {
		p.next()
		return &FeatureRef{node: p.from(kw), Tag: tag}, nil
	}
	if p.atKeyword("useExtension") {
		p.next()
	}
	stmts, err := p.parseBlock(tag)
	if err != nil {
		return nil, err
	}
	return &FeatureBlock{node: p.from(kw), Tag: tag, Statements: stmts}, nil
}

// parseLookup parses a lookup block or a lookup reference.
func (p *Parser) parseLookup() (Statement, error) {
	kw := p.next()
	label, err := p.parseName("lookup name")
	if err != nil {
		return nil, err
	}
	if p.peek().Kind == Semicolon {
		p.next()
		return &LookupRef{node: p.from(kw), Label: label}, nil
	}
	if p.atKeyword("useExtension") {
		p.next()
	}
	stmts, err := p.parseBlock(label)
	if err != nil {
		return nil, err
	}
	return &LookupBlock{node: p.from(kw), Label: label, Statements: stmts}, nil
}

// parseBlock parses '{ statements } label ;'.
func (p *Parser) parseBlock(label Name) ([]Statement, error) {
	if _, err := p.expect(LBrace); err != nil {
		return nil, err
	}
	var stmts []Statement
	for p.peek().Kind != RBrace && p.peek().Kind != EOF {
		st, err := p.parseBlockStatement()
		if err != nil {
			p.report(err)
			p.synchronize()
			continue
		}
		if st != nil {
			stmts = append(stmts, st)
		}
	}
	if _, err := p.expect(RBrace); err != nil {
		return nil, err
	}
	end, err := p.parseName("'" + label.Text + "'")
	if err != nil {
		return nil, err
	}
	if end.Text != label.Text {
		return nil, syntaxError{rng: end.Range, code: core.ESYNTAX,
			msg: fmt.Sprintf("block end '%s' does not match '%s'", end.Text, label.Text)}
	}
	if _, err := p.expect(Semicolon); err != nil {
		return nil, err
	}
	return stmts, nil
}

func (p *Parser) parseBlockStatement() (Statement, error) {
	t := p.peek()
	switch {
	case t.Kind == Marker:
		p.next()
		return &InsertionMarker{node: node{Range: t.Range}}, nil
	case t.Kind == ClassName:
		return p.parseClassDef()
	case t.Kind == Semicolon:
		p.next() // empty statement
		return nil, nil
	case p.atKeyword("lookupflag"):
		return p.parseLookupFlag()
	case p.atKeyword("lookup"):
		return p.parseLookup()
	case p.atKeyword("feature"):
		return p.parseFeature()
	case p.atKeyword("featureNames"):
		return p.parseFeatureNames()
	case p.atKeyword("sub", "substitute"):
		return p.parseSub()
	case p.atKeyword("pos", "position"):
		return p.parsePos()
	case p.atKeyword("languagesystem"):
		return nil, p.errorAt(t, "languagesystem statements must appear at top level")
	case t.Kind == Ident && isUnsupported(t.Text):
		return nil, syntaxError{rng: t.Range, code: core.EUNSUPPORTED, msg: fmt.Sprintf("unsupported statement '%s'", t.Text)}
	}
	return nil, p.errorAt(t, "expected a rule or statement, found %s", describe(t))
}

func (p *Parser) parseLookupFlag() (Statement, error) {
	kw := p.next()
	lf := &LookupFlag{}
	if p.peek().Kind == Number {
		t := p.next()
		v, err := parseInt(t.Text, 16)
		if err != nil || v < 0 {
			return nil, p.errorAt(t, "invalid lookup flag %s", t.Text)
		}
		lf.Value, lf.Numeric = uint16(v), true
	} else {
		for p.peek().Kind == Ident {
			name, _ := p.parseName("lookup flag")
			lf.Flags = append(lf.Flags, name)
		}
		if len(lf.Flags) == 0 {
			return nil, p.errorAt(p.peek(), "expected lookup flags, found %s", describe(p.peek()))
		}
	}
	if _, err := p.expect(Semicolon); err != nil {
		return nil, err
	}
	lf.node = p.from(kw)
	return lf, nil
}

func (p *Parser) parseFeatureNames() (Statement, error) {
	kw := p.next()
	if _, err := p.expect(LBrace); err != nil {
		return nil, err
	}
	fn := &FeatureNames{}
	for p.atKeyword("name") {
		start := p.next()
		spec := NameSpec{}
		for p.peek().Kind == Number {
			t := p.next()
			id, err := parseInt(t.Text, 32)
			if err != nil {
				return nil, p.errorAt(t, "invalid name ID %s", t.Text)
			}
			spec.IDs = append(spec.IDs, int(id))
		}
		str, err := p.expect(String)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(Semicolon); err != nil {
			return nil, err
		}
		spec.Text = str.Text
		spec.node = p.from(start)
		fn.Names = append(fn.Names, spec)
	}
	if _, err := p.expect(RBrace); err != nil {
		return nil, err
	}
	if _, err := p.expect(Semicolon); err != nil {
		return nil, err
	}
	fn.node = p.from(kw)
	return fn, nil
}

func (p *Parser) parseSub() (Statement, error) {
	kw := p.next()
	rule := &SubRule{}
	for p.atGlyphSet() {
		gs, err := p.parseGlyphSet()
		if err != nil {
			return nil, err
		}
		rule.Input = append(rule.Input, gs)
	}
	if len(rule.Input) == 0 {
		return nil, p.errorAt(p.peek(), "expected glyph or glyph class, found %s", describe(p.peek()))
	}
	var op Token
	switch {
	case p.atKeyword("by"):
		op = p.next()
	case p.atKeyword("from"):
		op = p.next()
	default:
		return nil, p.errorAt(p.peek(), "expected 'by' or 'from', found %s", describe(p.peek()))
	}
	for p.atGlyphSet() {
		gs, err := p.parseGlyphSet()
		if err != nil {
			return nil, err
		}
		rule.Replacement = append(rule.Replacement, gs)
	}
	if _, err := p.expect(Semicolon); err != nil {
		return nil, err
	}
	rule.node = p.from(kw)
	switch {
	case len(rule.Replacement) == 0:
		return nil, syntaxError{rng: rule.Range, code: core.ESYNTAX, msg: "missing replacement"}
	case op.Text == "from":
		if len(rule.Input) != 1 || len(rule.Replacement) != 1 {
			return nil, syntaxError{rng: rule.Range, code: core.ESYNTAX,
				msg: "alternate substitution needs exactly one glyph and one class of alternates"}
		}
		rule.Kind = SubAlternate
	case len(rule.Replacement) > 1:
		return nil, syntaxError{rng: rule.Range, code: core.EUNSUPPORTED,
			msg: "multiple substitution is not supported"}
	case len(rule.Input) > 1:
		rule.Kind = SubLigature
	default:
		rule.Kind = SubSingle
	}
	return rule, nil
}

func (p *Parser) parsePos() (Statement, error) {
	kw := p.next()
	rule := &PosRule{}
	for p.atGlyphSet() {
		gs, err := p.parseGlyphSet()
		if err != nil {
			return nil, err
		}
		rule.Glyphs = append(rule.Glyphs, gs)
	}
	if len(rule.Glyphs) == 0 || len(rule.Glyphs) > 2 {
		return nil, syntaxError{rng: p.from(kw).Range, code: core.EUNSUPPORTED,
			msg: "only single and pair positioning rules are supported"}
	}
	value, err := p.parseValueRecord()
	if err != nil {
		return nil, err
	}
	rule.Value = value
	if _, err := p.expect(Semicolon); err != nil {
		return nil, err
	}
	rule.node = p.from(kw)
	return rule, nil
}

// --- Glyphs ----------------------------------------------------------------

func (p *Parser) atGlyphSet() bool {
	t := p.peek()
	switch t.Kind {
	case ClassName, LBracket:
		return true
	case Ident:
		return t.Escaped || (t.Text != "by" && t.Text != "from")
	}
	return false
}

func (p *Parser) parseGlyphSet() (GlyphSet, error) {
	t := p.peek()
	switch t.Kind {
	case Ident:
		p.next()
		return GlyphSet{node: node{Range: t.Range}, Items: []GlyphRef{{node: node{Range: t.Range}, Name: t.Text}}}, nil
	case ClassName:
		p.next()
		return GlyphSet{node: node{Range: t.Range}, Items: []GlyphRef{{node: node{Range: t.Range}, Name: t.Text, IsClass: true}}}, nil
	case LBracket:
		open := p.next()
		gs := GlyphSet{Inline: true}
		for p.peek().Kind == Ident || p.peek().Kind == ClassName {
			item := p.next()
			gs.Items = append(gs.Items, GlyphRef{
				node:    node{Range: item.Range},
				Name:    item.Text,
				IsClass: item.Kind == ClassName,
			})
		}
		if _, err := p.expect(RBracket); err != nil {
			return GlyphSet{}, err
		}
		gs.node = p.from(open)
		if len(gs.Items) == 0 {
			return GlyphSet{}, syntaxError{rng: gs.Range, code: core.ESYNTAX, msg: "empty glyph class"}
		}
		return gs, nil
	}
	return GlyphSet{}, p.errorAt(t, "expected glyph or glyph class, found %s", describe(t))
}

// --- Values ----------------------------------------------------------------

func (p *Parser) parseValueRecord() (ValueRecord, error) {
	t := p.peek()
	switch t.Kind {
	case Number, LParen, NamedValue:
		m, err := p.parseMetric()
		if err != nil {
			return ValueRecord{}, err
		}
		return ValueRecord{node: m.node, Single: m}, nil
	case LAngle:
		open := p.next()
		var metrics []*Metric
		for k := p.peek().Kind; k == Number || k == LParen || k == NamedValue; k = p.peek().Kind {
			m, err := p.parseMetric()
			if err != nil {
				return ValueRecord{}, err
			}
			metrics = append(metrics, m)
		}
		if _, err := p.expect(RAngle); err != nil {
			return ValueRecord{}, err
		}
		vr := ValueRecord{node: p.from(open)}
		switch len(metrics) {
		case 1:
			vr.Single = metrics[0]
		case 4:
			vr.XPlacement, vr.YPlacement, vr.XAdvance, vr.YAdvance = metrics[0], metrics[1], metrics[2], metrics[3]
		default:
			return ValueRecord{}, syntaxError{rng: vr.Range, code: core.ESYNTAX,
				msg: fmt.Sprintf("value record needs 1 or 4 values, has %d", len(metrics))}
		}
		return vr, nil
	}
	return ValueRecord{}, p.errorAt(t, "expected value record, found %s", describe(t))
}

func (p *Parser) parseMetric() (*Metric, error) {
	if t := p.peek(); t.Kind == NamedValue {
		p.next()
		return &Metric{node: node{Range: t.Range}, Named: t.Text}, nil
	}
	if p.peek().Kind != LParen {
		t := p.next()
		v, err := p.int16Value(t)
		if err != nil {
			return nil, err
		}
		return &Metric{node: node{Range: t.Range}, Value: v}, nil
	}
	open := p.next()
	m := &Metric{Variable: []LocatedNumber{}}
	for p.peek().Kind != RParen {
		start := p.peek()
		ln := LocatedNumber{}
		for {
			axis, err := p.parseName("axis tag")
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(Equals); err != nil {
				return nil, err
			}
			num, err := p.expect(Number)
			if err != nil {
				return nil, err
			}
			v, err := strconv.ParseFloat(num.Text, 64)
			if err != nil {
				return nil, p.errorAt(num, "invalid axis value %s", num.Text)
			}
			ln.Location = append(ln.Location, AxisValue{node: p.from(axis.asToken()), Axis: axis, Value: v})
			if p.peek().Kind != Comma {
				break
			}
			p.next()
		}
		if _, err := p.expect(Colon); err != nil {
			return nil, err
		}
		num, err := p.expect(Number)
		if err != nil {
			return nil, err
		}
		if ln.Value, err = p.int16Value(num); err != nil {
			return nil, err
		}
		ln.node = p.from(start)
		m.Variable = append(m.Variable, ln)
	}
	p.next() // ')'
	m.node = p.from(open)
	if len(m.Variable) == 0 {
		return nil, syntaxError{rng: m.Range, code: core.ESYNTAX, msg: "empty variable value"}
	}
	return m, nil
}

func (p *Parser) int16Value(t Token) (int16, error) {
	if t.Kind != Number {
		return 0, p.errorAt(t, "expected number, found %s", describe(t))
	}
	v, err := parseInt(t.Text, 32)
	if err != nil {
		return 0, p.errorAt(t, "expected integer, found %s", t.Text)
	}
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, syntaxError{rng: t.Range, code: core.EOVERFLOW, msg: fmt.Sprintf("value %d out of range", v)}
	}
	return int16(v), nil
}

func (n Name) asToken() Token {
	return Token{Kind: Ident, Text: n.Text, Range: n.Range}
}

// parseInt parses a decimal or hexadecimal (0x…) integer literal.
func parseInt(s string, bitSize int) (int64, error) {
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return strconv.ParseInt(s[2:], 16, bitSize)
	}
	return strconv.ParseInt(s, 10, bitSize)
}
