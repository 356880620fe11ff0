package fea

import (
	"strings"

	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/diag"
)

// Kind is the category of a token.
type Kind int

// Token kinds
const (
	EOF Kind = iota
	Ident
	ClassName
	Number
	String
	LBrace
	RBrace
	LBracket
	RBracket
	LParen
	RParen
	LAngle
	RAngle
	Semicolon
	Equals
	Colon
	Comma
	Marker
	NamedValue
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Ident:
		return "identifier"
	case ClassName:
		return "glyph class name"
	case Number:
		return "number"
	case String:
		return "string"
	case LBrace:
		return "'{'"
	case RBrace:
		return "'}'"
	case LBracket:
		return "'['"
	case RBracket:
		return "']'"
	case LParen:
		return "'('"
	case RParen:
		return "')'"
	case LAngle:
		return "'<'"
	case RAngle:
		return "'>'"
	case Semicolon:
		return "';'"
	case Equals:
		return "'='"
	case Colon:
		return "':'"
	case Comma:
		return "','"
	case Marker:
		return "insertion marker"
	case NamedValue:
		return "named value"
	}
	return "unknown"
}

// Token is a lexical unit of a feature file. Escaped identifiers (\name) never
// match keywords.
type Token struct {
	Kind    Kind
	Text    string
	Range   diag.ByteRange
	Escaped bool
}

// MarkerComment is the comment text which marks a position inside a feature
// block where a client may insert generated code.
const MarkerComment = "Automatic Code"

var punctuation = map[byte]Kind{
	'{': LBrace, '}': RBrace, '[': LBracket, ']': RBracket,
	'(': LParen, ')': RParen, '<': LAngle, '>': RAngle,
	';': Semicolon, '=': Equals, ':': Colon, ',': Comma,
}

// Tokenize splits a feature file into tokens. Comments are dropped, except for
// insertion markers. Lexical errors are reported to diags and the offending
// characters are skipped. The token list is always terminated by EOF.
func Tokenize(src string, file diag.FileID, diags *diag.DiagnosticSet) []Token {
	var tokens []Token
	emit := func(k Kind, start, end int, text string) {
		tokens = append(tokens, Token{Kind: k, Text: text, Range: diag.ByteRange{Start: start, End: end}})
	}
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '#':
			start := i
			for i < len(src) && src[i] != '\n' {
				i++
			}
			if strings.TrimSpace(src[start+1:i]) == MarkerComment {
				emit(Marker, start, i, src[start:i])
			}
		case c == '"':
			start := i
			i++
			for i < len(src) && src[i] != '"' {
				i++
			}
			if i >= len(src) {
				diags.Errorf(file, diag.ByteRange{Start: start, End: len(src)}, core.ESYNTAX, "unterminated string")
				break
			}
			i++
			emit(String, start, i, src[start+1:i-1])
		case c == '@':
			start := i
			i++
			for i < len(src) && isNameChar(src[i]) {
				i++
			}
			if i == start+1 {
				diags.Errorf(file, diag.ByteRange{Start: start, End: i}, core.ESYNTAX, "missing glyph class name after '@'")
				break
			}
			emit(ClassName, start, i, src[start+1:i])
		case c == '$':
			start := i
			i++
			for i < len(src) && isNameChar(src[i]) {
				i++
			}
			if i == start+1 {
				diags.Errorf(file, diag.ByteRange{Start: start, End: i}, core.ESYNTAX, "missing value name after '$'")
				break
			}
			emit(NamedValue, start, i, src[start+1:i])
		case isDigit(c) || (c == '-' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			i++
			if c == '0' && i < len(src) && (src[i] == 'x' || src[i] == 'X') {
				i++
				for i < len(src) && isHexDigit(src[i]) {
					i++
				}
			} else {
				for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
					i++
				}
			}
			emit(Number, start, i, src[start:i])
		case c == '\\' || isNameStart(c):
			start := i
			if c == '\\' {
				i++
			}
			nameStart := i
			for i < len(src) && isNameChar(src[i]) {
				i++
			}
			if i == nameStart {
				diags.Errorf(file, diag.ByteRange{Start: start, End: i}, core.ESYNTAX, "invalid escaped name")
				break
			}
			emit(Ident, start, i, src[nameStart:i])
			tokens[len(tokens)-1].Escaped = c == '\\'
		default:
			if k, ok := punctuation[c]; ok {
				emit(k, i, i+1, src[i:i+1])
				i++
				break
			}
			start := i
			i++
			for i < len(src) && src[i]&0xc0 == 0x80 { // skip the rest of a multi-byte character
				i++
			}
			diags.Errorf(file, diag.ByteRange{Start: start, End: i}, core.ESYNTAX,
				"unexpected character %q", src[start:i])
		}
	}
	emit(EOF, len(src), len(src), "")
	return tokens
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isNameStart(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || c == '_' || c == '.'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || isDigit(c) || c == '-'
}
