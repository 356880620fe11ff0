package diag

import (
	"strings"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUTF16OffsetASCII(t *testing.T) {
	src := "feature kern { pos A V -50; } kern;"
	for b := 0; b <= len(src); b++ {
		u, ok := UTF16Offset(src, b)
		require.True(t, ok)
		assert.Equal(t, uint32(b), u)
	}
}

func TestUTF16OffsetAstral(t *testing.T) {
	src := "a😀b" // U+1F600 takes 4 bytes in UTF-8 and 2 units in UTF-16
	u, ok := UTF16Offset(src, 5)
	require.True(t, ok)
	assert.Equal(t, uint32(3), u)
	u, ok = UTF16Offset(src, len(src))
	require.True(t, ok)
	assert.Equal(t, uint32(4), u)
	src = "ä€x" // 2 + 3 bytes, 1 + 1 units
	u, ok = UTF16Offset(src, 5)
	require.True(t, ok)
	assert.Equal(t, uint32(2), u)
}

func TestUTF16OffsetFailures(t *testing.T) {
	src := "a😀b"
	for _, b := range []int{2, 3, 4, 7, -1} {
		_, ok := UTF16Offset(src, b)
		assert.False(t, ok, "offset %d", b)
	}
}

func TestTranslate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	sources := NewSourceMap()
	src := "# 😀\nfeature kern { pos A V -50; } kern;"
	file := sources.Add("features.fea", src)
	start := strings.Index(src, "pos")
	set := NewDiagnosticSet(0)
	set.Warnf(file, ByteRange{Start: start, End: start + 3}, "something odd")
	set.Errorf(file, ByteRange{Start: 3, End: 4}, core.ESYNTAX, "inside a character")
	set.Errorf(FileID(7), ByteRange{Start: 10, End: 12}, core.EVALIDATION, "unknown file")
	msgs := Translate(set, sources)
	require.Len(t, msgs, 3)
	assert.Equal(t, Message{
		Level: "warning",
		Text:  "something odd",
		Span:  Span{Start: uint32(start - 2), End: uint32(start + 1)},
	}, msgs[0])
	assert.Equal(t, "error", msgs[1].Level)
	assert.Equal(t, Span{Start: 3, End: 4}, msgs[1].Span, "non-boundary offsets pass through")
	assert.Equal(t, Span{Start: 10, End: 12}, msgs[2].Span, "unknown files degrade to byte offsets")
	assert.Equal(t, "unknown file", msgs[2].Text)
}

func TestDiagnosticSetLimit(t *testing.T) {
	set := NewDiagnosticSet(2)
	set.Warnf(0, ByteRange{}, "w1")
	set.Warnf(0, ByteRange{}, "w2")
	assert.False(t, set.HasErrors())
	assert.NoError(t, set.Err())
	set.Errorf(0, ByteRange{}, core.ESYNTAX, "e1")
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 1, set.Overflow())
	assert.True(t, set.HasErrors(), "dropped errors still count")
	assert.Error(t, set.Err())
}

func TestDiagnosticSetErr(t *testing.T) {
	set := NewDiagnosticSet(0)
	set.Warnf(0, ByteRange{}, "just a warning")
	set.AddError(0, ByteRange{}, core.Error(core.EVARIATION, "no base master"))
	err := set.Err()
	assert.Equal(t, core.EVARIATION, core.Code(err))
	assert.Equal(t, "no base master", core.UserMessage(err))
	other := NewDiagnosticSet(0)
	other.Merge(set)
	assert.Equal(t, 2, other.Len())
	assert.True(t, other.HasErrors())
}

func TestDisplay(t *testing.T) {
	sources := NewSourceMap()
	file := sources.Add("features.fea", "languagesystem DFLT dflt;\nfeature kern {\n  pos A X 5;\n} kern;")
	set := NewDiagnosticSet(0)
	set.Errorf(file, ByteRange{Start: 49, End: 50}, core.EVALIDATION, "unknown glyph 'X'")
	out := set.Display(sources)
	assert.Contains(t, out, "error: unknown glyph 'X'")
	assert.Contains(t, out, "features.fea:3:9")
}
