package ot

import (
	"encoding/binary"
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	tag := Tag(0x636d6170)
	if tag.String() != "cmap" {
		t.Errorf("expected tag 0x636d6170 to be 'cmap', is %s", tag.String())
	}
	tag = MakeTag([]byte("cmap"))
	if tag.String() != "cmap" {
		t.Errorf("expected tag MakeTag(cmap) to be 'cmap', is %s", tag.String())
	}
	tag = T("cmap")
	if tag.String() != "cmap" {
		t.Errorf("expected tag T(cmap) to be 'cmap', is %s", tag.String())
	}
	if T("DEU").String() != "DEU " {
		t.Errorf("expected short tag to be padded, is %q", T("DEU").String())
	}
}

func TestParseTag(t *testing.T) {
	for _, s := range []string{"wght", "opsz", "a", "ab", "DEU"} {
		tag, err := ParseTag(s)
		assert.NoError(t, err, s)
		assert.Equal(t, T(s), tag)
	}
	for _, s := range []string{"", "weight", " abc", "a bc", "wg\tt", "wghä"} {
		_, err := ParseTag(s)
		assert.Error(t, err, s)
	}
}

func TestTableName(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	tb := tableBase{}
	tb.name = 0x636d6170
	s := tb.Self().NameTag().String()
	if s != "cmap" {
		t.Errorf("expected table name to be cmap, is %v", s)
	}
}

func TestFixed(t *testing.T) {
	for _, v := range []float64{0, 1, -1, 100, 400, 900, 0.5, -32768} {
		f, err := FixedFromFloat(v)
		require.NoError(t, err)
		assert.Equal(t, v, f.Float())
	}
	f, err := FixedFromFloat(1.0 / 3.0)
	require.NoError(t, err)
	assert.Equal(t, Fixed(21845), f)
	_, err = FixedFromFloat(40000)
	assert.Error(t, err)
	assert.Equal(t, "2.5", Fixed(0x28000).String())
}

func TestF2Dot14(t *testing.T) {
	assert.Equal(t, F2Dot14(0x4000), F2Dot14FromFloat(1))
	assert.Equal(t, F2Dot14(-0x4000), F2Dot14FromFloat(-1))
	assert.Equal(t, F2Dot14(0x2000), F2Dot14FromFloat(0.5))
	assert.Equal(t, F2Dot14(0x7fff), F2Dot14FromFloat(2.5))
	assert.Equal(t, F2Dot14(-0x8000), F2Dot14FromFloat(-3))
	assert.Equal(t, -1.0, F2Dot14(-0x4000).Float())
}

// sfnt assembles a font from (tag, data) pairs, which have to be sorted by tag.
func sfnt(tables ...interface{}) []byte {
	n := len(tables) / 2
	font := make([]byte, 12+16*n)
	binary.BigEndian.PutUint32(font, 0x00010000)
	binary.BigEndian.PutUint16(font[4:], uint16(n))
	for i := 0; i < n; i++ {
		tag, data := tables[2*i].(string), tables[2*i+1].([]byte)
		rec := font[12+16*i:]
		copy(rec, tag)
		binary.BigEndian.PutUint32(rec[8:], uint32(len(font)))
		binary.BigEndian.PutUint32(rec[12:], uint32(len(data)))
		font = append(font, data...)
		for len(font)%4 != 0 {
			font = append(font, 0)
		}
	}
	return font
}

func headTable(upem uint16) []byte {
	head := make([]byte, 54)
	binary.BigEndian.PutUint32(head[0:], 0x00010000)
	binary.BigEndian.PutUint32(head[12:], 0x5f0f3cf5)
	binary.BigEndian.PutUint16(head[18:], upem)
	return head
}

func TestParseMinimalFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	font := sfnt("abcd", []byte{1, 2, 3}, "head", headTable(2048))
	otf, err := Parse(font)
	require.NoError(t, err)
	assert.Equal(t, []Tag{T("abcd"), T("head")}, otf.TableTags())
	head := otf.Table(T("head")).Self().AsHead()
	require.NotNil(t, head)
	assert.Equal(t, uint16(2048), head.UnitsPerEm)
	generic := otf.Table(T("abcd"))
	require.NotNil(t, generic)
	assert.Equal(t, []byte{1, 2, 3}, generic.Binary())
	assert.Nil(t, generic.Self().AsHead())
	assert.Nil(t, otf.Table(T("GSUB")))
}

func TestParseErrors(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	_, err := Parse([]byte{0, 1, 0})
	assert.Error(t, err)
	bad := sfnt("head", headTable(1000))
	binary.BigEndian.PutUint32(bad, 0x12345678)
	_, err = Parse(bad)
	assert.Error(t, err)
	unordered := sfnt("head", headTable(1000), "abcd", []byte{1})
	_, err = Parse(unordered)
	assert.Error(t, err)
	magic := headTable(1000)
	magic[12] = 0
	_, err = Parse(sfnt("head", magic))
	assert.Error(t, err)
	truncated := sfnt("head", headTable(1000))
	_, err = Parse(truncated[:len(truncated)-10])
	require.Error(t, err)
	assert.Equal(t, core.EINVALID, core.Code(err))
}
