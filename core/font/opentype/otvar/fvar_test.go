package otvar

import (
	"testing"

	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/npillmayer/shaperfont/core"
	"github.com/npillmayer/shaperfont/core/font/opentype/ot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildAxisTable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	wght, _ := NewAxis("wght", 100, 400, 900)
	wdth, _ := NewAxis("wdth", 75, 100, 125.5)
	table, err := BuildAxisTable([]Axis{wght, wdth}, []uint16{1, 2, 256, 300})
	require.NoError(t, err)
	require.Len(t, table.Axes, 2)
	require.Len(t, table.Names, 2)
	assert.Equal(t, uint16(301), table.Axes[0].NameID)
	assert.Equal(t, uint16(302), table.Axes[1].NameID)
	assert.Equal(t, NameRecord{NameID: 301, Label: "Weight"}, table.Names[0])
	assert.Equal(t, NameRecord{NameID: 302, Label: "Width"}, table.Names[1])
	assert.Equal(t, ot.T("wght"), table.Axes[0].Tag)
	assert.Equal(t, ot.Fixed(400<<16), table.Axes[0].Default)
	assert.Equal(t, ot.Fixed(125<<16+1<<15), table.Axes[1].Max)
}

func TestBuildAxisTableDefaultIDs(t *testing.T) {
	wght, _ := NewAxis("wght", 100, 400, 900)
	table, err := BuildAxisTable([]Axis{wght}, nil)
	require.NoError(t, err)
	assert.Equal(t, uint16(256), table.Names[0].NameID)
}

func TestBuildEmptyAxisTable(t *testing.T) {
	table, err := BuildAxisTable(nil, []uint16{1, 2, 3})
	require.NoError(t, err)
	assert.True(t, table.IsEmpty())
	assert.Empty(t, table.Names)
}

func TestAxisTableOverflow(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "shaperfont.fonts")
	defer teardown()
	//
	wght, _ := NewAxis("wght", 100, 400, 900)
	_, err := BuildAxisTable([]Axis{wght}, []uint16{MaxNameID})
	assert.Equal(t, core.EOVERFLOW, core.Code(err))
	huge, _ := NewAxis("HUGE", 0, 1, 1e6)
	_, err = BuildAxisTable([]Axis{huge}, nil)
	assert.Equal(t, core.EOVERFLOW, core.Code(err))
}

func TestNameAllocator(t *testing.T) {
	names := NewNameAllocator([]uint16{32766})
	id, err := names.Next()
	assert.NoError(t, err)
	assert.Equal(t, uint16(32767), id)
	_, err = names.Next()
	assert.Error(t, err)
}
