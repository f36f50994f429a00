package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	err := WriteXLSX(&buf, "inventory", []string{"ID", "In Stock", "Threshold", "Name"}, [][]any{
		{"NPK-SENSOR", 45, 20, "NPK Sensor Pro"},
		{"SOIL-PROBE", nil, 15, "Soil Probe Kit"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"inventory"}, f.GetSheetList())
	rows, err := f.GetRows("inventory")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ID", "In Stock", "Threshold", "Name"},
		{"NPK-SENSOR", "45", "20", "NPK Sensor Pro"},
		{"SOIL-PROBE", "", "15", "Soil Probe Kit"},
	}, rows)
}

func TestWriteXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "", nil, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Sheet1"}, f.GetSheetList())
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "a_b_c", SheetName("a/b:c"))
	assert.Equal(t, "Sheet1", SheetName("  "))
	assert.Len(t, SheetName(strings.Repeat("x", 40)), 31)
}
