package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmfuture/pkg/query"
)

func TestTable(t *testing.T) {
	snap, err := DefaultSeed()
	require.NoError(t, err)

	for _, e := range Entities {
		t.Run(e, func(t *testing.T) {
			sel, err := Select(snap, e, query.Criteria{})
			require.NoError(t, err)
			header, rows, err := Table(sel)
			require.NoError(t, err)
			require.Len(t, rows, sel.Count)
			for _, r := range rows {
				assert.Len(t, r, len(header))
			}
		})
	}
}

func TestTableMissingNumbersAreBlank(t *testing.T) {
	snap, err := DefaultSeed()
	require.NoError(t, err)

	sel, err := Select(snap, Devices, query.Criteria{Query: "NPK-012"})
	require.NoError(t, err)
	header, rows, err := Table(sel)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Battery", header[4])
	assert.Nil(t, rows[0][4])
}

func TestTableUnknown(t *testing.T) {
	_, _, err := Table(Selection{Entity: "x", Items: 42})
	assert.ErrorIs(t, err, ErrUnknownEntity)
}
