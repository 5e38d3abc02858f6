package icio

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/EcoFootprint-Intelligence/pkg/errors"
	"github.com/turtacn/EcoFootprint-Intelligence/pkg/types/economy"
)

const sampleCSV = `Unnamed: 0,AUS_AGR,AUS_MIN,DEU_AGR,DEU_MIN
AUS_AGR,1.5,2.5,3.5,4.5
OUT,100,200,300,400
`

func TestParseCSVColumnsAndRows(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []economy.CompositeKey{
		"AUS_AGR", "AUS_MIN", "DEU_AGR", "DEU_MIN",
	}, table.Columns())
	assert.Equal(t, []string{"AUS_AGR", "OUT"}, table.RowLabels())

	out, ok := table.Row("OUT")
	require.True(t, ok)
	assert.Equal(t, []float64{100, 200, 300, 400}, out)
}

func TestParseCSVUnparseableCellBecomesNaN(t *testing.T) {
	csv := "id,AUS_AGR,AUS_MIN\nOUT,abc,2\n"
	table, err := ParseCSV(strings.NewReader(csv))
	require.NoError(t, err)

	out, ok := table.Row("OUT")
	require.True(t, ok)
	assert.True(t, math.IsNaN(out[0]))
	assert.Equal(t, 2.0, out[1])
}

func TestParseCSVEmptyInputFails(t *testing.T) {
	_, err := ParseCSV(strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceParseError))
}

func TestParseCSVHeaderWithoutDataColumnsFails(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("only_label\n"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceParseError))
}

func TestParseCSVRaggedRecordFails(t *testing.T) {
	// encoding/csv reports the mismatched field count itself; it must surface
	// as a parse error, not a panic or silent truncation.
	csv := "id,AUS_AGR,AUS_MIN\nOUT,1\n"
	_, err := ParseCSV(strings.NewReader(csv))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDataSourceParseError))
}

func TestRowMissingLabel(t *testing.T) {
	table, err := ParseCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	_, ok := table.Row("VA")
	assert.False(t, ok)
}
