package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

func TestNRELParser_Parse(t *testing.T) {
	input := `timestamp,out.electricity.total.energy_consumption.kwh,out.natural_gas.heating.energy_consumption,in.county,custom_metric
2018-01-01 00:15:00,100.5,20,G0600010,1
2018-01-01 00:30:00,101.5,21,G0600010,2
2018-01-01 00:45:00,102.5,22,G0600010,3`

	table, err := NewNRELParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	require.Equal(t, 3, table.Len())

	assert.Equal(t, time.Date(2018, 1, 1, 0, 15, 0, 0, time.UTC), table.Timestamps[0])
	assert.Equal(t, []string{model.ColElectricityTotal, model.ColNaturalGasHeating, "custom_metric"}, table.Columns)

	elec, ok := table.Column(model.ColElectricityTotal)
	require.True(t, ok)
	assert.Equal(t, []float64{100.5, 101.5, 102.5}, elec)

	custom, ok := table.Column("custom_metric")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2, 3}, custom)

	assert.Equal(t, []string{"G0600010", "G0600010", "G0600010"}, table.Text["in.county"])
	assert.False(t, table.HasColumn("in.county"))
}

func TestNRELParser_BlankCellsReadAsZero(t *testing.T) {
	input := `timestamp,Electricity Total,out.propane.heating.energy_consumption,in.note
2018-01-01 00:00:00,1,,
2018-01-01 01:00:00,2,3.5,
2018-01-01 02:00:00,3,,`

	table, err := NewNRELParser().Parse(strings.NewReader(input))
	require.NoError(t, err)

	propane, ok := table.Column(model.ColPropaneHeating)
	require.True(t, ok)
	assert.Equal(t, []float64{0, 3.5, 0}, propane)

	// a column with nothing in it stays text
	assert.False(t, table.HasColumn("in.note"))
	assert.Equal(t, []string{"", "", ""}, table.Text["in.note"])
}

func TestNRELParser_HourTwentyFourRollsOver(t *testing.T) {
	input := `timestamp,out.electricity.total.energy_consumption
2018-01-01 23:00:00,1
2018-01-01 24:00:00,2`

	table, err := NewNRELParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 1, 2, 0, 0, 0, 0, time.UTC), table.Timestamps[1])
}

func TestNRELParser_DateAndTimeColumns(t *testing.T) {
	input := `Date,Time,Electricity Total
2018-07-01,13:00,5
2018-07-01,14:00,6`

	table, err := NewNRELParser().Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 7, 1, 14, 0, 0, 0, time.UTC), table.Timestamps[1])
	assert.Equal(t, []string{model.ColElectricityTotal}, table.Columns)
}

func TestNRELParser_Location(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	input := `timestamp,Electricity Total
2018-01-01 01:00,1`

	table, err := (&NRELParser{Location: loc}).Parse(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 1, 1, 6, 0, 0, 0, time.UTC), table.Timestamps[0].UTC())
}

func TestNRELParser_Errors(t *testing.T) {
	cases := map[string]string{
		"no timestamp": "a,b\n1,2",
		"bad timestamp": `timestamp,Electricity Total
yesterday,1`,
		"not increasing": `timestamp,Electricity Total
2018-01-01 01:00,1
2018-01-01 00:00,1`,
		"no rows": "timestamp,Electricity Total",
		"repeated hour": `timestamp,Electricity Total
2018-11-04 01:00,1
2018-11-04 01:00,1`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NewNRELParser().Parse(strings.NewReader(input))
			require.Error(t, err)
			assert.ErrorIs(t, err, timeseries.ErrFormat)
		})
	}

	var fe *timeseries.FormatError
	_, err := NewNRELParser().Parse(strings.NewReader("timestamp,x\n2018-01-01 00:00,1\nnope,2"))
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 3, fe.Row)
}

func TestNRELParser_DuplicateMappedHeader(t *testing.T) {
	input := `timestamp,out.electricity.total.energy_consumption,out.electricity.total.energy_consumption.kwh
2018-01-01 00:15:00,1,1`

	_, err := NewNRELParser().Parse(strings.NewReader(input))
	assert.Error(t, err)
}

func TestNRELParser_RaggedRow(t *testing.T) {
	input := `timestamp,Electricity Total
2018-01-01 00:15:00,1,9`

	_, err := NewNRELParser().Parse(strings.NewReader(input))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.csv")
	require.NoError(t, os.WriteFile(path, []byte("timestamp,Electricity Total\n2018-01-01 00:15:00,7\n"), 0o644))

	table, err := LoadFile(NewNRELParser(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Len())

	_, err = LoadFile(NewNRELParser(), filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}
