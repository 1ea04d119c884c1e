package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loadshape_toolkit/internal/electrification"
	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

func TestLoad_MissingFileReturnsEmpty(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, &Config{}, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scenario: [1, 2"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{
		Dataset: model.Dataset{
			Sector:       model.SectorResidential,
			Geography:    model.GeographyState,
			Region:       "CA",
			BuildingType: "mobile_home",
		},
		Aggregation: AggregationConfig{Mode: "sum", Season: "winter", DayType: "weekday"},
		Timezone:    model.TimezonePST,
		Scenario: ScenarioConfig{
			InitialYear: 2020,
			TargetYear:  2050,
			StudyYear:   2035,
			Curves: map[model.EndUse]CurveConfig{
				model.EndUseCooking: {PeakYear: 2040, PeakRate: 30},
			},
		},
		MQTT: MQTTConfig{Enabled: true, Broker: "localhost:1883", TopicPrefix: "grid"},
	}
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
	assert.NoError(t, loaded.Validate())
}

func TestLoad_YAMLKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
dataset:
  sector: comstock
  geography: climate_zone
  region: marine
aggregation:
  mode: peak_day
  month_start: 6
  month_end: 9
timezone: CST
scenario:
  initial_year: 2018
  target_year: 2040
  curves:
    space_heating:
      peak_year: 2030
      peak_rate: 80
    clothes_drying:
      disabled: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "comstock-marine-all", cfg.Dataset.Label())

	spec, err := cfg.AggregationSpec()
	require.NoError(t, err)
	assert.Equal(t, timeseries.Spec{Mode: timeseries.ModePeakDay, MonthStart: 6, MonthEnd: 9}, spec)

	curves := cfg.CurveParams()
	assert.Equal(t, electrification.CurveParams{PeakYear: 2030, PeakRate: 80, Enabled: true}, curves[model.EndUseSpaceHeating])
	assert.False(t, curves[model.EndUseClothesDrying].Enabled)
	assert.Equal(t, electrification.DefaultCurve(2018, 2040), curves[model.EndUseCooking])
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}

	initial, target, study := cfg.Years()
	assert.Equal(t, DefaultInitialYear, initial)
	assert.Equal(t, DefaultTargetYear, target)
	assert.Equal(t, DefaultTargetYear, study)

	spec, err := cfg.AggregationSpec()
	require.NoError(t, err)
	assert.Equal(t, timeseries.DefaultSpec(), spec)

	curves := cfg.CurveParams()
	require.Len(t, curves, len(model.EndUses))
	for _, eu := range model.EndUses {
		assert.True(t, curves[eu].Enabled)
		assert.Equal(t, float64(DefaultPeakRate), curves[eu].PeakRate)
		assert.Equal(t, 2031.5, curves[eu].PeakYear)
	}

	assert.Equal(t, "loadshape", cfg.GetTopicPrefix())
	assert.Equal(t, ":8080", cfg.GetServerAddr())
	assert.NoError(t, cfg.Validate())
}

func TestAggregationSpec_PartialMonths(t *testing.T) {
	cfg := &Config{Aggregation: AggregationConfig{MonthStart: 11}}
	spec, err := cfg.AggregationSpec()
	require.NoError(t, err)
	assert.Equal(t, 11, spec.MonthStart)
	assert.Equal(t, 13, spec.MonthEnd)
}

func TestValidate_Errors(t *testing.T) {
	cases := map[string]*Config{
		"degenerate years": {Scenario: ScenarioConfig{InitialYear: 2040, TargetYear: 2030}},
		"unknown end-use":  {Scenario: ScenarioConfig{Curves: map[model.EndUse]CurveConfig{"lighting": {}}}},
		"bad timezone":     {Timezone: "GMT"},
		"bad mode":         {Aggregation: AggregationConfig{Mode: "median"}},
		"bad season":       {Aggregation: AggregationConfig{Season: "monsoon"}},
		"bad months":       {Aggregation: AggregationConfig{MonthStart: 9, MonthEnd: 3}},
		"mqtt no broker":   {MQTT: MQTTConfig{Enabled: true}},
		"bad dataset":      {Dataset: model.Dataset{Sector: model.SectorResidential, Geography: model.GeographyState, Region: "XX"}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := &Config{Scenario: ScenarioConfig{InitialYear: 2030, TargetYear: 2030}}
	assert.ErrorIs(t, cfg.Validate(), timeseries.ErrDegenerateScenario)
}
