package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"loadshape_toolkit/internal/electrification"
	"loadshape_toolkit/internal/model"
	"loadshape_toolkit/internal/timeseries"
)

const (
	DefaultInitialYear = 2018
	DefaultTargetYear  = 2045
	DefaultPeakRate    = 50
	DefaultTopicPrefix = "loadshape"
	DefaultServerAddr  = ":8080"
)

// Config holds the application configuration
type Config struct {
	Dataset     model.Dataset     `yaml:"dataset"`
	Aggregation AggregationConfig `yaml:"aggregation,omitempty"`
	Timezone    model.Timezone    `yaml:"timezone,omitempty"` // EST (default), CST, MST or PST
	Scenario    ScenarioConfig    `yaml:"scenario,omitempty"`
	MQTT        MQTTConfig        `yaml:"mqtt,omitempty"`
	ServerAddr  string            `yaml:"server_addr,omitempty"`
}

// AggregationConfig selects how a year of data is reduced to a day.
// Season takes precedence over MonthStart/MonthEnd.
type AggregationConfig struct {
	Mode       string `yaml:"mode,omitempty"`        // avg (default), sum, peak_day
	MonthStart int    `yaml:"month_start,omitempty"` // 1-12
	MonthEnd   int    `yaml:"month_end,omitempty"`   // exclusive, 2-13
	Season     string `yaml:"season,omitempty"`      // winter, spring, summer, fall
	DayType    string `yaml:"day_type,omitempty"`    // all (default), weekday, weekend
}

// ScenarioConfig holds the electrification scenario.
type ScenarioConfig struct {
	InitialYear int                          `yaml:"initial_year,omitempty"`
	TargetYear  int                          `yaml:"target_year,omitempty"`
	StudyYear   int                          `yaml:"study_year,omitempty"`
	Curves      map[model.EndUse]CurveConfig `yaml:"curves,omitempty"`
}

// CurveConfig overrides the adoption curve of one end-use. Zero values fall
// back to the defaults.
type CurveConfig struct {
	PeakYear float64 `yaml:"peak_year,omitempty"`
	PeakRate float64 `yaml:"peak_rate,omitempty"` // percent
	Disabled bool    `yaml:"disabled,omitempty"`
}

// MQTTConfig holds MQTT broker settings for publishing peak summaries
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"` // host:port
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"`
	ClientID    string `yaml:"client_id,omitempty"`
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// AggregationSpec builds the aggregation spec, defaulting to a whole-year
// average over all days.
func (c *Config) AggregationSpec() (timeseries.Spec, error) {
	a := c.Aggregation
	spec := timeseries.DefaultSpec()

	if a.Mode != "" {
		mode, err := timeseries.ParseMode(a.Mode)
		if err != nil {
			return timeseries.Spec{}, err
		}
		spec.Mode = mode
	}

	dayType, err := timeseries.ParseDayType(a.DayType)
	if err != nil {
		return timeseries.Spec{}, err
	}
	spec.DayType = dayType

	switch {
	case a.Season != "":
		start, end, err := timeseries.SeasonWindow(a.Season)
		if err != nil {
			return timeseries.Spec{}, err
		}
		spec.MonthStart, spec.MonthEnd = start, end
	case a.MonthStart != 0 || a.MonthEnd != 0:
		spec.MonthStart, spec.MonthEnd = a.MonthStart, a.MonthEnd
		if spec.MonthStart == 0 {
			spec.MonthStart = 1
		}
		if spec.MonthEnd == 0 {
			spec.MonthEnd = 13
		}
	}

	if err := spec.Validate(); err != nil {
		return timeseries.Spec{}, err
	}
	return spec, nil
}

// Years returns the scenario's initial, target and study year. The study
// year defaults to the target year.
func (c *Config) Years() (initial, target, study int) {
	initial, target, study = c.Scenario.InitialYear, c.Scenario.TargetYear, c.Scenario.StudyYear
	if initial == 0 {
		initial = DefaultInitialYear
	}
	if target == 0 {
		target = DefaultTargetYear
	}
	if study == 0 {
		study = target
	}
	return initial, target, study
}

// CurveParams returns adoption curve parameters for every end-use. End-uses
// not listed in the config get the default curve and are enabled.
func (c *Config) CurveParams() map[model.EndUse]electrification.CurveParams {
	initial, target, _ := c.Years()
	out := make(map[model.EndUse]electrification.CurveParams, len(model.EndUses))
	for _, eu := range model.EndUses {
		p := electrification.DefaultCurve(initial, target)
		if cc, ok := c.Scenario.Curves[eu]; ok {
			if cc.PeakYear != 0 {
				p.PeakYear = cc.PeakYear
			}
			if cc.PeakRate != 0 {
				p.PeakRate = cc.PeakRate
			}
			p.Enabled = !cc.Disabled
		}
		out[eu] = p
	}
	return out
}

// Validate checks the parts of the config that have no usable default.
func (c *Config) Validate() error {
	if c.Dataset.Sector != "" {
		if err := c.Dataset.Validate(); err != nil {
			return fmt.Errorf("dataset: %w", err)
		}
	}
	for eu := range c.Scenario.Curves {
		if !eu.IsValid() {
			return fmt.Errorf("scenario: unknown end-use %q", eu)
		}
	}
	initial, target, _ := c.Years()
	if initial >= target {
		return fmt.Errorf("scenario: %w: %d >= %d", electrification.ErrDegenerateScenario, initial, target)
	}
	if _, err := c.Timezone.OffsetFromEST(); err != nil {
		return err
	}
	if _, err := c.AggregationSpec(); err != nil {
		return fmt.Errorf("aggregation: %w", err)
	}
	if c.MQTT.Enabled && c.MQTT.Broker == "" {
		return fmt.Errorf("MQTT broker address is required when enabled")
	}
	return nil
}

// GetTopicPrefix returns the MQTT topic prefix with a default of "loadshape"
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return DefaultTopicPrefix
	}
	return c.MQTT.TopicPrefix
}

// GetServerAddr returns the WebSocket server listen address
func (c *Config) GetServerAddr() string {
	if c.ServerAddr == "" {
		return DefaultServerAddr
	}
	return c.ServerAddr
}
