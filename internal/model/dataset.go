package model

import (
	"fmt"
	"slices"
	"strings"
)

type Sector string

const (
	SectorResidential Sector = "resstock"
	SectorCommercial  Sector = "comstock"
)

// NonElectricTotals returns the fuel total columns that count as
// non-electric supply for a sector.
func (s Sector) NonElectricTotals() []string {
	switch s {
	case SectorCommercial:
		return []string{ColNaturalGasTotal, ColDistrictHeatingTotal, ColDistrictCoolingTotal, ColOtherFuelTotal}
	default:
		return []string{ColNaturalGasTotal, ColFuelOilTotal, ColPropaneTotal}
	}
}

// Geography selects how a dataset was sliced before download.
type Geography string

const (
	GeographyState           Geography = "state"
	GeographyClimateZone     Geography = "climate_zone"
	GeographyClimateZoneIECC Geography = "climate_zone_iecc"
)

var ClimateZones = []string{"cold", "hot-dry", "hot-humid", "marine", "mixed-dry", "mixed-humid", "very-cold"}

var ClimateZonesIECC = []string{
	"1A", "2A", "2B", "3A", "3B", "3C", "4A", "4B", "4C", "5A", "5B", "5C", "6A", "6B", "7", "8",
}

var HomeTypes = []string{
	"mobile_home", "single-family_detached", "single-family_attached",
	"multi-family_with_2_-_4_units", "multi-family_with_5plus_units",
}

var BuildingTypes = []string{
	"fullservicerestaurant", "quickservicerestaurant", "hospital",
	"outpatient", "largehotel", "smallhotel", "largeoffice",
	"mediumoffice", "smalloffice", "secondaryschool", "primaryschool",
	"retailstripmall", "retailstandalone", "warehouse",
}

var States = []string{
	"AK", "AL", "AR", "AZ", "CA", "CO", "CT", "DC", "DE", "FL", "GA",
	"HI", "IA", "ID", "IL", "IN", "KS", "KY", "LA", "MA", "MD", "ME",
	"MI", "MN", "MO", "MS", "MT", "NC", "ND", "NE", "NH", "NJ", "NM",
	"NV", "NY", "OH", "OK", "OR", "PA", "RI", "SC", "SD", "TN", "TX",
	"UT", "VA", "VT", "WA", "WI", "WV", "WY",
}

// Dataset identifies the aggregate a table was loaded from. It is used to
// label stored runs and published topics; the core never interprets it.
type Dataset struct {
	Sector       Sector    `yaml:"sector" json:"sector"`
	Geography    Geography `yaml:"geography" json:"geography"`
	Region       string    `yaml:"region" json:"region"`
	BuildingType string    `yaml:"building_type,omitempty" json:"building_type,omitempty"`
}

// Validate checks the dataset against the known lookup tables.
func (d Dataset) Validate() error {
	switch d.Sector {
	case SectorResidential:
		if d.BuildingType != "" && !slices.Contains(HomeTypes, d.BuildingType) {
			return fmt.Errorf("unknown home type %q", d.BuildingType)
		}
	case SectorCommercial:
		if d.BuildingType != "" && !slices.Contains(BuildingTypes, d.BuildingType) {
			return fmt.Errorf("unknown building type %q", d.BuildingType)
		}
	default:
		return fmt.Errorf("unknown sector %q", d.Sector)
	}

	var known []string
	region := d.Region
	switch d.Geography {
	case GeographyState:
		known = States
		region = strings.ToUpper(region)
	case GeographyClimateZone:
		known = ClimateZones
	case GeographyClimateZoneIECC:
		known = ClimateZonesIECC
	default:
		return fmt.Errorf("unknown geography %q", d.Geography)
	}
	if !slices.Contains(known, region) {
		return fmt.Errorf("unknown %s %q", d.Geography, d.Region)
	}
	return nil
}

// Label returns a slash-free identifier such as "resstock-CA-mobile_home".
func (d Dataset) Label() string {
	parts := []string{string(d.Sector)}
	if d.Region != "" {
		region := d.Region
		if d.Geography == GeographyState {
			region = strings.ToUpper(region)
		}
		parts = append(parts, region)
	}
	if d.BuildingType != "" {
		parts = append(parts, d.BuildingType)
	} else {
		parts = append(parts, "all")
	}
	return strings.Join(parts, "-")
}

type Timezone string

const (
	TimezoneEST Timezone = "EST"
	TimezoneCST Timezone = "CST"
	TimezoneMST Timezone = "MST"
	TimezonePST Timezone = "PST"
)

// tzOffsetFromEST is the hour offset of each US timezone relative to
// Eastern Standard Time, the reference clock of the NREL aggregates.
var tzOffsetFromEST = map[Timezone]int{
	TimezoneEST: 0,
	TimezoneCST: -1,
	TimezoneMST: -2,
	TimezonePST: -3,
}

// OffsetFromEST returns the hour offset of tz relative to EST.
func (tz Timezone) OffsetFromEST() (int, error) {
	if tz == "" {
		return 0, nil
	}
	off, ok := tzOffsetFromEST[Timezone(strings.ToUpper(string(tz)))]
	if !ok {
		return 0, fmt.Errorf("unknown timezone %q", tz)
	}
	return off, nil
}
