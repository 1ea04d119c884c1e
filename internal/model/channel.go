package model

import (
	"strings"
	"time"
)

// Canonical column names of a loadshape table. NREL raw headers are mapped
// onto these by NRELColumnMapping.
const (
	ColDatetime               = "Datetime"
	ColElectricityTotal       = "Electricity Total"
	ColElectricityCooling     = "Electricity Cooling"
	ColElectricityHeating     = "Electricity Heating"
	ColSiteEnergyTotal        = "Site Energy Total"
	ColNaturalGasTotal        = "Natural Gas Total"
	ColPropaneTotal           = "Propane Total"
	ColFuelOilTotal           = "Fuel Oil Total"
	ColDistrictHeatingTotal   = "District Heating Total"
	ColDistrictCoolingTotal   = "District Cooling Total"
	ColOtherFuelTotal         = "Other Fuel Total"
	ColNaturalGasHeating      = "Natural Gas Heating"
	ColPropaneHeating         = "Propane Heating"
	ColFuelOilHeating         = "Fuel Oil Heating"
	ColNaturalGasHotWater     = "Natural Gas Hot Water"
	ColPropaneHotWater        = "Propane Hot Water"
	ColFuelOilHotWater        = "Fuel Oil Hot Water"
	ColNaturalGasClothesDryer = "Natural Gas Clothes Dryer"
	ColPropaneClothesDryer    = "Propane Clothes Dryer"
	ColNaturalGasOven         = "Natural Gas Oven"
	ColPropaneOven            = "Propane Oven"

	// Derived by the electrification projection.
	ColNewSupply           = "New Supply"
	ColNewElectricityTotal = "New Electricity Total"
	ColLoadGrowth          = "Load Growth"
)

// nrelRawColumns maps the NREL end-use load profile names (without the
// optional ".kwh" suffix) to canonical column names.
var nrelRawColumns = map[string]string{
	"out.electricity.total.energy_consumption":         ColElectricityTotal,
	"out.electricity.cooling.energy_consumption":       ColElectricityCooling,
	"out.electricity.heating.energy_consumption":       ColElectricityHeating,
	"out.site_energy.total.energy_consumption":         ColSiteEnergyTotal,
	"out.natural_gas.total.energy_consumption":         ColNaturalGasTotal,
	"out.propane.total.energy_consumption":             ColPropaneTotal,
	"out.fuel_oil.total.energy_consumption":            ColFuelOilTotal,
	"out.district_heating.total.energy_consumption":    ColDistrictHeatingTotal,
	"out.district_cooling.total.energy_consumption":    ColDistrictCoolingTotal,
	"out.other_fuel.total.energy_consumption":          ColOtherFuelTotal,
	"out.natural_gas.heating.energy_consumption":       ColNaturalGasHeating,
	"out.propane.heating.energy_consumption":           ColPropaneHeating,
	"out.fuel_oil.heating.energy_consumption":          ColFuelOilHeating,
	"out.natural_gas.hot_water.energy_consumption":     ColNaturalGasHotWater,
	"out.propane.hot_water.energy_consumption":         ColPropaneHotWater,
	"out.fuel_oil.hot_water.energy_consumption":        ColFuelOilHotWater,
	"out.natural_gas.clothes_dryer.energy_consumption": ColNaturalGasClothesDryer,
	"out.propane.clothes_dryer.energy_consumption":     ColPropaneClothesDryer,
	"out.natural_gas.range_oven.energy_consumption":    ColNaturalGasOven,
	"out.propane.range_oven.energy_consumption":        ColPropaneOven,
}

// NRELColumnMapping maps raw NREL CSV headers, with and without the ".kwh"
// unit suffix, to canonical column names. "timestamp" maps to ColDatetime.
var NRELColumnMapping map[string]string

func init() {
	NRELColumnMapping = make(map[string]string, 2*len(nrelRawColumns)+1)
	NRELColumnMapping["timestamp"] = ColDatetime
	for raw, col := range nrelRawColumns {
		NRELColumnMapping[raw] = col
		NRELColumnMapping[raw+".kwh"] = col
	}
}

// CanonicalColumn returns the canonical name for a raw header. Unknown
// headers are returned trimmed and unchanged.
func CanonicalColumn(raw string) string {
	raw = strings.TrimSpace(raw)
	if col, ok := NRELColumnMapping[strings.ToLower(raw)]; ok {
		return col
	}
	return raw
}

type EndUse string

const (
	EndUseSpaceHeating  EndUse = "space_heating"
	EndUseWaterHeating  EndUse = "water_heating"
	EndUseClothesDrying EndUse = "clothes_drying"
	EndUseCooking       EndUse = "cooking"
)

// EndUses lists every end-use in a stable order.
var EndUses = []EndUse{
	EndUseSpaceHeating,
	EndUseWaterHeating,
	EndUseClothesDrying,
	EndUseCooking,
}

// EndUseInfo holds the display name of an end-use and the non-electric fuel
// columns that electrification would convert.
type EndUseInfo struct {
	Name        string
	FuelColumns []string
}

// EndUseCatalog maps every known EndUse to its display name and fuel columns.
var EndUseCatalog = map[EndUse]EndUseInfo{
	EndUseSpaceHeating: {
		Name:        "Space Heater",
		FuelColumns: []string{ColFuelOilHeating, ColNaturalGasHeating, ColPropaneHeating},
	},
	EndUseWaterHeating: {
		Name:        "Water Heater",
		FuelColumns: []string{ColFuelOilHotWater, ColNaturalGasHotWater, ColPropaneHotWater},
	},
	EndUseClothesDrying: {
		Name:        "Clothes Dryer",
		FuelColumns: []string{ColNaturalGasClothesDryer, ColPropaneClothesDryer},
	},
	EndUseCooking: {
		Name:        "Cooking",
		FuelColumns: []string{ColNaturalGasOven, ColPropaneOven},
	},
}

// IsValid reports whether e is one of the fixed end-uses.
func (e EndUse) IsValid() bool {
	_, ok := EndUseCatalog[e]
	return ok
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}
