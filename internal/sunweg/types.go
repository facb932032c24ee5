// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package sunweg

import "encoding/json"

// PlantSummary is one entry of the getdadosresumo response.  The
// platform reports most values as display strings ("11.72 MWh",
// "R$ 1.234,56"), so the numeric fields are kept raw and converted by
// the accessors below.
type PlantSummary struct {
	ID         json.Number `json:"id"`
	Name       string      `json:"nome"`
	Situation  string      `json:"situacao"`
	EnergyDay  any         `json:"energiadia"`
	EnergyMon  any         `json:"energia_mes"`
	Power      any         `json:"potencia"`
	Capacity   any         `json:"capacidade"`
	YieldDay   any         `json:"yield_dia"`
	YieldMonth any         `json:"yield_mes"`
}

// EnergyDayKWh returns the plant's energy generated today in kWh.
func (p PlantSummary) EnergyDayKWh() (float64, bool) {
	return Numeric(p.EnergyDay, energyMultipliers)
}

// EnergyMonthKWh returns the plant's energy generated this month in kWh.
func (p PlantSummary) EnergyMonthKWh() (float64, bool) {
	return Numeric(p.EnergyMon, energyMultipliers)
}

// PowerKW returns the plant's current active power in kW.
func (p PlantSummary) PowerKW() (float64, bool) {
	return Numeric(p.Power, powerMultipliers)
}

// CapacityKW returns the plant's installed capacity in kW.
func (p PlantSummary) CapacityKW() (float64, bool) {
	return Numeric(p.Capacity, capacityMultipliers)
}

// YieldDayValue returns the plant's daily yield figure.
func (p PlantSummary) YieldDayValue() (float64, bool) {
	return Numeric(p.YieldDay, nil)
}

// YieldMonthValue returns the plant's monthly yield figure.
func (p PlantSummary) YieldMonthValue() (float64, bool) {
	return Numeric(p.YieldMonth, nil)
}

// Totals is the aggregated view across every plant the account can
// see, from the gettotalizadores endpoint.
type Totals struct {
	EnergyToday   any `json:"energia_gerada_hoje"`
	EnergyMonth   any `json:"energia_gerada_mes"`
	EnergyTotal   any `json:"energia_gerada_total"`
	ActivePower   any `json:"potencia_ativa_total"`
	Capacity      any `json:"capacidade_usinas"`
	TreesPlanted  any `json:"arvores_plantadas"`
	KmElectric    any `json:"km_rodado_eletrico"`
	CarbonReduced any `json:"reduz_carbono_total"`
	SavedToday    any `json:"total_economizado_hoje"`
	SavedTotal    any `json:"total_economizado_acumulado"`
	PlantCount    any `json:"quantidade_usinas"`
}

// EnergyTodayKWh returns the energy generated today across all plants
// in kWh.
func (t Totals) EnergyTodayKWh() (float64, bool) {
	return Numeric(t.EnergyToday, energyMultipliers)
}

// EnergyMonthKWh returns the energy generated this month across all
// plants in kWh.
func (t Totals) EnergyMonthKWh() (float64, bool) {
	return Numeric(t.EnergyMonth, energyMultipliers)
}

// EnergyTotalKWh returns the lifetime energy generated across all
// plants in kWh.
func (t Totals) EnergyTotalKWh() (float64, bool) {
	return Numeric(t.EnergyTotal, energyMultipliers)
}

// ActivePowerKW returns the current active power across all plants in kW.
func (t Totals) ActivePowerKW() (float64, bool) {
	return Numeric(t.ActivePower, powerMultipliers)
}

// CapacityKW returns the installed capacity across all plants in kW.
func (t Totals) CapacityKW() (float64, bool) {
	return Numeric(t.Capacity, capacityMultipliers)
}

// TreesPlantedCount returns the equivalent trees planted figure.
func (t Totals) TreesPlantedCount() (float64, bool) {
	return Numeric(t.TreesPlanted, nil)
}

// KmElectricValue returns the equivalent electric kilometers figure.
func (t Totals) KmElectricValue() (float64, bool) {
	return Numeric(t.KmElectric, nil)
}

// CarbonReducedTons returns the total carbon reduction in tons.
func (t Totals) CarbonReducedTons() (float64, bool) {
	return Numeric(t.CarbonReduced, nil)
}

// SavedTodayValue returns today's savings in the account currency.
func (t Totals) SavedTodayValue() (float64, bool) {
	return Numeric(t.SavedToday, nil)
}

// SavedTotalValue returns the accumulated savings in the account
// currency.
func (t Totals) SavedTotalValue() (float64, bool) {
	return Numeric(t.SavedTotal, nil)
}

// PlantCountValue returns the number of plants the account can see.
func (t Totals) PlantCountValue() (float64, bool) {
	return Numeric(t.PlantCount, nil)
}

var (
	energyMultipliers = map[string]float64{
		"Wh":  0.001,
		"kWh": 1.0,
		"MWh": 1000.0,
		"GWh": 1000000.0,
	}
	powerMultipliers = map[string]float64{
		"W":  0.001,
		"kW": 1.0,
		"MW": 1000.0,
	}
	capacityMultipliers = map[string]float64{
		"kW":  1.0,
		"kWp": 1.0,
		"MW":  1000.0,
		"MWp": 1000.0,
	}
)
