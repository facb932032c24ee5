// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sunweg-labs/sunweg-agent/internal/poller"
)

var ErrNilSource = errors.New("nil snapshot source")

// SnapshotSource is where the collector reads the latest poll results
// from.  *poller.Poller satisfies this.
type SnapshotSource interface {
	Latest() (poller.Snapshot, bool)
	Healthy() bool
}

// Collector implements prometheus.Collector for SunWEG metrics.  It is
// read only over the poller's snapshot; scrapes never trigger platform
// requests.
type Collector struct {
	source    SnapshotSource
	plantID   string
	plantName string

	// Aggregate metrics across every plant the account can see.
	energyToday   *prometheus.Desc
	energyMonth   *prometheus.Desc
	energyTotal   *prometheus.Desc
	activePower   *prometheus.Desc
	capacity      *prometheus.Desc
	treesPlanted  *prometheus.Desc
	kmElectric    *prometheus.Desc
	carbonReduced *prometheus.Desc
	savedToday    *prometheus.Desc
	savedTotal    *prometheus.Desc
	plantCount    *prometheus.Desc

	// Per plant metrics for the configured plant.
	plantEnergyDay   *prometheus.Desc
	plantEnergyMonth *prometheus.Desc
	plantPower       *prometheus.Desc
	plantCapacity    *prometheus.Desc
	plantYieldDay    *prometheus.Desc
	plantYieldMonth  *prometheus.Desc

	pollSuccess *prometheus.Desc
	lastPoll    *prometheus.Desc
}

// NewCollector creates a new SunWEG collector reading from the given
// source.
func NewCollector(source SnapshotSource, plantID, plantName string) (*Collector, error) {
	if source == nil {
		return nil, ErrNilSource
	}

	plantLabels := []string{"plant_id", "plant_name"}

	return &Collector{
		source:    source,
		plantID:   plantID,
		plantName: plantName,
		energyToday: prometheus.NewDesc(
			"sunweg_energy_today_kwh",
			"Energy generated today across all plants in kWh",
			nil, nil,
		),
		energyMonth: prometheus.NewDesc(
			"sunweg_energy_month_kwh",
			"Energy generated this month across all plants in kWh",
			nil, nil,
		),
		energyTotal: prometheus.NewDesc(
			"sunweg_energy_total_kwh",
			"Lifetime energy generated across all plants in kWh",
			nil, nil,
		),
		activePower: prometheus.NewDesc(
			"sunweg_active_power_kw",
			"Current active power across all plants in kW",
			nil, nil,
		),
		capacity: prometheus.NewDesc(
			"sunweg_capacity_kw",
			"Installed capacity across all plants in kW",
			nil, nil,
		),
		treesPlanted: prometheus.NewDesc(
			"sunweg_trees_planted",
			"Equivalent trees planted",
			nil, nil,
		),
		kmElectric: prometheus.NewDesc(
			"sunweg_km_driven_electric",
			"Equivalent electric kilometers driven",
			nil, nil,
		),
		carbonReduced: prometheus.NewDesc(
			"sunweg_carbon_reduced_tons",
			"Total carbon reduction in tons",
			nil, nil,
		),
		savedToday: prometheus.NewDesc(
			"sunweg_money_saved_today",
			"Savings today in the account currency",
			nil, nil,
		),
		savedTotal: prometheus.NewDesc(
			"sunweg_money_saved_total",
			"Accumulated savings in the account currency",
			nil, nil,
		),
		plantCount: prometheus.NewDesc(
			"sunweg_plant_count",
			"Number of plants the account can see",
			nil, nil,
		),
		plantEnergyDay: prometheus.NewDesc(
			"sunweg_plant_energy_day_kwh",
			"Energy generated today by the configured plant in kWh",
			plantLabels, nil,
		),
		plantEnergyMonth: prometheus.NewDesc(
			"sunweg_plant_energy_month_kwh",
			"Energy generated this month by the configured plant in kWh",
			plantLabels, nil,
		),
		plantPower: prometheus.NewDesc(
			"sunweg_plant_power_kw",
			"Current power of the configured plant in kW",
			plantLabels, nil,
		),
		plantCapacity: prometheus.NewDesc(
			"sunweg_plant_capacity_kw",
			"Installed capacity of the configured plant in kW",
			plantLabels, nil,
		),
		plantYieldDay: prometheus.NewDesc(
			"sunweg_plant_yield_day",
			"Daily yield of the configured plant",
			plantLabels, nil,
		),
		plantYieldMonth: prometheus.NewDesc(
			"sunweg_plant_yield_month",
			"Monthly yield of the configured plant",
			plantLabels, nil,
		),
		pollSuccess: prometheus.NewDesc(
			"sunweg_poll_success",
			"Whether the most recent polling cycle succeeded",
			nil, nil,
		),
		lastPoll: prometheus.NewDesc(
			"sunweg_last_poll_timestamp_seconds",
			"Unix time of the last successful polling cycle",
			nil, nil,
		),
	}, nil
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.energyToday
	ch <- c.energyMonth
	ch <- c.energyTotal
	ch <- c.activePower
	ch <- c.capacity
	ch <- c.treesPlanted
	ch <- c.kmElectric
	ch <- c.carbonReduced
	ch <- c.savedToday
	ch <- c.savedTotal
	ch <- c.plantCount
	ch <- c.plantEnergyDay
	ch <- c.plantEnergyMonth
	ch <- c.plantPower
	ch <- c.plantCapacity
	ch <- c.plantYieldDay
	ch <- c.plantYieldMonth
	ch <- c.pollSuccess
	ch <- c.lastPoll
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	success := 0.0
	if c.source.Healthy() {
		success = 1.0
	}
	ch <- prometheus.MustNewConstMetric(c.pollSuccess, prometheus.GaugeValue, success)

	snapshot, ok := c.source.Latest()
	if !ok {
		return
	}

	ch <- prometheus.MustNewConstMetric(c.lastPoll, prometheus.GaugeValue, float64(snapshot.At.Unix()))

	totals := snapshot.Totals
	emit(ch, c.energyToday, totals.EnergyTodayKWh)
	emit(ch, c.energyMonth, totals.EnergyMonthKWh)
	emit(ch, c.energyTotal, totals.EnergyTotalKWh)
	emit(ch, c.activePower, totals.ActivePowerKW)
	emit(ch, c.capacity, totals.CapacityKW)
	emit(ch, c.treesPlanted, totals.TreesPlantedCount)
	emit(ch, c.kmElectric, totals.KmElectricValue)
	emit(ch, c.carbonReduced, totals.CarbonReducedTons)
	emit(ch, c.savedToday, totals.SavedTodayValue)
	emit(ch, c.savedTotal, totals.SavedTotalValue)
	emit(ch, c.plantCount, totals.PlantCountValue)

	plant := snapshot.Plant
	name := c.plantName
	if name == "" {
		name = plant.Name
	}
	labels := []string{c.plantID, name}
	emit(ch, c.plantEnergyDay, plant.EnergyDayKWh, labels...)
	emit(ch, c.plantEnergyMonth, plant.EnergyMonthKWh, labels...)
	emit(ch, c.plantPower, plant.PowerKW, labels...)
	emit(ch, c.plantCapacity, plant.CapacityKW, labels...)
	emit(ch, c.plantYieldDay, plant.YieldDayValue, labels...)
	emit(ch, c.plantYieldMonth, plant.YieldMonthValue, labels...)
}

// emit writes one gauge if the platform value parsed.  Values the
// platform omits or mangles are simply absent from the scrape.
func emit(ch chan<- prometheus.Metric, desc *prometheus.Desc, value func() (float64, bool), labels ...string) {
	if v, ok := value(); ok {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labels...)
	}
}
