// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sunweg-labs/sunweg-agent/internal/poller"
	"github.com/sunweg-labs/sunweg-agent/internal/sunweg"
)

// fakeSource serves a fixed snapshot.
type fakeSource struct {
	snapshot poller.Snapshot
	ok       bool
	healthy  bool
}

func (f *fakeSource) Latest() (poller.Snapshot, bool) { return f.snapshot, f.ok }
func (f *fakeSource) Healthy() bool                   { return f.healthy }

func collect(t *testing.T, c *Collector) map[string]float64 {
	t.Helper()

	ch := make(chan prometheus.Metric, 64)
	go func() {
		c.Collect(ch)
		close(ch)
	}()

	got := make(map[string]float64)
	for m := range ch {
		var out dto.Metric
		require.NoError(t, m.Write(&out))

		desc := m.Desc().String()
		// Desc.String() looks like `Desc{fqName: "name", ...}`.
		name := desc[strings.Index(desc, `"`)+1:]
		name = name[:strings.Index(name, `"`)]
		got[name] = out.GetGauge().GetValue()
	}
	return got
}

func TestNewCollector(t *testing.T) {
	assert := assert.New(t)

	got, err := NewCollector(nil, "101", "Sitio Norte")
	assert.Nil(got)
	assert.ErrorIs(err, ErrNilSource)

	got, err = NewCollector(&fakeSource{}, "101", "Sitio Norte")
	assert.NoError(err)
	assert.NotNil(got)
}

func TestDescribe(t *testing.T) {
	assert := assert.New(t)

	c, err := NewCollector(&fakeSource{}, "101", "Sitio Norte")
	assert.NoError(err)

	ch := make(chan *prometheus.Desc, 32)
	go func() {
		c.Describe(ch)
		close(ch)
	}()

	count := 0
	for range ch {
		count++
	}
	assert.Equal(19, count)
}

func TestCollectBeforeFirstPoll(t *testing.T) {
	assert := assert.New(t)

	c, err := NewCollector(&fakeSource{}, "101", "Sitio Norte")
	assert.NoError(err)

	got := collect(t, c)
	assert.Equal(map[string]float64{
		"sunweg_poll_success": 0,
	}, got)
}

func TestCollect(t *testing.T) {
	assert := assert.New(t)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	source := &fakeSource{
		ok:      true,
		healthy: true,
		snapshot: poller.Snapshot{
			At: at,
			Plant: sunweg.PlantSummary{
				Name:      "Sitio Norte",
				EnergyDay: "18.4 kWh",
				Power:     3.2,
				Capacity:  "5.4 kWp",
				YieldDay:  3.41,
			},
			Totals: sunweg.Totals{
				EnergyToday: "27.5 kWh",
				EnergyTotal: "11.72 MWh",
				ActivePower: "4.6 kW",
				SavedToday:  "R$ 21,40",
				PlantCount:  2.0,
				// Unparseable values are skipped, not zeroed.
				EnergyMonth: "offline",
			},
		},
	}

	c, err := NewCollector(source, "101", "")
	assert.NoError(err)

	got := collect(t, c)

	assert.Equal(1.0, got["sunweg_poll_success"])
	assert.Equal(float64(at.Unix()), got["sunweg_last_poll_timestamp_seconds"])
	assert.InDelta(27.5, got["sunweg_energy_today_kwh"], 0.0001)
	assert.InDelta(11720.0, got["sunweg_energy_total_kwh"], 0.0001)
	assert.InDelta(4.6, got["sunweg_active_power_kw"], 0.0001)
	assert.InDelta(21.4, got["sunweg_money_saved_today"], 0.0001)
	assert.InDelta(2.0, got["sunweg_plant_count"], 0.0001)
	assert.InDelta(18.4, got["sunweg_plant_energy_day_kwh"], 0.0001)
	assert.InDelta(3.2, got["sunweg_plant_power_kw"], 0.0001)
	assert.InDelta(5.4, got["sunweg_plant_capacity_kw"], 0.0001)
	assert.InDelta(3.41, got["sunweg_plant_yield_day"], 0.0001)

	_, present := got["sunweg_energy_month_kwh"]
	assert.False(present)
}

func TestCollectStaleSnapshot(t *testing.T) {
	assert := assert.New(t)

	source := &fakeSource{
		ok:      true,
		healthy: false,
		snapshot: poller.Snapshot{
			At:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			Totals: sunweg.Totals{PlantCount: 2.0},
		},
	}

	c, err := NewCollector(source, "101", "Sitio Norte")
	assert.NoError(err)

	got := collect(t, c)

	// The stale snapshot is still exported, marked unhealthy.
	assert.Equal(0.0, got["sunweg_poll_success"])
	assert.InDelta(2.0, got["sunweg_plant_count"], 0.0001)
}
