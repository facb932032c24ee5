// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package hass

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sunweg-labs/sunweg-agent/internal/poller"
	"github.com/sunweg-labs/sunweg-agent/internal/sunweg"
)

type fakeSource struct {
	snapshot poller.Snapshot
	ok       bool
}

func (f *fakeSource) Latest() (poller.Snapshot, bool) { return f.snapshot, f.ok }
func (f *fakeSource) Healthy() bool                   { return f.ok }

func TestNew(t *testing.T) {
	tests := []struct {
		description string
		opts        []Option
		expectedErr error
	}{
		{
			description: "nil option",
			opts: []Option{
				nil,
				Broker("mqtt://broker.local:1883"),
				DataSource(&fakeSource{}),
				Device("abc123", "Sitio Norte"),
			},
		}, {
			description: "common config",
			opts: []Option{
				Broker("mqtt://broker.local:1883"),
				Credential("homeassistant", "secret"),
				DataSource(&fakeSource{}),
				Device("abc123", "Sitio Norte"),
				Version("1.2.3"),
				DiscoveryPrefix("custom"),
				PublishInterval(30 * time.Second),
				Logger(zap.NewNop()),
			},
		}, {
			description: "missing broker",
			opts: []Option{
				DataSource(&fakeSource{}),
				Device("abc123", "Sitio Norte"),
			},
			expectedErr: ErrInvalidInput,
		}, {
			description: "missing source",
			opts: []Option{
				Broker("mqtt://broker.local:1883"),
				Device("abc123", "Sitio Norte"),
			},
			expectedErr: ErrInvalidInput,
		}, {
			description: "missing device",
			opts: []Option{
				Broker("mqtt://broker.local:1883"),
				DataSource(&fakeSource{}),
			},
			expectedErr: ErrInvalidInput,
		}, {
			description: "negative publish interval",
			opts: []Option{
				Broker("mqtt://broker.local:1883"),
				DataSource(&fakeSource{}),
				Device("abc123", "Sitio Norte"),
				PublishInterval(-1 * time.Second),
			},
			expectedErr: ErrInvalidInput,
		}, {
			description: "zero publish interval means default",
			opts: []Option{
				Broker("mqtt://broker.local:1883"),
				DataSource(&fakeSource{}),
				Device("abc123", "Sitio Norte"),
				PublishInterval(0),
			},
		}, {
			description: "empty discovery prefix means default",
			opts: []Option{
				Broker("mqtt://broker.local:1883"),
				DataSource(&fakeSource{}),
				Device("abc123", "Sitio Norte"),
				DiscoveryPrefix(""),
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			assert := assert.New(t)

			got, err := New(tc.opts...)

			if tc.expectedErr == nil {
				assert.NotNil(got)
				assert.NoError(err)
				assert.NotZero(got.publishInterval)
				assert.NotEmpty(got.discoveryPrefix)
				return
			}
			assert.ErrorIs(err, tc.expectedErr)
			assert.Nil(got)
		})
	}
}

func newTestPublisher(t *testing.T) *Publisher {
	t.Helper()

	p, err := New(
		Broker("mqtt://broker.local:1883"),
		DataSource(&fakeSource{}),
		Device("abc123", "Sitio Norte"),
		Version("1.2.3"),
	)
	require.NoError(t, err)
	return p
}

func TestTopics(t *testing.T) {
	assert := assert.New(t)
	p := newTestPublisher(t)

	assert.Equal("sunweg/abc123/availability", p.availabilityTopic())
	assert.Equal("sunweg/abc123/active_power/state", p.stateTopic("active_power"))
	assert.Equal("homeassistant/sensor/abc123/active_power/config", p.discoveryTopic("active_power"))
}

func TestSensorDefinitions(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	p := newTestPublisher(t)

	defs := p.sensorDefinitions()
	require.Len(defs, 11)

	seen := make(map[string]bool)
	for _, s := range defs {
		assert.False(seen[s.entity], "duplicate entity %s", s.entity)
		seen[s.entity] = true

		assert.Equal(p.availabilityTopic(), s.config.AvailabilityTopic)
		assert.Equal(p.stateTopic(s.entity), s.config.StateTopic)
		assert.Equal("abc123_"+s.entity, s.config.UniqueID)
		assert.Equal([]string{"abc123"}, s.config.Device.Identifiers)
		assert.Equal("Sitio Norte", s.config.Device.Name)
		assert.Equal("1.2.3", s.config.Device.SWVersion)

		// Every discovery payload must marshal cleanly.
		payload, err := json.Marshal(s.config)
		require.NoError(err)
		assert.Contains(string(payload), `"unique_id":"abc123_`+s.entity+`"`)
	}

	assert.True(seen["energy_today"])
	assert.True(seen["active_power"])
	assert.True(seen["plant_power"])
	assert.True(seen["last_poll"])
}

func TestSnapshotStates(t *testing.T) {
	assert := assert.New(t)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	snapshot := poller.Snapshot{
		At: at,
		Plant: sunweg.PlantSummary{
			Name:      "Sitio Norte",
			EnergyDay: "18.4 kWh",
			Power:     3.25,
		},
		Totals: sunweg.Totals{
			EnergyToday: "27.5 kWh",
			EnergyTotal: "11.72 MWh",
			ActivePower: "4.6 kW",
			SavedToday:  "R$ 21,40",
			// Mangled values are left out of the publish.
			EnergyMonth: "offline",
		},
	}

	states := snapshotStates(snapshot)

	assert.Equal("2025-06-01T12:00:00Z", states["last_poll"])
	assert.Equal("27.5", states["energy_today"])
	assert.Equal("11720", states["energy_total"])
	assert.Equal("4.6", states["active_power"])
	assert.Equal("21.4", states["money_saved_today"])
	assert.Equal("18.4", states["plant_energy_day"])
	assert.Equal("3.25", states["plant_power"])

	_, present := states["energy_month"]
	assert.False(present)
	_, present = states["capacity"]
	assert.False(present)
}
