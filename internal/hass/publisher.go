// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

// Package hass publishes the polled SunWEG data to an MQTT broker in
// the form Home Assistant understands.  Discovery configs are retained
// so entities survive HA restarts, and a will message flips the device
// to unavailable when the agent drops off the broker.
package hass

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"go.uber.org/zap"

	"github.com/sunweg-labs/sunweg-agent/internal/poller"
)

var ErrInvalidInput = errors.New("invalid input")

const (
	// DefaultDiscoveryPrefix is where stock HA installs listen for
	// discovery messages.
	DefaultDiscoveryPrefix = "homeassistant"

	// DefaultPublishInterval is the time between state publishes.
	DefaultPublishInterval = time.Minute

	defaultKeepAlive   = 30
	connectWaitTimeout = 30 * time.Second
)

// SnapshotSource is where the publisher reads the latest poll results
// from.  *poller.Poller satisfies this.
type SnapshotSource interface {
	Latest() (poller.Snapshot, bool)
	Healthy() bool
}

type Publisher struct {
	m        sync.Mutex
	wg       sync.WaitGroup
	shutdown context.CancelFunc
	cm       *autopaho.ConnectionManager
	logger   *zap.Logger

	source          SnapshotSource
	broker          string
	username        string
	password        string
	deviceID        string
	deviceName      string
	version         string
	discoveryPrefix string
	publishInterval time.Duration
	device          DeviceInfo
}

// Option is the interface implemented by types that can be used to
// configure the publisher.
type Option interface {
	apply(*Publisher) error
}

// New creates a new publisher object.  Start() must be called to
// connect and begin publishing.
func New(opts ...Option) (*Publisher, error) {
	required := []Option{
		brokerVador(),
		sourceVador(),
		deviceVador(),
	}

	p := Publisher{
		discoveryPrefix: DefaultDiscoveryPrefix,
		publishInterval: DefaultPublishInterval,
		logger:          zap.NewNop(),
	}

	opts = append(opts, required...)

	for _, opt := range opts {
		if opt != nil {
			if err := opt.apply(&p); err != nil {
				return nil, err
			}
		}
	}

	p.device = newDeviceInfo(p.deviceID, p.deviceName, p.version)

	return &p, nil
}

// Start connects to the broker and begins the publish loop.  The
// connection is maintained in the background; reconnects republish the
// discovery configs.
func (p *Publisher) Start() error {
	p.m.Lock()
	defer p.m.Unlock()

	if p.shutdown != nil {
		return nil
	}

	brokerURL, err := url.Parse(p.broker)
	if err != nil {
		return errors.Join(ErrInvalidInput, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	cfg := autopaho.ClientConfig{
		ServerUrls:      []*url.URL{brokerURL},
		KeepAlive:       defaultKeepAlive,
		ConnectUsername: p.username,
		ConnectPassword: []byte(p.password),
		WillMessage: &paho.WillMessage{
			Topic:   p.availabilityTopic(),
			Payload: []byte("offline"),
			QoS:     1,
			Retain:  true,
		},
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			p.logger.Info("mqtt connected", zap.String("broker", p.broker))
			p.publishDiscovery(ctx, cm)
			p.publishAvailability(ctx, cm, "online")
		},
		OnConnectError: func(err error) {
			p.logger.Warn("mqtt connection error", zap.Error(err))
		},
		ClientConfig: paho.ClientConfig{
			ClientID: "sunweg-agent-" + p.deviceID,
		},
	}

	if brokerURL.Scheme == "mqtts" || brokerURL.Scheme == "ssl" {
		cfg.TlsCfg = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	cm, err := autopaho.NewConnection(ctx, cfg)
	if err != nil {
		cancel()
		return err
	}

	p.cm = cm
	p.shutdown = cancel

	p.wg.Add(1)
	go p.run(ctx, cm)

	return nil
}

// Stop publishes an offline availability message, disconnects from the
// broker and halts the publish loop.
func (p *Publisher) Stop() {
	p.m.Lock()
	shutdown := p.shutdown
	cm := p.cm
	p.shutdown = nil
	p.cm = nil
	p.m.Unlock()

	if cm != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		p.publishAvailability(ctx, cm, "offline")
		_ = cm.Disconnect(ctx)
		cancel()
	}

	if shutdown != nil {
		shutdown()
	}
	p.wg.Wait()
}

func (p *Publisher) run(ctx context.Context, cm *autopaho.ConnectionManager) {
	defer p.wg.Done()

	connCtx, connCancel := context.WithTimeout(ctx, connectWaitTimeout)
	if err := cm.AwaitConnection(connCtx); err != nil {
		// The connection manager keeps retrying in the background.
		p.logger.Warn("mqtt initial connection pending", zap.Error(err))
	}
	connCancel()

	ticker := time.NewTicker(p.publishInterval)
	defer ticker.Stop()

	p.publishStates(ctx, cm)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.publishStates(ctx, cm)
		}
	}
}

func (p *Publisher) baseTopic() string {
	return "sunweg/" + p.deviceID
}

func (p *Publisher) availabilityTopic() string {
	return p.baseTopic() + "/availability"
}

func (p *Publisher) stateTopic(entity string) string {
	return p.baseTopic() + "/" + entity + "/state"
}

func (p *Publisher) discoveryTopic(entity string) string {
	return p.discoveryPrefix + "/sensor/" + p.deviceID + "/" + entity + "/config"
}

type sensorDef struct {
	entity string
	config SensorConfig
}

func (p *Publisher) sensorDefinitions() []sensorDef {
	avail := p.availabilityTopic()

	sensor := func(entity, name string) SensorConfig {
		return SensorConfig{
			Name:              p.deviceName + " " + name,
			UniqueID:          p.deviceID + "_" + entity,
			StateTopic:        p.stateTopic(entity),
			AvailabilityTopic: avail,
			Device:            p.device,
		}
	}

	energyToday := sensor("energy_today", "Energy Today")
	energyToday.DeviceClass = "energy"
	energyToday.StateClass = "total_increasing"
	energyToday.UnitOfMeasurement = "kWh"

	energyMonth := sensor("energy_month", "Energy Month")
	energyMonth.DeviceClass = "energy"
	energyMonth.StateClass = "total_increasing"
	energyMonth.UnitOfMeasurement = "kWh"

	energyTotal := sensor("energy_total", "Energy Total")
	energyTotal.DeviceClass = "energy"
	energyTotal.StateClass = "total_increasing"
	energyTotal.UnitOfMeasurement = "kWh"

	activePower := sensor("active_power", "Active Power")
	activePower.DeviceClass = "power"
	activePower.StateClass = "measurement"
	activePower.UnitOfMeasurement = "kW"

	capacity := sensor("capacity", "Installed Capacity")
	capacity.Icon = "mdi:solar-power"
	capacity.UnitOfMeasurement = "kW"

	savedToday := sensor("money_saved_today", "Money Saved Today")
	savedToday.Icon = "mdi:cash"
	savedToday.StateClass = "total_increasing"

	trees := sensor("trees_planted", "Trees Planted")
	trees.Icon = "mdi:tree"
	trees.StateClass = "measurement"

	carbon := sensor("carbon_reduced", "Carbon Reduced")
	carbon.Icon = "mdi:molecule-co2"
	carbon.StateClass = "total_increasing"
	carbon.UnitOfMeasurement = "t"

	plantPower := sensor("plant_power", "Plant Power")
	plantPower.DeviceClass = "power"
	plantPower.StateClass = "measurement"
	plantPower.UnitOfMeasurement = "kW"

	plantEnergyDay := sensor("plant_energy_day", "Plant Energy Today")
	plantEnergyDay.DeviceClass = "energy"
	plantEnergyDay.StateClass = "total_increasing"
	plantEnergyDay.UnitOfMeasurement = "kWh"

	lastPoll := sensor("last_poll", "Last Poll")
	lastPoll.DeviceClass = "timestamp"
	lastPoll.EntityCategory = "diagnostic"

	return []sensorDef{
		{entity: "energy_today", config: energyToday},
		{entity: "energy_month", config: energyMonth},
		{entity: "energy_total", config: energyTotal},
		{entity: "active_power", config: activePower},
		{entity: "capacity", config: capacity},
		{entity: "money_saved_today", config: savedToday},
		{entity: "trees_planted", config: trees},
		{entity: "carbon_reduced", config: carbon},
		{entity: "plant_power", config: plantPower},
		{entity: "plant_energy_day", config: plantEnergyDay},
		{entity: "last_poll", config: lastPoll},
	}
}

func (p *Publisher) publishDiscovery(ctx context.Context, cm *autopaho.ConnectionManager) {
	for _, s := range p.sensorDefinitions() {
		payload, err := json.Marshal(s.config)
		if err != nil {
			p.logger.Error("mqtt discovery marshal failed",
				zap.String("entity", s.entity), zap.Error(err))
			continue
		}

		topic := p.discoveryTopic(s.entity)
		_, err = cm.Publish(ctx, &paho.Publish{
			Topic:   topic,
			Payload: payload,
			QoS:     1,
			Retain:  true,
		})
		if err != nil {
			p.logger.Warn("mqtt discovery publish failed",
				zap.String("entity", s.entity), zap.Error(err))
		}
	}
}

func (p *Publisher) publishAvailability(ctx context.Context, cm *autopaho.ConnectionManager, status string) {
	_, err := cm.Publish(ctx, &paho.Publish{
		Topic:   p.availabilityTopic(),
		Payload: []byte(status),
		QoS:     1,
		Retain:  true,
	})
	if err != nil {
		p.logger.Warn("mqtt availability publish failed",
			zap.String("status", status), zap.Error(err))
	}
}

func (p *Publisher) publishStates(ctx context.Context, cm *autopaho.ConnectionManager) {
	snapshot, ok := p.source.Latest()
	if !ok {
		return
	}

	states := snapshotStates(snapshot)

	for entity, value := range states {
		_, err := cm.Publish(ctx, &paho.Publish{
			Topic:   p.stateTopic(entity),
			Payload: []byte(value),
			QoS:     0,
			Retain:  true,
		})
		if err != nil {
			p.logger.Debug("mqtt state publish failed",
				zap.String("entity", entity), zap.Error(err))
		}
	}
}

// snapshotStates flattens a snapshot into the per entity state values.
// Values the platform omitted or mangled are left out so the sensors
// keep their previous state instead of reporting zero.
func snapshotStates(snapshot poller.Snapshot) map[string]string {
	states := map[string]string{
		"last_poll": snapshot.At.Format(time.RFC3339),
	}

	put := func(entity string, value func() (float64, bool)) {
		if v, ok := value(); ok {
			states[entity] = strconv.FormatFloat(v, 'f', -1, 64)
		}
	}

	put("energy_today", snapshot.Totals.EnergyTodayKWh)
	put("energy_month", snapshot.Totals.EnergyMonthKWh)
	put("energy_total", snapshot.Totals.EnergyTotalKWh)
	put("active_power", snapshot.Totals.ActivePowerKW)
	put("capacity", snapshot.Totals.CapacityKW)
	put("money_saved_today", snapshot.Totals.SavedTodayValue)
	put("trees_planted", snapshot.Totals.TreesPlantedCount)
	put("carbon_reduced", snapshot.Totals.CarbonReducedTons)
	put("plant_power", snapshot.Plant.PowerKW)
	put("plant_energy_day", snapshot.Plant.EnergyDayKWh)

	return states
}
