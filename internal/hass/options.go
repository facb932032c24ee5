// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package hass

import (
	"time"

	"go.uber.org/zap"
)

type optionFunc func(*Publisher) error

var _ Option = optionFunc(nil)

func (f optionFunc) apply(p *Publisher) error {
	return f(p)
}

type nilOptionFunc func(*Publisher)

var _ Option = nilOptionFunc(nil)

func (f nilOptionFunc) apply(p *Publisher) error {
	f(p)
	return nil
}

// Broker is the MQTT broker URL (mqtt://, mqtts:// or ssl://).
func Broker(broker string) Option {
	return nilOptionFunc(
		func(p *Publisher) {
			p.broker = broker
		})
}

// Credential sets the MQTT username and password.  Both may be empty
// for brokers that allow anonymous connections.
func Credential(username, password string) Option {
	return nilOptionFunc(
		func(p *Publisher) {
			p.username = username
			p.password = password
		})
}

// DataSource is where the publisher reads the latest snapshot from.
func DataSource(source SnapshotSource) Option {
	return nilOptionFunc(
		func(p *Publisher) {
			p.source = source
		})
}

// Device sets the stable device identifier and the human readable name
// shown in the HA UI.
func Device(deviceID, deviceName string) Option {
	return nilOptionFunc(
		func(p *Publisher) {
			p.deviceID = deviceID
			p.deviceName = deviceName
		})
}

// Version is reported as the device software version.
func Version(version string) Option {
	return nilOptionFunc(
		func(p *Publisher) {
			p.version = version
		})
}

// DiscoveryPrefix overrides the HA discovery topic prefix.  An empty
// value means the default is used.
func DiscoveryPrefix(prefix string) Option {
	return nilOptionFunc(
		func(p *Publisher) {
			p.discoveryPrefix = prefix
			if p.discoveryPrefix == "" {
				p.discoveryPrefix = DefaultDiscoveryPrefix
			}
		})
}

// PublishInterval is the time between state publishes.  A value of
// zero means the default is used.
func PublishInterval(interval time.Duration) Option {
	return optionFunc(
		func(p *Publisher) error {
			if interval < 0 {
				return ErrInvalidInput
			}
			p.publishInterval = interval
			if p.publishInterval == 0 {
				p.publishInterval = DefaultPublishInterval
			}
			return nil
		})
}

// Logger sets the logger used by the publisher.  A nil logger means
// logging is discarded.
func Logger(logger *zap.Logger) Option {
	return nilOptionFunc(
		func(p *Publisher) {
			p.logger = logger
			if p.logger == nil {
				p.logger = zap.NewNop()
			}
		})
}
