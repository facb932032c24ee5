// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sunweg-labs/sunweg-agent/internal/hass"
	"github.com/sunweg-labs/sunweg-agent/internal/poller"
)

type hassIn struct {
	fx.In
	Cfg     Mqtt
	Website Website
	Poller  *poller.Poller
	LC      fx.Lifecycle
	Logger  *zap.Logger
}

func provideHass(in hassIn) (*hass.Publisher, error) {
	logger := in.Logger.Named("hass")

	// No broker configured means MQTT publishing is off.
	if in.Cfg.Broker == "" {
		logger.Warn("no mqtt broker configured")
		return nil, nil
	}

	deviceName := in.Cfg.DeviceName
	if deviceName == "" {
		deviceName = in.Website.PlantName
	}

	p, err := hass.New(
		hass.Broker(in.Cfg.Broker),
		hass.Credential(in.Cfg.Username, in.Cfg.Password),
		hass.DataSource(in.Poller),
		hass.Device(in.Cfg.DeviceID, deviceName),
		hass.Version(version),
		hass.DiscoveryPrefix(in.Cfg.DiscoveryPrefix),
		hass.PublishInterval(in.Cfg.PublishInterval),
		hass.Logger(logger),
	)
	if err != nil {
		return nil, err
	}

	in.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			return p.Start()
		},
		OnStop: func(context.Context) error {
			p.Stop()
			return nil
		},
	})

	return p, nil
}
