// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sunweg-labs/sunweg-agent/internal/poller"
	"github.com/sunweg-labs/sunweg-agent/internal/poller/event"
	"github.com/sunweg-labs/sunweg-agent/internal/session"
	"github.com/sunweg-labs/sunweg-agent/internal/sunweg"
)

func provideDataClient(s *session.Session) (*sunweg.Client, error) {
	return sunweg.New(s)
}

type pollerIn struct {
	fx.In
	Cfg     Poller
	Website Website
	Client  *sunweg.Client
	Logger  *zap.Logger
}

type pollerOut struct {
	fx.Out
	Poller  *poller.Poller
	Cancels []func() `group:"listener_cancels,flatten"`
}

func providePoller(in pollerIn) (pollerOut, error) {
	logger := in.Logger.Named("poller")

	var cancel event.CancelListenerFunc
	opts := []poller.Option{
		poller.DataSource(in.Client),
		poller.PlantID(in.Website.PlantID),
		poller.Interval(in.Cfg.Interval),
		poller.FetchTimeout(in.Cfg.FetchTimeout),
		poller.RetryPolicy(in.Cfg.RetryPolicy),
		poller.AddUpdateListener(event.UpdateListenerFunc(
			func(e event.Update) {
				if e.Err == nil {
					logger.Debug("update",
						zap.Time("at", e.At),
						zap.Duration("duration", e.Duration),
					)
					return
				}
				logger.Warn("update failed",
					zap.Time("at", e.At),
					zap.Duration("duration", e.Duration),
					zap.Time("retrying_at", e.RetryingAt),
					zap.Bool("auth_failure", e.AuthFailure),
					zap.Error(e.Err),
				)
			}), &cancel),
	}

	p, err := poller.New(opts...)
	if err != nil {
		return pollerOut{}, err
	}

	return pollerOut{
		Poller:  p,
		Cancels: []func(){cancel},
	}, nil
}
