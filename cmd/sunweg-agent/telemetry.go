// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sunweg-labs/sunweg-agent/internal/loglevel"
	"github.com/sunweg-labs/sunweg-agent/internal/metrics"
	"github.com/sunweg-labs/sunweg-agent/internal/poller"
)

func provideCollector(p *poller.Poller, website Website) (*metrics.Collector, error) {
	return metrics.NewCollector(p, website.PlantID, website.PlantName)
}

type telemetryIn struct {
	fx.In
	Cfg       Telemetry
	Collector *metrics.Collector
	Levels    *loglevel.Service
	LC        fx.Lifecycle
	Logger    *zap.Logger
}

func provideTelemetryServer(in telemetryIn) (*http.Server, error) {
	logger := in.Logger.Named("telemetry")

	if in.Cfg.Disable {
		logger.Warn("telemetry endpoint disabled")
		return nil, nil
	}

	registry := prometheus.NewRegistry()
	if err := registry.Register(in.Collector); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.Handle("/loglevel", in.Levels.Handler())

	srv := &http.Server{
		Addr:              in.Cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	in.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				err := srv.ListenAndServe()
				if err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("telemetry server failed", zap.Error(err))
				}
			}()
			logger.Info("telemetry listening", zap.String("address", in.Cfg.Address))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv, nil
}
