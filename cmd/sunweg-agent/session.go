// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/sunweg-labs/sunweg-agent/internal/session"
	"github.com/sunweg-labs/sunweg-agent/internal/session/event"
)

type sessionIn struct {
	fx.In
	Website Website
	Logger  *zap.Logger
}

type sessionOut struct {
	fx.Out
	Session *session.Session
	Cancels []func() `group:"listener_cancels,flatten"`
}

func (in sessionIn) Options() ([]session.Option, error) {
	logger := in.Logger.Named("session")

	client, err := in.Website.HTTPClient.NewClient()
	if err != nil {
		return nil, err
	}

	opts := []session.Option{
		session.BaseURL(in.Website.URL),
		session.Credential(in.Website.Username, in.Website.Password),
		session.HTTPClient(client),
		session.LoginPath(in.Website.LoginPath),
		session.UserAgent(in.Website.UserAgent),
		session.TokenTTL(in.Website.TokenTTL),
		session.ExpiryMargin(in.Website.ExpiryMargin),
		session.AddLoginListener(event.LoginListenerFunc(
			func(e event.Login) {
				logger.Info("login",
					zap.Time("at", e.At),
					zap.Duration("duration", e.Duration),
					zap.String("uuid", e.UUID.String()),
					zap.Int("status_code", e.StatusCode),
					zap.Time("expiration", e.Expiration),
					zap.Error(e.Err),
				)
			})),
		session.AddFetchListener(event.FetchListenerFunc(
			func(e event.Fetch) {
				logger.Debug("fetch",
					zap.String("endpoint", e.Endpoint),
					zap.Time("at", e.At),
					zap.Duration("duration", e.Duration),
					zap.String("uuid", e.UUID.String()),
					zap.Int("status_code", e.StatusCode),
					zap.Bool("retried", e.Retried),
					zap.Error(e.Err),
				)
			})),
	}

	return opts, nil
}

func provideSession(in sessionIn) (sessionOut, error) {
	opts, err := in.Options()
	if err != nil {
		return sessionOut{}, err
	}

	s, err := session.New(opts...)
	if err != nil {
		return sessionOut{}, err
	}

	return sessionOut{Session: s}, nil
}
