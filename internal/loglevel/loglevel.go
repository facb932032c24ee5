// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

// Package loglevel allows the running agent's log level to be raised
// temporarily, reverting to the configured level after a duration.
package loglevel

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const DefaultDuration = 5 * time.Minute

type Service struct {
	level     zap.AtomicLevel
	origLevel []byte
}

func New(level zap.AtomicLevel) (*Service, error) {
	origLevel, err := level.MarshalText()
	if err != nil {
		return nil, err
	}

	return &Service{
		level:     level,
		origLevel: origLevel,
	}, nil
}

// SetLevel changes the log level for the given duration, then restores
// the original level.  Note that zap treats an empty level as "info".
func (s *Service) SetLevel(level string, duration time.Duration) error {
	level = strings.ToLower(level)

	err := s.level.UnmarshalText([]byte(level))
	if err != nil {
		return err
	}

	t := time.NewTimer(duration)

	go func() {
		<-t.C
		_ = s.level.UnmarshalText(s.origLevel)
	}()

	return nil
}

// Handler returns an admin endpoint that accepts requests of the form
// PUT /loglevel?level=debug&duration=5m.
func (s *Service) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut && r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		duration := DefaultDuration
		if d := r.URL.Query().Get("duration"); d != "" {
			parsed, err := time.ParseDuration(d)
			if err != nil || parsed <= 0 {
				http.Error(w, "invalid duration", http.StatusBadRequest)
				return
			}
			duration = parsed
		}

		if err := s.SetLevel(r.URL.Query().Get("level"), duration); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	})
}
