// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

package poller

import (
	"time"

	"github.com/sunweg-labs/sunweg-agent/internal/poller/event"
	"github.com/xmidt-org/retry"
)

type optionFunc func(*Poller) error

var _ Option = optionFunc(nil)

func (f optionFunc) apply(p *Poller) error {
	return f(p)
}

type nilOptionFunc func(*Poller)

var _ Option = nilOptionFunc(nil)

func (f nilOptionFunc) apply(p *Poller) error {
	f(p)
	return nil
}

// DataSource is the source the poller collects from.
func DataSource(source Source) Option {
	return nilOptionFunc(
		func(p *Poller) {
			p.source = source
		})
}

// PlantID selects the plant whose summary is collected.
func PlantID(plantID string) Option {
	return nilOptionFunc(
		func(p *Poller) {
			p.plantID = plantID
		})
}

// Interval is the time between successful polling cycles.  A value of
// zero means the default is used.
func Interval(interval time.Duration) Option {
	return optionFunc(
		func(p *Poller) error {
			if interval < 0 {
				return ErrInvalidInput
			}
			p.interval = interval
			if p.interval == 0 {
				p.interval = DefaultInterval
			}
			return nil
		})
}

// FetchTimeout bounds a single polling cycle.  A value of zero means
// the default is used.
func FetchTimeout(timeout time.Duration) Option {
	return optionFunc(
		func(p *Poller) error {
			if timeout < 0 {
				return ErrInvalidInput
			}
			p.fetchTimeout = timeout
			if p.fetchTimeout == 0 {
				p.fetchTimeout = DefaultFetchTimeout
			}
			return nil
		})
}

// RetryPolicy sets the retry policy factory used for delaying the next
// cycle after a transport failure.
func RetryPolicy(pf retry.PolicyFactory) Option {
	return optionFunc(
		func(p *Poller) error {
			if pf == nil {
				return ErrInvalidInput
			}
			p.retryPolicyFactory = pf
			return nil
		})
}

// NowFunc is the function used to obtain the current time.
func NowFunc(nowFunc func() time.Time) Option {
	return nilOptionFunc(
		func(p *Poller) {
			if nowFunc == nil {
				nowFunc = time.Now
			}
			p.nowFunc = nowFunc
		})
}

// AddUpdateListener adds a listener for update events.  If the optional
// cancel parameter is provided, it is set to a function that can be
// used to cancel the listener.
func AddUpdateListener(listener event.UpdateListener, cancel ...*event.CancelListenerFunc) Option {
	return nilOptionFunc(
		func(p *Poller) {
			cncl := p.updateListeners.Add(listener)
			if len(cancel) > 0 && cancel[0] != nil {
				*cancel[0] = event.CancelListenerFunc(cncl)
			}
		})
}
