// SPDX-FileCopyrightText: 2025 SunWEG Agent Contributors
// SPDX-License-Identifier: Apache-2.0

// Package poller drives the periodic refresh of the SunWEG data.  It
// owns the schedule and the latest snapshot; it never interprets the
// values beyond pairing the plant summary with the aggregate totals.
package poller

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sunweg-labs/sunweg-agent/internal/poller/event"
	"github.com/sunweg-labs/sunweg-agent/internal/session"
	"github.com/sunweg-labs/sunweg-agent/internal/sunweg"
	"github.com/xmidt-org/eventor"
	"github.com/xmidt-org/retry"
)

var ErrInvalidInput = errors.New("invalid input")

const (
	// DefaultInterval matches the platform's recommended refresh rate.
	DefaultInterval = 5 * time.Minute

	// DefaultFetchTimeout bounds a single polling cycle.
	DefaultFetchTimeout = 30 * time.Second
)

// Source provides the data a cycle collects.  *sunweg.Client satisfies
// this.
type Source interface {
	PlantSummary(ctx context.Context, plantID string) (sunweg.PlantSummary, error)
	Totals(ctx context.Context) (sunweg.Totals, error)
}

// Snapshot is the result of one successful polling cycle.
type Snapshot struct {
	Plant  sunweg.PlantSummary
	Totals sunweg.Totals
	At     time.Time
}

type Poller struct {
	m               sync.RWMutex
	wg              sync.WaitGroup
	shutdown        context.CancelFunc
	fetched         chan struct{}
	nowFunc         func() time.Time
	updateListeners eventor.Eventor[event.UpdateListener]

	// What we are polling with.

	source             Source
	plantID            string
	interval           time.Duration
	fetchTimeout       time.Duration
	retryPolicyFactory retry.PolicyFactory

	// What the last cycles produced.

	snapshot *Snapshot
	lastErr  error
}

// Option is the interface implemented by types that can be used to
// configure the poller.
type Option interface {
	apply(*Poller) error
}

// New creates a new poller object.  Start() must be called to begin
// polling.
func New(opts ...Option) (*Poller, error) {
	required := []Option{
		sourceVador(),
		plantIDVador(),
	}

	p := Poller{
		fetched:      make(chan struct{}),
		nowFunc:      time.Now,
		interval:     DefaultInterval,
		fetchTimeout: DefaultFetchTimeout,
		retryPolicyFactory: retry.Config{
			Interval:   time.Minute,
			Multiplier: 2.0,
			MaxRetries: 3,
		},
	}

	opts = append(opts, required...)

	for _, opt := range opts {
		if opt == nil {
			continue
		}

		err := opt.apply(&p)
		if err != nil {
			return nil, err
		}
	}

	return &p, nil
}

// Start starts the polling loop.
func (p *Poller) Start() {
	p.m.Lock()
	defer p.m.Unlock()

	if p.shutdown != nil {
		return
	}

	var ctx context.Context
	ctx, p.shutdown = context.WithCancel(context.Background())

	p.wg.Add(1)
	go p.run(ctx)
}

// Stop stops the polling loop.
func (p *Poller) Stop() {
	p.m.Lock()
	shutdown := p.shutdown
	p.m.Unlock()

	if shutdown != nil {
		shutdown()
	}
	p.wg.Wait()
}

// WaitUntilFetched blocks until the first polling attempt has been made
// or the context is canceled.
func (p *Poller) WaitUntilFetched(ctx context.Context) {
	// fetched is never re-created, so we don't need to lock.
	select {
	case <-p.fetched:
	case <-ctx.Done():
	}
}

// Latest returns the most recent snapshot.  The second return is false
// until a cycle has succeeded.
func (p *Poller) Latest() (Snapshot, bool) {
	p.m.RLock()
	defer p.m.RUnlock()

	if p.snapshot == nil {
		return Snapshot{}, false
	}
	return *p.snapshot, true
}

// Healthy reports whether the most recent cycle succeeded.
func (p *Poller) Healthy() bool {
	p.m.RLock()
	defer p.m.RUnlock()

	return p.snapshot != nil && p.lastErr == nil
}

// cycle performs one fetch of the plant summary and the totals.
func (p *Poller) cycle(ctx context.Context) (*Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	plant, err := p.source.PlantSummary(ctx, p.plantID)
	if err != nil {
		return nil, err
	}

	totals, err := p.source.Totals(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Plant:  plant,
		Totals: totals,
		At:     p.nowFunc(),
	}, nil
}

// run is the main loop for the poller.
func (p *Poller) run(ctx context.Context) {
	var (
		fetched bool
		policy  retry.Policy
	)

	defer p.wg.Done()

	for {
		ue := event.Update{At: p.nowFunc()}

		snapshot, err := p.cycle(ctx)
		ue.Duration = p.nowFunc().Sub(ue.At)
		ue.Err = err
		ue.AuthFailure = errors.Is(err, session.ErrAuth)

		p.m.Lock()
		p.lastErr = err
		if err == nil {
			p.snapshot = snapshot
		}
		p.m.Unlock()

		if !fetched {
			close(p.fetched)
			fetched = true
		}

		next := p.interval
		switch {
		case err == nil, ue.AuthFailure:
			// Success resumes the normal schedule.  An auth failure
			// does too: hammering the login endpoint with a credential
			// the platform rejects helps nobody, the user has to act.
			policy = nil
		case errors.Is(err, session.ErrTransport):
			if policy == nil {
				policy = p.retryPolicyFactory.NewPolicy(ctx)
			}
			if d, ok := policy.Next(); ok && d < next {
				next = d
			}
		}

		ue.RetryingAt = p.nowFunc().Add(next)
		p.updateListeners.Visit(func(listener event.UpdateListener) {
			listener.OnUpdate(ue)
		})

		select {
		case <-time.After(next):
		case <-ctx.Done():
			return
		}
	}
}
